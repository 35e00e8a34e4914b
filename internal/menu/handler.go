package menu

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campuscanteen/canteen-service/internal/httpx"
	"github.com/campuscanteen/canteen-service/pkg/models"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
	logger  *logrus.Logger
}

func NewHandler(service *Service, logger *logrus.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list menu")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to load menu")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"items":   items,
		"count":   len(items),
	})
}

func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var item models.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), item)
	if err != nil {
		h.respondWithMenuError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Menu item added.",
		"item":    created,
	})
}

func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]

	var params UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.Update(r.Context(), itemID, params); err != nil {
		h.respondWithMenuError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Menu item updated.",
	})
}

func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]

	if err := h.service.Delete(r.Context(), itemID); err != nil {
		h.respondWithMenuError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Menu item deleted.",
	})
}

func (h *Handler) respondWithMenuError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpx.RespondError(w, http.StatusBadRequest, validationErr.Reason)
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, http.StatusNotFound, "Menu item not found")
	default:
		h.logger.WithError(err).Error("Menu operation failed")
		httpx.RespondError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
