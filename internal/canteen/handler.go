package canteen

import (
	"encoding/json"
	"net/http"

	"github.com/campuscanteen/canteen-service/internal/httpx"
	"github.com/campuscanteen/canteen-service/pkg/models"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
	logger  *logrus.Logger
}

func NewHandler(service *Service, logger *logrus.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to read canteen status")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to load canteen status")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  status,
	})
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.CanteenStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !req.Status.Valid() {
		httpx.RespondError(w, http.StatusBadRequest, "status must be taking_orders or not_taking_orders")
		return
	}

	if err := h.service.SetStatus(r.Context(), req.Status); err != nil {
		h.logger.WithError(err).Error("Failed to update canteen status")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to update status")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Canteen status updated.",
	})
}
