package orders

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campuscanteen/canteen-service/internal/auth"
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

type placeOrderRequest struct {
	Items        []models.OrderItem `json:"items"`
	Phone        string             `json:"phone"`
	Hostel       string             `json:"hostel"`
	Instructions string             `json:"instructions"`
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.Place(r.Context(), identity, req.Items, req.Phone, req.Hostel, req.Instructions)
	if err != nil {
		h.respondWithOrderError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, models.OrderResponse{
		Success: true,
		Message: "Order placed successfully.",
		Order:   order,
	})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var (
		orders []models.Order
		err    error
	)
	if identity.Admin {
		orders, err = h.service.ListAll(r.Context())
	} else {
		orders, err = h.service.ListForUser(r.Context(), identity.UserID)
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to list orders")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to load orders")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  orders,
		"count":   len(orders),
	})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	orderID := mux.Vars(r)["id"]

	order, err := h.service.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get order")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to load order")
		return
	}

	if !identity.Admin && order.UserID != identity.UserID {
		httpx.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, order)
}

type transitionRequest struct {
	Status          models.OrderStatus `json:"status"`
	EstimateMinutes int                `json:"estimate_minutes"`
}

func (h *Handler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	orderID := mux.Vars(r)["id"]

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.Transition(r.Context(), orderID, req.Status, identity, req.EstimateMinutes)
	if err != nil {
		h.respondWithOrderError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, models.OrderResponse{
		Success: true,
		Message: "Order status updated to " + string(order.Status) + ".",
		Order:   order,
	})
}

func (h *Handler) respondWithOrderError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	var transitionErr *TransitionError

	switch {
	case errors.As(err, &validationErr):
		httpx.RespondError(w, http.StatusBadRequest, validationErr.Reason)
	case errors.Is(err, ErrNotAccepting):
		httpx.RespondError(w, http.StatusConflict, ErrNotAccepting.Error())
	case errors.As(err, &transitionErr):
		httpx.RespondError(w, http.StatusConflict, transitionErr.Error())
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, ErrNotStaff):
		httpx.RespondError(w, http.StatusForbidden, ErrNotStaff.Error())
	default:
		h.logger.WithError(err).Error("Order operation failed")
		httpx.RespondError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
