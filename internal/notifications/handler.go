package notifications

import (
	"errors"
	"net/http"

	"github.com/campuscanteen/canteen-service/internal/auth"
	"github.com/campuscanteen/canteen-service/internal/httpx"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	feed   *Feed
	logger *logrus.Logger
}

func NewHandler(feed *Feed, logger *logrus.Logger) *Handler {
	return &Handler{feed: feed, logger: logger}
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	notifications, err := h.feed.List(r.Context(), identity.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list notifications")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to load notifications")
		return
	}

	unread, err := h.feed.UnreadCount(r.Context(), identity.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count unread notifications")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to load notifications")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"notifications": notifications,
		"unread":        unread,
	})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	notificationID := mux.Vars(r)["id"]

	if err := h.feed.MarkRead(r.Context(), identity.UserID, notificationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.logger.WithError(err).Error("Failed to mark notification read")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	if err := h.feed.MarkAllRead(r.Context(), identity.UserID); err != nil {
		h.logger.WithError(err).Error("Failed to mark all notifications read")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
