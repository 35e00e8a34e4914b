package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/campuscanteen/canteen-service/internal/realtime"
	"github.com/campuscanteen/canteen-service/pkg/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("notification not found")

// Store is the persistence contract for the append-only per-user feed.
// Entries are never deleted; only the read flag ever changes.
type Store interface {
	Insert(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	// MarkRead returns false when no notification with that id belongs to
	// the user. Marking an already-read entry is a successful no-op.
	MarkRead(ctx context.Context, userID, notificationID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// Feed is the per-user notification inbox. Live reads are capped at the
// most recent entries; nothing is ever purged from storage.
type Feed struct {
	store  Store
	broker *realtime.Broker
	limit  int
	logger *logrus.Logger
}

func NewFeed(store Store, broker *realtime.Broker, limit int, logger *logrus.Logger) *Feed {
	return &Feed{
		store:  store,
		broker: broker,
		limit:  limit,
		logger: logger,
	}
}

// Append adds a lifecycle notification to the owner's feed and pushes the
// refreshed snapshot to any live subscription.
func (f *Feed) Append(ctx context.Context, userID, orderID, message string) (*models.Notification, error) {
	n := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		OrderID:   orderID,
		Message:   message,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}

	if err := f.store.Insert(ctx, n); err != nil {
		return nil, err
	}

	f.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"order_id": orderID,
	}).Info("Notification created")

	f.publishSnapshot(ctx, userID)
	return n, nil
}

func (f *Feed) List(ctx context.Context, userID string) ([]models.Notification, error) {
	return f.store.List(ctx, userID, f.limit)
}

func (f *Feed) UnreadCount(ctx context.Context, userID string) (int, error) {
	return f.store.UnreadCount(ctx, userID)
}

// MarkRead is idempotent: marking an already-read notification succeeds
// without changing anything.
func (f *Feed) MarkRead(ctx context.Context, userID, notificationID string) error {
	found, err := f.store.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	f.publishSnapshot(ctx, userID)
	return nil
}

// MarkAllRead clears every currently-unread entry. Entries arriving while
// the bulk update runs may be missed; that is accepted.
func (f *Feed) MarkAllRead(ctx context.Context, userID string) error {
	updated, err := f.store.MarkAllRead(ctx, userID)
	if err != nil {
		return err
	}

	f.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"updated": updated,
	}).Info("Marked all notifications read")

	f.publishSnapshot(ctx, userID)
	return nil
}

func (f *Feed) publishSnapshot(ctx context.Context, userID string) {
	if f.broker == nil {
		return
	}
	list, err := f.store.List(ctx, userID, f.limit)
	if err != nil {
		f.logger.WithError(err).Error("Failed to load notification snapshot")
		return
	}
	f.broker.Publish(realtime.UserNotificationsTopic(userID), list)
}
