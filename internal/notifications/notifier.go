package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/campuscanteen/canteen-service/internal/events"
	"github.com/campuscanteen/canteen-service/pkg/models"
	"github.com/sirupsen/logrus"
)

// Appender is the slice of the feed the notifier needs.
type Appender interface {
	Append(ctx context.Context, userID, orderID, message string) (*models.Notification, error)
}

// Notifier turns order lifecycle events into feed entries. It sits behind
// the event bus so a notification failure can never touch the order.
type Notifier struct {
	feed   Appender
	logger *logrus.Logger
}

func NewNotifier(feed Appender, logger *logrus.Logger) *Notifier {
	return &Notifier{feed: feed, logger: logger}
}

// HandleOrderPlaced logs kitchen intake. Diners are not notified about
// their own submissions; they watch the order view instead.
func (n *Notifier) HandleOrderPlaced(event events.OrderPlacedEvent) error {
	n.logger.WithFields(logrus.Fields{
		"order_id": event.OrderID,
		"hostel":   event.Hostel,
		"total":    event.Total,
	}).Info("New order for the kitchen")
	return nil
}

func (n *Notifier) HandleOrderStatus(event events.OrderStatusEvent) error {
	message := messageFor(event.Status, event.CompletionTime)
	if message == "" {
		n.logger.WithField("status", event.Status).Warn("No notification for status")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := n.feed.Append(ctx, event.UserID, event.OrderID, message); err != nil {
		return fmt.Errorf("failed to append notification for order %s: %w", event.OrderID, err)
	}
	return nil
}

func messageFor(status models.OrderStatus, completionTime *time.Time) string {
	switch status {
	case models.StatusApproved:
		readyBy := "soon"
		if completionTime != nil {
			readyBy = "around " + completionTime.Local().Format("3:04 PM")
		}
		return fmt.Sprintf("Your order has been approved! It will be ready by %s.", readyBy)
	case models.StatusDeclined:
		return "Sorry, we couldn't take your order this time. Please check with the canteen counter."
	case models.StatusCompleted:
		return "Your order is ready for pickup. Thank you for ordering!"
	default:
		return ""
	}
}
