package events

import (
	"time"

	"github.com/campuscanteen/canteen-service/pkg/models"
)

const (
	OrderPlacedTopic = "canteen.order.placed"
	OrderStatusTopic = "canteen.order.status"
)

type OrderPlacedEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Total     float64   `json:"total"`
	Hostel    string    `json:"hostel"`
	CreatedAt time.Time `json:"created_at"`
	EventTime time.Time `json:"event_time"`
}

type OrderStatusEvent struct {
	OrderID        string             `json:"order_id"`
	UserID         string             `json:"user_id"`
	Status         models.OrderStatus `json:"status"`
	CompletionTime *time.Time         `json:"completion_time,omitempty"`
	EventTime      time.Time          `json:"event_time"`
}

// Handler consumes lifecycle events. Implementations must treat every
// event as best-effort: a handler failure is logged, never replayed into
// the order itself.
type Handler interface {
	HandleOrderPlaced(event OrderPlacedEvent) error
	HandleOrderStatus(event OrderStatusEvent) error
}
