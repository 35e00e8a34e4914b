package models

import (
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusApproved  OrderStatus = "Approved"
	StatusDeclined  OrderStatus = "Declined"
	StatusCompleted OrderStatus = "Completed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined, StatusCompleted:
		return true
	default:
		return false
	}
}

// transitions is the full lifecycle: Pending may be approved or declined,
// an approved order may be completed, Declined and Completed are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:  {StatusApproved, StatusDeclined},
	StatusApproved: {StatusCompleted},
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

type CanteenStatus string

const (
	TakingOrders    CanteenStatus = "taking_orders"
	NotTakingOrders CanteenStatus = "not_taking_orders"
)

func (s CanteenStatus) Valid() bool {
	return s == TakingOrders || s == NotTakingOrders
}

type MenuItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	Description string  `json:"description"`
	Available   bool    `json:"available"`
}

// OrderItem is a snapshot of a menu item at submission time. Menu edits
// after the fact never change what an order shows.
type OrderItem struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Order struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	UserEmail      string      `json:"user_email"`
	Items          []OrderItem `json:"items"`
	Total          float64     `json:"total"`
	Phone          string      `json:"phone"`
	Hostel         string      `json:"hostel"`
	Instructions   string      `json:"instructions,omitempty"`
	Status         OrderStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	CompletionTime *time.Time  `json:"completion_time,omitempty"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	OrderID   string    `json:"order_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is derived from the session token on every request and never
// persisted. Admin is recomputed from the email each time, not cached.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Admin  bool   `json:"admin"`
}

type OrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Order   *Order `json:"order,omitempty"`
}
