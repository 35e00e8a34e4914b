package orders

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/campuscanteen/canteen-service/internal/realtime"
	"github.com/campuscanteen/canteen-service/pkg/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Availability reads the global canteen flag at submission time. A flip
// between the check and the write is accepted: last writer wins.
type Availability interface {
	Status(ctx context.Context) (models.CanteenStatus, error)
}

// EventPublisher emits lifecycle events after the status write has
// committed. Publishing is best-effort; a failure never reverts the write.
type EventPublisher interface {
	OrderPlaced(order *models.Order) error
	OrderStatusChanged(order *models.Order) error
}

type Config struct {
	DiscountPercent        float64
	DefaultEstimateMinutes int
	Hostels                []string
}

// Service is the order lifecycle engine.
type Service struct {
	store        Store
	availability Availability
	events       EventPublisher
	broker       *realtime.Broker
	cfg          Config
	logger       *logrus.Logger
}

func NewService(store Store, availability Availability, events EventPublisher, broker *realtime.Broker, cfg Config, logger *logrus.Logger) *Service {
	return &Service{
		store:        store,
		availability: availability,
		events:       events,
		broker:       broker,
		cfg:          cfg,
		logger:       logger,
	}
}

// Place validates the submission, computes the total exactly once, and
// persists a Pending order with a server-assigned creation time. The total
// is never recomputed afterwards, whatever happens to the menu.
func (s *Service) Place(ctx context.Context, identity models.Identity, items []models.OrderItem, phone, hostel, instructions string) (*models.Order, error) {
	if identity.UserID == "" {
		return nil, invalid("you must be signed in to place an order")
	}
	if len(items) == 0 {
		return nil, invalid("your cart is empty")
	}
	if strings.TrimSpace(phone) == "" {
		return nil, invalid("a phone number is required")
	}
	if !s.validHostel(hostel) {
		return nil, invalid("a valid hostel is required")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, invalid("item %q has an invalid quantity", item.Name)
		}
		if item.Price < 0 {
			return nil, invalid("item %q has an invalid price", item.Name)
		}
	}

	status, err := s.availability.Status(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read canteen availability")
		return nil, &SubmissionError{Err: err}
	}
	if status != models.TakingOrders {
		return nil, ErrNotAccepting
	}

	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}

	order := &models.Order{
		ID:           uuid.New().String(),
		UserID:       identity.UserID,
		UserEmail:    identity.Email,
		Items:        items,
		Total:        round2(subtotal * (1 - s.cfg.DiscountPercent/100)),
		Phone:        strings.TrimSpace(phone),
		Hostel:       hostel,
		Instructions: strings.TrimSpace(instructions),
		Status:       models.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Create(ctx, order); err != nil {
		s.logger.WithError(err).Error("Failed to save order")
		return nil, &SubmissionError{Err: err}
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.Total,
		"items":    len(order.Items),
	}).Info("Order placed")

	if s.events != nil {
		if err := s.events.OrderPlaced(order); err != nil {
			s.logger.WithError(err).Error("Failed to publish order placed event")
		}
	}

	s.publishSnapshots(ctx, order.UserID)
	return order, nil
}

// Transition moves an order through the lifecycle. Current status is
// re-read before validating, so a losing concurrent transition surfaces as
// a TransitionError instead of silently clobbering the winner.
func (s *Service) Transition(ctx context.Context, orderID string, target models.OrderStatus, staff models.Identity, estimateMinutes int) (*models.Order, error) {
	if !staff.Admin {
		return nil, ErrNotStaff
	}
	if !target.Valid() {
		return nil, invalid("unknown order status %q", target)
	}

	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, &UpdateError{Err: err}
	}

	if !order.Status.CanTransitionTo(target) {
		return nil, &TransitionError{From: order.Status, To: target}
	}

	var completionTime *time.Time
	if target == models.StatusApproved {
		if estimateMinutes <= 0 {
			estimateMinutes = s.cfg.DefaultEstimateMinutes
		}
		t := time.Now().UTC().Add(time.Duration(estimateMinutes) * time.Minute)
		completionTime = &t
	}

	if err := s.store.UpdateStatus(ctx, orderID, target, completionTime); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Error("Failed to update order status")
		return nil, &UpdateError{Err: err}
	}

	order.Status = target
	if completionTime != nil {
		order.CompletionTime = completionTime
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"status":   target,
		"staff":    staff.Email,
	}).Info("Order status updated")

	// The notification is a separate, best-effort write downstream of this
	// event. If it fails, the transition stands.
	if s.events != nil {
		if err := s.events.OrderStatusChanged(order); err != nil {
			s.logger.WithError(err).Error("Failed to publish order status event")
		}
	}

	s.publishSnapshots(ctx, order.UserID)
	return order, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return s.store.Get(ctx, orderID)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.store.ListAll(ctx)
}

func (s *Service) validHostel(hostel string) bool {
	for _, h := range s.cfg.Hostels {
		if h == hostel {
			return true
		}
	}
	return false
}

func (s *Service) publishSnapshots(ctx context.Context, userID string) {
	if s.broker == nil {
		return
	}

	if all, err := s.store.ListAll(ctx); err == nil {
		s.broker.Publish(realtime.TopicAllOrders, all)
	} else {
		s.logger.WithError(err).Error("Failed to load order snapshot")
	}

	if mine, err := s.store.ListByUser(ctx, userID); err == nil {
		s.broker.Publish(realtime.UserOrdersTopic(userID), mine)
	} else {
		s.logger.WithError(err).Error("Failed to load user order snapshot")
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
