package canteen

import (
	"context"
	"fmt"

	"github.com/campuscanteen/canteen-service/internal/realtime"
	"github.com/campuscanteen/canteen-service/internal/storage"
	"github.com/campuscanteen/canteen-service/pkg/models"
	"github.com/sirupsen/logrus"
)

const statusKey = "canteen:availability"

// Service owns the single global availability flag. Staff toggle it, every
// submission reads it. Last writer wins; there is no guard against an
// order racing the flip.
type Service struct {
	redis  *storage.Redis
	broker *realtime.Broker
	logger *logrus.Logger
}

func NewService(redis *storage.Redis, broker *realtime.Broker, logger *logrus.Logger) *Service {
	return &Service{
		redis:  redis,
		broker: broker,
		logger: logger,
	}
}

// Status reads the flag. A canteen that has never been toggled is open.
func (s *Service) Status(ctx context.Context) (models.CanteenStatus, error) {
	value, err := s.redis.Get(ctx, statusKey)
	if err != nil {
		if storage.IsMiss(err) {
			return models.TakingOrders, nil
		}
		return "", err
	}

	status := models.CanteenStatus(value)
	if !status.Valid() {
		return "", fmt.Errorf("corrupt canteen status %q", value)
	}
	return status, nil
}

func (s *Service) SetStatus(ctx context.Context, status models.CanteenStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown canteen status %q", status)
	}

	if err := s.redis.Set(ctx, statusKey, string(status), 0); err != nil {
		return err
	}

	s.logger.WithField("status", status).Info("Canteen availability updated")

	if s.broker != nil {
		s.broker.Publish(realtime.TopicCanteen, status)
	}
	return nil
}
