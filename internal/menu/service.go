package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/campuscanteen/canteen-service/internal/realtime"
	"github.com/campuscanteen/canteen-service/internal/storage"
	"github.com/campuscanteen/canteen-service/pkg/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	cacheKey = "canteen:menu"
	cacheTTL = 5 * time.Minute
)

// ValidationError mirrors the order package's contract: the reason is
// shown to staff verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Service owns the menu: staff mutate it, everyone reads it. Reads go
// through a Redis snapshot cache; every mutation invalidates the cache and
// pushes a fresh snapshot to subscribed views.
type Service struct {
	store  *Store
	cache  *storage.Redis
	broker *realtime.Broker
	logger *logrus.Logger
}

func NewService(store *Store, cache *storage.Redis, broker *realtime.Broker, logger *logrus.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		broker: broker,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]models.MenuItem, error) {
	if s.cache != nil {
		var items []models.MenuItem
		err := s.cache.GetJSON(ctx, cacheKey, &items)
		if err == nil {
			return items, nil
		}
		if !storage.IsMiss(err) {
			s.logger.WithError(err).Warn("Menu cache read failed")
		}
	}

	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, items, cacheTTL); err != nil {
			s.logger.WithError(err).Warn("Menu cache write failed")
		}
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, item models.MenuItem) (*models.MenuItem, error) {
	if strings.TrimSpace(item.Name) == "" {
		return nil, &ValidationError{Reason: "a name is required"}
	}
	if item.Price < 0 {
		return nil, &ValidationError{Reason: "price cannot be negative"}
	}

	item.ID = uuid.New().String()
	item.Name = strings.TrimSpace(item.Name)
	if item.ImageURL == "" {
		item.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%d/400/300", time.Now().UnixMilli())
	}

	if err := s.store.Insert(ctx, &item); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"item_id": item.ID,
		"name":    item.Name,
	}).Info("Menu item added")

	s.refresh(ctx)
	return &item, nil
}

func (s *Service) Update(ctx context.Context, itemID string, params UpdateParams) error {
	if params.Price != nil && *params.Price < 0 {
		return &ValidationError{Reason: "price cannot be negative"}
	}
	if params.Name != nil && strings.TrimSpace(*params.Name) == "" {
		return &ValidationError{Reason: "a name is required"}
	}

	if err := s.store.Update(ctx, itemID, params); err != nil {
		return err
	}

	s.logger.WithField("item_id", itemID).Info("Menu item updated")
	s.refresh(ctx)
	return nil
}

func (s *Service) Delete(ctx context.Context, itemID string) error {
	if err := s.store.Delete(ctx, itemID); err != nil {
		return err
	}

	s.logger.WithField("item_id", itemID).Info("Menu item deleted")
	s.refresh(ctx)
	return nil
}

// refresh drops the cache and pushes the new snapshot to live views.
func (s *Service) refresh(ctx context.Context) {
	if s.cache != nil {
		if err := s.cache.Del(ctx, cacheKey); err != nil {
			s.logger.WithError(err).Warn("Menu cache invalidation failed")
		}
	}

	if s.broker == nil {
		return
	}
	items, err := s.store.List(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load menu snapshot")
		return
	}
	s.broker.Publish(realtime.TopicMenu, items)
}
