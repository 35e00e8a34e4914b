package orders

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/campuscanteen/canteen-service/pkg/models"
	"github.com/sirupsen/logrus"
)

type memStore struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	fail   bool
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[string]*models.Order)}
}

func (s *memStore) Create(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("simulated storage failure")
	}
	clone := *order
	s.orders[order.ID] = &clone
	return nil
}

func (s *memStore) Get(ctx context.Context, orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (s *memStore) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, completionTime *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("simulated storage failure")
	}
	order, ok := s.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	order.Status = status
	if completionTime != nil {
		order.CompletionTime = completionTime
	}
	return nil
}

func (s *memStore) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *memStore) ListAll(ctx context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, order := range s.orders {
		out = append(out, *order)
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type fakeAvailability struct {
	status models.CanteenStatus
}

func (f *fakeAvailability) Status(ctx context.Context) (models.CanteenStatus, error) {
	return f.status, nil
}

type fakePublisher struct {
	mu           sync.Mutex
	placed       []string
	statusEvents []models.OrderStatus
	fail         bool
}

func (f *fakePublisher) OrderPlaced(order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("simulated broker outage")
	}
	f.placed = append(f.placed, order.ID)
	return nil
}

func (f *fakePublisher) OrderStatusChanged(order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("simulated broker outage")
	}
	f.statusEvents = append(f.statusEvents, order.Status)
	return nil
}

func testService(store *memStore, availability *fakeAvailability, publisher *fakePublisher) *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return NewService(store, availability, publisher, nil, Config{
		DiscountPercent:        5,
		DefaultEstimateMinutes: 15,
		Hostels:                []string{"BH1", "BH2", "BH3", "BH4", "BH5", "GH1", "GH2"},
	}, logger)
}

func diner() models.Identity {
	return models.Identity{UserID: "user-1", Email: "iit2022001@iiita.ac.in"}
}

func staff() models.Identity {
	return models.Identity{UserID: "admin-1", Email: "kings.iiita@gmail.com", Admin: true}
}

func cartItems() []models.OrderItem {
	return []models.OrderItem{
		{ItemID: "item-1", Name: "Veg Thali", Price: 80, Quantity: 2},
		{ItemID: "item-2", Name: "Chicken Biryani", Price: 120, Quantity: 1},
	}
}

func TestPlaceOrderComputesDiscountedTotal(t *testing.T) {
	store := newMemStore()
	publisher := &fakePublisher{}
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, publisher)

	order, err := service.Place(context.Background(), diner(), cartItems(), "9876543210", "BH2", "less spicy")
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	if order.Total != 266.00 {
		t.Errorf("Expected total 266.00 after 5%% discount, got %v", order.Total)
	}
	if order.Status != models.StatusPending {
		t.Errorf("Expected status Pending, got %s", order.Status)
	}
	if order.CompletionTime != nil {
		t.Error("Expected no completion time on a new order")
	}
	if order.CreatedAt.IsZero() {
		t.Error("Expected a server-assigned creation time")
	}
	if len(publisher.placed) != 1 {
		t.Errorf("Expected 1 placed event, got %d", len(publisher.placed))
	}
}

func TestPlaceOrderEmptyCartRejected(t *testing.T) {
	store := newMemStore()
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, &fakePublisher{})

	_, err := service.Place(context.Background(), diner(), nil, "9876543210", "BH2", "")

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if store.count() != 0 {
		t.Error("Expected no order persisted for an empty cart")
	}
}

func TestPlaceOrderRequiresPhoneAndHostel(t *testing.T) {
	store := newMemStore()
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, &fakePublisher{})

	var validationErr *ValidationError

	_, err := service.Place(context.Background(), diner(), cartItems(), "   ", "BH2", "")
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError for missing phone, got %v", err)
	}

	_, err = service.Place(context.Background(), diner(), cartItems(), "9876543210", "Hilton", "")
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError for unknown hostel, got %v", err)
	}

	if store.count() != 0 {
		t.Error("Expected no orders persisted")
	}
}

func TestPlaceOrderRejectedWhenNotTakingOrders(t *testing.T) {
	store := newMemStore()
	service := testService(store, &fakeAvailability{status: models.NotTakingOrders}, &fakePublisher{})

	_, err := service.Place(context.Background(), diner(), cartItems(), "9876543210", "BH2", "")
	if !errors.Is(err, ErrNotAccepting) {
		t.Fatalf("Expected ErrNotAccepting, got %v", err)
	}
	if store.count() != 0 {
		t.Error("Expected no order persisted while canteen is closed")
	}
}

func TestPlaceOrderStorageFailure(t *testing.T) {
	store := newMemStore()
	store.fail = true
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, &fakePublisher{})

	_, err := service.Place(context.Background(), diner(), cartItems(), "9876543210", "BH2", "")

	var submissionErr *SubmissionError
	if !errors.As(err, &submissionErr) {
		t.Fatalf("Expected SubmissionError, got %v", err)
	}
}

func TestPlaceOrderSurvivesEventPublishFailure(t *testing.T) {
	store := newMemStore()
	publisher := &fakePublisher{fail: true}
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, publisher)

	order, err := service.Place(context.Background(), diner(), cartItems(), "9876543210", "BH2", "")
	if err != nil {
		t.Fatalf("Expected order to stand despite publish failure, got %v", err)
	}
	if store.count() != 1 {
		t.Error("Expected order persisted")
	}
	if order.Status != models.StatusPending {
		t.Errorf("Expected Pending, got %s", order.Status)
	}
}

func TestApproveSetsCompletionTime(t *testing.T) {
	store := newMemStore()
	publisher := &fakePublisher{}
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, publisher)

	placed, err := service.Place(context.Background(), diner(), cartItems(), "9876543210", "BH2", "")
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	before := time.Now().UTC()
	approved, err := service.Transition(context.Background(), placed.ID, models.StatusApproved, staff(), 20)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	if approved.Status != models.StatusApproved {
		t.Errorf("Expected Approved, got %s", approved.Status)
	}
	if approved.CompletionTime == nil {
		t.Fatal("Expected a completion time on approval")
	}
	want := before.Add(20 * time.Minute)
	diff := approved.CompletionTime.Sub(want)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("Expected completion time near now+20m, got %v", approved.CompletionTime)
	}
	if len(publisher.statusEvents) != 1 || publisher.statusEvents[0] != models.StatusApproved {
		t.Errorf("Expected exactly one Approved status event, got %v", publisher.statusEvents)
	}
}

func TestApproveUsesDefaultEstimate(t *testing.T) {
	store := newMemStore()
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, &fakePublisher{})

	placed, _ := service.Place(context.Background(), diner(), cartItems(), "9876543210", "BH2", "")

	before := time.Now().UTC()
	approved, err := service.Transition(context.Background(), placed.ID, models.StatusApproved, staff(), 0)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	want := before.Add(15 * time.Minute)
	diff := approved.CompletionTime.Sub(want)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("Expected default 15 minute estimate, got %v", approved.CompletionTime)
	}
}

func TestPendingToCompletedRejected(t *testing.T) {
	store := newMemStore()
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, &fakePublisher{})

	placed, _ := service.Place(context.Background(), diner(), cartItems(), "9876543210", "BH2", "")

	_, err := service.Transition(context.Background(), placed.ID, models.StatusCompleted, staff(), 0)

	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("Expected TransitionError, got %v", err)
	}

	current, _ := store.Get(context.Background(), placed.ID)
	if current.Status != models.StatusPending {
		t.Errorf("Expected status unchanged at Pending, got %s", current.Status)
	}
}

func TestRepeatedTransitionErrorsWithoutChange(t *testing.T) {
	store := newMemStore()
	publisher := &fakePublisher{}
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, publisher)

	placed, _ := service.Place(context.Background(), diner(), cartItems(), "9876543210", "BH2", "")

	if _, err := service.Transition(context.Background(), placed.ID, models.StatusApproved, staff(), 10); err != nil {
		t.Fatalf("First approval failed: %v", err)
	}

	_, err := service.Transition(context.Background(), placed.ID, models.StatusApproved, staff(), 10)
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("Expected TransitionError on second approval, got %v", err)
	}

	current, _ := store.Get(context.Background(), placed.ID)
	if current.Status != models.StatusApproved {
		t.Errorf("Expected status to remain Approved, got %s", current.Status)
	}
	if len(publisher.statusEvents) != 1 {
		t.Errorf("Expected exactly one status event, got %d", len(publisher.statusEvents))
	}
}

func TestDeclinedIsTerminal(t *testing.T) {
	store := newMemStore()
	publisher := &fakePublisher{}
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, publisher)

	placed, _ := service.Place(context.Background(), diner(), cartItems(), "9876543210", "BH2", "")

	declined, err := service.Transition(context.Background(), placed.ID, models.StatusDeclined, staff(), 0)
	if err != nil {
		t.Fatalf("Decline failed: %v", err)
	}
	if declined.Status != models.StatusDeclined {
		t.Errorf("Expected Declined, got %s", declined.Status)
	}
	if declined.CompletionTime != nil {
		t.Error("Expected no completion time on a declined order")
	}
	if len(publisher.statusEvents) != 1 {
		t.Errorf("Expected one status event for the decline, got %d", len(publisher.statusEvents))
	}

	_, err = service.Transition(context.Background(), placed.ID, models.StatusApproved, staff(), 10)
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("Expected TransitionError approving a declined order, got %v", err)
	}
}

func TestApprovedToCompleted(t *testing.T) {
	store := newMemStore()
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, &fakePublisher{})

	placed, _ := service.Place(context.Background(), diner(), cartItems(), "9876543210", "BH2", "")
	if _, err := service.Transition(context.Background(), placed.ID, models.StatusApproved, staff(), 10); err != nil {
		t.Fatalf("Approval failed: %v", err)
	}

	completed, err := service.Transition(context.Background(), placed.ID, models.StatusCompleted, staff(), 0)
	if err != nil {
		t.Fatalf("Completion failed: %v", err)
	}
	if completed.Status != models.StatusCompleted {
		t.Errorf("Expected Completed, got %s", completed.Status)
	}
}

func TestTransitionRequiresStaff(t *testing.T) {
	store := newMemStore()
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, &fakePublisher{})

	placed, _ := service.Place(context.Background(), diner(), cartItems(), "9876543210", "BH2", "")

	_, err := service.Transition(context.Background(), placed.ID, models.StatusApproved, diner(), 10)
	if !errors.Is(err, ErrNotStaff) {
		t.Fatalf("Expected ErrNotStaff, got %v", err)
	}
}

func TestTransitionUnknownOrder(t *testing.T) {
	store := newMemStore()
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, &fakePublisher{})

	_, err := service.Transition(context.Background(), "missing", models.StatusApproved, staff(), 10)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListForUserFiltersAndOrders(t *testing.T) {
	store := newMemStore()
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, &fakePublisher{})

	other := models.Identity{UserID: "user-2", Email: "iit2022002@iiita.ac.in"}
	if _, err := service.Place(context.Background(), diner(), cartItems(), "9876543210", "BH2", ""); err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if _, err := service.Place(context.Background(), other, cartItems(), "9999999999", "GH1", ""); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	mine, err := service.ListForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(mine) != 1 || mine[0].UserID != "user-1" {
		t.Errorf("Expected only user-1 orders, got %v", mine)
	}

	all, err := service.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 orders in the staff view, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].CreatedAt.Before(all[i].CreatedAt) {
			t.Error("Expected orders newest-first")
		}
	}
}

func TestOrderSnapshotIndependentOfMenu(t *testing.T) {
	store := newMemStore()
	service := testService(store, &fakeAvailability{status: models.TakingOrders}, &fakePublisher{})

	items := cartItems()
	placed, err := service.Place(context.Background(), diner(), items, "9876543210", "BH2", "")
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	// A later price change on the caller's slice must not reach the stored order.
	items[0].Price = 999

	stored, _ := service.Get(context.Background(), placed.ID)
	if stored.Total != 266.00 {
		t.Errorf("Expected total to stay 266.00, got %v", stored.Total)
	}
}
