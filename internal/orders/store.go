package orders

import (
	"context"
	"database/sql"
	"time"

	"github.com/campuscanteen/canteen-service/pkg/models"
)

// Store is the persistence contract the engine needs. Orders are never
// deleted; the table is the audit trail.
type Store interface {
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, orderID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, completionTime *time.Time) error
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
}

type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (id, user_id, user_email, total, phone, hostel, instructions, status, created_at, completion_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, query, order.ID, order.UserID, order.UserEmail, order.Total,
		order.Phone, order.Hostel, order.Instructions, order.Status, order.CreatedAt, order.CompletionTime)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		itemQuery := `
			INSERT INTO order_items (order_id, item_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err = tx.ExecContext(ctx, itemQuery, order.ID, item.ItemID, item.Name, item.Price, item.Quantity); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *PGStore) Get(ctx context.Context, orderID string) (*models.Order, error) {
	order := &models.Order{}
	query := `
		SELECT id, user_id, user_email, total, phone, hostel, instructions, status, created_at, completion_time
		FROM orders WHERE id = $1
	`
	err := s.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID, &order.UserID, &order.UserEmail, &order.Total, &order.Phone,
		&order.Hostel, &order.Instructions, &order.Status, &order.CreatedAt, &order.CompletionTime,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PGStore) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, completionTime *time.Time) error {
	var err error
	if completionTime != nil {
		_, err = s.db.ExecContext(ctx,
			`UPDATE orders SET status = $1, completion_time = $2 WHERE id = $3`,
			status, completionTime, orderID)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE orders SET status = $1 WHERE id = $2`,
			status, orderID)
	}
	return err
}

func (s *PGStore) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.list(ctx, `
		SELECT id, user_id, user_email, total, phone, hostel, instructions, status, created_at, completion_time
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
}

func (s *PGStore) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.list(ctx, `
		SELECT id, user_id, user_email, total, phone, hostel, instructions, status, created_at, completion_time
		FROM orders ORDER BY created_at DESC
	`)
}

func (s *PGStore) list(ctx context.Context, query string, args ...interface{}) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID, &order.UserID, &order.UserEmail, &order.Total, &order.Phone,
			&order.Hostel, &order.Instructions, &order.Status, &order.CreatedAt, &order.CompletionTime,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := s.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *PGStore) loadItems(ctx context.Context, order *models.Order) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, name, price, quantity
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ItemID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}
