package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/campuscanteen/canteen-service/pkg/models"
)

var ErrNotFound = errors.New("menu item not found")

// UpdateParams is a partial field merge: nil fields are left alone.
type UpdateParams struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	ImageURL    *string  `json:"image_url"`
	Description *string  `json:"description"`
	Available   *bool    `json:"available"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, image_url, description, available
		FROM menu_items ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var item models.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.ImageURL, &item.Description, &item.Available); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) Insert(ctx context.Context, item *models.MenuItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO menu_items (id, name, price, image_url, description, available)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, item.ID, item.Name, item.Price, item.ImageURL, item.Description, item.Available)
	return err
}

func (s *Store) Update(ctx context.Context, itemID string, params UpdateParams) error {
	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Price != nil {
		add("price", *params.Price)
	}
	if params.ImageURL != nil {
		add("image_url", *params.ImageURL)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.Available != nil {
		add("available", *params.Available)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, itemID)
	query := fmt.Sprintf("UPDATE menu_items SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, itemID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, itemID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
