package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"qr-storefront/storefront-svc/internal/domain"
)

type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

func (r *PostgresRepository) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	var rest domain.Restaurant
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(logo_url, ''), COALESCE(address, ''),
		       opening_time::text, closing_time::text, is_available, COALESCE(unavailable_message, '')
		FROM restaurants
		WHERE id = $1`, id).
		Scan(&rest.ID, &rest.Name, &rest.LogoURL, &rest.Address,
			&rest.OpeningTime, &rest.ClosingTime, &rest.IsAvailable, &rest.UnavailableMessage)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("restaurant %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

func (r *PostgresRepository) ListAvailableMenuItems(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, restaurant_id, name, price, COALESCE(description, ''), is_veg,
		       COALESCE(image_url, ''), COALESCE(category_name, ''), available, COALESCE(sort_order, 0)
		FROM menu_items
		WHERE restaurant_id = $1 AND available = true
		ORDER BY sort_order ASC NULLS LAST`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.MenuItem{}
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.RestaurantID, &item.Name, &item.Price, &item.Description, &item.IsVeg,
			&item.ImageURL, &item.CategoryName, &item.Available, &item.SortOrder); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) GetMenuItem(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error) {
	var item domain.MenuItem
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, restaurant_id, name, price, COALESCE(description, ''), is_veg,
		       COALESCE(image_url, ''), COALESCE(category_name, ''), available, COALESCE(sort_order, 0)
		FROM menu_items
		WHERE id = $1 AND restaurant_id = $2`, itemID, restaurantID).
		Scan(&item.ID, &item.RestaurantID, &item.Name, &item.Price, &item.Description, &item.IsVeg,
			&item.ImageURL, &item.CategoryName, &item.Available, &item.SortOrder)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("menu item %s: %w", itemID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *PostgresRepository) UpdateMenuItemImage(ctx context.Context, restaurantID, itemID, imageURL string) (int64, error) {
	result, err := r.DB.ExecContext(ctx,
		"UPDATE menu_items SET image_url = $1 WHERE id = $2 AND restaurant_id = $3",
		imageURL, itemID, restaurantID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		"ALTER TABLE IF EXISTS restaurants ADD COLUMN IF NOT EXISTS unavailable_message TEXT",
		"ALTER TABLE IF EXISTS restaurants ADD COLUMN IF NOT EXISTS is_available BOOLEAN NOT NULL DEFAULT true",
		"ALTER TABLE IF EXISTS menu_items ADD COLUMN IF NOT EXISTS sort_order INTEGER",
	}
	for _, stmt := range statements {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema `%s`: %w", stmt, err)
		}
	}
	return nil
}
