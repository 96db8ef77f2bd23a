package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solo-rising/internal/model"
)

// InventoryRepository handles purchased store items.
type InventoryRepository struct {
	db DBTX
}

// NewInventoryRepository creates a new InventoryRepository instance.
func NewInventoryRepository(db DBTX) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *InventoryRepository) WithTx(tx pgx.Tx) *InventoryRepository {
	return &InventoryRepository{db: tx}
}

// AddItem adds quantity to a user's item stack.
func (r *InventoryRepository) AddItem(ctx context.Context, userID int64, itemType string, quantity int) error {
	const query = `
		INSERT INTO user_items (user_id, item_type, quantity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, item_type)
		DO UPDATE SET quantity = user_items.quantity + $3, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, userID, itemType, quantity); err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}
	return nil
}

// GetQuantity returns how many of an item a user owns.
func (r *InventoryRepository) GetQuantity(ctx context.Context, userID int64, itemType string) (int, error) {
	var quantity int
	err := r.db.QueryRow(ctx,
		`SELECT quantity FROM user_items WHERE user_id = $1 AND item_type = $2`,
		userID, itemType).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get item quantity: %w", err)
	}
	return quantity, nil
}

// GetAllItems returns all items a user owns at least one of.
func (r *InventoryRepository) GetAllItems(ctx context.Context, userID int64) ([]model.InventoryItem, error) {
	const query = `
		SELECT user_id, item_type, quantity, updated_at
		FROM user_items
		WHERE user_id = $1 AND quantity > 0
		ORDER BY item_type
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var item model.InventoryItem
		if err := rows.Scan(&item.UserID, &item.ItemType, &item.Quantity, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
