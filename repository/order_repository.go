package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"textile-studio/db"
	"textile-studio/models"
)

// OrderRepository reads placed orders and writes regenerated visuals back
type OrderRepository struct{}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

// Ensure OrderRepository implements OrderRepositoryInterface
var _ OrderRepositoryInterface = (*OrderRepository)(nil)

// GetOrderByID retrieves an order with its items
func (r *OrderRepository) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	queryOrder := `SELECT id, status, created_at FROM orders WHERE id = $1`
	err := db.DB.QueryRowContext(ctx, queryOrder, id).Scan(&order.ID, &order.Status, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("❌ GetOrderByID: Order not found: id=%s", id)
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	queryItems := `
		SELECT id, order_id, product_id, quantity, customization,
		       COALESCE(visual_front_url, ''), COALESCE(visual_back_url, '')
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC
	`
	rows, err := db.DB.QueryContext(ctx, queryItems, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	order.Items = []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		var customization []byte
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&customization,
			&item.VisualFrontURL,
			&item.VisualBackURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if item.Customization, err = unmarshalCustomization(customization); err != nil {
			log.Printf("⚠️  Order item %s has unreadable customization: %v", item.ID, err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}

	log.Printf("🔍 GetOrderByID: order %s has %d items", order.ID, len(order.Items))
	return &order, nil
}

// UpdateOrderItemVisuals writes capture urls to an order item. Nil fields keep their value.
func (r *OrderRepository) UpdateOrderItemVisuals(ctx context.Context, itemID string, visuals models.OrderItemVisuals) error {
	query := `
		UPDATE order_items
		SET visual_front_url = COALESCE($2, visual_front_url),
		    visual_back_url = COALESCE($3, visual_back_url)
		WHERE id = $1
	`
	result, err := db.DB.ExecContext(ctx, query, itemID, optionalString(visuals.VisualFrontURL), optionalString(visuals.VisualBackURL))
	if err != nil {
		log.Printf("❌ UpdateOrderItemVisuals: item %s: %v", itemID, err)
		return fmt.Errorf("failed to update order item visuals: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("order item %s: %w", itemID, ErrNotFound)
	}

	log.Printf("💾 UpdateOrderItemVisuals: item %s updated", itemID)
	return nil
}

func optionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}
