package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"textile-studio/db"
	"textile-studio/models"
	"textile-studio/utils"
)

// CartRepository handles database operations for cart lines
type CartRepository struct{}

// NewCartRepository creates a new CartRepository
func NewCartRepository() *CartRepository {
	return &CartRepository{}
}

// Ensure CartRepository implements CartRepositoryInterface
var _ CartRepositoryInterface = (*CartRepository)(nil)

// AddCartItem inserts a cart line and returns it with its id and timestamp
func (r *CartRepository) AddCartItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	log.Printf("📦 AddCartItem: product=%s qty=%d cart=%s", item.ProductID, item.Quantity, utils.MaskToken(item.CartToken))

	customization, err := marshalCustomization(item.Customization)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO cart_items (
			cart_token, user_id, product_id, quantity, price, size, color,
			customization, visual_front_url, visual_back_url
		) VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''))
		RETURNING id, created_at
	`

	stored := *item
	err = db.DB.QueryRowContext(ctx, query,
		item.CartToken,
		item.UserID,
		item.ProductID,
		item.Quantity,
		item.Price,
		item.Size,
		item.Color,
		customization,
		item.VisualFrontURL,
		item.VisualBackURL,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		log.Printf("❌ AddCartItem: Error inserting line: %v", err)
		return nil, fmt.Errorf("failed to insert cart item: %w", err)
	}

	log.Printf("✅ AddCartItem: Successfully added line id=%d", stored.ID)
	return &stored, nil
}

// GetCartItems lists the lines of a cart, oldest first
func (r *CartRepository) GetCartItems(ctx context.Context, cartToken string) ([]models.CartItem, error) {
	query := `
		SELECT id, cart_token, COALESCE(user_id, ''), product_id, quantity, price, size, color,
		       customization, COALESCE(visual_front_url, ''), COALESCE(visual_back_url, ''), created_at
		FROM cart_items
		WHERE cart_token = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := db.DB.QueryContext(ctx, query, cartToken)
	if err != nil {
		log.Printf("❌ Error querying cart %s: %v", utils.MaskToken(cartToken), err)
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		var customization []byte
		err := rows.Scan(
			&item.ID,
			&item.CartToken,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.Price,
			&item.Size,
			&item.Color,
			&customization,
			&item.VisualFrontURL,
			&item.VisualBackURL,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		if item.Customization, err = unmarshalCustomization(customization); err != nil {
			log.Printf("⚠️  Cart line %d has unreadable customization: %v", item.ID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountCartItems returns the number of lines in a cart
func (r *CartRepository) CountCartItems(ctx context.Context, cartToken string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM cart_items WHERE cart_token = $1`
	if err := db.DB.QueryRowContext(ctx, query, cartToken).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return count, nil
}

// marshalCustomization encodes a record for a JSONB column; nil stays NULL
func marshalCustomization(rec *models.CustomizationRecord) (any, error) {
	if rec == nil {
		return nil, nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode customization: %w", err)
	}
	return string(data), nil
}

func unmarshalCustomization(data []byte) (*models.CustomizationRecord, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var rec models.CustomizationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// nullString maps "" to NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
