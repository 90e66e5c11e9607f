package service

import (
	"context"

	"textile-studio/models"
)

// CartServiceInterface defines the contract for cart operations
type CartServiceInterface interface {
	// AddCustomizedItem validates and prices the request, captures the
	// customization's visuals and stores the line. Capture failures only
	// produce a warning; validation and persistence errors are returned.
	AddCustomizedItem(ctx context.Context, req *models.AddToCartRequest) (*models.AddToCartResponse, error)
	GetCart(ctx context.Context, cartToken string) ([]models.CartItem, error)
}
