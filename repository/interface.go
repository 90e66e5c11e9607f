package repository

import (
	"context"
	"errors"
	"time"

	"textile-studio/models"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

// CatalogRepositoryInterface defines the contract for catalog reads and admin design writes
type CatalogRepositoryInterface interface {
	FetchAllDesigns(ctx context.Context) ([]models.Design, error)
	FetchDesignByID(ctx context.Context, id string) (*models.Design, error)
	FetchMockupByID(ctx context.Context, id string) (*models.Mockup, error)
	FetchProductByID(ctx context.Context, id string) (*models.Product, error)
	ExistsByDriveFileID(ctx context.Context, driveFileID string) (bool, error)
	UpsertDesign(ctx context.Context, design *models.Design) error
	DeactivateDesign(ctx context.Context, id string) error
	UpdateDesignURL(ctx context.Context, id, url string, isSVG bool) error
}

// CartRepositoryInterface defines the contract for cart persistence
type CartRepositoryInterface interface {
	AddCartItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	GetCartItems(ctx context.Context, cartToken string) ([]models.CartItem, error)
	CountCartItems(ctx context.Context, cartToken string) (int, error)
}

// OrderRepositoryInterface defines the contract for order reads and visual write-back
type OrderRepositoryInterface interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	UpdateOrderItemVisuals(ctx context.Context, itemID string, visuals models.OrderItemVisuals) error
}

// GenerationRepositoryInterface records AI generations for quota accounting
type GenerationRepositoryInterface interface {
	CountGenerationsSince(ctx context.Context, userID string, since time.Time) (int, error)
	FindRecycled(ctx context.Context, prompt string) (string, bool, error)
	RecordGeneration(ctx context.Context, userID, prompt, imageURL string, recycled bool) error
}
