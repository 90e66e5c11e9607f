package service

import (
	"context"

	"textile-studio/models"
)

// RegenerationServiceInterface defines the contract for re-capturing order visuals
type RegenerationServiceInterface interface {
	Regenerate(ctx context.Context, orderID string) (*models.RegenerationResult, error)
	// RegenerateBatch processes orders one at a time with a pause between them
	RegenerateBatch(ctx context.Context, orderIDs []string) *models.BatchRegenerationReport
}
