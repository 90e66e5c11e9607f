package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"textile-studio/capture"
	"textile-studio/models"
	"textile-studio/repository"
)

// RegenerationService rebuilds production visuals of placed orders from
// their stored customization records
// Implements RegenerationServiceInterface
type RegenerationService struct {
	orders   repository.OrderRepositoryInterface
	mounter  Mounter
	capturer Capturer
	tier     capture.Tier
	pause    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// Ensure RegenerationService implements RegenerationServiceInterface
var _ RegenerationServiceInterface = (*RegenerationService)(nil)

// NewRegenerationService creates a RegenerationService capturing at tier
func NewRegenerationService(orders repository.OrderRepositoryInterface, mounter Mounter, capturer Capturer, tier capture.Tier, pause time.Duration) *RegenerationService {
	return &RegenerationService{
		orders:   orders,
		mounter:  mounter,
		capturer: capturer,
		tier:     tier,
		pause:    pause,
		sleep:    sleepContext,
	}
}

// Regenerate re-captures every customized item of an order
func (s *RegenerationService) Regenerate(ctx context.Context, orderID string) (*models.RegenerationResult, error) {
	return s.regenerate(ctx, orderID, nil)
}

func (s *RegenerationService) regenerate(ctx context.Context, orderID string, obs capture.Observer) (*models.RegenerationResult, error) {
	log.Printf("🔄 Regenerate: starting order %s", orderID)

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}

	result := &models.RegenerationResult{OrderID: order.ID, Items: []models.RegeneratedItem{}}
	var errs []error
	customized := 0
	for _, item := range order.Items {
		if item.Customization == nil || item.Customization.IsEmpty() {
			continue
		}
		customized++

		urls := s.captureItem(ctx, order.ID, item, obs)
		if urls.Empty() {
			log.Printf("❌ Regenerate: no visuals captured for item %s of order %s", item.ID, order.ID)
			errs = append(errs, fmt.Errorf("item %s: no visuals captured", item.ID))
			continue
		}

		var visuals models.OrderItemVisuals
		if urls.FrontURL != "" {
			visuals.VisualFrontURL = &urls.FrontURL
		}
		if urls.BackURL != "" {
			visuals.VisualBackURL = &urls.BackURL
		}
		if err := s.orders.UpdateOrderItemVisuals(ctx, item.ID, visuals); err != nil {
			errs = append(errs, fmt.Errorf("item %s: %w", item.ID, err))
			continue
		}

		result.Items = append(result.Items, models.RegeneratedItem{
			ItemID:   item.ID,
			FrontURL: urls.FrontURL,
			BackURL:  urls.BackURL,
		})
	}

	if customized == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCustomization, orderID)
	}
	if err := errors.Join(errs...); err != nil {
		return result, fmt.Errorf("order %s regenerated partially: %w", orderID, err)
	}

	log.Printf("🎉 Regenerate: order %s done, %d items updated", orderID, len(result.Items))
	return result, nil
}

// captureItem mounts the item's mirrors under its own namespace and always
// unmounts them, whatever the outcome
func (s *RegenerationService) captureItem(ctx context.Context, orderID string, item models.OrderItem, obs capture.Observer) capture.Result {
	session := capture.NewSession(capture.RetroNamespace(orderID, item.ID))
	defer session.UnmountAll()

	if err := s.mounter.MountRecord(ctx, session, item.Customization, s.tier); err != nil {
		log.Printf("⚠️  Regenerate: mounting %s: %v", session.Namespace, err)
	}

	var extra []capture.Observer
	if obs != nil {
		extra = append(extra, obs)
	}
	results := s.capturer.Capture(ctx, session, item.Customization, []capture.Tier{s.tier}, extra...)
	return results[s.tier.Name]
}

// RegenerateBatch regenerates orders sequentially, pausing between them
func (s *RegenerationService) RegenerateBatch(ctx context.Context, orderIDs []string) *models.BatchRegenerationReport {
	report := &models.BatchRegenerationReport{
		Total:   len(orderIDs),
		Results: []models.RegenerationResult{},
		Errors:  map[string]string{},
	}
	tally := capture.NewTally()

	log.Printf("🔄 RegenerateBatch: %d orders", len(orderIDs))
	for i, id := range orderIDs {
		if i > 0 && s.pause > 0 {
			if err := s.sleep(ctx, s.pause); err != nil {
				for _, rest := range orderIDs[i:] {
					report.Errors[rest] = err.Error()
					report.Failed++
				}
				break
			}
		}

		res, err := s.regenerate(ctx, id, tally)
		if res != nil {
			report.Results = append(report.Results, *res)
		}
		if err != nil {
			log.Printf("❌ RegenerateBatch: order %s: %v", id, err)
			report.Errors[id] = err.Error()
			report.Failed++
			continue
		}
		report.Succeeded++
	}

	report.Uploaded = tally.Uploaded()
	report.CaptureFailures = tally.Failed()
	log.Printf("🎉 RegenerateBatch: %d succeeded, %d failed, %d uploads", report.Succeeded, report.Failed, report.Uploaded)
	return report
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
