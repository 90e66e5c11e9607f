package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"textile-studio/capture"
	"textile-studio/models"
	"textile-studio/pricing"
	"textile-studio/repository"
	"textile-studio/utils"
)

// ProductSource looks up catalog products
type ProductSource interface {
	FetchProductByID(ctx context.Context, id string) (*models.Product, error)
}

// CartOptions holds the cart limits and capture timing
type CartOptions struct {
	SettleDelay   time.Duration
	MaxLines      int
	MaxQuantity   int
	AddsPerMinute int
	Tiers         Tiers
}

// DefaultCartOptions returns the standard limits
func DefaultCartOptions() CartOptions {
	return CartOptions{
		SettleDelay:   500 * time.Millisecond,
		MaxLines:      50,
		MaxQuantity:   99,
		AddsPerMinute: 10,
		Tiers:         DefaultTiers(),
	}
}

// CartService adds customized items to carts
// Implements CartServiceInterface
type CartService struct {
	carts    repository.CartRepositoryInterface
	products ProductSource
	pricing  *pricing.Engine
	mounter  Mounter
	capturer Capturer
	opts     CartOptions

	// live serializes the un-namespaced capture session
	live sync.Mutex

	limitersMu sync.Mutex
	limiters   map[string]*cartLimiter
	lastSweep  time.Time
	now        func() time.Time
}

// cartLimiter is the add budget of one cart token
type cartLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterIdle is how long a token stays tracked after its last add. A
// limiter idle this long has refilled its whole burst, so dropping it
// changes nothing for the cart.
const limiterIdle = time.Minute

// Ensure CartService implements CartServiceInterface
var _ CartServiceInterface = (*CartService)(nil)

// NewCartService creates a new CartService
func NewCartService(carts repository.CartRepositoryInterface, products ProductSource, engine *pricing.Engine, mounter Mounter, capturer Capturer, opts CartOptions) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		pricing:  engine,
		mounter:  mounter,
		capturer: capturer,
		opts:     opts,
		limiters: make(map[string]*cartLimiter),
		now:      time.Now,
	}
}

// NewCartToken returns a fresh cart token
func NewCartToken() string {
	return uuid.NewString()
}

// AddCustomizedItem validates, prices, captures and stores a cart line
func (s *CartService) AddCustomizedItem(ctx context.Context, req *models.AddToCartRequest) (*models.AddToCartResponse, error) {
	if req == nil {
		return nil, invalid("body", "request body is required")
	}
	if _, err := uuid.Parse(req.CartToken); err != nil {
		return nil, invalid("cartToken", "a valid cart token is required")
	}
	masked := utils.MaskToken(req.CartToken)

	if !s.limiter(req.CartToken).Allow() {
		log.Printf("⚠️  AddCustomizedItem: rate limit hit for cart %s", masked)
		return nil, ErrRateLimited
	}

	if err := s.validate(req); err != nil {
		log.Printf("❌ AddCustomizedItem: invalid request for cart %s: %v", masked, err)
		return nil, err
	}

	count, err := s.carts.CountCartItems(ctx, req.CartToken)
	if err != nil {
		return nil, fmt.Errorf("failed to count cart items: %w", err)
	}
	if count >= s.opts.MaxLines {
		return nil, fmt.Errorf("%w: %d lines", ErrCartFull, count)
	}

	product, err := s.products.FetchProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, req.ProductID)
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: %s is not active", ErrProductNotFound, req.ProductID)
	}

	breakdown := s.pricing.UnitPrice(product, req.Customization)
	requested := pricing.ToCents(req.Price)
	if requested != breakdown.Total {
		log.Printf("❌ AddCustomizedItem: price mismatch for %s: requested=%d, server=%d", req.ProductID, requested, breakdown.Total)
		return nil, fmt.Errorf("%w: requested %s, expected %s", ErrPriceMismatch,
			utils.FormatCents(requested, breakdown.Currency), utils.FormatCents(breakdown.Total, breakdown.Currency))
	}

	item := &models.CartItem{
		CartToken: req.CartToken,
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Price:     breakdown.Total,
		Size:      req.Size,
		Color:     req.Color,
	}
	if req.Customization != nil {
		// HD urls only ever come from a capture made here
		clean := req.Customization.WithoutCaptureURLs()
		item.Customization = &clean
	}

	var warning string
	if item.Customization != nil && !item.Customization.IsEmpty() {
		enriched, previews, w := s.enrich(ctx, item.Customization)
		item.Customization = &enriched
		item.VisualFrontURL = previews.FrontURL
		item.VisualBackURL = previews.BackURL
		warning = w
	}

	stored, err := s.carts.AddCartItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to add item to cart: %w", err)
	}

	log.Printf("✅ AddCustomizedItem: line %d added to cart %s", stored.ID, masked)
	return &models.AddToCartResponse{
		Item:           *stored,
		Message:        "Item added to cart",
		CaptureWarning: warning,
	}, nil
}

// enrich captures the record's visuals. It never fails: when capture is not
// possible the original record comes back with a warning.
func (s *CartService) enrich(ctx context.Context, rec *models.CustomizationRecord) (models.CustomizationRecord, capture.Result, string) {
	original := *rec

	// let the studio's last edits settle before mounting
	if s.opts.SettleDelay > 0 {
		timer := time.NewTimer(s.opts.SettleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return original, capture.Result{}, "visuals were not captured: request cancelled"
		case <-timer.C:
		}
	}

	s.live.Lock()
	defer s.live.Unlock()

	session := capture.NewSession("")
	defer session.UnmountAll()

	tiers := []capture.Tier{s.opts.Tiers.Preview, s.opts.Tiers.Production}
	if err := s.mounter.MountRecord(ctx, session, rec, tiers...); err != nil {
		log.Printf("⚠️  enrich: some mirrors failed to mount: %v", err)
	}

	production := s.opts.Tiers.Production
	if !session.Has(session.TargetID(models.SideFront, production), session.TargetID(models.SideBack, production)) {
		log.Printf("⚠️  enrich: production targets missing, adding item without HD visuals")
		return original, capture.Result{}, "visuals were not captured: capture targets unavailable"
	}

	tally := capture.NewTally()
	results := s.capturer.Capture(ctx, session, rec, tiers, tally)

	hd := results[production.Name]
	enriched := rec.WithCaptureURLs(hd.FrontURL, hd.BackURL)

	var warning string
	if failed := tally.Failed(); failed > 0 {
		warning = fmt.Sprintf("%d visual(s) could not be captured", failed)
		log.Printf("⚠️  enrich: %s (%d uploaded)", warning, tally.Uploaded())
	}
	return enriched, results[s.opts.Tiers.Preview.Name], warning
}

func (s *CartService) validate(req *models.AddToCartRequest) error {
	if strings.TrimSpace(req.ProductID) == "" {
		return invalid("productId", "is required")
	}
	if req.Quantity < 1 || req.Quantity > s.opts.MaxQuantity {
		return invalid("quantity", "must be between 1 and %d", s.opts.MaxQuantity)
	}
	if strings.TrimSpace(req.Size) == "" {
		return invalid("size", "is required")
	}
	if req.Price <= 0 {
		return invalid("price", "must be greater than 0")
	}
	if len(req.Color) > 64 {
		return invalid("color", "is too long")
	}
	if req.Customization != nil {
		if err := req.Customization.Validate(); err != nil {
			return &ValidationError{Field: "customization", Message: err.Error()}
		}
	}
	return nil
}

func (s *CartService) limiter(token string) *rate.Limiter {
	s.limitersMu.Lock()
	defer s.limitersMu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= limiterIdle {
		for key, l := range s.limiters {
			if now.Sub(l.lastSeen) >= limiterIdle {
				delete(s.limiters, key)
			}
		}
		s.lastSweep = now
	}

	l, ok := s.limiters[token]
	if !ok {
		per := s.opts.AddsPerMinute
		if per < 1 {
			per = 1
		}
		l = &cartLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(per)), per)}
		s.limiters[token] = l
	}
	l.lastSeen = now
	return l.limiter
}

// GetCart lists a cart's lines
func (s *CartService) GetCart(ctx context.Context, cartToken string) ([]models.CartItem, error) {
	if _, err := uuid.Parse(cartToken); err != nil {
		return nil, invalid("token", "a valid cart token is required")
	}
	return s.carts.GetCartItems(ctx, cartToken)
}
