package pricing

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"textile-studio/models"
)

// PricingConfig represents the pricing configuration structure
type PricingConfig struct {
	Currency string `json:"currency"`
	// Products overrides the catalog price of a product, in cents
	Products   map[string]int64 `json:"products"`
	PrintSizes map[string]int64 `json:"printSizes"`
	// DefaultPrintSize is charged for designs saved without a print size
	DefaultPrintSize string `json:"defaultPrintSize"`
	Rules            []Rule `json:"rules"`
}

type Rule struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Active     bool                   `json:"active"`
	Priority   int                    `json:"priority"`
	Type       string                 `json:"type"`
	Conditions map[string]interface{} `json:"conditions"`
	Action     map[string]interface{} `json:"action,omitempty"`
}

const (
	RuleSideSurcharge = "side_surcharge"
	RuleTextSurcharge = "text_surcharge"
	RuleTwoSided      = "two_sided_surcharge"
)

// Engine computes unit prices of customized items from a JSON configuration
type Engine struct {
	config *PricingConfig
}

var (
	engineInstance *Engine
	engineMu       sync.Mutex
)

// NewEngine loads the pricing config once and returns the shared engine
func NewEngine(configPath string) (*Engine, error) {
	engineMu.Lock()
	defer engineMu.Unlock()
	if engineInstance != nil {
		return engineInstance, nil
	}

	// Resolve config path
	if !filepath.IsAbs(configPath) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		configPath = filepath.Join(wd, configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing config: %w", err)
	}

	engine, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}

	engineInstance = engine
	log.Printf("✅ PricingEngine: Successfully loaded pricing config from %s", configPath)
	return engine, nil
}

// ParseConfig builds a standalone engine from raw JSON
func ParseConfig(data []byte) (*Engine, error) {
	var config PricingConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse pricing config: %w", err)
	}
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid pricing config: %w", err)
	}

	// Sort rules by priority (highest first)
	sort.SliceStable(config.Rules, func(i, j int) bool {
		return config.Rules[i].Priority > config.Rules[j].Priority
	})
	return &Engine{config: &config}, nil
}

func validateConfig(config *PricingConfig) error {
	if config.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if len(config.PrintSizes) == 0 {
		return fmt.Errorf("printSizes are required")
	}
	for size, amount := range config.PrintSizes {
		if amount < 0 {
			return fmt.Errorf("print size %s has a negative surcharge", size)
		}
	}
	if config.DefaultPrintSize != "" {
		if _, ok := config.PrintSizes[config.DefaultPrintSize]; !ok {
			return fmt.Errorf("defaultPrintSize %s is not priced", config.DefaultPrintSize)
		}
	}
	return nil
}

// GetEngine returns the singleton pricing engine instance
func GetEngine() *Engine {
	engineMu.Lock()
	defer engineMu.Unlock()
	return engineInstance
}

// Currency returns the configured currency code
func (e *Engine) Currency() string {
	return e.config.Currency
}

// BasePrice returns the configured override for a product, or its catalog price
func (e *Engine) BasePrice(product *models.Product) int64 {
	if product == nil {
		return 0
	}
	if price, ok := e.config.Products[product.ID]; ok {
		return price
	}
	return product.Price
}

// printSizeSurcharge returns the surcharge of a print size, falling back to the default size
func (e *Engine) printSizeSurcharge(size models.PrintSize) (string, int64) {
	if amount, ok := e.config.PrintSizes[string(size)]; ok && size != "" {
		return string(size), amount
	}
	if e.config.DefaultPrintSize != "" {
		return e.config.DefaultPrintSize, e.config.PrintSizes[e.config.DefaultPrintSize]
	}
	return string(size), 0
}

// UnitPrice calculates the unit price of product customized with rec
func (e *Engine) UnitPrice(product *models.Product, rec *models.CustomizationRecord) models.PricingBreakdown {
	breakdown := models.PricingBreakdown{
		Currency: e.config.Currency,
		Base:     e.BasePrice(product),
		Lines:    []models.PricingLine{},
	}
	breakdown.Total = breakdown.Base

	if rec == nil {
		return breakdown
	}

	add := func(label string, amount int64) {
		if amount == 0 {
			return
		}
		breakdown.Lines = append(breakdown.Lines, models.PricingLine{Label: label, Amount: amount})
		breakdown.Total += amount
	}

	printedSides := 0
	for _, side := range models.Sides {
		if rec.HasContent(side) {
			printedSides++
		}
		if d := rec.Design(side); d != nil {
			size, amount := e.printSizeSurcharge(d.PrintSize)
			add(fmt.Sprintf("%s print %s", side, size), amount)
		}
	}

	for _, rule := range e.config.Rules {
		if !rule.Active {
			continue
		}
		amount := int64(numberOf(rule.Action, "amount"))
		switch rule.Type {
		case RuleSideSurcharge:
			side, _ := rule.Conditions["side"].(string)
			if rec.HasContent(models.Side(side)) {
				add(rule.Name, amount)
			}
		case RuleTextSurcharge:
			for _, side := range models.Sides {
				if rec.Text(side) != nil {
					add(fmt.Sprintf("%s (%s)", rule.Name, side), amount)
				}
			}
		case RuleTwoSided:
			if printedSides == len(models.Sides) {
				add(rule.Name, amount)
			}
		default:
			log.Printf("⚠️ PricingEngine: unknown rule type %s (rule %s)", rule.Type, rule.ID)
		}
	}

	return breakdown
}

// ToCents converts a displayed price in currency units to cents
func ToCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

func numberOf(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
