package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textile-studio/models"
)

const testConfig = `{
  "currency": "EUR",
  "products": {"tee-premium": 1999},
  "printSizes": {"A4": 300, "A3": 500, "Pocket": 0},
  "defaultPrintSize": "A4",
  "rules": [
    {"id": "TEXT", "name": "Custom text", "active": true, "priority": 10, "type": "text_surcharge", "action": {"amount": 100}},
    {"id": "BACK", "name": "Back print", "active": true, "priority": 100, "type": "side_surcharge", "conditions": {"side": "back"}, "action": {"amount": 200}},
    {"id": "OFF", "name": "Disabled", "active": false, "priority": 500, "type": "two_sided_surcharge", "action": {"amount": 9999}}
  ]
}`

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := ParseConfig([]byte(testConfig))
	require.NoError(t, err)
	return e
}

func TestParseConfigSortsRulesByPriority(t *testing.T) {
	e := testEngine(t)
	require.Len(t, e.config.Rules, 3)
	assert.Equal(t, "OFF", e.config.Rules[0].ID)
	assert.Equal(t, "BACK", e.config.Rules[1].ID)
	assert.Equal(t, "TEXT", e.config.Rules[2].ID)
	assert.Equal(t, "EUR", e.Currency())
}

func TestParseConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{`},
		{"no currency", `{"printSizes": {"A4": 1}}`},
		{"no print sizes", `{"currency": "EUR"}`},
		{"negative surcharge", `{"currency": "EUR", "printSizes": {"A4": -1}}`},
		{"unknown default", `{"currency": "EUR", "printSizes": {"A4": 1}, "defaultPrintSize": "A9"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.json))
			assert.Error(t, err)
		})
	}
}

func TestUnitPrice(t *testing.T) {
	e := testEngine(t)
	tee := &models.Product{ID: "tee", Price: 999}

	t.Run("plain product", func(t *testing.T) {
		b := e.UnitPrice(tee, nil)
		assert.Equal(t, int64(999), b.Base)
		assert.Equal(t, int64(999), b.Total)
		assert.Empty(t, b.Lines)
	})

	t.Run("front design with explicit size", func(t *testing.T) {
		rec := &models.CustomizationRecord{
			FrontDesign: &models.DesignSelection{DesignURL: "https://x/a.png", PrintSize: models.PrintA3, Transform: models.DefaultTransform()},
		}
		b := e.UnitPrice(tee, rec)
		assert.Equal(t, int64(999+500), b.Total)
		assert.Equal(t, []models.PricingLine{{Label: "front print A3", Amount: 500}}, b.Lines)
	})

	t.Run("missing print size uses default", func(t *testing.T) {
		rec := &models.CustomizationRecord{
			FrontDesign: &models.DesignSelection{DesignURL: "https://x/a.png", Transform: models.DefaultTransform()},
		}
		b := e.UnitPrice(tee, rec)
		assert.Equal(t, int64(999+300), b.Total)
	})

	t.Run("back design and text", func(t *testing.T) {
		rec := &models.CustomizationRecord{
			BackDesign: &models.DesignSelection{DesignURL: "https://x/a.png", PrintSize: models.PrintPocket, Transform: models.DefaultTransform()},
			FrontText:  &models.TextSelection{Content: "Hi", Color: "#000000", Transform: models.DefaultTransform()},
		}
		b := e.UnitPrice(tee, rec)
		// pocket 0 is omitted, back 200, text 100
		assert.Equal(t, int64(999+200+100), b.Total)
		assert.Len(t, b.Lines, 2)
	})

	t.Run("product override", func(t *testing.T) {
		b := e.UnitPrice(&models.Product{ID: "tee-premium", Price: 1}, nil)
		assert.Equal(t, int64(1999), b.Total)
	})
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(999), ToCents(9.99))
	assert.Equal(t, int64(1299), ToCents(12.99))
	assert.Equal(t, int64(1), ToCents(0.005))
	assert.Equal(t, int64(0), ToCents(0))
}
