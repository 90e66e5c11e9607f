package models

// PricingLine is one component of a customized item's unit price
type PricingLine struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"` // cents
}

// PricingBreakdown is the server-side unit price of a customized item
type PricingBreakdown struct {
	Currency string        `json:"currency"`
	Base     int64         `json:"base"`
	Lines    []PricingLine `json:"lines"`
	Total    int64         `json:"total"`
}
