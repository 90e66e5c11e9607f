package models

import "time"

// Order is a placed order as read back for regeneration
type Order struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	Items     []OrderItem `json:"items"`
}

// OrderItem is a line of a placed order
type OrderItem struct {
	ID             string               `json:"id"`
	OrderID        string               `json:"orderId"`
	ProductID      string               `json:"productId"`
	Quantity       int                  `json:"quantity"`
	Customization  *CustomizationRecord `json:"customization,omitempty"`
	VisualFrontURL string               `json:"visualFrontUrl,omitempty"`
	VisualBackURL  string               `json:"visualBackUrl,omitempty"`
}

// OrderItemVisuals carries the capture urls written back to an order item.
// Nil fields are left untouched.
type OrderItemVisuals struct {
	VisualFrontURL *string `json:"visual_front_url,omitempty"`
	VisualBackURL  *string `json:"visual_back_url,omitempty"`
}

// RegenerationResult reports one regenerated order
type RegenerationResult struct {
	OrderID string            `json:"orderId"`
	Items   []RegeneratedItem `json:"items"`
}

// RegeneratedItem holds the new urls of one order item
type RegeneratedItem struct {
	ItemID   string `json:"itemId"`
	FrontURL string `json:"frontUrl,omitempty"`
	BackURL  string `json:"backUrl,omitempty"`
}

// BatchRegenerationReport aggregates a sequential regeneration batch
type BatchRegenerationReport struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Uploaded  int `json:"uploaded"`
	// CaptureFailures counts side captures that ended without a url
	CaptureFailures int                  `json:"captureFailures"`
	Results         []RegenerationResult `json:"results"`
	Errors          map[string]string    `json:"errors"`
}
