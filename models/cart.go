package models

import "time"

// CartItem is a line of a visitor's cart
type CartItem struct {
	ID             int64                `json:"id"`
	CartToken      string               `json:"cartToken"`
	UserID         string               `json:"userId,omitempty"`
	ProductID      string               `json:"productId"`
	Quantity       int                  `json:"quantity"`
	Price          int64                `json:"price"` // cents, per unit
	Size           string               `json:"size"`
	Color          string               `json:"color,omitempty"`
	Customization  *CustomizationRecord `json:"customization,omitempty"`
	VisualFrontURL string               `json:"visualFrontUrl,omitempty"`
	VisualBackURL  string               `json:"visualBackUrl,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// AddToCartRequest is the body of POST /cart/items.
// Price is the unit price the studio displayed, in currency units (e.g. 12.99).
type AddToCartRequest struct {
	CartToken     string               `json:"cartToken"`
	UserID        string               `json:"userId,omitempty"`
	ProductID     string               `json:"productId"`
	Quantity      int                  `json:"quantity"`
	Price         float64              `json:"price"`
	Size          string               `json:"size"`
	Color         string               `json:"color,omitempty"`
	Customization *CustomizationRecord `json:"customization,omitempty"`
}

// AddToCartResponse is returned once the item is stored.
// CaptureWarning is set when the visuals could not be produced; the item is still added.
type AddToCartResponse struct {
	Item           CartItem `json:"item"`
	Message        string   `json:"message"`
	CaptureWarning string   `json:"captureWarning,omitempty"`
}
