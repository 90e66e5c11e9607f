package controller

import (
	"log"
	"net/http"

	"textile-studio/models"
	"textile-studio/service"
)

// CartController handles HTTP requests for carts
type CartController struct {
	cart service.CartServiceInterface
}

// NewCartController creates a new CartController
func NewCartController(cart service.CartServiceInterface) *CartController {
	return &CartController{cart: cart}
}

// Items handles POST and GET /cart/items
func (c *CartController) Items(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		c.AddItem(w, r)
	case http.MethodGet:
		c.GetCart(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// AddItem handles POST /cart/items
// Prices the customized item, captures its visuals and adds it to the cart
func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 AddItem: Received %s request to %s", r.Method, r.URL.Path)

	var req models.AddToCartRequest
	if !decodeJSON(w, r, "AddItem", &req) {
		return
	}

	resp, err := c.cart.AddCustomizedItem(r.Context(), &req)
	if err != nil {
		writeError(w, "AddItem", err)
		return
	}
	if resp.CaptureWarning != "" {
		log.Printf("⚠️  AddItem: item %d added with warning: %s", resp.Item.ID, resp.CaptureWarning)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GetCart handles GET /cart/items?token=
func (c *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	items, err := c.cart.GetCart(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, "GetCart", err)
		return
	}
	if items == nil {
		items = []models.CartItem{}
	}
	writeJSON(w, http.StatusOK, items)
}
