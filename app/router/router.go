package router

import (
	"net/http"
	"strings"

	"textile-studio/app/controller"
)

type Controllers struct {
	Catalog *controller.CatalogController
	Studio  *controller.StudioController
	Cart    *controller.CartController
	Admin   *controller.AdminController
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// SetupRoutes registers every endpoint and wraps the mux with CORS for allowedOrigin
func SetupRoutes(controllers *Controllers, allowedOrigin string) http.Handler {
	mux := http.NewServeMux()

	// Ping endpoint
	mux.HandleFunc("/ping", pingHandler)

	// Catalog routes
	mux.HandleFunc("/catalog/designs", controllers.Catalog.ListDesigns)
	mux.HandleFunc("/catalog/mockups/", controllers.Catalog.GetMockup)
	mux.HandleFunc("/catalog/products/", controllers.Catalog.GetProduct)

	// Studio routes
	mux.HandleFunc("/studio/svg/resolve", controllers.Studio.ResolveSVG)
	mux.HandleFunc("/studio/render", controllers.Studio.Render)
	mux.HandleFunc("/studio/preview", controllers.Studio.Preview)
	mux.HandleFunc("/studio/qr", controllers.Studio.GenerateQR)
	mux.HandleFunc("/studio/ai/generate", controllers.Studio.GenerateAI)

	// Cart routes - POST adds a customized item, GET lists the cart
	mux.HandleFunc("/cart/items", controllers.Cart.Items)

	// Admin routes
	// Batch regeneration (must be matched before /admin/orders/{id}/regenerate)
	mux.HandleFunc("/admin/orders/regenerate", controllers.Admin.RegenerateBatch)
	mux.HandleFunc("/admin/orders/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/regenerate") {
			controllers.Admin.RegenerateOrder(w, r)
			return
		}
		http.Error(w, "Not found", http.StatusNotFound)
	})
	mux.HandleFunc("/admin/designs/sync", controllers.Admin.SyncDesigns)
	mux.HandleFunc("/admin/designs/cleanup-svg", controllers.Admin.CleanupSVG)

	return withCORS(mux, allowedOrigin)
}

// withCORS answers preflight requests and sets the allowed origin
func withCORS(next http.Handler, allowedOrigin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
