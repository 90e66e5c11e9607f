package controller

import (
	"log"
	"net/http"
	"strings"

	"textile-studio/repository"
)

// CatalogController serves the gallery, mockups and products the studio reads
type CatalogController struct {
	repository repository.CatalogRepositoryInterface
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(repo repository.CatalogRepositoryInterface) *CatalogController {
	return &CatalogController{repository: repo}
}

// ListDesigns handles GET /catalog/designs
func (c *CatalogController) ListDesigns(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "ListDesigns", http.MethodGet) {
		return
	}
	designs, err := c.repository.FetchAllDesigns(r.Context())
	if err != nil {
		writeError(w, "ListDesigns", err)
		return
	}
	log.Printf("✅ ListDesigns: returning %d designs", len(designs))
	writeJSON(w, http.StatusOK, designs)
}

// GetMockup handles GET /catalog/mockups/{id}
func (c *CatalogController) GetMockup(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "GetMockup", http.MethodGet) {
		return
	}
	id, ok := pathID(w, r, "/catalog/mockups/")
	if !ok {
		return
	}
	mockup, err := c.repository.FetchMockupByID(r.Context(), id)
	if err != nil {
		writeError(w, "GetMockup", err)
		return
	}
	writeJSON(w, http.StatusOK, mockup)
}

// GetProduct handles GET /catalog/products/{id}
func (c *CatalogController) GetProduct(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "GetProduct", http.MethodGet) {
		return
	}
	id, ok := pathID(w, r, "/catalog/products/")
	if !ok {
		return
	}
	product, err := c.repository.FetchProductByID(r.Context(), id)
	if err != nil {
		writeError(w, "GetProduct", err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// pathID extracts the single segment following prefix
func pathID(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return "", false
	}
	return id, true
}
