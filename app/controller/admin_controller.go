package controller

import (
	"log"
	"net/http"
	"strings"

	"textile-studio/service"
)

// AdminController handles order regeneration and design maintenance
type AdminController struct {
	regeneration    service.RegenerationServiceInterface
	sync            service.SyncServiceInterface
	designsFolderID string
}

// NewAdminController creates a new AdminController. designsFolderID is the
// Drive folder synced when the request names none.
func NewAdminController(regeneration service.RegenerationServiceInterface, sync service.SyncServiceInterface, designsFolderID string) *AdminController {
	return &AdminController{
		regeneration:    regeneration,
		sync:            sync,
		designsFolderID: designsFolderID,
	}
}

// RegenerateOrder handles POST /admin/orders/{id}/regenerate
func (c *AdminController) RegenerateOrder(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "RegenerateOrder", http.MethodPost) {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/admin/orders/")
	orderID := strings.TrimSuffix(path, "/regenerate")
	if orderID == "" || orderID == path || strings.Contains(orderID, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	log.Printf("📥 RegenerateOrder: order %s", orderID)
	res, err := c.regeneration.Regenerate(r.Context(), orderID)
	if err != nil {
		if res != nil && len(res.Items) > 0 {
			// some items were updated
			log.Printf("⚠️  RegenerateOrder: %v", err)
			writeJSON(w, http.StatusMultiStatus, map[string]interface{}{"result": res, "error": err.Error()})
			return
		}
		writeError(w, "RegenerateOrder", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type batchRequest struct {
	OrderIDs []string `json:"orderIds"`
}

// RegenerateBatch handles POST /admin/orders/regenerate
func (c *AdminController) RegenerateBatch(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "RegenerateBatch", http.MethodPost) {
		return
	}
	var req batchRequest
	if !decodeJSON(w, r, "RegenerateBatch", &req) {
		return
	}
	if len(req.OrderIDs) == 0 {
		http.Error(w, "orderIds cannot be empty", http.StatusBadRequest)
		return
	}
	report := c.regeneration.RegenerateBatch(r.Context(), req.OrderIDs)
	writeJSON(w, http.StatusOK, report)
}

// SyncDesigns handles POST /admin/designs/sync?folderId=
func (c *AdminController) SyncDesigns(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "SyncDesigns", http.MethodPost) {
		return
	}
	folderID := strings.TrimSpace(r.URL.Query().Get("folderId"))
	if folderID == "" {
		folderID = c.designsFolderID
	}
	report, err := c.sync.SyncDesigns(r.Context(), folderID)
	if err != nil {
		writeError(w, "SyncDesigns", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CleanupSVG handles POST /admin/designs/cleanup-svg
func (c *AdminController) CleanupSVG(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "CleanupSVG", http.MethodPost) {
		return
	}
	report, err := c.sync.CleanupSVGDesigns(r.Context())
	if err != nil {
		writeError(w, "CleanupSVG", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
