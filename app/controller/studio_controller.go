package controller

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"textile-studio/service"
)

// StudioController exposes the studio's server-side helpers
type StudioController struct {
	studio service.StudioServiceInterface
	qr     service.QRServiceInterface
	ai     service.ImageGeneratorInterface
}

// NewStudioController creates a new StudioController
func NewStudioController(studio service.StudioServiceInterface, qr service.QRServiceInterface, ai service.ImageGeneratorInterface) *StudioController {
	return &StudioController{studio: studio, qr: qr, ai: ai}
}

type resolveSVGRequest struct {
	URL   string `json:"url"`
	Color string `json:"color"`
}

// ResolveSVG handles POST /studio/svg/resolve
func (c *StudioController) ResolveSVG(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "ResolveSVG", http.MethodPost) {
		return
	}
	var req resolveSVGRequest
	if !decodeJSON(w, r, "ResolveSVG", &req) {
		return
	}
	res, err := c.studio.ResolveSVG(r.Context(), req.URL, req.Color)
	if err != nil {
		writeError(w, "ResolveSVG", err)
		return
	}
	if res.Fallback {
		log.Printf("⚠️  ResolveSVG: serving placeholder for %s", req.URL)
	}
	writeJSON(w, http.StatusOK, res)
}

// Render handles POST /studio/render
func (c *StudioController) Render(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "Render", http.MethodPost) {
		return
	}
	var req service.RenderRequest
	if !decodeJSON(w, r, "Render", &req) {
		return
	}
	out, err := c.studio.Render(r.Context(), &req)
	if err != nil {
		writeError(w, "Render", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Preview handles POST /studio/preview
// Returns the painted side as PNG, or JPEG for thumb and medium sizes
func (c *StudioController) Preview(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "Preview", http.MethodPost) {
		return
	}
	var req service.RenderRequest
	if !decodeJSON(w, r, "Preview", &req) {
		return
	}
	preview, err := c.studio.Preview(r.Context(), &req)
	if err != nil {
		writeError(w, "Preview", err)
		return
	}

	cache := "MISS"
	if preview.Cached {
		cache = "HIT"
	}
	w.Header().Set("Content-Type", preview.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(preview.Data)))
	w.Header().Set("X-Cache", cache)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(preview.Data); err != nil {
		log.Printf("❌ Preview: Error writing image: %v", err)
	}
}

// GenerateQR handles POST /studio/qr
func (c *StudioController) GenerateQR(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "GenerateQR", http.MethodPost) {
		return
	}
	var req service.QRRequest
	if !decodeJSON(w, r, "GenerateQR", &req) {
		return
	}
	dataURL, err := c.qr.GenerateQRCode(&req)
	if err != nil {
		writeError(w, "GenerateQR", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"dataUrl": dataURL})
}

type generateRequest struct {
	UserID string `json:"userId"`
	Prompt string `json:"prompt"`
}

// GenerateAI handles POST /studio/ai/generate
func (c *StudioController) GenerateAI(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "GenerateAI", http.MethodPost) {
		return
	}
	var req generateRequest
	if !decodeJSON(w, r, "GenerateAI", &req) {
		return
	}
	res, err := c.ai.Generate(r.Context(), req.UserID, req.Prompt)
	if errors.Is(err, service.ErrQuotaExceeded) && res != nil {
		writeJSON(w, http.StatusTooManyRequests, res)
		return
	}
	if err != nil {
		writeError(w, "GenerateAI", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
