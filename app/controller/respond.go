package controller

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"textile-studio/repository"
	"textile-studio/service"
	"textile-studio/svgasset"
)

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Error encoding response: %v", err)
	}
}

// statusOf maps service and repository errors to HTTP status codes
func statusOf(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrRateLimited), errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrPriceMismatch), errors.Is(err, service.ErrCartFull):
		return http.StatusConflict
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrOrderNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoCustomization),
		errors.Is(err, svgasset.ErrInvalidSVG),
		errors.Is(err, svgasset.ErrNotSVG),
		errors.Is(err, svgasset.ErrBlobURL),
		errors.Is(err, svgasset.ErrMalformedDataURI):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError logs err under op and answers with its mapped status
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	log.Printf("❌ %s: %v (status %d)", op, err, status)
	if status == http.StatusInternalServerError {
		http.Error(w, "Internal server error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

// decodeJSON reads a JSON body, answering 400 when it cannot
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		log.Printf("❌ %s: Failed to decode request body: %v", op, err)
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// customization records carry data uris, so bodies can be large
const maxBodyBytes = 8 << 20

func allowMethod(w http.ResponseWriter, r *http.Request, op, method string) bool {
	if r.Method != method {
		log.Printf("❌ %s: Method not allowed: %s", op, r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
