package service

import (
	"errors"
	"fmt"
)

var (
	ErrPriceMismatch   = errors.New("price does not match the server price")
	ErrRateLimited     = errors.New("too many requests")
	ErrCartFull        = errors.New("cart is full")
	ErrProductNotFound = errors.New("product not found")
	ErrQuotaExceeded   = errors.New("generation quota exceeded")
	ErrOrderNotFound   = errors.New("order not found")
	ErrNoCustomization = errors.New("order has no customized items")
)

// ValidationError reports a request field that failed validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
