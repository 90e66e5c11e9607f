package utils

import (
	"strconv"
	"strings"
)

// FormatCents formats an amount in cents as a string like "1,234.50 EUR".
// Uses comma as thousands separator and dot for decimals.
func FormatCents(amount int64, currency string) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	units := strconv.FormatInt(amount/100, 10)
	cents := amount % 100

	var b strings.Builder
	// Pre-allocate: digits + separators + decimals + currency
	b.Grow(len(units) + len(units)/3 + 4 + len(currency) + 1)
	if neg {
		b.WriteByte('-')
	}

	// Insert separators from the left.
	rem := len(units) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(units[:rem])
	for i := rem; i < len(units); i += 3 {
		b.WriteByte(',')
		b.WriteString(units[i : i+3])
	}

	b.WriteByte('.')
	if cents < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(cents, 10))

	if currency != "" {
		b.WriteByte(' ')
		b.WriteString(currency)
	}
	return b.String()
}

// MaskToken hides all but the last four characters of a token for logging
func MaskToken(token string) string {
	if token == "" {
		return "<none>"
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
