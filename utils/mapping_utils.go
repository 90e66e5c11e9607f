package utils

import (
	"strings"
)

// categoryCodes maps design file name prefixes to gallery categories
var categoryCodes = map[string]string{
	"ANI": "animals",
	"NAT": "nature",
	"TYP": "typography",
	"SPT": "sports",
	"MUS": "music",
	"GEO": "geometric",
	"RET": "retro",
	"HUM": "humor",
	"HOL": "holidays",
	"PET": "pets",
}

// MapCodeToCategory maps a file name prefix to its category.
// Input is normalized to uppercase; unknown codes return "".
func MapCodeToCategory(code string) string {
	return categoryCodes[strings.ToUpper(strings.TrimSpace(code))]
}

// MapCategoryToCode maps a category name back to its prefix.
// Returns "" for unknown categories.
func MapCategoryToCode(category string) string {
	categoryLower := strings.ToLower(strings.TrimSpace(category))
	for code, name := range categoryCodes {
		if name == categoryLower {
			return code
		}
	}
	return ""
}

// CapitalizeWords capitalizes the first letter of each word
func CapitalizeWords(s string) string {
	if s == "" {
		return s
	}
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(string(word[0])) + strings.ToLower(word[1:])
		}
	}
	return strings.Join(words, " ")
}
