package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// DesignFileName is what a Drive design file name says about the design
type DesignFileName struct {
	Code     string
	Category string
	Name     string
	IsSVG    bool
}

var designExtRegex = regexp.MustCompile(`(?i)\.(png|jpe?g|webp|svg)$`)

// ParseDesignFileName parses a filename following the pattern:
// CATEGORY-Design_Name.EXT
// Example: ANI-roaring_lion.svg
func ParseDesignFileName(filename string) (*DesignFileName, error) {
	ext := designExtRegex.FindString(filename)
	if ext == "" {
		return nil, fmt.Errorf("invalid filename %q: expected a png, jpg, webp or svg extension", filename)
	}
	nameWithoutExt := strings.TrimSuffix(filename, ext)

	code, rest, found := strings.Cut(nameWithoutExt, "-")
	if !found || rest == "" {
		return nil, fmt.Errorf("invalid filename format: expected CATEGORY-Name, got %s", nameWithoutExt)
	}

	category := MapCodeToCategory(code)
	if category == "" {
		return nil, fmt.Errorf("invalid category code: %s", code)
	}

	name := CapitalizeWords(strings.NewReplacer("_", " ", "-", " ").Replace(rest))
	if name == "" {
		return nil, fmt.Errorf("invalid filename %q: empty design name", filename)
	}

	return &DesignFileName{
		Code:     strings.ToUpper(code),
		Category: category,
		Name:     name,
		IsSVG:    strings.EqualFold(ext, ".svg"),
	}, nil
}
