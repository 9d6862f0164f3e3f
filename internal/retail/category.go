package retail

import (
	"strings"

	"golang.org/x/text/cases"
)

// Category is a coarse product family used for reporting.
type Category string

const (
	CategoryDuvets     Category = "Duvets"
	CategoryDuvetsFull Category = "Duvets Full"
	CategoryToppers    Category = "Toppers"
	CategoryPillows    Category = "Pillows"
	CategoryOther      Category = "Other"
)

// CategoryOf classifies a product by alias prefix first and name keywords
// second.
func CategoryOf(alias, name string) Category {
	alias = strings.TrimSpace(alias)
	switch {
	case strings.HasPrefix(alias, "4"):
		return CategoryDuvets
	case strings.HasPrefix(alias, "2"):
		return CategoryDuvetsFull
	}
	lower := cases.Fold().String(name)
	switch {
	case strings.Contains(lower, "mattresspad"), strings.Contains(lower, "matresspad"):
		return CategoryToppers
	case strings.Contains(lower, "pillow") && !strings.Contains(lower, "case"):
		return CategoryPillows
	}
	return CategoryOther
}

// SameName compares display names ignoring case and surrounding space.
func SameName(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	caser := cases.Fold()
	return caser.String(a) == caser.String(b)
}
