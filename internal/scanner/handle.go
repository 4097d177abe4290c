package scanner

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	orderPrefix        = regexp.MustCompile(`^\d+-`)
	invalidHandleChars = regexp.MustCompile(`[^a-z0-9_-]+`)
)

// Handle derives a component handle from a view file name: the hidden
// marker and numeric order prefix are dropped and the rest is slugified,
// so "01-Primary Button" becomes "primary-button".
func Handle(name string) string {
	h := strings.TrimPrefix(strings.TrimSpace(name), "_")
	h = orderPrefix.ReplaceAllString(h, "")
	h = strings.ToLower(h)
	h = invalidHandleChars.ReplaceAllString(h, "-")
	return strings.Trim(h, "-")
}

// VariantHandle joins a component handle and a variant name.
func VariantHandle(component, variant string) string {
	return component + "--" + Handle(variant)
}

// Title turns a handle into a label, "primary-button" into "Primary Button".
func Title(handle string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(handle)
	return cases.Title(language.English).String(words)
}
