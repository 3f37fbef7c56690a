// Package filter derives the markers shown for a search query and category
// selector.
package filter

import (
	"strings"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
)

// All is the selector value that matches every category.
const All = "All"

// VisibleMarkers keeps markers whose title or description contains query
// (case-insensitive) and whose category matches. Order is preserved.
func VisibleMarkers(markers []model.Marker, query, category string) []model.Marker {
	q := strings.ToLower(query)
	want, byCategory := selector(category)

	out := make([]model.Marker, 0, len(markers))
	for _, m := range markers {
		if byCategory && m.Category.Effective() != want {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(m.Title), q) &&
			!strings.Contains(strings.ToLower(m.Description), q) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// selector reports the category to match, or false for All. Unknown names
// match nothing.
func selector(category string) (model.Category, bool) {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, All) {
		return "", false
	}
	if c, ok := model.ParseCategory(category); ok {
		return c, true
	}
	return model.Category(category), true
}
