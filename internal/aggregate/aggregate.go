// Package aggregate derives read-only summaries of a project for charts,
// reports and exports.
package aggregate

import (
	"github.com/mohammed-shakir/mapnotes/internal/core/model"
)

// Merger combines serialized feature collections into one.
type Merger interface {
	Merge(parts [][]byte) ([]byte, error)
}

// CategoryCounts counts markers per category. Every category is present and
// unset counts as General.
func CategoryCounts(markers []model.Marker) map[model.Category]int {
	out := make(map[model.Category]int, len(model.Categories))
	for _, c := range model.Categories {
		out[c] = 0
	}
	for _, m := range markers {
		out[m.Category.Effective()]++
	}
	return out
}

type CategoryCount struct {
	Category model.Category `json:"category"`
	Count    int            `json:"count"`
	Color    string         `json:"color"`
	Icon     string         `json:"icon"`
}

// Breakdown is CategoryCounts in display order with styling for chart feeds.
func Breakdown(markers []model.Marker) []CategoryCount {
	counts := CategoryCounts(markers)
	out := make([]CategoryCount, 0, len(model.Categories))
	for _, c := range model.Categories {
		out = append(out, CategoryCount{Category: c, Count: counts[c], Color: c.Color(), Icon: c.Icon()})
	}
	return out
}

type Summary struct {
	Markers    int             `json:"markers"`
	WithImages int             `json:"with_images"`
	Shapes     int             `json:"shapes"`
	ShapeKinds map[string]int  `json:"shape_kinds"`
	Categories []CategoryCount `json:"categories"`
}

func Summarize(markers []model.Marker, shapes []model.Shape) Summary {
	s := Summary{
		Markers:    len(markers),
		Shapes:     len(shapes),
		ShapeKinds: make(map[string]int),
		Categories: Breakdown(markers),
	}
	for _, m := range markers {
		if m.Image != nil {
			s.WithImages++
		}
	}
	for _, sh := range shapes {
		s.ShapeKinds[sh.Kind()]++
	}
	return s
}
