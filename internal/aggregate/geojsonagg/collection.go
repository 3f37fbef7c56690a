// Package geojsonagg builds GeoJSON exports of a project's markers and
// shapes.
package geojsonagg

import (
	"encoding/json"
	"fmt"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
)

type feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Geometry   model.Geometry `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type collection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// MarkerFeatures renders markers as Point features keyed by marker id.
// Image bytes are left out; has_image flags their presence.
func MarkerFeatures(markers []model.Marker) ([]byte, error) {
	fc := collection{Type: "FeatureCollection", Features: make([]feature, 0, len(markers))}
	for _, m := range markers {
		coords, err := json.Marshal([]float64{m.Lng, m.Lat})
		if err != nil {
			return nil, fmt.Errorf("marker %s: %w", m.ID, err)
		}
		cat := m.Category.Effective()
		fc.Features = append(fc.Features, feature{
			Type:     "Feature",
			ID:       m.ID,
			Geometry: model.Geometry{Type: "Point", Coordinates: coords},
			Properties: map[string]any{
				"kind":        "marker",
				"title":       m.Title,
				"description": m.Description,
				"category":    cat,
				"color":       cat.Color(),
				"icon":        cat.Icon(),
				"has_image":   m.Image != nil,
			},
		})
	}
	return json.Marshal(fc)
}

// ShapeFeatures renders drawn shapes in list order. Circles keep their
// radius property.
func ShapeFeatures(shapes []model.Shape) ([]byte, error) {
	fc := collection{Type: "FeatureCollection", Features: make([]feature, 0, len(shapes))}
	for _, s := range shapes {
		props := make(map[string]any, len(s.Properties)+1)
		for k, v := range s.Properties {
			props[k] = v
		}
		props["kind"] = s.Kind()
		fc.Features = append(fc.Features, feature{Type: "Feature", Geometry: s.Geometry, Properties: props})
	}
	return json.Marshal(fc)
}

// FeatureCollection merges marker and shape features into one export.
func FeatureCollection(markers []model.Marker, shapes []model.Shape) ([]byte, error) {
	mb, err := MarkerFeatures(markers)
	if err != nil {
		return nil, fmt.Errorf("marker features: %w", err)
	}
	sb, err := ShapeFeatures(shapes)
	if err != nil {
		return nil, fmt.Errorf("shape features: %w", err)
	}
	return New(true).Merge([][]byte{mb, sb})
}
