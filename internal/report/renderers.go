package report

import (
	"context"
	"encoding/json"

	"github.com/mohammed-shakir/mapnotes/internal/aggregate/geojsonagg"
)

// JSONRenderer writes the whole snapshot, images included.
type JSONRenderer struct{}

func (JSONRenderer) Format() string      { return "json" }
func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Render(_ context.Context, s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// GeoJSONRenderer writes markers and shapes as one FeatureCollection.
type GeoJSONRenderer struct{}

func (GeoJSONRenderer) Timeless() {}

func (GeoJSONRenderer) Format() string      { return "geojson" }
func (GeoJSONRenderer) ContentType() string { return "application/geo+json" }

func (GeoJSONRenderer) Render(_ context.Context, s Snapshot) ([]byte, error) {
	return geojsonagg.FeatureCollection(s.Markers, s.Shapes)
}
