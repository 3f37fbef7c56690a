package shapes

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mohammed-shakir/mapnotes/internal/core/geo"
	"github.com/mohammed-shakir/mapnotes/internal/core/model"
)

// position is one [lng, lat] pair.
type position []float64

// Validate checks that a shape is a well-formed GeoJSON feature the drawing
// tool can restore.
func Validate(s model.Shape) error {
	if s.Type != "" && s.Type != "Feature" {
		return fmt.Errorf("%w: feature type %q", model.ErrInvalidGeometry, s.Type)
	}
	if _, ok := s.Properties[model.RadiusProperty]; ok {
		r, ok := s.Radius()
		if !ok || math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
			return fmt.Errorf("%w: radius must be a positive number", model.ErrInvalidGeometry)
		}
		if s.Geometry.Type != "Point" {
			return fmt.Errorf("%w: circle must be a Point, got %q", model.ErrInvalidGeometry, s.Geometry.Type)
		}
	}
	if _, err := positions(s.Geometry); err != nil {
		return fmt.Errorf("%w: %s: %w", model.ErrInvalidGeometry, s.Geometry.Type, err)
	}
	return nil
}

// Bounds returns the lat/lng box that covers the shape.
func Bounds(s model.Shape) (model.Bounds, error) {
	pos, err := positions(s.Geometry)
	if err != nil {
		return model.Bounds{}, fmt.Errorf("%w: %w", model.ErrInvalidGeometry, err)
	}
	if r, ok := s.Radius(); ok && s.Geometry.Type == "Point" {
		return geo.BoundingBox(pos[0][1], pos[0][0], r), nil
	}
	b := model.Bounds{MinLat: 90, MinLng: 180, MaxLat: -90, MaxLng: -180}
	for _, p := range pos {
		b.MinLng = math.Min(b.MinLng, p[0])
		b.MaxLng = math.Max(b.MaxLng, p[0])
		b.MinLat = math.Min(b.MinLat, p[1])
		b.MaxLat = math.Max(b.MaxLat, p[1])
	}
	return b, nil
}

// positions flattens the coordinate arrays of g after checking their nesting.
func positions(g model.Geometry) ([]position, error) {
	if len(g.Coordinates) == 0 {
		return nil, errors.New("missing coordinates")
	}
	var out []position
	switch g.Type {
	case "Point":
		var p position
		if err := json.Unmarshal(g.Coordinates, &p); err != nil {
			return nil, fmt.Errorf("parse point: %w", err)
		}
		out = []position{p}
	case "MultiPoint", "LineString":
		var ps []position
		if err := json.Unmarshal(g.Coordinates, &ps); err != nil {
			return nil, fmt.Errorf("parse positions: %w", err)
		}
		if g.Type == "LineString" && len(ps) < 2 {
			return nil, errors.New("line needs at least 2 positions")
		}
		out = ps
	case "MultiLineString", "Polygon":
		var rings [][]position
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("parse rings: %w", err)
		}
		for i, r := range rings {
			if g.Type == "Polygon" && len(r) < 4 {
				return nil, fmt.Errorf("ring %d has < 4 positions", i)
			}
			out = append(out, r...)
		}
	case "MultiPolygon":
		var polys [][][]position
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return nil, fmt.Errorf("parse polygons: %w", err)
		}
		for pi, rings := range polys {
			for ri, r := range rings {
				if len(r) < 4 {
					return nil, fmt.Errorf("polygon %d ring %d has < 4 positions", pi, ri)
				}
				out = append(out, r...)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
	if len(out) == 0 {
		return nil, errors.New("empty geometry")
	}
	for _, p := range out {
		if len(p) < 2 {
			return nil, errors.New("position needs lng and lat")
		}
		if err := geo.ValidateLatLng(p[1], p[0]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
