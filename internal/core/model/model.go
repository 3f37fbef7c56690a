// Package model defines core domain types shared across the service.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultProjectKey is the reserved project that always exists.
const (
	DefaultProjectKey  = "default"
	DefaultProjectName = "Default Map"
	DefaultMarkerTitle = "New Marker"
)

type Category string

const (
	CategoryGeneral    Category = "General"
	CategoryRestaurant Category = "Restaurant"
	CategoryCollege    Category = "College"
	CategoryEvent      Category = "Event"
	CategoryShop       Category = "Shop"
)

// Categories lists the closed enumeration in display order.
var Categories = []Category{
	CategoryGeneral,
	CategoryRestaurant,
	CategoryCollege,
	CategoryEvent,
	CategoryShop,
}

var categoryStyle = map[Category]struct{ color, icon string }{
	CategoryGeneral:    {"#3388ff", "map-pin"},
	CategoryRestaurant: {"#e74c3c", "utensils"},
	CategoryCollege:    {"#27ae60", "graduation-cap"},
	CategoryEvent:      {"#9b59b6", "calendar"},
	CategoryShop:       {"#f39c12", "shopping-bag"},
}

// ParseCategory matches s against the enumeration, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Effective folds unset and unknown values to General and fixes the case
// of known ones.
func (c Category) Effective() Category {
	if _, ok := categoryStyle[c]; ok {
		return c
	}
	if known, ok := ParseCategory(string(c)); ok {
		return known
	}
	return CategoryGeneral
}

func (c Category) Color() string { return categoryStyle[c.Effective()].color }

func (c Category) Icon() string { return categoryStyle[c.Effective()].icon }

type Image struct {
	MediaType string `json:"media_type"`
	Data      []byte `json:"data"`
}

type Marker struct {
	ID          string   `json:"id"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category,omitempty"`
	Image       *Image   `json:"image,omitempty"`
}

type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Shape is a drawn GeoJSON feature. A circle is a Point geometry whose
// properties carry a numeric "radius" in meters.
type Shape struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

const RadiusProperty = "radius"

func NewCircle(lat, lng, radiusMeters float64, props map[string]any) Shape {
	p := make(map[string]any, len(props)+1)
	for k, v := range props {
		p[k] = v
	}
	p[RadiusProperty] = radiusMeters
	coords, _ := json.Marshal([]float64{lng, lat})
	return Shape{
		Type:       "Feature",
		Geometry:   Geometry{Type: "Point", Coordinates: coords},
		Properties: p,
	}
}

// Radius reports the circle radius when the shape carries one.
func (s Shape) Radius() (float64, bool) {
	v, ok := s.Properties[RadiusProperty]
	if !ok {
		return 0, false
	}
	switch r := v.(type) {
	case float64:
		return r, true
	case float32:
		return float64(r), true
	case int:
		return float64(r), true
	case int64:
		return float64(r), true
	case json.Number:
		f, err := r.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func (s Shape) IsCircle() bool {
	_, ok := s.Radius()
	return ok && s.Geometry.Type == "Point"
}

// Kind is the geometry type, or "Circle" for point+radius shapes.
func (s Shape) Kind() string {
	if s.IsCircle() {
		return "Circle"
	}
	return s.Geometry.Type
}

type Project struct {
	Name    string   `json:"name"`
	Markers []Marker `json:"markers"`
	Shapes  []Shape  `json:"shapes"`
}

type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// String representation matching wfs/wms bbox format
func (b Bounds) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f,EPSG:4326", b.MinLng, b.MinLat, b.MaxLng, b.MaxLat)
}
