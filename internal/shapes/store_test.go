package shapes

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
)

func feature(typ, coords string, props map[string]any) model.Shape {
	return model.Shape{
		Type:       "Feature",
		Geometry:   model.Geometry{Type: typ, Coordinates: json.RawMessage(coords)},
		Properties: props,
	}
}

func TestReplaceAll_Wholesale(t *testing.T) {
	p := &model.Project{}
	s := NewStore(p)

	first := []model.Shape{
		feature("Polygon", `[[[18.0,59.3],[18.1,59.3],[18.1,59.4],[18.0,59.3]]]`, nil),
		model.NewCircle(59.33, 18.06, 120, nil),
	}
	if err := s.ReplaceAll(first); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if s.Len() != 2 || len(p.Shapes) != 2 {
		t.Fatalf("len=%d want 2", s.Len())
	}

	second := []model.Shape{feature("LineString", `[[18.0,59.3],[18.2,59.5]]`, nil)}
	if err := s.ReplaceAll(second); err != nil {
		t.Fatalf("ReplaceAll second: %v", err)
	}
	if s.Len() != 1 || p.Shapes[0].Geometry.Type != "LineString" {
		t.Fatalf("expected wholesale replacement, got %+v", p.Shapes)
	}

	if err := s.ReplaceAll(nil); err != nil || s.Len() != 0 {
		t.Fatalf("clearing shapes: err=%v len=%d", err, s.Len())
	}
}

func TestReplaceAll_InvalidLeavesPreviousList(t *testing.T) {
	p := &model.Project{}
	s := NewStore(p)
	_ = s.ReplaceAll([]model.Shape{model.NewCircle(1, 1, 10, nil)})

	bad := []model.Shape{
		feature("Point", `[1,1]`, nil),
		feature("Polygon", `[[[0,0],[1,1]]]`, nil),
	}
	err := s.ReplaceAll(bad)
	if !errors.Is(err, model.ErrInvalidGeometry) {
		t.Fatalf("err=%v want ErrInvalidGeometry", err)
	}
	if s.Len() != 1 || !p.Shapes[0].IsCircle() {
		t.Fatalf("previous shapes must survive a rejected replacement: %+v", p.Shapes)
	}
}

func TestReplaceAll_FillsFeatureType(t *testing.T) {
	s := NewStore(&model.Project{})
	sh := feature("Point", `[5,5]`, nil)
	sh.Type = ""
	if err := s.ReplaceAll([]model.Shape{sh}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if s.All()[0].Type != "Feature" {
		t.Fatalf("type=%q want Feature", s.All()[0].Type)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		s    model.Shape
		ok   bool
	}{
		{"point", feature("Point", `[18,59]`, nil), true},
		{"circle", model.NewCircle(59, 18, 50, nil), true},
		{"multipoint", feature("MultiPoint", `[[18,59],[19,60]]`, nil), true},
		{"multiline", feature("MultiLineString", `[[[18,59],[19,60]]]`, nil), true},
		{"multipolygon", feature("MultiPolygon", `[[[[0,0],[1,0],[1,1],[0,0]]]]`, nil), true},
		{"zero radius", feature("Point", `[18,59]`, map[string]any{"radius": 0.0}), false},
		{"string radius", feature("Point", `[18,59]`, map[string]any{"radius": "big"}), false},
		{"circle on polygon", feature("Polygon", `[[[0,0],[1,0],[1,1],[0,0]]]`, map[string]any{"radius": 3.0}), false},
		{"short line", feature("LineString", `[[18,59]]`, nil), false},
		{"out of range", feature("Point", `[200,59]`, nil), false},
		{"wrong nesting", feature("Point", `[[18,59]]`, nil), false},
		{"unknown type", feature("Hexagon", `[18,59]`, nil), false},
		{"not a feature", model.Shape{Type: "FeatureCollection", Geometry: model.Geometry{Type: "Point", Coordinates: json.RawMessage(`[1,1]`)}}, false},
		{"no coordinates", feature("Point", ``, nil), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.s)
			if tc.ok && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !tc.ok && !errors.Is(err, model.ErrInvalidGeometry) {
				t.Fatalf("err=%v want ErrInvalidGeometry", err)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	poly := feature("Polygon", `[[[18.0,59.3],[18.2,59.3],[18.2,59.4],[18.0,59.3]]]`, nil)
	b, err := Bounds(poly)
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	want := model.Bounds{MinLat: 59.3, MinLng: 18.0, MaxLat: 59.4, MaxLng: 18.2}
	if b != want {
		t.Fatalf("bounds=%+v want %+v", b, want)
	}

	cb, err := Bounds(model.NewCircle(59.33, 18.06, 1000, nil))
	if err != nil {
		t.Fatalf("circle Bounds: %v", err)
	}
	if !(cb.MinLat < 59.33 && cb.MaxLat > 59.33 && cb.MaxLng-cb.MinLng > cb.MaxLat-cb.MinLat) {
		t.Fatalf("circle bounds look wrong: %+v", cb)
	}
}
