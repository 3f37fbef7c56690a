package report

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
)

type countingRenderer struct {
	calls int
	err   error
}

func (*countingRenderer) Format() string      { return "pdf" }
func (*countingRenderer) ContentType() string { return "application/pdf" }

func (r *countingRenderer) Render(_ context.Context, s Snapshot) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF " + s.ProjectName), nil
}

// timelessRenderer is a countingRenderer whose output ignores GeneratedAt.
type timelessRenderer struct{ *countingRenderer }

func (timelessRenderer) Timeless() {}

func project() *model.Project {
	return &model.Project{
		Name: "Trip",
		Markers: []model.Marker{
			{ID: "a", Lat: 1, Lng: 2, Title: "A", Category: model.CategoryShop},
			{ID: "b", Lat: 3, Lng: 4, Title: "B"},
		},
		Shapes: []model.Shape{model.NewCircle(1, 2, 10, nil)},
	}
}

func TestSnapshot_CopiesAndSummarizes(t *testing.T) {
	b := NewBuilder(4)
	b.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	p := project()

	s := b.Snapshot("trip", p)
	p.Markers[0].Title = "changed"

	if s.Markers[0].Title != "A" {
		t.Fatalf("snapshot shares marker storage with the project")
	}
	if s.Summary.Markers != 2 || s.Summary.Shapes != 1 || s.Summary.ShapeKinds["Circle"] != 1 {
		t.Fatalf("summary=%+v", s.Summary)
	}
	if s.Summary.Categories[0].Count != 1 || s.Summary.Categories[4].Count != 1 {
		t.Fatalf("categories=%+v", s.Summary.Categories)
	}
	if !s.GeneratedAt.Equal(b.now()) {
		t.Fatalf("generated_at=%v", s.GeneratedAt)
	}
}

func TestRender_CachesUnchangedSnapshot(t *testing.T) {
	b := NewBuilder(4)
	counter := &countingRenderer{}
	r := timelessRenderer{counter}
	ctx := context.Background()

	s1 := b.Snapshot("trip", project())
	out1, err := b.Render(ctx, s1, r)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	s2 := b.Snapshot("trip", project())
	s2.GeneratedAt = s2.GeneratedAt.Add(time.Hour)
	out2, err := b.Render(ctx, s2, r)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if counter.calls != 1 || string(out1) != string(out2) {
		t.Fatalf("calls=%d out1=%q out2=%q want one cached render", counter.calls, out1, out2)
	}

	p := project()
	p.Markers = p.Markers[:1]
	if _, err := b.Render(ctx, b.Snapshot("trip", p), r); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if counter.calls != 2 {
		t.Fatalf("changed snapshot must re-render, calls=%d", counter.calls)
	}

	if _, err := b.Render(ctx, s1, JSONRenderer{}); err != nil {
		t.Fatalf("json Render: %v", err)
	}
	if counter.calls != 2 {
		t.Fatalf("other format must not hit the pdf renderer")
	}
}

func TestRender_StampsEachGenerationTime(t *testing.T) {
	b := NewBuilder(4)
	ctx := context.Background()
	day1 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	day3 := time.Date(2026, 1, 3, 9, 0, 0, 0, time.UTC)

	b.now = func() time.Time { return day1 }
	s1 := b.Snapshot("trip", project())
	b.now = func() time.Time { return day3 }
	s3 := b.Snapshot("trip", project())

	for _, s := range []Snapshot{s1, s3, s1} {
		raw, err := b.Render(ctx, s, JSONRenderer{})
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		var back Snapshot
		if err := json.Unmarshal(raw, &back); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !back.GeneratedAt.Equal(s.GeneratedAt) {
			t.Fatalf("generated_at=%v want %v", back.GeneratedAt, s.GeneratedAt)
		}
	}

	r := &countingRenderer{}
	if _, err := b.Render(ctx, s1, r); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := b.Render(ctx, s3, r); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := b.Render(ctx, s1, r); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if r.calls != 2 {
		t.Fatalf("calls=%d want one render per generation time", r.calls)
	}
}

func TestRender_FailureIsExternalAndNotCached(t *testing.T) {
	b := NewBuilder(4)
	r := &countingRenderer{err: errors.New("capture timed out")}
	s := b.Snapshot("trip", project())

	if _, err := b.Render(context.Background(), s, r); !errors.Is(err, model.ErrExternalOperation) {
		t.Fatalf("err=%v want ErrExternalOperation", err)
	}
	r.err = nil
	if _, err := b.Render(context.Background(), s, r); err != nil {
		t.Fatalf("retry Render: %v", err)
	}
	if r.calls != 2 {
		t.Fatalf("failures must not be cached, calls=%d", r.calls)
	}
}

func TestBuiltInRenderers(t *testing.T) {
	b := NewBuilder(4)
	s := b.Snapshot("trip", project())

	raw, err := b.Render(context.Background(), s, JSONRenderer{})
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var back Snapshot
	if err := json.Unmarshal(raw, &back); err != nil || back.ProjectKey != "trip" || len(back.Markers) != 2 {
		t.Fatalf("json snapshot=%+v err=%v", back, err)
	}

	gj, err := b.Render(context.Background(), s, GeoJSONRenderer{})
	if err != nil {
		t.Fatalf("geojson: %v", err)
	}
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(gj, &fc); err != nil || fc.Type != "FeatureCollection" || len(fc.Features) != 3 {
		t.Fatalf("geojson=%s err=%v", gj, err)
	}
}
