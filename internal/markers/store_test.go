package markers

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/mohammed-shakir/mapnotes/internal/core/geo"
	"github.com/mohammed-shakir/mapnotes/internal/core/model"
	h3mapper "github.com/mohammed-shakir/mapnotes/internal/mapper/h3"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
}

func newStoreForTest(p *model.Project) *Store {
	return NewStore(p, Options{Mapper: h3mapper.New(), NewID: seqIDs()})
}

func ptr[T any](v T) *T { return &v }

func TestAdd_AppliesDefaultsAndAppends(t *testing.T) {
	p := &model.Project{Name: "p"}
	s := newStoreForTest(p)

	m, err := s.Add(Candidate{Lat: 59.3293, Lng: 18.0686})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if m.ID != "m1" || m.Title != model.DefaultMarkerTitle || m.Category != model.CategoryGeneral {
		t.Fatalf("unexpected defaults: %+v", m)
	}
	if m.Description != "" || m.Image != nil {
		t.Fatalf("expected empty description and no image: %+v", m)
	}

	m2, err := s.Add(Candidate{Lat: 59.40, Lng: 18.10, Title: ptr("Cafe"), Category: ptr(model.CategoryShop)})
	if err != nil {
		t.Fatalf("Add second: %v", err)
	}
	if len(p.Markers) != 2 || p.Markers[1].ID != m2.ID {
		t.Fatalf("markers not appended in order: %+v", p.Markers)
	}
	if m2.Title != "Cafe" || m2.Category != model.CategoryShop {
		t.Fatalf("explicit fields lost: %+v", m2)
	}
}

func TestAdd_InvalidCoordinates(t *testing.T) {
	s := newStoreForTest(&model.Project{})
	bad := []Candidate{
		{Lat: 91}, {Lat: -91}, {Lng: 181}, {Lng: -181},
		{Lat: math.NaN()}, {Lng: math.Inf(1)},
	}
	for _, c := range bad {
		if _, err := s.Add(c); !errors.Is(err, model.ErrInvalidCoordinate) {
			t.Fatalf("Add(%+v) err=%v want ErrInvalidCoordinate", c, err)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("invalid adds must not mutate, len=%d", s.Len())
	}
}

func TestAdd_RejectsDuplicateWithinThreshold(t *testing.T) {
	s := newStoreForTest(&model.Project{})
	first, err := s.Add(Candidate{Lat: 59.3293, Lng: 18.0686})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	// ~3.3m north
	_, err = s.Add(Candidate{Lat: 59.32933, Lng: 18.0686})
	var de *model.DuplicateError
	if !errors.As(err, &de) || !errors.Is(err, model.ErrDuplicateRejected) {
		t.Fatalf("err=%v want DuplicateError", err)
	}
	if de.Existing.ID != first.ID || de.DistanceMeters > DefaultThresholdM {
		t.Fatalf("unexpected duplicate details: %+v", de)
	}
	if s.Len() != 1 {
		t.Fatalf("duplicate must not mutate, len=%d", s.Len())
	}

	// ~11m north is fine
	if _, err := s.Add(Candidate{Lat: 59.3294, Lng: 18.0686}); err != nil {
		t.Fatalf("Add 11m away: %v", err)
	}
}

func TestAdd_IndexedMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	indexed := NewStore(&model.Project{}, Options{Mapper: h3mapper.New(), NewID: seqIDs()})
	brute := NewStore(&model.Project{}, Options{NewID: seqIDs()})

	for i := 0; i < 400; i++ {
		// cluster points inside a ~60m square so that collisions happen
		lat := 59.3293 + rng.Float64()*0.0005
		lng := 18.0686 + rng.Float64()*0.001
		_, errA := indexed.Add(Candidate{Lat: lat, Lng: lng})
		_, errB := brute.Add(Candidate{Lat: lat, Lng: lng})
		if (errA == nil) != (errB == nil) {
			t.Fatalf("point %d (%v,%v): indexed err=%v brute err=%v", i, lat, lng, errA, errB)
		}
	}
	if indexed.Len() != brute.Len() {
		t.Fatalf("indexed len=%d brute len=%d", indexed.Len(), brute.Len())
	}
	all := indexed.All()
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			if d := geo.DistanceMeters(all[i].Lat, all[i].Lng, all[j].Lat, all[j].Lng); d <= DefaultThresholdM {
				t.Fatalf("markers %s and %s only %.2fm apart", all[i].ID, all[j].ID, d)
			}
		}
	}
}

func TestAdd_LargeThresholdFallsBackToScan(t *testing.T) {
	s := NewStore(&model.Project{}, Options{ThresholdMeters: 500, Mapper: h3mapper.New(), NewID: seqIDs()})
	if _, err := s.Add(Candidate{Lat: 59.3293, Lng: 18.0686}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// ~330m away, beyond any k=1 ring at res 10
	if _, err := s.Add(Candidate{Lat: 59.3323, Lng: 18.0686}); !errors.Is(err, model.ErrDuplicateRejected) {
		t.Fatalf("err=%v want duplicate at 500m threshold", err)
	}
}

func TestUpdate_FieldsAndNoOp(t *testing.T) {
	s := newStoreForTest(&model.Project{})
	m, _ := s.Add(Candidate{Lat: 10, Lng: 10})

	ok, err := s.Update(m.ID, FieldTitle, "Library")
	if err != nil || !ok {
		t.Fatalf("Update title: ok=%v err=%v", ok, err)
	}
	if _, err := s.Update(m.ID, FieldDescription, "Quiet place"); err != nil {
		t.Fatalf("Update description: %v", err)
	}
	if _, err := s.Update(m.ID, FieldCategory, "college"); err != nil {
		t.Fatalf("Update category: %v", err)
	}
	got, _ := s.Get(m.ID)
	if got.Title != "Library" || got.Description != "Quiet place" || got.Category != model.CategoryCollege {
		t.Fatalf("unexpected marker after update: %+v", got)
	}
	if got.Lat != 10 || got.Lng != 10 {
		t.Fatalf("coordinates must be untouched: %+v", got)
	}

	ok, err = s.Update("missing", FieldTitle, "x")
	if ok || err != nil {
		t.Fatalf("missing id must be a no-op, ok=%v err=%v", ok, err)
	}
	if _, err := s.Update(m.ID, FieldCategory, "Museum"); !errors.Is(err, model.ErrInvalidField) {
		t.Fatalf("unknown category err=%v want ErrInvalidField", err)
	}
	if _, err := s.Update(m.ID, Field("lat"), "1"); !errors.Is(err, model.ErrInvalidField) {
		t.Fatalf("coordinate edit err=%v want ErrInvalidField", err)
	}
}

func TestAttachImage_OverwritesAndCopies(t *testing.T) {
	s := newStoreForTest(&model.Project{})
	m, _ := s.Add(Candidate{Lat: 1, Lng: 1})

	data := []byte{1, 2, 3}
	if !s.AttachImage(m.ID, model.Image{MediaType: "image/png", Data: data}) {
		t.Fatalf("AttachImage returned false")
	}
	data[0] = 9
	if !s.AttachImage(m.ID, model.Image{MediaType: "image/jpeg", Data: []byte{4}}) {
		t.Fatalf("second AttachImage returned false")
	}
	got, _ := s.Get(m.ID)
	if got.Image == nil || got.Image.MediaType != "image/jpeg" || len(got.Image.Data) != 1 {
		t.Fatalf("image not overwritten: %+v", got.Image)
	}
	if s.AttachImage("missing", model.Image{}) {
		t.Fatalf("missing id must report false")
	}
}

func TestRemove_ReindexesForDuplicates(t *testing.T) {
	s := newStoreForTest(&model.Project{})
	m, _ := s.Add(Candidate{Lat: 20, Lng: 20})
	if !s.Remove(m.ID) {
		t.Fatalf("Remove returned false")
	}
	if s.Remove(m.ID) {
		t.Fatalf("second Remove must be a no-op")
	}
	if _, err := s.Add(Candidate{Lat: 20, Lng: 20}); err != nil {
		t.Fatalf("re-adding at a removed marker's spot: %v", err)
	}
}

func TestImportBatch_DuplicatesAgainstExistingAndBatch(t *testing.T) {
	p := &model.Project{}
	s := newStoreForTest(p)
	if _, err := s.Add(Candidate{Lat: 40, Lng: -3}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	added, dups := s.ImportBatch([]Candidate{
		{Lat: 40, Lng: -3},       // existing
		{Lat: 41, Lng: -3},       // ok
		{Lat: 41.00001, Lng: -3}, // same batch, ~1m
		{Lat: 42, Lng: -3, Title: ptr("x")},
	})
	if len(added) != 2 {
		t.Fatalf("added=%d want 2", len(added))
	}
	if fmt.Sprint(dups) != "[0 2]" {
		t.Fatalf("dups=%v want [0 2]", dups)
	}
	if len(p.Markers) != 3 {
		t.Fatalf("project markers=%d want 3", len(p.Markers))
	}
	if p.Markers[2].Title != "x" {
		t.Fatalf("batch order not preserved: %+v", p.Markers)
	}
	// the committed batch participates in later duplicate checks
	if _, err := s.Add(Candidate{Lat: 42, Lng: -3}); !errors.Is(err, model.ErrDuplicateRejected) {
		t.Fatalf("err=%v want duplicate against imported marker", err)
	}
}

func TestBind_SwitchesProjects(t *testing.T) {
	a := &model.Project{Name: "a"}
	b := &model.Project{Name: "b"}
	s := newStoreForTest(a)
	_, _ = s.Add(Candidate{Lat: 5, Lng: 5})

	s.Bind(b)
	if s.Len() != 0 {
		t.Fatalf("bound project b should be empty")
	}
	if _, err := s.Add(Candidate{Lat: 5, Lng: 5}); err != nil {
		t.Fatalf("projects must not share duplicate state: %v", err)
	}
	if len(a.Markers) != 1 || len(b.Markers) != 1 {
		t.Fatalf("a=%d b=%d want 1/1", len(a.Markers), len(b.Markers))
	}
}
