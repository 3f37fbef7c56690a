// Package markers keeps the active project's ordered marker list and rejects
// placements that land on top of an existing marker.
package markers

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/mohammed-shakir/mapnotes/internal/core/geo"
	"github.com/mohammed-shakir/mapnotes/internal/core/model"
	"github.com/mohammed-shakir/mapnotes/internal/mapper"
)

// Candidate is a marker that has not been placed yet. Nil fields take the
// store defaults.
type Candidate struct {
	Lat         float64
	Lng         float64
	Title       *string
	Description *string
	Category    *model.Category
	Image       *model.Image
}

type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldCategory    Field = "category"
)

func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldTitle, FieldDescription, FieldCategory:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q is not editable", model.ErrInvalidField, s)
	}
}

type Options struct {
	ThresholdMeters float64
	Mapper          mapper.Interface
	NewID           func() string
}

// Store is a view over the marker slice of one project; the project
// registry owns the slice.
type Store struct {
	project *model.Project
	opts    Options
	dd      *deduper
}

func NewStore(p *model.Project, opts Options) *Store {
	if opts.ThresholdMeters <= 0 {
		opts.ThresholdMeters = DefaultThresholdM
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	s := &Store{opts: opts}
	s.Bind(p)
	return s
}

// Bind points the store at another project's markers.
func (s *Store) Bind(p *model.Project) {
	if p == nil {
		p = &model.Project{}
	}
	s.project = p
	s.reindex()
}

func (s *Store) reindex() {
	s.dd = newDeduper(s.project.Markers, s.opts.ThresholdMeters, s.opts.Mapper)
}

func (s *Store) Len() int { return len(s.project.Markers) }

// All returns a copy of the markers in insertion order.
func (s *Store) All() []model.Marker {
	return slices.Clone(s.project.Markers)
}

func (s *Store) Get(id string) (model.Marker, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.project.Markers[i], true
	}
	return model.Marker{}, false
}

// Add validates, rejects duplicates within the threshold and appends.
func (s *Store) Add(c Candidate) (model.Marker, error) {
	if err := geo.ValidateLatLng(c.Lat, c.Lng); err != nil {
		return model.Marker{}, err
	}
	if near, dist, ok := s.dd.nearest(c.Lat, c.Lng); ok {
		return model.Marker{}, &model.DuplicateError{Existing: near, DistanceMeters: dist}
	}
	m := s.build(c)
	s.project.Markers = append(s.project.Markers, m)
	s.dd.insert(m)
	return m, nil
}

// ImportBatch checks every candidate against existing markers and earlier
// accepted candidates, then commits the accepted ones together. Candidates
// must carry validated coordinates. The returned indexes point at candidates
// rejected as duplicates.
func (s *Store) ImportBatch(cands []Candidate) ([]model.Marker, []int) {
	dd := newDeduper(s.project.Markers, s.opts.ThresholdMeters, s.opts.Mapper)
	var (
		added []model.Marker
		dups  []int
	)
	for i, c := range cands {
		if _, _, ok := dd.nearest(c.Lat, c.Lng); ok {
			dups = append(dups, i)
			continue
		}
		m := s.build(c)
		dd.insert(m)
		added = append(added, m)
	}
	if len(added) > 0 {
		s.project.Markers = append(s.project.Markers, added...)
		s.dd = dd
	}
	return added, dups
}

// Update replaces one editable field. It reports false when id is unknown.
func (s *Store) Update(id string, f Field, value string) (bool, error) {
	if _, err := ParseField(string(f)); err != nil {
		return false, err
	}
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	m := &s.project.Markers[i]
	switch f {
	case FieldTitle:
		m.Title = value
	case FieldDescription:
		m.Description = value
	case FieldCategory:
		c, ok := model.ParseCategory(value)
		if !ok {
			return false, fmt.Errorf("%w: unknown category %q", model.ErrInvalidField, value)
		}
		m.Category = c
	}
	return true, nil
}

// AttachImage overwrites the marker image. It reports false when id is unknown.
func (s *Store) AttachImage(id string, img model.Image) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.project.Markers[i].Image = &model.Image{
		MediaType: img.MediaType,
		Data:      slices.Clone(img.Data),
	}
	return true
}

// Remove deletes the marker. It reports false when id is unknown.
func (s *Store) Remove(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.project.Markers = slices.Delete(s.project.Markers, i, i+1)
	s.reindex()
	return true
}

func (s *Store) build(c Candidate) model.Marker {
	m := model.Marker{
		ID:       s.opts.NewID(),
		Lat:      c.Lat,
		Lng:      c.Lng,
		Title:    model.DefaultMarkerTitle,
		Category: model.CategoryGeneral,
	}
	if c.Title != nil {
		m.Title = *c.Title
	}
	if c.Description != nil {
		m.Description = *c.Description
	}
	if c.Category != nil {
		m.Category = c.Category.Effective()
	}
	if c.Image != nil {
		m.Image = &model.Image{MediaType: c.Image.MediaType, Data: slices.Clone(c.Image.Data)}
	}
	return m
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.project.Markers, func(m model.Marker) bool { return m.ID == id })
}
