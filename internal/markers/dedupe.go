package markers

import (
	"github.com/mohammed-shakir/mapnotes/internal/core/geo"
	"github.com/mohammed-shakir/mapnotes/internal/core/model"
	"github.com/mohammed-shakir/mapnotes/internal/mapper"
)

// A k=1 ring at res 10 is exhaustive only while the threshold stays well
// under the cell inradius.
const (
	indexRes          = 10
	maxIndexedMeters  = 25.0
	DefaultThresholdM = 5.0
)

// deduper answers "is anything within threshold of this point".
type deduper struct {
	threshold float64
	mapper    mapper.Interface
	markers   []model.Marker
	cells     map[string][]int
	indexed   bool
}

func newDeduper(existing []model.Marker, threshold float64, m mapper.Interface) *deduper {
	d := &deduper{
		threshold: threshold,
		mapper:    m,
		markers:   make([]model.Marker, 0, len(existing)),
		cells:     map[string][]int{},
		indexed:   m != nil && threshold <= maxIndexedMeters,
	}
	for _, mk := range existing {
		d.insert(mk)
	}
	return d
}

func (d *deduper) insert(mk model.Marker) {
	d.markers = append(d.markers, mk)
	if !d.indexed {
		return
	}
	cell, err := d.mapper.CellForPoint(mk.Lat, mk.Lng, indexRes)
	if err != nil {
		d.indexed = false
		return
	}
	d.cells[cell] = append(d.cells[cell], len(d.markers)-1)
}

// nearest returns the closest marker within threshold, if any.
func (d *deduper) nearest(lat, lng float64) (model.Marker, float64, bool) {
	if cand, ok := d.candidates(lat, lng); ok {
		return d.closest(lat, lng, cand)
	}
	all := make([]int, len(d.markers))
	for i := range all {
		all[i] = i
	}
	return d.closest(lat, lng, all)
}

func (d *deduper) candidates(lat, lng float64) ([]int, bool) {
	if !d.indexed {
		return nil, false
	}
	cell, err := d.mapper.CellForPoint(lat, lng, indexRes)
	if err != nil {
		return nil, false
	}
	ring, err := d.mapper.Neighborhood(cell, 1)
	if err != nil {
		return nil, false
	}
	var out []int
	for _, c := range ring {
		out = append(out, d.cells[c]...)
	}
	return out, true
}

func (d *deduper) closest(lat, lng float64, idx []int) (model.Marker, float64, bool) {
	var (
		best  model.Marker
		bestD float64
		found bool
	)
	for _, i := range idx {
		mk := d.markers[i]
		dist := geo.DistanceMeters(lat, lng, mk.Lat, mk.Lng)
		if dist <= d.threshold && (!found || dist < bestD) {
			best, bestD, found = mk, dist, true
		}
	}
	return best, bestD, found
}
