package workspace

import (
	"context"
	"errors"
	"io"

	"github.com/mohammed-shakir/mapnotes/internal/aggregate"
	"github.com/mohammed-shakir/mapnotes/internal/core/model"
	"github.com/mohammed-shakir/mapnotes/internal/core/observability"
	"github.com/mohammed-shakir/mapnotes/internal/events"
	"github.com/mohammed-shakir/mapnotes/internal/filter"
	"github.com/mohammed-shakir/mapnotes/internal/markers"
)

var ErrImageTooLarge = errors.New("image exceeds size limit")

// Click is a map click from the rendering layer.
type Click struct {
	Lat          float64
	Lng          float64
	FromSearchUI bool
}

// PlaceMarker adds a default marker at a click. Clicks inside the search UI
// are ignored and report false.
func (w *Workspace) PlaceMarker(ctx context.Context, c Click) (model.Marker, bool, error) {
	if c.FromSearchUI {
		return model.Marker{}, false, nil
	}
	m, err := w.AddMarker(ctx, markers.Candidate{Lat: c.Lat, Lng: c.Lng})
	if err != nil {
		return model.Marker{}, false, err
	}
	return m, true, nil
}

func (w *Workspace) AddMarker(ctx context.Context, c markers.Candidate) (model.Marker, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ctx = w.ctx(ctx)

	m, err := w.markers.Add(c)
	if err != nil {
		var dup *model.DuplicateError
		switch {
		case errors.As(err, &dup):
			observability.ObserveMarkerOp("add", "duplicate")
			w.log.DebugContext(ctx, "duplicate marker rejected",
				"existing", dup.Existing.ID, "distance_m", dup.DistanceMeters)
		default:
			observability.ObserveMarkerOp("add", "invalid")
		}
		return model.Marker{}, err
	}
	observability.ObserveMarkerOp("add", "ok")
	if err := w.save(ctx); err != nil {
		return m, err
	}
	w.publish(events.Event{Type: events.MarkerAdded, MarkerID: m.ID})
	return m, nil
}

// UpdateMarker edits title, description or category. Unknown ids report
// false and change nothing.
func (w *Workspace) UpdateMarker(ctx context.Context, id, field, value string) (bool, error) {
	f, err := markers.ParseField(field)
	if err != nil {
		return false, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	ok, err := w.markers.Update(id, f, value)
	if err != nil || !ok {
		observability.ObserveMarkerOp("update", outcome(ok, err))
		return ok, err
	}
	observability.ObserveMarkerOp("update", "ok")
	if err := w.save(w.ctx(ctx)); err != nil {
		return true, err
	}
	w.publish(events.Event{Type: events.MarkerUpdated, MarkerID: id, Field: string(f)})
	return true, nil
}

// AttachImage reads an image and stores it on the marker. A failed or
// oversized read leaves the marker untouched.
func (w *Workspace) AttachImage(ctx context.Context, id string, r io.Reader, mediaType string) (bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, w.maxImage+1))
	if err != nil {
		return false, model.External("read image", err)
	}
	if int64(len(data)) > w.maxImage {
		return false, model.External("read image", ErrImageTooLarge)
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.markers.AttachImage(id, model.Image{MediaType: mediaType, Data: data}) {
		observability.ObserveMarkerOp("image", "not_found")
		return false, nil
	}
	observability.ObserveMarkerOp("image", "ok")
	if err := w.save(w.ctx(ctx)); err != nil {
		return true, err
	}
	w.publish(events.Event{Type: events.MarkerImage, MarkerID: id})
	return true, nil
}

func (w *Workspace) RemoveMarker(ctx context.Context, id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.markers.Remove(id) {
		observability.ObserveMarkerOp("remove", "not_found")
		return false, nil
	}
	observability.ObserveMarkerOp("remove", "ok")
	if err := w.save(w.ctx(ctx)); err != nil {
		return true, err
	}
	w.publish(events.Event{Type: events.MarkerRemoved, MarkerID: id})
	return true, nil
}

func (w *Workspace) Marker(id string) (model.Marker, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.markers.Get(id)
}

func (w *Workspace) Markers() []model.Marker {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.markers.All()
}

// Visible applies the search box and category selector.
func (w *Workspace) Visible(query, category string) []model.Marker {
	w.mu.Lock()
	defer w.mu.Unlock()
	return filter.VisibleMarkers(w.markers.All(), query, category)
}

func (w *Workspace) CategoryCounts() map[model.Category]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return aggregate.CategoryCounts(w.markers.All())
}

func (w *Workspace) Breakdown() []aggregate.CategoryCount {
	w.mu.Lock()
	defer w.mu.Unlock()
	return aggregate.Breakdown(w.markers.All())
}

func outcome(found bool, err error) string {
	switch {
	case err != nil:
		return "invalid"
	case !found:
		return "not_found"
	default:
		return "ok"
	}
}
