package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
	"github.com/mohammed-shakir/mapnotes/internal/events"
	"github.com/mohammed-shakir/mapnotes/internal/shapes"
)

// ShapeEvent is the drawing-tool change that produced a geometry list.
type ShapeEvent string

const (
	ShapeCreated ShapeEvent = "created"
	ShapeEdited  ShapeEvent = "edited"
	ShapeDeleted ShapeEvent = "deleted"
)

func ParseShapeEvent(s string) (ShapeEvent, error) {
	switch e := ShapeEvent(strings.ToLower(strings.TrimSpace(s))); e {
	case ShapeCreated, ShapeEdited, ShapeDeleted:
		return e, nil
	case "":
		return ShapeEdited, nil
	default:
		return "", fmt.Errorf("%w: unknown shape event %q", model.ErrInvalidField, s)
	}
}

// ReplaceShapes rebuilds the shape list from the drawing tool's full state.
// After a creation the bounds of the newest (last) shape are published as a
// focus request.
func (w *Workspace) ReplaceShapes(ctx context.Context, ev ShapeEvent, list []model.Shape) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	ctx = w.ctx(ctx)

	if err := w.shapes.ReplaceAll(list); err != nil {
		w.log.DebugContext(ctx, "shape list rejected", "event", ev, "err", err)
		return err
	}
	if err := w.save(ctx); err != nil {
		return err
	}
	w.publish(events.Event{Type: events.ShapesReplaced, Count: len(list)})

	if ev == ShapeCreated && len(list) > 0 {
		b, err := shapes.Bounds(list[len(list)-1])
		if err != nil {
			// validated above
			return nil
		}
		w.publish(events.Event{Type: events.FocusBounds, Bounds: &b})
	}
	return nil
}

func (w *Workspace) Shapes() []model.Shape {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shapes.All()
}
