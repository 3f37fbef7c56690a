// Package events publishes change notifications for the active workspace.
// Publishing never blocks a mutation.
package events

import (
	"time"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
)

type Type string

const (
	MarkerAdded     Type = "marker.added"
	MarkerUpdated   Type = "marker.updated"
	MarkerRemoved   Type = "marker.removed"
	MarkerImage     Type = "marker.image"
	ShapesReplaced  Type = "shapes.replaced"
	FocusBounds     Type = "focus.bounds"
	ProjectCreated  Type = "project.created"
	ProjectRenamed  Type = "project.renamed"
	ProjectDeleted  Type = "project.deleted"
	ProjectSwitched Type = "project.switched"
	MarkersImported Type = "markers.imported"
)

type Event struct {
	Type     Type          `json:"type"`
	Project  string        `json:"project"`
	MarkerID string        `json:"marker_id,omitempty"`
	Field    string        `json:"field,omitempty"`
	Count    int           `json:"count,omitempty"`
	Bounds   *model.Bounds `json:"bounds,omitempty"`
	TS       time.Time     `json:"ts"`
}

type Publisher interface {
	Publish(ev Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(Event) {}
