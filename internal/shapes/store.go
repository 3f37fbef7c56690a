// Package shapes holds the drawn geometries of the active project. The list
// is rebuilt wholesale from the drawing tool's live state on every change.
package shapes

import (
	"fmt"
	"slices"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
)

type Store struct {
	project *model.Project
}

func NewStore(p *model.Project) *Store {
	s := &Store{}
	s.Bind(p)
	return s
}

func (s *Store) Bind(p *model.Project) {
	if p == nil {
		p = &model.Project{}
	}
	s.project = p
}

func (s *Store) Len() int { return len(s.project.Shapes) }

func (s *Store) All() []model.Shape {
	return slices.Clone(s.project.Shapes)
}

// ReplaceAll swaps in the full geometry list. Nothing changes if any shape
// is invalid.
func (s *Store) ReplaceAll(shapes []model.Shape) error {
	next := make([]model.Shape, 0, len(shapes))
	for i, sh := range shapes {
		if err := Validate(sh); err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
		if sh.Type == "" {
			sh.Type = "Feature"
		}
		next = append(next, sh)
	}
	s.project.Shapes = next
	return nil
}
