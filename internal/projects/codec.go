package projects

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
)

// encodeOrdered writes the mapping as a JSON object whose members follow
// order.
func encodeOrdered(order []string, projects map[string]*model.Project) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		p := *projects[k]
		if p.Markers == nil {
			p.Markers = []model.Marker{}
		}
		if p.Shapes == nil {
			p.Shapes = []model.Shape{}
		}
		pb, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(pb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeOrdered reads a JSON object of projects keeping member order. A
// repeated key keeps its first position and its last value.
func decodeOrdered(raw []byte) ([]string, map[string]*model.Project, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New("expected a JSON object")
	}

	var (
		order    []string
		projects = make(map[string]*model.Project)
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		var p model.Project
		if err := dec.Decode(&p); err != nil {
			return nil, nil, fmt.Errorf("project %q: %w", key, err)
		}
		if p.Markers == nil {
			p.Markers = []model.Marker{}
		}
		if p.Shapes == nil {
			p.Shapes = []model.Shape{}
		}
		if _, seen := projects[key]; !seen {
			order = append(order, key)
		}
		projects[key] = &p
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	if dec.More() {
		return nil, nil, errors.New("trailing data after object")
	}
	return order, projects, nil
}
