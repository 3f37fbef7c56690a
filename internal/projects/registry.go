// Package projects owns the set of named map projects and the one that is
// active. The registry is loaded and saved explicitly by its owner.
package projects

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
	"github.com/mohammed-shakir/mapnotes/internal/storage"
)

const DefaultStorageKey = "maps"

// Summary is the listing view of one project.
type Summary struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Markers int    `json:"markers"`
	Shapes  int    `json:"shapes"`
	Active  bool   `json:"active"`
}

type Option func(*Registry)

func WithStorageKey(k string) Option {
	return func(r *Registry) {
		if k != "" {
			r.storageKey = k
		}
	}
}

// WithKeyFunc replaces the project key generator.
func WithKeyFunc(f func() string) Option {
	return func(r *Registry) {
		if f != nil {
			r.newKey = f
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// Registry is not safe for concurrent use; the workspace serialises access.
type Registry struct {
	kv         storage.KV
	storageKey string
	newKey     func() string
	log        *slog.Logger

	order    []string
	projects map[string]*model.Project
	active   string
}

// New returns a registry holding only the default project.
func New(kv storage.KV, opts ...Option) *Registry {
	r := &Registry{
		kv:         kv,
		storageKey: DefaultStorageKey,
		newKey:     uuid.NewString,
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.order = []string{model.DefaultProjectKey}
	r.projects = map[string]*model.Project{
		model.DefaultProjectKey: newProject(model.DefaultProjectName),
	}
	r.active = model.DefaultProjectKey
}

func newProject(name string) *model.Project {
	return &model.Project{Name: name, Markers: []model.Marker{}, Shapes: []model.Shape{}}
}

// Create adds an empty project and makes it active.
func (r *Registry) Create(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.ErrEmptyName
	}
	key := r.newKey()
	for {
		if _, taken := r.projects[key]; !taken && key != "" {
			break
		}
		key = uuid.NewString()
	}
	r.projects[key] = newProject(name)
	r.order = append(r.order, key)
	r.active = key
	return key, nil
}

func (r *Registry) Rename(key, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ErrEmptyName
	}
	p, ok := r.projects[key]
	if !ok {
		return fmt.Errorf("%w: %q", model.ErrProjectNotFound, key)
	}
	p.Name = name
	return nil
}

// Delete removes a project. When it was active, the first remaining project
// in insertion order becomes active.
func (r *Registry) Delete(key string) error {
	if key == model.DefaultProjectKey {
		return model.ErrProtectedProject
	}
	if _, ok := r.projects[key]; !ok {
		return fmt.Errorf("%w: %q", model.ErrProjectNotFound, key)
	}
	delete(r.projects, key)
	r.order = slices.DeleteFunc(r.order, func(k string) bool { return k == key })
	if r.active == key {
		r.active = model.DefaultProjectKey
		if len(r.order) > 0 {
			r.active = r.order[0]
		}
	}
	return nil
}

func (r *Registry) SwitchActive(key string) error {
	if _, ok := r.projects[key]; !ok {
		return fmt.Errorf("%w: %q", model.ErrProjectNotFound, key)
	}
	r.active = key
	return nil
}

// Active returns the active key and its project. The pointer stays valid
// until the project is deleted or the registry reloaded.
func (r *Registry) Active() (string, *model.Project) {
	return r.active, r.projects[r.active]
}

func (r *Registry) Get(key string) (*model.Project, bool) {
	p, ok := r.projects[key]
	return p, ok
}

// List returns projects in insertion order.
func (r *Registry) List() []Summary {
	out := make([]Summary, 0, len(r.order))
	for _, k := range r.order {
		p := r.projects[k]
		out = append(out, Summary{
			Key:     k,
			Name:    p.Name,
			Markers: len(p.Markers),
			Shapes:  len(p.Shapes),
			Active:  k == r.active,
		})
	}
	return out
}

// Load replaces the in-memory state with the stored mapping. An absent or
// malformed entry leaves only the default project. Stored categories outside
// the enumeration load as General. The default project is active after a load.
func (r *Registry) Load(ctx context.Context) error {
	raw, ok, err := r.kv.Get(ctx, r.storageKey)
	if err != nil {
		return model.External("load projects", err)
	}
	r.reset()
	if !ok {
		r.log.InfoContext(ctx, "no stored projects, starting with default", "storage_key", r.storageKey)
		return nil
	}
	order, projects, err := decodeOrdered(raw)
	if err != nil {
		r.log.WarnContext(ctx, "stored projects are malformed, starting with default",
			"storage_key", r.storageKey, "err", err)
		return nil
	}
	for _, p := range projects {
		for i := range p.Markers {
			p.Markers[i].Category = p.Markers[i].Category.Effective()
		}
	}
	if _, ok := projects[model.DefaultProjectKey]; !ok {
		order = append([]string{model.DefaultProjectKey}, order...)
		projects[model.DefaultProjectKey] = newProject(model.DefaultProjectName)
	}
	r.order = order
	r.projects = projects
	r.active = model.DefaultProjectKey
	r.log.DebugContext(ctx, "projects loaded", "count", len(order))
	return nil
}

// Save overwrites the stored mapping with a full snapshot.
func (r *Registry) Save(ctx context.Context) error {
	raw, err := encodeOrdered(r.order, r.projects)
	if err != nil {
		return fmt.Errorf("encode projects: %w", err)
	}
	if err := r.kv.Put(ctx, r.storageKey, raw); err != nil {
		return model.External("save projects", err)
	}
	return nil
}
