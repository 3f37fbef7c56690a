// Package workspace is the single owner of mutable map state. Every
// operation runs under one lock, and each successful mutation is saved
// through the project registry before events go out.
package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mohammed-shakir/mapnotes/internal/events"
	"github.com/mohammed-shakir/mapnotes/internal/logger"
	"github.com/mohammed-shakir/mapnotes/internal/markers"
	"github.com/mohammed-shakir/mapnotes/internal/projects"
	"github.com/mohammed-shakir/mapnotes/internal/report"
	"github.com/mohammed-shakir/mapnotes/internal/shapes"
)

const (
	DefaultMaxImageBytes  = 5 << 20
	DefaultImportErrorCap = 20
	DefaultSaveTimeout    = 5 * time.Second
)

type Options struct {
	Registry       *projects.Registry
	Publisher      events.Publisher
	Reports        *report.Builder
	Markers        markers.Options
	MaxImageBytes  int64
	ImportErrorCap int
	// SaveTimeout bounds each registry save. Saves ignore caller
	// cancellation so an accepted mutation is always written.
	SaveTimeout    time.Duration
	Logger         *slog.Logger
	Now            func() time.Time
}

type Workspace struct {
	mu      sync.Mutex
	reg     *projects.Registry
	markers *markers.Store
	shapes  *shapes.Store
	pub     events.Publisher
	reports *report.Builder
	log     *slog.Logger
	now     func() time.Time

	maxImage    int64
	errCap      int
	saveTimeout time.Duration
}

func New(opts Options) *Workspace {
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Reports == nil {
		opts.Reports = report.NewBuilder(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = DefaultMaxImageBytes
	}
	if opts.ImportErrorCap <= 0 {
		opts.ImportErrorCap = DefaultImportErrorCap
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = DefaultSaveTimeout
	}
	_, p := opts.Registry.Active()
	return &Workspace{
		reg:      opts.Registry,
		markers:  markers.NewStore(p, opts.Markers),
		shapes:   shapes.NewStore(p),
		pub:      opts.Publisher,
		reports:  opts.Reports,
		log:      opts.Logger.With("component", "workspace"),
		now:      opts.Now,
		maxImage: opts.MaxImageBytes,
		errCap:   opts.ImportErrorCap,

		saveTimeout: opts.SaveTimeout,
	}
}

// Load reads the stored projects and binds the stores to the active one.
func (w *Workspace) Load(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.reg.Load(ctx); err != nil {
		return err
	}
	w.rebind()
	return nil
}

// rebind points the stores at the active project. Callers hold mu.
func (w *Workspace) rebind() {
	_, p := w.reg.Active()
	w.markers.Bind(p)
	w.shapes.Bind(p)
}

func (w *Workspace) activeKey() string {
	k, _ := w.reg.Active()
	return k
}

// save persists the registry. Callers hold mu. The write outlives a
// cancelled caller, bounded by saveTimeout. The in-memory mutation is kept
// when storage fails; the next successful save writes it.
func (w *Workspace) save(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.saveTimeout)
	defer cancel()
	if err := w.reg.Save(ctx); err != nil {
		w.log.ErrorContext(ctx, "save projects failed", "err", err)
		return err
	}
	return nil
}

func (w *Workspace) publish(ev events.Event) {
	if ev.Project == "" {
		ev.Project = w.activeKey()
	}
	ev.TS = w.now().UTC()
	w.pub.Publish(ev)
}

func (w *Workspace) ctx(ctx context.Context) context.Context {
	return logger.WithProject(ctx, w.activeKey())
}

// Active returns the active project's key and name.
func (w *Workspace) Active() (string, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	k, p := w.reg.Active()
	return k, p.Name
}

func (w *Workspace) Projects() []projects.Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reg.List()
}

func (w *Workspace) CreateProject(ctx context.Context, name string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key, err := w.reg.Create(name)
	if err != nil {
		return "", err
	}
	w.rebind()
	ctx = w.ctx(ctx)
	w.log.InfoContext(ctx, "project created", "name", name)
	if err := w.save(ctx); err != nil {
		return key, err
	}
	w.publish(events.Event{Type: events.ProjectCreated, Project: key})
	return key, nil
}

func (w *Workspace) RenameProject(ctx context.Context, key, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.reg.Rename(key, name); err != nil {
		return err
	}
	if err := w.save(ctx); err != nil {
		return err
	}
	w.publish(events.Event{Type: events.ProjectRenamed, Project: key})
	return nil
}

// DeleteProject removes a project. Confirmation is the caller's concern.
func (w *Workspace) DeleteProject(ctx context.Context, key string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	wasActive := w.activeKey() == key
	if err := w.reg.Delete(key); err != nil {
		return err
	}
	w.rebind()
	w.log.InfoContext(w.ctx(ctx), "project deleted", "deleted", key)
	if err := w.save(ctx); err != nil {
		return err
	}
	w.publish(events.Event{Type: events.ProjectDeleted, Project: key})
	if wasActive {
		w.publish(events.Event{Type: events.ProjectSwitched})
	}
	return nil
}

func (w *Workspace) SwitchProject(ctx context.Context, key string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.reg.SwitchActive(key); err != nil {
		return err
	}
	w.rebind()
	w.publish(events.Event{Type: events.ProjectSwitched})
	return nil
}
