// Package report builds read-only project snapshots for export renderers and
// caches what they produce.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/mapnotes/internal/aggregate"
	"github.com/mohammed-shakir/mapnotes/internal/core/model"
	"github.com/mohammed-shakir/mapnotes/internal/core/observability"
)

type Snapshot struct {
	ProjectKey  string            `json:"project_key"`
	ProjectName string            `json:"project_name"`
	GeneratedAt time.Time         `json:"generated_at"`
	Markers     []model.Marker    `json:"markers"`
	Shapes      []model.Shape     `json:"shapes"`
	Summary     aggregate.Summary `json:"summary"`
}

// Renderer turns a snapshot into an export document. Implementations must
// not retain the snapshot.
type Renderer interface {
	Format() string
	ContentType() string
	Render(ctx context.Context, s Snapshot) ([]byte, error)
}

// Timeless is implemented by renderers whose output ignores
// Snapshot.GeneratedAt. Their renders are reused across snapshots of equal
// content; every other renderer is cached per generation time.
type Timeless interface {
	Timeless()
}

type Builder struct {
	cache *lru.Cache[uint64, []byte]
	now   func() time.Time
}

func NewBuilder(cacheSize int) *Builder {
	if cacheSize <= 0 {
		cacheSize = 32
	}
	c, _ := lru.New[uint64, []byte](cacheSize)
	return &Builder{cache: c, now: time.Now}
}

// Snapshot copies the project so later mutations do not leak into renders.
func (b *Builder) Snapshot(key string, p *model.Project) Snapshot {
	markers := slices.Clone(p.Markers)
	shapes := slices.Clone(p.Shapes)
	if markers == nil {
		markers = []model.Marker{}
	}
	if shapes == nil {
		shapes = []model.Shape{}
	}
	return Snapshot{
		ProjectKey:  key,
		ProjectName: p.Name,
		GeneratedAt: b.now().UTC(),
		Markers:     markers,
		Shapes:      shapes,
		Summary:     aggregate.Summarize(markers, shapes),
	}
}

// Render returns the cached document for an identical snapshot and format,
// or asks r to produce one. Renderer failures are external.
func (b *Builder) Render(ctx context.Context, s Snapshot, r Renderer) ([]byte, error) {
	_, timeless := r.(Timeless)
	fp, err := fingerprint(s, r.Format(), timeless)
	if err != nil {
		return nil, fmt.Errorf("fingerprint snapshot: %w", err)
	}
	if out, ok := b.cache.Get(fp); ok {
		observability.ObserveReportRender(r.Format(), true)
		return out, nil
	}
	out, err := r.Render(ctx, s)
	if err != nil {
		return nil, model.External("render "+r.Format(), err)
	}
	b.cache.Add(fp, out)
	observability.ObserveReportRender(r.Format(), false)
	return out, nil
}

// fingerprint hashes the snapshot content, and its generation time unless
// the output does not carry it.
func fingerprint(s Snapshot, format string, timeless bool) (uint64, error) {
	if timeless {
		s.GeneratedAt = time.Time{}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return 0, err
	}
	d := xxhash.New()
	_, _ = d.WriteString(format)
	_, _ = d.WriteString(strconv.Itoa(len(raw)))
	_, _ = d.Write(raw)
	return d.Sum64(), nil
}
