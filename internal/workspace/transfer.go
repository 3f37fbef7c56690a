package workspace

import (
	"cmp"
	"context"
	"io"
	"slices"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
	"github.com/mohammed-shakir/mapnotes/internal/core/observability"
	"github.com/mohammed-shakir/mapnotes/internal/csvcodec"
	"github.com/mohammed-shakir/mapnotes/internal/events"
	"github.com/mohammed-shakir/mapnotes/internal/markers"
	"github.com/mohammed-shakir/mapnotes/internal/report"
)

// ImportResult summarises a CSV import. Errors are ordered by row.
type ImportResult struct {
	Imported int                    `json:"imported"`
	Errors   []model.ImportRowError `json:"errors"`

	errCap int
}

// DisplayErrors returns at most the configured number of messages.
func (r ImportResult) DisplayErrors() []string {
	n := min(len(r.Errors), r.errCap)
	out := make([]string, 0, n)
	for _, e := range r.Errors[:n] {
		out = append(out, e.Error())
	}
	return out
}

// HiddenErrors is how many errors DisplayErrors leaves out.
func (r ImportResult) HiddenErrors() int {
	return max(0, len(r.Errors)-r.errCap)
}

// ImportCSV reads a CSV file and adds every valid, non-duplicate row in one
// commit. Only a read failure or missing coordinate columns fail the call.
func (w *Workspace) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return ImportResult{}, model.External("read csv", err)
	}
	dec, err := csvcodec.Decode(string(raw))
	if err != nil {
		return ImportResult{}, err
	}

	cands := make([]markers.Candidate, len(dec.Records))
	for i, rec := range dec.Records {
		cat := rec.Category
		cands[i] = markers.Candidate{
			Lat:         rec.Lat,
			Lng:         rec.Lng,
			Title:       rec.Title,
			Description: rec.Description,
			Category:    &cat,
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	ctx = w.ctx(ctx)

	added, dups := w.markers.ImportBatch(cands)
	res := ImportResult{Imported: len(added), Errors: dec.Errors, errCap: w.errCap}
	for _, i := range dups {
		res.Errors = append(res.Errors, model.ImportRowError{Row: dec.Records[i].Row, Reason: model.ReasonDuplicate})
	}
	slices.SortStableFunc(res.Errors, func(a, b model.ImportRowError) int { return cmp.Compare(a.Row, b.Row) })

	observability.AddImportRows("imported", res.Imported)
	observability.AddImportRows("failed", len(res.Errors))
	w.log.InfoContext(ctx, "csv import finished", "imported", res.Imported, "errors", len(res.Errors))

	if res.Imported == 0 {
		return res, nil
	}
	if err := w.save(ctx); err != nil {
		return res, err
	}
	w.publish(events.Event{Type: events.MarkersImported, Count: res.Imported})
	return res, nil
}

// ExportCSV encodes the active project's markers in list order.
func (w *Workspace) ExportCSV() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return csvcodec.Encode(w.markers.All())
}

// Snapshot copies the active project for export collaborators.
func (w *Workspace) Snapshot() report.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	key, p := w.reg.Active()
	return w.reports.Snapshot(key, p)
}

// Render hands a snapshot to r. The lock is released before rendering.
func (w *Workspace) Render(ctx context.Context, r report.Renderer) ([]byte, error) {
	s := w.Snapshot()
	return w.reports.Render(ctx, s, r)
}
