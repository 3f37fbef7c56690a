// Package httpapi exposes the workspace over JSON/HTTP.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
	"github.com/mohammed-shakir/mapnotes/internal/markers"
	"github.com/mohammed-shakir/mapnotes/internal/report"
	"github.com/mohammed-shakir/mapnotes/internal/workspace"
)

type Handler struct {
	ws        *workspace.Workspace
	log       *slog.Logger
	maxCSV    int64
	renderers map[string]report.Renderer
}

func New(ws *workspace.Workspace, log *slog.Logger, maxCSVBytes int64) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if maxCSVBytes <= 0 {
		maxCSVBytes = 10 << 20
	}
	return &Handler{
		ws:     ws,
		log:    log,
		maxCSV: maxCSVBytes,
		renderers: map[string]report.Renderer{
			"json":    report.JSONRenderer{},
			"geojson": report.GeoJSONRenderer{},
		},
	}
}

// Routes mounts the API under r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", h.listProjects)
		r.Post("/projects", h.createProject)
		r.Patch("/projects/{key}", h.renameProject)
		r.Delete("/projects/{key}", h.deleteProject)
		r.Post("/projects/{key}/activate", h.activateProject)

		r.Get("/markers", h.listMarkers)
		r.Post("/markers", h.addMarker)
		r.Patch("/markers/{id}", h.updateMarker)
		r.Delete("/markers/{id}", h.removeMarker)
		r.Put("/markers/{id}/image", h.putImage)

		r.Get("/shapes", h.listShapes)
		r.Put("/shapes", h.replaceShapes)

		r.Get("/stats/categories", h.categoryStats)
		r.Get("/export/csv", h.exportCSV)
		r.Post("/import/csv", h.importCSV)
		r.Get("/export/geojson", h.exportGeoJSON)
		r.Get("/report", h.renderReport)
	})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %w", model.ErrInvalidField, err)
	}
	return nil
}

type nameBody struct {
	Name string `json:"name"`
}

func (h *Handler) listProjects(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ws.Projects())
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	key, err := h.ws.CreateProject(r.Context(), body.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (h *Handler) renameProject(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.ws.RenameProject(r.Context(), chi.URLParam(r, "key"), body.Name); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteProject needs ?confirm=true; the prompt lives in the client.
func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); !ok {
		writeError(w, r, http.StatusBadRequest, "confirmation_required", "deleting a project requires confirm=true")
		return
	}
	if err := h.ws.DeleteProject(r.Context(), chi.URLParam(r, "key")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) activateProject(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.SwitchProject(r.Context(), chi.URLParam(r, "key")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listMarkers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.ws.Visible(q.Get("q"), q.Get("category")))
}

type markerBody struct {
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	FromSearchUI bool     `json:"from_search_ui"`
}

// addMarker places a default marker for a bare click, or a described marker
// when any optional field is set.
func (h *Handler) addMarker(w http.ResponseWriter, r *http.Request) {
	var body markerBody
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	if body.Lat == nil || body.Lng == nil {
		h.fail(w, r, fmt.Errorf("%w: lat and lng are required", model.ErrInvalidCoordinate))
		return
	}

	if body.Title == nil && body.Description == nil && body.Category == nil {
		m, placed, err := h.ws.PlaceMarker(r.Context(), workspace.Click{
			Lat: *body.Lat, Lng: *body.Lng, FromSearchUI: body.FromSearchUI,
		})
		switch {
		case err != nil:
			h.fail(w, r, err)
		case !placed:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusCreated, m)
		}
		return
	}

	c := markers.Candidate{Lat: *body.Lat, Lng: *body.Lng, Title: body.Title, Description: body.Description}
	if body.Category != nil {
		cat, ok := model.ParseCategory(*body.Category)
		if !ok {
			h.fail(w, r, fmt.Errorf("%w: unknown category %q", model.ErrInvalidField, *body.Category))
			return
		}
		c.Category = &cat
	}
	m, err := h.ws.AddMarker(r.Context(), c)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

type updateBody struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *Handler) updateMarker(w http.ResponseWriter, r *http.Request) {
	var body updateBody
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	ok, err := h.ws.UpdateMarker(r.Context(), id, body.Field, body.Value)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "not_found", "marker not found")
		return
	}
	m, _ := h.ws.Marker(id)
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) removeMarker(w http.ResponseWriter, r *http.Request) {
	ok, err := h.ws.RemoveMarker(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "not_found", "marker not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) putImage(w http.ResponseWriter, r *http.Request) {
	ok, err := h.ws.AttachImage(r.Context(), chi.URLParam(r, "id"), r.Body, r.Header.Get("Content-Type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "not_found", "marker not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listShapes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ws.Shapes())
}

// replaceShapes takes the drawing tool's full geometry list; ?event= names
// the change that produced it.
func (h *Handler) replaceShapes(w http.ResponseWriter, r *http.Request) {
	ev, err := workspace.ParseShapeEvent(r.URL.Query().Get("event"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var list []model.Shape
	if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
		h.fail(w, r, fmt.Errorf("%w: shapes body: %w", model.ErrInvalidGeometry, err))
		return
	}
	if err := h.ws.ReplaceShapes(r.Context(), ev, list); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) categoryStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ws.Breakdown())
}

func (h *Handler) exportCSV(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="markers.csv"`)
	_, _ = w.Write([]byte(h.ws.ExportCSV()))
}

type importResponse struct {
	Imported      int                    `json:"imported"`
	Errors        []model.ImportRowError `json:"errors"`
	DisplayErrors []string               `json:"display_errors"`
	HiddenErrors  int                    `json:"hidden_errors"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxCSV)
	res, err := h.ws.ImportCSV(r.Context(), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errs := res.Errors
	if errs == nil {
		errs = []model.ImportRowError{}
	}
	writeJSON(w, http.StatusOK, importResponse{
		Imported:      res.Imported,
		Errors:        errs,
		DisplayErrors: res.DisplayErrors(),
		HiddenErrors:  res.HiddenErrors(),
	})
}

func (h *Handler) exportGeoJSON(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, report.GeoJSONRenderer{})
}

func (h *Handler) renderReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	rd, ok := h.renderers[format]
	if !ok {
		writeError(w, r, http.StatusBadRequest, "bad_request", fmt.Sprintf("unsupported report format %q", format))
		return
	}
	h.render(w, r, rd)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, rd report.Renderer) {
	out, err := h.ws.Render(r.Context(), rd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", rd.ContentType())
	_, _ = w.Write(out)
}
