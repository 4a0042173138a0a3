package web

import (
	"net/http"
	"strconv"

	"github.com/hpungsan/glimpse/internal/config"
	"github.com/hpungsan/glimpse/internal/errors"
	"github.com/hpungsan/glimpse/internal/history"
	"github.com/hpungsan/glimpse/internal/screenshot"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	history  *history.History
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /screenshots — the capture gallery.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	limit := parseIntParam(r, "limit", history.DefaultListLimit)

	records, err := h.history.List(screenshot.Filter{Region: ptrString(region)}, limit)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Screenshots",
			Version: h.renderer.version,
			Nav:     "screenshots",
		},
		Records: records,
		Region:  region,
		Limit:   limit,
	})
}

// HandleSearch handles GET /screenshots/search — hybrid search over the store.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	region := r.URL.Query().Get("region")

	data := SearchPageData{
		PageData: PageData{
			Title:   "Search",
			Version: h.renderer.version,
			Nav:     "search",
		},
		Query:    query,
		Region:   region,
		HasQuery: query != "",
	}

	if query == "" {
		h.renderer.renderPage(w, r, "search", data)
		return
	}

	results, err := h.history.Combined(history.CombinedInput{
		Query:       query,
		Fingerprint: r.URL.Query().Get("fingerprint"),
		Region:      ptrString(region),
		Limit:       parseIntParam(r, "limit", history.DefaultSearchLimit),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data.Results = results
	h.renderer.renderPage(w, r, "search", data)
}

// HandleDetail handles GET /screenshots/{id} — one record with its
// description rendered as markdown and its closest visual neighbors.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	record, err := h.history.Get(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	var similar []history.SimilarResult
	if record.Fingerprint != nil {
		similar, err = h.history.Similar(history.SimilarInput{ID: id, Limit: 5})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   "Screenshot",
			Version: h.renderer.version,
			Nav:     "screenshots",
		},
		Record:       record,
		RenderedHTML: renderMarkdown(record.Description),
		Similar:      similar,
	})
}

// HandleImage handles GET /screenshots/{id}/image — serves the backing file.
func (h *Handlers) HandleImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	record, err := h.history.Get(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.ServeFile(w, r, record.StoragePath)
}

// HandleDelete handles DELETE /screenshots/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	deleted, err := h.history.Delete(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if !deleted {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest("invalid screenshot id")
	}
	return id, nil
}

// parseIntParam extracts an integer query parameter with a default.
func parseIntParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// ptrString returns a pointer to s, or nil if s is empty.
func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
