package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"reviewlens/internal/adapters/observability"
	"reviewlens/internal/app"
	"reviewlens/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	A       *app.AnalysisService
	Q       *app.QueryService
	Version string
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type historyResponse struct {
	CategoryID string                    `json:"category_id,omitempty"`
	Businesses []domain.BusinessAnalysis `json:"businesses"`
	Total      int                       `json:"total"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/", h.info)
	s.mux.Get("/health", h.health)
	s.mux.Post("/analyze", h.analyze)
	s.mux.Get("/categories", h.listCategories)
	s.mux.Get("/stats", h.stats)

	s.mux.Route("/history", func(r chi.Router) {
		r.Get("/", h.listHistory)
		r.Delete("/", h.clearHistory)
		r.Get("/category/{id}", h.listByCategory)
		r.Get("/lookup", h.lookup)
		r.Delete("/item", h.deleteItem)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var se *domain.UpstreamStatusError
	switch {
	case errors.As(err, &se):
		writeProblem(w, se.Status, "Upstream Error", "upstream responded with error: "+se.Body)
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, domain.ErrUpstreamTimeout):
		writeProblem(w, http.StatusGatewayTimeout, "Gateway Timeout", "the analysis service took too long, try again")
	case errors.Is(err, domain.ErrUpstreamUnreachable):
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", err.Error())
	case errors.Is(err, domain.ErrTransform):
		writeProblem(w, http.StatusInternalServerError, "Processing Error", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "analysis not found")
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON writes v with a weak ETag; GETs carrying a matching
// If-None-Match get 304.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "encode response")
		return
	}
	if r.Method == http.MethodGet && etag != "" {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write response body")
	}
}

func (h *Handlers) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"message":  "Review sentiment & bot analysis API",
		"version":  h.Version,
		"features": []string{"category classification", "persistent history", "bot detection"},
		"endpoints": map[string]string{
			"/analyze":               "POST - analyze a Google Maps URL",
			"/history":               "GET - full history, DELETE - clear history",
			"/history/category/{id}": "GET - history by category",
			"/history/lookup?url=":   "GET - one analysis by URL",
			"/history/item?url=":     "DELETE - one analysis by URL",
			"/categories":            "GET - available categories",
			"/stats":                 "GET - aggregate stats per category",
		},
	})
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy", "version": h.Version})
}

func (h *Handlers) analyze(w http.ResponseWriter, r *http.Request) {
	var req app.AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "body must be JSON: {\"url\": \"...\"}")
		return
	}

	out, err := h.A.Analyze(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	observability.ObserveAnalysis(out.Category.ID, out.Saved, out.BotStats.Real, out.BotStats.Suspicious, out.BotStats.Bot)
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handlers) listHistory(w http.ResponseWriter, r *http.Request) {
	items, err := h.Q.ListHistory(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, historyResponse{Businesses: items, Total: len(items)})
}

func (h *Handlers) listByCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	items, err := h.Q.ListByCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, historyResponse{CategoryID: id, Businesses: items, Total: len(items)})
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "url query parameter is required")
		return
	}
	a, err := h.Q.GetByURL(r.Context(), url)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, a)
}

func (h *Handlers) deleteItem(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.A.DeleteByURL(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handlers) clearHistory(w http.ResponseWriter, r *http.Request) {
	ok, err := h.A.ClearHistory(r.Context())
	if err != nil || !ok {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to clear history")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "history cleared"})
}

func (h *Handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.Q.Categories())
}

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Q.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}
