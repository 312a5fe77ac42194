// Package api serves the read-only job views, the manual run trigger and
// Prometheus metrics over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amishk599/gigradar/internal/model"
	"github.com/amishk599/gigradar/internal/pipeline"
)

const (
	// RecentLimit caps GET /api/jobs.
	RecentLimit = 50
	// StatsWindow is the trailing window of GET /api/stats.
	StatsWindow = 7 * 24 * time.Hour
)

// Runner triggers one pipeline pass.
type Runner interface {
	RunOnce(ctx context.Context) (int, error)
}

type handler struct {
	reader model.JobReader
	runner Runner
	logger *slog.Logger
	now    func() time.Time
}

// NewRouter builds the HTTP surface. A nil runner disables POST /api/run and
// a nil gatherer disables /metrics.
func NewRouter(reader model.JobReader, runner Runner, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	h := &handler{reader: reader, runner: runner, logger: logger, now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/jobs", h.listJobs)
		r.Get("/stats", h.stats)
		if runner != nil {
			r.Post("/run", h.run)
		}
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": h.now().Format(time.RFC3339),
	})
}

func (h *handler) listJobs(w http.ResponseWriter, r *http.Request) {
	var p model.Priority
	switch q := r.URL.Query().Get("priority"); q {
	case "", "all":
	default:
		p = model.Priority(q)
		if !p.Valid() {
			writeError(w, http.StatusBadRequest, "unknown priority "+q)
			return
		}
	}

	jobs, err := h.reader.Recent(r.Context(), RecentLimit, p)
	if err != nil {
		h.logger.Error("listing jobs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing jobs failed")
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, map[string][]jobResponse{"jobs": out})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.reader.Stats(r.Context(), h.now().Add(-StatsWindow))
	if err != nil {
		h.logger.Error("computing stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "computing stats failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) run(w http.ResponseWriter, r *http.Request) {
	n, err := h.runner.RunOnce(r.Context())
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("manual run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "run failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"new_jobs": n})
}

type jobResponse struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Platform       string   `json:"platform"`
	URL            string   `json:"url"`
	Description    string   `json:"description"`
	Rate           string   `json:"rate"`
	ClientVerified bool     `json:"client_verified"`
	ClientSpent    string   `json:"client_spent"`
	Proposals      int      `json:"proposals"`
	PostedDate     string   `json:"posted_date"`
	Score          int      `json:"score"`
	Priority       string   `json:"priority"`
	IsScam         bool     `json:"is_scam"`
	RedFlags       []string `json:"red_flags"`
	WhyMatch       string   `json:"why_match"`
	JobType        string   `json:"job_type"`
	Strategy       string   `json:"strategy"`
	Notified       bool     `json:"notified"`
	CreatedAt      string   `json:"created_at"`
}

func toJobResponse(j model.StoredJob) jobResponse {
	flags := j.RedFlags
	if flags == nil {
		flags = []string{}
	}
	return jobResponse{
		ID:             j.ID,
		Title:          j.Title,
		Platform:       j.Platform,
		URL:            j.URL,
		Description:    j.Description,
		Rate:           j.Rate,
		ClientVerified: j.ClientVerified,
		ClientSpent:    j.ClientSpent,
		Proposals:      j.Proposals,
		PostedDate:     j.PostedDate,
		Score:          j.Score,
		Priority:       string(j.Priority),
		IsScam:         j.IsScam,
		RedFlags:       flags,
		WhyMatch:       j.WhyMatch,
		JobType:        j.JobType,
		Strategy:       string(j.Strategy),
		Notified:       j.Notified,
		CreatedAt:      j.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
