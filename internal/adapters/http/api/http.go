// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/streak/internal/adapters/repository"
	"github.com/okian/streak/internal/domain/dedupe"
	"github.com/okian/streak/internal/domain/edit"
	"github.com/okian/streak/internal/domain/model"
	"github.com/okian/streak/internal/domain/stats"
	"github.com/okian/streak/internal/domain/streak"
	"github.com/okian/streak/internal/domain/types"
)

// IdempotencyHeader carries a client chosen key that makes a mutating
// request safe to retry.
const IdempotencyHeader = "Idempotency-Key"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Today is the default reference date of read endpoints.
	Today() model.Date

	Toggle(ctx context.Context, userID string, date model.Date, field model.Field) (edit.ToggleResult, error)
	BulkEdit(ctx context.Context, userID string, dates []string, action edit.Action) (edit.BulkResult, error)
	SetNotes(ctx context.Context, userID string, date model.Date, notes string) (model.DayLog, error)

	Streak(ctx context.Context, userID string, at model.Date) (types.Summary, error)
	Report(ctx context.Context, userID string, at model.Date) (stats.Report, error)
	Day(ctx context.Context, userID string, date model.Date) (model.DayLog, error)
	Days(ctx context.Context, userID string, at model.Date) ([]streak.Day, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	readHandler   *ReadHandler
	editHandler   *EditHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider, deps.Today),
		readHandler:   NewReadHandler(deps),
		editHandler:   NewEditHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /users/{user}/streak", MetricsMiddleware(s.readHandler.HandleStreak, "streak"))
	mux.HandleFunc("GET /users/{user}/report", MetricsMiddleware(s.readHandler.HandleReport, "report"))
	mux.HandleFunc("GET /users/{user}/days", MetricsMiddleware(s.readHandler.HandleCalendar, "calendar"))
	mux.HandleFunc("GET /users/{user}/days/{date}", MetricsMiddleware(s.readHandler.HandleDay, "day"))

	mux.HandleFunc("POST /users/{user}/days/{date}/toggle", MetricsMiddleware(s.editHandler.HandleToggle, "toggle"))
	mux.HandleFunc("PUT /users/{user}/days/{date}/notes", MetricsMiddleware(s.editHandler.HandleNotes, "notes"))
	mux.HandleFunc("POST /users/{user}/bulk", MetricsMiddleware(s.editHandler.HandleBulk, "bulk"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a domain error onto its HTTP status. Store failures are
// reported as unavailable only on mutating requests; a read failure on a read
// endpoint is an internal error.
func writeFailure(w http.ResponseWriter, err error, mutating bool) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidDateFormat),
		errors.Is(err, model.ErrUnknownField),
		errors.Is(err, model.ErrInvalidUser),
		errors.Is(err, edit.ErrUnknownAction),
		errors.Is(err, edit.ErrFutureDate),
		errors.Is(err, edit.ErrEmptySelection),
		errors.Is(err, edit.ErrTooManyDates),
		errors.Is(err, edit.ErrInvalidBulk):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrInFlight):
		writeError(w, http.StatusConflict, "conflict", err)
	case mutating && (errors.Is(err, repository.ErrStoreWrite) || errors.Is(err, repository.ErrStoreRead)):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// referenceDate reads the optional ?date= query parameter, defaulting to today.
func referenceDate(r *http.Request, deps Dependencies) (model.Date, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return deps.Today(), nil
	}
	return model.ParseDate(raw)
}
