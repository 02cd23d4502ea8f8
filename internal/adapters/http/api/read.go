package api

import (
	"net/http"

	"github.com/okian/streak/internal/domain/model"
	"github.com/okian/streak/internal/domain/types"
)

// ReadHandler serves streak, report and calendar queries.
type ReadHandler struct {
	deps Dependencies
}

// NewReadHandler creates a new read handler.
func NewReadHandler(deps Dependencies) *ReadHandler {
	return &ReadHandler{deps: deps}
}

// HandleStreak handles GET /users/{user}/streak?date=YYYY-MM-DD.
func (h *ReadHandler) HandleStreak(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_streak"
	at, err := referenceDate(r, h.deps)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), false)
		return
	}
	sum, err := h.deps.Streak(r.Context(), r.PathValue("user"), at)
	if err != nil {
		writeFailure(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleReport handles GET /users/{user}/report?date=YYYY-MM-DD.
func (h *ReadHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	at, err := referenceDate(r, h.deps)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), false)
		return
	}
	user := r.PathValue("user")
	rep, err := h.deps.Report(r.Context(), user, at)
	if err != nil {
		writeFailure(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, types.ReportResponse{User: user, Report: rep})
}

// HandleCalendar handles GET /users/{user}/days?date=YYYY-MM-DD.
func (h *ReadHandler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_calendar"
	at, err := referenceDate(r, h.deps)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), false)
		return
	}
	user := r.PathValue("user")
	days, err := h.deps.Days(r.Context(), user, at)
	if err != nil {
		writeFailure(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, types.CalendarResponse{User: user, Date: at, Days: days})
}

// HandleDay handles GET /users/{user}/days/{date}.
func (h *ReadHandler) HandleDay(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_day"
	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), false)
		return
	}
	day, err := h.deps.Day(r.Context(), r.PathValue("user"), date)
	if err != nil {
		writeFailure(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, day.ToRecord())
}
