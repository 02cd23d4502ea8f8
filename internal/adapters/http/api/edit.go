package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/streak/internal/domain/dedupe"
	"github.com/okian/streak/internal/domain/edit"
	"github.com/okian/streak/internal/domain/model"
	"github.com/okian/streak/internal/domain/types"
)

// maxBodyBytes bounds request bodies of mutating endpoints.
const maxBodyBytes = 1 << 20

// EditHandler serves the mutating endpoints.
type EditHandler struct {
	deps Dependencies
}

// NewEditHandler creates a new edit handler.
func NewEditHandler(deps Dependencies) *EditHandler {
	return &EditHandler{deps: deps}
}

// HandleToggle handles POST /users/{user}/days/{date}/toggle.
func (h *EditHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	const op = "api.toggle"
	user := r.PathValue("user")
	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), true)
		return
	}
	var req types.ToggleRequest
	if err := decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), true)
		return
	}
	field, err := model.ParseField(req.Field)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), true)
		return
	}

	h.once(w, r, user, func(ctx context.Context) (any, error) {
		res, err := h.deps.Toggle(ctx, user, date, field)
		if err != nil {
			return nil, err
		}
		return types.ToggleResponse{
			Day:            res.Day.ToRecord(),
			Current:        res.Streak.Current,
			Longest:        res.Streak.Longest,
			ProfileUpdated: res.ProfileUpdated,
		}, nil
	})
}

// HandleNotes handles PUT /users/{user}/days/{date}/notes.
func (h *EditHandler) HandleNotes(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_notes"
	user := r.PathValue("user")
	date, err := model.ParseDate(r.PathValue("date"))
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), true)
		return
	}
	var req types.NotesRequest
	if err := decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), true)
		return
	}

	h.once(w, r, user, func(ctx context.Context) (any, error) {
		day, err := h.deps.SetNotes(ctx, user, date, req.Notes)
		if err != nil {
			return nil, err
		}
		return day.ToRecord(), nil
	})
}

// HandleBulk handles POST /users/{user}/bulk.
func (h *EditHandler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	const op = "api.bulk"
	user := r.PathValue("user")
	var req types.BulkRequest
	if err := decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), true)
		return
	}
	action, err := edit.ParseAction(req.Action)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), true)
		return
	}

	h.once(w, r, user, func(ctx context.Context) (any, error) {
		res, err := h.deps.BulkEdit(ctx, user, req.Dates, action)
		if err != nil {
			return nil, err
		}
		out := types.BulkResponse{
			Action:         res.Action.String(),
			Applied:        res.Applied,
			Changed:        res.Changed,
			Current:        res.Streak.Current,
			Longest:        res.Streak.Longest,
			ProfileUpdated: res.ProfileUpdated,
		}
		if out.Applied == nil {
			out.Applied = []model.Date{}
		}
		for _, s := range res.Skipped {
			out.Skipped = append(out.Skipped, types.Skipped{Input: s.Input, Reason: s.Reason})
		}
		return out, nil
	})
}

// once runs apply at most once per idempotency key. Without a key every
// request is applied. A replay of a completed request is acknowledged as a
// duplicate; a replay that arrives while the first is still running gets 409,
// since its outcome is not known yet. A failed request releases its key so it
// can be retried.
func (h *EditHandler) once(w http.ResponseWriter, r *http.Request, user string, apply func(context.Context) (any, error)) {
	ctx := r.Context()
	key := r.Header.Get(IdempotencyHeader)
	if key != "" {
		key = dedupe.Key(user, key)
		switch h.deps.Begin(ctx, key) {
		case dedupe.KeyDone:
			writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
			return
		case dedupe.KeyInFlight:
			writeFailure(w, NewKind("api.idempotency", ErrInFlight), true)
			return
		}
	}

	out, err := apply(ctx)
	if err != nil {
		if key != "" {
			h.deps.Unrecord(ctx, key)
		}
		writeFailure(w, err, true)
		return
	}
	if key != "" {
		h.deps.Complete(ctx, key)
	}
	writeJSON(w, http.StatusOK, out)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
