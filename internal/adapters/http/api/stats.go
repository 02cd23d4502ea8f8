package api

import (
	"net/http"
	"time"

	"github.com/okian/streak/internal/domain/model"
)

// StatsProvider exposes service counters for GET /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
	today    func() model.Date
	started  time.Time
}

// NewStatsHandler creates a stats handler. today supplies the reference date
// the read endpoints default to.
func NewStatsHandler(provider StatsProvider, today func() model.Date) *StatsHandler {
	return &StatsHandler{provider: provider, today: today, started: time.Now()}
}

// HandleStats reports the service counters plus the server's notion of today.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	out := h.provider.GetStats()
	if out == nil {
		out = make(map[string]interface{})
	}
	if h.today != nil {
		out["today"] = h.today().String()
	}
	out["uptimeSeconds"] = int64(time.Since(h.started).Seconds())
	writeJSON(w, http.StatusOK, out)
}
