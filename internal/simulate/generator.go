package simulate

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/okian/streak/internal/domain/edit"
	"github.com/okian/streak/internal/domain/model"
)

// dayKind is the generated outcome of one day.
type dayKind int

const (
	kindMissed dayKind = iota
	kindPerfect
	kindRest
	kindWorkoutOnly
	kindDietOnly
)

// kindWeights biases histories toward long perfect runs so streaks are interesting.
var kindWeights = []struct {
	kind   dayKind
	weight int
}{
	{kindPerfect, 60},
	{kindRest, 10},
	{kindWorkoutOnly, 10},
	{kindDietOnly, 8},
	{kindMissed, 12},
}

var kindActions = map[dayKind]edit.Action{
	kindPerfect:     edit.ActionPerfect,
	kindRest:        edit.ActionRest,
	kindWorkoutOnly: edit.ActionWorkoutOnly,
	kindDietOnly:    edit.ActionDietOnly,
}

// toggle is one generated single-day edit.
type toggle struct {
	Date  model.Date
	Field model.Field
}

// plan is everything the simulation does to one user, plus the history the
// service should end up with.
type plan struct {
	User     string
	Bulk     map[edit.Action][]model.Date
	Toggles  []toggle
	Expected map[model.Date]model.DayLog
}

// history returns the expected collection.
func (p *plan) history() []model.DayLog {
	out := make([]model.DayLog, 0, len(p.Expected))
	for _, l := range p.Expected {
		out = append(out, l)
	}
	return out
}

func pickKind(r *rand.Rand) dayKind {
	total := 0
	for _, kw := range kindWeights {
		total += kw.weight
	}
	n := r.Intn(total)
	for _, kw := range kindWeights {
		if n < kw.weight {
			return kw.kind
		}
		n -= kw.weight
	}
	return kindMissed
}

// generatePlans builds one plan per user. The expected history is derived with
// the same patch rules the service applies.
func generatePlans(cfg *Config, today model.Date) []*plan {
	r := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible histories, not security

	plans := make([]*plan, cfg.Users)
	for i := range plans {
		p := &plan{
			User:     uuid.NewString(),
			Bulk:     make(map[edit.Action][]model.Date),
			Expected: make(map[model.Date]model.DayLog),
		}
		for off := 0; off < cfg.Days; off++ {
			d := today.AddDays(-off)
			k := pickKind(r)
			action, ok := kindActions[k]
			if !ok {
				continue
			}
			p.Bulk[action] = append(p.Bulk[action], d)
			p.Expected[d] = model.DayLog{Date: d}.Apply(action.Mutation(d).Patch)
		}
		for t := 0; t < cfg.Toggles && cfg.Days > 0; t++ {
			d := today.AddDays(-r.Intn(cfg.Days))
			f := model.Field(r.Intn(3) + 1)
			p.Toggles = append(p.Toggles, toggle{Date: d, Field: f})

			cur, ok := p.Expected[d]
			if !ok {
				cur = model.DayLog{Date: d}
			}
			p.Expected[d] = cur.Apply(f.Toggle(cur))
		}
		plans[i] = p
	}
	return plans
}
