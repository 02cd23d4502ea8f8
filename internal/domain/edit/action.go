package edit

import (
	"fmt"
	"strings"

	"github.com/okian/streak/internal/domain/model"
)

// Action is a bulk edit applied to every selected date.
type Action int

const (
	ActionPerfect Action = iota + 1
	ActionRest
	ActionWorkoutOnly
	ActionDietOnly
	ActionClear
)

var actionNames = map[Action]string{
	ActionPerfect:     "perfect",
	ActionRest:        "rest",
	ActionWorkoutOnly: "workoutOnly",
	ActionDietOnly:    "dietOnly",
	ActionClear:       "clear",
}

// ParseAction maps a wire name onto an Action. Matching ignores case.
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	for a, name := range actionNames {
		if strings.EqualFold(s, name) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

// Mutation returns the store mutation the action performs on date.
//
// Unlike a single rest toggle, the rest action clears workout and diet
// explicitly. workoutOnly and dietOnly leave the other activity untouched.
func (a Action) Mutation(date model.Date) model.Mutation {
	t, f := model.Bool(true), model.Bool(false)
	m := model.Mutation{Date: date}
	switch a {
	case ActionPerfect:
		m.Patch = model.Patch{WorkoutDone: t, DietDone: t, IsRestDay: f}
	case ActionRest:
		m.Patch = model.Patch{WorkoutDone: f, DietDone: f, IsRestDay: t}
	case ActionWorkoutOnly:
		m.Patch = model.Patch{WorkoutDone: t, IsRestDay: f}
	case ActionDietOnly:
		m.Patch = model.Patch{DietDone: t, IsRestDay: f}
	case ActionClear:
		m.Remove = true
	}
	return m
}
