package model

import (
	"fmt"
	"strings"
)

// DayLog records one user's activity for a single calendar date.
type DayLog struct {
	Date        Date
	WorkoutDone bool
	DietDone    bool
	IsRestDay   bool
	Notes       string
}

// Valid reports whether the day counts toward a streak.
func (l DayLog) Valid() bool {
	return l.IsRestDay || (l.WorkoutDone && l.DietDone)
}

// Logged reports whether any activity flag is set.
func (l DayLog) Logged() bool {
	return l.WorkoutDone || l.DietDone || l.IsRestDay
}

// Status classifies the day. A rest flag wins over workout/diet flags.
func (l DayLog) Status() Status {
	switch {
	case l.IsRestDay:
		return StatusRest
	case l.WorkoutDone && l.DietDone:
		return StatusPerfect
	case l.WorkoutDone || l.DietDone:
		return StatusPartial
	default:
		return StatusMissed
	}
}

// Apply merges p into l. Setting workout or diet to true clears the rest flag;
// setting rest to true leaves workout and diet alone.
func (l DayLog) Apply(p Patch) DayLog {
	if p.WorkoutDone != nil {
		l.WorkoutDone = *p.WorkoutDone
	}
	if p.DietDone != nil {
		l.DietDone = *p.DietDone
	}
	if p.IsRestDay != nil {
		l.IsRestDay = *p.IsRestDay
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	if (p.WorkoutDone != nil && *p.WorkoutDone) || (p.DietDone != nil && *p.DietDone) {
		l.IsRestDay = false
	}
	return l
}

// Patch is a partial assignment of DayLog fields. Nil means unchanged.
type Patch struct {
	WorkoutDone *bool
	DietDone    *bool
	IsRestDay   *bool
	Notes       *string
}

// Bool returns a pointer to b for building patches.
func Bool(b bool) *bool { return &b }

// Text returns a pointer to s for building patches.
func Text(s string) *string { return &s }

// Mutation is one element of a batch committed to the day log store.
type Mutation struct {
	Date   Date
	Patch  Patch
	Remove bool
}

// Status is the derived classification of a day.
type Status int

const (
	StatusMissed Status = iota
	StatusRest
	StatusPartial
	StatusPerfect
)

func (s Status) String() string {
	switch s {
	case StatusRest:
		return "rest"
	case StatusPartial:
		return "partial"
	case StatusPerfect:
		return "perfect"
	default:
		return "missed"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Field names one toggleable DayLog flag.
type Field int

const (
	FieldWorkout Field = iota + 1
	FieldDiet
	FieldRest
)

// ParseField maps a wire name onto a Field.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "workout":
		return FieldWorkout, nil
	case "diet":
		return FieldDiet, nil
	case "rest":
		return FieldRest, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, s)
}

func (f Field) String() string {
	switch f {
	case FieldWorkout:
		return "workout"
	case FieldDiet:
		return "diet"
	case FieldRest:
		return "rest"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Toggle returns the patch flipping f on l. Only the named flag is assigned.
func (f Field) Toggle(l DayLog) Patch {
	switch f {
	case FieldWorkout:
		return Patch{WorkoutDone: Bool(!l.WorkoutDone)}
	case FieldDiet:
		return Patch{DietDone: Bool(!l.DietDone)}
	case FieldRest:
		return Patch{IsRestDay: Bool(!l.IsRestDay)}
	}
	return Patch{}
}
