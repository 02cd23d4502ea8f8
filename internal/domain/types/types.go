// Package types contains the JSON shapes shared by the HTTP API and its clients.
package types

import (
	"github.com/okian/streak/internal/domain/model"
	"github.com/okian/streak/internal/domain/stats"
	"github.com/okian/streak/internal/domain/streak"
)

// Summary is a user's streak as of a date.
type Summary struct {
	User    string     `json:"user"`
	Date    model.Date `json:"date"`
	Current int        `json:"current"`
	Longest int        `json:"longest"`
}

// ToggleRequest is the body of POST /users/{user}/days/{date}/toggle.
type ToggleRequest struct {
	Field string `json:"field"`
}

// NotesRequest is the body of PUT /users/{user}/days/{date}/notes.
type NotesRequest struct {
	Notes string `json:"notes"`
}

// BulkRequest is the body of POST /users/{user}/bulk.
type BulkRequest struct {
	Dates  []string `json:"dates"`
	Action string   `json:"action"`
}

// ToggleResponse reports the toggled day and the recomputed streak.
type ToggleResponse struct {
	Day            model.Record `json:"day"`
	Current        int          `json:"current"`
	Longest        int          `json:"longest"`
	ProfileUpdated bool         `json:"profileUpdated"`
}

// Skipped is a bulk date that was not applied.
type Skipped struct {
	Input  string `json:"input"`
	Reason string `json:"reason"`
}

// BulkResponse reports what a bulk edit did.
type BulkResponse struct {
	Action         string       `json:"action"`
	Applied        []model.Date `json:"applied"`
	Skipped        []Skipped    `json:"skipped,omitempty"`
	Changed        int          `json:"changed"`
	Current        int          `json:"current"`
	Longest        int          `json:"longest"`
	ProfileUpdated bool         `json:"profileUpdated"`
}

// ReportResponse is the statistics window of a user.
type ReportResponse struct {
	User string `json:"user"`
	stats.Report
}

// CalendarResponse lists the logged days of the horizon, newest first.
type CalendarResponse struct {
	User string       `json:"user"`
	Date model.Date   `json:"date"`
	Days []streak.Day `json:"days"`
}
