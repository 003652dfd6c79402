package domain

import (
	"strings"
	"time"
)

// AuditEntry is one immutable record of a single field-level or whole-entity
// change to a sample. The location and name fields are snapshots taken at the
// moment of the action, so history survives later moves, renames, and
// deletes of the live sample.
type AuditEntry struct {
	Seq        int64     `json:"seq"`
	SampleID   string    `json:"sample_id"`
	Action     Action    `json:"action"`
	Field      string    `json:"field,omitempty"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	Actor      Actor     `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
	Freezer    string    `json:"freezer"`
	Rack       string    `json:"rack"`
	Box        string    `json:"box"`
	Well       string    `json:"well"`
	SampleName string    `json:"sample_name"`
}

// HistoryFilter selects audit entries. Supplied filters combine
// conjunctively; a filter with multiple values matches any of them. Location
// fields match as case-insensitive substrings.
type HistoryFilter struct {
	Actions            []Action
	ActorIDs           []int
	From               *time.Time
	To                 *time.Time
	Freezer            string
	Rack               string
	Box                string
	SampleNameContains string
}

// Matches reports whether the entry satisfies every supplied filter.
func (f HistoryFilter) Matches(entry AuditEntry) bool {
	if len(f.Actions) > 0 && !containsAction(f.Actions, entry.Action) {
		return false
	}
	if len(f.ActorIDs) > 0 && !containsInt(f.ActorIDs, entry.Actor.ID) {
		return false
	}
	if f.From != nil && entry.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && entry.Timestamp.After(*f.To) {
		return false
	}
	if !containsFold(entry.Freezer, f.Freezer) {
		return false
	}
	if !containsFold(entry.Rack, f.Rack) {
		return false
	}
	if !containsFold(entry.Box, f.Box) {
		return false
	}
	if !containsFold(entry.SampleName, f.SampleNameContains) {
		return false
	}
	return true
}

func containsAction(actions []Action, action Action) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

func containsInt(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsFold(value, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(substr))
}
