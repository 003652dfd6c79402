package domain

import (
	"testing"
	"time"
)

func TestHistoryFilterMatches(t *testing.T) {
	ts := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	entry := AuditEntry{
		SampleID:   "abc",
		Action:     ActionUpdated,
		Field:      FieldOwner,
		OldValue:   "Alice",
		NewValue:   "Bob",
		Actor:      Actor{ID: 3, Name: "Carol"},
		Timestamp:  ts,
		Freezer:    "Minus80-East",
		Rack:       "R1",
		Box:        "B2",
		Well:       "A1",
		SampleName: "pBR322 miniprep",
	}

	cases := []struct {
		name   string
		filter HistoryFilter
		want   bool
	}{
		{"empty filter matches everything", HistoryFilter{}, true},
		{"action in set", HistoryFilter{Actions: []Action{ActionCreated, ActionUpdated}}, true},
		{"action not in set", HistoryFilter{Actions: []Action{ActionDeleted}}, false},
		{"actor in set", HistoryFilter{ActorIDs: []int{1, 3}}, true},
		{"actor not in set", HistoryFilter{ActorIDs: []int{1, 2}}, false},
		{"within range", historyRange(ts.Add(-time.Hour), ts.Add(time.Hour)), true},
		{"before range", historyRange(ts.Add(time.Minute), ts.Add(time.Hour)), false},
		{"after range", historyRange(ts.Add(-time.Hour), ts.Add(-time.Minute)), false},
		{"freezer substring case-insensitive", HistoryFilter{Freezer: "minus80"}, true},
		{"freezer mismatch", HistoryFilter{Freezer: "Minus20"}, false},
		{"sample name substring", HistoryFilter{SampleNameContains: "miniprep"}, true},
		{"sample name mismatch", HistoryFilter{SampleNameContains: "maxiprep"}, false},
		{"conjunctive filters", HistoryFilter{Actions: []Action{ActionUpdated}, Rack: "r1", Box: "B2"}, true},
		{"conjunctive with one miss", HistoryFilter{Actions: []Action{ActionUpdated}, Box: "C9"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(entry); got != tc.want {
				t.Fatalf("Matches()=%v, want %v", got, tc.want)
			}
		})
	}
}

func historyRange(from, to time.Time) HistoryFilter {
	return HistoryFilter{From: &from, To: &to}
}
