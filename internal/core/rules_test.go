package core

import (
	"context"
	"testing"

	"freezercore/pkg/domain"
)

type stubRuleView struct {
	freezers []Freezer
	racks    []Rack
	boxes    []Box
	samples  []Sample
}

func (v stubRuleView) ListFreezers() []Freezer { return v.freezers }
func (v stubRuleView) ListRacks() []Rack       { return v.racks }
func (v stubRuleView) ListBoxes() []Box        { return v.boxes }
func (v stubRuleView) ListSamples() []Sample   { return v.samples }

func (v stubRuleView) FindFreezer(name string) (Freezer, bool) {
	for _, f := range v.freezers {
		if f.Name == name {
			return f, true
		}
	}
	return Freezer{}, false
}

func (v stubRuleView) FindRack(freezer, id string) (Rack, bool) {
	for _, r := range v.racks {
		if r.FreezerName == freezer && r.ID == id {
			return r, true
		}
	}
	return Rack{}, false
}

func (v stubRuleView) FindBox(key BoxKey) (Box, bool) {
	for _, b := range v.boxes {
		if b.Key() == key {
			return b, true
		}
	}
	return Box{}, false
}

func (v stubRuleView) FindSample(id string) (Sample, bool) {
	for _, s := range v.samples {
		if s.ID == id {
			return s, true
		}
	}
	return Sample{}, false
}

func TestWellOccupancyRuleBlocksDoubleOccupancy(t *testing.T) {
	view := stubRuleView{
		samples: []Sample{
			{ID: "a", Freezer: "F1", Rack: "R1", Box: "A1", Well: "B2"},
			{ID: "b", Freezer: "F1", Rack: "R1", Box: "A1", Well: "B2"},
			{ID: "c", Freezer: "F1", Rack: "R1", Box: "A1", Well: "B3"},
		},
	}
	res, err := NewWellOccupancyRule().Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(res.Violations))
	}
	if res.Violations[0].Severity != domain.SeverityBlock {
		t.Fatalf("expected blocking severity, got %s", res.Violations[0].Severity)
	}
	if !res.HasBlocking() {
		t.Fatal("result should block commit")
	}
}

func TestWellOccupancyRuleCleanView(t *testing.T) {
	view := stubRuleView{
		samples: []Sample{
			{ID: "a", Freezer: "F1", Rack: "R1", Box: "A1", Well: "B2"},
			{ID: "b", Freezer: "F1", Rack: "R1", Box: "A2", Well: "B2"},
		},
	}
	res, err := NewWellOccupancyRule().Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("same well in different boxes must not violate, got %+v", res.Violations)
	}
}

func TestBoxCapacityRuleWarnsAtCapacity(t *testing.T) {
	view := stubRuleView{
		boxes: []Box{
			{ID: "A1", RackID: "R1", FreezerName: "F1", Rows: 1, Columns: 2},
		},
		samples: []Sample{
			{ID: "a", Freezer: "F1", Rack: "R1", Box: "A1", Well: "A1"},
			{ID: "b", Freezer: "F1", Rack: "R1", Box: "A1", Well: "A2"},
		},
	}
	res, err := NewBoxCapacityRule().Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Severity != domain.SeverityWarn {
		t.Fatalf("expected one warn violation, got %+v", res.Violations)
	}
	if res.HasBlocking() {
		t.Fatal("capacity warning must not block")
	}
}

func TestDefaultRulesEngineRegistersRules(t *testing.T) {
	engine := NewDefaultRulesEngine()
	view := stubRuleView{
		samples: []Sample{
			{ID: "a", Freezer: "F1", Rack: "R1", Box: "A1", Well: "B2"},
			{ID: "b", Freezer: "F1", Rack: "R1", Box: "A1", Well: "B2"},
		},
	}
	res, err := engine.Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatal("expected blocking violation from default rule set")
	}
}
