package domain

import (
	"context"
	"errors"
	"testing"
)

type stubRule struct {
	name string
	res  Result
	err  error
}

func (r stubRule) Name() string { return r.name }

func (r stubRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return r.res, r.err
}

func TestRulesEngineAggregates(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(stubRule{name: "first", res: Result{Violations: []Violation{{Rule: "first", Severity: SeverityWarn}}}})
	engine.Register(stubRule{name: "second", res: Result{Violations: []Violation{{Rule: "second", Severity: SeverityBlock}}}})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(res.Violations))
	}
	if !res.HasBlocking() {
		t.Fatal("expected blocking violation to be preserved")
	}
}

func TestRulesEngineStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	engine := NewRulesEngine()
	engine.Register(stubRule{name: "first", err: boom})
	engine.Register(stubRule{name: "second", res: Result{Violations: []Violation{{Rule: "second"}}}})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected rule error, got %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("expected empty result on error, got %+v", res)
	}
}
