package core

import (
	"context"
	"fmt"

	"freezercore/pkg/domain"
)

// NewBoxCapacityRule returns the default in-transaction rule warning when a
// box grid is at or over capacity.
func NewBoxCapacityRule() domain.Rule {
	return boxCapacityRule{}
}

type boxCapacityRule struct{}

func (boxCapacityRule) Name() string { return "box_capacity" }

func (boxCapacityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	occupancy := make(map[domain.BoxKey]int)
	for _, sample := range view.ListSamples() {
		occupancy[sample.BoxKey()]++
	}

	res := domain.Result{}
	for _, box := range view.ListBoxes() {
		capacity := box.Rows * box.Columns
		count := occupancy[box.Key()]
		if count >= capacity {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "box_capacity",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("box %s full: %d/%d wells occupied", box.Key(), count, capacity),
				Entity:   domain.EntityBox,
				EntityID: box.Key().String(),
			})
		}
	}
	return res, nil
}

// NewDefaultRulesEngine returns a rules engine preloaded with the default rule set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewWellOccupancyRule())
	engine.Register(NewSlotOccupancyRule())
	engine.Register(NewBoxCapacityRule())
	return engine
}
