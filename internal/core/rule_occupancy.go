package core

import (
	"context"
	"fmt"

	"freezercore/pkg/domain"
)

// NewWellOccupancyRule returns the in-transaction rule enforcing at most one
// live sample per box well. The store rejects well collisions up front; this
// rule backstops the invariant at commit for any mutation path.
func NewWellOccupancyRule() domain.Rule {
	return wellOccupancyRule{}
}

type wellOccupancyRule struct{}

func (wellOccupancyRule) Name() string { return "well_occupancy" }

func (wellOccupancyRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	type wellKey struct {
		box  domain.BoxKey
		well string
	}
	occupants := make(map[wellKey]int)
	for _, sample := range view.ListSamples() {
		occupants[wellKey{box: sample.BoxKey(), well: sample.Well}]++
	}

	res := domain.Result{}
	for key, count := range occupants {
		if count > 1 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "well_occupancy",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("well %s of box %s holds %d samples", key.well, key.box, count),
				Entity:   domain.EntityBox,
				EntityID: key.box.String(),
			})
		}
	}
	return res, nil
}

// NewSlotOccupancyRule returns the in-transaction rule enforcing at most one
// box per rack slot.
func NewSlotOccupancyRule() domain.Rule {
	return slotOccupancyRule{}
}

type slotOccupancyRule struct{}

func (slotOccupancyRule) Name() string { return "slot_occupancy" }

func (slotOccupancyRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	slots := make(map[domain.BoxKey]int)
	for _, box := range view.ListBoxes() {
		slots[box.Key()]++
	}

	res := domain.Result{}
	for key, count := range slots {
		if count > 1 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "slot_occupancy",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("slot %s of rack %s/%s holds %d boxes", key.ID, key.FreezerName, key.RackID, count),
				Entity:   domain.EntityRack,
				EntityID: key.FreezerName + "/" + key.RackID,
			})
		}
	}
	return res, nil
}
