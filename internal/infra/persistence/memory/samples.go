package memory

import (
	"errors"
	"strings"

	"freezercore/pkg/domain"
	"freezercore/pkg/grid"
)

func validateSampleFields(sm Sample) error {
	name := strings.TrimSpace(sm.Name)
	if name == "" {
		return domain.Validationf("sample name must not be empty")
	}
	if len(name) > domain.MaxSampleNameLength {
		return domain.Validationf("sample name must be at most %d characters", domain.MaxSampleNameLength)
	}
	if !sm.Type.Valid() {
		return domain.Validationf("unknown sample type %q", sm.Type)
	}
	return nil
}

// validateWell checks a sample's well against its box's grid. Format
// problems surface as ValidationError; out-of-bounds wells keep the grid
// BoundsError so callers see the offending axis and maximum.
func (tx *transaction) validateWell(sm Sample, excludeID string) error {
	key := sm.BoxKey()
	box, ok := tx.state.boxes[key]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityBox, ID: key.String()}
	}
	if err := grid.ValidateWithinBounds(sm.Well, box.Rows, box.Columns); err != nil {
		var bounds grid.BoundsError
		if errors.As(err, &bounds) {
			return err
		}
		return domain.ValidationError{Message: err.Error()}
	}
	if occupant, ok := sampleAtWell(&tx.state, key, sm.Well); ok && occupant.ID != excludeID {
		return domain.ConflictError{
			Entity:  domain.EntitySample,
			Message: "well " + sm.Well + " of box " + key.String() + " is already occupied",
		}
	}
	return nil
}

// appendAudit records one immutable history entry inside the transaction.
// Location and name fields are snapshots of the sample at the moment of the
// action.
func (tx *transaction) appendAudit(sm Sample, action domain.Action, field, oldValue, newValue string, actor Actor) {
	tx.state.seq++
	tx.state.history = append(tx.state.history, AuditEntry{
		Seq:        tx.state.seq,
		SampleID:   sm.ID,
		Action:     action,
		Field:      field,
		OldValue:   oldValue,
		NewValue:   newValue,
		Actor:      actor.OrSystem(),
		Timestamp:  tx.now,
		Freezer:    sm.Freezer,
		Rack:       sm.Rack,
		Box:        sm.Box,
		Well:       sm.Well,
		SampleName: sm.Name,
	})
}

// CreateSample validates and stores a new sample, appending one created
// audit entry in the same transaction.
func (tx *transaction) CreateSample(sm Sample, actor Actor) (Sample, error) {
	if err := validateSampleFields(sm); err != nil {
		return Sample{}, err
	}
	if err := tx.validateWell(sm, ""); err != nil {
		return Sample{}, err
	}
	if sm.ID == "" {
		sm.ID = tx.store.newID()
	}
	if _, exists := tx.state.samples[sm.ID]; exists {
		return Sample{}, domain.DuplicateError{Entity: domain.EntitySample, ID: sm.ID}
	}
	sm.DateAdded = tx.now
	sm.UpdatedAt = tx.now
	tx.state.samples[sm.ID] = sm
	tx.appendAudit(sm, domain.ActionCreated, "", "", "", actor)
	tx.recordChange(Change{Entity: domain.EntitySample, Action: domain.ActionCreated, After: sm})
	return sm, nil
}

// UpdateSample mutates a sample and appends one updated audit entry per
// changed field. The sample's box is fixed; only its well may move, and a
// well change is re-validated exactly as on create. A mutation that changes
// nothing leaves both state and history untouched.
func (tx *transaction) UpdateSample(id string, actor Actor, mutator func(*Sample) error) (Sample, error) {
	current, ok := tx.state.samples[id]
	if !ok {
		return Sample{}, domain.NotFoundError{Entity: domain.EntitySample, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Sample{}, err
	}
	current.ID = id
	current.Freezer = before.Freezer
	current.Rack = before.Rack
	current.Box = before.Box
	current.DateAdded = before.DateAdded
	if err := validateSampleFields(current); err != nil {
		return Sample{}, err
	}
	if current.Well != before.Well {
		if err := tx.validateWell(current, id); err != nil {
			return Sample{}, err
		}
	}
	diffs := domain.SampleFieldDiffs(before, current)
	if len(diffs) == 0 {
		return before, nil
	}
	current.UpdatedAt = tx.now
	tx.state.samples[id] = current
	for _, d := range diffs {
		tx.appendAudit(current, domain.ActionUpdated, d.Field, d.OldValue, d.NewValue, actor)
	}
	tx.recordChange(Change{Entity: domain.EntitySample, Action: domain.ActionUpdated, Before: before, After: current})
	return current, nil
}

// DeleteSample removes a sample, appending one deleted audit entry that
// captures its final field values.
func (tx *transaction) DeleteSample(id string, actor Actor) error {
	current, ok := tx.state.samples[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntitySample, ID: id}
	}
	tx.appendAudit(current, domain.ActionDeleted, "", "", "", actor)
	delete(tx.state.samples, id)
	tx.recordChange(Change{Entity: domain.EntitySample, Action: domain.ActionDeleted, Before: current})
	return nil
}
