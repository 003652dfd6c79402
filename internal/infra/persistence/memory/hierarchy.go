package memory

import (
	"errors"
	"sort"

	"freezercore/pkg/domain"
	"freezercore/pkg/grid"
)

func validateDims(rows, columns int) error {
	if rows < domain.MinGridDim || rows > domain.MaxGridDim {
		return domain.Validationf("rows must be between %d and %d", domain.MinGridDim, domain.MaxGridDim)
	}
	if columns < domain.MinGridDim || columns > domain.MaxGridDim {
		return domain.Validationf("columns must be between %d and %d", domain.MinGridDim, domain.MaxGridDim)
	}
	return nil
}

// validateSlot checks a box slot coordinate against its rack's grid. Format
// problems surface as ValidationError; out-of-bounds slots keep the grid
// BoundsError so callers see the offending axis.
func validateSlot(slot string, rack Rack) error {
	if err := grid.ValidateWithinBounds(slot, rack.Rows, rack.Columns); err != nil {
		var bounds grid.BoundsError
		if errors.As(err, &bounds) {
			return err
		}
		return domain.ValidationError{Message: err.Error()}
	}
	return nil
}

// CreateFreezer stores a new freezer within the transaction.
func (tx *transaction) CreateFreezer(f Freezer) (Freezer, error) {
	if f.Name == "" {
		return Freezer{}, domain.Validationf("freezer name must not be empty")
	}
	if _, exists := tx.state.freezers[f.Name]; exists {
		return Freezer{}, domain.DuplicateError{Entity: domain.EntityFreezer, ID: f.Name}
	}
	f.CreatedAt = tx.now
	f.UpdatedAt = tx.now
	tx.state.freezers[f.Name] = f
	tx.recordChange(Change{Entity: domain.EntityFreezer, Action: domain.ActionCreated, After: f})
	return f, nil
}

// UpdateFreezer mutates a freezer. Renaming re-keys contained racks, boxes,
// and samples in the same transaction without emitting audit entries.
func (tx *transaction) UpdateFreezer(name string, mutator func(*Freezer) error) (Freezer, error) {
	current, ok := tx.state.freezers[name]
	if !ok {
		return Freezer{}, domain.NotFoundError{Entity: domain.EntityFreezer, ID: name}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Freezer{}, err
	}
	if current.Name == "" {
		return Freezer{}, domain.Validationf("freezer name must not be empty")
	}
	if current.Name != name {
		if _, exists := tx.state.freezers[current.Name]; exists {
			return Freezer{}, domain.DuplicateError{Entity: domain.EntityFreezer, ID: current.Name}
		}
		tx.rekeyFreezer(name, current.Name)
		delete(tx.state.freezers, name)
	}
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.freezers[current.Name] = current
	tx.recordChange(Change{Entity: domain.EntityFreezer, Action: domain.ActionUpdated, Before: before, After: current})
	return current, nil
}

func (tx *transaction) rekeyFreezer(oldName, newName string) {
	for key, r := range tx.state.racks {
		if key.Freezer != oldName {
			continue
		}
		delete(tx.state.racks, key)
		r.FreezerName = newName
		tx.state.racks[rackKey{Freezer: newName, ID: r.ID}] = r
	}
	for key, b := range tx.state.boxes {
		if key.FreezerName != oldName {
			continue
		}
		delete(tx.state.boxes, key)
		b.FreezerName = newName
		tx.state.boxes[b.Key()] = b
	}
	for id, sm := range tx.state.samples {
		if sm.Freezer != oldName {
			continue
		}
		sm.Freezer = newName
		tx.state.samples[id] = sm
	}
}

// DeleteFreezer removes a freezer and cascades to its racks, boxes, and
// samples. Each removed sample gets one deleted audit entry attributed to the
// actor; racks and boxes carry no audit trail.
func (tx *transaction) DeleteFreezer(name string, actor Actor) error {
	current, ok := tx.state.freezers[name]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityFreezer, ID: name}
	}
	tx.deleteSamplesWhere(actor, func(sm Sample) bool { return sm.Freezer == name })
	for key := range tx.state.boxes {
		if key.FreezerName == name {
			delete(tx.state.boxes, key)
		}
	}
	for key := range tx.state.racks {
		if key.Freezer == name {
			delete(tx.state.racks, key)
		}
	}
	delete(tx.state.freezers, name)
	tx.recordChange(Change{Entity: domain.EntityFreezer, Action: domain.ActionDeleted, Before: current})
	return nil
}

// CreateRack stores a new rack within the transaction.
func (tx *transaction) CreateRack(r Rack) (Rack, error) {
	if r.ID == "" {
		return Rack{}, domain.Validationf("rack id must not be empty")
	}
	if _, ok := tx.state.freezers[r.FreezerName]; !ok {
		return Rack{}, domain.NotFoundError{Entity: domain.EntityFreezer, ID: r.FreezerName}
	}
	if err := validateDims(r.Rows, r.Columns); err != nil {
		return Rack{}, err
	}
	key := rackKey{Freezer: r.FreezerName, ID: r.ID}
	if _, exists := tx.state.racks[key]; exists {
		return Rack{}, domain.DuplicateError{Entity: domain.EntityRack, ID: r.ID}
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.racks[key] = r
	tx.recordChange(Change{Entity: domain.EntityRack, Action: domain.ActionCreated, After: r})
	return r, nil
}

// UpdateRack mutates a rack. Renaming re-keys contained boxes and samples;
// resizing below an occupied slot fails before anything is written.
func (tx *transaction) UpdateRack(freezer, id string, mutator func(*Rack) error) (Rack, error) {
	key := rackKey{Freezer: freezer, ID: id}
	current, ok := tx.state.racks[key]
	if !ok {
		return Rack{}, domain.NotFoundError{Entity: domain.EntityRack, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Rack{}, err
	}
	if current.ID == "" {
		return Rack{}, domain.Validationf("rack id must not be empty")
	}
	current.FreezerName = freezer
	if err := validateDims(current.Rows, current.Columns); err != nil {
		return Rack{}, err
	}
	for boxKey := range tx.state.boxes {
		if boxKey.FreezerName != freezer || boxKey.RackID != id {
			continue
		}
		if err := grid.ValidateWithinBounds(boxKey.ID, current.Rows, current.Columns); err != nil {
			return Rack{}, domain.Validationf("cannot resize rack %s below occupied slot %s", id, boxKey.ID)
		}
	}
	if current.ID != id {
		newKey := rackKey{Freezer: freezer, ID: current.ID}
		if _, exists := tx.state.racks[newKey]; exists {
			return Rack{}, domain.DuplicateError{Entity: domain.EntityRack, ID: current.ID}
		}
		tx.rekeyRack(freezer, id, current.ID)
		delete(tx.state.racks, key)
	}
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.racks[rackKey{Freezer: freezer, ID: current.ID}] = current
	tx.recordChange(Change{Entity: domain.EntityRack, Action: domain.ActionUpdated, Before: before, After: current})
	return current, nil
}

func (tx *transaction) rekeyRack(freezer, oldID, newID string) {
	for key, b := range tx.state.boxes {
		if key.FreezerName != freezer || key.RackID != oldID {
			continue
		}
		delete(tx.state.boxes, key)
		b.RackID = newID
		tx.state.boxes[b.Key()] = b
	}
	for id, sm := range tx.state.samples {
		if sm.Freezer != freezer || sm.Rack != oldID {
			continue
		}
		sm.Rack = newID
		tx.state.samples[id] = sm
	}
}

// DeleteRack removes a rack and cascades to its boxes and samples.
func (tx *transaction) DeleteRack(freezer, id string, actor Actor) error {
	key := rackKey{Freezer: freezer, ID: id}
	current, ok := tx.state.racks[key]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityRack, ID: id}
	}
	tx.deleteSamplesWhere(actor, func(sm Sample) bool { return sm.Freezer == freezer && sm.Rack == id })
	for boxKey := range tx.state.boxes {
		if boxKey.FreezerName == freezer && boxKey.RackID == id {
			delete(tx.state.boxes, boxKey)
		}
	}
	delete(tx.state.racks, key)
	tx.recordChange(Change{Entity: domain.EntityRack, Action: domain.ActionDeleted, Before: current})
	return nil
}

// CreateBox stores a new box at an unoccupied slot of its rack.
func (tx *transaction) CreateBox(b Box) (Box, error) {
	rack, ok := tx.state.racks[rackKey{Freezer: b.FreezerName, ID: b.RackID}]
	if !ok {
		return Box{}, domain.NotFoundError{Entity: domain.EntityRack, ID: b.RackID}
	}
	if err := validateSlot(b.ID, rack); err != nil {
		return Box{}, err
	}
	if err := validateDims(b.Rows, b.Columns); err != nil {
		return Box{}, err
	}
	key := b.Key()
	if _, exists := tx.state.boxes[key]; exists {
		return Box{}, domain.DuplicateError{Entity: domain.EntityBox, ID: key.String()}
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	tx.state.boxes[key] = b
	tx.recordChange(Change{Entity: domain.EntityBox, Action: domain.ActionCreated, After: b})
	return b, nil
}

// UpdateBox mutates a box. Changing its ID relocates it to another slot of
// the same rack: contained samples are re-keyed in the same transaction and
// no audit entries are emitted for the move. Shrinking below an occupied
// well fails before anything is written.
func (tx *transaction) UpdateBox(key BoxKey, mutator func(*Box) error) (Box, error) {
	current, ok := tx.state.boxes[key]
	if !ok {
		return Box{}, domain.NotFoundError{Entity: domain.EntityBox, ID: key.String()}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Box{}, err
	}
	current.FreezerName = key.FreezerName
	current.RackID = key.RackID
	if err := validateDims(current.Rows, current.Columns); err != nil {
		return Box{}, err
	}
	for _, sm := range samplesInBox(&tx.state, key) {
		if err := grid.ValidateWithinBounds(sm.Well, current.Rows, current.Columns); err != nil {
			return Box{}, domain.Validationf("cannot resize box %s below occupied well %s", key.ID, sm.Well)
		}
	}
	if current.ID != key.ID {
		rack := tx.state.racks[rackKey{Freezer: key.FreezerName, ID: key.RackID}]
		if err := validateSlot(current.ID, rack); err != nil {
			return Box{}, err
		}
		newKey := current.Key()
		if _, exists := tx.state.boxes[newKey]; exists {
			return Box{}, domain.DuplicateError{Entity: domain.EntityBox, ID: newKey.String()}
		}
		tx.rekeyBox(key, newKey)
		delete(tx.state.boxes, key)
	}
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.boxes[current.Key()] = current
	tx.recordChange(Change{Entity: domain.EntityBox, Action: domain.ActionUpdated, Before: before, After: current})
	return current, nil
}

func (tx *transaction) rekeyBox(oldKey, newKey BoxKey) {
	for id, sm := range tx.state.samples {
		if sm.BoxKey() != oldKey {
			continue
		}
		sm.Freezer = newKey.FreezerName
		sm.Rack = newKey.RackID
		sm.Box = newKey.ID
		tx.state.samples[id] = sm
	}
}

// DeleteBox removes a box and its samples, one deleted audit entry each.
func (tx *transaction) DeleteBox(key BoxKey, actor Actor) error {
	current, ok := tx.state.boxes[key]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityBox, ID: key.String()}
	}
	tx.deleteSamplesWhere(actor, func(sm Sample) bool { return sm.BoxKey() == key })
	delete(tx.state.boxes, key)
	tx.recordChange(Change{Entity: domain.EntityBox, Action: domain.ActionDeleted, Before: current})
	return nil
}

// deleteSamplesWhere removes every sample matching the predicate, appending
// one deleted audit entry per sample in a stable location order so cascades
// are deterministic.
func (tx *transaction) deleteSamplesWhere(actor Actor, match func(Sample) bool) {
	var doomed []Sample
	for _, sm := range tx.state.samples {
		if match(sm) {
			doomed = append(doomed, sm)
		}
	}
	sort.Slice(doomed, func(i, j int) bool {
		a, b := doomed[i], doomed[j]
		if a.Freezer != b.Freezer {
			return a.Freezer < b.Freezer
		}
		if a.Rack != b.Rack {
			return a.Rack < b.Rack
		}
		if a.Box != b.Box {
			return a.Box < b.Box
		}
		return a.Well < b.Well
	})
	for _, sm := range doomed {
		tx.appendAudit(sm, domain.ActionDeleted, "", "", "", actor)
		delete(tx.state.samples, sm.ID)
		tx.recordChange(Change{Entity: domain.EntitySample, Action: domain.ActionDeleted, Before: sm})
	}
}
