package core

import (
	"context"

	"freezercore/internal/infra/persistence/memory"
	"freezercore/pkg/domain"
)

// Service exposes higher-level transactional operations for the core schema.
type Service struct {
	store   PersistentStore
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// CreateFreezer persists a new freezer.
func (s *Service) CreateFreezer(ctx context.Context, name string) (Freezer, Result, error) {
	var created Freezer
	var res Result
	err := s.instrument(ctx, "create_freezer", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateFreezer(Freezer{Name: name})
			return err
		})
		return err
	})
	return created, res, err
}

// RenameFreezer changes a freezer's name, re-keying contained racks, boxes,
// and samples without audit entries.
func (s *Service) RenameFreezer(ctx context.Context, name, newName string) (Freezer, Result, error) {
	var updated Freezer
	var res Result
	err := s.instrument(ctx, "rename_freezer", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateFreezer(name, func(f *Freezer) error {
				f.Name = newName
				return nil
			})
			return err
		})
		return err
	})
	return updated, res, err
}

// DeleteFreezer removes a freezer with full cascade; every transitively
// removed sample gets one deleted audit entry attributed to the actor.
func (s *Service) DeleteFreezer(ctx context.Context, name string, actor Actor) (Result, error) {
	var res Result
	err := s.instrument(ctx, "delete_freezer", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteFreezer(name, actor)
		})
		return err
	})
	return res, err
}

// CreateRack persists a new rack in a freezer.
func (s *Service) CreateRack(ctx context.Context, freezer, id string, rows, columns int) (Rack, Result, error) {
	var created Rack
	var res Result
	err := s.instrument(ctx, "create_rack", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateRack(Rack{ID: id, FreezerName: freezer, Rows: rows, Columns: columns})
			return err
		})
		return err
	})
	return created, res, err
}

// UpdateRack mutates a rack using the provided mutator. Renames re-key
// contained boxes and samples; shrinking below an occupied slot fails.
func (s *Service) UpdateRack(ctx context.Context, freezer, id string, mutator func(*Rack) error) (Rack, Result, error) {
	var updated Rack
	var res Result
	err := s.instrument(ctx, "update_rack", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateRack(freezer, id, mutator)
			return err
		})
		return err
	})
	return updated, res, err
}

// DeleteRack removes a rack with cascade to its boxes and samples.
func (s *Service) DeleteRack(ctx context.Context, freezer, id string, actor Actor) (Result, error) {
	var res Result
	err := s.instrument(ctx, "delete_rack", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteRack(freezer, id, actor)
		})
		return err
	})
	return res, err
}

// BoxSpec carries the caller-supplied attributes of a box.
type BoxSpec struct {
	FreezerName  string
	RackID       string
	SlotID       string
	Name         string
	AssignedUser string
	Rows         int
	Columns      int
}

// SaveBox creates or updates a box. With an empty priorSlot the box is
// created at spec.SlotID, failing if that slot is occupied. With a priorSlot
// the box currently at that slot is updated; a differing spec.SlotID
// relocates it, re-keying contained samples without audit entries.
func (s *Service) SaveBox(ctx context.Context, priorSlot string, spec BoxSpec) (Box, Result, error) {
	var saved Box
	var res Result
	err := s.instrument(ctx, "save_box", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			if priorSlot == "" {
				saved, err = tx.CreateBox(Box{
					ID:           spec.SlotID,
					RackID:       spec.RackID,
					FreezerName:  spec.FreezerName,
					Name:         spec.Name,
					AssignedUser: spec.AssignedUser,
					Rows:         spec.Rows,
					Columns:      spec.Columns,
				})
				return err
			}
			key := BoxKey{FreezerName: spec.FreezerName, RackID: spec.RackID, ID: priorSlot}
			saved, err = tx.UpdateBox(key, func(b *Box) error {
				b.ID = spec.SlotID
				b.Name = spec.Name
				b.AssignedUser = spec.AssignedUser
				b.Rows = spec.Rows
				b.Columns = spec.Columns
				return nil
			})
			return err
		})
		return err
	})
	return saved, res, err
}

// DeleteBox removes a box with cascade to its samples.
func (s *Service) DeleteBox(ctx context.Context, key BoxKey, actor Actor) (Result, error) {
	var res Result
	err := s.instrument(ctx, "delete_box", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteBox(key, actor)
		})
		return err
	})
	return res, err
}

// CreateSample validates and persists a new sample, appending one created
// audit entry attributed to the actor (system sentinel when empty).
func (s *Service) CreateSample(ctx context.Context, sample Sample, actor Actor) (Sample, Result, error) {
	var created Sample
	var res Result
	err := s.instrument(ctx, "create_sample", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateSample(sample, actor)
			return err
		})
		return err
	})
	return created, res, err
}

// UpdateSample mutates a sample using the provided mutator, appending one
// updated audit entry per changed field.
func (s *Service) UpdateSample(ctx context.Context, id string, actor Actor, mutator func(*Sample) error) (Sample, Result, error) {
	var updated Sample
	var res Result
	err := s.instrument(ctx, "update_sample", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateSample(id, actor, mutator)
			return err
		})
		return err
	})
	return updated, res, err
}

// DeleteSample removes a sample, appending one deleted audit entry that
// captures its final field values.
func (s *Service) DeleteSample(ctx context.Context, id string, actor Actor) (Result, error) {
	var res Result
	err := s.instrument(ctx, "delete_sample", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteSample(id, actor)
		})
		return err
	})
	return res, err
}

// SamplesByLocation returns the samples of a box sorted by well. Empty when
// nothing matches.
func (s *Service) SamplesByLocation(freezer, rack, box string) []Sample {
	return s.store.SamplesInBox(BoxKey{FreezerName: freezer, RackID: rack, ID: box})
}

// SampleAtWell returns the sample at one well of a box, if any.
func (s *Service) SampleAtWell(freezer, rack, box, well string) (Sample, bool) {
	return s.store.SampleAtWell(BoxKey{FreezerName: freezer, RackID: rack, ID: box}, well)
}

// QueryHistory returns audit entries matching the filter, newest first.
func (s *Service) QueryHistory(filter HistoryFilter) []AuditEntry {
	return s.store.QueryHistory(filter)
}

// SampleHistory returns the full audit trail of a sample id, newest first,
// whether or not the sample still exists.
func (s *Service) SampleHistory(sampleID string) []AuditEntry {
	return s.store.SampleHistory(sampleID)
}

// Occupancy summarizes how full a box grid is.
type Occupancy struct {
	Filled int
	Total  int
}

// BoxOccupancy reports filled versus total wells of a box.
func (s *Service) BoxOccupancy(key BoxKey) (Occupancy, error) {
	box, ok := s.store.GetBox(key)
	if !ok {
		return Occupancy{}, domain.NotFoundError{Entity: domain.EntityBox, ID: key.String()}
	}
	return Occupancy{
		Filled: len(s.store.SamplesInBox(key)),
		Total:  box.Rows * box.Columns,
	}, nil
}

// CountSamplesByType aggregates live sample counts per type for one freezer,
// or across all freezers when the name is empty.
func (s *Service) CountSamplesByType(freezer string) map[SampleType]int {
	counts := make(map[SampleType]int)
	for _, sm := range s.store.ListSamples() {
		if freezer != "" && sm.Freezer != freezer {
			continue
		}
		counts[sm.Type]++
	}
	return counts
}
