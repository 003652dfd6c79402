// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"freezercore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Freezer aliases domain.Freezer for in-memory persistence operations.
	Freezer = domain.Freezer
	// Rack aliases domain.Rack.
	Rack = domain.Rack
	// Box aliases domain.Box.
	Box = domain.Box
	// BoxKey aliases domain.BoxKey.
	BoxKey = domain.BoxKey
	// Sample aliases domain.Sample.
	Sample = domain.Sample
	// Actor aliases domain.Actor attributed to audited mutations.
	Actor = domain.Actor
	// AuditEntry aliases domain.AuditEntry.
	AuditEntry = domain.AuditEntry
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type rackKey struct {
	Freezer string
	ID      string
}

type memoryState struct {
	freezers map[string]Freezer
	racks    map[rackKey]Rack
	boxes    map[BoxKey]Box
	samples  map[string]Sample
	history  []AuditEntry
	seq      int64
}

// Snapshot captures a point-in-time clone of the store state. Entities are
// serialized as sorted slices so snapshots are deterministic.
type Snapshot struct {
	Freezers []Freezer    `json:"freezers"`
	Racks    []Rack       `json:"racks"`
	Boxes    []Box        `json:"boxes"`
	Samples  []Sample     `json:"samples"`
	History  []AuditEntry `json:"history"`
	Seq      int64        `json:"seq"`
}

func newMemoryState() memoryState {
	return memoryState{
		freezers: make(map[string]Freezer),
		racks:    make(map[rackKey]Rack),
		boxes:    make(map[BoxKey]Box),
		samples:  make(map[string]Sample),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.freezers {
		cloned.freezers[k] = v
	}
	for k, v := range s.racks {
		cloned.racks[k] = v
	}
	for k, v := range s.boxes {
		cloned.boxes[k] = v
	}
	for k, v := range s.samples {
		cloned.samples[k] = v
	}
	cloned.history = append([]AuditEntry(nil), s.history...)
	cloned.seq = s.seq
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	snap := Snapshot{
		Freezers: make([]Freezer, 0, len(state.freezers)),
		Racks:    make([]Rack, 0, len(state.racks)),
		Boxes:    make([]Box, 0, len(state.boxes)),
		Samples:  make([]Sample, 0, len(state.samples)),
		History:  append([]AuditEntry(nil), state.history...),
		Seq:      state.seq,
	}
	for _, f := range state.freezers {
		snap.Freezers = append(snap.Freezers, f)
	}
	for _, r := range state.racks {
		snap.Racks = append(snap.Racks, r)
	}
	for _, b := range state.boxes {
		snap.Boxes = append(snap.Boxes, b)
	}
	for _, sm := range state.samples {
		snap.Samples = append(snap.Samples, sm)
	}
	sort.Slice(snap.Freezers, func(i, j int) bool { return snap.Freezers[i].Name < snap.Freezers[j].Name })
	sort.Slice(snap.Racks, func(i, j int) bool {
		a, b := snap.Racks[i], snap.Racks[j]
		if a.FreezerName != b.FreezerName {
			return a.FreezerName < b.FreezerName
		}
		return a.ID < b.ID
	})
	sort.Slice(snap.Boxes, func(i, j int) bool {
		return snap.Boxes[i].Key().String() < snap.Boxes[j].Key().String()
	})
	sort.Slice(snap.Samples, func(i, j int) bool { return snap.Samples[i].ID < snap.Samples[j].ID })
	return snap
}

func memoryStateFromSnapshot(snap Snapshot) memoryState {
	state := newMemoryState()
	for _, f := range snap.Freezers {
		state.freezers[f.Name] = f
	}
	for _, r := range snap.Racks {
		state.racks[rackKey{Freezer: r.FreezerName, ID: r.ID}] = r
	}
	for _, b := range snap.Boxes {
		state.boxes[b.Key()] = b
	}
	for _, sm := range snap.Samples {
		state.samples[sm.ID] = sm
	}
	state.history = append([]AuditEntry(nil), snap.History...)
	state.seq = snap.Seq
	if state.seq == 0 && len(state.history) > 0 {
		state.seq = state.history[len(state.history)-1].Seq
	}
	return state
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListFreezers returns all freezers within the snapshot, sorted by name.
func (v transactionView) ListFreezers() []Freezer {
	out := make([]Freezer, 0, len(v.state.freezers))
	for _, f := range v.state.freezers {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListRacks returns all racks within the snapshot.
func (v transactionView) ListRacks() []Rack {
	out := make([]Rack, 0, len(v.state.racks))
	for _, r := range v.state.racks {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FreezerName != out[j].FreezerName {
			return out[i].FreezerName < out[j].FreezerName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ListBoxes returns all boxes within the snapshot.
func (v transactionView) ListBoxes() []Box {
	out := make([]Box, 0, len(v.state.boxes))
	for _, b := range v.state.boxes {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().String() < out[j].Key().String() })
	return out
}

// ListSamples returns all samples within the snapshot.
func (v transactionView) ListSamples() []Sample {
	out := make([]Sample, 0, len(v.state.samples))
	for _, sm := range v.state.samples {
		out = append(out, sm)
	}
	sortSamples(out)
	return out
}

// FindFreezer retrieves a freezer by name from the snapshot.
func (v transactionView) FindFreezer(name string) (Freezer, bool) {
	f, ok := v.state.freezers[name]
	return f, ok
}

// FindRack retrieves a rack by freezer and id from the snapshot.
func (v transactionView) FindRack(freezer, id string) (Rack, bool) {
	r, ok := v.state.racks[rackKey{Freezer: freezer, ID: id}]
	return r, ok
}

// FindBox retrieves a box by its composite key from the snapshot.
func (v transactionView) FindBox(key BoxKey) (Box, bool) {
	b, ok := v.state.boxes[key]
	return b, ok
}

// FindSample retrieves a sample by ID from the snapshot.
func (v transactionView) FindSample(id string) (Sample, bool) {
	sm, ok := v.state.samples[id]
	return sm, ok
}

// SamplesInBox returns the samples stored in the given box, sorted by well.
func (v transactionView) SamplesInBox(key BoxKey) []Sample {
	return samplesInBox(v.state, key)
}

// SampleAtWell returns the sample occupying a well of the given box, if any.
func (v transactionView) SampleAtWell(key BoxKey, well string) (Sample, bool) {
	return sampleAtWell(v.state, key, well)
}

func samplesInBox(state *memoryState, key BoxKey) []Sample {
	var out []Sample
	for _, sm := range state.samples {
		if sm.BoxKey() == key {
			out = append(out, sm)
		}
	}
	sortSamples(out)
	return out
}

func sampleAtWell(state *memoryState, key BoxKey, well string) (Sample, bool) {
	for _, sm := range state.samples {
		if sm.BoxKey() == key && sm.Well == well {
			return sm, true
		}
	}
	return Sample{}, false
}

func sortSamples(samples []Sample) {
	sort.Slice(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		if a.Freezer != b.Freezer {
			return a.Freezer < b.Freezer
		}
		if a.Rack != b.Rack {
			return a.Rack < b.Rack
		}
		if a.Box != b.Box {
			return a.Box < b.Box
		}
		if a.Well != b.Well {
			return a.Well < b.Well
		}
		return a.ID < b.ID
	})
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindFreezer exposes freezer lookup within the transaction scope.
func (tx *transaction) FindFreezer(name string) (Freezer, bool) {
	f, ok := tx.state.freezers[name]
	return f, ok
}

// FindRack exposes rack lookup within the transaction scope.
func (tx *transaction) FindRack(freezer, id string) (Rack, bool) {
	r, ok := tx.state.racks[rackKey{Freezer: freezer, ID: id}]
	return r, ok
}

// FindBox exposes box lookup within the transaction scope.
func (tx *transaction) FindBox(key BoxKey) (Box, bool) {
	b, ok := tx.state.boxes[key]
	return b, ok
}

// FindSample exposes sample lookup within the transaction scope.
func (tx *transaction) FindSample(id string) (Sample, bool) {
	sm, ok := tx.state.samples[id]
	return sm, ok
}

// GetFreezer retrieves a freezer by name.
func (s *Store) GetFreezer(name string) (Freezer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.state.freezers[name]
	return f, ok
}

// ListFreezers returns all freezers sorted by name.
func (s *Store) ListFreezers() []Freezer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := transactionView{state: &s.state}
	return view.ListFreezers()
}

// GetRack retrieves a rack by freezer name and rack id.
func (s *Store) GetRack(freezer, id string) (Rack, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.racks[rackKey{Freezer: freezer, ID: id}]
	return r, ok
}

// ListRacks returns the racks of a freezer sorted by id.
func (s *Store) ListRacks(freezer string) []Rack {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Rack
	for _, r := range s.state.racks {
		if r.FreezerName == freezer {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetBox retrieves a box by its composite key.
func (s *Store) GetBox(key BoxKey) (Box, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.boxes[key]
	return b, ok
}

// ListBoxes returns the boxes of a rack sorted by slot id.
func (s *Store) ListBoxes(freezer, rack string) []Box {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Box
	for _, b := range s.state.boxes {
		if b.FreezerName == freezer && b.RackID == rack {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetSample retrieves a sample by ID.
func (s *Store) GetSample(id string) (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sm, ok := s.state.samples[id]
	return sm, ok
}

// ListSamples returns all samples sorted by location.
func (s *Store) ListSamples() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := transactionView{state: &s.state}
	return view.ListSamples()
}

// SamplesInBox returns the samples stored in the given box, sorted by well.
func (s *Store) SamplesInBox(key BoxKey) []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return samplesInBox(&s.state, key)
}

// SampleAtWell returns the sample occupying a well of the given box, if any.
func (s *Store) SampleAtWell(key BoxKey, well string) (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sampleAtWell(&s.state, key, well)
}

// QueryHistory returns audit entries matching the filter, newest first.
func (s *Store) QueryHistory(filter domain.HistoryFilter) []AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []AuditEntry
	for i := len(s.state.history) - 1; i >= 0; i-- {
		if filter.Matches(s.state.history[i]) {
			out = append(out, s.state.history[i])
		}
	}
	return out
}

// SampleHistory returns all audit entries for a sample id, newest first,
// whether or not the sample still exists.
func (s *Store) SampleHistory(sampleID string) []AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []AuditEntry
	for i := len(s.state.history) - 1; i >= 0; i-- {
		if s.state.history[i].SampleID == sampleID {
			out = append(out, s.state.history[i])
		}
	}
	return out
}
