package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Mutations on samples, and cascading
// deletes that remove samples, take the acting identity so the store can
// append the matching audit entries inside the same transaction.
type Transaction interface {
	Snapshot() TransactionView
	CreateFreezer(Freezer) (Freezer, error)
	UpdateFreezer(name string, mutator func(*Freezer) error) (Freezer, error)
	DeleteFreezer(name string, actor Actor) error
	CreateRack(Rack) (Rack, error)
	UpdateRack(freezer, id string, mutator func(*Rack) error) (Rack, error)
	DeleteRack(freezer, id string, actor Actor) error
	CreateBox(Box) (Box, error)
	UpdateBox(key BoxKey, mutator func(*Box) error) (Box, error)
	DeleteBox(key BoxKey, actor Actor) error
	CreateSample(sample Sample, actor Actor) (Sample, error)
	UpdateSample(id string, actor Actor, mutator func(*Sample) error) (Sample, error)
	DeleteSample(id string, actor Actor) error
	FindFreezer(name string) (Freezer, bool)
	FindRack(freezer, id string) (Rack, bool)
	FindBox(key BoxKey) (Box, bool)
	FindSample(id string) (Sample, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// in-transaction lookups.
type TransactionView interface {
	ListFreezers() []Freezer
	ListRacks() []Rack
	ListBoxes() []Box
	ListSamples() []Sample
	FindFreezer(name string) (Freezer, bool)
	FindRack(freezer, id string) (Rack, bool)
	FindBox(key BoxKey) (Box, bool)
	FindSample(id string) (Sample, bool)
	SamplesInBox(key BoxKey) []Sample
	SampleAtWell(key BoxKey, well string) (Sample, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetFreezer(name string) (Freezer, bool)
	ListFreezers() []Freezer
	GetRack(freezer, id string) (Rack, bool)
	ListRacks(freezer string) []Rack
	GetBox(key BoxKey) (Box, bool)
	ListBoxes(freezer, rack string) []Box
	GetSample(id string) (Sample, bool)
	ListSamples() []Sample
	SamplesInBox(key BoxKey) []Sample
	SampleAtWell(key BoxKey, well string) (Sample, bool)
	QueryHistory(filter HistoryFilter) []AuditEntry
	SampleHistory(sampleID string) []AuditEntry
}
