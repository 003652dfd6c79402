// Package core exposes the high-level service operations of freezercore:
// location hierarchy management, audited sample mutations, history queries,
// and bulk reconciliation, layered over a pluggable persistent store.
package core

import "freezercore/pkg/domain"

// Aliases keep service signatures concise while exposing domain types from
// this package.
type (
	// Freezer aliases domain.Freezer.
	Freezer = domain.Freezer
	// Rack aliases domain.Rack.
	Rack = domain.Rack
	// Box aliases domain.Box.
	Box = domain.Box
	// BoxKey aliases domain.BoxKey.
	BoxKey = domain.BoxKey
	// Sample aliases domain.Sample.
	Sample = domain.Sample
	// SampleType aliases domain.SampleType.
	SampleType = domain.SampleType
	// Actor aliases domain.Actor.
	Actor = domain.Actor
	// AuditEntry aliases domain.AuditEntry.
	AuditEntry = domain.AuditEntry
	// HistoryFilter aliases domain.HistoryFilter.
	HistoryFilter = domain.HistoryFilter
	// Change aliases domain.Change.
	Change = domain.Change
	// Result aliases domain.Result.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore.
	PersistentStore = domain.PersistentStore
)

// EntityType aliases domain.EntityType.
type EntityType = domain.EntityType

// Entity identifiers re-exported for callers of this package.
const (
	EntityFreezer = domain.EntityFreezer
	EntityRack    = domain.EntityRack
	EntityBox     = domain.EntityBox
	EntitySample  = domain.EntitySample
)
