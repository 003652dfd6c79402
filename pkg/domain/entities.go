// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by freezercore.
package domain

import (
	"fmt"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityFreezer identifies a freezer record.
	EntityFreezer EntityType = "freezer"
	// EntityRack identifies a rack record.
	EntityRack EntityType = "rack"
	// EntityBox identifies a box record.
	EntityBox EntityType = "box"
	// EntitySample identifies a sample record.
	EntitySample EntityType = "sample"
	// EntityAuditEntry identifies an append-only audit log record.
	EntityAuditEntry EntityType = "audit_entry"
)

// SampleType enumerates the allowed sample material categories.
type SampleType string

// Canonical sample types accepted on create, update, and bulk upload.
const (
	SampleTypeCellLine SampleType = "Cell Line"
	SampleTypeDNA      SampleType = "DNA"
	SampleTypeRNA      SampleType = "RNA"
	SampleTypeProtein  SampleType = "Protein"
	SampleTypeOther    SampleType = "Other"
)

// SampleTypes returns the allowed sample types in display order.
func SampleTypes() []SampleType {
	return []SampleType{SampleTypeCellLine, SampleTypeDNA, SampleTypeRNA, SampleTypeProtein, SampleTypeOther}
}

// Valid reports whether t is one of the canonical sample types.
func (t SampleType) Valid() bool {
	switch t {
	case SampleTypeCellLine, SampleTypeDNA, SampleTypeRNA, SampleTypeProtein, SampleTypeOther:
		return true
	}
	return false
}

// Grid and field limits shared by the hierarchy and sample stores.
const (
	// MinGridDim is the smallest accepted rack or box dimension.
	MinGridDim = 1
	// MaxGridDim is the largest accepted rack or box dimension.
	MaxGridDim = 20
	// MaxSampleNameLength bounds the sample display name.
	MaxSampleNameLength = 100
)

// Freezer is the root of the storage hierarchy, keyed by its unique name.
type Freezer struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rack is a slotted grid owned by exactly one freezer. Its ID is unique
// within that freezer.
type Rack struct {
	ID          string    `json:"id"`
	FreezerName string    `json:"freezer_name"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Box occupies one slot of its parent rack's grid and owns an independent
// well grid for samples. Its ID is the slot coordinate within the rack, so
// relocating a box is a rename of its ID.
type Box struct {
	ID           string    `json:"id"`
	RackID       string    `json:"rack_id"`
	FreezerName  string    `json:"freezer_name"`
	Name         string    `json:"name"`
	AssignedUser string    `json:"assigned_user"`
	Rows         int       `json:"rows"`
	Columns      int       `json:"columns"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Key returns the composite identity of the box.
func (b Box) Key() BoxKey {
	return BoxKey{FreezerName: b.FreezerName, RackID: b.RackID, ID: b.ID}
}

// BoxKey is the composite identity (freezer, rack, slot) of a box.
type BoxKey struct {
	FreezerName string `json:"freezer_name"`
	RackID      string `json:"rack_id"`
	ID          string `json:"id"`
}

func (k BoxKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.FreezerName, k.RackID, k.ID)
}

// Sample is a stored specimen positioned at one well of a box. Its ID is an
// opaque surrogate assigned at creation and never reused.
type Sample struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        SampleType `json:"type"`
	Freezer     string     `json:"freezer"`
	Rack        string     `json:"rack"`
	Box         string     `json:"box"`
	Well        string     `json:"well"`
	Owner       string     `json:"owner"`
	Notes       string     `json:"notes"`
	Species     string     `json:"species"`
	Resistance  string     `json:"resistance"`
	DateCreated string     `json:"date_created"`
	Strain      string     `json:"strain"`
	OGTR        string     `json:"ogtr"`
	DAFF        string     `json:"daff"`
	DateAdded   time.Time  `json:"date_added"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BoxKey returns the composite identity of the box the sample lives in.
func (s Sample) BoxKey() BoxKey {
	return BoxKey{FreezerName: s.Freezer, RackID: s.Rack, ID: s.Box}
}

// Actor identifies who performed a mutation for audit attribution.
type Actor struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SystemActor is the sentinel attribution used when no authenticated actor
// is supplied.
var SystemActor = Actor{ID: 0, Name: "System"}

// OrSystem returns the actor itself, or SystemActor when a is the zero value.
func (a Actor) OrSystem() Actor {
	if a == (Actor{}) {
		return SystemActor
	}
	return a
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the audit trail.
const (
	// ActionCreated indicates an entity was created.
	ActionCreated Action = "created"
	// ActionUpdated indicates an entity was updated.
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
