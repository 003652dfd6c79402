package core

import (
	"context"
	"fmt"
	"strings"

	"freezercore/pkg/domain"
	"freezercore/pkg/grid"
)

// ReconcileRow is one desired-state row of a box reconciliation batch. A row
// with a blank SampleName marks its well as empty.
type ReconcileRow struct {
	Freezer     string `json:"freezer"`
	Rack        string `json:"rack"`
	Box         string `json:"box"`
	Well        string `json:"well"`
	SampleName  string `json:"sample_name"`
	SampleType  string `json:"sample_type"`
	Owner       string `json:"owner"`
	Notes       string `json:"notes"`
	Species     string `json:"species"`
	Resistance  string `json:"resistance"`
	DateCreated string `json:"date_created"`
	Strain      string `json:"strain"`
	OGTR        string `json:"ogtr"`
	DAFF        string `json:"daff"`
}

// ReconcileResult summarizes an applied reconciliation batch. When Errors is
// non-empty nothing was applied and the counters are zero.
type ReconcileResult struct {
	Added   int      `json:"added"`
	Updated int      `json:"updated"`
	Deleted int      `json:"deleted"`
	Errors  []string `json:"errors,omitempty"`
}

// ReconcileBox drives the contents of one box toward the desired state
// expressed by rows. Validation failures are collected per row and reported
// without applying anything; a valid batch applies in a single transaction,
// emitting the same audit entries the equivalent create, update, and delete
// operations would.
func (s *Service) ReconcileBox(ctx context.Context, key BoxKey, rows []ReconcileRow, actor Actor) (ReconcileResult, error) {
	var result ReconcileResult
	err := s.instrument(ctx, "reconcile_box", func(ctx context.Context) error {
		box, ok := s.store.GetBox(key)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityBox, ID: key.String()}
		}

		desired := make(map[string]ReconcileRow)
		var errs []string
		for i, row := range rows {
			lineNo := i + 1
			if row.Freezer != key.FreezerName || row.Rack != key.RackID || row.Box != key.ID {
				errs = append(errs, fmt.Sprintf("row %d: location %s/%s/%s does not match target box %s", lineNo, row.Freezer, row.Rack, row.Box, key))
				continue
			}
			coord, err := grid.ParseCoordinate(row.Well)
			if err != nil {
				errs = append(errs, fmt.Sprintf("row %d: %v", lineNo, err))
				continue
			}
			well := coord.Label()
			if err := grid.ValidateWithinBounds(well, box.Rows, box.Columns); err != nil {
				errs = append(errs, fmt.Sprintf("row %d: %v", lineNo, err))
				continue
			}
			if _, dup := desired[well]; dup {
				errs = append(errs, fmt.Sprintf("row %d: duplicate well %s in batch", lineNo, well))
				continue
			}
			if strings.TrimSpace(row.SampleName) != "" {
				if len(row.SampleName) > domain.MaxSampleNameLength {
					errs = append(errs, fmt.Sprintf("row %d: sample name exceeds %d characters", lineNo, domain.MaxSampleNameLength))
					continue
				}
				if !domain.SampleType(row.SampleType).Valid() {
					errs = append(errs, fmt.Sprintf("row %d: invalid sample type %q", lineNo, row.SampleType))
					continue
				}
			}
			desired[well] = row
		}
		if len(errs) > 0 {
			result.Errors = errs
			return nil
		}

		existing := make(map[string]Sample)
		for _, sm := range s.store.SamplesInBox(key) {
			existing[sm.Well] = sm
		}

		var applied ReconcileResult
		_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			for _, well := range grid.Wells(box.Rows, box.Columns) {
				row, requested := desired[well]
				if !requested {
					continue
				}
				current, occupied := existing[well]
				blank := strings.TrimSpace(row.SampleName) == ""
				switch {
				case blank && occupied:
					if err := tx.DeleteSample(current.ID, actor); err != nil {
						return err
					}
					applied.Deleted++
				case blank:
					// empty well stays empty
				case occupied:
					before := current
					after, err := tx.UpdateSample(current.ID, actor, func(sm *Sample) error {
						applyRow(sm, row)
						return nil
					})
					if err != nil {
						return err
					}
					if len(domain.SampleFieldDiffs(before, after)) > 0 {
						applied.Updated++
					}
				default:
					sm := Sample{
						Freezer: key.FreezerName,
						Rack:    key.RackID,
						Box:     key.ID,
						Well:    well,
					}
					applyRow(&sm, row)
					if _, err := tx.CreateSample(sm, actor); err != nil {
						return err
					}
					applied.Added++
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		result = applied
		return nil
	})
	return result, err
}

func applyRow(sm *Sample, row ReconcileRow) {
	sm.Name = row.SampleName
	sm.Type = domain.SampleType(row.SampleType)
	sm.Owner = row.Owner
	sm.Notes = row.Notes
	sm.Species = row.Species
	sm.Resistance = row.Resistance
	sm.DateCreated = row.DateCreated
	sm.Strain = row.Strain
	sm.OGTR = row.OGTR
	sm.DAFF = row.DAFF
}

// BoxTemplate renders the current state of a box as one reconcile row per
// well, in row-major well order, with blank sample fields for empty wells.
func (s *Service) BoxTemplate(key BoxKey) ([]ReconcileRow, error) {
	box, ok := s.store.GetBox(key)
	if !ok {
		return nil, domain.NotFoundError{Entity: domain.EntityBox, ID: key.String()}
	}
	occupants := make(map[string]Sample)
	for _, sm := range s.store.SamplesInBox(key) {
		occupants[sm.Well] = sm
	}
	wells := grid.Wells(box.Rows, box.Columns)
	rows := make([]ReconcileRow, 0, len(wells))
	for _, well := range wells {
		row := ReconcileRow{
			Freezer: key.FreezerName,
			Rack:    key.RackID,
			Box:     key.ID,
			Well:    well,
		}
		if sm, ok := occupants[well]; ok {
			row.SampleName = sm.Name
			row.SampleType = string(sm.Type)
			row.Owner = sm.Owner
			row.Notes = sm.Notes
			row.Species = sm.Species
			row.Resistance = sm.Resistance
			row.DateCreated = sm.DateCreated
			row.Strain = sm.Strain
			row.OGTR = sm.OGTR
			row.DAFF = sm.DAFF
		}
		rows = append(rows, row)
	}
	return rows, nil
}
