package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"freezercore/internal/core"
)

// boxSheetColumns is the fixed column order of a rendered box sheet. It
// matches the ReconcileRow layout so an exported sheet can be edited and fed
// back through reconciliation unchanged.
var boxSheetColumns = []string{
	"freezer", "rack", "box", "well",
	"sample_name", "sample_type", "owner", "notes",
	"species", "resistance", "date_created", "strain", "ogtr", "daff",
}

func renderBoxSheet(rows []core.ReconcileRow, format Format) (string, string, error) {
	switch format {
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write(boxSheetColumns); err != nil {
			return "", "", err
		}
		for _, row := range rows {
			record := []string{
				row.Freezer, row.Rack, row.Box, row.Well,
				row.SampleName, row.SampleType, row.Owner, row.Notes,
				row.Species, row.Resistance, row.DateCreated, row.Strain, row.OGTR, row.DAFF,
			}
			if err := writer.Write(record); err != nil {
				return "", "", err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return "", "", err
		}
		return buf.String(), "text/csv", nil
	case FormatJSON:
		payload, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return "", "", err
		}
		return string(payload), "application/json", nil
	default:
		return "", "", fmt.Errorf("unknown export format %q", format)
	}
}

var auditColumns = []string{
	"seq", "timestamp", "action", "field", "old_value", "new_value",
	"actor_id", "actor_name", "sample_id", "sample_name",
	"freezer", "rack", "box", "well",
}

func renderAuditHistory(entries []core.AuditEntry, format Format) (string, string, error) {
	switch format {
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write(auditColumns); err != nil {
			return "", "", err
		}
		for _, entry := range entries {
			record := []string{
				strconv.FormatInt(entry.Seq, 10),
				entry.Timestamp.UTC().Format(time.RFC3339),
				string(entry.Action),
				entry.Field,
				entry.OldValue,
				entry.NewValue,
				strconv.Itoa(entry.Actor.ID),
				entry.Actor.Name,
				entry.SampleID,
				entry.SampleName,
				entry.Freezer,
				entry.Rack,
				entry.Box,
				entry.Well,
			}
			if err := writer.Write(record); err != nil {
				return "", "", err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return "", "", err
		}
		return buf.String(), "text/csv", nil
	case FormatJSON:
		payload, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return "", "", err
		}
		return string(payload), "application/json", nil
	default:
		return "", "", fmt.Errorf("unknown export format %q", format)
	}
}
