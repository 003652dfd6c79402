package domain

// Audit field names recorded for sample updates. These match the column
// names of the bulk upload table so history entries read the same whether a
// change arrived through a single edit or a reconciled snapshot.
const (
	FieldSampleName  = "sample_name"
	FieldSampleType  = "sample_type"
	FieldWell        = "well"
	FieldOwner       = "owner"
	FieldNotes       = "notes"
	FieldSpecies     = "species"
	FieldResistance  = "resistance"
	FieldDateCreated = "date_created"
	FieldStrain      = "strain"
	FieldOGTR        = "ogtr"
	FieldDAFF        = "daff"
)

// FieldChange captures one changed sample field with its old and new values
// rendered as strings.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// SampleFieldDiffs compares two samples field by field and returns one
// FieldChange per differing auditable field, in a fixed order.
func SampleFieldDiffs(before, after Sample) []FieldChange {
	pairs := []struct {
		field    string
		old, new string
	}{
		{FieldSampleName, before.Name, after.Name},
		{FieldSampleType, string(before.Type), string(after.Type)},
		{FieldWell, before.Well, after.Well},
		{FieldOwner, before.Owner, after.Owner},
		{FieldNotes, before.Notes, after.Notes},
		{FieldSpecies, before.Species, after.Species},
		{FieldResistance, before.Resistance, after.Resistance},
		{FieldDateCreated, before.DateCreated, after.DateCreated},
		{FieldStrain, before.Strain, after.Strain},
		{FieldOGTR, before.OGTR, after.OGTR},
		{FieldDAFF, before.DAFF, after.DAFF},
	}
	var changes []FieldChange
	for _, p := range pairs {
		if p.old != p.new {
			changes = append(changes, FieldChange{Field: p.field, OldValue: p.old, NewValue: p.new})
		}
	}
	return changes
}
