package core

import (
	"context"
	"errors"
	"testing"

	"freezercore/pkg/domain"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewInMemoryService(domain.NewRulesEngine())
}

func seedHierarchy(t *testing.T, svc *Service) BoxKey {
	t.Helper()
	ctx := context.Background()
	if _, _, err := svc.CreateFreezer(ctx, "F1"); err != nil {
		t.Fatalf("create freezer: %v", err)
	}
	if _, _, err := svc.CreateRack(ctx, "F1", "R1", 4, 4); err != nil {
		t.Fatalf("create rack: %v", err)
	}
	box, _, err := svc.SaveBox(ctx, "", BoxSpec{
		FreezerName: "F1",
		RackID:      "R1",
		SlotID:      "A1",
		Name:        "plasmids",
		Rows:        8,
		Columns:     12,
	})
	if err != nil {
		t.Fatalf("create box: %v", err)
	}
	return box.Key()
}

func TestCreateSampleAndWellConflict(t *testing.T) {
	svc := newTestService(t)
	key := seedHierarchy(t, svc)
	ctx := context.Background()

	sample := Sample{
		Name:    "pUC19 midi",
		Type:    domain.SampleTypeDNA,
		Freezer: key.FreezerName,
		Rack:    key.RackID,
		Box:     key.ID,
		Well:    "A1",
		Owner:   "rosa",
	}
	created, _, err := svc.CreateSample(ctx, sample, Actor{ID: 7, Name: "rosa"})
	if err != nil {
		t.Fatalf("create sample: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated sample id")
	}

	_, _, err = svc.CreateSample(ctx, sample, Actor{ID: 7, Name: "rosa"})
	var conflict domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError for occupied well, got %v", err)
	}
}

func TestCreateSampleDefaultsToSystemActor(t *testing.T) {
	svc := newTestService(t)
	key := seedHierarchy(t, svc)

	created, _, err := svc.CreateSample(context.Background(), Sample{
		Name:    "library prep",
		Type:    domain.SampleTypeRNA,
		Freezer: key.FreezerName,
		Rack:    key.RackID,
		Box:     key.ID,
		Well:    "B2",
	}, Actor{})
	if err != nil {
		t.Fatalf("create sample: %v", err)
	}

	history := svc.SampleHistory(created.ID)
	if len(history) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(history))
	}
	if history[0].Actor != domain.SystemActor {
		t.Fatalf("expected system actor, got %+v", history[0].Actor)
	}
}

func TestSaveBoxRelocatesSamplesWithoutAudit(t *testing.T) {
	svc := newTestService(t)
	key := seedHierarchy(t, svc)
	ctx := context.Background()

	created, _, err := svc.CreateSample(ctx, Sample{
		Name:    "gDNA mouse 12",
		Type:    domain.SampleTypeDNA,
		Freezer: key.FreezerName,
		Rack:    key.RackID,
		Box:     key.ID,
		Well:    "C3",
	}, Actor{ID: 2, Name: "li"})
	if err != nil {
		t.Fatalf("create sample: %v", err)
	}
	auditBefore := len(svc.SampleHistory(created.ID))

	moved, _, err := svc.SaveBox(ctx, key.ID, BoxSpec{
		FreezerName: key.FreezerName,
		RackID:      key.RackID,
		SlotID:      "B2",
		Name:        "plasmids",
		Rows:        8,
		Columns:     12,
	})
	if err != nil {
		t.Fatalf("relocate box: %v", err)
	}
	if moved.ID != "B2" {
		t.Fatalf("expected box slot B2, got %s", moved.ID)
	}

	got, ok := svc.SampleAtWell(key.FreezerName, key.RackID, "B2", "C3")
	if !ok {
		t.Fatal("expected sample to follow box to new slot")
	}
	if got.ID != created.ID {
		t.Fatalf("unexpected sample %s at relocated well", got.ID)
	}
	if len(svc.SampleHistory(created.ID)) != auditBefore {
		t.Fatal("relocation must not append audit entries")
	}
}

func TestBoxOccupancy(t *testing.T) {
	svc := newTestService(t)
	key := seedHierarchy(t, svc)
	ctx := context.Background()

	for _, well := range []string{"A1", "A2", "H12"} {
		if _, _, err := svc.CreateSample(ctx, Sample{
			Name:    "aliquot " + well,
			Type:    domain.SampleTypeProtein,
			Freezer: key.FreezerName,
			Rack:    key.RackID,
			Box:     key.ID,
			Well:    well,
		}, Actor{}); err != nil {
			t.Fatalf("create sample at %s: %v", well, err)
		}
	}

	occ, err := svc.BoxOccupancy(key)
	if err != nil {
		t.Fatalf("occupancy: %v", err)
	}
	if occ.Filled != 3 || occ.Total != 96 {
		t.Fatalf("expected 3/96, got %d/%d", occ.Filled, occ.Total)
	}

	if _, err := svc.BoxOccupancy(BoxKey{FreezerName: "F1", RackID: "R1", ID: "D4"}); err == nil {
		t.Fatal("expected error for unknown box")
	}
}

func TestCountSamplesByType(t *testing.T) {
	svc := newTestService(t)
	key := seedHierarchy(t, svc)
	ctx := context.Background()

	cases := []struct {
		well string
		typ  SampleType
	}{
		{"A1", domain.SampleTypeDNA},
		{"A2", domain.SampleTypeDNA},
		{"A3", domain.SampleTypeCellLine},
	}
	for _, tc := range cases {
		if _, _, err := svc.CreateSample(ctx, Sample{
			Name:    "s " + tc.well,
			Type:    tc.typ,
			Freezer: key.FreezerName,
			Rack:    key.RackID,
			Box:     key.ID,
			Well:    tc.well,
		}, Actor{}); err != nil {
			t.Fatalf("create sample: %v", err)
		}
	}

	counts := svc.CountSamplesByType("F1")
	if counts[domain.SampleTypeDNA] != 2 || counts[domain.SampleTypeCellLine] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	if len(svc.CountSamplesByType("F2")) != 0 {
		t.Fatal("expected empty counts for unknown freezer")
	}
}

func TestUpdateSampleAuditsPerField(t *testing.T) {
	svc := newTestService(t)
	key := seedHierarchy(t, svc)
	ctx := context.Background()

	created, _, err := svc.CreateSample(ctx, Sample{
		Name:    "clone 4",
		Type:    domain.SampleTypeCellLine,
		Freezer: key.FreezerName,
		Rack:    key.RackID,
		Box:     key.ID,
		Well:    "D4",
	}, Actor{ID: 3, Name: "kim"})
	if err != nil {
		t.Fatalf("create sample: %v", err)
	}

	_, _, err = svc.UpdateSample(ctx, created.ID, Actor{ID: 3, Name: "kim"}, func(sm *Sample) error {
		sm.Owner = "kim"
		sm.Notes = "passage 12"
		return nil
	})
	if err != nil {
		t.Fatalf("update sample: %v", err)
	}

	history := svc.SampleHistory(created.ID)
	if len(history) != 3 {
		t.Fatalf("expected created + 2 updated entries, got %d", len(history))
	}
	fields := map[string]bool{}
	for _, entry := range history {
		if entry.Action == domain.ActionUpdated {
			fields[entry.Field] = true
		}
	}
	if !fields[domain.FieldOwner] || !fields[domain.FieldNotes] {
		t.Fatalf("expected owner and notes audits, got %v", fields)
	}
}

func TestDeleteFreezerCascade(t *testing.T) {
	svc := newTestService(t)
	key := seedHierarchy(t, svc)
	ctx := context.Background()

	created, _, err := svc.CreateSample(ctx, Sample{
		Name:    "stock",
		Type:    domain.SampleTypeOther,
		Freezer: key.FreezerName,
		Rack:    key.RackID,
		Box:     key.ID,
		Well:    "A1",
	}, Actor{})
	if err != nil {
		t.Fatalf("create sample: %v", err)
	}

	if _, err := svc.DeleteFreezer(ctx, "F1", Actor{ID: 9, Name: "ops"}); err != nil {
		t.Fatalf("delete freezer: %v", err)
	}

	if len(svc.SamplesByLocation("F1", "R1", "A1")) != 0 {
		t.Fatal("expected no samples after cascade")
	}
	history := svc.SampleHistory(created.ID)
	if len(history) != 2 {
		t.Fatalf("expected created + deleted entries, got %d", len(history))
	}
	if history[0].Action != domain.ActionDeleted || history[0].Actor.Name != "ops" {
		t.Fatalf("unexpected head entry %+v", history[0])
	}
}

func TestRenameFreezerKeepsSamplesReachable(t *testing.T) {
	svc := newTestService(t)
	key := seedHierarchy(t, svc)
	ctx := context.Background()

	if _, _, err := svc.CreateSample(ctx, Sample{
		Name:    "ref",
		Type:    domain.SampleTypeDNA,
		Freezer: key.FreezerName,
		Rack:    key.RackID,
		Box:     key.ID,
		Well:    "A1",
	}, Actor{}); err != nil {
		t.Fatalf("create sample: %v", err)
	}

	if _, _, err := svc.RenameFreezer(ctx, "F1", "Minus80-East"); err != nil {
		t.Fatalf("rename freezer: %v", err)
	}

	if got := svc.SamplesByLocation("Minus80-East", "R1", "A1"); len(got) != 1 {
		t.Fatalf("expected sample under new freezer name, got %d", len(got))
	}
	if got := svc.SamplesByLocation("F1", "R1", "A1"); len(got) != 0 {
		t.Fatal("old freezer name must not resolve")
	}
}

func TestDefaultRulesEngineWarnsOnFullBox(t *testing.T) {
	svc := NewInMemoryService(nil)
	ctx := context.Background()
	if _, _, err := svc.CreateFreezer(ctx, "F1"); err != nil {
		t.Fatalf("create freezer: %v", err)
	}
	if _, _, err := svc.CreateRack(ctx, "F1", "R1", 2, 2); err != nil {
		t.Fatalf("create rack: %v", err)
	}
	if _, _, err := svc.SaveBox(ctx, "", BoxSpec{
		FreezerName: "F1", RackID: "R1", SlotID: "A1", Name: "tiny", Rows: 1, Columns: 1,
	}); err != nil {
		t.Fatalf("create box: %v", err)
	}

	_, res, err := svc.CreateSample(ctx, Sample{
		Name: "only", Type: domain.SampleTypeDNA,
		Freezer: "F1", Rack: "R1", Box: "A1", Well: "A1",
	}, Actor{})
	if err != nil {
		t.Fatalf("create sample: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Rule != "box_capacity" {
		t.Fatalf("expected box_capacity warning, got %+v", res.Violations)
	}
	if res.HasBlocking() {
		t.Fatal("capacity warning must not block")
	}
}
