package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"freezercore/pkg/domain"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.db")
	store := openStore(t, path)

	key := domain.BoxKey{FreezerName: "F1", RackID: "R1", ID: "A1"}
	var created domain.Sample
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateFreezer(domain.Freezer{Name: "F1"}); err != nil {
			return err
		}
		if _, err := tx.CreateRack(domain.Rack{ID: "R1", FreezerName: "F1", Rows: 2, Columns: 2}); err != nil {
			return err
		}
		if _, err := tx.CreateBox(domain.Box{ID: "A1", RackID: "R1", FreezerName: "F1", Name: "minipreps", Rows: 2, Columns: 2}); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateSample(domain.Sample{
			Name: "S1", Type: domain.SampleTypeDNA,
			Freezer: "F1", Rack: "R1", Box: "A1", Well: "A1",
		}, domain.Actor{ID: 1, Name: "Alice"})
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openStore(t, path)
	if _, ok := reopened.GetFreezer("F1"); !ok {
		t.Fatal("expected freezer after reopen")
	}
	if box, ok := reopened.GetBox(key); !ok || box.Name != "minipreps" {
		t.Fatalf("expected box after reopen, got %+v ok=%v", box, ok)
	}
	if sm, ok := reopened.GetSample(created.ID); !ok || sm.Name != "S1" {
		t.Fatalf("expected sample after reopen, got %+v ok=%v", sm, ok)
	}
	history := reopened.SampleHistory(created.ID)
	if len(history) != 1 || history[0].Action != domain.ActionCreated {
		t.Fatalf("expected created entry after reopen, got %+v", history)
	}

	// New writes continue the audit sequence.
	if _, err := reopened.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteSample(created.ID, domain.Actor{ID: 2, Name: "Bob"})
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	history = reopened.SampleHistory(created.ID)
	if len(history) != 2 || history[0].Seq != 2 {
		t.Fatalf("expected sequence to continue after reopen, got %+v", history)
	}
}

func TestStoreDoesNotPersistFailedTransactions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.db")
	store := openStore(t, path)

	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateFreezer(domain.Freezer{Name: "F1"}); err != nil {
			return err
		}
		_, err := tx.CreateRack(domain.Rack{ID: "R1", FreezerName: "F1", Rows: 0, Columns: 2})
		return err
	}); err == nil {
		t.Fatal("expected transaction failure")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openStore(t, path)
	if freezers := reopened.ListFreezers(); len(freezers) != 0 {
		t.Fatalf("expected empty store after rollback, got %d freezers", len(freezers))
	}
}

func TestStorePathDefaulting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "inventory.db")
	store := openStore(t, path)
	if store.Path() != path {
		t.Fatalf("unexpected path %q", store.Path())
	}
	if store.DB() == nil {
		t.Fatal("expected live db handle")
	}
}
