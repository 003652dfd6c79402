package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func newFSStore(t *testing.T) *Filesystem {
	t.Helper()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	return store
}

func TestFilesystemRoundTrip(t *testing.T) {
	store := newFSStore(t)
	ctx := context.Background()

	put, err := store.Put(ctx, "exports/F1/R1/A1.csv", strings.NewReader("freezer,rack\n"), PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"box": "F1/R1/A1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if put.ETag == "" || put.Size == 0 {
		t.Fatalf("unexpected info %+v", put)
	}

	info, rc, err := store.Get(ctx, "exports/F1/R1/A1.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "freezer,rack\n" {
		t.Fatalf("unexpected content %q", body)
	}
	if info.Metadata["box"] != "F1/R1/A1" || info.ContentType != "text/csv" {
		t.Fatalf("unexpected metadata %+v", info)
	}

	head, err := store.Head(ctx, "exports/F1/R1/A1.csv")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.ETag != put.ETag {
		t.Fatalf("etag mismatch %s vs %s", head.ETag, put.ETag)
	}
}

func TestFilesystemPutReplaces(t *testing.T) {
	store := newFSStore(t)
	ctx := context.Background()

	if _, err := store.Put(ctx, "sheet.csv", strings.NewReader("old"), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "sheet.csv", strings.NewReader("new"), PutOptions{}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	_, rc, err := store.Get(ctx, "sheet.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "new" {
		t.Fatalf("expected replacement content, got %q", body)
	}
}

func TestFilesystemRejectsTraversal(t *testing.T) {
	store := newFSStore(t)
	ctx := context.Background()
	for _, key := range []string{"", "  ", "../escape", "/abs", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestFilesystemDeleteAndList(t *testing.T) {
	store := newFSStore(t)
	ctx := context.Background()

	for _, key := range []string{"exports/a.csv", "exports/b.csv"} {
		if _, err := store.Put(ctx, key, strings.NewReader(key), PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	existed, err := store.Delete(ctx, "exports/a.csv")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "exports/a.csv")
	if err != nil || existed {
		t.Fatalf("second delete: existed=%v err=%v", existed, err)
	}

	infos, err := store.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 1 || infos[0].Key != "exports/b.csv" {
		t.Fatalf("unexpected listing %+v", infos)
	}

	var notFound NotFoundError
	if _, _, err := store.Get(ctx, "exports/a.csv"); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestFilesystemPresign(t *testing.T) {
	store := newFSStore(t)
	ctx := context.Background()

	url, err := store.PresignURL(ctx, "exports/a.csv", SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(url, "http://local.blob/") {
		t.Fatalf("unexpected url %s", url)
	}
	if _, err := store.PresignURL(ctx, "exports/a.csv", SignedURLOptions{Method: "PUT"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for PUT, got %v", err)
	}
}
