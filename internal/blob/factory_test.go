package blob

import (
	"context"
	"testing"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	t.Setenv("FREEZERCORE_BLOB_DRIVER", "memory")
	store, err := Open(ctx)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("expected memory driver, got %s", store.Driver())
	}

	t.Setenv("FREEZERCORE_BLOB_DRIVER", "")
	t.Setenv("FREEZERCORE_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("expected fs driver, got %s", store.Driver())
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Setenv("FREEZERCORE_BLOB_DRIVER", "gcs")
	if _, err := Open(context.Background()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	t.Setenv("FREEZERCORE_BLOB_DRIVER", "s3")
	t.Setenv("FREEZERCORE_BLOB_S3_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatal("expected error when bucket is unset")
	}
}
