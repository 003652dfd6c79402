package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

type recordingT struct {
	failed  bool
	message string
}

func (r *recordingT) Fatalf(format string, args ...any) {
	r.failed = true
	r.message = format
	_ = args
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "ok.go", "package tmp\nimport \"fmt\"\nvar _ = fmt.Sprint\n")
	writeSource(t, dir, "bad.go", "package tmp\nimport _ \"freezercore/internal/core\"\n")
	writeSource(t, dir, "skip_test.go", "package tmp\nimport _ \"freezercore/internal/export\"\n")

	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "bad.go") {
		t.Fatalf("unexpected violations %v", viols)
	}
}

func TestFailIfViolations(t *testing.T) {
	rec := &recordingT{}
	failIfViolations(rec, "forbidden direct imports detected", "reason", nil)
	if rec.failed {
		t.Fatal("no violations must not fail")
	}
	failIfViolations(rec, "forbidden direct imports detected", "reason", []string{"x"})
	if !rec.failed {
		t.Fatal("violations must fail")
	}
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		path       string
		internal   bool
		thirdParty bool
	}{
		{"freezercore/internal/core", true, false},
		{"freezercore/pkg/domain", false, false},
		{"fmt", false, false},
		{"github.com/prometheus/client_golang/prometheus", false, true},
		{"modernc.org/sqlite", false, true},
	}
	for _, tc := range cases {
		if got := InternalImportForbidden(tc.path); got != tc.internal {
			t.Errorf("InternalImportForbidden(%s) = %v, want %v", tc.path, got, tc.internal)
		}
		if got := ThirdPartyImportForbidden(tc.path); got != tc.thirdParty {
			t.Errorf("ThirdPartyImportForbidden(%s) = %v, want %v", tc.path, got, tc.thirdParty)
		}
	}
}

func TestTransitiveDependencyViolationsParsesOutput(t *testing.T) {
	restore := goListDeps
	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\nfreezercore/pkg/domain\nfreezercore/internal/core\n"), nil
	}
	defer func() { goListDeps = restore }()

	viols, _, err := transitiveDependencyViolations("./...", InternalImportForbidden)
	if err != nil {
		t.Fatalf("violations: %v", err)
	}
	if len(viols) != 1 || viols[0] != "freezercore/internal/core" {
		t.Fatalf("unexpected violations %v", viols)
	}
}
