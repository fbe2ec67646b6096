package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clippa/internal/storage"
	"clippa/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCredentials(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(dir, "fallback.txt")
	if err := os.WriteFile(fallback, []byte("# cookies"), 0o600); err != nil {
		t.Fatal(err)
	}

	got := CheckCredentials(filepath.Join(dir, "missing.txt"), fallback)
	if !got.Passed || got.Detail != fallback+" (fallback)" {
		t.Fatalf("unexpected result %+v", got)
	}
	none := CheckCredentials("", "")
	if none.Passed || !none.Optional {
		t.Fatalf("missing credentials should be an optional failure, got %+v", none)
	}
}

func TestRunAllWithStubbedBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	results := RunAll(context.Background(), cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	if len(results) < 5 {
		t.Fatalf("expected tool, directory, and credential checks, got %d", len(results))
	}
}

func TestRunAllReportsMissingTool(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Tools.Transcoder = "clearly-not-present-ffmpeg"
	failed := Failed(RunAll(context.Background(), cfg))
	if len(failed) != 1 || failed[0].Name != "Transcoder" {
		t.Fatalf("expected transcoder failure, got %+v", failed)
	}
}

type failingChecker struct{ *testsupport.MemoryObjects }

func (failingChecker) Check(context.Context) error { return errors.New("denied") }

func TestCheckObjectStore(t *testing.T) {
	if r := CheckObjectStore(context.Background(), testsupport.NewMemoryObjects()); !r.Passed || !r.Optional {
		t.Fatalf("store without checker should pass optionally, got %+v", r)
	}
	if r := CheckObjectStore(context.Background(), failingChecker{testsupport.NewMemoryObjects()}); r.Passed || r.Detail != "denied" {
		t.Fatalf("expected failure, got %+v", r)
	}
	local, err := storage.NewLocal(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	if r := CheckObjectStore(context.Background(), local); !r.Passed {
		t.Fatalf("local store check failed: %+v", r)
	}
}

func TestCheckStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if r := CheckStore(context.Background(), store); !r.Passed {
		t.Fatalf("CheckStore: %+v", r)
	}
	if r := CheckStore(context.Background(), nil); r.Passed {
		t.Fatal("nil store must fail")
	}
}
