package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyFileMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cookies.txt")
	dst := filepath.Join(dir, "cookies-abc.txt")

	if err := os.WriteFile(src, []byte("# Netscape HTTP Cookie File\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileMode(src, dst, 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "# Netscape HTTP Cookie File\n" {
		t.Fatalf("content mismatch: got %q", got)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %o, want 600", info.Mode().Perm())
	}
}

func TestCopyFileModeMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileMode(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"), 0o644); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "clip-abc.mp4")
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := WriteAtomic(dst, strings.NewReader("new contents"), 0o644)
	if err != nil {
		t.Fatalf("WriteAtomic returned error: %v", err)
	}
	if n != int64(len("new contents")) {
		t.Fatalf("written = %d", n)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "new contents" {
		t.Fatalf("unexpected contents %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleaned up, found %d entries", len(entries))
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("broken") }

func TestWriteAtomicLeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "clip.mp4")
	if _, err := WriteAtomic(dst, brokenReader{}, 0o644); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty dir after failure, found %d entries", len(entries))
	}
}

func TestRemoveIfExistsIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip-abc-fast.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := RemoveIfExists(path); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}
	if Exists(path) {
		t.Fatal("expected file removed")
	}
	if err := RemoveIfExists(""); err != nil {
		t.Fatalf("empty path: %v", err)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Fatal("directories are not files")
	}
	path := filepath.Join(dir, "a")
	if Exists(path) {
		t.Fatal("missing file reported as existing")
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !Exists(path) {
		t.Fatal("expected file to exist")
	}
}
