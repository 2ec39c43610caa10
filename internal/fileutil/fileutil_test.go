package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.m4b")
	dst := filepath.Join(dir, "dst.m4b")

	content := []byte("verified copy content")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFileVerified_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileVerified(filepath.Join(dir, "nonexistent"), filepath.Join(dir, "dst.m4b")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestMovePathFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "book.mp3")
	dst := filepath.Join(dir, "moved.mp3")
	if err := os.WriteFile(src, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := MovePath(src, dst); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("expected source to be gone after move")
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "audio" {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestMovePathDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Dune")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "part1.mp3"), []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "Frank Herbert", "Dune")
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := MovePath(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(dst, "part1.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "one" {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestRemoveEmptyParents(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	RemoveEmptyParents(deep, root)

	if _, err := os.Stat(filepath.Join(root, "a")); !os.IsNotExist(err) {
		t.Fatal("expected empty parents to be removed")
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("stop directory must survive: %v", err)
	}
}

func TestRemoveEmptyParentsStopsAtOccupied(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", "keep.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	RemoveEmptyParents(deep, root)

	if _, err := os.Stat(filepath.Join(root, "a", "b")); !os.IsNotExist(err) {
		t.Fatal("expected empty leaf to be removed")
	}
	if _, err := os.Stat(filepath.Join(root, "a", "keep.txt")); err != nil {
		t.Fatalf("occupied directory must survive: %v", err)
	}
}
