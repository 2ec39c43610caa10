package logs_test

import (
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), logs.FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailMissingFile(t *testing.T) {
	lines, offset, err := logs.Tail(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil {
		t.Fatalf("Tail() = %v, want nil", err)
	}
	if len(lines) != 0 || offset != 0 {
		t.Errorf("got %d lines offset %d, want 0 lines offset 0", len(lines), offset)
	}
}

func TestTailReturnsLastLines(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthree\nfour\n")

	lines, offset, err := logs.Tail(path, 2)
	if err != nil {
		t.Fatalf("Tail() = %v", err)
	}
	if len(lines) != 2 || lines[0] != "three" || lines[1] != "four" {
		t.Errorf("lines = %v, want [three four]", lines)
	}
	if offset != int64(len("one\ntwo\nthree\nfour\n")) {
		t.Errorf("offset = %d, want end of file", offset)
	}
}

func TestTailShortFile(t *testing.T) {
	path := writeLog(t, "only\n")

	lines, _, err := logs.Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail() = %v", err)
	}
	if len(lines) != 1 || lines[0] != "only" {
		t.Errorf("lines = %v, want [only]", lines)
	}
}

func TestReadFromPicksUpAppendedLines(t *testing.T) {
	path := writeLog(t, "first\n")

	_, offset, err := logs.Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail() = %v", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := file.WriteString("second\nthird\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	file.Close()

	lines, newOffset, err := logs.ReadFrom(path, offset)
	if err != nil {
		t.Fatalf("ReadFrom() = %v", err)
	}
	if len(lines) != 2 || lines[0] != "second" || lines[1] != "third" {
		t.Errorf("lines = %v, want [second third]", lines)
	}
	if newOffset <= offset {
		t.Errorf("offset did not advance: %d -> %d", offset, newOffset)
	}
}

func TestReadFromRestartsAfterTruncation(t *testing.T) {
	path := writeLog(t, "a long first generation of log output\n")

	_, offset, err := logs.Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail() = %v", err)
	}

	if err := os.WriteFile(path, []byte("fresh\n"), 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	lines, _, err := logs.ReadFrom(path, offset)
	if err != nil {
		t.Fatalf("ReadFrom() = %v", err)
	}
	if len(lines) != 1 || lines[0] != "fresh" {
		t.Errorf("lines = %v, want [fresh]", lines)
	}
}
