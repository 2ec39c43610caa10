package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "library")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}
	content := fmt.Sprintf(`[paths]
library_roots = [%q]
log_dir = %q
database_dir = %q
`, root, filepath.Join(base, "logs"), filepath.Join(base, "db"))
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init returned error: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected output to mention %s, got %q", target, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config on disk: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
}

func TestQueueStatusEmptyQueue(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCommand(t, "--config", cfgPath, "queue", "status")
	if err != nil {
		t.Fatalf("queue status returned error: %v", err)
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("expected empty-queue message, got %q", out)
	}
}

func TestScanEnqueuesBookFolder(t *testing.T) {
	cfgPath := writeTestConfig(t)
	root := filepath.Join(filepath.Dir(cfgPath), "library")
	bookDir := filepath.Join(root, "Frank Herbert", "Dune")
	if err := os.MkdirAll(bookDir, 0o755); err != nil {
		t.Fatalf("mkdir book: %v", err)
	}
	if err := os.WriteFile(filepath.Join(bookDir, "dune.m4b"), []byte("audio"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}

	out, err := runCommand(t, "--config", cfgPath, "scan")
	if err != nil {
		t.Fatalf("scan returned error: %v", err)
	}
	if !strings.Contains(out, "1 added") {
		t.Fatalf("expected one added entry, got %q", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list returned error: %v", err)
	}
	if !strings.Contains(out, "Dune") {
		t.Fatalf("expected listed entry, got %q", out)
	}
}
