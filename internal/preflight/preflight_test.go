package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"shelver/internal/config"
	"shelver/internal/preflight"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Library root", dir)
	if !result.Passed {
		t.Errorf("writable directory failed: %s", result.Detail)
	}

	result = preflight.CheckDirectoryAccess("Library root", filepath.Join(dir, "absent"))
	if result.Passed {
		t.Error("missing directory passed")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Errorf("Detail = %q, want missing-directory explanation", result.Detail)
	}
}

func TestCheckEndpointReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result := preflight.CheckEndpoint(context.Background(), "Audnexus", server.URL)
	if !result.Passed {
		t.Errorf("4xx response should count as reachable: %s", result.Detail)
	}
}

func TestCheckEndpointServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	result := preflight.CheckEndpoint(context.Background(), "Audnexus", server.URL)
	if result.Passed {
		t.Error("5xx response passed")
	}
}

func TestCheckEndpointInvalidURL(t *testing.T) {
	result := preflight.CheckEndpoint(context.Background(), "Audnexus", "not a url")
	if result.Passed {
		t.Error("invalid url passed")
	}
}

func TestCheckVerifierRequiresKey(t *testing.T) {
	result := preflight.CheckVerifier(context.Background(), config.LLMConfig{BaseURL: "https://example.invalid"})
	if result.Passed {
		t.Error("missing key passed")
	}
	if !strings.Contains(result.Detail, "API key") {
		t.Errorf("Detail = %q, want key explanation", result.Detail)
	}
}

func TestRunAllSkipsDisabledProviders(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LibraryRoots = []string{t.TempDir()}
	cfg.Paths.DatabaseDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Audnexus.Enabled = false
	cfg.OpenLibrary.Enabled = false
	cfg.GoogleBooks.Enabled = false
	cfg.Hardcover.Enabled = false
	cfg.LLM.Enabled = false

	results := preflight.RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 directory checks", len(results))
	}
	if !preflight.AllPassed(results) {
		t.Error("directory checks failed on fresh temp dirs")
	}
}
