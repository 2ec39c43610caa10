package openlibrary_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shelver/internal/config"
	"shelver/internal/metadata"
	"shelver/internal/metadata/openlibrary"
	"shelver/internal/services"
)

func TestLookupSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("title"); got != "Mistborn" {
			t.Fatalf("expected title query parameter, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"docs":[{"title":"Mistborn","author_name":["Brandon Sanderson"],"first_publish_year":2006}]}`))
	}))
	t.Cleanup(server.Close)

	client := openlibrary.NewClient(config.Provider{BaseURL: server.URL}, 0)
	candidates, err := client.Lookup(context.Background(), metadata.Query{Title: "Mistborn"})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}
	got := candidates[0]
	if got.Author != "Brandon Sanderson" || got.Title != "Mistborn" || got.Year != 2006 {
		t.Fatalf("unexpected candidate: %#v", got)
	}
	if got.Source != config.SourceOpenLibrary {
		t.Fatalf("expected source %q, got %q", config.SourceOpenLibrary, got.Source)
	}
}

func TestLookupNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"docs":[]}`))
	}))
	t.Cleanup(server.Close)

	client := openlibrary.NewClient(config.Provider{BaseURL: server.URL}, 0)
	candidates, err := client.Lookup(context.Background(), metadata.Query{Title: "nonexistent"})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
}

func TestLookupHTTPErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := openlibrary.NewClient(config.Provider{BaseURL: server.URL}, 0)
	_, err := client.Lookup(context.Background(), metadata.Query{Title: "anything"})
	if err == nil {
		t.Fatal("expected error when server returns non-200")
	}
	if !errors.Is(err, services.ErrLookupUnavailable) {
		t.Fatalf("expected lookup-unavailable error, got %v", err)
	}
}

func TestLookupEmptyQuery(t *testing.T) {
	client := openlibrary.NewClient(config.Provider{BaseURL: "https://example.com"}, 0)
	candidates, err := client.Lookup(context.Background(), metadata.Query{})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if candidates != nil {
		t.Fatalf("expected nil candidates for empty query, got %#v", candidates)
	}
}
