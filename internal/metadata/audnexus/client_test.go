package audnexus_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shelver/internal/config"
	"shelver/internal/metadata"
	"shelver/internal/metadata/audnexus"
	"shelver/internal/services"
)

func TestLookupSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("title"); got != "Ariel" {
			t.Fatalf("expected title query parameter, got %q", got)
		}
		if got := r.URL.Query().Get("author"); got != "Boyett" {
			t.Fatalf("expected author query parameter, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{
			"title": "Ariel",
			"authors": [{"name": "Steven R. Boyett"}],
			"narrators": [{"name": "MacLeod Andrews"}],
			"seriesPrimary": {"name": "Change", "position": "1"},
			"releaseDate": "2010-08-31T00:00:00.000Z"
		}]`))
	}))
	t.Cleanup(server.Close)

	client := audnexus.NewClient(config.Provider{BaseURL: server.URL}, 0)
	candidates, err := client.Lookup(context.Background(), metadata.Query{Title: "Ariel", Author: "Boyett"})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}
	got := candidates[0]
	if got.Author != "Steven R. Boyett" || got.Title != "Ariel" {
		t.Fatalf("unexpected candidate: %#v", got)
	}
	if got.Narrator != "MacLeod Andrews" || got.Series != "Change" || got.SeriesPos != "1" || got.Year != 2010 {
		t.Fatalf("unexpected enrichment fields: %#v", got)
	}
	if got.Source != config.SourceAudnexus {
		t.Fatalf("expected source %q, got %q", config.SourceAudnexus, got.Source)
	}
}

func TestLookupNotFoundMeansNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client := audnexus.NewClient(config.Provider{BaseURL: server.URL}, 0)
	candidates, err := client.Lookup(context.Background(), metadata.Query{Title: "unknown"})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
}

func TestLookupHTTPErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := audnexus.NewClient(config.Provider{BaseURL: server.URL}, 0)
	_, err := client.Lookup(context.Background(), metadata.Query{Title: "anything"})
	if err == nil {
		t.Fatal("expected error when server returns 5xx")
	}
	if !errors.Is(err, services.ErrLookupUnavailable) {
		t.Fatalf("expected lookup-unavailable error, got %v", err)
	}
}

func TestLookupSkipsUntitledBooks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"title": ""}, {"title": "Elidor", "authors": [{"name": "Alan Garner"}]}]`))
	}))
	t.Cleanup(server.Close)

	client := audnexus.NewClient(config.Provider{BaseURL: server.URL}, 0)
	candidates, err := client.Lookup(context.Background(), metadata.Query{Title: "Elidor"})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "Elidor" {
		t.Fatalf("expected the untitled payload dropped, got %#v", candidates)
	}
}
