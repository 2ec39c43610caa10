package hardcover_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shelver/internal/config"
	"shelver/internal/metadata"
	"shelver/internal/metadata/hardcover"
	"shelver/internal/services"
)

func TestLookupRequiresToken(t *testing.T) {
	client := hardcover.NewClient(config.Provider{BaseURL: "https://example.com"}, 0)
	_, err := client.Lookup(context.Background(), metadata.Query{Title: "anything"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLookupSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Fatalf("expected bearer token header, got %q", got)
		}
		var payload struct {
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Variables["title"] != "The Fifth Season" {
			t.Fatalf("unexpected title variable: %v", payload.Variables["title"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"books":[{"title":"The Fifth Season","release_year":2015,` +
			`"contributions":[{"author":{"name":"N. K. Jemisin"}}],` +
			`"book_series":[{"position":1,"series":{"name":"The Broken Earth"}}]}]}}`))
	}))
	t.Cleanup(server.Close)

	client := hardcover.NewClient(config.Provider{BaseURL: server.URL, APIKey: "token"}, 0)
	candidates, err := client.Lookup(context.Background(), metadata.Query{Title: "The Fifth Season"})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}
	got := candidates[0]
	if got.Author != "N. K. Jemisin" || got.Series != "The Broken Earth" || got.SeriesPos != "1" {
		t.Fatalf("unexpected candidate: %#v", got)
	}
}

func TestLookupGraphQLErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":[{"message":"rate limited"}]}`))
	}))
	t.Cleanup(server.Close)

	client := hardcover.NewClient(config.Provider{BaseURL: server.URL, APIKey: "token"}, 0)
	_, err := client.Lookup(context.Background(), metadata.Query{Title: "anything"})
	if !errors.Is(err, services.ErrLookupUnavailable) {
		t.Fatalf("expected lookup-unavailable error, got %v", err)
	}
}
