package openrouter_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"shelver/internal/services"
	"shelver/internal/services/openrouter"
)

func TestCompleteJSONRequiresAPIKey(t *testing.T) {
	client := openrouter.NewClient(openrouter.Config{Model: "test"})
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestVerifySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Fatalf("expected bearer header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"author\":\"Andy Weir\",\"title\":\"Project Hail Mary\",\"series\":\"\",\"series_number\":\"\",\"confident\":true}"}}]}`))
	}))
	t.Cleanup(server.Close)

	client := openrouter.NewClient(openrouter.Config{APIKey: "key", BaseURL: server.URL, Model: "test"})
	result, err := client.Verify(context.Background(), openrouter.VerifyRequest{
		Name:       "Projct Hail Mary Unabridged",
		Hints:      map[string]string{"author": "A Weir"},
		Candidates: []string{"Artemis by Andy Weir (openlibrary)"},
	})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if result.Author != "Andy Weir" || result.Title != "Project Hail Mary" || !result.Confident {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestVerifyRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"author\":\"A\",\"title\":\"B\",\"confident\":true}"}}]}`))
	}))
	t.Cleanup(server.Close)

	client := openrouter.NewClient(
		openrouter.Config{APIKey: "key", BaseURL: server.URL, Model: "test"},
		openrouter.WithSleeper(func(time.Duration) {}),
	)
	result, err := client.Verify(context.Background(), openrouter.VerifyRequest{Name: "anything"})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if !result.Confident {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestVerifyTransportFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := openrouter.NewClient(openrouter.Config{APIKey: "key", BaseURL: server.URL, Model: "test"})
	_, err := client.Verify(context.Background(), openrouter.VerifyRequest{Name: "anything"})
	if !errors.Is(err, services.ErrLookupUnavailable) {
		t.Fatalf("expected lookup-unavailable error, got %v", err)
	}
}

func TestVerifyBlankIdentityClearsConfidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"author\":\"\",\"title\":\"\",\"confident\":true}"}}]}`))
	}))
	t.Cleanup(server.Close)

	client := openrouter.NewClient(openrouter.Config{APIKey: "key", BaseURL: server.URL, Model: "test"})
	result, err := client.Verify(context.Background(), openrouter.VerifyRequest{Name: "asdkjhq"})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if result.Confident {
		t.Fatal("expected confidence cleared when identity fields are empty")
	}
}

func TestDecodeModelJSONStripsCodeFences(t *testing.T) {
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := openrouter.DecodeModelJSON("```json\n{\"ok\":true}\n```", &parsed); err != nil {
		t.Fatalf("DecodeModelJSON returned error: %v", err)
	}
	if !parsed.OK {
		t.Fatal("expected ok=true after fence stripping")
	}
}
