// Package audnexus queries the Audnexus audiobook metadata API.
package audnexus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shelver/internal/config"
	"shelver/internal/metadata"
	"shelver/internal/services"
)

const defaultTimeout = 15 * time.Second

// Client wraps the Audnexus HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client from provider configuration.
func NewClient(cfg config.Provider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements metadata.Source.
func (c *Client) Name() string { return config.SourceAudnexus }

type bookPayload struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Narrators []struct {
		Name string `json:"name"`
	} `json:"narrators"`
	SeriesPrimary *struct {
		Name     string `json:"name"`
		Position string `json:"position"`
	} `json:"seriesPrimary"`
	ReleaseDate string `json:"releaseDate"`
}

// Lookup implements metadata.Source. An empty result with nil error means
// the title is not known to Audnexus.
func (c *Client) Lookup(ctx context.Context, query metadata.Query) ([]metadata.Candidate, error) {
	if query.Empty() {
		return nil, nil
	}
	params := url.Values{}
	params.Set("title", query.Title)
	if strings.TrimSpace(query.Author) != "" {
		params.Set("author", query.Author)
	}
	endpoint := c.baseURL + "/books?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "audnexus search", "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "audnexus search", "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, services.Wrap(
			services.ErrLookupUnavailable,
			"identifying",
			"audnexus search",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			nil,
		)
	}

	var books []bookPayload
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "audnexus search", "decode response", err)
	}

	candidates := make([]metadata.Candidate, 0, len(books))
	for _, book := range books {
		candidate := metadata.Candidate{
			Source: c.Name(),
			Title:  strings.TrimSpace(book.Title),
		}
		if len(book.Authors) > 0 {
			candidate.Author = strings.TrimSpace(book.Authors[0].Name)
		}
		if len(book.Narrators) > 0 {
			candidate.Narrator = strings.TrimSpace(book.Narrators[0].Name)
		}
		if book.SeriesPrimary != nil {
			candidate.Series = strings.TrimSpace(book.SeriesPrimary.Name)
			candidate.SeriesPos = strings.TrimSpace(book.SeriesPrimary.Position)
		}
		if len(book.ReleaseDate) >= 4 {
			var year int
			if _, err := fmt.Sscanf(book.ReleaseDate[:4], "%d", &year); err == nil {
				candidate.Year = year
			}
		}
		if candidate.Title == "" {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}
