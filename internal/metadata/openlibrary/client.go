// Package openlibrary queries the Open Library search API.
package openlibrary

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

const (
	defaultTimeout = 15 * time.Second
	maxResults     = 5
)

// Client wraps the Open Library search endpoint.
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
func (c *Client) Name() string { return config.SourceOpenLibrary }

type searchResponse struct {
	Docs []struct {
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear int      `json:"first_publish_year"`
	} `json:"docs"`
}

// Lookup implements metadata.Source.
func (c *Client) Lookup(ctx context.Context, query metadata.Query) ([]metadata.Candidate, error) {
	if query.Empty() {
		return nil, nil
	}
	params := url.Values{}
	params.Set("title", query.Title)
	if strings.TrimSpace(query.Author) != "" {
		params.Set("author", query.Author)
	}
	params.Set("limit", fmt.Sprintf("%d", maxResults))
	params.Set("fields", "title,author_name,first_publish_year")
	endpoint := c.baseURL + "/search.json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "openlibrary search", "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "openlibrary search", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, services.Wrap(
			services.ErrLookupUnavailable,
			"identifying",
			"openlibrary search",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			nil,
		)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "openlibrary search", "decode response", err)
	}

	candidates := make([]metadata.Candidate, 0, len(payload.Docs))
	for _, doc := range payload.Docs {
		title := strings.TrimSpace(doc.Title)
		if title == "" {
			continue
		}
		candidate := metadata.Candidate{
			Source: c.Name(),
			Title:  title,
			Year:   doc.FirstPublishYear,
		}
		if len(doc.AuthorName) > 0 {
			candidate.Author = strings.TrimSpace(doc.AuthorName[0])
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}
