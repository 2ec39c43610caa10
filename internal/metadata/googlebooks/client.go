// Package googlebooks queries the Google Books volumes API.
package googlebooks

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

// Client wraps the Google Books volumes endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a client from provider configuration. The API key is
// optional; unkeyed requests run against the public quota.
func NewClient(cfg config.Provider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements metadata.Source.
func (c *Client) Name() string { return config.SourceGoogleBooks }

type volumesResponse struct {
	Items []struct {
		VolumeInfo struct {
			Title         string   `json:"title"`
			Authors       []string `json:"authors"`
			PublishedDate string   `json:"publishedDate"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Lookup implements metadata.Source.
func (c *Client) Lookup(ctx context.Context, query metadata.Query) ([]metadata.Candidate, error) {
	if query.Empty() {
		return nil, nil
	}
	terms := []string{"intitle:" + query.Title}
	if strings.TrimSpace(query.Author) != "" {
		terms = append(terms, "inauthor:"+query.Author)
	}
	params := url.Values{}
	params.Set("q", strings.Join(terms, " "))
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))
	params.Set("printType", "books")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	endpoint := c.baseURL + "/volumes?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "googlebooks search", "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "googlebooks search", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, services.Wrap(
			services.ErrLookupUnavailable,
			"identifying",
			"googlebooks search",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			nil,
		)
	}

	var payload volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "googlebooks search", "decode response", err)
	}

	candidates := make([]metadata.Candidate, 0, len(payload.Items))
	for _, item := range payload.Items {
		info := item.VolumeInfo
		title := strings.TrimSpace(info.Title)
		if title == "" {
			continue
		}
		candidate := metadata.Candidate{
			Source: c.Name(),
			Title:  title,
		}
		if len(info.Authors) > 0 {
			candidate.Author = strings.TrimSpace(info.Authors[0])
		}
		if len(info.PublishedDate) >= 4 {
			var year int
			if _, err := fmt.Sscanf(info.PublishedDate[:4], "%d", &year); err == nil {
				candidate.Year = year
			}
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}
