// Package hardcover queries the Hardcover GraphQL API.
package hardcover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
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

const searchQuery = `query BookSearch($title: String!) {
  books(where: {title: {_ilike: $title}}, limit: 5, order_by: {users_count: desc}) {
    title
    release_year
    contributions { author { name } }
    book_series { position series { name } }
  }
}`

// Client wraps the Hardcover GraphQL endpoint. All requests require an API
// token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a client from provider configuration.
func NewClient(cfg config.Provider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:      strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements metadata.Source.
func (c *Client) Name() string { return config.SourceHardcover }

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data struct {
		Books []struct {
			Title         string `json:"title"`
			ReleaseYear   int    `json:"release_year"`
			Contributions []struct {
				Author struct {
					Name string `json:"name"`
				} `json:"author"`
			} `json:"contributions"`
			BookSeries []struct {
				Position float64 `json:"position"`
				Series   struct {
					Name string `json:"name"`
				} `json:"series"`
			} `json:"book_series"`
		} `json:"books"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Lookup implements metadata.Source.
func (c *Client) Lookup(ctx context.Context, query metadata.Query) ([]metadata.Candidate, error) {
	if query.Empty() {
		return nil, nil
	}
	if c.token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "identifying", "hardcover search", "api token not configured", nil)
	}

	payload := graphQLRequest{
		Query:     searchQuery,
		Variables: map[string]any{"title": query.Title},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "hardcover search", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "hardcover search", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "hardcover search", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, services.Wrap(
			services.ErrLookupUnavailable,
			"identifying",
			"hardcover search",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
			nil,
		)
	}

	var parsed graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "hardcover search", "decode response", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, services.Wrap(services.ErrLookupUnavailable, "identifying", "hardcover search", parsed.Errors[0].Message, nil)
	}

	candidates := make([]metadata.Candidate, 0, len(parsed.Data.Books))
	for _, book := range parsed.Data.Books {
		title := strings.TrimSpace(book.Title)
		if title == "" {
			continue
		}
		candidate := metadata.Candidate{
			Source: c.Name(),
			Title:  title,
			Year:   book.ReleaseYear,
		}
		if len(book.Contributions) > 0 {
			candidate.Author = strings.TrimSpace(book.Contributions[0].Author.Name)
		}
		if len(book.BookSeries) > 0 {
			entry := book.BookSeries[0]
			candidate.Series = strings.TrimSpace(entry.Series.Name)
			if entry.Position > 0 {
				candidate.SeriesPos = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", entry.Position), "0"), ".")
			}
		}
		if len(candidates) >= maxResults {
			break
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}
