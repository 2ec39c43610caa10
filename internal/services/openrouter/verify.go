package openrouter

import (
	"context"
	"fmt"
	"strings"

	"shelver/internal/services"
)

const identifyPrompt = `You identify audiobooks from messy folder and file names.
Given a raw library name plus any metadata hints, determine the canonical
author and title of the book, and the series name and position when the book
belongs to one. Respond with JSON only, using this shape:
{"author":"...","title":"...","series":"","series_number":"","confident":true}
Rules:
- Use the canonical published form of the author name and book title.
- Leave "series" and "series_number" empty when the book is standalone.
- Set "confident" to false when you are not reasonably certain of the match.
- Rejected candidates are catalog hits that were filtered as implausible;
  endorse one only if you are sure it is actually this book.
- Never invent a book. If the name does not correspond to a real published
  book, set "confident" to false and leave the other fields empty.`

// VerifyRequest is the identification question put to the model.
type VerifyRequest struct {
	Name       string
	Hints      map[string]string
	Candidates []string
}

// VerifyResult is the model's judgment for a single item.
type VerifyResult struct {
	Author       string `json:"author"`
	Title        string `json:"title"`
	Series       string `json:"series"`
	SeriesNumber string `json:"series_number"`
	Confident    bool   `json:"confident"`
}

// Verify asks the model to identify a book. Transport and quota failures are
// reported as lookup-unavailable so callers do not mistake them for "no such
// book".
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	var empty VerifyResult
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return empty, services.Wrap(services.ErrValidation, "identifying", "ai verify", "name required", nil)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n", name)
	for _, key := range []string{"author", "title", "series", "series_number", "narrator", "year"} {
		if value := strings.TrimSpace(req.Hints[key]); value != "" {
			fmt.Fprintf(&sb, "Hint %s: %s\n", key, value)
		}
	}
	for _, candidate := range req.Candidates {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			fmt.Fprintf(&sb, "Rejected candidate: %s\n", candidate)
		}
	}

	content, err := c.CompleteJSON(ctx, identifyPrompt, sb.String())
	if err != nil {
		return empty, services.Wrap(services.ErrLookupUnavailable, "identifying", "ai verify", "completion failed", err)
	}

	var parsed VerifyResult
	if err := DecodeModelJSON(content, &parsed); err != nil {
		return empty, services.Wrap(services.ErrLookupUnavailable, "identifying", "ai verify", "parse payload", err)
	}
	parsed.Author = strings.TrimSpace(parsed.Author)
	parsed.Title = strings.TrimSpace(parsed.Title)
	parsed.Series = strings.TrimSpace(parsed.Series)
	parsed.SeriesNumber = strings.TrimSpace(parsed.SeriesNumber)
	if parsed.Author == "" || parsed.Title == "" {
		parsed.Confident = false
	}
	return parsed, nil
}
