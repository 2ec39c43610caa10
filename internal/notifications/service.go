// Package notifications pushes workflow events to an ntfy topic. With no
// topic configured every notification is a no-op, so callers never need to
// check whether pushes are enabled.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shelver/internal/config"
)

const userAgent = "Shelver/0.1.0"

// Service is the notification surface exposed to the worker and the CLI.
type Service interface {
	// BatchCompleted summarizes one finished identification batch.
	BatchCompleted(ctx context.Context, processed, applied, pending, failed int) error
	// PendingReview announces an entry that now waits for a human decision.
	PendingReview(ctx context.Context, name, proposal string) error
	// Error reports an entry that failed processing.
	Error(ctx context.Context, name string, err error) error
	// Test sends a throwaway message so users can verify their topic.
	Test(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a noop one when no topic is
// configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) BatchCompleted(ctx context.Context, processed, applied, pending, failed int) error {
	title := "Shelver - Batch Complete"
	message := fmt.Sprintf("Processed %d items: %d renamed, %d awaiting review", processed, applied, pending)
	if failed > 0 {
		title = "Shelver - Batch Complete (with errors)"
		message = fmt.Sprintf("%s, %d failed", message, failed)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"shelver", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) PendingReview(ctx context.Context, name, proposal string) error {
	name = strings.TrimSpace(name)
	message := fmt.Sprintf("Needs review: %s", name)
	if proposal = strings.TrimSpace(proposal); proposal != "" {
		message = fmt.Sprintf("%s\nProposed: %s", message, proposal)
	}
	data := payload{
		title:    "Shelver - Review Needed",
		message:  message,
		tags:     []string{"shelver", "review"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) Error(ctx context.Context, name string, err error) error {
	var builder strings.Builder
	builder.WriteString("Failed")
	if name = strings.TrimSpace(name); name != "" {
		builder.WriteString(": ")
		builder.WriteString(name)
	}
	if err != nil {
		builder.WriteString("\n")
		builder.WriteString(strings.TrimSpace(err.Error()))
	}
	data := payload{
		title:    "Shelver - Error",
		message:  builder.String(),
		tags:     []string{"shelver", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) Test(ctx context.Context) error {
	data := payload{
		title:    "Shelver - Test",
		message:  "Notification system test",
		tags:     []string{"shelver", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) BatchCompleted(context.Context, int, int, int, int) error { return nil }
func (noopService) PendingReview(context.Context, string, string) error      { return nil }
func (noopService) Error(context.Context, string, error) error               { return nil }
func (noopService) Test(context.Context) error                               { return nil }
