package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pitlane/internal/config"
)

const (
	userAgent      = "pitlane/0.1.0"
	defaultNtfyURL = "https://ntfy.sh/"
)

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyEventReady(ctx context.Context, event string, round int, quality string) error
	NotifyPassCompleted(ctx context.Context, processed, completed, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	endpoint := topic
	if !strings.Contains(topic, "://") {
		endpoint = defaultNtfyURL + strings.TrimPrefix(topic, "/")
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
		eventReady: cfg.Notifications.EventReady,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	eventReady bool
	errors     bool
}

func (n *ntfyService) NotifyEventReady(ctx context.Context, event string, round int, quality string) error {
	if !n.eventReady {
		return nil
	}
	event = strings.TrimSpace(event)
	quality = strings.TrimSpace(quality)
	data := payload{
		title:    "pitlane - Event Ready",
		message:  fmt.Sprintf("🏁 Ready to stream: %s (R%d) in %s", event, round, quality),
		tags:     []string{"pitlane", "event", "ready"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPassCompleted(ctx context.Context, processed, completed, failed int, duration time.Duration) error {
	if completed == 0 && failed == 0 {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	title := "pitlane - Pass Complete"
	if failed > 0 {
		title = "pitlane - Pass Complete (with errors)"
	}
	data := payload{
		title:   title,
		message: fmt.Sprintf("Ingest pass finished in %s: %d posts processed, %d events completed, %d failed", duration, processed, completed, failed),
		tags:    []string{"pitlane", "pass", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "pitlane - Error",
		message:  builder.String(),
		tags:     []string{"pitlane", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "pitlane - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"pitlane", "test"},
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

func (noopService) NotifyEventReady(context.Context, string, int, string) error { return nil }
func (noopService) NotifyPassCompleted(context.Context, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
