package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Sender delivers a free-text operational alert. Delivery is fire-and-forget:
// implementations log failures and never return them to the caller.
type Sender interface {
	Send(ctx context.Context, message string)
}

// LogSender writes alerts to the service log. Used when no webhook is
// configured.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, message string) {
	if s.Logger == nil {
		return
	}
	s.Logger.Warn("ALERT", zap.String("message", message))
}

// WebhookSender posts alerts as JSON to a configured webhook.
type WebhookSender struct {
	Logger *zap.Logger
	client *resty.Client
}

func NewWebhookSender(webhookURL string, timeout time.Duration, logger *zap.Logger) *WebhookSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(webhookURL).
		SetTimeout(timeout).
		SetRetryCount(1)
	return &WebhookSender{Logger: logger, client: client}
}

func (s *WebhookSender) Send(ctx context.Context, message string) {
	if s == nil || s.client == nil {
		return
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"text": message}).
		Post("")
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("alert webhook failed", zap.Error(err))
		}
		return
	}
	if resp.IsError() && s.Logger != nil {
		s.Logger.Error("alert webhook rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", truncate(resp.String(), 200)),
		)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
