package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"venture-canvas/services/turn-api/internal/domain/retry"
)

// HTTPService implements webhook notifications via HTTP POST.
type HTTPService struct {
	httpClient *http.Client
	log        zerolog.Logger
	retrier    *retry.Executor
}

// NewHTTPService creates a new HTTP-based webhook service.
func NewHTTPService(log zerolog.Logger, timeout time.Duration) *HTTPService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPService{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log:     log.With().Str("component", "webhook").Logger(),
		retrier: retry.NewExecutor(retry.FixedPolicy(2, 2*time.Second)),
	}
}

// Ensure interface compliance.
var _ Service = (*HTTPService)(nil)

// NotifyCompleted sends a webhook notification when a turn completes.
func (s *HTTPService) NotifyCompleted(ctx context.Context, jobID string, output interface{}, metadata map[string]interface{}, completedAt *time.Time) error {
	webhookURL := extractWebhookURL(metadata)
	if webhookURL == "" {
		s.log.Debug().Str("job_id", jobID).Msg("no webhook URL configured, skipping notification")
		return nil
	}

	payload := Payload{
		ID:          jobID,
		Event:       "turn.completed",
		Status:      "completed",
		Output:      output,
		Metadata:    metadata,
		CompletedAt: formatTime(completedAt),
	}

	return s.sendWebhook(ctx, webhookURL, payload, jobID)
}

// NotifyFailed sends a webhook notification when a turn fails.
func (s *HTTPService) NotifyFailed(ctx context.Context, jobID string, errorCode string, errorMessage string, metadata map[string]interface{}) error {
	webhookURL := extractWebhookURL(metadata)
	if webhookURL == "" {
		s.log.Debug().Str("job_id", jobID).Msg("no webhook URL configured, skipping notification")
		return nil
	}

	payload := Payload{
		ID:       jobID,
		Event:    "turn.failed",
		Status:   "failed",
		Error:    &ErrorDetails{Code: errorCode, Message: errorMessage},
		Metadata: metadata,
	}

	return s.sendWebhook(ctx, webhookURL, payload, jobID)
}

func (s *HTTPService) sendWebhook(ctx context.Context, url string, payload Payload, jobID string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	return s.retrier.Execute(ctx, func(ctx context.Context, attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create webhook request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "venture-canvas-turn-api/1.0")
		req.Header.Set("X-Canvas-Event", payload.Event)
		req.Header.Set("X-Canvas-Job-ID", jobID)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			s.log.Warn().Err(err).Str("url", url).Int("attempt", attempt).Msg("webhook delivery failed")
			return fmt.Errorf("send webhook: %w", err)
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			s.log.Info().Str("url", url).Int("status", resp.StatusCode).Str("job_id", jobID).Msg("webhook delivered")
			return nil
		}

		s.log.Warn().Int("status", resp.StatusCode).Str("url", url).Int("attempt", attempt).Msg("webhook delivery failed")
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	})
}

func extractWebhookURL(metadata map[string]interface{}) string {
	if metadata == nil {
		return ""
	}
	if url, ok := metadata["webhook_url"].(string); ok {
		return url
	}
	if url, ok := metadata["webhookUrl"].(string); ok {
		return url
	}
	return ""
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
