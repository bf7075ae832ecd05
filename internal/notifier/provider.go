package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tolkdirekt/booking-be/internal/booking/notify"
)

// sendAfterLayout is the scheduled-delivery timestamp format the push
// provider expects.
const sendAfterLayout = "2006-01-02 15:04:05 GMT-0700"

// ProviderConfig holds push provider credentials and endpoint.
type ProviderConfig struct {
	URL     string
	AppID   string
	APIKey  string
	Timeout time.Duration
}

// Provider delivers push payloads to the provider's REST API. Recipients
// are addressed by the email tag registered on their devices.
type Provider struct {
	client *http.Client
	url    string
	appID  string
	apiKey string
	logger *slog.Logger
}

// NewProvider creates a push provider client.
func NewProvider(cfg *ProviderConfig, logger *slog.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Provider{
		client: &http.Client{Timeout: timeout},
		url:    cfg.URL,
		appID:  cfg.AppID,
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

type providerFilter struct {
	Field    string `json:"field"`
	Key      string `json:"key,omitempty"`
	Relation string `json:"relation"`
	Value    string `json:"value"`
	Operator string `json:"operator,omitempty"`
}

type providerRequest struct {
	AppID        string            `json:"app_id"`
	Headings     map[string]string `json:"headings"`
	Contents     map[string]string `json:"contents"`
	Filters      []providerFilter  `json:"filters"`
	Data         map[string]string `json:"data"`
	AndroidSound string            `json:"android_sound"`
	IOSSound     string            `json:"ios_sound"`
	SendAfter    string            `json:"send_after,omitempty"`
}

// Deliver posts one payload to the provider. A delayed payload rides its
// send_after timestamp to the provider; no local timer is involved.
// Transient failures come back as RetryableError so the consumer can
// requeue.
func (p *Provider) Deliver(ctx context.Context, payload *notify.PushPayload) error {
	req := providerRequest{
		AppID:    p.appID,
		Headings: map[string]string{"en": payload.Title},
		Contents: map[string]string{"en": payload.Text},
		Data: map[string]string{
			"job_id": fmt.Sprintf("%d", payload.JobID),
			"type":   string(payload.NotificationType),
		},
		AndroidSound: "default",
		IOSSound:     "default.wav",
	}
	if payload.Immediate {
		req.AndroidSound = "emergency"
		req.IOSSound = "emergency.wav"
	}
	if payload.SendAfter != nil {
		req.SendAfter = payload.SendAfter.Format(sendAfterLayout)
	}

	for i, email := range payload.RecipientEmails {
		if i > 0 {
			req.Filters = append(req.Filters, providerFilter{Field: "tag", Operator: "OR"})
		}
		req.Filters = append(req.Filters, providerFilter{
			Field:    "tag",
			Key:      "email",
			Relation: "=",
			Value:    email,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Basic "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return NewRetryableError(fmt.Errorf("provider request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return NewRetryableError(fmt.Errorf("provider returned %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("provider rejected push: %d %s", resp.StatusCode, string(respBody))
	}

	p.logger.Info("Push delivered to provider",
		slog.Int64("job_id", payload.JobID),
		slog.String("notification_type", string(payload.NotificationType)),
		slog.Int("recipients", len(payload.RecipientEmails)),
		slog.String("send_after", req.SendAfter),
	)
	return nil
}
