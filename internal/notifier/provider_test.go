package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolkdirekt/booking-be/internal/booking/notify"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProvider_DeliverBuildsRequest(t *testing.T) {
	var got providerRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewProvider(&ProviderConfig{
		URL:    srv.URL,
		AppID:  "app-1",
		APIKey: "secret",
	}, discardLogger())

	sendAfter := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	err := p.Deliver(context.Background(), &notify.PushPayload{
		JobID:            42,
		NotificationType: "suitable_job",
		Title:            "Tolkdirekt",
		Text:             "Ny bokning",
		RecipientEmails:  []string{"a@example.com", "b@example.com"},
		Immediate:        true,
		SendAfter:        &sendAfter,
	})

	require.NoError(t, err)
	assert.Equal(t, "Basic secret", auth)
	assert.Equal(t, "app-1", got.AppID)
	assert.Equal(t, "Ny bokning", got.Contents["en"])
	assert.Equal(t, "emergency", got.AndroidSound)
	assert.Equal(t, "2026-03-11 09:00:00 GMT+0000", got.SendAfter)
	assert.Equal(t, "42", got.Data["job_id"])

	// Two recipients: tag, OR operator, tag.
	require.Len(t, got.Filters, 3)
	assert.Equal(t, "a@example.com", got.Filters[0].Value)
	assert.Equal(t, "OR", got.Filters[1].Operator)
	assert.Equal(t, "b@example.com", got.Filters[2].Value)
}

func TestProvider_DeliverErrorClasses(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantErr       bool
		wantRetryable bool
	}{
		{"ok", http.StatusOK, false, false},
		{"server error is retryable", http.StatusBadGateway, true, true},
		{"client error is permanent", http.StatusBadRequest, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			p := NewProvider(&ProviderConfig{URL: srv.URL, AppID: "a", APIKey: "k"}, discardLogger())
			err := p.Deliver(context.Background(), &notify.PushPayload{
				JobID:           1,
				Title:           "t",
				Text:            "x",
				RecipientEmails: []string{"a@example.com"},
			})

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantRetryable, shouldRequeue(err))
		})
	}
}

func TestShouldRequeue(t *testing.T) {
	assert.False(t, shouldRequeue(ErrInvalidPayload))
	assert.True(t, shouldRequeue(NewRetryableError(context.DeadlineExceeded)))
	assert.False(t, shouldRequeue(context.Canceled))
}
