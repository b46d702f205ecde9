package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

var (
	// timeout is the timeout for webhook request. Default to 10 seconds.
	timeout = 10 * time.Second
)

// NotificationPayload is posted for every notification action the agent
// emits, such as a support escalation or a referral.
type NotificationPayload struct {
	URL       string `json:"-"`
	Target    string `json:"target"`
	UserID    string `json:"user_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
	CreatedTs int64  `json:"created_ts"`
}

// Post posts the notification to the webhook endpoint. Any 2xx status is
// success.
func Post(ctx context.Context, payload *NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal webhook request to %s", payload.URL)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, payload.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "failed to construct webhook request to %s", payload.URL)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to post webhook to %s", payload.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("failed to post webhook %s, status code: %d, response body: %s", payload.URL, resp.StatusCode, b)
	}
	return nil
}

// PostAsync posts the notification in a new goroutine and only logs failures.
// The request context is detached so the post outlives the HTTP request.
func PostAsync(ctx context.Context, payload *NotificationPayload) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := Post(ctx, payload); err != nil {
			slog.Warn("Failed to dispatch webhook asynchronously",
				slog.String("url", payload.URL),
				slog.String("target", payload.Target),
				slog.Any("err", err))
		}
	}()
}
