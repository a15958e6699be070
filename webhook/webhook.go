// Package webhook posts run reports to an external endpoint, so a
// scheduler or chat bot can react to finished scrape runs without polling
// the admin API.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Ar7340/CS2-Player-States/models"
)

// Event types.
const (
	EventRunCompleted = "run.completed"
	EventRunStopped   = "run.stopped"
)

// retrySchedule spaces the delivery attempts of one event.
var retrySchedule = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// Event is the payload sent to the webhook endpoint.
type Event struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewRunEvent wraps a run report. Runs that were stopped or aborted before
// draining the queue carry the run.stopped type.
func NewRunEvent(report *models.RunReport) *Event {
	typ := EventRunStopped
	if report.Completed {
		typ = EventRunCompleted
	}
	return &Event{
		Type:      typ,
		Timestamp: time.Now().Unix(),
		Data:      report,
	}
}

// Notifier delivers events to one configured endpoint.
type Notifier struct {
	url    string
	secret string
	client *http.Client
}

// NewNotifier builds a notifier for the given endpoint. An empty secret
// disables request signing.
func NewNotifier(url, secret string) *Notifier {
	return &Notifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Deliver sends one event synchronously. With a secret configured the body
// is signed, and the receiver verifies against
//
//	X-CS2Stats-Signature: sha256=<hex HMAC-SHA256 of the body>
func (n *Notifier) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "CS2Stats-Webhook/1.0")
	if n.secret != "" {
		req.Header.Set("X-CS2Stats-Signature", "sha256="+n.sign(body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync retries in the background on the retry schedule. Failures
// only log; a dead endpoint must never block or fail a run.
func (n *Notifier) DeliverAsync(event *Event) {
	go func() {
		for attempt, delay := range retrySchedule {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := n.Deliver(ctx, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", n.url,
					"event", event.Type,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", n.url,
				"event", event.Type,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", n.url,
			"event", event.Type,
		)
	}()
}

func (n *Notifier) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(n.secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
