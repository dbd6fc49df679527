package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/falcon-incidents/pkg/httpclient"
)

// Headers set on every webhook delivery so receivers can route without
// parsing the body.
const (
	HeaderFeed           = "X-Falcon-Feed"
	HeaderKind           = "X-Falcon-Kind"
	HeaderChange         = "X-Falcon-Change"
	HeaderIdempotencyKey = "Idempotency-Key"

	maxErrorSnippet = 512
)

// webhookPublisher POSTs (or PUTs) events as JSON to a webhook.
type webhookPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	return &webhookPublisher{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client: httpclient.NewRestyHTTPClient(httpclient.Options{
			Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		}),
		log: ensureLogger(log),
	}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	r := evt.routing()
	req := w.client.R().
		SetContext(ctx).
		SetHeaders(w.headers).
		SetHeader("Content-Type", "application/json").
		SetHeader(HeaderFeed, evt.FeedID).
		SetHeader(HeaderKind, evt.Kind).
		SetHeader(HeaderChange, evt.Change).
		SetHeader(HeaderIdempotencyKey, r.dedupKey).
		SetBody(evt)

	resp, err := req.Execute(w.method, w.url)
	if err != nil {
		return fmt.Errorf("deliver %s %s: %w", evt.Kind, evt.RecordID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook answered %d for %s %s: %s", resp.StatusCode(), evt.Kind, evt.RecordID, snippet(resp.Body()))
	}
	w.log.DebugObj("webhook delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": w.id,
		"record_id":    evt.RecordID,
		"change":       evt.Change,
		"status_code":  resp.StatusCode(),
	})
	return nil
}

func snippet(body []byte) string {
	if len(body) > maxErrorSnippet {
		body = body[:maxErrorSnippet]
	}
	return strings.TrimSpace(string(body))
}
