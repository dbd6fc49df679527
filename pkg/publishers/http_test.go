package publishers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestWebhook(t *testing.T, url string, headers map[string]string) Publisher {
	t.Helper()
	pub, err := DefaultRegistry().Build(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URL: url, Method: "put", Headers: headers, TimeoutSeconds: 2},
	}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return pub
}

func TestWebhookSendsRoutingHeaders(t *testing.T) {
	var (
		got    Event
		header http.Header
		method string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, header = r.Method, r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode event: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	pub := newTestWebhook(t, srv.URL, map[string]string{"X-Tenant": "soc", " ": "dropped"})
	evt := updatedIncident()
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if method != http.MethodPut {
		t.Fatalf("method = %s, want normalized PUT", method)
	}
	for name, want := range map[string]string{
		HeaderFeed:           "new-incidents",
		HeaderKind:           "incident",
		HeaderChange:         "updated",
		HeaderIdempotencyKey: evt.routing().dedupKey,
		"X-Tenant":           "soc",
		"Content-Type":       "application/json",
	} {
		if got := header.Get(name); got != want {
			t.Fatalf("header %s = %q, want %q", name, got, want)
		}
	}
	if got.RecordID != "inc:7" || got.Version != evt.Version || got.CollectedAt.IsZero() {
		t.Fatalf("server received unexpected event %+v", got)
	}
}

func TestWebhookIdempotencyKeyFollowsVersion(t *testing.T) {
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get(HeaderIdempotencyKey))
	}))
	defer srv.Close()

	pub := newTestWebhook(t, srv.URL, nil)
	evt := updatedIncident()
	bumped := evt
	bumped.Version = "other"
	for _, e := range []Event{evt, evt, bumped} {
		if err := pub.Publish(context.Background(), e); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if keys[0] != keys[1] || keys[0] == keys[2] {
		t.Fatalf("idempotency keys %q should repeat per version only", keys)
	}
}

func TestWebhookErrorIncludesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "schema rejected "+strings.Repeat("x", 1000), http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestWebhook(t, srv.URL, nil).Publish(context.Background(), updatedIncident())
	if err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
	msg := err.Error()
	if !strings.Contains(msg, "400") || !strings.Contains(msg, "schema rejected") {
		t.Fatalf("error lacks status or body: %v", err)
	}
	if strings.Count(msg, "x") > maxErrorSnippet {
		t.Fatalf("body snippet not capped: %d bytes", len(msg))
	}
}
