package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestRestyClientDoSendsQueryAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("limit = %q", r.URL.Query().Get("limit"))
		}
		if string(raw) != `{"ids":["a"]}` {
			t.Errorf("body = %q", raw)
		}
		if r.Header.Get("X-Test") != "1" {
			t.Errorf("missing header")
		}
		w.Header().Set("X-Reply", "yes")
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	client := NewRestyClient(Options{Timeout: 2 * time.Second})
	resp, err := client.Do(context.Background(), Request{
		Method:  http.MethodPost,
		URL:     srv.URL,
		Headers: map[string]string{"X-Test": "1"},
		Query:   url.Values{"limit": {"5"}},
		Body:    []byte(`{"ids":["a"]}`),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusTeapot {
		t.Fatalf("status = %d, non-2xx must not be an error", resp.StatusCode())
	}
	if resp.Header().Get("X-Reply") != "yes" {
		t.Fatalf("missing response header")
	}
	if string(resp.Body()) != `{}` {
		t.Fatalf("body = %q", resp.Body())
	}
}

func TestRestyClientVerifiesCertificatesByDefault(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req := Request{Method: http.MethodGet, URL: srv.URL}
	if _, err := NewRestyClient(Options{}).Do(context.Background(), req); err == nil {
		t.Fatalf("expected certificate verification error")
	}
	resp, err := NewRestyClient(Options{InsecureSkipVerify: true}).Do(context.Background(), req)
	if err != nil {
		t.Fatalf("insecure Do: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode())
	}
}
