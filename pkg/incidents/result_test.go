package incidents

import (
	"net/http"
	"testing"
)

func TestNormalizeCanonicalizesHeaders(t *testing.T) {
	header := http.Header{}
	header.Add("x-ratelimit-remaining", "5999")
	header.Add("Set-Cookie", "a=1")
	header.Add("Set-Cookie", "b=2")

	res := Normalize(http.StatusOK, header, map[string]any{"ok": true})
	if got := res.Headers.Get("X-RateLimit-Remaining"); got != "5999" {
		t.Fatalf("rate limit header = %q", got)
	}
	if got := res.Headers.Get("set-cookie"); got != "a=1, b=2" {
		t.Fatalf("joined header = %q", got)
	}
	if !res.OK() {
		t.Fatalf("expected OK for 200")
	}
}

func TestNormalizeNilHeaders(t *testing.T) {
	res := Normalize(http.StatusInternalServerError, nil, "boom")
	if res.Headers == nil || len(res.Headers) != 0 {
		t.Fatalf("expected empty headers, got %#v", res.Headers)
	}
	if res.OK() {
		t.Fatalf("500 must not be OK")
	}
	var empty Headers
	if empty.Get("anything") != "" {
		t.Fatalf("nil headers should return empty value")
	}
}

func TestLookupOperation(t *testing.T) {
	op, ok := LookupOperation("queryincidents")
	if !ok || op.Path != "/incidents/queries/incidents/v1" || op.Mode != QueryMode {
		t.Fatalf("unexpected lookup result %#v ok=%v", op, ok)
	}
	if _, ok := LookupOperation("DeleteIncident"); ok {
		t.Fatalf("expected unknown operation")
	}
	if n := len(Operations()); n != 6 {
		t.Fatalf("expected 6 operations, got %d", n)
	}
}

func TestFailedWithoutCause(t *testing.T) {
	f := &Failed{Operation: "GetIncidents", Kind: FailureTimeout}

	if got := f.Error(); got != "GetIncidents timeout failure: timeout" {
		t.Fatalf("Error() = %q", got)
	}
	res := f.Result()
	if res.StatusCode != http.StatusInternalServerError || res.Body != "timeout" {
		t.Fatalf("Result() = %+v", res)
	}
	if f.Unwrap() != nil {
		t.Fatalf("Unwrap() should be nil")
	}
}
