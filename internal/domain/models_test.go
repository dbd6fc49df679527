package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestResourceHelpers(t *testing.T) {
	query := decode(t, `{"meta":{"pagination":{"offset":0,"limit":2,"total":7}},"resources":["inc:1","",3,"inc:2"]}`)
	if diff := cmp.Diff([]string{"inc:1", "inc:2"}, ResourceIDs(query)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if TotalResults(query) != 7 {
		t.Fatalf("total = %d", TotalResults(query))
	}

	entities := decode(t, `{"resources":[{"incident_id":"inc:1"},"junk"]}`)
	if got := Resources(entities); len(got) != 1 || got[0]["incident_id"] != "inc:1" {
		t.Fatalf("unexpected resources %#v", got)
	}
	if TotalResults(entities) != -1 {
		t.Fatalf("expected -1 without pagination")
	}
}

func TestErrorMessages(t *testing.T) {
	body := decode(t, `{"errors":[{"code":403,"message":"access denied"},{"code":1}]}`)
	if diff := cmp.Diff([]string{"access denied"}, ErrorMessages(body)); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"dial tcp: refused"}, ErrorMessages("dial tcp: refused")); diff != "" {
		t.Fatalf("string body mismatch:\n%s", diff)
	}
}

func TestRecordVersionTracksAnnouncedFields(t *testing.T) {
	open := Record{ID: "inc:1", Resource: map[string]any{
		"incident_id":        "inc:1",
		"status":             20.0,
		"fine_score":         40.0,
		"modified_timestamp": "2026-10-01T10:00:00Z",
		"hosts":              []any{map[string]any{"last_seen": "t1"}},
	}}
	same := Record{ID: "inc:1", Resource: map[string]any{
		"incident_id":        "inc:1",
		"status":             20.0,
		"fine_score":         40.0,
		"modified_timestamp": "2026-10-01T10:00:00Z",
		"hosts":              []any{map[string]any{"last_seen": "t2"}},
	}}
	closed := Record{ID: "inc:1", Resource: map[string]any{
		"incident_id":        "inc:1",
		"status":             40.0,
		"fine_score":         40.0,
		"modified_timestamp": "2026-10-01T10:00:00Z",
	}}

	if open.Version() == "" {
		t.Fatalf("version must not be empty")
	}
	if open.Version() != same.Version() {
		t.Fatalf("host churn must not change the version")
	}
	if open.Version() == closed.Version() {
		t.Fatalf("status change must change the version")
	}

	a := Record{Resource: map[string]any{"id": "cs:1", "score": 10.0}}
	b := Record{Resource: map[string]any{"id": "cs:1", "score": 12.0}}
	if a.Version() == b.Version() {
		t.Fatalf("resources without tracked fields are fingerprinted whole")
	}
}
