package publishers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writePublishersFile(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	path := writePublishersFile(t, "publishers.yaml", `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
	if len(reg.All()) != 2 {
		t.Fatalf("All should keep disabled entries")
	}
}

func TestLoadRegistryNormalizesSinks(t *testing.T) {
	path := writePublishersFile(t, "publishers.yml", `
publishers:
  - id: queue
    type: SQS
    kinds: [" Incident ", incident, behavior]
    sqs:
      uri: " https://sqs.us-east-1.amazonaws.com/123/incidents.fifo "
      region: us-east-1
      endpoint: http://localhost:4566
  - id: topic
    type: sns
    sns:
      topic_arn: arn:aws:sns:us-east-1:123:incidents
      region: us-east-1
  - id: gcp
    type: pubsub
    pubsub:
      project_id: soc
      topic: incidents
  - id: hook
    type: http
    http:
      url: https://hooks.example.com/falcon
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	queue, ok := reg.ByID("queue")
	if !ok || queue.Type != TypeSQS {
		t.Fatalf("unexpected sqs config %#v", queue)
	}
	if queue.SQS.QueueURL != "https://sqs.us-east-1.amazonaws.com/123/incidents.fifo" || queue.SQS.Endpoint != "http://localhost:4566" {
		t.Fatalf("sqs block not trimmed or inlined: %#v", queue.SQS)
	}
	if diff := cmp.Diff([]string{"incident", "behavior"}, queue.Kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	hook, _ := reg.ByID("hook")
	if hook.HTTP.Method != "POST" || hook.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http defaults not applied: %#v", hook.HTTP)
	}
	if _, ok := reg.ByID("missing"); ok {
		t.Fatalf("ByID found an unknown id")
	}
	if len(reg.Enabled()) != 4 {
		t.Fatalf("publishers default to enabled")
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writePublishersFile(t, "publishers.json", `{"publishers":[{"id":"hook","type":"http","kinds":["crowdscore"],"http":{"url":"https://example.com"}}]}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	hook, ok := reg.ByID("hook")
	if !ok || len(hook.Kinds) != 1 || hook.Kinds[0] != "crowdscore" {
		t.Fatalf("unexpected json entry %#v", hook)
	}
}

func TestLoadRegistryRejects(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want string
	}{
		"empty": {
			raw:  "publishers: []",
			want: "no publishers",
		},
		"duplicate id": {
			raw: `
publishers:
  - {id: a, type: http, http: {url: "https://x"}}
  - {id: a, type: http, http: {url: "https://y"}}
`,
			want: `duplicate publisher id "a"`,
		},
		"missing block": {
			raw:  "publishers: [{id: h, type: http}]",
			want: "http block is required",
		},
		"unknown type": {
			raw:  "publishers: [{id: k, type: kafka}]",
			want: `unsupported type "kafka"`,
		},
		"missing region": {
			raw:  `publishers: [{id: s, type: sns, sns: {topic_arn: arn}}]`,
			want: "region is required",
		},
		"unknown kind": {
			raw:  `publishers: [{id: h, type: http, kinds: [detection], http: {url: "https://x"}}]`,
			want: `unknown record kind "detection"`,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadRegistry(writePublishersFile(t, "publishers.yaml", tc.raw))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("LoadRegistry error = %v, want %q", err, tc.want)
			}
		})
	}
}
