package publishers

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/samvad-hq/falcon-incidents/internal/domain"
)

// Change values carried by events.
const (
	ChangeNew     = "new"
	ChangeUpdated = "updated"
)

// Event is the payload published downstream for a new or changed record.
type Event struct {
	FeedID      string           `json:"feed_id"`
	Kind        string           `json:"kind"`
	RecordID    string           `json:"record_id"`
	Change      string           `json:"change"`
	Version     string           `json:"version"`
	Resource    map[string]any   `json:"resource"`
	Behaviors   []map[string]any `json:"behaviors,omitempty"`
	CollectedAt time.Time        `json:"collected_at"`
}

// NewEvent announces rec as a new record at its current version.
func NewEvent(rec domain.Record) Event {
	return Event{
		FeedID:      rec.FeedID,
		Kind:        rec.Kind,
		RecordID:    rec.ID,
		Change:      ChangeNew,
		Version:     rec.Version(),
		Resource:    rec.Resource,
		Behaviors:   rec.Behaviors,
		CollectedAt: time.Now().UTC(),
	}
}

// routing is the sink-independent metadata subscribers filter and dedupe on.
type routing struct {
	// strings become String attributes.
	strings map[string]string
	// numbers become Number attributes on AWS sinks and strings elsewhere.
	numbers map[string]string
	// group orders messages of one feed on FIFO queues and topics.
	group string
	// dedupKey is stable for one version of one record.
	dedupKey string
}

func (e Event) routing() routing {
	r := routing{
		strings: map[string]string{
			"feed_id":   e.FeedID,
			"kind":      e.Kind,
			"record_id": e.RecordID,
			"change":    e.Change,
		},
		numbers: map[string]string{},
		group:   e.FeedID,
	}
	for _, field := range []string{"fine_score", "status"} {
		if n, ok := e.Resource[field].(float64); ok {
			r.numbers[field] = strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	sum := sha256.Sum256([]byte(e.FeedID + "\x00" + e.RecordID + "\x00" + e.Version))
	r.dedupKey = hex.EncodeToString(sum[:])
	return r
}

// flatAttributes merges string and number attributes for sinks with
// string-only metadata.
func (r routing) flatAttributes() map[string]string {
	out := make(map[string]string, len(r.strings)+len(r.numbers))
	for k, v := range r.strings {
		if v != "" {
			out[k] = v
		}
	}
	for k, v := range r.numbers {
		out[k] = v
	}
	return out
}
