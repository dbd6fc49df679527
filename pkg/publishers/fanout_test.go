package publishers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type stubPublisher struct {
	id    string
	typ   string
	err   error
	delay time.Duration
	calls atomic.Int32
	inUse *atomic.Int32
	peak  *atomic.Int32
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls.Add(1)
	if s.inUse != nil {
		n := s.inUse.Add(1)
		defer s.inUse.Add(-1)
		for {
			p := s.peak.Load()
			if n <= p || s.peak.CompareAndSwap(p, n) {
				break
			}
		}
	}
	time.Sleep(s.delay)
	return s.err
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: TypeHTTP},
		nil,
		&stubPublisher{id: "bad", typ: TypeSQS, err: errors.New("throttled")},
	})

	count, err := fanout.Publish(context.Background(), updatedIncident())
	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}
	if err == nil || err.Error() != "sqs publisher[bad]: throttled" {
		t.Fatalf("unexpected aggregated error %v", err)
	}
	if fanout.Size() != 2 {
		t.Fatalf("nil publishers should be dropped, size=%d", fanout.Size())
	}
}

func TestFanoutPublishesConcurrently(t *testing.T) {
	var inUse, peak atomic.Int32
	pubs := make([]Publisher, 3)
	for i := range pubs {
		pubs[i] = &stubPublisher{id: string(rune('a' + i)), typ: TypeHTTP, delay: 50 * time.Millisecond, inUse: &inUse, peak: &peak}
	}

	count, err := NewFanout(pubs).Publish(context.Background(), updatedIncident())
	if err != nil || count != 3 {
		t.Fatalf("Publish = %d, %v", count, err)
	}
	if peak.Load() < 2 {
		t.Fatalf("sinks were called one at a time (peak %d)", peak.Load())
	}
}

func TestFanoutHonoursSinkKinds(t *testing.T) {
	incidents := &stubPublisher{id: "incidents", typ: TypeSNS}
	everything := &stubPublisher{id: "all", typ: TypeHTTP}
	fanout := NewFanout([]Publisher{
		&kindFiltered{Publisher: incidents, kinds: []string{"incident"}},
		everything,
	})

	behavior := Event{FeedID: "behaviors", Kind: "behavior", RecordID: "b:1"}
	count, err := fanout.Publish(context.Background(), behavior)
	if err != nil || count != 1 {
		t.Fatalf("behavior Publish = %d, %v", count, err)
	}
	if _, err := fanout.Publish(context.Background(), updatedIncident()); err != nil {
		t.Fatalf("incident Publish: %v", err)
	}
	if incidents.calls.Load() != 1 || everything.calls.Load() != 2 {
		t.Fatalf("calls incidents=%d all=%d", incidents.calls.Load(), everything.calls.Load())
	}
}

func TestFanoutWithNoMatchingSinkDeliversNothing(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&kindFiltered{Publisher: &stubPublisher{id: "x"}, kinds: []string{"crowdscore"}},
	})
	count, err := fanout.Publish(context.Background(), updatedIncident())
	if count != 0 || err != nil {
		t.Fatalf("Publish = %d, %v", count, err)
	}
}

func TestFanoutCloseReachesFilteredQueuePublishers(t *testing.T) {
	closed := false
	qp := &queuePublisher{id: "q", typ: TypeSQS, closer: func() error {
		closed = true
		return nil
	}}
	fanout := NewFanout([]Publisher{&kindFiltered{Publisher: qp, kinds: []string{"incident"}}, &stubPublisher{id: "h"}})
	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !closed {
		t.Fatalf("queue publisher closer not invoked through kind filter")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "hook", Type: "HTTP", HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
		{ID: "scores", Type: TypeHTTP, Kinds: []string{"CrowdScore"}, HTTP: &HTTPPublisherConfig{URL: "https://example.com/s"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 2 {
		t.Fatalf("expected 2 publishers, got %d", len(pubs))
	}
	if _, filtered := pubs[0].(kindFilter); filtered {
		t.Fatalf("entry without kinds should not be filtered")
	}
	kf, ok := pubs[1].(kindFilter)
	if !ok || !kf.Accepts("crowdscore") || kf.Accepts("incident") {
		t.Fatalf("kinds not applied: %#v", pubs[1])
	}

	for _, bad := range []PublisherConfig{
		{ID: "x", Type: "kafka"},
		{ID: "q", Type: TypeSQS},
		{ID: "h", Type: TypeHTTP, Kinds: []string{"detection"}, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	} {
		if _, err := BuildAll(context.Background(), reg, []PublisherConfig{bad}, nil); err == nil {
			t.Fatalf("expected build error for %+v", bad)
		}
	}
}
