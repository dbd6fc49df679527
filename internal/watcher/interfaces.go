package watcher

import (
	"context"
	"net/url"

	"github.com/samvad-hq/falcon-incidents/internal/domain"
	"github.com/samvad-hq/falcon-incidents/pkg/feeds"
	"github.com/samvad-hq/falcon-incidents/pkg/incidents"
	"github.com/samvad-hq/falcon-incidents/pkg/publishers"
)

// Enricher attaches extra context to freshly fetched records.
type Enricher interface {
	Enrich(ctx context.Context, f feeds.Feed, records []domain.Record) []domain.Record
}

// Tagger marks published incidents on the API side.
type Tagger interface {
	Tag(ctx context.Context, f feeds.Feed, ids []string) error
}

// EventPublisher publishes records downstream and reports how many sinks accepted them.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// VersionStore remembers the last published version of each record.
// storage.Store satisfies it.
type VersionStore interface {
	Version(key string) (string, bool, error)
	Put(key, version string) error
}

// ActionAPI is the subset of *incidents.Client used for enrichment and tagging.
type ActionAPI interface {
	QueryBehaviors(ctx context.Context, params url.Values) incidents.Result
	GetBehaviors(ctx context.Context, body any) incidents.Result
	PerformIncidentAction(ctx context.Context, body any) incidents.Result
}
