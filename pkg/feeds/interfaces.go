package feeds

import (
	"context"
	"net/url"

	"github.com/samvad-hq/falcon-incidents/internal/domain"
	"github.com/samvad-hq/falcon-incidents/pkg/incidents"
)

// Fetcher retrieves records for a feed.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, f Feed) ([]domain.Record, error)
}

// FetcherRegistry resolves the fetcher implementation for a given feed.
type FetcherRegistry interface {
	FetcherFor(f Feed) (Fetcher, error)
}

// APIClient is the subset of *incidents.Client the fetchers use.
type APIClient interface {
	CrowdScore(ctx context.Context, params url.Values) incidents.Result
	GetBehaviors(ctx context.Context, body any) incidents.Result
	GetIncidents(ctx context.Context, body any) incidents.Result
	QueryBehaviors(ctx context.Context, params url.Values) incidents.Result
	QueryIncidents(ctx context.Context, params url.Values) incidents.Result
}
