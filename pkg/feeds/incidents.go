package feeds

import (
	"context"
	"fmt"

	"github.com/samvad-hq/falcon-incidents/internal/domain"
)

// incidentsFetcher implements Fetcher for incidents feeds.
type incidentsFetcher struct {
	client APIClient
}

// NewIncidentsFetcher searches incident IDs and resolves them to details.
func NewIncidentsFetcher(client APIClient) Fetcher {
	return &incidentsFetcher{client: client}
}

func (f *incidentsFetcher) ID() string { return TypeIncidents }

func (f *incidentsFetcher) Fetch(ctx context.Context, feed Feed) ([]domain.Record, error) {
	if feed.Type != TypeIncidents {
		return nil, fmt.Errorf("incidents fetcher received incompatible feed type %q", feed.Type)
	}

	ids, err := queryAllIDs(ctx, feed, "QueryIncidents", f.client.QueryIncidents)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	resources, err := fetchDetails(ctx, feed, "GetIncidents", ids, f.client.GetIncidents)
	if err != nil {
		return nil, err
	}
	return buildRecords(feed, domain.KindIncident, "incident_id", resources), nil
}
