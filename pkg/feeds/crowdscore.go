package feeds

import (
	"context"
	"fmt"

	"github.com/samvad-hq/falcon-incidents/internal/domain"
)

// crowdScoreFetcher snapshots the environment CrowdScore history.
type crowdScoreFetcher struct {
	client APIClient
}

func NewCrowdScoreFetcher(client APIClient) Fetcher {
	return &crowdScoreFetcher{client: client}
}

func (f *crowdScoreFetcher) ID() string { return TypeCrowdScore }

func (f *crowdScoreFetcher) Fetch(ctx context.Context, feed Feed) ([]domain.Record, error) {
	if feed.Type != TypeCrowdScore {
		return nil, fmt.Errorf("crowdscore fetcher received incompatible feed type %q", feed.Type)
	}

	res := f.client.CrowdScore(ctx, QueryParams(feed))
	if !res.OK() {
		return nil, resultError(feed.ID, "CrowdScore", res)
	}
	return buildRecords(feed, domain.KindCrowdScore, "id", domain.Resources(res.Body)), nil
}
