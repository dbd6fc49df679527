package feeds

import (
	"context"
	"fmt"

	"github.com/samvad-hq/falcon-incidents/internal/domain"
)

// behaviorsFetcher implements Fetcher for behaviors feeds.
type behaviorsFetcher struct {
	client APIClient
}

// NewBehaviorsFetcher searches behavior IDs and resolves them to details.
func NewBehaviorsFetcher(client APIClient) Fetcher {
	return &behaviorsFetcher{client: client}
}

func (f *behaviorsFetcher) ID() string { return TypeBehaviors }

func (f *behaviorsFetcher) Fetch(ctx context.Context, feed Feed) ([]domain.Record, error) {
	if feed.Type != TypeBehaviors {
		return nil, fmt.Errorf("behaviors fetcher received incompatible feed type %q", feed.Type)
	}

	ids, err := queryAllIDs(ctx, feed, "QueryBehaviors", f.client.QueryBehaviors)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	resources, err := fetchDetails(ctx, feed, "GetBehaviors", ids, f.client.GetBehaviors)
	if err != nil {
		return nil, err
	}
	return buildRecords(feed, domain.KindBehavior, "behavior_id", resources), nil
}
