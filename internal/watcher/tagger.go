package watcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/falcon-incidents/pkg/feeds"
)

const actionBatchSize = 100

// IncidentTagger adds the feed's tag to incidents via the incident-actions endpoint.
type IncidentTagger struct {
	api ActionAPI
}

// NewIncidentTagger builds a tagger backed by the incidents API.
func NewIncidentTagger(api ActionAPI) *IncidentTagger {
	return &IncidentTagger{api: api}
}

// Tag applies f.Tag to ids in batches. Feeds without a tag are a no-op.
func (t *IncidentTagger) Tag(ctx context.Context, f feeds.Feed, ids []string) error {
	if f.Tag == "" || len(ids) == 0 {
		return nil
	}

	var errs []error
	for start := 0; start < len(ids); start += actionBatchSize {
		end := min(start+actionBatchSize, len(ids))
		res := t.api.PerformIncidentAction(ctx, map[string]any{
			"ids": ids[start:end],
			"action_parameters": []map[string]string{
				{"name": "add_tag", "value": f.Tag},
			},
		})
		if !res.OK() {
			errs = append(errs, fmt.Errorf("tag %d incidents: %w", end-start, apiError("perform incident action", res)))
		}
	}
	return errors.Join(errs...)
}
