package watcher

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/falcon-incidents/internal/domain"
	"github.com/samvad-hq/falcon-incidents/internal/logger"
	"github.com/samvad-hq/falcon-incidents/pkg/feeds"
)

const behaviorLookupLimit = "500"

var fqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// fqlString quotes v as an FQL string literal.
func fqlString(v string) string {
	return "'" + fqlEscaper.Replace(v) + "'"
}

// BehaviorEnricher attaches the behaviors that make up each incident.
type BehaviorEnricher struct {
	api ActionAPI
	log logger.Logger
}

// NewBehaviorEnricher builds an enricher backed by the incidents API.
func NewBehaviorEnricher(api ActionAPI, log logger.Logger) *BehaviorEnricher {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &BehaviorEnricher{api: api, log: log}
}

// Enrich looks up behaviors for every incident record, pausing between lookups.
// Records whose lookup fails are returned unchanged.
func (e *BehaviorEnricher) Enrich(ctx context.Context, f feeds.Feed, records []domain.Record) []domain.Record {
	delay := f.RequestDelay()
	out := append([]domain.Record(nil), records...)

	for i, rec := range records {
		select {
		case <-ctx.Done():
			return out
		default:
		}
		if rec.Kind != domain.KindIncident {
			continue
		}

		behaviors, err := e.behaviorsFor(ctx, rec.ID)
		if err != nil {
			e.log.WarnObj("behavior lookup failed", "enrich_error", map[string]any{
				"feed_id":     f.ID,
				"incident_id": rec.ID,
				"error":       err.Error(),
			})
		} else {
			out[i].Behaviors = behaviors
		}

		if delay > 0 && i < len(records)-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out
			case <-timer.C:
			}
		}
	}

	return out
}

func (e *BehaviorEnricher) behaviorsFor(ctx context.Context, incidentID string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("filter", "incident_id:"+fqlString(incidentID))
	params.Set("limit", behaviorLookupLimit)

	res := e.api.QueryBehaviors(ctx, params)
	if !res.OK() {
		return nil, apiError("query behaviors", res)
	}
	ids := domain.ResourceIDs(res.Body)
	if len(ids) == 0 {
		return nil, nil
	}

	res = e.api.GetBehaviors(ctx, map[string]any{"ids": ids})
	if !res.OK() {
		return nil, apiError("get behaviors", res)
	}
	return domain.Resources(res.Body), nil
}
