package feeds

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samvad-hq/falcon-incidents/internal/domain"
	"github.com/samvad-hq/falcon-incidents/pkg/incidents"
)

// detailsBatchSize caps the number of IDs per entities request.
const detailsBatchSize = 100

type queryFunc func(ctx context.Context, params url.Values) incidents.Result
type detailsFunc func(ctx context.Context, body any) incidents.Result

// resultError turns a non-2xx Result into an error carrying the API messages.
func resultError(feedID, op string, res incidents.Result) error {
	msgs := domain.ErrorMessages(res.Body)
	if len(msgs) == 0 {
		return fmt.Errorf("feed %s: %s returned status %d", feedID, op, res.StatusCode)
	}
	return fmt.Errorf("feed %s: %s returned status %d: %s", feedID, op, res.StatusCode, strings.Join(msgs, "; "))
}

// queryAllIDs pages through a search endpoint until the total is reached,
// an empty page comes back or MaxPages is hit.
func queryAllIDs(ctx context.Context, f Feed, op string, query queryFunc) ([]string, error) {
	params := QueryParams(f)
	var ids []string
	offset := 0

	for page := 0; page < f.MaxPages; page++ {
		if page > 0 {
			if err := sleepCtx(ctx, f.RequestDelay()); err != nil {
				return ids, err
			}
		}
		params.Set("offset", strconv.Itoa(offset))

		res := query(ctx, params)
		if !res.OK() {
			return nil, resultError(f.ID, op, res)
		}
		pageIDs := domain.ResourceIDs(res.Body)
		ids = append(ids, pageIDs...)
		offset += len(pageIDs)

		total := domain.TotalResults(res.Body)
		if len(pageIDs) == 0 || total < 0 || offset >= total {
			break
		}
	}
	return ids, nil
}

// fetchDetails resolves IDs to full resources in batches.
func fetchDetails(ctx context.Context, f Feed, op string, ids []string, details detailsFunc) ([]map[string]any, error) {
	var out []map[string]any
	for start := 0; start < len(ids); start += detailsBatchSize {
		if start > 0 {
			if err := sleepCtx(ctx, f.RequestDelay()); err != nil {
				return out, err
			}
		}
		end := min(start+detailsBatchSize, len(ids))

		res := details(ctx, map[string]any{"ids": ids[start:end]})
		if !res.OK() {
			return nil, resultError(f.ID, op, res)
		}
		out = append(out, domain.Resources(res.Body)...)
	}
	return out, nil
}

// buildRecords converts resources into records keyed by idField.
func buildRecords(f Feed, kind, idField string, resources []map[string]any) []domain.Record {
	idField = ConfigString(f, ConfigIDFieldKey, idField)
	records := make([]domain.Record, 0, len(resources))
	for _, res := range resources {
		id, _ := res[idField].(string)
		if strings.TrimSpace(id) == "" {
			continue
		}
		records = append(records, domain.Record{
			ID:       id,
			Kind:     kind,
			FeedID:   f.ID,
			Resource: res,
		})
	}
	return records
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
