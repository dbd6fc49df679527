package feeds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samvad-hq/falcon-incidents/internal/domain"
	"github.com/samvad-hq/falcon-incidents/pkg/incidents"
)

// fakeAPI serves canned results and records calls.
type fakeAPI struct {
	queryPages  []string
	details     string
	crowdscore  string
	status      int
	queryCalls  []url.Values
	detailCalls []any
}

func result(t *testing.T, status int, raw string) incidents.Result {
	t.Helper()
	var body any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("bad fixture %q: %v", raw, err)
	}
	return incidents.Normalize(status, http.Header{}, body)
}

func (f *fakeAPI) statusCode() int {
	if f.status == 0 {
		return http.StatusOK
	}
	return f.status
}

func (f *fakeAPI) query(params url.Values) incidents.Result {
	cp := url.Values{}
	for k, v := range params {
		cp[k] = append([]string(nil), v...)
	}
	f.queryCalls = append(f.queryCalls, cp)
	page := f.queryPages[len(f.queryCalls)-1]
	var body any
	_ = json.Unmarshal([]byte(page), &body)
	return incidents.Normalize(f.statusCode(), nil, body)
}

func (f *fakeAPI) detailsFor(body any) incidents.Result {
	f.detailCalls = append(f.detailCalls, body)
	var parsed any
	_ = json.Unmarshal([]byte(f.details), &parsed)
	return incidents.Normalize(http.StatusOK, nil, parsed)
}

func (f *fakeAPI) CrowdScore(_ context.Context, _ url.Values) incidents.Result {
	var body any
	_ = json.Unmarshal([]byte(f.crowdscore), &body)
	return incidents.Normalize(f.statusCode(), nil, body)
}
func (f *fakeAPI) GetBehaviors(_ context.Context, body any) incidents.Result {
	return f.detailsFor(body)
}
func (f *fakeAPI) GetIncidents(_ context.Context, body any) incidents.Result {
	return f.detailsFor(body)
}
func (f *fakeAPI) QueryBehaviors(_ context.Context, params url.Values) incidents.Result {
	return f.query(params)
}
func (f *fakeAPI) QueryIncidents(_ context.Context, params url.Values) incidents.Result {
	return f.query(params)
}

func TestIncidentsFetcherPagesAndResolves(t *testing.T) {
	api := &fakeAPI{
		queryPages: []string{
			`{"meta":{"pagination":{"offset":0,"limit":2,"total":3}},"resources":["inc:1","inc:2"]}`,
			`{"meta":{"pagination":{"offset":2,"limit":2,"total":3}},"resources":["inc:3"]}`,
		},
		details: `{"resources":[{"incident_id":"inc:1","fine_score":40},{"incident_id":"inc:2"},{"incident_id":"inc:3"},{"fine_score":1}]}`,
	}
	feed := sanitizeFeed(Feed{ID: "inc", Type: TypeIncidents, Limit: 2, RequestDelayMs: 1, Filter: "status:'20'"})

	records, err := NewIncidentsFetcher(api).Fetch(context.Background(), feed)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(api.queryCalls) != 2 {
		t.Fatalf("expected 2 query pages, got %d", len(api.queryCalls))
	}
	if api.queryCalls[1].Get("offset") != "2" || api.queryCalls[1].Get("filter") != "status:'20'" {
		t.Fatalf("unexpected second page params %v", api.queryCalls[1])
	}
	wantBody := map[string]any{"ids": []string{"inc:1", "inc:2", "inc:3"}}
	if diff := cmp.Diff([]any{wantBody}, api.detailCalls); diff != "" {
		t.Fatalf("details body mismatch (-want +got):\n%s", diff)
	}
	if len(records) != 3 || records[0].ID != "inc:1" || records[0].Kind != "incident" || records[0].FeedID != "inc" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestBehaviorsFetcherStopsOnEmptyQuery(t *testing.T) {
	api := &fakeAPI{queryPages: []string{`{"resources":[]}`}}
	feed := sanitizeFeed(Feed{ID: "b", Type: TypeBehaviors})

	records, err := NewBehaviorsFetcher(api).Fetch(context.Background(), feed)
	if err != nil || records != nil {
		t.Fatalf("expected no records and no error, got %v %v", records, err)
	}
	if len(api.detailCalls) != 0 {
		t.Fatalf("details must not be called for empty query")
	}
}

func TestFetcherSurfacesAPIErrors(t *testing.T) {
	api := &fakeAPI{
		status:     http.StatusForbidden,
		queryPages: []string{`{"errors":[{"code":403,"message":"access denied, authorization failed"}],"resources":[]}`},
	}
	feed := sanitizeFeed(Feed{ID: "inc", Type: TypeIncidents})

	_, err := NewIncidentsFetcher(api).Fetch(context.Background(), feed)
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected status and message in error, got %v", err)
	}
}

func TestCrowdScoreFetcher(t *testing.T) {
	api := &fakeAPI{crowdscore: `{"resources":[{"id":"cs:1","score":12,"adjusted_score":10},{"id":"cs:2","score":14}]}`}
	feed := sanitizeFeed(Feed{ID: "cs", Type: TypeCrowdScore})

	records, err := fetchVia(t, api, feed)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 || records[1].ID != "cs:2" || records[1].Kind != "crowdscore" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func fetchVia(t *testing.T, api APIClient, feed Feed) ([]domain.Record, error) {
	t.Helper()
	fetcher, err := DefaultFetcherRegistry(api).FetcherFor(feed)
	if err != nil {
		t.Fatalf("FetcherFor: %v", err)
	}
	return fetcher.Fetch(context.Background(), feed)
}

type stubFetcher struct {
	id string
}

func (s *stubFetcher) ID() string { return s.id }
func (s *stubFetcher) Fetch(context.Context, Feed) ([]domain.Record, error) {
	return nil, nil
}

func TestFetcherRegistryPrefersIDOverType(t *testing.T) {
	special := &stubFetcher{id: "special"}
	reg := NewFetcherRegistry(map[string]Fetcher{TypeIncidents: &stubFetcher{id: "generic"}}, special)

	got, err := reg.FetcherFor(Feed{ID: "Special", Type: TypeIncidents})
	if err != nil || got != special {
		t.Fatalf("expected id match, got %v err=%v", got, err)
	}
	if _, err := reg.FetcherFor(Feed{ID: "x", Type: "unknown"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if _, err := reg.FetcherFor(Feed{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestFetchDetailsBatches(t *testing.T) {
	ids := make([]string, detailsBatchSize+5)
	for i := range ids {
		ids[i] = "id"
	}
	var batches []int
	_, err := fetchDetails(context.Background(), Feed{ID: "f", RequestDelayMs: 1}, "GetIncidents", ids, func(_ context.Context, body any) incidents.Result {
		batches = append(batches, len(body.(map[string]any)["ids"].([]string)))
		return result(t, http.StatusOK, `{"resources":[]}`)
	})
	if err != nil {
		t.Fatalf("fetchDetails: %v", err)
	}
	if diff := cmp.Diff([]int{detailsBatchSize, 5}, batches); diff != "" {
		t.Fatalf("batch sizes mismatch (-want +got):\n%s", diff)
	}
}
