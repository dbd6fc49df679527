package feeds

import (
	"fmt"
	"strings"
	"sync"
)

// fetcherRegistry implements FetcherRegistry.
type fetcherRegistry struct {
	fetchersByID   map[string]Fetcher
	fetchersByType map[string]Fetcher
	mu             sync.RWMutex
}

// NewFetcherRegistry builds a registry with type-based fetchers and optional
// feed-specific overrides keyed by Fetcher.ID.
func NewFetcherRegistry(typeFetchers map[string]Fetcher, fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchersByID:   make(map[string]Fetcher),
		fetchersByType: make(map[string]Fetcher),
	}

	for _, f := range fetchers {
		reg.register(reg.fetchersByID, f.ID(), f)
	}
	for typ, f := range typeFetchers {
		reg.register(reg.fetchersByType, typ, f)
	}
	return reg
}

func (r *fetcherRegistry) register(into map[string]Fetcher, key string, f Fetcher) {
	if f == nil {
		return
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}

	r.mu.Lock()
	into[key] = f
	r.mu.Unlock()
}

// FetcherFor selects the fetcher for the given feed based on its id or type.
func (r *fetcherRegistry) FetcherFor(f Feed) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	if strings.TrimSpace(f.ID) == "" {
		return nil, fmt.Errorf("feed id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if fetcher, ok := r.fetchersByID[strings.ToLower(strings.TrimSpace(f.ID))]; ok {
		return fetcher, nil
	}
	if typeKey := strings.ToLower(strings.TrimSpace(f.Type)); typeKey != "" {
		if fetcher, ok := r.fetchersByType[typeKey]; ok {
			return fetcher, nil
		}
	}
	return nil, fmt.Errorf("no fetcher registered for feed %q (type %q)", f.ID, f.Type)
}

// DefaultFetcherRegistry wires up the built-in fetchers against client.
func DefaultFetcherRegistry(client APIClient) FetcherRegistry {
	return NewFetcherRegistry(map[string]Fetcher{
		TypeIncidents:  NewIncidentsFetcher(client),
		TypeBehaviors:  NewBehaviorsFetcher(client),
		TypeCrowdScore: NewCrowdScoreFetcher(client),
	})
}
