package domain

// Domain contains core models shared by feeds, the watcher and publishers.

// Record kinds.
const (
	KindIncident   = "incident"
	KindBehavior   = "behavior"
	KindCrowdScore = "crowdscore"
)

// Record is one API resource picked up by a feed.
type Record struct {
	ID        string           `json:"id"`
	Kind      string           `json:"kind"`
	FeedID    string           `json:"feed_id"`
	Resource  map[string]any   `json:"resource"`
	Behaviors []map[string]any `json:"behaviors,omitempty"`
}

// ResourceIDs extracts the "resources" array of a query response as strings.
func ResourceIDs(body any) []string {
	raw := resourceList(body)
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		if id, ok := r.(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Resources extracts the "resources" array of an entities response as objects.
func Resources(body any) []map[string]any {
	raw := resourceList(body)
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if obj, ok := r.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// TotalResults returns meta.pagination.total, or -1 when absent.
func TotalResults(body any) int {
	obj, ok := body.(map[string]any)
	if !ok {
		return -1
	}
	meta, _ := obj["meta"].(map[string]any)
	pagination, _ := meta["pagination"].(map[string]any)
	total, ok := pagination["total"].(float64)
	if !ok {
		return -1
	}
	return int(total)
}

// ErrorMessages flattens the "errors" array of a response body.
func ErrorMessages(body any) []string {
	if s, ok := body.(string); ok {
		return []string{s}
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	list, _ := obj["errors"].([]any)
	msgs := make([]string, 0, len(list))
	for _, e := range list {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if msg, ok := entry["message"].(string); ok && msg != "" {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func resourceList(body any) []any {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	list, _ := obj["resources"].([]any)
	return list
}
