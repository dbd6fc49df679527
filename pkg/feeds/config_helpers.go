package feeds

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ConfigString returns the trimmed string value for key from feed.Config or a fallback.
func ConfigString(f Feed, key, fallback string) string {
	if f.Config != nil {
		if raw, ok := f.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

// ConfigQueryKey holds extra query parameters passed through verbatim.
const ConfigQueryKey = "query"

// QueryParams builds the query string for a search call: filter, sort and
// limit from the feed, plus anything under config.query.
func QueryParams(f Feed) url.Values {
	params := url.Values{}
	if f.Filter != "" {
		params.Set("filter", f.Filter)
	}
	if f.Sort != "" {
		params.Set("sort", f.Sort)
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}

	extra, _ := f.Config[ConfigQueryKey].(map[string]any)
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		switch v := extra[k].(type) {
		case []any:
			for _, item := range v {
				params.Add(key, fmt.Sprint(item))
			}
		case nil:
		default:
			params.Set(key, fmt.Sprint(v))
		}
	}
	return params
}

// ConfigIDFieldKey overrides which resource field becomes the record ID.
const ConfigIDFieldKey = "id_field"
