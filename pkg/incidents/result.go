package incidents

import (
	"net/http"
	"strings"
)

// Headers maps canonical header names to their values. Multi-valued headers
// are joined with ", ".
type Headers map[string]string

// Get returns the value for name, matched case-insensitively.
func (h Headers) Get(name string) string {
	if h == nil {
		return ""
	}
	return h[http.CanonicalHeaderKey(name)]
}

// Result is the uniform record returned by every operation, whether the
// remote service answered or the call failed locally.
type Result struct {
	StatusCode int     `json:"status_code"`
	Headers    Headers `json:"headers"`
	Body       any     `json:"body"`
}

// OK reports whether the status code is in the 2xx range.
func (r Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Normalize packages a status code, header set and body into a Result.
func Normalize(statusCode int, header http.Header, body any) Result {
	headers := make(Headers, len(header))
	for name, values := range header {
		headers[http.CanonicalHeaderKey(name)] = strings.Join(values, ", ")
	}
	return Result{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       body,
	}
}
