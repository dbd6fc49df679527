package httpclient

import (
	"context"
	"net/http"
	"net/url"
)

// Request describes a single outbound call. Query and Body are independent;
// callers decide which one to populate.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   url.Values
	Body    []byte
}

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}
