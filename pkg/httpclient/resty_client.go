package httpclient

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options tunes the underlying transport.
type Options struct {
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate verification. Lab use only.
	InsecureSkipVerify bool
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified options.
func NewRestyClient(opts Options) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(opts)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(opts Options) *resty.Client {
	return newRestyBaseClient(opts)
}

// newRestyBaseClient creates a new resty.Client with the specified options.
func newRestyBaseClient(opts Options) *resty.Client {
	c := resty.New()
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	c.SetTLSClientConfig(&tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // opt-in via config
	})
	return c
}

// Do performs a single HTTP request. Non-2xx statuses are not errors; only
// failures to complete the exchange are.
func (r *RestyClient) Do(ctx context.Context, in Request) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(in.Headers) > 0 {
		req.SetHeaders(in.Headers)
	}
	if len(in.Query) > 0 {
		req.SetQueryParamsFromValues(in.Query)
	}
	if in.Body != nil {
		req.SetBody(in.Body)
	}
	resp, err := req.Execute(in.Method, in.URL)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
