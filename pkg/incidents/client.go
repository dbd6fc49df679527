// Package incidents is a client for the Falcon incidents API. Every
// operation issues exactly one HTTP request and reports the outcome as a
// Result; retries and rate limiting are left to the caller.
package incidents

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/falcon-incidents/pkg/httpclient"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.crowdstrike.com"

// Client is an authenticated session against the incidents API. It holds
// no per-call state and is safe for concurrent use.
type Client struct {
	authorization string
	baseURL       string
	http          httpclient.Client
	log           Logger
}

type options struct {
	baseURL            string
	httpClient         httpclient.Client
	timeout            time.Duration
	insecureSkipVerify bool
	log                Logger
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithHTTPClient replaces the default resty transport. Timeout and TLS
// options are ignored when a client is supplied.
func WithHTTPClient(c httpclient.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout sets the transport timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) Option {
	return func(o *options) { o.insecureSkipVerify = skip }
}

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(log Logger) Option {
	return func(o *options) { o.log = log }
}

// New builds a session from a bearer token issued by the OAuth2 flow. The
// token is used verbatim.
func New(accessToken string, opts ...Option) *Client {
	o := options{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	log := ensureLogger(o.log)
	client := o.httpClient
	if client == nil {
		if o.insecureSkipVerify {
			log.WarnObj("tls certificate verification disabled", "base_url", o.baseURL)
		}
		client = httpclient.NewRestyClient(httpclient.Options{
			Timeout:            o.timeout,
			InsecureSkipVerify: o.insecureSkipVerify,
		})
	}

	return &Client{
		authorization: "Bearer " + accessToken,
		baseURL:       strings.TrimRight(o.baseURL, "/"),
		http:          client,
		log:           log,
	}
}

// BaseURL returns the endpoint the session talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// CrowdScore queries the environment-wide CrowdScore.
func (c *Client) CrowdScore(ctx context.Context, params url.Values) Result {
	return c.Dispatch(ctx, OpCrowdScore, QueryInput(params)).Result()
}

// GetBehaviors returns behavior details for the IDs in body.
func (c *Client) GetBehaviors(ctx context.Context, body any) Result {
	return c.Dispatch(ctx, OpGetBehaviors, BodyInput(body)).Result()
}

// PerformIncidentAction applies a set of actions to one or more incidents,
// such as adding tags or comments or updating the name or description.
func (c *Client) PerformIncidentAction(ctx context.Context, body any) Result {
	return c.Dispatch(ctx, OpPerformIncidentAction, BodyInput(body)).Result()
}

// GetIncidents returns incident details for the IDs in body.
func (c *Client) GetIncidents(ctx context.Context, body any) Result {
	return c.Dispatch(ctx, OpGetIncidents, BodyInput(body)).Result()
}

// QueryBehaviors searches behaviors by FQL filter, sort and paging parameters.
func (c *Client) QueryBehaviors(ctx context.Context, params url.Values) Result {
	return c.Dispatch(ctx, OpQueryBehaviors, QueryInput(params)).Result()
}

// QueryIncidents searches incidents by FQL filter, sort and paging parameters.
func (c *Client) QueryIncidents(ctx context.Context, params url.Values) Result {
	return c.Dispatch(ctx, OpQueryIncidents, QueryInput(params)).Result()
}
