package incidents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/samvad-hq/falcon-incidents/pkg/httpclient"
)

// Input carries the caller's parameters. Only the field matching the
// operation's InputMode is sent.
type Input struct {
	Query url.Values
	Body  any
}

// QueryInput wraps query parameters for a QueryMode operation.
func QueryInput(params url.Values) Input { return Input{Query: params} }

// BodyInput wraps a JSON-serializable value for a BodyMode operation.
func BodyInput(body any) Input { return Input{Body: body} }

// Dispatch executes op once. Any HTTP answer, whatever its status, yields
// Answered; anything that prevents a well-formed exchange yields *Failed.
func (c *Client) Dispatch(ctx context.Context, op Operation, in Input) Outcome {
	req, err := c.buildRequest(op, in)
	if err != nil {
		return c.fail(op, FailureEncode, err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return c.fail(op, classifyTransport(err), err)
	}

	var body any
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return c.fail(op, FailureDecode, fmt.Errorf("decode response body: %w", err))
	}

	c.log.DebugObj("incidents api answered", "dispatch", map[string]any{
		"operation":   op.Name,
		"status_code": resp.StatusCode(),
	})
	return Answered{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       body,
	}
}

func (c *Client) buildRequest(op Operation, in Input) (httpclient.Request, error) {
	req := httpclient.Request{
		Method:  op.Method,
		URL:     c.baseURL + op.Path,
		Headers: map[string]string{"Authorization": c.authorization},
	}

	switch op.Mode {
	case QueryMode:
		req.Query = in.Query
	case BodyMode:
		if in.Body == nil {
			break
		}
		payload, err := json.Marshal(in.Body)
		if err != nil {
			return httpclient.Request{}, fmt.Errorf("encode request body: %w", err)
		}
		req.Body = payload
		req.Headers["Content-Type"] = "application/json"
	default:
		return httpclient.Request{}, fmt.Errorf("operation %s has unsupported input mode %v", op.Name, op.Mode)
	}
	return req, nil
}

func (c *Client) fail(op Operation, kind FailureKind, err error) *Failed {
	f := &Failed{Operation: op.Name, Kind: kind, Cause: err}
	c.log.WarnObj("incidents api call failed", "dispatch_error", map[string]any{
		"operation": op.Name,
		"kind":      kind.String(),
		"error":     err.Error(),
	})
	return f
}
