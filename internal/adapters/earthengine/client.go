package earthengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const DefaultBaseURL = "https://earthengine.googleapis.com"

// APIError is a non-2xx reply from the compute endpoint.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Status     string `json:"status"`
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("earthengine: %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("earthengine: %d: %s", e.StatusCode, e.Message)
}

// Upstream marks the error as a remote failure for the HTTP layer.
func (e *APIError) Upstream() bool { return true }

// TransportError wraps network failures talking to the API.
type TransportError struct{ Err error }

func (e *TransportError) Error() string  { return "earthengine: " + e.Err.Error() }
func (e *TransportError) Unwrap() error  { return e.Err }
func (e *TransportError) Upstream() bool { return true }

// Client evaluates expressions through the value:compute REST method.
type Client struct {
	baseURL string
	project string
	tokens  TokenSource
	timeout time.Duration
	http    *fasthttp.Client
}

type ClientOptions struct {
	BaseURL string
	Project string
	Tokens  TokenSource
	Timeout time.Duration
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		project: opts.Project,
		tokens:  opts.Tokens,
		timeout: opts.Timeout,
		http: &fasthttp.Client{
			Name:                "sitescout",
			MaxConnsPerHost:     16,
			ReadTimeout:         opts.Timeout,
			WriteTimeout:        opts.Timeout,
			MaxIdleConnDuration: 90 * time.Second,
		},
	}
}

type computeRequest struct {
	Expression *Expression `json:"expression"`
}

type computeResponse struct {
	Result json.RawMessage `json:"result"`
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// Compute evaluates e and decodes the result into out.
func (c *Client) Compute(ctx context.Context, e *Expr, out any) error {
	expr, err := Serialize(e)
	if err != nil {
		return fmt.Errorf("serialize expression: %w", err)
	}
	body, err := json.Marshal(computeRequest{Expression: expr})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/v1/projects/%s/value:compute", c.baseURL, c.project))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return &TransportError{Err: fmt.Errorf("access token: %w", err)}
		}
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+tok)
	}
	req.SetBody(body)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Err: err}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return decodeError(status, resp.Body())
	}

	var cr computeResponse
	if err := json.Unmarshal(resp.Body(), &cr); err != nil {
		return &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(cr.Result, out); err != nil {
		return &TransportError{Err: fmt.Errorf("decode result: %w", err)}
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		env.Error.StatusCode = status
		return env.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return &APIError{StatusCode: status, Code: status, Message: msg}
}

// Ping checks that a bearer token can be obtained. It makes no compute call.
func (c *Client) Ping(ctx context.Context) error {
	if c.tokens == nil {
		return errors.New("earthengine: no credentials configured")
	}
	_, err := c.tokens.Token(ctx)
	return err
}
