// Package transport is an HTTP client for the remote solve service.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/utils"
)

// Longest accepted API key.
const MaxAPIKeyLength = 50

type Options struct {
	// Base URL of the service, e.g. https://solve.satalia.com/api/v2
	BaseURL string
	APIKey  string
	// Skip verification of server certificates.
	InsecureSkipVerify bool
	UserAgent          string
	// Sent as X-Client-Id if set.
	ClientID string
	// Limit for each request, including reading the response body.
	Timeout  time.Duration
	Clock    utils.Clock
	Progress ProgressFunc
	Observer Observer
}

type Client struct {
	base     *url.URL
	baseline http.Header
	http     *http.Client
	clock    utils.Clock
	progress ProgressFunc
	observer Observer
}

type Response struct {
	StatusCode int
	Body       []byte
}

// Returns true if the key can be sent to the service.
func ValidAPIKey(key string) bool {
	return key != "" && len(key) <= MaxAPIKeyLength
}

// Configure validates the options and creates a client. No network
// traffic is generated.
func Configure(opts Options) (*Client, error) {
	if !ValidAPIKey(opts.APIKey) {
		return nil, ErrInvalidAPIKey
	}

	base, err := utils.ParseEndpoint(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	baseline := http.Header{}
	baseline.Set("Authorization", "api-key "+opts.APIKey)
	baseline.Set("Accept", "application/json")
	if opts.UserAgent != "" {
		baseline.Set("User-Agent", opts.UserAgent)
	}
	if opts.ClientID != "" {
		baseline.Set("X-Client-Id", opts.ClientID)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify}

	clock := opts.Clock
	if clock == nil {
		clock = utils.SystemClock
	}

	return &Client{
		base:     base,
		baseline: baseline,
		http:     &http.Client{Transport: transport, Timeout: opts.Timeout},
		clock:    clock,
		progress: opts.Progress,
		observer: opts.Observer,
	}, nil
}

// Releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Returns the endpoint URL of a request path. The path may carry a query.
func (c *Client) url(path string) string {
	u := *c.base
	path, query, _ := strings.Cut(path, "?")
	u.Path = c.base.Path + path
	u.RawQuery = query
	return u.String()
}

// Returns the path with job ids replaced by a placeholder.
func Route(path string) string {
	path, _, _ = strings.Cut(path, "?")
	parts := strings.Split(path, "/")
	if len(parts) > 2 && parts[1] == "jobs" && parts[2] != "" {
		parts[2] = ":id"
	}
	return strings.Join(parts, "/")
}

// Request issues a single call and returns the buffered response. Status
// codes of 400 and above and empty bodies are errors.
func (c *Client) Request(ctx context.Context, method, path string, body []byte) (*Response, error) {
	start := c.clock.Now()

	resp, err := c.do(ctx, method, path, body)

	code := StatusCode(err)
	if resp != nil {
		code = resp.StatusCode
	}

	log.Tracef("%4s %s %v", method, path, code)

	if c.observer != nil {
		c.observer.RequestCompleted(method, Route(path), code, c.clock.Now().Sub(start), err)
	}

	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	tracker := newProgressTracker(c.clock, c.progress, cancel)

	fail := func(kind error, code int, data []byte, err error) error {
		if errors.Is(context.Cause(ctx), errAborted) {
			kind, err = ErrCancelled, errAborted
		} else if ctx.Err() != nil && kind == ErrNetwork {
			kind = ErrCancelled
		}
		return &Error{Kind: kind, Method: method, Path: path, StatusCode: code, Body: data, Err: err}
	}

	var reader io.Reader
	if body != nil {
		reader = &countingReader{r: bytes.NewReader(body), tracker: tracker, sending: true}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fail(ErrNetwork, 0, nil, err)
	}

	req.Header = c.baseline.Clone()
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.ContentLength = int64(len(body))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(ErrNetwork, 0, nil, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(&countingReader{r: resp.Body, tracker: tracker})
	if err != nil {
		return nil, fail(ErrNetwork, resp.StatusCode, data, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fail(ErrHTTPStatus, resp.StatusCode, data, nil)
	}

	if len(data) == 0 {
		return nil, fail(ErrEmptyResponse, resp.StatusCode, nil, nil)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// RequestJSON encodes in as the request body, if not nil, and decodes the
// response into out, if not nil.
func (c *Client) RequestJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return err
		}
	}

	resp, err := c.Request(ctx, method, path, body)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &Error{Kind: ErrParse, Method: method, Path: path, StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}

	return nil
}
