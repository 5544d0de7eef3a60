// Package landapi is the HTTP client for the external land service that owns
// locations, land records and land codes.
package landapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/landledger/backoffice/internal/apperr"
	"github.com/landledger/backoffice/internal/utils"
	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 64 << 10

var ErrMissingToken = errors.New("no bearer token available")

// TokenSource supplies the bearer token for a request. Tokens are opaque.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken always returns the same token. Used by the CLI tools.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrMissingToken
	}
	return string(t), nil
}

// ContextToken forwards the token the caller presented to the back office.
type ContextToken struct{}

func (ContextToken) Token(ctx context.Context) (string, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok {
		return "", ErrMissingToken
	}
	return token, nil
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RatePerSecond limits outgoing requests; 0 disables limiting.
	RatePerSecond float64
	Tokens        TokenSource
	HTTPClient    *http.Client
}

// Client talks to the land service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     TokenSource
}

// NewClient creates a new land service client.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = ContextToken{}
	}
	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: hc,
		tokens:     tokens,
	}
	if opts.RatePerSecond > 0 {
		burst := int(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return c
}

// request describes one call to the land service.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

// do sends req and decodes a successful JSON response into out (if non-nil).
// Every failure comes back as *apperr.UpstreamError.
func (c *Client) do(ctx context.Context, req request, out any) error {
	fail := func(status int, msg string, err error) error {
		if msg == "" {
			msg = apperr.GenericMessage(status)
		}
		e := &apperr.UpstreamError{Operation: req.op, StatusCode: status, Message: msg, Err: err}
		LogError(req.op, e)
		return e
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(0, "", err)
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fail(http.StatusUnauthorized, "missing bearer token", err)
	}

	fullURL := c.baseURL + req.path
	if len(req.query) > 0 {
		fullURL += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, fullURL, req.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	requestID, ok := utils.GetRequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	LogRequest(req.method, req.path, requestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fail(0, "", err)
	}
	defer resp.Body.Close()

	LogResponse(req.method, req.path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fail(resp.StatusCode, serverMessage(body), nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fail(resp.StatusCode, "invalid response from land service", err)
	}
	return nil
}

// serverMessage extracts the land service's own error wording, if any.
func serverMessage(body []byte) string {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "detail"} {
		if s, ok := doc[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// decodeList accepts either a bare JSON array or an object wrapping it in "data".
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []T{}, nil
	}
	var items []T
	if strings.HasPrefix(trimmed, "{") {
		var env struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, err
		}
		items = env.Data
	} else if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Client) getList(ctx context.Context, op, path string, query url.Values, decode func(json.RawMessage) error) error {
	var raw json.RawMessage
	if err := c.do(ctx, request{op: op, method: http.MethodGet, path: path, query: query}, &raw); err != nil {
		return err
	}
	if err := decode(raw); err != nil {
		return &apperr.UpstreamError{Operation: op, StatusCode: http.StatusOK, Message: "invalid response from land service", Err: err}
	}
	return nil
}
