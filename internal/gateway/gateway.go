// Package gateway is the single HTTP client for the external analysis
// backend. Every JSON call collapses to an Envelope; callers branch on
// StatusCode and never see a Go error from Get or Post.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/secflow/secflow/internal/metrics"
	"github.com/secflow/secflow/internal/utils"
)

const (
	msgInvalidFormat = "Invalid response format - Expected JSON"
	msgFetchFailed   = "Failed to fetch data"
)

// Envelope is the uniform {statusCode, data} wrapper returned for every call.
// An envelope built by the gateway for a failed call keeps the backend's
// status but is never OK, even when that status is 2xx.
type Envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`

	failed bool
}

// OK reports a 2xx envelope carrying the backend's own payload.
func (e Envelope) OK() bool {
	return !e.failed && e.StatusCode >= 200 && e.StatusCode < 300
}

// ErrorMessage returns data.error when the envelope carries one.
func (e Envelope) ErrorMessage() string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Data, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}

// Blob is a binary download such as a PDF report.
type Blob struct {
	ContentType string
	Data        []byte
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a gateway for baseURL, e.g. http://localhost:3014/api/v1.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: NewHTTPClient(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTPClient returns a pooled client. No overall timeout is set; callers
// bound requests through their context.
func NewHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport}
}

// NewOAuthHTTPClient wraps the pooled client with client-credentials auth.
func NewOAuthHTTPClient(ctx context.Context, clientID, clientSecret, tokenURL string) *http.Client {
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, NewHTTPClient())
	return cc.Client(ctx)
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues GET baseURL+path.
func (c *Client) Get(ctx context.Context, path string) Envelope {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues POST baseURL+path with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) Envelope {
	payload, err := json.Marshal(body)
	if err != nil {
		c.logger.Error("ERROR gateway: encoding request body", "path", path, "error", err)
		return failure(http.StatusInternalServerError, msgFetchFailed)
	}
	return c.do(ctx, http.MethodPost, path, payload)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (env Envelope) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		// A malformed response must never escape as a panic.
		if r := recover(); r != nil {
			c.logger.Error("ERROR gateway: recovered", "method", method, "path", path, "panic", r)
			env = failure(http.StatusInternalServerError, msgFetchFailed)
			outcome = "transport"
		}
		metrics.GatewayRequests.WithLabelValues(method, outcome).Inc()
		metrics.GatewayLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		outcome = "transport"
		c.logger.Warn("ERROR gateway: creating request", "method", method, "path", path, "error", err)
		return failure(http.StatusInternalServerError, msgFetchFailed)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "SecFlow/1.0")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "transport"
		c.logger.Warn("ERROR gateway: request failed", "method", method, "path", path, "error", err)
		return failure(http.StatusInternalServerError, msgFetchFailed)
	}
	defer resp.Body.Close()

	if !utils.IsJSONContentType(resp.Header.Get("Content-Type")) {
		outcome = "format"
		io.Copy(io.Discard, resp.Body)
		return failure(resp.StatusCode, msgInvalidFormat)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "status"
		io.Copy(io.Discard, resp.Body)
		return failure(resp.StatusCode, utils.StatusMessage(resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "transport"
		c.logger.Warn("ERROR gateway: reading body", "method", method, "path", path, "error", err)
		return failure(http.StatusInternalServerError, msgFetchFailed)
	}
	if !json.Valid(raw) {
		outcome = "format"
		return failure(resp.StatusCode, msgInvalidFormat)
	}

	return Envelope{StatusCode: resp.StatusCode, Data: raw}
}

// GetBlob downloads a binary document, asking for the given media type.
func (c *Client) GetBlob(ctx context.Context, path, accept string) (*Blob, error) {
	start := time.Now()
	defer func() {
		metrics.GatewayLatency.WithLabelValues("BLOB").Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", "SecFlow/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("BLOB", "transport").Inc()
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.GatewayRequests.WithLabelValues("BLOB", "status").Inc()
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: utils.StatusMessage(resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("BLOB", "transport").Inc()
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	metrics.GatewayRequests.WithLabelValues("BLOB", "ok").Inc()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = accept
	}
	return &Blob{ContentType: contentType, Data: data}, nil
}

// StatusError is returned by GetBlob for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

func failure(status int, message string) Envelope {
	data, _ := json.Marshal(map[string]string{"error": message})
	return Envelope{StatusCode: status, Data: data, failed: true}
}
