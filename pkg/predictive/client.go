// Package predictive is a client for a remote predictive service: it sends
// queries to deployed predictive objects and feedback on earlier queries.
//
// Requests are issued in the background. Query and Feedback return a
// *Response immediately; reading its status or body waits for the round
// trip to finish.
package predictive

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/predictive-service-client/pkg/httpclient"
)

const (
	// DefaultQueryTimeout bounds each request unless overridden.
	DefaultQueryTimeout = 10 * time.Second

	contentTypeJSON = "application/json"
	queryPath       = "/query/"
	feedbackPath    = "/feedback"
)

// Client talks to a single predictive service endpoint.
//
// All methods are safe for concurrent use. Changing the certificate policy
// swaps the transport under a lock, but requests already in flight finish
// on the transport they started with, and a request issued concurrently
// with the swap may use either policy.
type Client struct {
	mu                sync.RWMutex
	endpoint          string
	apiKey            string
	verifyCertificate bool
	timeout           time.Duration
	transport         httpclient.Client

	newTransport TransportFactory
	userAgent    string
	log          Logger
}

// requestSettings is a consistent view of the client taken when a request
// is issued.
type requestSettings struct {
	endpoint  string
	apiKey    string
	timeout   time.Duration
	transport httpclient.Client
}

// New builds a Client and checks that endpoint answers a GET with 200.
// Set verifyCertificate to false for services running with a self-signed
// certificate.
func New(ctx context.Context, endpoint, apiKey string, verifyCertificate bool, opts ...Option) (*Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Client{
		endpoint:          endpoint,
		apiKey:            apiKey,
		verifyCertificate: verifyCertificate,
		timeout:           DefaultQueryTimeout,
		newTransport:      DefaultTransportFactory,
		log:               noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.transport = c.buildTransport(verifyCertificate)

	if err := c.initConnection(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromConfigFile reads the "Service Info" section of the file at path
// and builds a Client from it.
func NewFromConfigFile(ctx context.Context, path string, opts ...Option) (*Client, error) {
	info, err := LoadServiceInfo(path)
	if err != nil {
		return nil, err
	}
	return New(ctx, info.Endpoint, info.APIKey, info.VerifyCertificate, opts...)
}

// Query sends data to the predictive object named objectName.
//
// The request runs in the background under ctx and the client's query
// timeout; cancelling ctx aborts it. Errors returned here are request setup
// failures (bad endpoint, unencodable data). Failures of the round trip
// itself are reported by the Response.
func (c *Client) Query(ctx context.Context, objectName string, data any) (*Response, error) {
	if strings.TrimSpace(objectName) == "" {
		return nil, fmt.Errorf("%w: predictive object name is empty", ErrInvalidRequest)
	}
	s := c.settings()
	base, err := constructURL(s.endpoint)
	if err != nil {
		return nil, err
	}
	return c.postRequest(ctx, s, base+queryPath+url.PathEscape(objectName), newQueryEnvelope(data, s.apiKey))
}

// Feedback sends data about the earlier query identified by requestID,
// usually the uuid returned in that query's response.
func (c *Client) Feedback(ctx context.Context, requestID string, data any) (*Response, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, fmt.Errorf("%w: request id is empty", ErrInvalidRequest)
	}
	s := c.settings()
	base, err := constructURL(s.endpoint)
	if err != nil {
		return nil, err
	}
	return c.postRequest(ctx, s, base+feedbackPath, newFeedbackEnvelope(requestID, data, s.apiKey))
}

// postRequest encodes env and posts it to target in the background.
func (c *Client) postRequest(ctx context.Context, s requestSettings, target string, env Envelope) (*Response, error) {
	body, err := env.Marshal()
	if err != nil {
		return nil, err
	}
	headers := map[string]string{"Content-Type": contentTypeJSON}

	return c.dispatch(ctx, s, http.MethodPost, target, func(ctx context.Context) (httpclient.Response, error) {
		return s.transport.Post(ctx, target, headers, body)
	}), nil
}

// getRequest issues a GET to target in the background.
func (c *Client) getRequest(ctx context.Context, s requestSettings, target string) *Response {
	return c.dispatch(ctx, s, http.MethodGet, target, func(ctx context.Context) (httpclient.Response, error) {
		return s.transport.Get(ctx, target, nil)
	})
}

func (c *Client) dispatch(ctx context.Context, s requestSettings, method, target string, call func(context.Context) (httpclient.Response, error)) *Response {
	if ctx == nil {
		ctx = context.Background()
	}
	resp := newResponse()
	c.log.DebugObj("predictive request issued", "predictive_request", map[string]any{
		"method": method,
		"url":    target,
	})

	go func() {
		reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		start := time.Now()
		r, err := call(reqCtx)
		if err != nil {
			c.log.WarnObj("predictive request failed", "predictive_request_error", map[string]any{
				"method":     method,
				"url":        target,
				"elapsed_ms": time.Since(start).Milliseconds(),
				"error":      err.Error(),
			})
		} else {
			c.log.DebugObj("predictive request completed", "predictive_response", map[string]any{
				"method":     method,
				"url":        target,
				"status":     r.StatusCode(),
				"elapsed_ms": time.Since(start).Milliseconds(),
			})
		}
		resp.resolve(r, err)
	}()
	return resp
}

// initConnection performs the liveness check against the endpoint root.
func (c *Client) initConnection(ctx context.Context) error {
	s := c.settings()
	base, err := constructURL(s.endpoint)
	if err != nil {
		return err
	}

	resp := c.getRequest(ctx, s, base)
	code := resp.StatusCode()
	if code == http.StatusOK {
		c.log.InfoObj("connected to predictive service", "predictive_endpoint", base)
		return nil
	}

	msg := resp.ErrorMessage()
	if msg == "" {
		msg = readBodySnippet(resp.Body())
	}
	c.log.ErrorObj("predictive service liveness check failed", "predictive_connect_error", map[string]any{
		"endpoint": base,
		"status":   code,
		"error":    msg,
	})
	return &ConnectionError{Endpoint: base, StatusCode: code, Message: msg}
}

func (c *Client) settings() requestSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return requestSettings{
		endpoint:  c.endpoint,
		apiKey:    c.apiKey,
		timeout:   c.timeout,
		transport: c.transport,
	}
}

func (c *Client) buildTransport(verifyCertificate bool) httpclient.Client {
	return c.newTransport(httpclient.Options{
		InsecureSkipVerify: !verifyCertificate,
		UserAgent:          c.userAgent,
	})
}

// SetEndpoint changes the service endpoint. It is validated on the next
// request.
func (c *Client) SetEndpoint(endpoint string) {
	c.mu.Lock()
	c.endpoint = endpoint
	c.mu.Unlock()
}

// Endpoint returns the endpoint as it was set.
func (c *Client) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint
}

// SetAPIKey changes the API key sent with every request.
func (c *Client) SetAPIKey(apiKey string) {
	c.mu.Lock()
	c.apiKey = apiKey
	c.mu.Unlock()
}

// APIKey returns the API key sent with every request.
func (c *Client) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// SetQueryTimeout changes the per-request timeout. Non-positive values
// restore DefaultQueryTimeout.
func (c *Client) SetQueryTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = normalizeTimeout(d)
	c.mu.Unlock()
}

// QueryTimeout returns the per-request timeout.
func (c *Client) QueryTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timeout
}

// SetShouldVerifyCertificate changes the certificate policy. The transport
// is rebuilt only when the value actually changes.
func (c *Client) SetShouldVerifyCertificate(verify bool) {
	c.mu.Lock()
	if c.verifyCertificate == verify {
		c.mu.Unlock()
		return
	}
	old := c.transport
	c.transport = c.buildTransport(verify)
	c.verifyCertificate = verify
	c.mu.Unlock()

	// in-flight requests keep their connections; only idle ones are dropped
	if closer, ok := old.(httpclient.IdleCloser); ok {
		closer.CloseIdleConnections()
	}
	c.log.InfoObj("predictive transport rebuilt", "predictive_transport", map[string]any{
		"verify_certificate": verify,
	})
}

// ShouldVerifyCertificate reports whether server certificates are verified.
func (c *Client) ShouldVerifyCertificate() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.verifyCertificate
}

// constructURL strips one trailing slash and requires an http or https scheme.
func constructURL(endpoint string) (string, error) {
	lower := strings.ToLower(endpoint)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", &EndpointError{Endpoint: endpoint}
	}
	return strings.TrimSuffix(endpoint, "/"), nil
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
