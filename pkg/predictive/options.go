package predictive

import (
	"time"

	"github.com/samvad-hq/predictive-service-client/pkg/httpclient"
)

// TransportFactory builds the HTTP transport used by a Client. It is called
// once at construction and again whenever the certificate policy changes.
type TransportFactory func(opts httpclient.Options) httpclient.Client

// DefaultTransportFactory builds a resty-backed transport.
func DefaultTransportFactory(opts httpclient.Options) httpclient.Client {
	return httpclient.NewRestyClient(opts)
}

// Option customises a Client at construction.
type Option func(*Client)

// WithLogger routes client logs to log.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		c.log = ensureLogger(log)
	}
}

// WithQueryTimeout overrides the default per-request timeout.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = normalizeTimeout(d)
	}
}

// WithTransportFactory replaces the transport builder.
func WithTransportFactory(f TransportFactory) Option {
	return func(c *Client) {
		if f != nil {
			c.newTransport = f
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func normalizeTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultQueryTimeout
	}
	return d
}
