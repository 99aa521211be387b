package predictive

import (
	"context"
	"net/http"

	"github.com/samvad-hq/predictive-service-client/pkg/httpclient"
)

// StatusFailed is reported by Response.StatusCode when the request never
// produced an HTTP response (connection refused, timeout, DNS failure).
const StatusFailed = -1

// Response is a handle on a request issued in the background. Accessors
// that need the result block until the request resolves; the result is
// kept, so repeated calls do not wait again.
type Response struct {
	done chan struct{}

	// written once by the request goroutine before done is closed
	statusCode int
	body       []byte
	header     http.Header
	err        error
}

func newResponse() *Response {
	return &Response{done: make(chan struct{})}
}

// resolve records the outcome of the transport call and releases waiters.
func (r *Response) resolve(resp httpclient.Response, err error) {
	if err != nil {
		r.statusCode = StatusFailed
		r.err = err
	} else {
		r.statusCode = resp.StatusCode()
		r.body = resp.Body()
		r.header = resp.Header()
	}
	close(r.done)
}

// Done is closed once the request has resolved.
func (r *Response) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the request resolves or ctx is done. It returns the
// transport error, if any. A non-2xx status is not an error.
func (r *Response) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StatusCode blocks until the request resolves and returns the HTTP status,
// or StatusFailed if the request failed before a response arrived.
func (r *Response) StatusCode() int {
	<-r.done
	return r.statusCode
}

// Body blocks until the request resolves and returns the raw response body.
func (r *Response) Body() []byte {
	<-r.done
	return r.body
}

// Header blocks until the request resolves and returns the response headers.
func (r *Response) Header() http.Header {
	<-r.done
	return r.header
}

// Err returns the transport failure without blocking. It is nil while the
// request is pending and after a successful round trip.
func (r *Response) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// ErrorMessage returns the transport failure description without blocking,
// or "" if there is none yet.
func (r *Response) ErrorMessage() string {
	if err := r.Err(); err != nil {
		return err.Error()
	}
	return ""
}

// Succeeded blocks until the request resolves and reports a 2xx status.
func (r *Response) Succeeded() bool {
	code := r.StatusCode()
	return code >= 200 && code < 300
}
