package predictive

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration   = errors.New("configuration error")
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	ErrConnection      = errors.New("connection error")
	ErrSerialization   = errors.New("serialization error")
	ErrInvalidRequest  = errors.New("invalid request")
)

// ConfigError reports a config source that could not be read or parsed.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config file %q: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	return []error{ErrConfiguration, e.Err}
}

// EndpointError reports an endpoint without an http:// or https:// scheme.
type EndpointError struct {
	Endpoint string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("endpoint %q does not contain a protocol (http:// or https://)", e.Endpoint)
}

func (e *EndpointError) Unwrap() error {
	return ErrInvalidEndpoint
}

// ConnectionError is returned when the liveness check made during
// construction does not answer 200.
type ConnectionError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *ConnectionError) Error() string {
	if e.StatusCode == StatusFailed {
		return fmt.Sprintf("error connecting to service %s: %s", e.Endpoint, e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("error connecting to service %s: response status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("error connecting to service %s: response status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

func (e *ConnectionError) Unwrap() error {
	return ErrConnection
}
