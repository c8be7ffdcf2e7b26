// Package httpclient provides the HTTP transport seam used by the API
// clients: an HTTPDoer interface and a decorator that logs every request.
package httpclient

import (
	"net/http"
	"time"

	"github.com/ignite/emailvision/internal/pkg/logger"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both *http.Client and *LoggingClient satisfy this interface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LoggingClient wraps an HTTPDoer and logs each request with secret query
// values redacted. It never retries.
type LoggingClient struct {
	client HTTPDoer
}

// NewLoggingClient creates a LoggingClient that wraps the given HTTPDoer.
// If client is nil, a default http.Client with 30s timeout is used.
func NewLoggingClient(client HTTPDoer) *LoggingClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &LoggingClient{client: client}
}

// New returns a LoggingClient over an http.Client with the given timeout.
// A zero timeout leaves the transport default in place.
func New(timeout time.Duration) *LoggingClient {
	return NewLoggingClient(&http.Client{Timeout: timeout})
}

// Do executes the request once and logs the outcome.
func (lc *LoggingClient) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := lc.client.Do(req)
	elapsed := time.Since(start)

	target := req.URL.Host + req.URL.Path
	query := logger.RedactQuery(req.URL.RawQuery)

	if err != nil {
		logger.Warn("http request failed",
			"method", req.Method,
			"url", target,
			"query", query,
			"elapsed", elapsed.Round(time.Millisecond),
			"error", err,
		)
		return nil, err
	}

	logger.Debug("http request",
		"method", req.Method,
		"url", target,
		"query", query,
		"status", resp.StatusCode,
		"elapsed", elapsed.Round(time.Millisecond),
	)
	return resp, nil
}
