package inference

import (
	"net/http"
	"time"

	"mindmend/internal/logger"
)

// loggingTransport logs every round trip at debug level. Credentials are never logged.
type loggingTransport struct {
	base http.RoundTripper
}

// NewLoggingTransport wraps base (http.DefaultTransport when nil).
func NewLoggingTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &loggingTransport{base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		logger.Debug("HTTP round trip failed",
			"method", req.Method,
			"url", req.URL.Redacted(),
			"duration", duration.String(),
			"error", err)
		return nil, err
	}
	logger.Debug("HTTP round trip completed",
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"duration", duration.String())
	return resp, nil
}
