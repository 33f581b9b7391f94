// Package inference implements the remote inference clients used by the history manager.
//
// Every client performs a single attempt and encodes all problems as a
// mindtypes.Failure outcome; none of them retries or returns a Go error.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"mindmend/internal/logger"
	"mindmend/internal/testutils"
	"mindmend/pkg/mindtypes"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// ResponseTooLargeReason is reported when a successful response exceeds maxResponseBytes.
const ResponseTooLargeReason = "response too large"

// chatRequest is the JSON body sent to the chat endpoint.
type chatRequest struct {
	Messages        mindtypes.Conversation `json:"messages"`
	UseExtraContext bool                   `json:"use_extra_context"`
}

// EndpointClient talks to the hosted chat endpoint under bearer authentication.
type EndpointClient struct {
	endpoint string
	tokens   mindtypes.TokenProvider
	client   *http.Client
	testMode bool
}

// EndpointOption configures an EndpointClient.
type EndpointOption func(*EndpointClient)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) EndpointOption {
	return func(c *EndpointClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout sets the transport timeout. Zero disables it.
func WithTimeout(timeout time.Duration) EndpointOption {
	return func(c *EndpointClient) {
		c.client.Timeout = timeout
	}
}

// WithTestMode makes request IDs deterministic.
func WithTestMode(testMode bool) EndpointOption {
	return func(c *EndpointClient) {
		c.testMode = testMode
	}
}

// NewEndpointClient creates a client for endpoint. The endpoint is resolved
// once by the caller at startup. tokens may be nil, meaning "never authenticated".
func NewEndpointClient(endpoint string, tokens mindtypes.TokenProvider, opts ...EndpointOption) *EndpointClient {
	c := &EndpointClient{
		endpoint: endpoint,
		tokens:   tokens,
		client:   &http.Client{Transport: NewLoggingTransport(nil)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProviderName returns "endpoint".
func (c *EndpointClient) ProviderName() string {
	return "endpoint"
}

// Endpoint returns the URL requests are sent to.
func (c *EndpointClient) Endpoint() string {
	return c.endpoint
}

// Send posts the prior conversation plus the new user turn and classifies the response.
func (c *EndpointClient) Send(ctx context.Context, history mindtypes.Conversation, userText string, allowExtraContext bool) mindtypes.InferenceOutcome {
	messages := append(history.Clone(), mindtypes.UserTurn(userText))
	body, err := json.Marshal(chatRequest{Messages: messages, UseExtraContext: allowExtraContext})
	if err != nil {
		return mindtypes.Failure(fmt.Sprintf("failed to encode request: %v", err))
	}

	// The server decides what an empty credential means.
	token := ""
	if c.tokens != nil {
		if t, ok := c.tokens.AccessToken(ctx); ok {
			token = t
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		logger.Error("Failed to create inference request", "error", err, "endpoint", c.endpoint)
		return mindtypes.Failure(err.Error())
	}
	requestID := testutils.GenerateUUID(c.testMode)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", requestID)

	logger.Debug("Sending inference request",
		"endpoint", c.endpoint,
		"request_id", requestID,
		"messages", len(messages),
		"use_extra_context", allowExtraContext,
		"authenticated", token != "")

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("Inference request failed", "error", err, "request_id", requestID)
		return mindtypes.Failure(err.Error())
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// One byte past the cap tells an oversized body from one that fits exactly.
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	return classify(resp.StatusCode, respBody, readErr)
}

// classify maps a response to an outcome.
//
//	2xx over maxResponseBytes           -> Failure("response too large")
//	2xx with a string "content"        -> Success(content)
//	2xx with anything else              -> Success("")
//	non-2xx with a string "message"     -> Failure(message)
//	non-2xx otherwise                   -> Failure("request failed with status N")
func classify(status int, body []byte, readErr error) mindtypes.InferenceOutcome {
	if status < 200 || status > 299 {
		if readErr == nil && gjson.ValidBytes(body) {
			if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String && msg.Str != "" {
				logger.Warn("Inference service reported failure", "status", status, "reason", msg.Str)
				return mindtypes.Failure(msg.Str)
			}
		}
		logger.Warn("Inference service returned error status", "status", status)
		return mindtypes.Failure(fmt.Sprintf("request failed with status %d", status))
	}

	if readErr != nil {
		logger.Warn("Failed to read inference response", "error", readErr)
		return mindtypes.Failure(readErr.Error())
	}
	if len(body) > maxResponseBytes {
		logger.Warn("Inference response exceeds size limit", "limit", maxResponseBytes)
		return mindtypes.Failure(ResponseTooLargeReason)
	}
	if !gjson.ValidBytes(body) {
		logger.Debug("Inference response is not valid JSON", "bytes", len(body))
		return mindtypes.Success("")
	}
	content := gjson.GetBytes(body, "content")
	if content.Type != gjson.String {
		logger.Debug("Inference response has no content field")
		return mindtypes.Success("")
	}
	logger.Debug("Inference response received", "content_length", len(content.Str))
	return mindtypes.Success(content.Str)
}
