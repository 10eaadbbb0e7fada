package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lewisedginton/chatbridge/pkg/logger"
)

const (
	// APIKeyHeader is the header carrying the optional endpoint key
	// (Azure Functions convention).
	APIKeyHeader = "x-functions-key"

	// ProbeTimeout bounds a connectivity probe. Chat completions may
	// legitimately take longer than a liveness check, so SendMessage is
	// deliberately not bounded the same way.
	ProbeTimeout = 5 * time.Second

	probePayload = "ping"
)

// Client sends chat requests to a remote endpoint. It holds no mutable
// state and is safe for concurrent use; the endpoint is supplied per call.
type Client struct {
	// sendClient has no timeout: a chat completion is allowed to run as
	// long as the caller's context permits.
	sendClient  *http.Client
	probeClient *http.Client
	log         logger.Logger
}

// New creates a chat API client with default HTTP clients.
func New(log logger.Logger) *Client {
	return NewWithClients(
		&http.Client{},
		&http.Client{Timeout: ProbeTimeout},
		log,
	)
}

// NewWithClients creates a client with caller-supplied HTTP clients.
// sendClient serves SendMessage, probeClient serves TestEndpoint.
func NewWithClients(sendClient, probeClient *http.Client, log logger.Logger) *Client {
	return &Client{
		sendClient:  sendClient,
		probeClient: probeClient,
		log:         log,
	}
}

// BuildHeaders returns the headers for a chat API request. The key header
// is only present when a non-empty key is supplied.
func BuildHeaders(apiKey string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if apiKey != "" {
		h.Set(APIKeyHeader, apiKey)
	}
	return h
}

// SendMessage posts the user's input and conversation history to the
// endpoint and decodes the response.
//
// Failures are distinguishable to the caller via errors.As:
// *TransportError for connection failures, *APIStatusError for non-2xx
// statuses, *DecodeError for malformed response bodies.
func (c *Client) SendMessage(ctx context.Context, endpoint Endpoint, userInput string, history []ChatMessage, userGUID *string) (*ChatResponse, error) {
	if history == nil {
		// The wire contract requires an array, not null
		history = []ChatMessage{}
	}

	req := ChatRequest{
		UserInput:           userInput,
		ConversationHistory: history,
		UserGUID:            userGUID,
	}

	resp, err := c.post(ctx, c.sendClient, endpoint, req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		// Drain so the connection can be reused; the body of an error
		// response is discarded
		_, _ = io.Copy(io.Discard, resp.Body)
		c.log.Warn("Chat endpoint returned non-success status",
			logger.StringField("endpoint", endpoint.URL),
			logger.IntField("status", resp.StatusCode))
		return nil, &APIStatusError{StatusCode: resp.StatusCode}
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &DecodeError{Err: err}
	}

	c.log.Debug("Chat message exchanged",
		logger.StringField("endpoint", endpoint.URL),
		logger.IntField("history_len", len(history)))

	return &out, nil
}

// TestEndpoint sends a fixed placeholder request to check connectivity,
// bounded by ProbeTimeout. It reports whether the endpoint answered with a
// success status; a transport failure (including timeout) is returned as a
// *TransportError, distinct from an explicit false.
func (c *Client) TestEndpoint(ctx context.Context, endpoint Endpoint) (bool, error) {
	req := ChatRequest{
		UserInput:           probePayload,
		ConversationHistory: []ChatMessage{},
	}

	resp, err := c.post(ctx, c.probeClient, endpoint, req)
	if err != nil {
		return false, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	ok := isSuccess(resp.StatusCode)
	c.log.Debug("Endpoint probe completed",
		logger.StringField("endpoint", endpoint.URL),
		logger.IntField("status", resp.StatusCode),
		logger.BoolField("ok", ok))

	return ok, nil
}

// post issues a JSON POST to the endpoint with the given client. URL
// validation is delegated to the HTTP layer: a malformed URL surfaces as a
// request error, same as any other transport failure.
func (c *Client) post(ctx context.Context, client *http.Client, endpoint Endpoint, payload ChatRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = BuildHeaders(endpoint.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}
