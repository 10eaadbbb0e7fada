package chatapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/chatbridge/pkg/logger"
	"github.com/lewisedginton/chatbridge/pkg/utils"
)

func testLogger() logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:  logger.ErrorLevel,
		Format: "json",
		Output: io.Discard,
	})
}

func TestSendMessage(t *testing.T) {
	t.Run("decodes well-formed 200 response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req ChatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "hello", req.UserInput)
			require.Len(t, req.ConversationHistory, 1)
			assert.Equal(t, "user", req.ConversationHistory[0].Role)

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(ChatResponse{
				AssistantResponse: "hi there",
				VoiceResponse:     utils.ToPtr("hi.wav"),
				UserGUID:          utils.ToPtr("guid-1"),
			})
		}))
		defer server.Close()

		client := New(testLogger())
		history := []ChatMessage{{Role: "user", Content: "earlier"}}

		resp, err := client.SendMessage(context.Background(), Endpoint{URL: server.URL}, "hello", history, nil)
		require.NoError(t, err)
		assert.Equal(t, "hi there", resp.AssistantResponse)
		require.NotNil(t, resp.VoiceResponse)
		assert.Equal(t, "hi.wav", *resp.VoiceResponse)
		require.NotNil(t, resp.UserGUID)
		assert.Equal(t, "guid-1", *resp.UserGUID)
		assert.Nil(t, resp.AgentLogs)
	})

	t.Run("nil history is sent as empty array", func(t *testing.T) {
		var rawBody map[string]json.RawMessage
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &rawBody))
			_ = json.NewEncoder(w).Encode(ChatResponse{AssistantResponse: "ok"})
		}))
		defer server.Close()

		client := New(testLogger())
		_, err := client.SendMessage(context.Background(), Endpoint{URL: server.URL}, "hello", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(rawBody["conversation_history"]))
	})

	t.Run("non-2xx status returns APIStatusError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := New(testLogger())
		_, err := client.SendMessage(context.Background(), Endpoint{URL: server.URL}, "hello", nil, nil)
		require.Error(t, err)

		var statusErr *APIStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, 500, statusErr.StatusCode)
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("malformed JSON body returns DecodeError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json at all"))
		}))
		defer server.Close()

		client := New(testLogger())
		_, err := client.SendMessage(context.Background(), Endpoint{URL: server.URL}, "hello", nil, nil)
		require.Error(t, err)

		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Error(t, errors.Unwrap(decodeErr))
	})

	t.Run("unreachable endpoint returns TransportError", func(t *testing.T) {
		client := New(testLogger())
		_, err := client.SendMessage(context.Background(), Endpoint{URL: "http://localhost:1"}, "hello", nil, nil)
		require.Error(t, err)

		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Error(t, errors.Unwrap(transportErr))
	})

	t.Run("attaches key header when present", func(t *testing.T) {
		var gotKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get(APIKeyHeader)
			_ = json.NewEncoder(w).Encode(ChatResponse{AssistantResponse: "ok"})
		}))
		defer server.Close()

		client := New(testLogger())
		_, err := client.SendMessage(context.Background(), Endpoint{URL: server.URL, APIKey: "secret"}, "hello", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "secret", gotKey)
	})

	t.Run("omits key header when empty", func(t *testing.T) {
		var hasKey bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasKey = r.Header[http.CanonicalHeaderKey(APIKeyHeader)]
			_ = json.NewEncoder(w).Encode(ChatResponse{AssistantResponse: "ok"})
		}))
		defer server.Close()

		client := New(testLogger())
		_, err := client.SendMessage(context.Background(), Endpoint{URL: server.URL, APIKey: ""}, "hello", nil, nil)
		require.NoError(t, err)
		assert.False(t, hasKey)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(1 * time.Second)
			_ = json.NewEncoder(w).Encode(ChatResponse{AssistantResponse: "ok"})
		}))
		defer server.Close()

		client := New(testLogger())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.SendMessage(ctx, Endpoint{URL: server.URL}, "hello", nil, nil)
		require.Error(t, err)

		var transportErr *TransportError
		assert.ErrorAs(t, err, &transportErr)
	})
}

func TestTestEndpoint(t *testing.T) {
	t.Run("returns true on 200", func(t *testing.T) {
		var req ChatRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := New(testLogger())
		ok, err := client.TestEndpoint(context.Background(), Endpoint{URL: server.URL})
		require.NoError(t, err)
		assert.True(t, ok)

		// Probe payload is fixed
		assert.Equal(t, "ping", req.UserInput)
		assert.Empty(t, req.ConversationHistory)
		assert.Nil(t, req.UserGUID)
	})

	t.Run("returns false without error on 404", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := New(testLogger())
		ok, err := client.TestEndpoint(context.Background(), Endpoint{URL: server.URL})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("slow endpoint returns TransportError, not a hang", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		// Same shape as the production 5s bound, scaled down for the test
		probeClient := &http.Client{Timeout: 50 * time.Millisecond}
		client := NewWithClients(&http.Client{}, probeClient, testLogger())

		ok, err := client.TestEndpoint(context.Background(), Endpoint{URL: server.URL})
		require.Error(t, err)
		assert.False(t, ok)

		var transportErr *TransportError
		assert.ErrorAs(t, err, &transportErr)
	})

	t.Run("attaches key header when present", func(t *testing.T) {
		var gotKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get(APIKeyHeader)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := New(testLogger())
		_, err := client.TestEndpoint(context.Background(), Endpoint{URL: server.URL, APIKey: "probe-key"})
		require.NoError(t, err)
		assert.Equal(t, "probe-key", gotKey)
	})
}

func TestBuildHeaders(t *testing.T) {
	t.Run("with key", func(t *testing.T) {
		h := BuildHeaders("secret")
		assert.Equal(t, "application/json", h.Get("Content-Type"))
		assert.Equal(t, "secret", h.Get(APIKeyHeader))
	})

	t.Run("without key", func(t *testing.T) {
		h := BuildHeaders("")
		assert.Equal(t, "application/json", h.Get("Content-Type"))
		_, present := h[http.CanonicalHeaderKey(APIKeyHeader)]
		assert.False(t, present)
	})
}
