package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lewisedginton/chatbridge/internal/chatapi"
	"github.com/lewisedginton/chatbridge/internal/sysinfo"
	"github.com/lewisedginton/chatbridge/pkg/logger"
	"github.com/lewisedginton/chatbridge/pkg/metrics"
)

// maxRequestBody bounds inbound request bodies. Export payloads are the
// largest legitimate requests; 10 MiB is plenty for conversation data.
const maxRequestBody = 10 << 20

type chatRequest struct {
	UserInput           string                `json:"user_input"`
	ConversationHistory []chatapi.ChatMessage `json:"conversation_history"`
	UserGUID            *string               `json:"user_guid"`
	EndpointURL         *string               `json:"endpoint_url"`
	APIKey              *string               `json:"api_key"`
}

type chatTestRequest struct {
	EndpointURL *string `json:"endpoint_url"`
	APIKey      *string `json:"api_key"`
}

type chatTestResponse struct {
	OK bool `json:"ok"`
}

type dirResponse struct {
	Dir string `json:"dir"`
}

type exportRequest struct {
	Path string `json:"path"`
	Data string `json:"data"`
}

type exportResponse struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

type importRequest struct {
	Path string `json:"path"`
}

type importResponse struct {
	Data string `json:"data"`
}

type notifyRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type errorResponse struct {
	Error          string `json:"error"`
	Code           string `json:"code"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.UserInput == "" {
		s.writeError(w, http.StatusBadRequest, "user_input must not be empty", "bad_request")
		return
	}
	endpoint, ok := s.resolveEndpoint(w, req.EndpointURL, req.APIKey)
	if !ok {
		return
	}

	start := time.Now()
	resp, err := s.chat.SendMessage(r.Context(), endpoint, req.UserInput, req.ConversationHistory, req.UserGUID)
	if s.metrics != nil {
		s.metrics.ObserveChatRequest(chatOutcome(err), time.Since(start))
	}
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChatTest(w http.ResponseWriter, r *http.Request) {
	var req chatTestRequest
	if !s.decode(w, r, &req) {
		return
	}
	endpoint, ok := s.resolveEndpoint(w, req.EndpointURL, req.APIKey)
	if !ok {
		return
	}

	reachable, err := s.chat.TestEndpoint(r.Context(), endpoint)
	if s.metrics != nil {
		s.metrics.IncrementProbeCounter(chatOutcome(err))
	}
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chatTestResponse{OK: reachable})
}

func (s *Server) handleAppDataDir(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, dirResponse{Dir: s.data.Dir()})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		s.writeError(w, http.StatusBadRequest, "path must not be empty", "bad_request")
		return
	}
	if err := s.data.Export(r.Context(), req.Path, []byte(req.Data)); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "export_failed")
		return
	}
	s.writeJSON(w, http.StatusOK, exportResponse{Path: req.Path, Bytes: len(req.Data)})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		s.writeError(w, http.StatusBadRequest, "path must not be empty", "bad_request")
		return
	}
	data, err := s.data.Import(r.Context(), req.Path)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "import_failed")
		return
	}
	s.writeJSON(w, http.StatusOK, importResponse{Data: string(data)})
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, sysinfo.Collect())
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Title == "" {
		s.writeError(w, http.StatusBadRequest, "title must not be empty", "bad_request")
		return
	}
	if err := s.notifier.Notify(req.Title, req.Body); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "notify_failed")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// resolveEndpoint picks the per-request endpoint override or falls back
// to the configured default. Writes a 400 and returns false when
// neither yields a URL.
func (s *Server) resolveEndpoint(w http.ResponseWriter, urlOverride, keyOverride *string) (chatapi.Endpoint, bool) {
	endpoint := chatapi.Endpoint{
		URL:    s.cfg.Chat.EndpointURL,
		APIKey: s.cfg.Chat.APIKey,
	}
	if urlOverride != nil && *urlOverride != "" {
		endpoint.URL = *urlOverride
	}
	if keyOverride != nil {
		endpoint.APIKey = *keyOverride
	}
	if endpoint.URL == "" {
		s.writeError(w, http.StatusBadRequest, "no chat endpoint configured", "bad_request")
		return chatapi.Endpoint{}, false
	}
	return endpoint, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return false
	}
	return true
}

// writeUpstreamError maps chat client failures onto 502 responses that
// keep the three failure modes distinguishable for the UI.
func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.GetLoggerFromContext(r.Context(), s.log)

	var statusErr *chatapi.APIStatusError
	if errors.As(err, &statusErr) {
		log.Warn("upstream rejected chat request",
			logger.IntField("upstream_status", statusErr.StatusCode))
		s.writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:          err.Error(),
			Code:           "api_error",
			UpstreamStatus: statusErr.StatusCode,
		})
		return
	}

	var decodeErr *chatapi.DecodeError
	if errors.As(err, &decodeErr) {
		log.Error("upstream response was unparseable", logger.ErrorField(err))
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Code: "decode_error"})
		return
	}

	var transportErr *chatapi.TransportError
	if errors.As(err, &transportErr) {
		log.Error("upstream unreachable", logger.ErrorField(err))
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Code: "transport_error"})
		return
	}

	log.Error("chat request failed", logger.ErrorField(err))
	s.writeError(w, http.StatusInternalServerError, err.Error(), "internal_error")
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg, code string) {
	s.writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", logger.ErrorField(err))
	}
}

func chatOutcome(err error) string {
	if err == nil {
		return metrics.ChatOutcomeSuccess
	}
	var statusErr *chatapi.APIStatusError
	if errors.As(err, &statusErr) {
		return metrics.ChatOutcomeAPIStatus
	}
	var decodeErr *chatapi.DecodeError
	if errors.As(err, &decodeErr) {
		return metrics.ChatOutcomeDecode
	}
	return metrics.ChatOutcomeTransport
}
