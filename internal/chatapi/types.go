// Package chatapi implements the outbound client for the remote
// chat-completion API used by the desktop UI.
package chatapi

// ChatMessage is a single turn in a conversation. Messages are immutable
// once constructed; ordering within a history is supplied by the caller.
type ChatMessage struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp *string `json:"timestamp"`
}

// ChatRequest is the outbound request body. It is constructed fresh per
// call and never persisted.
type ChatRequest struct {
	UserInput           string        `json:"user_input"`
	ConversationHistory []ChatMessage `json:"conversation_history"`
	UserGUID            *string       `json:"user_guid"`
}

// ChatResponse is the inbound response body. All fields beyond
// AssistantResponse are optional and decode to nil when absent.
type ChatResponse struct {
	AssistantResponse string  `json:"assistant_response"`
	VoiceResponse     *string `json:"voice_response"`
	AgentLogs         *string `json:"agent_logs"`
	UserGUID          *string `json:"user_guid"`
}

// Endpoint identifies the remote API for a single call. The API key is
// optional; an empty key means no key header is sent.
type Endpoint struct {
	URL    string
	APIKey string
}
