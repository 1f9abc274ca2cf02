package llm

import "context"

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"` // "system" or "user"
	Content string `json:"content"`
}

// ChatCompleter is an interface for backends that answer chat-completion
// requests with a single JSON-encoded message body.
type ChatCompleter interface {
	// CompleteJSON sends the messages and returns the raw content of the
	// model's reply. Implementations constrain the model to emit a JSON
	// object; callers own parsing and validation.
	CompleteJSON(ctx context.Context, messages []Message) (string, error)
}
