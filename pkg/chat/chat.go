package chat

import (
	"fmt"
	"strings"
	"time"
)

const (
	ChatRoleUser      = "user"      // Player
	ChatRoleCompanion = "assistant" // Companion reply from the dialogue provider
	ChatRoleSystem    = "system"    // Narration
)

// ChatRequest is a free-form message sent to the companion.
type ChatRequest struct {
	Message string `json:"message"`
	Context string `json:"context,omitempty"` // Optional activity/scene context
}

func (cr *ChatRequest) Validate() error {
	if strings.TrimSpace(cr.Message) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}

// ChatMessage is a single entry in a session's chat history.
type ChatMessage struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Expression string    `json:"expression,omitempty"` // Companion expression tag
	At         time.Time `json:"at,omitzero"`
}

// ChatResponse is returned by the chat endpoint.
type ChatResponse struct {
	Message    string `json:"message"`
	Expression string `json:"expression,omitempty"`
	Fallback   bool   `json:"fallback,omitempty"` // Provider failed; state unchanged
}

// Tail returns at most n trailing messages.
func Tail(history []ChatMessage, n int) []ChatMessage {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
