package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/gatebound/pkg/actor"
	"github.com/jwebster45206/gatebound/pkg/chat"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// Builder constructs chat messages for the dialogue provider using a fluent interface.
type Builder struct {
	gs           *state.GameState
	companion    string
	player       *actor.Player
	guidance     string
	context      string
	userMessage  string
	historyLimit int
	messages     []chat.ChatMessage
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		historyLimit: state.PromptHistoryLimit,
		messages:     make([]chat.ChatMessage, 0),
	}
}

func (b *Builder) WithGameState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

func (b *Builder) WithCompanion(name string) *Builder {
	b.companion = name
	return b
}

// WithPlayer adds the d20 player line. Optional.
func (b *Builder) WithPlayer(p *actor.Player) *Builder {
	b.player = p
	return b
}

// WithGuidance adds episode guidance the companion should steer toward.
func (b *Builder) WithGuidance(text string) *Builder {
	b.guidance = text
	return b
}

// WithContext adds activity or scene context supplied with the chat request.
func (b *Builder) WithContext(text string) *Builder {
	b.context = text
	return b
}

func (b *Builder) WithUserMessage(message string) *Builder {
	b.userMessage = message
	return b
}

func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs the final message array.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.gs == nil {
		return nil, fmt.Errorf("gamestate is required")
	}
	if b.companion == "" {
		return nil, fmt.Errorf("companion is required")
	}

	b.messages = make([]chat.ChatMessage, 0)

	if err := b.addSystemPrompt(); err != nil {
		return nil, fmt.Errorf("error building system prompt: %w", err)
	}
	b.messages = append(b.messages, chat.Tail(b.gs.ChatHistory, b.historyLimit)...)
	if b.userMessage != "" {
		b.messages = append(b.messages, chat.ChatMessage{Role: chat.ChatRoleUser, Content: b.userMessage})
	}
	b.addFinalPrompt()

	return b.messages, nil
}

func (b *Builder) addSystemPrompt() error {
	var sb strings.Builder

	playerLine := actor.BuildPrompt(b.player)
	if playerLine == "" {
		playerLine = "The user is a newly awakened hunter."
	}
	sb.WriteString(fmt.Sprintf(CompanionSystemPrompt, b.companion, b.companion, playerLine))

	// The chat history travels as messages, not inside the state block.
	ps := state.ToPromptState(b.gs, b.companion)
	ps.RecentChat = nil
	data, err := json.Marshal(ps)
	if err != nil {
		return fmt.Errorf("error marshalling prompt state: %w", err)
	}
	sb.WriteString("\n\n### Game state\n")
	sb.Write(data)

	if b.guidance != "" {
		sb.WriteString("\n\n### Story guidance\nGently steer toward this without forcing it: " + b.guidance)
	}
	if b.context != "" {
		sb.WriteString("\n\n### Current context\n" + b.context)
	}

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: sb.String(),
	})
	return nil
}

func (b *Builder) addFinalPrompt() {
	final := ResponseFormatPrompt
	if b.gs.IsEnded() {
		final = EndedPrompt + "\n\n" + ResponseFormatPrompt
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: final,
	})
}

// BuildMessages is a convenience function for the common case.
func BuildMessages(gs *state.GameState, companion string, player *actor.Player, message string) ([]chat.ChatMessage, error) {
	return New().
		WithGameState(gs).
		WithCompanion(companion).
		WithPlayer(player).
		WithUserMessage(message).
		Build()
}
