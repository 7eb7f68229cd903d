package chat

import (
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/identity"
)

// ErrEmptyMessage is returned when a chat request carries no user message.
var ErrEmptyMessage = errors.New("message is required")

// Sender roles accepted in conversation history.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Turn is one prior exchange in the conversation, oldest first.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single inbound chat message plus the caller-held history.
type Request struct {
	Message string                 `json:"message"`
	History []Turn                 `json:"conversationHistory,omitempty"`
	Context *identity.AgentContext `json:"-"`
}

// Validate rejects requests that must not reach a persona.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	return nil
}

// WithContext returns a copy of the request bound to ctx.
func (r Request) WithContext(ctx identity.AgentContext) Request {
	r.Context = &ctx
	return r
}

// HistoryMessages converts the history into model messages, preserving order.
// Turns with an unrecognised role are skipped.
func HistoryMessages(history []Turn) []*schema.Message {
	if len(history) == 0 {
		return nil
	}

	out := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case SenderUser:
			out = append(out, schema.UserMessage(turn.Content))
		case SenderAssistant:
			out = append(out, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return out
}
