package model

import (
	"time"

	"github.com/google/uuid"
)

type MessageSource string

const (
	MessageSourceUser      = MessageSource("user")
	MessageSourceAssistant = MessageSource("assistant")
)

type ChatMessage struct {
	ID        uuid.UUID
	Source    MessageSource
	Body      string
	CreatedAt time.Time
}

// ChatTurn is a message reduced to what the assistant needs as history.
type ChatTurn struct {
	Role    MessageSource `json:"role"`
	Content string        `json:"content"`
}

// ChatContext is the consultation a chat session talks about.
type ChatContext struct {
	Transcript string          `json:"transcript"`
	Result     DiagnosisResult `json:"-"`
}

type AIChat struct {
	ChatID    uuid.UUID
	Context   ChatContext
	Messages  []ChatMessage
	CreatedAt time.Time
}

// Turns returns the session history in order, reduced to role and content.
func (c AIChat) Turns() []ChatTurn {
	turns := make([]ChatTurn, 0, len(c.Messages))
	for _, msg := range c.Messages {
		role := MessageSourceAssistant
		if msg.Source == MessageSourceUser {
			role = MessageSourceUser
		}
		turns = append(turns, ChatTurn{Role: role, Content: msg.Body})
	}
	return turns
}
