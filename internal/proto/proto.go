// Package proto shared protocol.
package proto

import (
	"strings"
)

// Roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a message in the conversation.
type Message struct {
	Role    string
	Content string
}

// Conversation is a conversation.
type Conversation []Message

func (cc Conversation) String() string {
	var sb strings.Builder
	for _, msg := range cc {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case RoleSystem:
			// the instruction block carries the whole article, skip it.
			continue
		case RoleUser:
			sb.WriteString("**You**: ")
		case RoleAssistant:
			sb.WriteString("**Assistant**: ")
		}
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// HasAssistant reports whether the assistant already answered at least once.
func (cc Conversation) HasAssistant() bool {
	for _, msg := range cc {
		if msg.Role == RoleAssistant {
			return true
		}
	}
	return false
}
