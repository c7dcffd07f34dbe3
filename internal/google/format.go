package google

import (
	"strings"

	"github.com/charmbracelet/skim/internal/proto"
)

const roleModel = "model"

// fromProtoMessages maps a conversation to Gemini contents.
//
// A fresh summarization is sent as a single content without a role. Once the
// conversation has an assistant turn it becomes alternating user and model
// turns, with the system block folded into the first user turn.
func fromProtoMessages(input []proto.Message) []Content {
	var system []string
	for _, in := range input {
		if in.Role == proto.RoleSystem && in.Content != "" {
			system = append(system, in.Content)
		}
	}

	if !proto.Conversation(input).HasAssistant() {
		texts := system
		for _, in := range input {
			if in.Role == proto.RoleUser && in.Content != "" {
				texts = append(texts, in.Content)
			}
		}
		return []Content{{Parts: []Part{{Text: strings.Join(texts, "\n\n")}}}}
	}

	result := make([]Content, 0, len(input))
	pending := strings.Join(system, "\n\n")
	for _, in := range input {
		switch in.Role {
		case proto.RoleUser:
			text := in.Content
			if pending != "" {
				text = pending + "\n\n" + text
				pending = ""
			}
			result = appendTurn(result, proto.RoleUser, text)
		case proto.RoleAssistant:
			result = appendTurn(result, roleModel, in.Content)
		}
	}
	return result
}

// appendTurn merges consecutive turns of the same role, which Gemini rejects.
func appendTurn(contents []Content, role, text string) []Content {
	if n := len(contents); n > 0 && contents[n-1].Role == role {
		contents[n-1].Parts = append(contents[n-1].Parts, Part{Text: text})
		return contents
	}
	return append(contents, Content{Role: role, Parts: []Part{{Text: text}}})
}
