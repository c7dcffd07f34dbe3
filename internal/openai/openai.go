// Package openai implements [provider.Adapter] for OpenAI-style chat
// completion endpoints.
package openai

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/charmbracelet/skim/internal/proto"
	"github.com/charmbracelet/skim/internal/provider"
	"github.com/openai/openai-go"
)

var _ provider.Adapter = &Adapter{}

// finishLength is the finish reason of an answer cut by the token limit.
const finishLength = "length"

// Adapter speaks the OpenAI chat completions dialect.
type Adapter struct {
	profile  catalog.Profile
	timeouts provider.Timeouts
}

// New creates a new [Adapter] for the given provider profile.
func New(profile catalog.Profile, timeouts provider.Timeouts) *Adapter {
	return &Adapter{
		profile:  profile,
		timeouts: timeouts,
	}
}

// Provider implements provider.Adapter.
func (a *Adapter) Provider() catalog.ProviderID { return a.profile.ID }

// TimeoutFor implements provider.Adapter.
func (a *Adapter) TimeoutFor(model catalog.Model) time.Duration {
	return a.timeouts.For(model)
}

// BuildRequest implements provider.Adapter.
func (a *Adapter) BuildRequest(model catalog.Model, messages []proto.Message, credential string) (provider.Request, error) {
	if len(messages) == 0 {
		return provider.Request{}, fmt.Errorf("openai: no messages")
	}

	params := catalog.Merge(a.profile.Defaults, model.Params)
	body := openai.ChatCompletionNewParams{
		Model:    model.ID,
		Messages: fromProtoMessages(messages),
	}

	// reasoning models reject sampling parameters and the legacy max_tokens.
	if model.Thinking {
		if params.MaxTokens != nil {
			body.MaxCompletionTokens = openai.Int(*params.MaxTokens)
		}
	} else {
		if params.MaxTokens != nil {
			body.MaxTokens = openai.Int(*params.MaxTokens)
		}
		if params.Temperature != nil {
			body.Temperature = openai.Float(*params.Temperature)
		}
		if params.TopP != nil {
			body.TopP = openai.Float(*params.TopP)
		}
	}

	header := make(http.Header)
	header.Set("Authorization", "Bearer "+credential)
	return provider.Request{
		URL:    a.profile.Endpoint,
		Header: header,
		Body:   body,
	}, nil
}

// ParseResponse implements provider.Adapter.
func (a *Adapter) ParseResponse(status int, body []byte) proto.Result {
	if provider.IsFailureStatusCode(status) {
		return provider.Rejected(status, body)
	}

	var completion openai.ChatCompletion
	if err := completion.UnmarshalJSON(body); err != nil {
		return proto.FailureErr(proto.EmptyResponse, "the answer could not be read", err)
	}
	if len(completion.Choices) == 0 {
		return proto.Failure(proto.EmptyResponse, "the answer had no choices")
	}

	choice := completion.Choices[0]
	text := provider.Clean(choice.Message.Content)
	if text == "" {
		if reason := strings.TrimSpace(string(choice.FinishReason)); reason != "" {
			return proto.Failuref(proto.EmptyResponse, "the answer was empty (finish reason: %s)", reason)
		}
		return proto.Failure(proto.EmptyResponse, "the answer was empty")
	}

	res := proto.Success(text)
	if string(choice.FinishReason) == finishLength {
		res.Warning = "the summary may be truncated: the token limit was reached"
	}
	return res
}

func fromProtoMessages(input []proto.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		switch msg.Role {
		case proto.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case proto.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case proto.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	return messages
}
