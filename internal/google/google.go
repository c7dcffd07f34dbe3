// Package google implements [provider.Adapter] for the Gemini
// generateContent endpoint.
package google

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/charmbracelet/skim/internal/proto"
	"github.com/charmbracelet/skim/internal/provider"
)

var _ provider.Adapter = &Adapter{}

// Finish reasons.
const (
	FinishSafety    = "SAFETY"
	FinishMaxTokens = "MAX_TOKENS"
)

// Part is a datatype containing media that is part of a multi-part Content message.
type Part struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

// Content is the base structured datatype containing multi-part content of a message.
type Content struct {
	Parts []Part `json:"parts,omitempty"`
	Role  string `json:"role,omitempty"`
}

// ThinkingConfig - for more details see https://ai.google.dev/gemini-api/docs/thinking#rest .
//
// A zero budget turns thinking off, so it is always sent.
type ThinkingConfig struct {
	ThinkingBudget int64 `json:"thinkingBudget"`
}

// GenerationConfig are the options for model generation and outputs. Not all parameters are configurable for every model.
type GenerationConfig struct {
	CandidateCount  uint            `json:"candidateCount,omitempty"`
	MaxOutputTokens *int64          `json:"maxOutputTokens,omitempty"`
	Temperature     *float64        `json:"temperature,omitempty"`
	TopP            *float64        `json:"topP,omitempty"`
	ThinkingConfig  *ThinkingConfig `json:"thinkingConfig,omitempty"`
}

// MessageCompletionRequest represents the valid parameters and value options for the request.
type MessageCompletionRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// SafetyRating is the probability of harm for one category.
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
	Blocked     bool   `json:"blocked,omitempty"`
}

// Candidate represents a response candidate generated from the model.
type Candidate struct {
	Content       Content        `json:"content,omitempty"`
	FinishReason  string         `json:"finishReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
	Index         uint           `json:"index,omitempty"`
}

// PromptFeedback is set when the prompt itself was blocked.
type PromptFeedback struct {
	BlockReason   string         `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

// CompletionMessageResponse represents a response to a Gemini completion message.
type CompletionMessageResponse struct {
	Candidates     []Candidate     `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

// Adapter speaks the Gemini dialect.
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
		return provider.Request{}, fmt.Errorf("google: no messages")
	}

	params := catalog.Merge(a.profile.Defaults, model.Params)
	body := MessageCompletionRequest{
		Contents: fromProtoMessages(messages),
		GenerationConfig: GenerationConfig{
			CandidateCount:  1,
			MaxOutputTokens: params.MaxTokens,
			Temperature:     params.Temperature,
			TopP:            params.TopP,
		},
	}

	switch {
	case params.ThinkingBudget != nil:
		body.GenerationConfig.ThinkingConfig = &ThinkingConfig{ThinkingBudget: *params.ThinkingBudget}
	case model.Custom && model.Params == nil && !model.Thinking:
		// custom models only think when asked to.
		body.GenerationConfig.ThinkingConfig = &ThinkingConfig{ThinkingBudget: 0}
	}

	return provider.Request{
		URL:  a.profile.Endpoint + url.PathEscape(model.ID) + ":generateContent?key=" + url.QueryEscape(credential),
		Body: body,
	}, nil
}

// ParseResponse implements provider.Adapter.
func (a *Adapter) ParseResponse(status int, body []byte) proto.Result {
	if provider.IsFailureStatusCode(status) {
		return provider.Rejected(status, body)
	}

	var resp CompletionMessageResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return proto.FailureErr(proto.EmptyResponse, "the answer could not be read", err)
	}

	if len(resp.Candidates) == 0 {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return proto.Failuref(proto.ContentBlocked, "the prompt was blocked (%s)%s", fb.BlockReason, breakdown(fb.SafetyRatings))
		}
		return proto.Failure(proto.EmptyResponse, "the answer had no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == FinishSafety {
		return proto.Failuref(proto.ContentBlocked, "the answer was blocked by the safety filter%s", breakdown(candidate.SafetyRatings))
	}

	text := provider.Clean(candidateText(candidate))
	if text == "" {
		reason := candidate.FinishReason
		if reason == "" {
			reason = "none"
		}
		return proto.Failuref(proto.EmptyResponse, "the answer was empty (finish reason: %s)", reason)
	}

	res := proto.Success(text)
	if candidate.FinishReason == FinishMaxTokens {
		res.Warning = "the summary may be truncated: the token limit was reached"
	}
	return res
}

func candidateText(c Candidate) string {
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func breakdown(ratings []SafetyRating) string {
	if len(ratings) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ratings))
	for _, r := range ratings {
		parts = append(parts, r.Category+": "+r.Probability)
	}
	return ": " + strings.Join(parts, ", ")
}
