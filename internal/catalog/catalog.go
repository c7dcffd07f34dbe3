// Package catalog holds the providers and models skim knows about, and
// resolves the active model id to a full model description.
package catalog

import (
	"sort"
	"strings"
	"time"
)

// ProviderID identifies one of the supported provider dialects.
type ProviderID string

// Providers.
const (
	OpenAI ProviderID = "openai"
	Gemini ProviderID = "gemini"
)

// DefaultModelID is used whenever the active model disappears.
const DefaultModelID = "gemini-2.0-flash"

// Params are generation parameters. Nil fields are unset.
type Params struct {
	MaxTokens      *int64   `yaml:"max-tokens,omitempty" json:"max-tokens,omitempty"`
	Temperature    *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	TopP           *float64 `yaml:"top-p,omitempty" json:"top-p,omitempty"`
	ThinkingBudget *int64   `yaml:"thinking-budget,omitempty" json:"thinking-budget,omitempty"`
}

// Merge returns defaults overridden field by field by overrides.
func Merge(defaults Params, overrides *Params) Params {
	out := defaults
	if overrides == nil {
		return out
	}
	if overrides.MaxTokens != nil {
		out.MaxTokens = overrides.MaxTokens
	}
	if overrides.Temperature != nil {
		out.Temperature = overrides.Temperature
	}
	if overrides.TopP != nil {
		out.TopP = overrides.TopP
	}
	if overrides.ThinkingBudget != nil {
		out.ThinkingBudget = overrides.ThinkingBudget
	}
	return out
}

// Profile describes a provider.
type Profile struct {
	ID          ProviderID
	DisplayName string
	Endpoint    string
	Defaults    Params
}

// Model describes one selectable model.
type Model struct {
	ID          string
	DisplayName string
	Provider    ProviderID
	Params      *Params
	Custom      bool
	// Thinking marks models that use extended reasoning. They are slower and
	// get the long request timeout.
	Thinking bool
	// AddedAt is when a custom model was added. Zero for built-ins.
	AddedAt time.Time
}

// Name returns the display name, or the id when there is none.
func (m Model) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.ID
}

// Builtins is the static part of the catalog, one entry per provider in
// declaration order.
type Builtins []Builtin

// Builtin is a provider profile and its built-in models.
type Builtin struct {
	Profile Profile
	Models  []Model
}

// Profile returns the profile for the given provider.
func (b Builtins) Profile(id ProviderID) (Profile, bool) {
	for _, g := range b {
		if g.Profile.ID == id {
			return g.Profile, true
		}
	}
	return Profile{}, false
}

// Providers returns the provider ids in declaration order.
func (b Builtins) Providers() []ProviderID {
	ids := make([]ProviderID, 0, len(b))
	for _, g := range b {
		ids = append(ids, g.Profile.ID)
	}
	return ids
}

// Resolve finds the model for the given id. Built-ins are scanned first, in
// declaration order, then the custom models. The first case-insensitive match
// wins.
func Resolve(activeID string, builtins Builtins, custom []Model) (Model, bool) {
	for _, g := range builtins {
		for _, m := range g.Models {
			if strings.EqualFold(m.ID, activeID) {
				return m, true
			}
		}
	}
	for _, m := range custom {
		if strings.EqualFold(m.ID, activeID) {
			return m, true
		}
	}
	return Model{}, false
}

// Group is the display listing for one provider.
type Group struct {
	Profile Profile
	Models  []Model
}

// ListForDisplay returns, per provider, the built-in and custom models with
// duplicate ids removed (built-ins win) and sorted by id.
func ListForDisplay(builtins Builtins, custom []Model) []Group {
	groups := make([]Group, 0, len(builtins))
	for _, g := range builtins {
		seen := map[string]bool{}
		var models []Model
		for _, m := range g.Models {
			key := strings.ToLower(m.ID)
			if seen[key] {
				continue
			}
			seen[key] = true
			models = append(models, m)
		}
		for _, m := range custom {
			if m.Provider != g.Profile.ID {
				continue
			}
			key := strings.ToLower(m.ID)
			if seen[key] {
				continue
			}
			seen[key] = true
			models = append(models, m)
		}
		sort.SliceStable(models, func(i, j int) bool {
			return models[i].ID < models[j].ID
		})
		groups = append(groups, Group{Profile: g.Profile, Models: models})
	}
	return groups
}
