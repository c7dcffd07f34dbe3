// Package custommodels keeps the models the user added on top of the
// built-in catalog, persisted as a single JSON array.
package custommodels

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/charmbracelet/skim/internal/kv"
	xstrings "github.com/charmbracelet/x/exp/strings"
	"github.com/tidwall/gjson"
)

// ErrDuplicate is returned when adding a model whose id is already taken for
// that provider.
var ErrDuplicate = errors.New("model already exists")

// ErrInvalid is returned when adding a model with an empty id or an unknown
// provider.
var ErrInvalid = errors.New("invalid model")

type entry struct {
	ID       string             `json:"id"`
	Provider catalog.ProviderID `json:"provider"`
	Thinking *bool              `json:"thinking,omitempty"`
	AddedAt  *time.Time         `json:"added-at,omitempty"`
}

// Store is the custom model store.
type Store struct {
	kv       kv.Store
	builtins catalog.Builtins
	log      *log.Logger
	models   []catalog.Model
	now      func() time.Time
}

// New returns an empty store. Call [Store.Load] to read the persisted models.
func New(store kv.Store, builtins catalog.Builtins, logger *log.Logger) *Store {
	return &Store{
		kv:       store,
		builtins: builtins,
		log:      logger,
		now:      time.Now,
	}
}

// List returns the loaded custom models.
func (s *Store) List() []catalog.Model {
	return slices.Clone(s.models)
}

// Load reads the persisted models. A blob that does not match the expected
// shape is logged and replaced with an empty list.
func (s *Store) Load(ctx context.Context) ([]catalog.Model, error) {
	blob, err := s.kv.Get(ctx, kv.KeyCustomModels)
	if errors.Is(err, kv.ErrNotFound) {
		s.models = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not load custom models: %w", err)
	}

	models, err := s.parse(blob)
	if err != nil {
		s.log.Warn("Custom models are corrupt, resetting them", "err", err)
		if werr := s.kv.Set(ctx, kv.KeyCustomModels, "[]"); werr != nil {
			s.log.Error("Could not reset custom models", "err", werr)
		}
		s.models = nil
		return nil, nil
	}
	s.models = models
	return s.List(), nil
}

func (s *Store) parse(blob string) ([]catalog.Model, error) {
	if !gjson.Valid(blob) {
		return nil, errors.New("not valid json")
	}
	root := gjson.Parse(blob)
	if !root.IsArray() {
		return nil, errors.New("not an array")
	}

	var models []catalog.Model
	var perr error
	i := 0
	root.ForEach(func(_, el gjson.Result) bool {
		defer func() { i++ }()
		if !el.IsObject() {
			perr = fmt.Errorf("element %d is not an object", i)
			return false
		}
		id := el.Get("id")
		if id.Type != gjson.String || strings.TrimSpace(id.Str) == "" {
			perr = fmt.Errorf("element %d has no id", i)
			return false
		}
		provider := el.Get("provider")
		if provider.Type != gjson.String {
			perr = fmt.Errorf("element %d has no provider", i)
			return false
		}
		if _, ok := s.builtins.Profile(catalog.ProviderID(provider.Str)); !ok {
			perr = fmt.Errorf("element %d has unknown provider %q", i, provider.Str)
			return false
		}
		thinking := el.Get("thinking")
		if catalog.ProviderID(provider.Str) == catalog.Gemini && thinking.Exists() && !isBool(thinking) {
			perr = fmt.Errorf("element %d has a non boolean thinking flag", i)
			return false
		}
		m := catalog.Model{
			ID:       strings.TrimSpace(id.Str),
			Provider: catalog.ProviderID(provider.Str),
			Custom:   true,
			Thinking: thinking.Type == gjson.True,
		}
		if at := el.Get("added-at"); at.Type == gjson.String {
			if t, err := time.Parse(time.RFC3339Nano, at.Str); err == nil {
				m.AddedAt = t
			}
		}
		models = append(models, m)
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return models, nil
}

func isBool(r gjson.Result) bool {
	return r.Type == gjson.True || r.Type == gjson.False
}

// Add adds a custom model. Ids are compared case-insensitively against the
// built-ins and the existing custom models of every provider. The list is
// persisted before it changes in memory.
func (s *Store) Add(ctx context.Context, provider catalog.ProviderID, id string, thinking bool) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalid)
	}
	if _, ok := s.builtins.Profile(provider); !ok {
		names := make([]string, 0, len(s.builtins))
		for _, p := range s.builtins.Providers() {
			names = append(names, string(p))
		}
		return fmt.Errorf("%w: provider must be %s", ErrInvalid, xstrings.EnglishJoin(names, false))
	}
	// ids resolve without their provider, so they must be unique across all
	// providers.
	if m, ok := catalog.Resolve(id, s.builtins, s.models); ok {
		if m.Custom {
			return fmt.Errorf("%w: %q is already a custom %s model", ErrDuplicate, id, m.Provider)
		}
		return fmt.Errorf("%w: %q is a built-in %s model", ErrDuplicate, id, m.Provider)
	}

	models := append(slices.Clone(s.models), catalog.Model{
		ID:       id,
		Provider: provider,
		Custom:   true,
		Thinking: thinking,
		AddedAt:  s.now().UTC().Truncate(time.Second),
	})
	if err := s.persist(ctx, models); err != nil {
		return err
	}
	s.models = models
	return nil
}

// Remove removes the custom model with the given id and provider. It reports
// whether something was removed.
func (s *Store) Remove(ctx context.Context, id string, provider catalog.ProviderID) (bool, error) {
	idx := slices.IndexFunc(s.models, func(m catalog.Model) bool {
		return m.Provider == provider && strings.EqualFold(m.ID, strings.TrimSpace(id))
	})
	if idx < 0 {
		return false, nil
	}
	models := slices.Delete(slices.Clone(s.models), idx, idx+1)
	if err := s.persist(ctx, models); err != nil {
		return false, err
	}
	s.models = models
	return true, nil
}

func (s *Store) persist(ctx context.Context, models []catalog.Model) error {
	entries := make([]entry, 0, len(models))
	for _, m := range models {
		e := entry{ID: m.ID, Provider: m.Provider}
		if m.Thinking {
			e.Thinking = &m.Thinking
		}
		if !m.AddedAt.IsZero() {
			e.AddedAt = &m.AddedAt
		}
		entries = append(entries, e)
	}
	blob, err := sonic.MarshalString(entries)
	if err != nil {
		return fmt.Errorf("could not encode custom models: %w", err)
	}
	if err := s.kv.Set(ctx, kv.KeyCustomModels, blob); err != nil {
		return fmt.Errorf("could not save custom models: %w", err)
	}
	return nil
}
