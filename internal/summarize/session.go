// Package summarize drives one summarization attempt from the trigger to a
// rendered result or a classified error, and the chat turns that follow.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/skim/internal/article"
	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/charmbracelet/skim/internal/credentials"
	"github.com/charmbracelet/skim/internal/custommodels"
	"github.com/charmbracelet/skim/internal/kv"
	"github.com/charmbracelet/skim/internal/prompt"
	"github.com/charmbracelet/skim/internal/proto"
	"github.com/charmbracelet/skim/internal/provider"
	"github.com/google/uuid"
)

// State of a session.
type State int

// States.
const (
	Idle State = iota
	Resolving
	AwaitingCredential
	InFlight
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Resolving:
		return "resolving"
	case AwaitingCredential:
		return "awaiting credential"
	case InFlight:
		return "in flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Errors returned by operations that cannot start.
var (
	ErrNotRetryable = errors.New("nothing to retry")
	ErrNoSummary    = errors.New("there is no summary to follow up on")
	ErrEmptyMessage = errors.New("message is empty")
	ErrUnknownModel = errors.New("unknown model")
)

// Renderer presents results. Calls for a dismissed session are not made.
type Renderer interface {
	// OnLoading is called when a request is about to be sent.
	OnLoading(modelName string)
	// OnResult is called once per attempt with its outcome.
	OnResult(result proto.Result)
}

// Prompter asks the user for a missing credential. An empty answer means the
// user declined.
type Prompter interface {
	RequestCredential(ctx context.Context, profile catalog.Profile) (string, error)
}

// Sender sends one provider request. *provider.Transport implements it.
type Sender interface {
	Do(ctx context.Context, req provider.Request, timeout time.Duration) (provider.Response, error)
}

// Config holds what a session needs.
type Config struct {
	Builtins    catalog.Builtins
	Models      *custommodels.Store
	Credentials *credentials.Store
	// Store keeps the last used model id.
	Store     kv.Store
	Adapters  []provider.Adapter
	Transport Sender
	Renderer  Renderer
	// Prompter is optional. Without it a missing credential fails the attempt.
	Prompter Prompter
	Logger   *log.Logger
	// Language is the output language code. Empty uses the article language,
	// then English.
	Language string
	// ModelID overrides the last used model.
	ModelID string
	// DefaultModelID is used when no model was picked yet. Empty means
	// [catalog.DefaultModelID].
	DefaultModelID string
}

// Session owns the state of one page view: the active model, the article,
// the chat log and the outcome of the last attempt.
//
// Only one attempt may run at a time. The session does not enforce this; see
// [Gate].
type Session struct {
	cfg      Config
	id       string
	log      *log.Logger
	adapters map[catalog.ProviderID]provider.Adapter

	state   State
	active  string
	article *article.Payload
	chat    []proto.Message
	last    proto.Result
	// lastTurn is the follow-up text of the last failed attempt, empty when
	// it was a summarization.
	lastTurn string

	dismissed atomic.Bool
}

// New creates a session. The active model is cfg.ModelID, else the last used
// model, else the default model.
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.DefaultModelID = strings.TrimSpace(cfg.DefaultModelID); cfg.DefaultModelID == "" {
		cfg.DefaultModelID = catalog.DefaultModelID
	}
	id := uuid.NewString()
	s := &Session{
		cfg:      cfg,
		id:       id,
		log:      cfg.Logger.With("session", id[:8]),
		adapters: map[catalog.ProviderID]provider.Adapter{},
	}
	for _, a := range cfg.Adapters {
		s.adapters[a.Provider()] = a
	}

	s.active = strings.TrimSpace(cfg.ModelID)
	if s.active != "" {
		return s, nil
	}
	last, err := cfg.Store.Get(ctx, kv.KeyLastModel)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("could not read last model: %w", err)
	}
	s.active = s.defaultModel()
	if last = strings.TrimSpace(last); last != "" {
		if _, ok := s.resolve(last); ok {
			s.active = last
		} else {
			s.log.Warn("Last used model is gone, using the default", "model", last, "default", s.active)
		}
	}
	return s, nil
}

// defaultModel returns the configured default model when it resolves, and
// [catalog.DefaultModelID] otherwise.
func (s *Session) defaultModel() string {
	if _, ok := s.resolve(s.cfg.DefaultModelID); ok {
		return s.cfg.DefaultModelID
	}
	if s.cfg.DefaultModelID != catalog.DefaultModelID {
		s.log.Warn("Default model is unknown, using the built-in default", "model", s.cfg.DefaultModelID, "default", catalog.DefaultModelID)
	}
	return catalog.DefaultModelID
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// ActiveModel returns the active model id.
func (s *Session) ActiveModel() string { return s.active }

// Last returns the outcome of the last attempt.
func (s *Session) Last() proto.Result { return s.last }

// Chat returns the chat log, starting with the summarization itself.
func (s *Session) Chat() proto.Conversation {
	return append(proto.Conversation(nil), s.chat...)
}

// SetArticle sets the article of the page. Nil means there is none.
func (s *Session) SetArticle(p *article.Payload) {
	s.article = p
}

// Dismiss drops the presentation target: results arriving later are not
// rendered. An in-flight request is not cancelled.
func (s *Session) Dismiss() {
	s.dismissed.Store(true)
}

// Resolve returns the active model.
func (s *Session) Resolve() (catalog.Model, bool) {
	return s.resolve(s.active)
}

func (s *Session) resolve(id string) (catalog.Model, bool) {
	var custom []catalog.Model
	if s.cfg.Models != nil {
		custom = s.cfg.Models.List()
	}
	return catalog.Resolve(id, s.cfg.Builtins, custom)
}

// SetActiveModel makes the given model active and remembers it.
func (s *Session) SetActiveModel(ctx context.Context, id string) error {
	m, ok := s.resolve(strings.TrimSpace(id))
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	s.active = m.ID
	if err := s.cfg.Store.Set(ctx, kv.KeyLastModel, m.ID); err != nil {
		return fmt.Errorf("could not save last model: %w", err)
	}
	return nil
}

// AddCustomModel adds a model to the custom model store.
func (s *Session) AddCustomModel(ctx context.Context, p catalog.ProviderID, id string, thinking bool) error {
	return s.cfg.Models.Add(ctx, p, id, thinking) //nolint:wrapcheck
}

// RemoveCustomModel removes a custom model. When it was the active one, the
// default model becomes active.
func (s *Session) RemoveCustomModel(ctx context.Context, id string, p catalog.ProviderID) (bool, error) {
	removed, err := s.cfg.Models.Remove(ctx, id, p)
	if err != nil || !removed {
		return removed, err //nolint:wrapcheck
	}
	if strings.EqualFold(s.active, id) {
		if _, ok := s.resolve(s.active); !ok {
			fallback := s.defaultModel()
			s.log.Info("Active model removed, using the default", "model", id, "default", fallback)
			if err := s.SetActiveModel(ctx, fallback); err != nil {
				return true, err
			}
		}
	}
	return true, nil
}

// Summarize starts a fresh summarization of the article. The chat log is
// reset.
func (s *Session) Summarize(ctx context.Context) proto.Result {
	s.chat = nil
	s.lastTurn = ""
	s.state = Resolving

	if s.article == nil {
		return s.finish(proto.Failure(proto.ArticleUnavailable, "no article was found on this page"))
	}
	return s.attempt(ctx, "")
}

// Retry repeats the last failed attempt with the same article and model.
// Only retryable failures can be retried.
func (s *Session) Retry(ctx context.Context) (proto.Result, error) {
	if s.state != Failed || s.last.Err == nil || !s.last.Err.Kind.Retryable() {
		return s.last, ErrNotRetryable
	}
	s.state = Resolving
	return s.attempt(ctx, s.lastTurn), nil
}

// FollowUp sends a chat turn about the summarized article. The whole chat
// log is sent along.
func (s *Session) FollowUp(ctx context.Context, text string) (proto.Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return proto.Result{}, ErrEmptyMessage
	}
	if !proto.Conversation(s.chat).HasAssistant() {
		return proto.Result{}, ErrNoSummary
	}
	s.state = Resolving
	return s.attempt(ctx, text), nil
}

// attempt runs from Resolving to a result. An empty turn is a summarization.
func (s *Session) attempt(ctx context.Context, turn string) proto.Result {
	s.lastTurn = turn

	model, ok := s.resolve(s.active)
	if !ok {
		return s.finish(proto.Failuref(proto.ModelConfigNotFound, "model %q is not configured, pick another model", s.active))
	}
	adapter, ok := s.adapters[model.Provider]
	if !ok {
		return s.finish(proto.Failuref(proto.ModelConfigNotFound, "provider %q of model %q is not supported", model.Provider, model.ID))
	}

	s.state = AwaitingCredential
	credential, res := s.credential(ctx, model.Provider)
	if res != nil {
		return s.finish(*res)
	}

	messages := s.messages(turn)
	req, err := adapter.BuildRequest(model, messages, credential)
	if err != nil {
		return s.finish(proto.FailureErr(proto.ModelConfigNotFound, "could not build the request", err))
	}

	s.state = InFlight
	if !s.dismissed.Load() && s.cfg.Renderer != nil {
		s.cfg.Renderer.OnLoading(model.Name())
	}

	timeout := adapter.TimeoutFor(model)
	s.log.Debug("Requesting", "model", model.ID, "provider", model.Provider, "timeout", timeout, "turns", len(messages))
	resp, err := s.cfg.Transport.Do(ctx, req, timeout)
	if err != nil {
		var perr *proto.Error
		if !errors.As(err, &perr) {
			perr = proto.NewError(proto.NetworkError, "the request failed", err)
		}
		return s.finish(proto.Result{Err: perr})
	}

	result := adapter.ParseResponse(resp.Status, resp.Body)
	if result.Warning != "" {
		s.log.Warn(result.Warning, "model", model.ID)
	}
	if result.OK() {
		if turn == "" {
			s.chat = messages
		} else {
			s.chat = append(s.chat, proto.Message{Role: proto.RoleUser, Content: turn})
		}
		s.chat = append(s.chat, proto.Message{Role: proto.RoleAssistant, Content: result.HTML})
	}
	return s.finish(result)
}

func (s *Session) credential(ctx context.Context, p catalog.ProviderID) (string, *proto.Result) {
	profile, _ := s.cfg.Builtins.Profile(p)
	name := profile.DisplayName
	if name == "" {
		name = string(p)
	}

	credential, ok, err := s.cfg.Credentials.Get(ctx, p)
	if err != nil {
		res := proto.FailureErr(proto.CredentialMissing, "could not read the "+name+" API key", err)
		return "", &res
	}
	if ok {
		return credential, nil
	}

	if s.cfg.Prompter != nil {
		answer, err := s.cfg.Prompter.RequestCredential(ctx, profile)
		if err != nil {
			s.log.Debug("Credential prompt failed", "err", err)
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			if err := s.cfg.Credentials.Set(ctx, p, answer); err != nil {
				res := proto.FailureErr(proto.CredentialMissing, "could not save the "+name+" API key", err)
				return "", &res
			}
			return answer, nil
		}
	}

	res := proto.Failuref(proto.CredentialMissing, "no %s API key is set, add one to use %s models", name, name)
	return "", &res
}

func (s *Session) messages(turn string) []proto.Message {
	if turn == "" {
		lang := s.cfg.Language
		if lang == "" {
			lang = s.article.Language
		}
		return prompt.Summary(*s.article, lang)
	}
	msgs := make([]proto.Message, 0, len(s.chat)+1)
	msgs = append(msgs, s.chat...)
	return append(msgs, proto.Message{Role: proto.RoleUser, Content: turn})
}

func (s *Session) finish(res proto.Result) proto.Result {
	s.last = res
	if res.OK() {
		s.state = Succeeded
		s.lastTurn = ""
	} else {
		s.state = Failed
		s.log.Debug("Attempt failed", "kind", res.Err.Kind, "err", res.Err)
	}
	if !s.dismissed.Load() && s.cfg.Renderer != nil {
		s.cfg.Renderer.OnResult(res)
	}
	return res
}
