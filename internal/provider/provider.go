// Package provider defines what a provider dialect has to implement, and the
// transport and normalizing pieces all dialects share.
package provider

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/charmbracelet/skim/internal/proto"
	"github.com/tidwall/gjson"
)

// Default timeouts.
const (
	DefaultTimeout         = time.Minute
	DefaultThinkingTimeout = 5 * time.Minute
)

// Adapter is one provider dialect.
type Adapter interface {
	// Provider returns the provider this adapter speaks to.
	Provider() catalog.ProviderID

	// BuildRequest builds the request for the given model and conversation.
	// Generation parameters are the provider defaults overridden by the
	// model's own.
	BuildRequest(model catalog.Model, messages []proto.Message, credential string) (Request, error)

	// ParseResponse normalizes a response, successful or not.
	ParseResponse(status int, body []byte) proto.Result

	// TimeoutFor returns how long to wait for the model to answer.
	TimeoutFor(model catalog.Model) time.Duration
}

// Request is a provider request ready to be sent.
type Request struct {
	URL    string
	Header http.Header
	Body   any
}

// Timeouts is the timeout policy shared by all adapters.
type Timeouts struct {
	Default  time.Duration
	Thinking time.Duration
}

// For returns the long timeout for models that use extended reasoning and
// the short one otherwise.
func (t Timeouts) For(model catalog.Model) time.Duration {
	if model.Thinking {
		if t.Thinking > 0 {
			return t.Thinking
		}
		return DefaultThinkingTimeout
	}
	if t.Default > 0 {
		return t.Default
	}
	return DefaultTimeout
}

// Rejected turns a non-2xx response into a failure, using the message the
// provider put in the body when there is one.
func Rejected(status int, body []byte) proto.Result {
	msg := ErrorMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = "unexpected status"
	}
	return proto.Result{Err: &proto.Error{
		Kind:    proto.ProviderRejected,
		Message: msg,
		Err:     &StatusError{Code: status},
	}}
}

// ErrorMessage extracts the error message from `{"error":{"message":...}}`
// or `{"message":...}` bodies.
func ErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"error.message", "message", "0.error.message"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			return strings.TrimSpace(v.Str)
		}
	}
	if v := gjson.GetBytes(body, "error"); v.Type == gjson.String {
		return strings.TrimSpace(v.Str)
	}
	return ""
}

// StatusError is an HTTP status returned by a provider.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return "status " + http.StatusText(e.Code)
}

var repeatedSpaces = regexp.MustCompile(` {2,}`)

// Clean collapses newlines and repeated spaces in model output before it is
// rendered as HTML.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", " ")
	s = repeatedSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsFailureStatusCode reports whether the status is not a 2xx.
func IsFailureStatusCode(status int) bool {
	return status < http.StatusOK || status >= http.StatusMultipleChoices
}
