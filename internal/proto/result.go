package proto

import "fmt"

// ErrorKind classifies why a summarization attempt failed.
type ErrorKind int

// Error kinds.
const (
	ArticleUnavailable ErrorKind = iota + 1
	ModelConfigNotFound
	CredentialMissing
	NetworkError
	Timeout
	Aborted
	ProviderRejected
	ContentBlocked
	EmptyResponse
)

var kindNames = map[ErrorKind]string{
	ArticleUnavailable:  "article unavailable",
	ModelConfigNotFound: "model not found",
	CredentialMissing:   "credential missing",
	NetworkError:        "network error",
	Timeout:             "timeout",
	Aborted:             "aborted",
	ProviderRejected:    "provider rejected",
	ContentBlocked:      "content blocked",
	EmptyResponse:       "empty response",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Retryable reports whether repeating the same request can succeed without
// the user changing anything first.
func (k ErrorKind) Retryable() bool {
	switch k {
	case NetworkError, Timeout, Aborted, ProviderRejected, ContentBlocked, EmptyResponse:
		return true
	default:
		return false
	}
}

// Error is a classified, user-legible failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError returns a classified error wrapping err, which may be nil.
func NewError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Result is the outcome of one summarization or chat turn.
//
// Exactly one of HTML or Err is meaningful. Warning is diagnostic only.
type Result struct {
	HTML    string
	Warning string
	Err     *Error
}

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.Err == nil }

// Success returns a successful result.
func Success(html string) Result {
	return Result{HTML: html}
}

// Failure returns a failed result.
func Failure(kind ErrorKind, msg string) Result {
	return Result{Err: &Error{Kind: kind, Message: msg}}
}

// Failuref returns a failed result with a formatted message.
func Failuref(kind ErrorKind, format string, args ...any) Result {
	return Failure(kind, fmt.Sprintf(format, args...))
}

// FailureErr returns a failed result wrapping a cause.
func FailureErr(kind ErrorKind, msg string, err error) Result {
	return Result{Err: NewError(kind, msg, err)}
}
