package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/charmbracelet/skim/internal/proto"
)

// newUserErrorf is a user-facing error.
// this function is mostly to avoid linters complain about errors starting with a capitalized letter.
func newUserErrorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

// skimError is a wrapper around an error that adds additional context.
type skimError struct {
	err    error
	reason string
}

func (m skimError) Error() string {
	return m.err.Error()
}

func (m skimError) Reason() string {
	return m.reason
}

func (m skimError) Unwrap() error {
	return m.err
}

// resultError turns a failed result into an error with a reason the user
// can act on.
func resultError(res proto.Result, model catalog.Model) error {
	if res.OK() {
		return nil
	}
	api := string(model.Provider)
	var reason string
	switch res.Err.Kind {
	case proto.ArticleUnavailable:
		reason = "Could not find an article to summarize."
	case proto.ModelConfigNotFound:
		reason = fmt.Sprintf("Unknown model. Pick another one with %s.", stderrStyles().InlineCode.Render("--select-model"))
	case proto.CredentialMissing:
		reason = fmt.Sprintf("Missing API key. Set one with %s.", stderrStyles().InlineCode.Render("skim --set-key "+api))
	case proto.NetworkError:
		reason = fmt.Sprintf("Could not reach the %s API.", api)
	case proto.Timeout:
		reason = fmt.Sprintf("%s took too long to answer.", model.Name())
	case proto.Aborted:
		reason = "The request was cancelled."
	case proto.ProviderRejected:
		reason = fmt.Sprintf("The %s API rejected the request.", api)
	case proto.ContentBlocked:
		reason = "The answer was blocked by the safety filter."
	case proto.EmptyResponse:
		reason = fmt.Sprintf("%s returned an empty answer.", model.Name())
	default:
		reason = "Something went wrong."
	}
	return skimError{err: res.Err, reason: reason}
}

func handleError(err error) {
	// exhaust stdin
	if !isInputTTY() {
		_, _ = io.ReadAll(os.Stdin)
	}

	format := "\n%s\n\n"

	var args []any
	var ferr flagParseError
	var serr skimError
	if errors.As(err, &ferr) {
		format += "%s\n\n"
		args = []any{
			fmt.Sprintf(
				"Check out %s %s",
				stderrStyles().InlineCode.Render("skim -h"),
				stderrStyles().Comment.Render("for help."),
			),
			fmt.Sprintf(
				ferr.ReasonFormat(),
				stderrStyles().InlineCode.Render(ferr.Flag()),
			),
		}
	} else if errors.As(err, &serr) {
		format += "%s\n\n"
		args = []any{
			stderrStyles().ErrPadding.Render(stderrStyles().ErrorHeader.String(), serr.reason),
			stderrStyles().ErrPadding.Render(stderrStyles().ErrorDetails.Render(details(err))),
		}
	} else {
		args = []any{
			stderrStyles().ErrPadding.Render(stderrStyles().ErrorDetails.Render(err.Error())),
		}
	}

	fmt.Fprintf(os.Stderr, format, args...)
}

// details prefers the provider message over the full error chain.
func details(err error) string {
	var perr *proto.Error
	if errors.As(err, &perr) {
		return perr.Message
	}
	return err.Error()
}
