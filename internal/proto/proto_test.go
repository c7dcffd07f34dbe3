package proto

import (
	"errors"
	"testing"

	"github.com/charmbracelet/x/exp/golden"
	"github.com/stretchr/testify/require"
)

func TestStringer(t *testing.T) {
	messages := []Message{
		{
			Role:    RoleSystem,
			Content: "You summarize articles.",
		},
		{
			Role:    RoleUser,
			Content: "Summarize this article.",
		},
		{
			Role:    RoleAssistant,
			Content: "<p>Short.</p>",
		},
		{
			Role:    RoleUser,
			Content: "",
		},
		{
			Role:    RoleUser,
			Content: "Why?",
		},
		{
			Role:    RoleAssistant,
			Content: "Because.",
		},
	}

	golden.RequireEqual(t, []byte(Conversation(messages).String()))
}

func TestHasAssistant(t *testing.T) {
	require.False(t, Conversation{{Role: RoleSystem}, {Role: RoleUser}}.HasAssistant())
	require.True(t, Conversation{{Role: RoleUser}, {Role: RoleAssistant}}.HasAssistant())
}

func TestErrorKindRetryable(t *testing.T) {
	for kind, retryable := range map[ErrorKind]bool{
		ArticleUnavailable:  false,
		ModelConfigNotFound: false,
		CredentialMissing:   false,
		NetworkError:        true,
		Timeout:             true,
		Aborted:             true,
		ProviderRejected:    true,
		ContentBlocked:      true,
		EmptyResponse:       true,
	} {
		t.Run(kind.String(), func(t *testing.T) {
			require.Equal(t, retryable, kind.Retryable())
		})
	}
}

func TestResult(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := Success("<p>hi</p>")
		require.True(t, r.OK())
		require.Equal(t, "<p>hi</p>", r.HTML)
	})

	t.Run("failure wraps cause", func(t *testing.T) {
		cause := errors.New("boom")
		r := FailureErr(NetworkError, "could not connect", cause)
		require.False(t, r.OK())
		require.ErrorIs(t, r.Err, cause)
		require.Equal(t, "network error: could not connect: boom", r.Err.Error())
	})

	t.Run("formatted", func(t *testing.T) {
		r := Failuref(ModelConfigNotFound, "model %q", "nope")
		require.Equal(t, `model "nope"`, r.Err.Message)
	})
}
