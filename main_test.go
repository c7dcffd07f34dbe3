package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsCompletionCmd(t *testing.T) {
	for args, is := range map[string]bool{
		"":                                     false,
		"something":                            false,
		"something something":                  false,
		"completion for my bash script how to": false,
		"completion bash how to":               false,
		"completion":                           false,
		"completion -h":                        true,
		"completion --help":                    true,
		"completion help":                      true,
		"completion bash":                      true,
		"completion fish":                      true,
		"completion zsh":                       true,
		"completion powershell":                true,
		"completion bash -h":                   true,
		"completion zsh --help":                true,
		"__complete":                           true,
		"__complete blah blah blah":            true,
	} {
		t.Run(args, func(t *testing.T) {
			vargs := append([]string{"skim"}, strings.Fields(args)...)
			require.Equal(t, is, isCompletionCmd(vargs), "%v", vargs)
		})
	}
}

func TestIsManCmd(t *testing.T) {
	for args, is := range map[string]bool{
		"":                    false,
		"something":           false,
		"something something": false,
		"man is no more":      false,
		"mans":                false,
		"man foo":             false,
		"man":                 true,
		"man -h":              true,
		"man --help":          true,
	} {
		t.Run(args, func(t *testing.T) {
			vargs := append([]string{"skim"}, strings.Fields(args)...)
			require.Equal(t, is, isManCmd(vargs), "%v", vargs)
		})
	}
}

func TestParseModelRef(t *testing.T) {
	custom := testCustomModels()

	t.Run("with provider", func(t *testing.T) {
		p, id, err := parseModelRef("Gemini: my-model ", nil)
		require.NoError(t, err)
		require.Equal(t, "gemini", string(p))
		require.Equal(t, "my-model", id)
	})

	t.Run("unknown prefix is part of the id", func(t *testing.T) {
		_, _, err := parseModelRef("claude:x", custom)
		require.EqualError(t, err, `"claude:x" is not a custom model`)
	})

	t.Run("looked up", func(t *testing.T) {
		p, id, err := parseModelRef("MINE", custom)
		require.NoError(t, err)
		require.Equal(t, "openai", string(p))
		require.Equal(t, "mine", id)
	})

	t.Run("id with colons", func(t *testing.T) {
		p, id, err := parseModelRef("ft:gpt-4o-mini:org::abc", custom)
		require.NoError(t, err)
		require.Equal(t, "openai", string(p))
		require.Equal(t, "ft:gpt-4o-mini:org::abc", id)
	})

	t.Run("id with colons and provider", func(t *testing.T) {
		p, id, err := parseModelRef("openai:ft:gpt-4o-mini:org::abc", custom)
		require.NoError(t, err)
		require.Equal(t, "openai", string(p))
		require.Equal(t, "ft:gpt-4o-mini:org::abc", id)
	})

	t.Run("missing", func(t *testing.T) {
		_, _, err := parseModelRef("nope", custom)
		require.ErrorContains(t, err, "is not a custom model")
	})
}
