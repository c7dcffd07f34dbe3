package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"text/template"
	"time"

	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfig(t *testing.T) {
	t.Run("durations and providers", func(t *testing.T) {
		cfg := defaultConfig()
		require.NoError(t, yaml.Unmarshal([]byte(`
default-model: o4-mini
timeout: 30s
reasoning-timeout: 10m
providers:
  openai:
    base-url: http://localhost:8080/v1/chat/completions
`), &cfg))
		require.Equal(t, "o4-mini", cfg.Model)
		require.Equal(t, 30*time.Second, cfg.Timeout)
		require.Equal(t, 10*time.Minute, cfg.ReasoningTimeout)
		require.Equal(t, "http://localhost:8080/v1/chat/completions", cfg.Providers.OpenAI.BaseURL)
		require.Equal(t, "OPENAI_API_KEY", cfg.Providers.OpenAI.APIKeyEnv)
		require.Equal(t, catalog.GeminiEndpoint, cfg.Providers.Gemini.BaseURL)
	})

	t.Run("key env", func(t *testing.T) {
		require.Equal(t, map[catalog.ProviderID]string{
			catalog.OpenAI: "OPENAI_API_KEY",
			catalog.Gemini: "GEMINI_API_KEY",
		}, defaultConfig().Providers.KeyEnv())
	})

	t.Run("template matches the defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "skim.yml")
		require.NoError(t, createConfigFile(path))

		bts, err := os.ReadFile(path)
		require.NoError(t, err)

		var cfg Config
		require.NoError(t, yaml.Unmarshal(bts, &cfg))
		require.Equal(t, defaultConfig(), cfg)
	})

	t.Run("every setting is documented", func(t *testing.T) {
		for _, key := range []string{
			"model", "language", "raw", "quiet", "timeout", "reasoning-timeout",
			"page-cache-ttl", "http-proxy", "data-path", "redis-url", "log-level", "providers",
		} {
			require.NotEmpty(t, help[key], key)
		}
		var buf bytes.Buffer
		tmpl := template.Must(template.New("config").Funcs(template.FuncMap{
			"duration": func(d time.Duration) string { return d.String() },
		}).Parse(configTemplate))
		require.NoError(t, tmpl.Execute(&buf, map[string]any{"Config": defaultConfig(), "Help": help}))
		require.NotContains(t, buf.String(), "<no value>")
	})
}

func TestFormatDuration(t *testing.T) {
	for d, s := range map[time.Duration]string{
		time.Minute:               "1m",
		10 * time.Minute:          "10m",
		time.Hour:                 "1h",
		90 * time.Minute:          "1h30m",
		30 * time.Second:          "30s",
		time.Minute + time.Second: "1m1s",
		0:                         "0s",
	} {
		require.Equal(t, s, formatDuration(d))
	}
}
