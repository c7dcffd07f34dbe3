package main

const configTemplate = `# {{ index .Help "model" }}
default-model: {{ .Config.Model }}
# {{ index .Help "language" }}
language: {{ .Config.Language }}
# {{ index .Help "raw" }}
raw: false
# {{ index .Help "quiet" }}
quiet: false
# {{ index .Help "timeout" }}
timeout: {{ duration .Config.Timeout }}
# {{ index .Help "reasoning-timeout" }}
reasoning-timeout: {{ duration .Config.ReasoningTimeout }}
# {{ index .Help "page-cache-ttl" }}
page-cache-ttl: {{ duration .Config.PageCacheTTL }}
# {{ index .Help "http-proxy" }}
# http-proxy: http://localhost:8080
# {{ index .Help "data-path" }}
# data-path: ~/.local/share/skim
# {{ index .Help "redis-url" }}
# redis-url: redis://localhost:6379/0
# {{ index .Help "log-level" }}
log-level: {{ .Config.LogLevel }}
# {{ index .Help "providers" }}
providers:
  openai:
    base-url: {{ .Config.Providers.OpenAI.BaseURL }}
    api-key-env: {{ .Config.Providers.OpenAI.APIKeyEnv }}
  gemini:
    base-url: {{ .Config.Providers.Gemini.BaseURL }}
    api-key-env: {{ .Config.Providers.Gemini.APIKeyEnv }}
`
