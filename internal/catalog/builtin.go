package catalog

// Default endpoints.
const (
	OpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	GeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/"
)

func ptr[T any](v T) *T { return &v }

// Default returns the built-in catalog using the default endpoints.
func Default() Builtins {
	return New(OpenAIEndpoint, GeminiEndpoint)
}

// New returns the built-in catalog with the given endpoints. An empty endpoint
// keeps the default one.
func New(openaiEndpoint, geminiEndpoint string) Builtins {
	if openaiEndpoint == "" {
		openaiEndpoint = OpenAIEndpoint
	}
	if geminiEndpoint == "" {
		geminiEndpoint = GeminiEndpoint
	}
	return Builtins{
		{
			Profile: Profile{
				ID:          OpenAI,
				DisplayName: "OpenAI",
				Endpoint:    openaiEndpoint,
				Defaults: Params{
					MaxTokens:   ptr[int64](1000),
					Temperature: ptr(0.5),
				},
			},
			Models: []Model{
				{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini", Provider: OpenAI},
				{ID: "gpt-4.1-nano", DisplayName: "GPT-4.1 nano", Provider: OpenAI},
				{ID: "gpt-4.1-mini", DisplayName: "GPT-4.1 mini", Provider: OpenAI},
				{
					ID:          "gpt-4.1",
					DisplayName: "GPT-4.1",
					Provider:    OpenAI,
					Params:      &Params{MaxTokens: ptr[int64](1500)},
				},
				{
					ID:          "o4-mini",
					DisplayName: "o4-mini",
					Provider:    OpenAI,
					Params:      &Params{MaxTokens: ptr[int64](8000)},
					Thinking:    true,
				},
			},
		},
		{
			Profile: Profile{
				ID:          Gemini,
				DisplayName: "Google Gemini",
				Endpoint:    geminiEndpoint,
				Defaults: Params{
					MaxTokens:   ptr[int64](1000),
					Temperature: ptr(0.5),
				},
			},
			Models: []Model{
				{ID: "gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash", Provider: Gemini},
				{ID: "gemini-2.0-flash-lite", DisplayName: "Gemini 2.0 Flash Lite", Provider: Gemini},
				{
					ID:          "gemini-2.5-flash",
					DisplayName: "Gemini 2.5 Flash",
					Provider:    Gemini,
					Params:      &Params{ThinkingBudget: ptr[int64](0)},
				},
				{
					ID:          "gemini-2.5-pro",
					DisplayName: "Gemini 2.5 Pro",
					Provider:    Gemini,
					Params:      &Params{MaxTokens: ptr[int64](8192)},
					Thinking:    true,
				},
			},
		},
	}
}
