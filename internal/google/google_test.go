package google

import (
	"net/http"
	"testing"

	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/charmbracelet/skim/internal/proto"
	"github.com/charmbracelet/skim/internal/provider"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testAdapter(t *testing.T) *Adapter {
	t.Helper()
	profile, ok := catalog.Default().Profile(catalog.Gemini)
	require.True(t, ok)
	return New(profile, provider.Timeouts{})
}

var summary = []proto.Message{
	{Role: proto.RoleSystem, Content: "instructions"},
	{Role: proto.RoleUser, Content: "Summarize this article."},
}

func encode(t *testing.T, body any) gjson.Result {
	t.Helper()
	data, err := provider.SonicMarshaller{}.Marshal(body)
	require.NoError(t, err)
	return gjson.ParseBytes(data)
}

func TestBuildRequest(t *testing.T) {
	a := testAdapter(t)

	t.Run("fresh summary", func(t *testing.T) {
		req, err := a.BuildRequest(catalog.Model{ID: "gemini-2.0-flash", Provider: catalog.Gemini}, summary, "k&y")
		require.NoError(t, err)
		require.Equal(t, catalog.GeminiEndpoint+"gemini-2.0-flash:generateContent?key=k%26y", req.URL)
		require.Empty(t, req.Header.Get("Authorization"))

		doc := encode(t, req.Body)
		contents := doc.Get("contents").Array()
		require.Len(t, contents, 1)
		require.False(t, contents[0].Get("role").Exists())
		require.Equal(t, "instructions\n\nSummarize this article.", contents[0].Get("parts.0.text").String())

		require.Equal(t, int64(1000), doc.Get("generationConfig.maxOutputTokens").Int())
		require.InDelta(t, 0.5, doc.Get("generationConfig.temperature").Float(), 0.0001)
		require.False(t, doc.Get("generationConfig.thinkingConfig").Exists())
	})

	t.Run("chat turns", func(t *testing.T) {
		msgs := append(append([]proto.Message{}, summary...),
			proto.Message{Role: proto.RoleAssistant, Content: "<p>sum</p>"},
			proto.Message{Role: proto.RoleUser, Content: "why?"},
		)
		req, err := a.BuildRequest(catalog.Model{ID: "gemini-2.0-flash", Provider: catalog.Gemini}, msgs, "key")
		require.NoError(t, err)

		contents := encode(t, req.Body).Get("contents").Array()
		require.Len(t, contents, 3)
		require.Equal(t, "user", contents[0].Get("role").String())
		require.Equal(t, "instructions\n\nSummarize this article.", contents[0].Get("parts.0.text").String())
		require.Equal(t, "model", contents[1].Get("role").String())
		require.Equal(t, "<p>sum</p>", contents[1].Get("parts.0.text").String())
		require.Equal(t, "user", contents[2].Get("role").String())
		require.Equal(t, "why?", contents[2].Get("parts.0.text").String())
	})

	t.Run("model params win", func(t *testing.T) {
		m, ok := catalog.Resolve("gemini-2.5-pro", catalog.Default(), nil)
		require.True(t, ok)
		req, err := a.BuildRequest(m, summary, "key")
		require.NoError(t, err)
		doc := encode(t, req.Body)
		require.Equal(t, int64(8192), doc.Get("generationConfig.maxOutputTokens").Int())
		require.False(t, doc.Get("generationConfig.thinkingConfig").Exists())
	})

	t.Run("explicit zero budget is sent", func(t *testing.T) {
		m, ok := catalog.Resolve("gemini-2.5-flash", catalog.Default(), nil)
		require.True(t, ok)
		req, err := a.BuildRequest(m, summary, "key")
		require.NoError(t, err)
		budget := encode(t, req.Body).Get("generationConfig.thinkingConfig.thinkingBudget")
		require.True(t, budget.Exists())
		require.Equal(t, int64(0), budget.Int())
	})

	t.Run("custom model thinks only when flagged", func(t *testing.T) {
		custom := catalog.Model{ID: "gemini-exp", Provider: catalog.Gemini, Custom: true}
		req, err := a.BuildRequest(custom, summary, "key")
		require.NoError(t, err)
		budget := encode(t, req.Body).Get("generationConfig.thinkingConfig.thinkingBudget")
		require.True(t, budget.Exists())
		require.Equal(t, int64(0), budget.Int())

		custom.Thinking = true
		req, err = a.BuildRequest(custom, summary, "key")
		require.NoError(t, err)
		require.False(t, encode(t, req.Body).Get("generationConfig.thinkingConfig").Exists())
	})
}

func TestTimeoutFor(t *testing.T) {
	a := testAdapter(t)
	require.Equal(t, provider.DefaultTimeout, a.TimeoutFor(catalog.Model{ID: "gemini-2.0-flash"}))
	require.Equal(t, provider.DefaultThinkingTimeout, a.TimeoutFor(catalog.Model{ID: "gemini-2.5-pro", Thinking: true}))
}

func TestParseResponse(t *testing.T) {
	a := testAdapter(t)

	t.Run("success", func(t *testing.T) {
		res := a.ParseResponse(http.StatusOK, []byte(`{"candidates":[{"content":{"parts":[{"text":"<p>hi</p>\n"}]},"finishReason":"STOP"}]}`))
		require.True(t, res.OK())
		require.Equal(t, "<p>hi</p>", res.HTML)
		require.Empty(t, res.Warning)
	})

	t.Run("skips thoughts", func(t *testing.T) {
		res := a.ParseResponse(http.StatusOK, []byte(`{"candidates":[{"content":{"parts":[{"text":"hmm","thought":true},{"text":"<p>hi</p>"}]},"finishReason":"STOP"}]}`))
		require.Equal(t, "<p>hi</p>", res.HTML)
	})

	t.Run("max tokens", func(t *testing.T) {
		res := a.ParseResponse(http.StatusOK, []byte(`{"candidates":[{"content":{"parts":[{"text":"<p>cut</p>"}]},"finishReason":"MAX_TOKENS"}]}`))
		require.True(t, res.OK())
		require.Equal(t, "<p>cut</p>", res.HTML)
		require.NotEmpty(t, res.Warning)
	})

	t.Run("safety", func(t *testing.T) {
		res := a.ParseResponse(http.StatusOK, []byte(`{"candidates":[{"finishReason":"SAFETY","safetyRatings":[{"category":"X","probability":"HIGH"}]}]}`))
		require.False(t, res.OK())
		require.Equal(t, proto.ContentBlocked, res.Err.Kind)
		require.Contains(t, res.Err.Message, "X: HIGH")
	})

	t.Run("blocked prompt", func(t *testing.T) {
		res := a.ParseResponse(http.StatusOK, []byte(`{"promptFeedback":{"blockReason":"SAFETY","safetyRatings":[{"category":"Y","probability":"MEDIUM"}]}}`))
		require.Equal(t, proto.ContentBlocked, res.Err.Kind)
		require.Contains(t, res.Err.Message, "Y: MEDIUM")
	})

	t.Run("empty parts", func(t *testing.T) {
		res := a.ParseResponse(http.StatusOK, []byte(`{"candidates":[{"finishReason":"STOP","content":{"parts":[]}}]}`))
		require.False(t, res.OK())
		require.Equal(t, proto.EmptyResponse, res.Err.Kind)
		require.Contains(t, res.Err.Message, "STOP")
	})

	t.Run("unexpected finish reason", func(t *testing.T) {
		res := a.ParseResponse(http.StatusOK, []byte(`{"candidates":[{"finishReason":"RECITATION"}]}`))
		require.Equal(t, proto.EmptyResponse, res.Err.Kind)
		require.Contains(t, res.Err.Message, "RECITATION")
	})

	t.Run("no candidates", func(t *testing.T) {
		res := a.ParseResponse(http.StatusOK, []byte(`{}`))
		require.Equal(t, proto.EmptyResponse, res.Err.Kind)
	})

	t.Run("not json", func(t *testing.T) {
		res := a.ParseResponse(http.StatusOK, []byte(`nope`))
		require.Equal(t, proto.EmptyResponse, res.Err.Kind)
	})

	for name, body := range map[string]string{
		"nested error": `{"error":{"code":401,"message":"invalid key"}}`,
		"flat error":   `{"message":"invalid key"}`,
	} {
		t.Run(name, func(t *testing.T) {
			res := a.ParseResponse(http.StatusUnauthorized, []byte(body))
			require.Equal(t, proto.ProviderRejected, res.Err.Kind)
			require.Equal(t, "invalid key", res.Err.Message)
		})
	}
}
