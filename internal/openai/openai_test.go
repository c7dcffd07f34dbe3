package openai

import (
	"net/http"
	"testing"
	"time"

	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/charmbracelet/skim/internal/proto"
	"github.com/charmbracelet/skim/internal/provider"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testAdapter(t *testing.T) *Adapter {
	t.Helper()
	profile, ok := catalog.Default().Profile(catalog.OpenAI)
	require.True(t, ok)
	return New(profile, provider.Timeouts{Default: time.Minute, Thinking: 5 * time.Minute})
}

var summary = []proto.Message{
	{Role: proto.RoleSystem, Content: "instructions"},
	{Role: proto.RoleUser, Content: "Summarize this article."},
}

func encode(t *testing.T, body any) gjson.Result {
	t.Helper()
	data, err := provider.SonicMarshaller{}.Marshal(body)
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(data), string(data))
	return gjson.ParseBytes(data)
}

func TestBuildRequest(t *testing.T) {
	a := testAdapter(t)

	t.Run("provider defaults", func(t *testing.T) {
		req, err := a.BuildRequest(catalog.Model{ID: "gpt-4o-mini", Provider: catalog.OpenAI}, summary, "key")
		require.NoError(t, err)
		require.Equal(t, catalog.OpenAIEndpoint, req.URL)
		require.Equal(t, "Bearer key", req.Header.Get("Authorization"))

		doc := encode(t, req.Body)
		require.Equal(t, "gpt-4o-mini", doc.Get("model").String())
		require.Equal(t, int64(1000), doc.Get("max_tokens").Int())
		require.InDelta(t, 0.5, doc.Get("temperature").Float(), 0.0001)
		require.False(t, doc.Get("top_p").Exists())

		msgs := doc.Get("messages").Array()
		require.Len(t, msgs, 2)
		require.Equal(t, "system", msgs[0].Get("role").String())
		require.Equal(t, "instructions", msgs[0].Get("content").String())
		require.Equal(t, "user", msgs[1].Get("role").String())
		require.Equal(t, "Summarize this article.", msgs[1].Get("content").String())
	})

	t.Run("model params win", func(t *testing.T) {
		m, ok := catalog.Resolve("gpt-4.1", catalog.Default(), nil)
		require.True(t, ok)
		req, err := a.BuildRequest(m, summary, "key")
		require.NoError(t, err)
		doc := encode(t, req.Body)
		require.Equal(t, int64(1500), doc.Get("max_tokens").Int())
		require.InDelta(t, 0.5, doc.Get("temperature").Float(), 0.0001)
	})

	t.Run("reasoning model", func(t *testing.T) {
		m, ok := catalog.Resolve("o4-mini", catalog.Default(), nil)
		require.True(t, ok)
		req, err := a.BuildRequest(m, summary, "key")
		require.NoError(t, err)
		doc := encode(t, req.Body)
		require.Equal(t, int64(8000), doc.Get("max_completion_tokens").Int())
		require.False(t, doc.Get("max_tokens").Exists())
		require.False(t, doc.Get("temperature").Exists())
		require.False(t, doc.Get("top_p").Exists())
	})

	t.Run("chat turns", func(t *testing.T) {
		msgs := append(append([]proto.Message{}, summary...),
			proto.Message{Role: proto.RoleAssistant, Content: "<p>sum</p>"},
			proto.Message{Role: proto.RoleUser, Content: "why?"},
		)
		req, err := a.BuildRequest(catalog.Model{ID: "gpt-4o-mini", Provider: catalog.OpenAI}, msgs, "key")
		require.NoError(t, err)
		roles := []string{}
		for _, m := range encode(t, req.Body).Get("messages").Array() {
			roles = append(roles, m.Get("role").String())
		}
		require.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
	})

	t.Run("no messages", func(t *testing.T) {
		_, err := a.BuildRequest(catalog.Model{ID: "gpt-4o-mini"}, nil, "key")
		require.Error(t, err)
	})
}

func TestTimeoutFor(t *testing.T) {
	a := testAdapter(t)
	require.Equal(t, time.Minute, a.TimeoutFor(catalog.Model{ID: "gpt-4o-mini"}))
	require.Equal(t, 5*time.Minute, a.TimeoutFor(catalog.Model{ID: "o4-mini", Thinking: true}))
}

func TestParseResponse(t *testing.T) {
	a := testAdapter(t)

	t.Run("success", func(t *testing.T) {
		res := a.ParseResponse(http.StatusOK, []byte(`{"choices":[{"message":{"content":"<p>hi</p>"},"finish_reason":"stop"}]}`))
		require.True(t, res.OK())
		require.Equal(t, "<p>hi</p>", res.HTML)
		require.Empty(t, res.Warning)
	})

	t.Run("truncated", func(t *testing.T) {
		res := a.ParseResponse(http.StatusOK, []byte(`{"choices":[{"message":{"content":"<p>cut</p>"},"finish_reason":"length"}]}`))
		require.True(t, res.OK())
		require.Equal(t, "<p>cut</p>", res.HTML)
		require.NotEmpty(t, res.Warning)
	})

	t.Run("cleans", func(t *testing.T) {
		res := a.ParseResponse(http.StatusOK, []byte(`{"choices":[{"message":{"content":"<p>a\n\n  b</p>\n"},"finish_reason":"stop"}]}`))
		require.Equal(t, "<p>a b</p>", res.HTML)
	})

	t.Run("rejected", func(t *testing.T) {
		res := a.ParseResponse(http.StatusUnauthorized, []byte(`{"error":{"message":"invalid key"}}`))
		require.False(t, res.OK())
		require.Equal(t, proto.ProviderRejected, res.Err.Kind)
		require.Equal(t, "invalid key", res.Err.Message)
	})

	for name, body := range map[string]string{
		"empty content": `{"choices":[{"message":{"content":""},"finish_reason":"stop"}]}`,
		"no choices":    `{"choices":[]}`,
		"not json":      `nope`,
	} {
		t.Run(name, func(t *testing.T) {
			res := a.ParseResponse(http.StatusOK, []byte(body))
			require.False(t, res.OK())
			require.Equal(t, proto.EmptyResponse, res.Err.Kind)
		})
	}

	t.Run("empty content shows finish reason", func(t *testing.T) {
		res := a.ParseResponse(http.StatusOK, []byte(`{"choices":[{"message":{"content":"  "},"finish_reason":"content_filter"}]}`))
		require.Equal(t, proto.EmptyResponse, res.Err.Kind)
		require.Contains(t, res.Err.Message, "content_filter")
	})
}
