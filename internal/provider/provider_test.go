package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/charmbracelet/skim/internal/proto"
	"github.com/stretchr/testify/require"
)

func TestTimeouts(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var tt Timeouts
		require.Equal(t, DefaultTimeout, tt.For(catalog.Model{Provider: catalog.OpenAI}))
		require.Equal(t, DefaultThinkingTimeout, tt.For(catalog.Model{Provider: catalog.OpenAI, Thinking: true}))
	})

	t.Run("independent of provider", func(t *testing.T) {
		tt := Timeouts{Default: time.Second, Thinking: time.Hour}
		for _, p := range []catalog.ProviderID{catalog.OpenAI, catalog.Gemini} {
			require.Equal(t, time.Second, tt.For(catalog.Model{Provider: p}))
			require.Equal(t, time.Hour, tt.For(catalog.Model{Provider: p, Thinking: true}))
		}
	})
}

func TestRejected(t *testing.T) {
	for name, tc := range map[string]struct {
		status int
		body   string
		msg    string
	}{
		"openai shape": {http.StatusUnauthorized, `{"error":{"message":"invalid key"}}`, "invalid key"},
		"flat shape":   {http.StatusBadRequest, `{"message":"bad model"}`, "bad model"},
		"list shape":   {http.StatusBadRequest, `[{"error":{"message":"nope"}}]`, "nope"},
		"string error": {http.StatusForbidden, `{"error":"forbidden here"}`, "forbidden here"},
		"not json":     {http.StatusBadGateway, `<html>oops</html>`, "Bad Gateway"},
		"empty":        {http.StatusTooManyRequests, ``, "Too Many Requests"},
		"unknown code": {599, `{}`, "unexpected status"},
	} {
		t.Run(name, func(t *testing.T) {
			res := Rejected(tc.status, []byte(tc.body))
			require.False(t, res.OK())
			require.Equal(t, proto.ProviderRejected, res.Err.Kind)
			require.Equal(t, tc.msg, res.Err.Message)

			var serr *StatusError
			require.ErrorAs(t, res.Err, &serr)
			require.Equal(t, tc.status, serr.Code)
		})
	}
}

func TestClean(t *testing.T) {
	require.Equal(t, "<p>a b</p> <ul> <li>c</li> </ul>", Clean("\n<p>a   b</p>\n<ul>\r\n  <li>c</li>\n</ul>\n"))
	require.Equal(t, "", Clean(" \n "))
}

func TestIsFailureStatusCode(t *testing.T) {
	require.False(t, IsFailureStatusCode(http.StatusOK))
	require.False(t, IsFailureStatusCode(http.StatusNoContent))
	require.True(t, IsFailureStatusCode(http.StatusMovedPermanently))
	require.True(t, IsFailureStatusCode(http.StatusUnauthorized))
	require.True(t, IsFailureStatusCode(100))
}

func TestTransport(t *testing.T) {
	t.Run("sends json and returns the body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.Equal(t, "Bearer k", r.Header.Get("Authorization"))
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.JSONEq(t, `{"a":1}`, string(body))
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte(`{"error":{"message":"short and stout"}}`))
		}))
		t.Cleanup(srv.Close)

		resp, err := NewTransport(srv.Client(), nil).Do(context.Background(), Request{
			URL:    srv.URL,
			Header: http.Header{"Authorization": []string{"Bearer k"}},
			Body:   map[string]int{"a": 1},
		}, time.Second)
		require.NoError(t, err)
		require.Equal(t, http.StatusTeapot, resp.Status)
		require.Equal(t, `{"error":{"message":"short and stout"}}`, string(resp.Body))
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			<-release
		}))
		t.Cleanup(srv.Close)
		t.Cleanup(func() { close(release) })

		_, err := NewTransport(srv.Client(), nil).Do(context.Background(), Request{URL: srv.URL}, 50*time.Millisecond)
		requireKind(t, err, proto.Timeout)
	})

	t.Run("aborted", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			<-release
		}))
		t.Cleanup(srv.Close)
		t.Cleanup(func() { close(release) })

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(50*time.Millisecond, cancel)
		_, err := NewTransport(srv.Client(), nil).Do(ctx, Request{URL: srv.URL}, time.Minute)
		requireKind(t, err, proto.Aborted)
	})

	t.Run("network error", func(t *testing.T) {
		_, err := NewTransport(doerFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}), nil).Do(context.Background(), Request{URL: "http://localhost"}, time.Minute)
		requireKind(t, err, proto.NetworkError)
	})

	t.Run("distinct messages", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		boom := errors.New("boom")
		msgs := map[string]bool{}
		for _, err := range []*proto.Error{
			classify(ctx, ctx, boom, time.Second),
			classify(context.Background(), context.Background(), context.DeadlineExceeded, time.Second),
			classify(context.Background(), context.Background(), boom, time.Second),
		} {
			msgs[err.Message] = true
		}
		require.Len(t, msgs, 3)
	})
}

func requireKind(tb testing.TB, err error, kind proto.ErrorKind) {
	tb.Helper()
	var perr *proto.Error
	require.ErrorAs(tb, err, &perr)
	require.Equal(tb, kind, perr.Kind)
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }
