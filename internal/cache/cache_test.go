package cache

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	t.Run("read non-existent", func(t *testing.T) {
		cache, err := New(t.TempDir(), PageCache)
		require.NoError(t, err)
		err = cache.Read("super-fake", func(io.Reader) error { return nil })
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("write and read", func(t *testing.T) {
		cache, err := New(t.TempDir(), PageCache)
		require.NoError(t, err)
		require.NoError(t, cache.Write("fake", func(w io.Writer) error {
			_, err := io.WriteString(w, "<p>hi</p>")
			return err
		}))

		var result string
		require.NoError(t, cache.Read("fake", func(r io.Reader) error {
			b, err := io.ReadAll(r)
			result = string(b)
			return err
		}))
		require.Equal(t, "<p>hi</p>", result)
	})

	t.Run("delete", func(t *testing.T) {
		cache, err := New(t.TempDir(), PageCache)
		require.NoError(t, err)
		require.NoError(t, cache.Write("fake", func(io.Writer) error { return nil }))
		require.NoError(t, cache.Delete("fake"))
		require.ErrorIs(t, cache.Read("fake", func(io.Reader) error { return nil }), os.ErrNotExist)
	})

	t.Run("invalid id", func(t *testing.T) {
		cache, err := New(t.TempDir(), PageCache)
		require.NoError(t, err)
		for _, id := range []string{"", "../escape", ".hidden", "a/b"} {
			require.ErrorIs(t, cache.Write(id, nil), errInvalidID, id)
			require.ErrorIs(t, cache.Read(id, nil), errInvalidID, id)
			require.ErrorIs(t, cache.Delete(id), errInvalidID, id)
		}
	})
}

func TestID(t *testing.T) {
	id := ID("https://example.com/a?b=c")
	require.Len(t, id, 40)
	require.Equal(t, id, ID("https://example.com/a?b=c"))
	require.NotEqual(t, id, ID("https://example.com/a"))
	require.NoError(t, checkID(id))
}

type page struct {
	URL  string
	Body []byte
}

func TestExpiringCache(t *testing.T) {
	t.Run("put and get", func(t *testing.T) {
		cache, err := NewExpiring[page](t.TempDir(), PageCache)
		require.NoError(t, err)

		in := page{URL: "https://example.com", Body: []byte("<html></html>")}
		require.NoError(t, cache.Put("test", in, time.Hour))

		out, err := cache.Get("test")
		require.NoError(t, err)
		require.Equal(t, in, out)
	})

	t.Run("missing", func(t *testing.T) {
		cache, err := NewExpiring[page](t.TempDir(), PageCache)
		require.NoError(t, err)
		_, err = cache.Get("test")
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("expired", func(t *testing.T) {
		dir := t.TempDir()
		cache, err := NewExpiring[page](dir, PageCache)
		require.NoError(t, err)

		require.NoError(t, cache.Put("test", page{URL: "old"}, -time.Hour))
		_, err = cache.Get("test")
		require.ErrorIs(t, err, os.ErrNotExist)

		entries, err := os.ReadDir(filepath.Join(dir, string(PageCache)))
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("expires with the clock", func(t *testing.T) {
		cache, err := NewExpiring[page](t.TempDir(), PageCache)
		require.NoError(t, err)
		now := time.Now()
		cache.now = func() time.Time { return now }
		require.NoError(t, cache.Put("test", page{URL: "u"}, time.Minute))

		_, err = cache.Get("test")
		require.NoError(t, err)

		cache.now = func() time.Time { return now.Add(2 * time.Minute) }
		_, err = cache.Get("test")
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("overwrite", func(t *testing.T) {
		dir := t.TempDir()
		cache, err := NewExpiring[page](dir, PageCache)
		require.NoError(t, err)

		require.NoError(t, cache.Put("test", page{URL: "one"}, time.Hour))
		require.NoError(t, cache.Put("test", page{URL: "two"}, 2*time.Hour))

		out, err := cache.Get("test")
		require.NoError(t, err)
		require.Equal(t, "two", out.URL)

		entries, err := os.ReadDir(filepath.Join(dir, string(PageCache)))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.True(t, strings.HasPrefix(entries[0].Name(), "test."))
	})

	t.Run("delete", func(t *testing.T) {
		cache, err := NewExpiring[page](t.TempDir(), PageCache)
		require.NoError(t, err)
		require.NoError(t, cache.Put("test", page{URL: "u"}, time.Hour))
		require.NoError(t, cache.Delete("test"))
		_, err = cache.Get("test")
		require.ErrorIs(t, err, os.ErrNotExist)
		require.NoError(t, cache.Delete("test"))
	})
}
