package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/skim/internal/article"
	"github.com/charmbracelet/skim/internal/cache"
	"mvdan.cc/xurls/v2"
)

const maxPageSize = 10 << 20

// page is a fetched page as kept in the page cache.
type page struct {
	URL       string
	Body      []byte
	FetchedAt time.Time
}

type loader struct {
	client    *http.Client
	pages     *cache.Expiring[page]
	ttl       time.Duration
	userAgent string
	stdin     io.Reader
	log       *log.Logger
}

// load reads the input the user pointed at and extracts the article from it.
// A nil payload means the input is not an article.
func (l *loader) load(ctx context.Context, input string) (*article.Payload, error) {
	body, err := l.read(ctx, input)
	if err != nil {
		return nil, err
	}
	doc, err := article.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, skimError{err, "Could not parse the page."}
	}
	return article.Readability{}.Extract(doc), nil
}

func (l *loader) read(ctx context.Context, input string) ([]byte, error) {
	input = strings.TrimSpace(input)
	if input == "" || input == "-" {
		if input == "" && isInputTTY() {
			return nil, newUserErrorf("nothing to summarize: pass a URL, a file or pipe a page into skim")
		}
		bts, err := io.ReadAll(io.LimitReader(l.stdin, maxPageSize))
		if err != nil {
			return nil, skimError{err, "Unable to read stdin."}
		}
		return bts, nil
	}

	path := strings.TrimPrefix(input, "file://")
	if _, err := os.Stat(path); err == nil {
		bts, err := os.ReadFile(path)
		if err != nil {
			return nil, skimError{err, "Could not read file."}
		}
		return bts, nil
	}

	u := xurls.Strict().FindString(input)
	if u == "" {
		return nil, skimError{
			fmt.Errorf("%q is neither a file nor a URL", input),
			"Could not find anything to summarize.",
		}
	}
	return l.fetch(ctx, u)
}

func (l *loader) fetch(ctx context.Context, u string) ([]byte, error) {
	id := cache.ID(u)
	if l.pages != nil && l.ttl > 0 {
		p, err := l.pages.Get(id)
		if err == nil && p.URL == u {
			l.log.Debug("Using cached page", "url", u, "fetched", p.FetchedAt)
			return p.Body, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			l.log.Warn("Could not read page cache", "err", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, skimError{err, "Invalid URL."}
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, skimError{err, "Could not fetch the page."}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, skimError{
			fmt.Errorf("%s: %s", u, resp.Status),
			"Could not fetch the page.",
		}
	}

	bts, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, skimError{err, "Could not fetch the page."}
	}

	if l.pages != nil && l.ttl > 0 {
		if err := l.pages.Put(id, page{URL: u, Body: bts, FetchedAt: time.Now()}, l.ttl); err != nil {
			l.log.Warn("Could not write page cache", "err", err)
		}
	}
	return bts, nil
}
