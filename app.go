package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/skim/internal/article"
	"github.com/charmbracelet/skim/internal/cache"
	"github.com/charmbracelet/skim/internal/catalog"
	"github.com/charmbracelet/skim/internal/credentials"
	"github.com/charmbracelet/skim/internal/custommodels"
	"github.com/charmbracelet/skim/internal/google"
	"github.com/charmbracelet/skim/internal/kv"
	"github.com/charmbracelet/skim/internal/openai"
	"github.com/charmbracelet/skim/internal/provider"
	"github.com/charmbracelet/skim/internal/summarize"
	"golang.org/x/sync/errgroup"
)

const redisPrefix = "skim:"

// app holds everything built from the configuration.
type app struct {
	cfg         Config
	log         *log.Logger
	http        *http.Client
	store       kv.Store
	builtins    catalog.Builtins
	models      *custommodels.Store
	credentials *credentials.Store
	renderer    *termRenderer
	session     *summarize.Session
}

func newLogger(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.WarnLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "skim",
		Level:  lvl,
	})
}

func newHTTPClient(cfg Config) (*http.Client, error) {
	if cfg.HTTPProxy == "" {
		return &http.Client{}, nil
	}
	proxyURL, err := url.Parse(cfg.HTTPProxy)
	if err != nil {
		return nil, skimError{err, "There was an error parsing your proxy URL."}
	}
	return &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}, nil
}

func openStore(ctx context.Context, cfg Config) (kv.Store, error) {
	if cfg.RedisURL != "" {
		s, err := kv.OpenRedis(ctx, cfg.RedisURL, redisPrefix)
		if err != nil {
			return nil, skimError{err, "Could not connect to Redis."}
		}
		return s, nil
	}
	s, err := kv.OpenSQLite(ctx, filepath.Join(cfg.DataPath, "skim.db"))
	if err != nil {
		return nil, skimError{err, "Could not open the settings store."}
	}
	return s, nil
}

// newApp opens the store and loads the custom models.
func newApp(ctx context.Context, cfg Config, logger *log.Logger, client *http.Client) (*app, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:         cfg,
		log:         logger,
		http:        client,
		store:       store,
		builtins:    catalog.New(cfg.Providers.OpenAI.BaseURL, cfg.Providers.Gemini.BaseURL),
		credentials: credentials.New(store, cfg.Providers.KeyEnv()),
		renderer:    &termRenderer{quiet: cfg.Quiet, log: logger},
	}
	a.models = custommodels.New(store, a.builtins, logger)
	if _, err := a.models.Load(ctx); err != nil {
		_ = store.Close()
		return nil, skimError{err, "Could not load custom models."}
	}
	return a, nil
}

// start builds the session. The explicit --model, when given, wins over the
// last used model.
func (a *app) start(ctx context.Context, modelID string) error {
	timeouts := provider.Timeouts{
		Default:  a.cfg.Timeout,
		Thinking: a.cfg.ReasoningTimeout,
	}
	var adapters []provider.Adapter
	for _, p := range a.builtins.Providers() {
		profile, _ := a.builtins.Profile(p)
		switch p {
		case catalog.OpenAI:
			adapters = append(adapters, openai.New(profile, timeouts))
		case catalog.Gemini:
			adapters = append(adapters, google.New(profile, timeouts))
		}
	}

	var prompter summarize.Prompter
	if isInputTTY() && isErrTTY() {
		prompter = credentialPrompter{}
	}

	s, err := summarize.New(ctx, summarize.Config{
		Builtins:       a.builtins,
		Models:         a.models,
		Credentials:    a.credentials,
		Store:          a.store,
		Adapters:       adapters,
		Transport:      provider.NewTransport(a.http, a.log),
		Renderer:       a.renderer,
		Prompter:       prompter,
		Logger:         a.log,
		Language:       a.cfg.Language,
		ModelID:        modelID,
		DefaultModelID: a.cfg.Model,
	})
	if err != nil {
		return skimError{err, "Could not start."}
	}
	a.session = s
	return nil
}

func newLoader(cfg Config, logger *log.Logger, client *http.Client) (*loader, error) {
	l := &loader{
		client:    client,
		ttl:       cfg.PageCacheTTL,
		userAgent: "skim/" + strings.TrimPrefix(Version, "v"),
		stdin:     os.Stdin,
		log:       logger,
	}
	if cfg.NoCache || cfg.PageCacheTTL <= 0 {
		return l, nil
	}
	pages, err := cache.NewExpiring[page](cfg.DataPath, cache.PageCache)
	if err != nil {
		return nil, skimError{err, "Could not open the page cache."}
	}
	l.pages = pages
	return l, nil
}

// prepare opens the store and loads the article at the same time.
func prepare(ctx context.Context, cfg Config, input string) (*app, *article.Payload, error) {
	logger := newLogger(cfg.LogLevel)
	client, err := newHTTPClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	l, err := newLoader(cfg, logger, client)
	if err != nil {
		return nil, nil, err
	}

	var (
		a       *app
		payload *article.Payload
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = newApp(gctx, cfg, logger, client)
		return err
	})
	g.Go(func() error {
		var err error
		payload, err = l.load(gctx, input)
		return err
	})
	if err := g.Wait(); err != nil {
		if a != nil {
			_ = a.close()
		}
		return nil, nil, err
	}
	return a, payload, nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("could not close store: %w", err)
	}
	return nil
}
