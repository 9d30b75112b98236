package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rubiojr/leaderboard/pkg/config"
	"github.com/rubiojr/leaderboard/pkg/source"
	"github.com/rubiojr/leaderboard/pkg/storage"
	"github.com/rubiojr/leaderboard/pkg/store"
)

// env bundles what every data command needs.
type env struct {
	cfg    *config.Config
	cache  *storage.Cache
	loader *source.Loader
}

func (e *env) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// openEnv loads the configuration and prepares the cached dataset loader.
func openEnv(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := os.MkdirAll(cfg.StorageDir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	cache, err := storage.Open(cfg.CachePath())
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	src, err := source.New(ctx, cfg.Source.URL, cfg.Source.File, cfg.Source.Token)
	if err != nil {
		cache.Close()
		return nil, err
	}
	return &env{
		cfg:    cfg,
		cache:  cache,
		loader: source.NewLoader(src, source.WithCache(cache, cfg.Source.CacheTTL.Duration)),
	}, nil
}

// loadStore returns a store holding the current dataset.
func (e *env) loadStore(ctx context.Context) (*store.Store, error) {
	s := store.New(store.WithPinnedBypass(e.cfg.View.PinnedBypass()), store.WithName("cli"))
	if err := source.NewRefresher(e.loader, s, 0, nil).Refresh(ctx); err != nil {
		return nil, err
	}
	if err := s.State().Err; err != nil {
		return nil, err
	}
	return s, nil
}

// parseShareQuery accepts a full share URL, a query string with or without
// the leading '?', or an empty string.
func parseShareQuery(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return url.Values{}, nil
	}
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing query %q: %w", raw, err)
	}
	return q, nil
}
