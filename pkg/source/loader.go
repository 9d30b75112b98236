package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rubiojr/leaderboard/pkg/log"
	"github.com/rubiojr/leaderboard/pkg/model"
	"github.com/rubiojr/leaderboard/pkg/storage"
)

// Result describes how a Load was satisfied.
type Result struct {
	Dataset *model.Dataset
	// Cached is set when the payload came from the local cache.
	Cached bool
	// NotModified is set when the source reported no change.
	NotModified bool
	// Stale is set when the source failed and an expired snapshot was used.
	Stale bool
}

// Loader fetches a Source through an optional snapshot cache. A Loader
// returns the same *model.Dataset until the payload changes.
type Loader struct {
	src   Source
	cache *storage.Cache
	ttl   time.Duration
	clock clock.Clock
	log   *log.Logger

	mu   sync.Mutex
	etag string
	last *model.Dataset
}

type LoaderOption func(*Loader)

func WithCache(c *storage.Cache, ttl time.Duration) LoaderOption {
	return func(l *Loader) {
		l.cache = c
		l.ttl = ttl
	}
}

func WithClock(c clock.Clock) LoaderOption {
	return func(l *Loader) { l.clock = c }
}

func NewLoader(src Source, opts ...LoaderOption) *Loader {
	l := &Loader{src: src, clock: clock.New(), log: log.ForService("source")}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Source returns the underlying source.
func (l *Loader) Source() Source { return l.src }

// Load returns the current dataset.
func (l *Loader) Load(ctx context.Context) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	started := l.clock.Now()
	res, err := l.load(ctx)

	if l.cache != nil {
		rec := storage.FetchRecord{
			Key:       l.src.Key(),
			StartedAt: started,
			Duration:  l.clock.Since(started),
			Cached:    res.Cached,
		}
		if res.Dataset != nil {
			rec.Entries = res.Dataset.Len()
		}
		if err != nil {
			rec.Error = err.Error()
		}
		if rerr := l.cache.RecordFetch(ctx, rec); rerr != nil {
			l.log.Warnf("recording fetch: %v", rerr)
		}
	}
	return res, err
}

func (l *Loader) load(ctx context.Context) (Result, error) {
	key := l.src.Key()

	var stale *storage.Snapshot
	if l.cache != nil {
		snap, err := l.cache.Get(ctx, key, 0)
		switch {
		case err == nil && (l.ttl <= 0 || snap.Age(l.clock.Now()) <= l.ttl):
			ds, err := l.adopt(snap.Data, snap.ETag)
			if err == nil {
				l.log.Debugf("cache hit for %s (age %s)", key, snap.Age(l.clock.Now()).Round(time.Second))
				return Result{Dataset: ds, Cached: true}, nil
			}
			l.log.Warnf("discarding unreadable snapshot for %s: %v", key, err)
		case err == nil:
			stale = &snap
		case !errors.Is(err, storage.ErrCacheMiss):
			l.log.Warnf("reading cache: %v", err)
		}
	}

	etag := l.etag
	if etag == "" && stale != nil {
		etag = stale.ETag
	}

	p, err := l.src.Fetch(ctx, etag)
	switch {
	case errors.Is(err, ErrNotModified):
		if l.last == nil {
			if stale == nil {
				// Nothing to reuse; fetch unconditionally.
				if p, err = l.src.Fetch(ctx, ""); err != nil {
					return Result{}, err
				}
				return l.store(ctx, p)
			}
			if _, derr := l.adopt(stale.Data, stale.ETag); derr != nil {
				return Result{}, derr
			}
		}
		if l.cache != nil && stale != nil {
			if perr := l.cache.Put(ctx, key, stale.Data, stale.ETag, l.clock.Now()); perr != nil {
				l.log.Warnf("refreshing snapshot: %v", perr)
			}
		}
		return Result{Dataset: l.last, NotModified: true}, nil
	case err != nil:
		if l.last == nil && stale != nil {
			if ds, derr := l.adopt(stale.Data, stale.ETag); derr == nil {
				l.log.Warnf("fetch failed, using stale snapshot: %v", err)
				return Result{Dataset: ds, Cached: true, Stale: true}, nil
			}
		}
		return Result{}, err
	}
	return l.store(ctx, p)
}

func (l *Loader) store(ctx context.Context, p Payload) (Result, error) {
	ds, err := l.adopt(p.Data, p.ETag)
	if err != nil {
		return Result{}, err
	}
	if l.cache != nil {
		if err := l.cache.Put(ctx, l.src.Key(), p.Data, p.ETag, l.clock.Now()); err != nil {
			l.log.Warnf("caching snapshot: %v", err)
		}
	}
	l.log.Infof("loaded %d entries from %s", ds.Len(), l.src.Key())
	if n := ds.Skipped(); n > 0 {
		l.log.Warnf("skipped %d entries without a unique id", n)
	}
	return Result{Dataset: ds}, nil
}

// adopt decodes data unless it is the payload already held.
func (l *Loader) adopt(data []byte, etag string) (*model.Dataset, error) {
	if l.last != nil && etag != "" && etag == l.etag {
		return l.last, nil
	}
	ds, err := model.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}
	l.last = ds
	l.etag = etag
	return ds, nil
}
