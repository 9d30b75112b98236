package source

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rubiojr/leaderboard/pkg/log"
	"github.com/rubiojr/leaderboard/pkg/store"
)

// Refresher keeps a store loaded. Each refresh raises the loading flag,
// then commits either the dataset or the error.
type Refresher struct {
	loader   *Loader
	target   store.Dispatcher
	interval time.Duration
	clock    clock.Clock
	log      *log.Logger

	// OnRefresh, when set, is called after every attempt.
	OnRefresh func(Result, error)

	mu      sync.Mutex
	running bool
	trigger chan struct{}
}

// NewRefresher returns a refresher that reloads every interval. A zero
// interval loads once and then only on Trigger.
func NewRefresher(l *Loader, target store.Dispatcher, interval time.Duration, c clock.Clock) *Refresher {
	if c == nil {
		c = clock.New()
	}
	return &Refresher{
		loader:   l,
		target:   target,
		interval: interval,
		clock:    c,
		log:      log.ForService("refresher"),
		trigger:  make(chan struct{}, 1),
	}
}

// Refresh performs one load and dispatches its outcome.
func (r *Refresher) Refresh(ctx context.Context) error {
	if err := r.target.Dispatch(store.SetLoading{Loading: true}); err != nil {
		return err
	}
	res, err := r.loader.Load(ctx)
	if r.OnRefresh != nil {
		r.OnRefresh(res, err)
	}
	if err != nil {
		r.log.Errorf("refresh failed: %v", err)
		return r.target.Dispatch(store.SetError{Err: err})
	}
	return r.target.Dispatch(store.SetModels{Dataset: res.Dataset})
}

// Trigger requests a refresh from a running loop. Requests made while one
// is already queued collapse.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run loads immediately and then on every tick or Trigger until ctx is
// done.
func (r *Refresher) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	if err := r.Refresh(ctx); err != nil && ctx.Err() != nil {
		return nil
	}

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := r.clock.Ticker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
		r.log.Infof("refreshing every %s", r.interval)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		case <-r.trigger:
		}
		if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
			r.log.Debugf("refresh dispatch: %v", err)
		}
	}
}
