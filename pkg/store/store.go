// Package store holds leaderboard state behind a pure reducer.
//
// A Store is owned by whoever composes the application (the HTTP server,
// one per websocket session, the CLI) and passed by reference. All changes
// go through Dispatch; listeners registered with Subscribe see every
// transition in order.
//
//	st := store.New()
//	unsubscribe := st.Subscribe(func(prev, next store.State) { ... })
//	defer unsubscribe()
//	st.Dispatch(store.SetModels{Dataset: ds})
//	st.Dispatch(store.SetFilter{Key: store.FilterPrecisions, Value: []string{"float16"}})
//	rows := st.FilteredData().Rows
package store

import (
	"maps"
	"slices"
	"sync"

	"github.com/rubiojr/leaderboard/pkg/counts"
	"github.com/rubiojr/leaderboard/pkg/log"
	"github.com/rubiojr/leaderboard/pkg/view"
)

// Listener observes a state transition.
type Listener func(prev, next State)

// Dispatcher is the write side of a Store.
type Dispatcher interface {
	Dispatch(Action) error
}

type Option func(*Store)

// WithPinnedBypass keeps pinned rows visible when they fail the filters.
func WithPinnedBypass(enabled bool) Option {
	return func(s *Store) { s.pinnedBypass = enabled }
}

// WithState sets the initial state.
func WithState(st State) Option {
	return func(s *Store) { s.state = st }
}

// WithDeriver shares d with other stores. Sessions pass the base store's
// Deriver so a dataset is counted once.
func WithDeriver(d *Deriver) Option {
	return func(s *Store) { s.deriver = d }
}

// WithName sets the logger name, which helps telling sessions apart.
func WithName(name string) Option {
	return func(s *Store) { s.log = log.ForService(name) }
}

type viewKey struct {
	rev    Revisions
	bypass bool
}

type Store struct {
	dispatchMu sync.Mutex

	mu        sync.RWMutex
	state     State
	listeners map[uint64]Listener
	nextID    uint64

	pinnedBypass bool
	deriver      *Deriver
	log          *log.Logger

	memoMu   sync.Mutex
	memoKey  viewKey
	memoView view.Result
	memoOK   bool
}

func New(opts ...Option) *Store {
	s := &Store{
		state:     NewState(),
		listeners: map[uint64]Listener{},
		log:       log.ForService("store"),
	}
	for _, o := range opts {
		o(s)
	}
	if s.deriver == nil {
		s.deriver = NewDeriver()
	}
	return s
}

// Deriver returns the store's derived-value cache.
func (s *Store) Deriver() *Deriver { return s.deriver }

// State returns the current state. Treat it as read-only.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch reduces a and notifies listeners. Listeners run on the
// dispatching goroutine and must not call Dispatch.
func (s *Store) Dispatch(a Action) error {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next, err := ReduceWith(s.deriver, prev, a)
	if err != nil {
		s.mu.Unlock()
		s.log.Warnf("rejected %s: %v", actionName(a), err)
		return err
	}
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, id := range slices.Sorted(maps.Keys(s.listeners)) {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	if next.Rev.Dataset != prev.Rev.Dataset {
		s.log.Debugf("dataset replaced: %d entries", next.Dataset.Len())
	}
	for _, l := range listeners {
		l(prev, next)
	}
	return nil
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Loading reports the external loading flag.
func (s *Store) Loading() bool {
	return s.State().Loading()
}

// FilterCounts returns the count tables for the current dataset.
func (s *Store) FilterCounts() counts.Result {
	return s.State().Counts
}

// FilteredData returns the filtered, ranked rows. The result is cached
// until a substate it depends on is replaced.
func (s *Store) FilteredData() view.Result {
	st := s.State()
	key := viewKey{rev: st.Rev, bypass: s.pinnedBypass}

	s.memoMu.Lock()
	defer s.memoMu.Unlock()
	if s.memoOK && s.memoKey == key {
		return s.memoView
	}
	s.memoView = BuildView(st, s.pinnedBypass)
	s.memoKey = key
	s.memoOK = true
	return s.memoView
}

// BuildView derives the rendered rows from a state.
func BuildView(st State, pinnedBypass bool) view.Result {
	return view.Build(st.Dataset, view.Options{
		Filters:             st.Filters,
		Sort:                st.Sort,
		Mode:                st.Display.RankingMode,
		Pinned:              st.Pinned,
		StaticRanks:         st.StaticRanks,
		RawScores:           st.Display.ScoreDisplay == ScoreRaw,
		AverageMode:         st.Display.AverageMode,
		VisibleColumns:      st.Display.VisibleColumns,
		PinnedBypassFilters: pinnedBypass,
	})
}

// PinnedBypass reports whether pinned rows bypass filters in this store.
func (s *Store) PinnedBypass() bool {
	return s.pinnedBypass
}

func actionName(a Action) string {
	if a == nil {
		return "<nil>"
	}
	return a.Type()
}
