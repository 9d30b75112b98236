package urlsync

import (
	"net/url"
	"sync"

	"github.com/rubiojr/leaderboard/pkg/log"
	"github.com/rubiojr/leaderboard/pkg/store"
)

// Writer receives query strings produced by a Projector.
type Writer interface {
	WriteQuery(q url.Values)
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(url.Values)

func (f WriterFunc) WriteQuery(q url.Values) { f(q) }

// Projector keeps a Writer in step with a store.
type Projector struct {
	w   Writer
	log *log.Logger

	mu      sync.Mutex
	current url.Values
}

// NewProjector starts from the query string the view was mounted with.
func NewProjector(w Writer, initial url.Values) *Projector {
	if initial == nil {
		initial = url.Values{}
	}
	return &Projector{w: w, current: cloneValues(initial), log: log.ForService("urlsync")}
}

// Current returns the last projected query string.
func (p *Projector) Current() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneValues(p.current)
}

// Sync projects st, writing only when the query string changes.
func (p *Projector) Sync(st store.State) bool {
	p.mu.Lock()
	next, changed := Project(p.current, st)
	if changed {
		p.current = next
	}
	p.mu.Unlock()

	if changed {
		p.w.WriteQuery(cloneValues(next))
	}
	return changed
}

// Listener returns a store listener that syncs on transitions touching
// URL-backed state.
func (p *Projector) Listener() store.Listener {
	return func(prev, next store.State) {
		if prev.Rev.Filters == next.Rev.Filters &&
			prev.Rev.Display == next.Rev.Display &&
			prev.Rev.Pinned == next.Rev.Pinned {
			return
		}
		p.Sync(next)
	}
}

// Mount hydrates s from q once, projects the resulting state and keeps
// projecting on every later change. The returned function stops the
// projection.
func Mount(s *store.Store, q url.Values, w Writer) (*Projector, func()) {
	p := NewProjector(w, q)
	actions, dropped := Hydrate(q)
	for _, d := range dropped {
		p.log.Debugf("discarded %s=%q", d.Param, d.Value)
	}
	for _, a := range actions {
		if err := s.Dispatch(a); err != nil {
			p.log.Debugf("hydration skipped %s: %v", a.Type(), err)
		}
	}
	p.Sync(s.State())
	return p, s.Subscribe(p.Listener())
}
