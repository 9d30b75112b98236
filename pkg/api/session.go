package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rubiojr/leaderboard/pkg/log"
	"github.com/rubiojr/leaderboard/pkg/realtime"
	"github.com/rubiojr/leaderboard/pkg/store"
	"github.com/rubiojr/leaderboard/pkg/urlsync"
)

const (
	sessionReadLimit = 64 << 10
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 9 / 10
	writeWait        = 10 * time.Second
)

var errRemoteRefresh = errors.New("refresh failed")

// session is one live view: its own store, input facade and URL projection.
type session struct {
	id      string
	srv     *Server
	conn    *websocket.Conn
	store   *store.Store
	actions *store.Actions
	proj    *urlsync.Projector
	log     *log.Logger

	writeMu sync.Mutex
	dirty   chan struct{}
}

// HandleSession upgrades to a websocket session hydrated from the request
// query string.
func (s *Server) HandleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}

	id := uuid.NewString()
	st := store.New(
		store.WithState(s.base.State()),
		store.WithDeriver(s.base.Deriver()),
		store.WithPinnedBypass(s.opts.PinnedBypass),
		store.WithName("session "+id[:8]),
	)
	sess := &session{
		id:      id,
		srv:     s,
		conn:    conn,
		store:   st,
		actions: store.NewActions(st, s.opts.Clock, s.opts.Timings),
		log:     log.ForService("session"),
		dirty:   make(chan struct{}, 1),
	}

	s.mu.Lock()
	s.sessions++
	s.mu.Unlock()
	s.metrics.sessions.Inc()
	defer func() {
		s.mu.Lock()
		s.sessions--
		s.mu.Unlock()
		s.metrics.sessions.Dec()
	}()

	sess.run(r.Context(), r.URL.Query())
}

func (ss *session) run(ctx context.Context, q url.Values) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer ss.conn.Close()

	hubID, events := ss.srv.hub.Register()
	defer ss.srv.hub.Unregister(hubID)

	proj, stopProjection := urlsync.Mount(ss.store, q, urlsync.WriterFunc(func(url.Values) {}))
	ss.proj = proj
	defer stopProjection()
	unsubscribe := ss.store.Subscribe(func(prev, next store.State) { ss.markDirty() })
	defer unsubscribe()
	defer ss.actions.Cancel()

	ss.log.Debugf("%s opened with %q", ss.id, q.Encode())
	if err := ss.pushState(); err != nil {
		return
	}

	go ss.readLoop(ctx, cancel)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			ss.log.Debugf("%s closed", ss.id)
			return
		case <-ss.dirty:
			if err := ss.pushState(); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			ss.apply(ev)
		case <-ping.C:
			ss.writeMu.Lock()
			ss.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := ss.conn.WriteMessage(websocket.PingMessage, nil)
			ss.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// apply moves a hub event into the session store.
func (ss *session) apply(ev realtime.Event) {
	switch ev.Type {
	case realtime.EventDataset:
		if cur := ss.store.State(); ev.Dataset == cur.Dataset && cur.Err == nil {
			return
		}
		if err := ss.store.Dispatch(store.SetModels{Dataset: ev.Dataset}); err != nil {
			ss.log.Warnf("%s: applying dataset: %v", ss.id, err)
		}
	case realtime.EventError:
		ss.store.Dispatch(store.SetError{Err: fmt.Errorf("%w: %s", errRemoteRefresh, ev.Error)})
	}
}

func (ss *session) markDirty() {
	select {
	case ss.dirty <- struct{}{}:
	default:
	}
}

func (ss *session) readLoop(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()
	ss.conn.SetReadLimit(sessionReadLimit)
	ss.conn.SetReadDeadline(time.Now().Add(pongWait))
	ss.conn.SetPongHandler(func(string) error {
		return ss.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for ctx.Err() == nil {
		var msg ClientMessage
		if err := ss.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ss.log.Debugf("%s read: %v", ss.id, err)
			}
			return
		}
		ss.conn.SetReadDeadline(time.Now().Add(pongWait))

		status := "ok"
		if err := ss.handle(msg); err != nil {
			status = "rejected"
			if werr := ss.write(ServerMessage{Type: MsgError, Session: ss.id, Error: err.Error()}); werr != nil {
				return
			}
		}
		ss.srv.metrics.sessionActions.WithLabelValues(msg.Type, status).Inc()
	}
}

// handle routes a client message to the input facade.
func (ss *session) handle(msg ClientMessage) error {
	a := ss.actions
	switch msg.Type {
	case MsgSetFilter:
		v, err := decodeValue(msg.Value)
		if err != nil {
			return err
		}
		return a.SetFilter(msg.Key, v)
	case MsgSetDisplayOption:
		v, err := decodeValue(msg.Value)
		if err != nil {
			return err
		}
		return a.SetDisplayOption(msg.Key, v)
	case MsgTogglePinned:
		return a.TogglePinnedModel(msg.ID)
	case MsgToggleOfficialProvider:
		_, err := a.ToggleOfficialProvider(msg.Source)
		return err
	case MsgApplyPreset:
		_, err := a.ApplyPreset(msg.ID, msg.Source)
		return err
	case MsgSetSort:
		return a.SetSort(msg.Column, msg.Desc)
	case MsgToggleFiltersExpanded:
		return a.ToggleFiltersExpanded()
	case MsgResetFilters:
		return a.ResetFilters()
	case MsgResetAll:
		return a.ResetAll()
	case MsgFlush:
		a.Flush()
		return nil
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

func decodeValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding value: %w", err)
	}
	return v, nil
}

func (ss *session) pushState() error {
	st := ss.store.State()
	if st.Err != nil {
		return ss.write(ServerMessage{Type: MsgError, Session: ss.id, Loading: st.Loading(), Error: st.Err.Error()})
	}
	res := ss.store.FilteredData()
	state := newStateResponse(st)
	return ss.write(ServerMessage{
		Type:    MsgState,
		Session: ss.id,
		Query:   ss.proj.Current().Encode(),
		Loading: st.Loading(),
		Rows:    res.Rows,
		Counts:  &st.Counts,
		Summary: &res.Summary,
		State:   &state,
	})
}

func (ss *session) write(msg ServerMessage) error {
	ss.writeMu.Lock()
	defer ss.writeMu.Unlock()
	ss.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ss.conn.WriteJSON(msg); err != nil {
		ss.log.Debugf("%s write: %v", ss.id, err)
		return err
	}
	return nil
}
