package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchroom/internal/core"
)

type sessionEntry struct {
	Username string
	Signal   core.SignalConnection
	Cancel   context.CancelFunc
}

// Registry maps client sessions to the room actor they speak for and to
// their live websocket connection, if any.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*sessionEntry)}
}

func (r *Registry) entry(sid core.SessionID) *sessionEntry {
	e, ok := r.sessions[sid]
	if !ok {
		e = &sessionEntry{}
		r.sessions[sid] = e
	}
	return e
}

// Bind makes sid act as username.
func (r *Registry) Bind(sid core.SessionID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entry(sid).Username = username
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("username", username).Msg("bound actor")
}

func (r *Registry) Username(sid core.SessionID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.Username == "" {
		return "", false
	}
	return e.Username, true
}

func (r *Registry) BindSignal(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entry(sid)
	e.Signal = conn
	e.Cancel = cancel
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

// UnbindSignal forgets the websocket connection of sid but keeps its actor.
// A stale conn (already replaced by a newer one) is ignored.
func (r *Registry) UnbindSignal(sid core.SessionID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok || e.Signal != conn {
		return
	}
	e.Signal = nil
	e.Cancel = nil
	if e.Username == "" {
		delete(r.sessions, sid)
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound signal")
}

// Unbind drops sid entirely, cancelling its connection.
func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	e, ok := r.sessions[sid]
	delete(r.sessions, sid)
	r.mu.Unlock()
	if ok && e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

// DropActor unbinds every session acting as username.
func (r *Registry) DropActor(username string) int {
	return r.Prune(func(u string) bool { return u != username })
}

// Prune unbinds every session whose actor fails keep, cancelling its
// connection. Sessions not yet bound to an actor are left alone.
func (r *Registry) Prune(keep func(username string) bool) int {
	r.mu.Lock()
	var cancels []context.CancelFunc
	var dropped []string
	for sid, e := range r.sessions {
		if e.Username == "" || keep(e.Username) {
			continue
		}
		if e.Cancel != nil {
			cancels = append(cancels, e.Cancel)
		}
		delete(r.sessions, sid)
		dropped = append(dropped, e.Username)
	}
	r.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	if len(dropped) > 0 {
		log.Info().Str("module", "app.registry").Strs("usernames", dropped).Msg("dropped actor sessions")
	}
	return len(dropped)
}

// Signals returns every live websocket connection.
func (r *Registry) Signals() []core.SignalConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.SignalConnection, 0, len(r.sessions))
	for _, e := range r.sessions {
		if e.Signal != nil {
			out = append(out, e.Signal)
		}
	}
	return out
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	var cancel context.CancelFunc
	if e, ok := r.sessions[sid]; ok {
		cancel = e.Cancel
	}
	r.mu.RUnlock()
	if cancel == nil {
		return false
	}
	cancel()
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
