package views

import (
	"context"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/logging"
	"github.com/vennapp/venner/internal/realtime"
)

const (
	registrySweepInterval = time.Minute
	sessionIdleTimeout    = 5 * time.Minute
)

// Registry hands out one Session per user and tears it down once the user
// has no connections and has been idle past the timeout. Sessions exist so
// REST reads between events see the same state the watcher maintains.
type Registry struct {
	svc    Services
	bus    *realtime.Bus
	notify NotificationSink
	logger *logging.Logger

	mu       gosync.Mutex
	ctx      context.Context
	sessions map[uuid.UUID]*sessionEntry
}

type sessionEntry struct {
	session  *Session
	cancel   context.CancelFunc
	refs     int
	lastSeen time.Time
}

func NewRegistry(svc Services, bus *realtime.Bus, notify NotificationSink, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default
	}
	return &Registry{
		svc:      svc,
		bus:      bus,
		notify:   notify,
		logger:   logger,
		sessions: make(map[uuid.UUID]*sessionEntry),
	}
}

// Run sweeps idle sessions until ctx is cancelled, then tears everything
// down. Sessions created before Run starts watch under the background
// context and are reaped by the sweep like any other.
func (r *Registry) Run(ctx context.Context) {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	ticker := time.NewTicker(registrySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			for userID, entry := range r.sessions {
				entry.cancel()
				delete(r.sessions, userID)
			}
			r.mu.Unlock()
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// Get returns the user's session, creating it and starting its watcher on
// first use.
func (r *Registry) Get(userID uuid.UUID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[userID]
	if !ok {
		parent := r.ctx
		if parent == nil {
			parent = context.Background()
		}
		watchCtx, cancel := context.WithCancel(parent)
		entry = &sessionEntry{
			session: NewSession(userID, r.svc, r.notify, r.logger),
			cancel:  cancel,
		}
		r.sessions[userID] = entry
		go entry.session.Watch(watchCtx, r.bus)
	}
	entry.lastSeen = time.Now()
	return entry.session
}

// Retain pins the user's session for the lifetime of a connection.
func (r *Registry) Retain(userID uuid.UUID) *Session {
	session := r.Get(userID)
	r.mu.Lock()
	if entry, ok := r.sessions[userID]; ok {
		entry.refs++
	}
	r.mu.Unlock()
	return session
}

// Release undoes one Retain. The session lingers until the idle sweep so a
// reconnect picks up warm state.
func (r *Registry) Release(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[userID]; ok {
		if entry.refs > 0 {
			entry.refs--
		}
		entry.lastSeen = time.Now()
	}
}

func (r *Registry) sweep() {
	cutoff := time.Now().Add(-sessionIdleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, entry := range r.sessions {
		if entry.refs == 0 && entry.lastSeen.Before(cutoff) {
			entry.cancel()
			delete(r.sessions, userID)
			r.logger.Debug("Evicted idle session", map[string]interface{}{
				"user_id": userID.String(),
			})
		}
	}
}
