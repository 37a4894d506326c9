package service

import (
	"sync"
	"time"

	"qr-storefront/storefront-svc/internal/cart"

	"github.com/rs/zerolog"
)

const sweepInterval = time.Minute

type sessionHandle struct {
	mu       sync.Mutex
	session  *cart.Session
	lastSeen time.Time
	release  func()
}

// SessionRegistry keeps one cart.Session per browsing session in memory.
// Sessions idle for longer than the idle TTL are dropped; their persisted
// slot outlives them, so the next InitCart resumes the cart.
type SessionRegistry struct {
	mu        sync.Mutex
	slots     SlotFactory
	logger    zerolog.Logger
	idleTTL   time.Duration
	now       func() time.Time
	lastSweep time.Time
	sessions  map[string]*sessionHandle
	onCreate  func(sessionID string, s *cart.Session) (release func())
}

func NewSessionRegistry(slots SlotFactory, idleTTL time.Duration, logger zerolog.Logger) *SessionRegistry {
	return &SessionRegistry{
		slots:    slots,
		logger:   logger,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*sessionHandle),
	}
}

// OnCreate registers a hook run for every new session, typically to
// subscribe a change listener. The returned func runs when the session is
// evicted.
func (r *SessionRegistry) OnCreate(hook func(sessionID string, s *cart.Session) (release func())) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCreate = hook
}

func (r *SessionRegistry) handle(sessionID string) *sessionHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	h, ok := r.sessions[sessionID]
	if !ok {
		h = &sessionHandle{session: cart.NewSession(r.slots(sessionID), r.logger.With().Str("session_id", sessionID).Logger())}
		if r.onCreate != nil {
			h.release = r.onCreate(sessionID, h.session)
		}
		r.sessions[sessionID] = h
	}
	h.lastSeen = now
	return h
}

// Session returns the cart session for sessionID, creating an uninitialized
// one on first use.
func (r *SessionRegistry) Session(sessionID string) *cart.Session {
	return r.handle(sessionID).session
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) sweep(now time.Time) {
	if r.idleTTL <= 0 || now.Sub(r.lastSweep) < sweepInterval {
		return
	}
	r.lastSweep = now

	for id, h := range r.sessions {
		if now.Sub(h.lastSeen) > r.idleTTL {
			if h.release != nil {
				h.release()
			}
			delete(r.sessions, id)
		}
	}
}
