package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/digitalghar/storefront/internal/storage"
	"github.com/digitalghar/storefront/pkg/logger"
)

// Session is the live state of one browser session.
type Session struct {
	ID   string
	Cart *CartStore
	Auth *AuthStore

	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// LastSeen is when the session was last handed out by the manager.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

type loadingSession struct {
	ready   chan struct{}
	session *Session
	err     error
}

type ManagerOption func(*Manager)

// WithCartObserver installs an observer on every cart the manager loads.
func WithCartObserver(observer func(sessionID string, state CartState)) ManagerOption {
	return func(m *Manager) {
		m.cartObserver = observer
	}
}

// WithAuthOptions passes options to every auth store the manager creates.
func WithAuthOptions(opts ...AuthOption) ManagerOption {
	return func(m *Manager) {
		m.authOpts = append(m.authOpts, opts...)
	}
}

// Manager hands out one Session per session id, hydrating it from the backend on first use.
type Manager struct {
	mu           sync.Mutex
	backend      storage.Backend
	api          AuthAPI
	sessions     map[string]*loadingSession
	cartObserver func(sessionID string, state CartState)
	authOpts     []AuthOption
	now          func() time.Time
}

func NewManager(backend storage.Backend, api AuthAPI, opts ...ManagerOption) *Manager {
	m := &Manager{
		backend:  backend,
		api:      api,
		sessions: make(map[string]*loadingSession),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the live session for id, loading it if needed.
// Concurrent first requests for the same id share one load.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	if !ok {
		entry = &loadingSession{ready: make(chan struct{})}
		m.sessions[id] = entry
	}
	m.mu.Unlock()

	if !ok {
		entry.session, entry.err = m.load(ctx, id)
		if entry.err != nil {
			m.mu.Lock()
			delete(m.sessions, id)
			m.mu.Unlock()
		}
		close(entry.ready)
	}

	select {
	case <-entry.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if entry.err != nil {
		return nil, entry.err
	}
	entry.session.touch(m.now())
	return entry.session, nil
}

func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	ns := storage.Namespace(m.backend, storage.SessionPrefix(id))

	sess := &Session{
		ID:   id,
		Cart: NewCartStore(ns),
		Auth: NewAuthStore(m.api, ns, m.authOpts...),
	}
	if err := sess.Cart.Hydrate(ctx); err != nil {
		return nil, fmt.Errorf("hydrate session %s: %w", id, err)
	}
	if err := sess.Auth.Hydrate(ctx); err != nil {
		return nil, fmt.Errorf("hydrate session %s: %w", id, err)
	}
	sess.Auth.CheckAuth(ctx)

	if m.cartObserver != nil {
		observer := m.cartObserver
		sess.Cart.SetObserver(func(state CartState) {
			observer(id, state)
		})
	}

	logger.Debug("Session loaded", map[string]interface{}{
		"session_id":  id,
		"cart_items":  sess.Cart.ItemCount(),
		"auth_status": string(sess.Auth.Status()),
	})
	return sess, nil
}

// Evict drops sessions idle for longer than idle. Their persisted state stays in the
// backend and is rehydrated on the next request.
func (m *Manager) Evict(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, entry := range m.sessions {
		select {
		case <-entry.ready:
		default:
			continue
		}
		if entry.session != nil && entry.session.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Backend exposes the shared persistence backend for maintenance jobs.
func (m *Manager) Backend() storage.Backend {
	return m.backend
}
