package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/logging"
)

const (
	defaultTTL          = 7 * 24 * time.Hour
	defaultAnonymousTTL = 30 * time.Minute
)

// Session is everything the storefront keeps for one browser.
type Session struct {
	ID       string
	Auth     *Auth
	Cart     *cart.Store
	Checkout *checkout.Orchestrator

	lastSeen atomic.Int64
	ready    sync.Once
}

// API returns the commerce API bound to the shopper's token.
func (s *Session) API() Backend {
	return s.Auth.API()
}

type Options struct {
	TTL time.Duration
	// AnonymousTTL is the idle window for sessions without a token.
	AnonymousTTL time.Duration
	JWTSecret    string
	CallbackURL  string
	Logger       *zap.Logger
}

// Manager owns one Session per session id. Stores are never shared between
// sessions.
type Manager struct {
	storage Storage
	backend BackendFunc
	opts    Options
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(storage Storage, backend BackendFunc, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.AnonymousTTL <= 0 {
		opts.AnonymousTTL = defaultAnonymousTTL
	}
	if opts.AnonymousTTL > opts.TTL {
		opts.AnonymousTTL = opts.TTL
	}
	return &Manager{
		storage:  storage,
		backend:  backend,
		opts:     opts,
		logger:   logging.Component(opts.Logger, "session"),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it on first use. A new session
// restores its stored token and, when it is still accepted, the user and
// the cart.
func (m *Manager) Get(ctx context.Context, id string) *Session {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		s = m.newSession(id)
		m.sessions[id] = s
	}
	s.lastSeen.Store(m.now().UnixNano())
	m.mu.Unlock()

	s.ready.Do(func() { m.initialize(ctx, s) })
	return s
}

func (m *Manager) newSession(id string) *Session {
	logger := m.opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session_id", id))

	auth := &Auth{
		sessionID: id,
		storage:   m.storage,
		backend:   m.backend,
		secret:    []byte(m.opts.JWTSecret),
		now:       m.now,
		logger:    logging.Component(logger, "auth"),
	}
	api := boundAPI{auth: auth}
	store := cart.NewStore(api, logger)

	return &Session{
		ID:   id,
		Auth: auth,
		Cart: store,
		Checkout: checkout.NewOrchestrator(api, store, auth, checkout.Options{
			CallbackURL: m.opts.CallbackURL,
			Logger:      logger,
		}),
	}
}

func (m *Manager) initialize(ctx context.Context, s *Session) {
	if err := s.Auth.restore(ctx); err != nil {
		m.logger.Warn("restore session failed", zap.String("session_id", s.ID), zap.Error(err))
		return
	}
	if s.Auth.Token() == "" {
		return
	}
	if err := s.Auth.CheckAuth(ctx); err != nil {
		if !errors.Is(err, ErrNotAuthenticated) {
			m.logger.Warn("check auth failed", zap.String("session_id", s.ID), zap.Error(err))
		}
		return
	}
	s.Cart.FetchCart(ctx)
}

// Destroy forgets the session and its stored values.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return m.storage.Destroy(ctx, id)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle for longer than the TTL, or longer than the
// anonymous TTL when they hold no token, and returns how many were removed.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()
	cutoff := now.Add(-m.opts.TTL).UnixNano()
	anonCutoff := now.Add(-m.opts.AnonymousTTL).UnixNano()

	m.mu.Lock()
	var idle []string
	for id, s := range m.sessions {
		last := s.lastSeen.Load()
		if last < cutoff || (last < anonCutoff && s.Auth.Token() == "") {
			idle = append(idle, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range idle {
		if err := m.storage.Destroy(ctx, id); err != nil {
			m.logger.Warn("destroy idle session failed", zap.String("session_id", id), zap.Error(err))
		}
	}
	if len(idle) > 0 {
		m.logger.Info("evicted idle sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}
