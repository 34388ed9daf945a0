// Package session implements the admin client's soft session: a sliding
// idle timeout capped by an absolute lifetime. It is a convenience for the
// operator; the server checks the shared secret on every request regardless.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/models"
)

const (
	DefaultIdleTimeout  = 30 * time.Minute
	DefaultMaxAge       = 8 * time.Hour
	DefaultPollInterval = 15 * time.Second
)

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrSessionExpired = errors.New("session expired")
	ErrEmptyToken     = errors.New("admin token must not be empty")
)

// Verifier confirms a candidate secret before a session is created.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

type Options struct {
	IdleTimeout  time.Duration
	MaxAge       time.Duration
	PollInterval time.Duration
	Now          func() time.Time
}

// Manager drives the LoggedOut/Active state machine. The poll loop and
// command handling run on different goroutines, so state changes are
// serialized by mu.
type Manager struct {
	mu       sync.Mutex
	store    Store
	verifier Verifier
	logger   logger.Logger

	idle   time.Duration
	maxAge time.Duration
	poll   time.Duration
	now    func() time.Time
}

func NewManager(store Store, verifier Verifier, opts Options, log logger.Logger) *Manager {
	m := &Manager{
		store:    store,
		verifier: verifier,
		logger:   log.WithFields(map[string]interface{}{"component": "session"}),
		idle:     opts.IdleTimeout,
		maxAge:   opts.MaxAge,
		poll:     opts.PollInterval,
		now:      opts.Now,
	}
	if m.idle <= 0 {
		m.idle = DefaultIdleTimeout
	}
	if m.maxAge <= 0 {
		m.maxAge = DefaultMaxAge
	}
	if m.poll <= 0 {
		m.poll = DefaultPollInterval
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

func (m *Manager) PollInterval() time.Duration {
	return m.poll
}

// Login verifies token (when a Verifier is set) and starts a new session,
// replacing any existing one.
func (m *Manager) Login(ctx context.Context, token string) (*models.AdminSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}
	if m.verifier != nil {
		if err := m.verifier.Verify(ctx, token); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	s := &models.AdminSession{
		Token:        token,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(m.idle),
	}
	if err := m.store.Save(s); err != nil {
		return nil, err
	}
	m.logger.Info("admin session started", map[string]interface{}{"expiresAt": s.ExpiresAt})
	return s, nil
}

// Touch records operator activity. Past the absolute cap activity is
// ignored and the session is left unchanged.
func (m *Manager) Touch() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.store.Load()
	if err != nil {
		return err
	}
	if s == nil {
		return ErrNotLoggedIn
	}
	if !s.UpdateActivity(m.now().UTC(), m.idle, m.maxAge) {
		return nil
	}
	return m.store.Save(s)
}

// Check returns the active session, or evicts it and returns
// ErrSessionExpired when either limit has been reached.
func (m *Manager) Check() (*models.AdminSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotLoggedIn
	}
	if s.IsExpired(m.now().UTC(), m.maxAge) {
		if err := m.store.Clear(); err != nil {
			return nil, fmt.Errorf("evict expired session: %w", err)
		}
		m.logger.Info("admin session expired", map[string]interface{}{
			"createdAt":    s.CreatedAt,
			"lastActiveAt": s.LastActiveAt,
		})
		return nil, ErrSessionExpired
	}
	return s, nil
}

// Token returns the secret of the active session.
func (m *Manager) Token() (string, error) {
	s, err := m.Check()
	if err != nil {
		return "", err
	}
	return s.Token, nil
}

func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Clear()
}

// Watch polls Check every PollInterval until ctx is done or the session
// ends. onExpired runs once if the session expired (not on logout).
func (m *Manager) Watch(ctx context.Context, onExpired func()) {
	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := m.Check()
			switch {
			case err == nil:
				continue
			case errors.Is(err, ErrSessionExpired):
				if onExpired != nil {
					onExpired()
				}
				return
			case errors.Is(err, ErrNotLoggedIn):
				return
			default:
				m.logger.Warn("session check failed", map[string]interface{}{"error": err})
			}
		}
	}
}
