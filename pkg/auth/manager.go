package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stockfolio/stockfolio/pkg/util"
)

// UserStore persists registered users keyed by email. Lookups return
// (nil, nil) when no user exists.
type UserStore interface {
	GetUser(email string) (*User, error)
	PutUser(u *User) error
}

// SessionStore persists login sessions keyed by session ID. Lookups
// return (nil, nil) when no session exists.
type SessionStore interface {
	GetSession(sid string) (*Session, error)
	PutSession(s *Session) error
	DeleteSession(sid string) error
}

// Manager is the authentication collaborator: signup, credential checks,
// and session lifecycle. All state is injected at construction; there is
// no package-level session registry or ambient secret.
type Manager struct {
	users    UserStore
	sessions SessionStore
	ttl      time.Duration
	clock    util.Clock
}

// NewManager wires an auth manager to its stores. ttl bounds session
// lifetime (the cookie MaxAge mirrors it at the HTTP layer).
func NewManager(users UserStore, sessions SessionStore, ttl time.Duration) *Manager {
	return &Manager{users: users, sessions: sessions, ttl: ttl, clock: util.RealClock{}}
}

// NewManagerWithClock is used by tests that need to control expiry.
func NewManagerWithClock(users UserStore, sessions SessionStore, ttl time.Duration, clock util.Clock) *Manager {
	return &Manager{users: users, sessions: sessions, ttl: ttl, clock: clock}
}

// Signup registers a new user and immediately starts a session for it,
// matching the login-after-signup flow of the frontend.
func (m *Manager) Signup(name, email, password string) (*User, *Session, error) {
	if name == "" || email == "" || password == "" {
		return nil, nil, ErrMissingFields
	}

	existing, err := m.users.GetUser(email)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, nil, ErrEmailTaken
	}

	u := &User{Name: name, Email: email, CreatedAt: m.clock.Now().UnixMilli()}
	if err := u.SetPassword(password); err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}
	if err := m.users.PutUser(u); err != nil {
		return nil, nil, fmt.Errorf("save user: %w", err)
	}

	sess, err := m.startSession(u)
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

// Login verifies credentials and starts a session.
func (m *Manager) Login(email, password string) (*User, *Session, error) {
	u, err := m.users.GetUser(email)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, nil, ErrUserNotFound
	}
	if !u.CheckPassword(password) {
		return nil, nil, ErrBadCredentials
	}

	sess, err := m.startSession(u)
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

// Logout revokes a session. Revoking an unknown session is not an error.
func (m *Manager) Logout(sid string) error {
	if sid == "" {
		return nil
	}
	return m.sessions.DeleteSession(sid)
}

// Current resolves a session ID to its user. Expired or unknown
// sessions yield ErrNoSession.
func (m *Manager) Current(sid string) (*User, error) {
	if sid == "" {
		return nil, ErrNoSession
	}
	sess, err := m.sessions.GetSession(sid)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if sess == nil || sess.ExpiresAt <= m.clock.Now().UnixMilli() {
		return nil, ErrNoSession
	}
	u, err := m.users.GetUser(sess.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, ErrNoSession
	}
	return u, nil
}

// TTL returns the configured session lifetime (used for cookie MaxAge).
func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) startSession(u *User) (*Session, error) {
	now := m.clock.Now().UnixMilli()
	sess := &Session{
		ID:        uuid.NewString(),
		Email:     u.Email,
		CreatedAt: now,
		ExpiresAt: now + m.ttl.Milliseconds(),
	}
	if err := m.sessions.PutSession(sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}
