// Package session holds the process-wide table of socket sessions and the
// background sweeper that evicts them.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
)

const (
	DefaultIDBytes            = 32
	DefaultTombstoneRetention = time.Hour
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrRegistryClosed  = errors.New("session registry closed")
)

// TokenIssuer mints the replacement token on resume.
type TokenIssuer interface {
	Issue(p domain.Principal) (*domain.IssuedToken, error)
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithIDBytes(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.idBytes = n
		}
	}
}

// WithTombstoneRetention sets how long an evicted id keeps answering
// ErrSessionExpired on resume before it degrades to ErrSessionNotFound.
func WithTombstoneRetention(d time.Duration) Option {
	return func(r *Registry) { r.retention = d }
}

// Registry owns every Session. It is the only mutable state shared between
// the socket handlers and the sweeper; all access goes through its methods.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*domain.Session
	evicted   map[string]time.Time
	issuer    TokenIssuer
	now       func() time.Time
	idBytes   int
	retention time.Duration
	closed    bool
}

func NewRegistry(issuer TokenIssuer, opts ...Option) *Registry {
	r := &Registry{
		sessions:  make(map[string]*domain.Session),
		evicted:   make(map[string]time.Time),
		issuer:    issuer,
		now:       time.Now,
		idBytes:   DefaultIDBytes,
		retention: DefaultTombstoneRetention,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) newID() (string, error) {
	buf := make([]byte, r.idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Create stores a session for p bound to tok and returns its new id.
func (r *Registry) Create(p domain.Principal, tok *domain.IssuedToken) (string, error) {
	if tok == nil || tok.Value == "" {
		return "", errors.New("session requires a token")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", ErrRegistryClosed
	}

	var id string
	for {
		candidate, err := r.newID()
		if err != nil {
			return "", err
		}
		if _, taken := r.sessions[candidate]; !taken {
			id = candidate
			break
		}
	}

	r.sessions[id] = &domain.Session{
		ID:        id,
		Principal: p,
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt,
		CreatedAt: r.now(),
	}
	delete(r.evicted, id)

	return id, nil
}

// Resume mints a fresh token for a live session and replaces the stored token
// and expiry together. An expired session is evicted and reported as
// ErrSessionExpired.
func (r *Registry) Resume(id string) (*domain.IssuedToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRegistryClosed
	}

	s, ok := r.sessions[id]
	if !ok {
		if _, gone := r.evicted[id]; gone {
			return nil, ErrSessionExpired
		}
		return nil, ErrSessionNotFound
	}

	now := r.now()
	if !now.Before(s.ExpiresAt) {
		r.evictLocked(id, now)
		return nil, ErrSessionExpired
	}

	tok, err := r.issuer.Issue(s.Principal)
	if err != nil {
		return nil, fmt.Errorf("failed to reissue token: %w", err)
	}

	s.Token = tok.Value
	s.ExpiresAt = tok.ExpiresAt

	return tok, nil
}

// Resolve returns the session's current token without reissuing it.
func (r *Registry) Resolve(id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", ErrRegistryClosed
	}

	s, ok := r.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}

	now := r.now()
	if !now.Before(s.ExpiresAt) {
		r.evictLocked(id, now)
		return "", ErrSessionExpired
	}

	return s.Token, nil
}

// Expire removes the session unconditionally. Removing an unknown id is a no-op.
func (r *Registry) Expire(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	delete(r.evicted, id)
}

// Evict removes a live session and remembers it as expired, so a later
// Resume reports ErrSessionExpired. An id that is already evicted keeps its
// tombstone; an unknown id stays unknown.
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		r.evictLocked(id, r.now())
	}
}

// Sweep evicts every session whose expiry is before now and returns their
// ids so bound connections can be told.
func (r *Registry) Sweep(now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []string
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(now) {
			r.evictLocked(id, now)
			expired = append(expired, id)
		}
	}

	for id, at := range r.evicted {
		if now.Sub(at) > r.retention {
			delete(r.evicted, id)
		}
	}

	return expired
}

func (r *Registry) evictLocked(id string, at time.Time) {
	delete(r.sessions, id)
	r.evicted[id] = at
}

// Lookup returns a copy of the session record.
func (r *Registry) Lookup(id string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	return *s, true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Now exposes the registry clock so the sweeper ticks on the same time source.
func (r *Registry) Now() time.Time {
	return r.now()
}

// Close drops every session. Later calls fail with ErrRegistryClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.sessions = make(map[string]*domain.Session)
	r.evicted = make(map[string]time.Time)
}
