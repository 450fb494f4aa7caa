package session

import (
	"testing"
	"time"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/testutil"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ttl = 5 * time.Minute

var owner = domain.Principal{ID: 7, Username: "owner", Role: domain.UserRoleAdmin}

func newTestRegistry(t *testing.T) (*Registry, *jwt.TokenService, *testutil.ManualClock) {
	t.Helper()
	clock := testutil.NewManualClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	tokens, err := jwt.NewTokenService([]byte(testutil.TestSecret), ttl, "goldshop", jwt.WithClock(clock.Now))
	require.NoError(t, err)
	return NewRegistry(tokens, WithClock(clock.Now)), tokens, clock
}

func create(t *testing.T, r *Registry, tokens *jwt.TokenService) (string, *domain.IssuedToken) {
	t.Helper()
	tok, err := tokens.Issue(owner)
	require.NoError(t, err)
	id, err := r.Create(owner, tok)
	require.NoError(t, err)
	return id, tok
}

func TestCreate_UniqueFixedWidthIDs(t *testing.T) {
	r, tokens, _ := newTestRegistry(t)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id, _ := create(t, r, tokens)
		assert.Len(t, id, DefaultIDBytes*2)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Equal(t, 200, r.Len())
}

func TestCreate_RequiresToken(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, err := r.Create(owner, nil)
	assert.Error(t, err)
}

func TestResolve_ReturnsCreatedToken(t *testing.T) {
	r, tokens, _ := newTestRegistry(t)
	id, tok := create(t, r, tokens)

	got, err := r.Resolve(id)
	require.NoError(t, err)
	assert.Equal(t, tok.Value, got)

	s, ok := r.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, tok.ExpiresAt, s.ExpiresAt)
	assert.Equal(t, owner, s.Principal)
}

func TestResolve_Unknown(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, err := r.Resolve("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestResume_LiveSessionExtendsExpiry(t *testing.T) {
	r, tokens, clock := newTestRegistry(t)
	id, first := create(t, r, tokens)

	clock.Advance(2 * time.Minute)
	next, err := r.Resume(id)
	require.NoError(t, err)

	assert.True(t, next.ExpiresAt.After(first.ExpiresAt))
	assert.NotEqual(t, first.Value, next.Value)

	s, ok := r.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, next.ExpiresAt, s.ExpiresAt)
	assert.Equal(t, next.Value, s.Token)

	current, err := r.Resolve(id)
	require.NoError(t, err)
	assert.Equal(t, next.Value, current)

	p, err := tokens.Validate(current)
	require.NoError(t, err)
	assert.Equal(t, owner, *p)
}

func TestResume_ExpiredEvicts(t *testing.T) {
	r, tokens, clock := newTestRegistry(t)
	id, _ := create(t, r, tokens)

	clock.Advance(ttl)
	_, err := r.Resume(id)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = r.Resolve(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, r.Len())

	// The id keeps reporting expiry rather than not-found.
	_, err = r.Resume(id)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestResume_Unknown(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, err := r.Resume("never-issued")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestResolve_ExpiredEvicts(t *testing.T) {
	r, tokens, clock := newTestRegistry(t)
	id, _ := create(t, r, tokens)

	clock.Advance(ttl + time.Second)
	_, err := r.Resolve(id)
	assert.ErrorIs(t, err, ErrSessionExpired)
	_, err = r.Resolve(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExpire_Idempotent(t *testing.T) {
	r, tokens, _ := newTestRegistry(t)
	id, _ := create(t, r, tokens)

	r.Expire(id)
	r.Expire(id)
	r.Expire("unknown")

	_, err := r.Resolve(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = r.Resume(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSweep_RemovesExactlyExpired(t *testing.T) {
	r, tokens, clock := newTestRegistry(t)

	old1, _ := create(t, r, tokens)
	old2, _ := create(t, r, tokens)
	clock.Advance(3 * time.Minute)
	fresh, _ := create(t, r, tokens)

	// old sessions expire at +5m, fresh at +8m.
	expired := r.Sweep(clock.Now().Add(2*time.Minute + time.Second))
	assert.ElementsMatch(t, []string{old1, old2}, expired)

	_, err := r.Resolve(fresh)
	assert.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	_, err = r.Resume(old1)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSweep_BoundaryIsStrict(t *testing.T) {
	r, tokens, _ := newTestRegistry(t)
	id, tok := create(t, r, tokens)

	assert.Empty(t, r.Sweep(tok.ExpiresAt))
	assert.Equal(t, []string{id}, r.Sweep(tok.ExpiresAt.Add(time.Nanosecond)))
}

func TestSweep_PrunesTombstones(t *testing.T) {
	clock := testutil.NewManualClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	tokens, err := jwt.NewTokenService([]byte(testutil.TestSecret), ttl, "goldshop", jwt.WithClock(clock.Now))
	require.NoError(t, err)
	r := NewRegistry(tokens, WithClock(clock.Now), WithTombstoneRetention(time.Minute))

	id, _ := create(t, r, tokens)
	clock.Advance(ttl + time.Second)
	require.Len(t, r.Sweep(clock.Now()), 1)

	clock.Advance(2 * time.Minute)
	r.Sweep(clock.Now())

	_, err = r.Resume(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestClose(t *testing.T) {
	r, tokens, _ := newTestRegistry(t)
	id, tok := create(t, r, tokens)

	r.Close()
	_, err := r.Resolve(id)
	assert.ErrorIs(t, err, ErrRegistryClosed)
	_, err = r.Create(owner, tok)
	assert.ErrorIs(t, err, ErrRegistryClosed)
}

func TestEvict_KeepsTombstone(t *testing.T) {
	r, tokens, clock := newTestRegistry(t)
	id, _ := create(t, r, tokens)

	r.Evict(id)
	_, err := r.Resume(id)
	assert.ErrorIs(t, err, ErrSessionExpired)

	other, tok := create(t, r, tokens)
	clock.Advance(tok.ExpiresAt.Sub(clock.Now()) + time.Second)
	_, err = r.Resolve(other)
	require.ErrorIs(t, err, ErrSessionExpired)

	r.Evict(other)
	_, err = r.Resume(other)
	assert.ErrorIs(t, err, ErrSessionExpired)

	r.Evict("unknown")
	_, err = r.Resume("unknown")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
