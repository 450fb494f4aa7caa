// Package testutil holds fixtures shared by package tests. Not for production use.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/hash"
)

// TestSecret is a fixed HMAC secret for unit tests only.
const TestSecret = "test-secret-0123456789-abcdefghij-klmnop"

// ManualClock is a clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// FastArgon2 keeps password hashing cheap in tests.
var FastArgon2 = hash.Argon2Config{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// SeedUser stores a user with a hashed password and returns it.
func SeedUser(t *testing.T, repo repository.UserRepository, username, password string, role domain.UserRole) *domain.User {
	t.Helper()

	encoded, err := hash.NewArgon2Hasher(FastArgon2).Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: encoded,
		Name:         username,
		Role:         role,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}
