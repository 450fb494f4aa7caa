package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository/memory"
	"github.com/KrishnaRLolage/GoldShopManager/internal/testutil"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/hash"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/jwt"
)

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: make(map[string]time.Time)}
}

func (f *fakeRevoker) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[token] = expiresAt
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[token]
	return ok, nil
}

func newTestAuth(t *testing.T, revoker TokenRevoker) (*AuthService, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	tokens, err := jwt.NewTokenService([]byte(testutil.TestSecret), 5*time.Minute, "goldshop")
	require.NoError(t, err)

	return NewAuthService(store.Users(), hash.NewArgon2Hasher(testutil.FastArgon2), tokens, revoker), store
}

func TestVerify(t *testing.T) {
	auth, store := newTestAuth(t, nil)
	user := testutil.SeedUser(t, store.Users(), "admin", "correct horse", domain.UserRoleAdmin)
	ctx := context.Background()

	p, err := auth.Verify(ctx, "admin", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{ID: user.ID, Username: "admin", Role: domain.UserRoleAdmin}, *p)

	_, err = auth.Verify(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Verify(ctx, "nobody", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Verify(ctx, "ADMIN", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "username match is exact")
}

func TestVerify_CorruptHashIsInvalidCredentials(t *testing.T) {
	auth, store := newTestAuth(t, nil)
	require.NoError(t, store.Users().Create(context.Background(), &domain.User{
		Username:     "legacy",
		PasswordHash: "plaintext",
		Role:         domain.UserRoleUser,
	}))

	_, err := auth.Verify(context.Background(), "legacy", "plaintext")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_IssuesValidToken(t *testing.T) {
	auth, store := newTestAuth(t, nil)
	testutil.SeedUser(t, store.Users(), "clerk", "pa55word", domain.UserRoleUser)
	ctx := context.Background()

	resp, err := auth.Login(ctx, LoginRequest{Username: "clerk", Password: "pa55word"})
	require.NoError(t, err)
	require.NotNil(t, resp.Token)

	p, err := auth.ValidateToken(ctx, resp.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, resp.User, *p)
}

func TestLogout_RevokesToken(t *testing.T) {
	revoker := newFakeRevoker()
	auth, store := newTestAuth(t, revoker)
	testutil.SeedUser(t, store.Users(), "clerk", "pa55word", domain.UserRoleUser)
	ctx := context.Background()

	resp, err := auth.Login(ctx, LoginRequest{Username: "clerk", Password: "pa55word"})
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, resp.Token.Value))
	assert.True(t, resp.Token.ExpiresAt.Equal(revoker.revoked[resp.Token.Value]))

	_, err = auth.ValidateToken(ctx, resp.Token.Value)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestLogout_WithoutRevokerIsNoop(t *testing.T) {
	auth, _ := newTestAuth(t, nil)
	assert.NoError(t, auth.Logout(context.Background(), "anything"))
}

func TestSetup_OnlyOnce(t *testing.T) {
	auth, _ := newTestAuth(t, nil)
	ctx := context.Background()

	p, err := auth.Setup(ctx, SetupRequest{Username: "owner", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleAdmin, p.Role)

	_, err = auth.Verify(ctx, "owner", "long-enough")
	require.NoError(t, err)

	_, err = auth.Setup(ctx, SetupRequest{Username: "second", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrSetupCompleted)
}

func TestSetup_ConcurrentCallsCreateOneAdmin(t *testing.T) {
	auth, store := newTestAuth(t, nil)
	ctx := context.Background()

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		completed int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := auth.Setup(ctx, SetupRequest{Username: fmt.Sprintf("admin%d", i), Password: "long-enough"})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrSetupCompleted):
				completed++
			default:
				t.Errorf("unexpected setup error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, callers-1, completed)

	n, err := store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
