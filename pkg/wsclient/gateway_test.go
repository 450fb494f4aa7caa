package wsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository/memory"
	"github.com/KrishnaRLolage/GoldShopManager/internal/service"
	"github.com/KrishnaRLolage/GoldShopManager/internal/session"
	"github.com/KrishnaRLolage/GoldShopManager/internal/socket"
	"github.com/KrishnaRLolage/GoldShopManager/internal/testutil"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/hash"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/jwt"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/validator"
)

// newGatewayServer serves the real socket gateway over a memory store.
func newGatewayServer(t *testing.T) (string, *session.Registry) {
	t.Helper()

	store := memory.NewStore()
	testutil.SeedUser(t, store.Users(), "admin", "s3cret-pass", domain.UserRoleAdmin)

	tokens, err := jwt.NewTokenService([]byte(testutil.TestSecret), 5*time.Minute, "goldshop")
	require.NoError(t, err)

	v := validator.NewValidator()
	auth := service.NewAuthService(store.Users(), hash.NewArgon2Hasher(testutil.FastArgon2), tokens, nil)
	registry := session.NewRegistry(tokens)
	dispatcher := service.NewDispatcher(service.Services{
		Inventory:    service.NewInventoryService(store.Inventory()),
		Customers:    service.NewCustomerService(store.Customers()),
		Invoices:     service.NewInvoiceService(store.Invoices(), store.PDFs()),
		GoldSettings: service.NewGoldSettingsService(store.GoldSettings()),
	}, v, nil)
	gw := socket.NewGateway(auth, registry, dispatcher, v)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		gw.Serve(context.Background(), conn)
	}))
	t.Cleanup(func() {
		gw.CloseAll()
		srv.Close()
		registry.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http"), registry
}

func TestClient_AgainstGateway(t *testing.T) {
	url, registry := newGatewayServer(t)
	ctx := context.Background()

	c := dial(t, url, Options{})

	res, err := c.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, 1, registry.Len())

	data, err := c.Call(ctx, service.ActionAddInventory, map[string]any{
		"ItemName":       "Ring",
		"Quantity":       2,
		"WeightPerPiece": 3.5,
	})
	require.NoError(t, err)
	var added struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &added))
	assert.NotZero(t, added.ID)

	resumed, err := c.ResumeSession(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, resumed.Token)

	require.NoError(t, c.Logout(ctx))
	assert.Equal(t, 0, registry.Len())

	_, err = c.Call(ctx, service.ActionGetInventory, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("gateway did not close the socket")
	}
}

func TestClient_ResumeOnDialForgetsUnknownSession(t *testing.T) {
	url, _ := newGatewayServer(t)

	store := NewMemorySessionStore()
	require.NoError(t, store.Save("stale"))

	c := dial(t, url, Options{SessionStore: store, ResumeOnDial: true})
	assert.Empty(t, c.SessionID())
	stored, _ := store.Load()
	assert.Empty(t, stored)
}
