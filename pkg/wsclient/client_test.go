package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServer runs fn for every upgraded connection and returns the ws:// URL.
func newServer(t *testing.T, fn func(conn *websocket.Conn)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		fn(conn)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readRequest(t *testing.T, conn *websocket.Conn) request {
	t.Helper()
	var req request
	_, b, err := conn.ReadMessage()
	if err != nil {
		return request{}
	}
	assert.NoError(t, json.Unmarshal(b, &req))
	return req
}

func reply(conn *websocket.Conn, resp Response) {
	b, _ := json.Marshal(resp)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

func dial(t *testing.T, url string, opts Options) *Client {
	t.Helper()
	c, err := Dial(context.Background(), url, opts)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCall_RoutesOutOfOrderResponses(t *testing.T) {
	gotA := make(chan struct{})
	url := newServer(t, func(conn *websocket.Conn) {
		a := readRequest(t, conn)
		close(gotA)
		b := readRequest(t, conn)

		reply(conn, Response{Action: b.Action, Status: statusSuccess, Data: json.RawMessage(`"from B"`), CorrelationID: b.CorrelationID})
		reply(conn, Response{Action: a.Action, Status: statusSuccess, Data: json.RawMessage(`"from A"`), CorrelationID: a.CorrelationID})

		readRequest(t, conn)
	})
	c := dial(t, url, Options{})

	type result struct {
		name string
		data string
	}
	results := make(chan result, 2)

	go func() {
		data, err := c.Call(context.Background(), "getInventory", nil)
		assert.NoError(t, err)
		results <- result{"A", string(data)}
	}()
	<-gotA
	go func() {
		data, err := c.Call(context.Background(), "getCustomers", nil)
		assert.NoError(t, err)
		results <- result{"B", string(data)}
	}()

	got := map[string]string{}
	for i := 0; i < 2; i++ {
		r := <-results
		got[r.name] = r.data
	}
	assert.Equal(t, map[string]string{"A": `"from A"`, "B": `"from B"`}, got)
	assert.Equal(t, 0, c.Pending())
}

func TestCall_TimesOut(t *testing.T) {
	url := newServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	c := dial(t, url, Options{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := c.Call(context.Background(), "getInventory", nil)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, 0, c.Pending())
}

func TestCall_ContextCancel(t *testing.T) {
	url := newServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	c := dial(t, url, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Call(ctx, "getInventory", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, c.Pending())
}

func TestCall_ServerError(t *testing.T) {
	url := newServer(t, func(conn *websocket.Conn) {
		req := readRequest(t, conn)
		reply(conn, Response{Action: req.Action, Status: "error", Error: "item not found", CorrelationID: req.CorrelationID})
		readRequest(t, conn)
	})
	c := dial(t, url, Options{})

	_, err := c.Call(context.Background(), "updateInventoryQuantity", map[string]any{"ItemName": "x"})
	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, "item not found", respErr.Message)
	assert.False(t, errors.Is(err, ErrSessionExpired))
}

func TestLogin_StoresSessionAndSendsIt(t *testing.T) {
	seen := make(chan request, 3)
	url := newServer(t, func(conn *websocket.Conn) {
		login := readRequest(t, conn)
		seen <- login
		reply(conn, Response{
			Action:        "login",
			Status:        statusSuccess,
			Data:          json.RawMessage(`{"user":{"id":1,"username":"admin","role":"admin"},"token":"t1","sessionId":"s-1"}`),
			CorrelationID: login.CorrelationID,
		})

		call := readRequest(t, conn)
		seen <- call
		reply(conn, Response{Action: call.Action, Status: statusSuccess, Data: json.RawMessage(`[]`), CorrelationID: call.CorrelationID})

		resume := readRequest(t, conn)
		seen <- resume
		reply(conn, Response{Action: resume.Action, Status: statusSuccess, Data: json.RawMessage(`{"token":"t2"}`), CorrelationID: resume.CorrelationID})

		readRequest(t, conn)
	})

	store := NewMemorySessionStore()
	c := dial(t, url, Options{SessionStore: store})

	res, err := c.Login(context.Background(), "admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, "s-1", res.SessionID)
	assert.Equal(t, "admin", res.User.Username)
	stored, _ := store.Load()
	assert.Equal(t, "s-1", stored)

	_, err = c.Call(context.Background(), "getInventory", nil)
	require.NoError(t, err)

	resumed, err := c.ResumeSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t2", resumed.Token)

	login := <-seen
	assert.Empty(t, login.SessionID)
	call := <-seen
	assert.Equal(t, "s-1", call.SessionID)
	resume := <-seen
	assert.Equal(t, "resumeSession", resume.Action)
	assert.Equal(t, "s-1", resume.SessionID)
}

func TestResumeSession_WithoutSession(t *testing.T) {
	url := newServer(t, func(conn *websocket.Conn) { readRequest(t, conn) })
	c := dial(t, url, Options{})

	_, err := c.ResumeSession(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestResumeSession_ExpiredClearsStore(t *testing.T) {
	url := newServer(t, func(conn *websocket.Conn) {
		req := readRequest(t, conn)
		reply(conn, Response{Action: req.Action, Status: "error", Error: "session expired", CorrelationID: req.CorrelationID})
		readRequest(t, conn)
	})

	store := NewMemorySessionStore()
	require.NoError(t, store.Save("old"))
	c := dial(t, url, Options{SessionStore: store})
	assert.Equal(t, "old", c.SessionID())

	_, err := c.ResumeSession(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, c.SessionID())
	stored, _ := store.Load()
	assert.Empty(t, stored)
}

func TestSessionExpiredPushFailsPending(t *testing.T) {
	url := newServer(t, func(conn *websocket.Conn) {
		readRequest(t, conn)
		reply(conn, Response{Action: "sessionExpired", Status: "error", Error: "session expired"})
	})

	var notified atomic.Int32
	store := NewMemorySessionStore()
	require.NoError(t, store.Save("s-9"))
	c := dial(t, url, Options{SessionStore: store, OnSessionExpired: func() { notified.Add(1) }})

	_, err := c.Call(context.Background(), "getInventory", nil)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(1), notified.Load())
	assert.Empty(t, c.SessionID())

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not observe the close")
	}

	_, err = c.Call(context.Background(), "getInventory", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFileSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileSessionStore(path)

	id, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, store.Save("abc123"))
	id, err = NewFileSessionStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	id, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, id)
}
