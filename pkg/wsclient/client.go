// Package wsclient talks to the shop server's message transport. Many calls
// can be in flight on one socket; each is matched to its response by a
// correlation id held in a pending table.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	DefaultTimeout = 10 * time.Second

	actionLogin          = "login"
	actionResumeSession  = "resumeSession"
	actionLogout         = "logout"
	actionSessionExpired = "sessionExpired"

	statusSuccess = "success"
)

var (
	ErrTimeout        = errors.New("request timed out")
	ErrSessionExpired = errors.New("session expired")
	ErrClosed         = errors.New("connection closed")
	ErrNoSession      = errors.New("no stored session")
)

// ResponseError is an error status returned by the server for one call.
type ResponseError struct {
	Action  string
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// Unwrap lets callers test a failed resume with errors.Is(err, ErrSessionExpired).
func (e *ResponseError) Unwrap() error {
	if e.Message == ErrSessionExpired.Error() {
		return ErrSessionExpired
	}
	return nil
}

type request struct {
	Action        string          `json:"action"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Token         string          `json:"token,omitempty"`
	SessionID     string          `json:"sessionId,omitempty"`
	CorrelationID string          `json:"correlationId"`
}

// Response is one frame from the server.
type Response struct {
	Action        string          `json:"action"`
	Status        string          `json:"status"`
	Data          json.RawMessage `json:"data,omitempty"`
	Error         string          `json:"error,omitempty"`
	CorrelationID string          `json:"correlationId,omitempty"`
}

type outcome struct {
	resp Response
	err  error
}

type Options struct {
	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout time.Duration
	// SessionStore keeps the session id between runs. Nil means in memory.
	SessionStore SessionStore
	// OnSessionExpired runs after the server pushes sessionExpired.
	OnSessionExpired func()
	// ResumeOnDial resumes a stored session right after connecting.
	ResumeOnDial bool
	Dialer       *websocket.Dialer
	Header       http.Header
}

type Client struct {
	conn    *websocket.Conn
	timeout time.Duration
	store   SessionStore
	onExp   func()

	writeMu sync.Mutex

	mu        sync.Mutex
	pending   map[string]chan outcome
	sessionID string
	closed    bool

	done chan struct{}
}

type LoginResult struct {
	User struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
	Token     string    `json:"token"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ResumeResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Dial connects to url and starts the read loop.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, _, err := dialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	c := &Client{
		conn:    conn,
		timeout: opts.Timeout,
		store:   opts.SessionStore,
		onExp:   opts.OnSessionExpired,
		pending: make(map[string]chan outcome),
		done:    make(chan struct{}),
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.store == nil {
		c.store = NewMemorySessionStore()
	}

	stored, err := c.store.Load()
	if err != nil {
		log.Printf("[WSCLIENT] Ignoring unreadable session store: %v", err)
	}
	c.sessionID = stored

	go c.readLoop()

	if opts.ResumeOnDial && stored != "" {
		var respErr *ResponseError
		if _, err := c.ResumeSession(ctx); err != nil && !errors.As(err, &respErr) {
			c.Close()
			return nil, err
		}
	}

	return c, nil
}

// SessionID returns the session the client currently presents.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Pending reports how many calls are waiting for a response.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Call sends action with payload and waits for its response, ctx, or the
// request timeout. The current session id rides along on every call.
func (c *Client) Call(ctx context.Context, action string, payload any) (json.RawMessage, error) {
	return c.call(ctx, action, payload, c.SessionID())
}

func (c *Client) call(ctx context.Context, action string, payload any, sessionID string) (json.RawMessage, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", action, err)
		}
		raw = b
	}

	id := uuid.NewString()
	ch := make(chan outcome, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	frame, err := json.Marshal(request{
		Action:        action,
		Payload:       raw,
		SessionID:     sessionID,
		CorrelationID: id,
	})
	if err != nil {
		c.forget(id)
		return nil, err
	}

	if err := c.write(frame); err != nil {
		c.forget(id)
		return nil, fmt.Errorf("failed to send %s: %w", action, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		if out.err != nil {
			return nil, out.err
		}
		if out.resp.Status != statusSuccess {
			return nil, &ResponseError{Action: out.resp.Action, Message: out.resp.Error}
		}
		return out.resp.Data, nil
	case <-timer.C:
		c.forget(id)
		return nil, ErrTimeout
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

// Login authenticates and stores the returned session id.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	data, err := c.call(ctx, actionLogin, map[string]string{
		"username": username,
		"password": password,
	}, "")
	if err != nil {
		return nil, err
	}

	var res LoginResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}

	c.setSession(res.SessionID)
	return &res, nil
}

// ResumeSession renews the stored session. An expired session is forgotten.
func (c *Client) ResumeSession(ctx context.Context) (*ResumeResult, error) {
	sessionID := c.SessionID()
	if sessionID == "" {
		return nil, ErrNoSession
	}

	data, err := c.call(ctx, actionResumeSession, map[string]string{"sessionId": sessionID}, sessionID)
	if err != nil {
		var respErr *ResponseError
		if errors.As(err, &respErr) {
			c.setSession("")
		}
		return nil, err
	}

	var res ResumeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to decode resume response: %w", err)
	}
	return &res, nil
}

// Logout ends the server session and forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	sessionID := c.SessionID()
	if sessionID == "" {
		return nil
	}

	_, err := c.call(ctx, actionLogout, nil, sessionID)
	c.setSession("")
	return err
}

// Close ends the connection. Pending calls fail with ErrClosed.
func (c *Client) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.conn.Close()
}

func (c *Client) write(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) setSession(id string) {
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()

	var err error
	if id == "" {
		err = c.store.Clear()
	} else {
		err = c.store.Save(id)
	}
	if err != nil {
		log.Printf("[WSCLIENT] Failed to persist session: %v", err)
	}
}

func (c *Client) readLoop() {
	defer func() {
		c.failAll(ErrClosed, true)
		close(c.done)
	}()

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var resp Response
		if err := json.Unmarshal(frame, &resp); err != nil {
			log.Printf("[WSCLIENT] Dropping undecodable frame: %v", err)
			continue
		}

		if resp.Action == actionSessionExpired {
			c.setSession("")
			c.failAll(ErrSessionExpired, false)
			if c.onExp != nil {
				c.onExp()
			}
			continue
		}

		if resp.CorrelationID == "" {
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.CorrelationID]
		delete(c.pending, resp.CorrelationID)
		c.mu.Unlock()

		if ok {
			ch <- outcome{resp: resp}
		}
	}
}

// failAll resolves every pending call with err. With closing set, later
// calls fail immediately.
func (c *Client) failAll(err error, closing bool) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]chan outcome)
	if closing {
		c.closed = true
	}
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- outcome{err: err}
	}
}
