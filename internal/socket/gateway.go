// Package socket is the message transport: one JSON envelope per websocket
// frame, answered on the same socket with the request's correlation id.
package socket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/service"
	"github.com/KrishnaRLolage/GoldShopManager/internal/session"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/validator"
)

// Session lifecycle actions handled by the gateway itself.
const (
	ActionLogin          = "login"
	ActionResumeSession  = "resumeSession"
	ActionLogout         = "logout"
	ActionWelcome        = "welcome"
	ActionSessionExpired = "sessionExpired"
	ActionError          = "error"
)

const (
	msgInvalidJSON     = "invalid JSON"
	msgSessionExpired  = "session expired"
	msgSessionRequired = "sessionId is required"
	msgWelcome         = "Secure WebSocket connection established."
)

// Authenticator verifies credentials and tokens.
type Authenticator interface {
	Login(ctx context.Context, req service.LoginRequest) (*service.LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (*domain.Principal, error)
}

type resumeRequest struct {
	SessionID string `json:"sessionId"`
}

// DefaultMaxInFlight caps concurrently handled frames per socket.
const DefaultMaxInFlight = 16

type Option func(*Gateway)

// WithMaxInFlight sets how many frames one socket may have in progress. When
// the cap is reached the gateway stops reading from that socket until a
// handler finishes.
func WithMaxInFlight(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxInFlight = n
		}
	}
}

type Gateway struct {
	auth        Authenticator
	registry    *session.Registry
	dispatcher  *service.Dispatcher
	validator   *validator.Validator
	maxInFlight int

	mu    sync.Mutex
	conns map[*connection]struct{}
}

func NewGateway(
	auth Authenticator,
	registry *session.Registry,
	dispatcher *service.Dispatcher,
	validator *validator.Validator,
	opts ...Option,
) *Gateway {
	g := &Gateway{
		auth:        auth,
		registry:    registry,
		dispatcher:  dispatcher,
		validator:   validator,
		maxInFlight: DefaultMaxInFlight,
		conns:       make(map[*connection]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Serve runs the read loop for one socket until it closes. Every frame is
// handled on its own goroutine, up to the in-flight cap, so responses may
// leave in a different order than requests arrived. Serve returns after
// in-flight handlers finish.
func (g *Gateway) Serve(ctx context.Context, conn Conn) {
	c := newConnection(conn)
	g.track(c)
	defer func() {
		c.inflight.Wait()
		g.untrack(c)
		c.close()
	}()

	// Accepted work runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	c.send(domain.Response{Action: ActionWelcome, Status: domain.StatusSuccess, Data: msgWelcome})

	slots := make(chan struct{}, g.maxInFlight)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if !c.isClosed() {
				log.Printf("[SOCKET] Read ended: %v", err)
			}
			return
		}

		var req domain.Request
		if err := json.Unmarshal(frame, &req); err != nil {
			c.send(domain.Response{Action: ActionError, Status: domain.StatusError, Error: msgInvalidJSON})
			continue
		}

		slots <- struct{}{}
		c.inflight.Add(1)
		go func() {
			defer func() {
				<-slots
				c.inflight.Done()
			}()
			g.handle(ctx, c, req)
		}()
	}
}

func (g *Gateway) handle(ctx context.Context, c *connection, req domain.Request) {
	switch req.Action {
	case ActionLogin:
		g.login(ctx, c, req)
	case ActionResumeSession:
		g.resume(c, req)
	case ActionLogout:
		g.logout(c, req)
	default:
		g.dispatch(ctx, c, req)
	}
}

func (g *Gateway) login(ctx context.Context, c *connection, req domain.Request) {
	var body service.LoginRequest
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &body); err != nil {
			c.send(errorResponse(req, service.ErrInvalidPayload))
			return
		}
	}
	if err := g.validator.Validate(body); err != nil {
		c.send(errorResponse(req, err))
		return
	}

	resp, err := g.auth.Login(ctx, body)
	if err != nil {
		c.send(errorResponse(req, err))
		return
	}

	sessionID, err := g.registry.Create(resp.User, resp.Token)
	if err != nil {
		log.Printf("[SOCKET] Failed to create session for %s: %v", resp.User.Username, err)
		c.send(errorResponse(req, err))
		return
	}
	c.bind(sessionID)

	c.send(successResponse(req, map[string]any{
		"user":      resp.User,
		"token":     resp.Token.Value,
		"sessionId": sessionID,
		"expiresAt": resp.Token.ExpiresAt,
	}))
}

// resume takes the session id from the envelope, falling back to the payload.
func (g *Gateway) resume(c *connection, req domain.Request) {
	sessionID := req.SessionID
	if sessionID == "" && len(req.Payload) > 0 {
		var body resumeRequest
		if err := json.Unmarshal(req.Payload, &body); err == nil {
			sessionID = body.SessionID
		}
	}
	if sessionID == "" {
		c.send(errorResponse(req, errors.New(msgSessionRequired)))
		return
	}

	tok, err := g.registry.Resume(sessionID)
	if err != nil {
		c.send(errorResponse(req, err))
		return
	}
	c.bind(sessionID)

	c.send(successResponse(req, map[string]any{
		"token":     tok.Value,
		"expiresAt": tok.ExpiresAt,
	}))
}

func (g *Gateway) logout(c *connection, req domain.Request) {
	if req.SessionID != "" {
		g.registry.Expire(req.SessionID)
		c.unbind(req.SessionID)
	}
	c.send(successResponse(req, map[string]any{"message": "logged out"}))
}

func (g *Gateway) dispatch(ctx context.Context, c *connection, req domain.Request) {
	if !g.dispatcher.Known(req.Action) {
		c.send(domain.Response{
			Action:        ActionError,
			Status:        domain.StatusError,
			Error:         service.ErrUnknownAction.Error(),
			CorrelationID: req.CorrelationID,
		})
		return
	}

	principal, ok := g.resolve(ctx, c, req)
	if !ok {
		return
	}

	data, err := g.dispatcher.Dispatch(ctx, *principal, req.Action, req.Payload)
	if err != nil {
		c.send(errorResponse(req, err))
		return
	}

	c.send(successResponse(req, data))
}

// resolve finds the effective credential: the session's current token when a
// sessionId is given, the envelope token otherwise. On failure the socket is
// told its session expired and is closed.
func (g *Gateway) resolve(ctx context.Context, c *connection, req domain.Request) (*domain.Principal, bool) {
	token := req.Token
	if req.SessionID != "" {
		current, err := g.registry.Resolve(req.SessionID)
		if err != nil {
			g.expireAndClose(c, req)
			return nil, false
		}
		token = current
	}

	principal, err := g.auth.ValidateToken(ctx, token)
	if err != nil {
		g.expireAndClose(c, req)
		return nil, false
	}

	if req.SessionID != "" {
		c.bind(req.SessionID)
	}

	return principal, true
}

func (g *Gateway) expireAndClose(c *connection, req domain.Request) {
	if req.SessionID != "" {
		g.registry.Evict(req.SessionID)
	}

	c.send(domain.Response{
		Action:        ActionSessionExpired,
		Status:        domain.StatusError,
		Error:         msgSessionExpired,
		CorrelationID: req.CorrelationID,
	})
	c.close()
}

// SessionsExpired pushes sessionExpired to every socket bound to one of ids
// and closes it. The sweeper calls this after each eviction pass.
func (g *Gateway) SessionsExpired(ids []string) {
	expired := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		expired[id] = struct{}{}
	}

	for _, c := range g.snapshot() {
		if _, ok := expired[c.boundTo()]; !ok {
			continue
		}
		c.send(domain.Response{
			Action: ActionSessionExpired,
			Status: domain.StatusError,
			Error:  msgSessionExpired,
		})
		c.close()
	}
}

// CloseAll closes every open socket. Used on shutdown.
func (g *Gateway) CloseAll() {
	for _, c := range g.snapshot() {
		c.close()
	}
}

// Connections reports how many sockets are open.
func (g *Gateway) Connections() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.conns)
}

func (g *Gateway) track(c *connection) {
	g.mu.Lock()
	g.conns[c] = struct{}{}
	g.mu.Unlock()
}

func (g *Gateway) untrack(c *connection) {
	g.mu.Lock()
	delete(g.conns, c)
	g.mu.Unlock()
}

func (g *Gateway) snapshot() []*connection {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*connection, 0, len(g.conns))
	for c := range g.conns {
		out = append(out, c)
	}
	return out
}

func successResponse(req domain.Request, data any) domain.Response {
	return domain.Response{
		Action:        req.Action,
		Status:        domain.StatusSuccess,
		Data:          data,
		CorrelationID: req.CorrelationID,
	}
}

func errorResponse(req domain.Request, err error) domain.Response {
	return domain.Response{
		Action:        req.Action,
		Status:        domain.StatusError,
		Error:         err.Error(),
		CorrelationID: req.CorrelationID,
	}
}
