package domain

import "encoding/json"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Request is an inbound message on the socket transport.
type Request struct {
	Action        string          `json:"action"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Token         string          `json:"token,omitempty"`
	SessionID     string          `json:"sessionId,omitempty"`
	CorrelationID string          `json:"correlationId,omitempty"`
}

// Response is the normalized result shape shared by both transports. On the
// socket transport it echoes the request's correlation id.
type Response struct {
	Action        string `json:"action,omitempty"`
	Status        string `json:"status"`
	Data          any    `json:"data,omitempty"`
	Error         string `json:"error,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}
