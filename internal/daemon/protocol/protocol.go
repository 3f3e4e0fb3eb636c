// Package protocol defines the JSON command frames shared by the WebSocket
// and Redis channels.
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/watchfire-io/nearby/internal/engine"
)

// ErrorNotImplemented is the error string for unknown methods.
const ErrorNotImplemented = "notImplemented"

// Handler executes commands. engine.Dispatcher implements it.
type Handler interface {
	Handle(ctx context.Context, method string, args map[string]any) (any, error)
}

// Request is an inbound command frame.
type Request struct {
	ID        string         `json:"id,omitempty"`
	Method    string         `json:"method"`
	Arguments map[string]any `json:"arguments,omitempty"`
	// ReplyTo names a Redis channel for the response. Ignored on WebSocket.
	ReplyTo string `json:"replyTo,omitempty"`
}

// Response answers one Request. Result is null for void commands.
type Response struct {
	ID     string `json:"id"`
	Result any    `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Decode parses a frame. Requests without an id are assigned one.
func Decode(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("invalid frame: %w", err)
	}
	if req.Method == "" {
		return req, errors.New("invalid frame: missing method")
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return req, nil
}

// DecodeSnapshot parses a frame like Decode, except that an object without a
// method is a bare presence snapshot and becomes an applyPresence request.
// Its id and replyTo keys are taken out of the snapshot.
func DecodeSnapshot(data []byte) (Request, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return Request{}, fmt.Errorf("invalid frame: %w", err)
	}
	if _, ok := fields["method"]; ok {
		return Decode(data)
	}

	req := Request{ID: uuid.NewString(), Method: engine.MethodApplyPresence}
	if id, ok := fields["id"].(string); ok && id != "" {
		req.ID = id
	}
	if replyTo, ok := fields["replyTo"].(string); ok {
		req.ReplyTo = replyTo
	}
	delete(fields, "id")
	delete(fields, "replyTo")
	if len(fields) == 0 {
		return req, errors.New("invalid frame: missing method")
	}
	req.Arguments = fields
	return req, nil
}

// Execute runs req against h and builds the reply.
func Execute(ctx context.Context, h Handler, req Request) Response {
	result, err := h.Handle(ctx, req.Method, req.Arguments)
	if err != nil {
		return Failure(req.ID, err)
	}
	return Response{ID: req.ID, Result: result}
}

// Failure builds an error reply.
func Failure(id string, err error) Response {
	if errors.Is(err, engine.ErrNotImplemented) {
		return Response{ID: id, Error: ErrorNotImplemented}
	}
	return Response{ID: id, Error: err.Error()}
}
