package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls PresenceService over an established connection.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func methodPath(name string) string {
	return "/" + ServiceName + "/" + name
}

func (c *Client) invoke(ctx context.Context, name string, in, out proto.Message) error {
	return c.conn.Invoke(ctx, methodPath(name), in, out)
}

func (c *Client) invokeStruct(ctx context.Context, name string, payload map[string]any, out proto.Message) error {
	in, err := structpb.NewStruct(payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return c.invoke(ctx, name, in, out)
}

// StartNotification shows the status notification.
func (c *Client) StartNotification(ctx context.Context, payload map[string]any) error {
	return c.invokeStruct(ctx, "StartNotification", payload, new(emptypb.Empty))
}

// UpdateNotification replaces the notification content.
func (c *Client) UpdateNotification(ctx context.Context, payload map[string]any) error {
	return c.invokeStruct(ctx, "UpdateNotification", payload, new(emptypb.Empty))
}

// StopNotification removes the notification.
func (c *Client) StopNotification(ctx context.Context) error {
	return c.invoke(ctx, "StopNotification", new(emptypb.Empty), new(emptypb.Empty))
}

// CheckOverlayPermission reports whether the overlay may be shown.
func (c *Client) CheckOverlayPermission(ctx context.Context) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.invoke(ctx, "CheckOverlayPermission", new(emptypb.Empty), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// RequestOverlayPermission asks the user for the overlay permission.
func (c *Client) RequestOverlayPermission(ctx context.Context) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.invoke(ctx, "RequestOverlayPermission", new(emptypb.Empty), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// ShowOverlay shows the overlay. It returns false without permission.
func (c *Client) ShowOverlay(ctx context.Context, payload map[string]any) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.invokeStruct(ctx, "ShowOverlay", payload, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// UpdateOverlay replaces the overlay content if it is showing.
func (c *Client) UpdateOverlay(ctx context.Context, payload map[string]any) error {
	return c.invokeStruct(ctx, "UpdateOverlay", payload, new(emptypb.Empty))
}

// HideOverlay removes the overlay.
func (c *Client) HideOverlay(ctx context.Context) error {
	return c.invoke(ctx, "HideOverlay", new(emptypb.Empty), new(emptypb.Empty))
}

// ApplyPresence pushes a snapshot to every visible surface without showing
// or hiding any.
func (c *Client) ApplyPresence(ctx context.Context, payload map[string]any) error {
	return c.invokeStruct(ctx, "ApplyPresence", payload, new(emptypb.Empty))
}

// Call dispatches a command by name and returns its result (nil or bool).
func (c *Client) Call(ctx context.Context, method string, args map[string]any) (any, error) {
	fields := map[string]any{"method": method}
	if args != nil {
		fields["arguments"] = args
	}
	out := new(structpb.Value)
	if err := c.invokeStruct(ctx, "Call", fields, out); err != nil {
		return nil, err
	}
	return out.AsInterface(), nil
}

// Status returns the daemon status.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "GetStatus", new(emptypb.Empty), out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.invoke(ctx, "Shutdown", new(emptypb.Empty), new(emptypb.Empty))
}
