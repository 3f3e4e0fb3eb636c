package server

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/watchfire-io/nearby/internal/engine"
	"github.com/watchfire-io/nearby/internal/presence"
	"github.com/watchfire-io/nearby/internal/surface"
)

type fakeSurface struct {
	mu        sync.Mutex
	name      string
	presented []presence.State
}

func (f *fakeSurface) Name() string { return f.name }

func (f *fakeSurface) Open() error { return nil }

func (f *fakeSurface) Present(s presence.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presented = append(f.presented, s)
	return nil
}

func (f *fakeSurface) Close() error { return nil }

func (f *fakeSurface) last() presence.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.presented) == 0 {
		return presence.State{}
	}
	return f.presented[len(f.presented)-1]
}

type fakePermission struct {
	granted atomic.Bool
	pending atomic.Bool
}

func (p *fakePermission) Granted() bool { return p.granted.Load() }

func (p *fakePermission) Pending() bool { return p.pending.Load() }

func (p *fakePermission) Request(context.Context) (bool, error) { return p.granted.Load(), nil }

type fixture struct {
	notification *fakeSurface
	overlay      *fakeSurface
	permission   *fakePermission
	engine       *engine.Engine
	dispatcher   *engine.Dispatcher
	server       *Server
	client       *Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		notification: &fakeSurface{name: surface.NameNotification},
		overlay:      &fakeSurface{name: surface.NameOverlay},
		permission:   &fakePermission{},
	}
	f.engine = engine.New(f.notification, f.overlay)
	f.dispatcher = engine.NewDispatcher(f.engine, f.permission)

	lis := bufconn.Listen(1 << 20)
	f.server = NewWithListener(lis, f.dispatcher, f.permission)
	go func() { _ = f.server.Serve() }()
	t.Cleanup(f.server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	f.client = NewClient(conn)
	return f
}

func TestStartNotificationOverGRPC(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.client.StartNotification(ctx, map[string]any{
		"selfName":       "Ana",
		"selfActivity":   "Typing",
		"connectedCount": 2,
		"users": []any{
			map[string]any{"name": "Bo", "activity": "Browsing"},
		},
	})
	require.NoError(t, err)

	got := f.notification.last()
	assert.Equal(t, "Ana", got.SelfName)
	assert.Equal(t, 2, got.ConnectedCount)
	require.Len(t, got.Peers, 1)
	assert.Equal(t, "Bo", got.Peers[0].Name)

	st, err := f.client.Status(ctx)
	require.NoError(t, err)
	surfaces, ok := st["surfaces"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "visible", surfaces[surface.NameNotification])
	assert.Equal(t, "hidden", surfaces[surface.NameOverlay])
	assert.Equal(t, float64(2), st["connectedCount"])
}

func TestShowOverlayRequiresPermission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shown, err := f.client.ShowOverlay(ctx, map[string]any{"selfName": "Ana"})
	require.NoError(t, err)
	assert.False(t, shown)
	assert.Equal(t, engine.Hidden, f.engine.State(surface.NameOverlay))

	f.permission.granted.Store(true)
	granted, err := f.client.CheckOverlayPermission(ctx)
	require.NoError(t, err)
	assert.True(t, granted)

	shown, err = f.client.ShowOverlay(ctx, map[string]any{"selfName": "Ana"})
	require.NoError(t, err)
	assert.True(t, shown)
	assert.Equal(t, engine.Visible, f.engine.State(surface.NameOverlay))

	require.NoError(t, f.client.HideOverlay(ctx))
	assert.Equal(t, engine.Hidden, f.engine.State(surface.NameOverlay))
}

func TestCallDispatchesByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.client.Call(ctx, engine.MethodStartOrUpdateNotification, map[string]any{"selfName": "Cy"})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "Cy", f.notification.last().SelfName)

	result, err = f.client.Call(ctx, engine.MethodCheckOverlayPermission, nil)
	require.NoError(t, err)
	assert.Equal(t, false, result)
}

func TestCallUnknownMethodIsUnimplemented(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.Call(context.Background(), "launchRockets", nil)
	require.Error(t, err)
	assert.Equal(t, codes.Unimplemented, status.Code(err))

	// No surface was touched.
	assert.Equal(t, engine.Hidden, f.engine.State(surface.NameNotification))
	assert.Equal(t, engine.Hidden, f.engine.State(surface.NameOverlay))
}

func TestCallWithoutMethod(t *testing.T) {
	f := newFixture(t)

	in, err := structpb.NewStruct(map[string]any{"arguments": map[string]any{}})
	require.NoError(t, err)
	out := new(structpb.Value)
	err = f.client.conn.Invoke(context.Background(), methodPath("Call"), in, out)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestApplyPresenceUpdatesBothSurfaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.permission.granted.Store(true)

	require.NoError(t, f.client.StartNotification(ctx, map[string]any{"selfName": "Ana"}))
	shown, err := f.client.ShowOverlay(ctx, map[string]any{"selfName": "Ana"})
	require.NoError(t, err)
	require.True(t, shown)

	require.NoError(t, f.client.ApplyPresence(ctx, map[string]any{
		"selfName":       "Ana",
		"selfActivity":   "Viewing Page",
		"connectedCount": 4,
	}))

	for _, s := range []*fakeSurface{f.notification, f.overlay} {
		got := s.last()
		assert.Equal(t, "Viewing Page", got.SelfActivity, s.name)
		assert.Equal(t, 4, got.ConnectedCount, s.name)
	}
}

func TestStatusReportsOverlayRequest(t *testing.T) {
	tests := []struct {
		name    string
		granted bool
		pending bool
	}{
		{name: "idle"},
		{name: "waiting for the user", pending: true},
		{name: "granted", granted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.permission.granted.Store(tt.granted)
			f.permission.pending.Store(tt.pending)

			st, err := f.client.Status(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.granted, st["overlayPermission"])
			assert.Equal(t, tt.pending, st["overlayRequested"])
		})
	}
}
