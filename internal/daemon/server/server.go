// Package server implements the daemon's command transports: gRPC, and
// grpc-web plus WebSocket on an optional HTTP port.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/watchfire-io/nearby/internal/engine"
	"github.com/watchfire-io/nearby/internal/surface"
)

// Server is the daemon's gRPC server.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	port       int
	dispatcher *engine.Dispatcher
	permission engine.Permission
	startedAt  time.Time

	mu      sync.Mutex
	web     *http.Server
	webPort int
	gateway *Gateway
}

// New creates a new server listening on the specified port.
// Pass port 0 for dynamic allocation.
func New(port int, d *engine.Dispatcher, p engine.Permission) (*Server, error) {
	listener, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	return NewWithListener(listener, d, p), nil
}

// NewWithListener creates a server on an existing listener.
func NewWithListener(listener net.Listener, d *engine.Dispatcher, p engine.Permission) *Server {
	// Get actual port if dynamically allocated
	actualPort := 0
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		actualPort = addr.Port
	}

	srv := &Server{
		grpcServer: grpc.NewServer(),
		listener:   listener,
		port:       actualPort,
		dispatcher: d,
		permission: p,
		startedAt:  time.Now(),
		webPort:    -1,
	}

	RegisterPresenceServiceServer(srv.grpcServer, &presenceService{server: srv, dispatcher: d})
	return srv
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}

// WebPort returns the grpc-web/WebSocket port, or -1 when it is not serving.
func (s *Server) WebPort() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.webPort
}

// Serve starts serving requests. This blocks until Stop is called.
func (s *Server) Serve() error {
	return s.grpcServer.Serve(s.listener)
}

// ServeWeb starts the grpc-web and WebSocket gateway on port in the
// background and returns the bound port.
func (s *Server) ServeWeb(port int) (int, error) {
	listener, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return 0, fmt.Errorf("failed to listen for web clients: %w", err)
	}
	actualPort := listener.Addr().(*net.TCPAddr).Port

	gw := NewGateway(s.grpcServer, s.dispatcher)
	web := &http.Server{
		Handler:           gw,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.web = web
	s.webPort = actualPort
	s.gateway = gw
	s.mu.Unlock()

	go func() {
		if err := web.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[web] Server error: %v", err)
		}
	}()

	log.Printf("[web] grpc-web and WebSocket listening on port %d", actualPort)
	return actualPort, nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	s.mu.Lock()
	web, gw := s.web, s.gateway
	s.web, s.gateway = nil, nil
	s.webPort = -1
	s.mu.Unlock()

	if web != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = web.Shutdown(ctx)
		cancel()
	}
	if gw != nil {
		gw.CloseAll()
	}
	s.grpcServer.GracefulStop()
}

// Status reports the daemon and surface state for GetStatus.
func (s *Server) Status() map[string]any {
	e := s.dispatcher.Engine()
	current := e.Current()

	surfaces := make(map[string]any)
	for _, name := range e.Surfaces() {
		surfaces[name] = e.State(name).String()
	}

	webClients := 0
	s.mu.Lock()
	if s.gateway != nil {
		webClients = s.gateway.Clients()
	}
	s.mu.Unlock()

	pending := false
	if p, ok := s.permission.(interface{ Pending() bool }); ok {
		pending = p.Pending()
	}

	host, _ := os.Hostname()
	return map[string]any{
		"host":              host,
		"port":              s.port,
		"webPort":           s.WebPort(),
		"pid":               os.Getpid(),
		"startedAt":         s.startedAt.UTC().Format(time.RFC3339),
		"surfaces":          surfaces,
		"overlayPermission": s.permission != nil && s.permission.Granted(),
		"overlayRequested":  pending,
		"webClients":        webClients,
		"selfName":          current.SelfName,
		"selfActivity":      current.SelfActivity,
		"connectedCount":    current.ConnectedCount,
	}
}

// TrayHost adapts a Server to the tray.Host interface.
type TrayHost struct {
	srv     *Server
	onFront func()
	onGrant func(bool)
}

// NewTrayHost creates a TrayHost. onFront runs the notification's tap action;
// onGrant records an overlay permission change made from the menu.
func NewTrayHost(srv *Server, onFront func(), onGrant func(bool)) *TrayHost {
	return &TrayHost{srv: srv, onFront: onFront, onGrant: onGrant}
}

// Port returns the port the server is listening on.
func (t *TrayHost) Port() int {
	return t.srv.Port()
}

// BringToFront runs the tap action.
func (t *TrayHost) BringToFront() {
	if t.onFront != nil {
		t.onFront()
	}
}

// GrantOverlay records the user's overlay decision.
func (t *TrayHost) GrantOverlay(granted bool) {
	if t.onGrant != nil {
		t.onGrant(granted)
	}
	if !granted {
		// Revoking the grant removes a visible overlay.
		_ = t.srv.dispatcher.Engine().Hide(surface.NameOverlay)
	}
}

// RequestShutdown sends SIGINT to the current process to trigger a graceful shutdown.
func (t *TrayHost) RequestShutdown() {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	_ = p.Signal(syscall.SIGINT)
}
