package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/improbable-eng/grpc-web/go/grpcweb"
	"google.golang.org/grpc"

	"github.com/watchfire-io/nearby/internal/daemon/protocol"
)

const (
	wsPath         = "/ws"
	wsReadLimit    = 64 << 10
	wsWriteTimeout = 5 * time.Second
)

// Gateway serves browser clients: grpc-web requests go to the gRPC server,
// WebSocket connections on /ws exchange JSON command frames.
type Gateway struct {
	grpcWeb  *grpcweb.WrappedGrpcServer
	handler  protocol.Handler
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]string
}

// NewGateway wraps grpcServer and routes WebSocket frames to h.
func NewGateway(grpcServer *grpc.Server, h protocol.Handler) *Gateway {
	g := &Gateway{
		handler: h,
		clients: make(map[*websocket.Conn]string),
	}
	g.grpcWeb = grpcweb.WrapServer(grpcServer,
		grpcweb.WithOriginFunc(allowedOrigin),
		grpcweb.WithWebsockets(false),
	)
	g.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return allowedOrigin(r.Header.Get("Origin"))
		},
	}
	return g
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == wsPath:
		g.handleWS(w, r)
	case g.grpcWeb.IsGrpcWebRequest(r), g.grpcWeb.IsAcceptableGrpcCorsRequest(r):
		g.grpcWeb.ServeHTTP(w, r)
	default:
		http.NotFound(w, r)
	}
}

// allowedOrigin accepts non-browser clients and pages served from this host.
func allowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] Upgrade error: %v", err)
		return
	}
	conn.SetReadLimit(wsReadLimit)

	clientID := uuid.NewString()
	g.mu.Lock()
	g.clients[conn] = clientID
	g.mu.Unlock()
	log.Printf("[ws] Client %s connected: %s", clientID, r.RemoteAddr)

	go g.readLoop(conn, clientID)
}

// readLoop answers frames in order. It is the only writer on conn.
func (g *Gateway) readLoop(conn *websocket.Conn, clientID string) {
	defer func() {
		g.mu.Lock()
		delete(g.clients, conn)
		g.mu.Unlock()
		_ = conn.Close()
		log.Printf("[ws] Client %s disconnected", clientID)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var resp protocol.Response
		req, err := protocol.Decode(data)
		if err != nil {
			resp = protocol.Failure(req.ID, err)
		} else {
			resp = protocol.Execute(context.Background(), g.handler, req)
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("[ws] Write to %s failed: %v", clientID, err)
			return
		}
	}
}

// CloseAll disconnects every WebSocket client.
func (g *Gateway) CloseAll() {
	g.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(g.clients))
	for c := range g.clients {
		conns = append(conns, c)
	}
	g.mu.Unlock()

	for _, c := range conns {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "daemon stopping")
		_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = c.Close()
	}
}

// Clients returns the number of connected WebSocket clients.
func (g *Gateway) Clients() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}
