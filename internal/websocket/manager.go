// Package websocket manages the live-update connections between the
// preview server and its browser clients. A central hub goroutine owns the
// client set; navigation updates are broadcast to every client, and
// incoming interaction messages are routed to the navigation controller.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/panekit/panekit/internal/logging"
	"github.com/panekit/panekit/internal/nav"
)

// Manager handles WebSocket connection lifecycle and broadcasting.
//
// Invariants:
// - clients map access always protected by clientsMutex
// - channels remain open until Shutdown() is called
// - isShutdown transitions from false to true exactly once
type Manager struct {
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *websocket.Conn

	originValidator OriginValidator
	navigator       Navigator
	logger          logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	isShutdown   atomic.Bool
}

// NewManager creates a WebSocket manager and starts its hub goroutine.
// The origin validator is required; connections with a disallowed Origin
// header are refused before the protocol upgrade.
func NewManager(originValidator OriginValidator, navigator Navigator, logger logging.Logger) *Manager {
	if originValidator == nil {
		panic("websocket.Manager: originValidator cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		clients:         make(map[*websocket.Conn]*Client),
		broadcast:       make(chan []byte, 256),
		register:        make(chan *Client, 32),
		unregister:      make(chan *websocket.Conn, 32),
		originValidator: originValidator,
		navigator:       navigator,
		logger:          logger.WithComponent("websocket"),
	}
	m.ctx = ctx
	m.cancel = cancel

	go m.runHub()

	return m
}

// Publish implements nav.Sink: controller updates are broadcast to every
// connected client as JSON.
func (m *Manager) Publish(update nav.Update) {
	data, err := json.Marshal(update)
	if err != nil {
		m.logger.Error(m.ctx, err, "failed to marshal update")
		return
	}

	select {
	case m.broadcast <- data:
	case <-m.ctx.Done():
	default:
		m.logger.Warn(m.ctx, nil, "broadcast channel full, dropping update")
	}
}

// HandleWebSocket upgrades the request and manages the client lifecycle.
func (m *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if m.isShutdown.Load() {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	origin := r.Header.Get("Origin")
	if origin != "" && !m.originValidator.IsAllowedOrigin(origin) {
		m.logger.Warn(r.Context(), nil, "connection rejected: invalid origin", "origin", origin)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"}, // validated above
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		m.logger.Warn(r.Context(), err, "upgrade failed", "remote", r.RemoteAddr)
		return
	}

	client := &Client{
		id:           uuid.NewString(),
		conn:         conn,
		send:         make(chan []byte, 256),
		lastActivity: time.Now(),
	}

	select {
	case m.register <- client:
	case <-m.ctx.Done():
		conn.Close(websocket.StatusServiceRestart, "server shutting down")
		return
	default:
		conn.Close(websocket.StatusTryAgainLater, "server busy")
		return
	}

	go m.handleClient(client)

	m.logger.Info(r.Context(), "client connected", "client", client.id, "remote", r.RemoteAddr)
}

// runHub manages client connections and broadcasting.
func (m *Manager) runHub() {
	for {
		select {
		case client := <-m.register:
			m.registerClient(client)

		case conn := <-m.unregister:
			m.unregisterClient(conn)

		case message := <-m.broadcast:
			m.broadcastToClients(message)

		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	m.clients[client.conn] = client
	total := len(m.clients)
	m.clientsMutex.Unlock()

	m.logger.Debug(m.ctx, "client registered", "client", client.id, "total", total)

	// A fresh client starts from the current activation snapshot.
	if m.navigator != nil {
		m.sendSnapshot(client)
	}
}

func (m *Manager) sendSnapshot(client *Client) {
	update := nav.Update{
		Type:      "snapshot",
		Snapshot:  m.navigator.Snapshot(),
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(update)
	if err != nil {
		m.logger.Error(m.ctx, err, "failed to marshal snapshot")
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func (m *Manager) unregisterClient(conn *websocket.Conn) {
	m.clientsMutex.Lock()
	client, exists := m.clients[conn]
	if exists {
		delete(m.clients, conn)
		close(client.send)
	}
	total := len(m.clients)
	m.clientsMutex.Unlock()

	if exists {
		conn.Close(websocket.StatusNormalClosure, "")
		m.logger.Debug(m.ctx, "client disconnected", "client", client.id, "total", total)
	}
}

func (m *Manager) broadcastToClients(message []byte) {
	m.clientsMutex.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.clientsMutex.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			// Client send buffer is full, unregister it
			go func(c *Client) {
				m.unregister <- c.conn
			}(client)
		}
	}
}

// handleClient manages the lifecycle of one client connection.
func (m *Manager) handleClient(client *Client) {
	defer func() {
		m.unregister <- client.conn
	}()

	go m.writeToClient(client)
	m.readFromClient(client)
}

func (m *Manager) readFromClient(client *Client) {
	defer client.conn.Close(websocket.StatusNormalClosure, "")

	for {
		ctx, cancel := context.WithTimeout(m.ctx, 60*time.Second)
		_, message, err := client.conn.Read(ctx)
		cancel()

		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				m.logger.Debug(m.ctx, "read ended", "client", client.id, "reason", err.Error())
			}
			return
		}

		client.lastActivity = time.Now()
		m.processClientMessage(client, message)
	}
}

func (m *Manager) writeToClient(client *Client) {
	ticker := time.NewTicker(54 * time.Second) // Ping interval
	defer ticker.Stop()
	defer client.conn.Close(websocket.StatusNormalClosure, "")

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}

			ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
			err := client.conn.Write(ctx, websocket.MessageText, message)
			cancel()

			if err != nil {
				m.logger.Debug(m.ctx, "write failed", "client", client.id, "reason", err.Error())
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
			err := client.conn.Ping(ctx)
			cancel()

			if err != nil {
				return
			}

		case <-m.ctx.Done():
			return
		}
	}
}

// processClientMessage routes an incoming message to the navigation
// controller. Malformed messages are logged and dropped; the connection
// stays up.
func (m *Manager) processClientMessage(client *Client, message []byte) {
	if m.navigator == nil {
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		m.logger.Debug(m.ctx, "malformed client message", "client", client.id, "reason", err.Error())
		return
	}

	switch msg.Type {
	case "interaction":
		if msg.Interaction == nil {
			return
		}
		if !m.navigator.HandleInteraction(m.ctx, *msg.Interaction) {
			m.logger.Debug(m.ctx, "interaction not applied",
				"client", client.id,
				"action", msg.Interaction.Action,
				"target", msg.Interaction.Target)
		}
	case "resync":
		m.navigator.Resync()
	default:
		m.logger.Debug(m.ctx, "unknown client message type", "client", client.id, "type", msg.Type)
	}
}

// ConnectedClients returns the number of connected clients.
func (m *Manager) ConnectedClients() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.clients)
}

// Shutdown gracefully closes every connection and stops the hub.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownOnce.Do(func() {
		m.isShutdown.Store(true)
		m.cancel()

		m.clientsMutex.Lock()
		for conn, client := range m.clients {
			close(client.send)
			conn.Close(websocket.StatusNormalClosure, "server shutdown")
		}
		m.clients = make(map[*websocket.Conn]*Client)
		m.clientsMutex.Unlock()

		m.logger.Info(ctx, "websocket manager shut down")
	})

	return nil
}

// IsShutdown reports whether the manager has been shut down.
func (m *Manager) IsShutdown() bool {
	return m.isShutdown.Load()
}
