package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Conn is the slice of the websocket connection the hub drives. The concrete
// type in production is *websocket.Conn.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetPongHandler(h func(appData string) error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// ClientConnection wraps a WebSocket connection with metadata. WriteMux
// serializes writes: the snapshot pusher and the reader's replies share one
// connection, and every write on it must go through WriteMessage or WriteJSON.
type ClientConnection struct {
	Conn       Conn
	Viewer     string
	LastPong   time.Time
	PingTicker *time.Ticker
	CloseChan  chan struct{}
	WriteMux   sync.Mutex
}

// Hub manages all active WebSocket connections, one per signed-in viewer.
// A second connection for the same viewer replaces the first.
type Hub struct {
	clients      map[string]*ClientConnection
	clientsMux   sync.RWMutex
	pingInterval time.Duration
	pongTimeout  time.Duration
}

func NewHub() *Hub {
	hub := &Hub{
		clients:      make(map[string]*ClientConnection),
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
	}

	go hub.connectionHealthChecker()

	return hub
}

// Register adds a client connection with health monitoring.
func (h *Hub) Register(viewer string, conn Conn) *ClientConnection {
	clientConn := &ClientConnection{
		Conn:       conn,
		Viewer:     viewer,
		LastPong:   time.Now(),
		PingTicker: time.NewTicker(h.pingInterval),
		CloseChan:  make(chan struct{}),
	}

	conn.SetPongHandler(func(appData string) error {
		h.clientsMux.Lock()
		if client, exists := h.clients[viewer]; exists && client.Conn == conn {
			client.LastPong = time.Now()
		}
		h.clientsMux.Unlock()
		conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.clientsMux.Lock()
	if previous, exists := h.clients[viewer]; exists {
		previous.PingTicker.Stop()
		close(previous.CloseChan)
		previous.Conn.Close()
	}
	h.clients[viewer] = clientConn
	count := len(h.clients)
	h.clientsMux.Unlock()

	go h.pingRoutine(clientConn)

	log.Printf("level=info msg=\"ws connected\" viewer=%q total=%d", viewer, count)
	return clientConn
}

// Unregister removes a client connection. The connection is only dropped if
// it is still the one registered for the viewer.
func (h *Hub) Unregister(viewer string, conn Conn) {
	h.clientsMux.Lock()
	if client, exists := h.clients[viewer]; exists && client.Conn == conn {
		client.PingTicker.Stop()
		close(client.CloseChan)
		delete(h.clients, viewer)
	}
	count := len(h.clients)
	h.clientsMux.Unlock()
	log.Printf("level=info msg=\"ws disconnected\" viewer=%q total=%d", viewer, count)
}

// IsOnline checks if a viewer is connected.
func (h *Hub) IsOnline(viewer string) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	_, exists := h.clients[viewer]
	return exists
}

// Send writes one serialized message to the viewer's connection, if any.
func (h *Hub) Send(viewer string, msg Message) error {
	h.clientsMux.RLock()
	clientConn, exists := h.clients[viewer]
	h.clientsMux.RUnlock()
	if !exists {
		return nil
	}
	return clientConn.WriteMessage(msg)
}

// WriteMessage serializes msg and writes it on this connection.
func (c *ClientConnection) WriteMessage(msg Message) error {
	data, err := Serialize(msg)
	if err != nil {
		return err
	}
	c.WriteMux.Lock()
	defer c.WriteMux.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// WriteJSON writes v as a JSON text frame under the connection write lock.
// Reply paths in the reader loop use this so they never race the pusher.
func (c *ClientConnection) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.WriteMux.Lock()
	defer c.WriteMux.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) pingRoutine(client *ClientConnection) {
	for {
		select {
		case <-client.CloseChan:
			return
		case <-client.PingTicker.C:
			client.WriteMux.Lock()
			err := client.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			client.WriteMux.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// connectionHealthChecker drops connections whose pong went silent.
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-h.pongTimeout)

		h.clientsMux.Lock()
		for viewer, client := range h.clients {
			if client.LastPong.Before(cutoff) {
				log.Printf("level=warn msg=\"ws pong timeout\" viewer=%q", viewer)
				client.PingTicker.Stop()
				close(client.CloseChan)
				client.Conn.Close()
				delete(h.clients, viewer)
			}
		}
		h.clientsMux.Unlock()
	}
}
