package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"go-pizzeria-management/metrics"
	"go-pizzeria-management/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Command is what a listener sends to scope its delivery.
type Command struct {
	Action string `json:"action"`
	Group  string `json:"group"`
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	userID string
	groups map[string]bool
}

// Hub tracks websocket listeners and their groups.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{clients: make(map[*client]struct{}), log: log}
}

func (h *Hub) Name() string { return "websocket" }

func (h *Hub) Send(_ context.Context, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	h.deliver(event.Group, data)
	return nil
}

func (h *Hub) deliver(group string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if group != "" && !c.groups[group] {
			continue
		}
		select {
		case c.send <- data:
		default:
			metrics.MessageDropped()
			h.log.WithField("user_id", c.userID).Debug("client queue full, message dropped")
		}
	}
}

// Count is the number of connected listeners.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func validGroup(group string) bool {
	switch group {
	case models.GroupPreparation, models.GroupExpedition, models.GroupDelivery:
		return true
	}
	return false
}

func (h *Hub) apply(c *client, cmd Command) {
	if !validGroup(cmd.Group) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	switch cmd.Action {
	case "join":
		c.groups[cmd.Group] = true
	case "leave":
		delete(c.groups, cmd.Group)
	}
}

// ServeWS upgrades the request and serves the connection until the listener
// goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrading connection: %w", err)
	}
	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		groups: make(map[string]bool),
	}
	h.register(c)
	h.log.WithField("user_id", userID).Info("websocket listener connected")

	go h.writePump(c)
	h.readPump(c)
	return nil
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.log.WithField("user_id", c.userID).Info("websocket listener disconnected")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}
		h.apply(c, cmd)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every listener.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
