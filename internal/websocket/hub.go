package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/digitalghar/storefront/internal/app/model"
	"github.com/digitalghar/storefront/internal/session"
	"github.com/digitalghar/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	EventCartUpdated = "cart.updated"
	EventPong        = "pong"
)

// ClientMessage is what a browser tab may send.
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// CartEvent is pushed to every tab of a session after a committed cart change.
type CartEvent struct {
	Type      string           `json:"type"`
	SessionID string           `json:"-"`
	Items     []model.CartItem `json:"items"`
	Total     decimal.Decimal  `json:"total"`
	ItemCount int              `json:"itemCount"`
	At        time.Time        `json:"at"`
}

func NewCartEvent(sessionID string, state session.CartState) CartEvent {
	return CartEvent{
		Type:      EventCartUpdated,
		SessionID: sessionID,
		Items:     state.Items,
		Total:     state.Total,
		ItemCount: len(state.Items),
		At:        time.Now(),
	}
}

// Client is one open tab.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	SessionID     string
	Send          chan []byte
	MessageCount  int       // messages in the current one-second window
	LastResetTime time.Time // start of that window
	RateMu        sync.Mutex

	sendMu sync.Mutex
	closed bool // Send has been closed by the hub
}

func NewClient(hub *Hub, conn *Conn, sessionID string) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		SessionID:     sessionID,
		Send:          make(chan []byte, sendBufferSize),
		LastResetTime: time.Now(),
	}
}

// TrySend queues msg without blocking. It reports false when the buffer is full
// or the hub has already closed Send.
func (c *Client) TrySend(msg []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// Hub fans cart events out to the open tabs of each session.
type Hub struct {
	// session id -> open tabs
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	mu sync.RWMutex
}

type BroadcastMessage struct {
	SessionID string
	Message   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			tabs := len(h.clients[client.SessionID])
			h.mu.Unlock()
			logger.Debug("Cart events client registered", map[string]interface{}{
				"session_id": client.SessionID,
				"tabs":       tabs,
			})

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients[message.SessionID] {
				if !client.TrySend(message.Message) {
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"session_id": message.SessionID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.SessionID)
	} else {
		h.clients[client.SessionID] = kept
	}
	client.closeSend()

	logger.Debug("Cart events client unregistered", map[string]interface{}{
		"session_id": client.SessionID,
		"tabs":       len(kept),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, list := range h.clients {
		for _, c := range list {
			c.closeSend()
		}
		delete(h.clients, id)
	}
}

// Stop ends Run and closes every client's send channel.
func (h *Hub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Publish queues a message for every tab of sessionID. A full queue drops it.
func (h *Hub) Publish(sessionID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal cart event", err, nil)
		return err
	}

	select {
	case h.broadcast <- &BroadcastMessage{SessionID: sessionID, Message: data}:
	default:
		logger.Warn("Broadcast channel full, cart event dropped", map[string]interface{}{
			"session_id": sessionID,
		})
	}
	return nil
}

// CartObserver adapts the hub to session.WithCartObserver.
func (h *Hub) CartObserver() func(sessionID string, state session.CartState) {
	return func(sessionID string, state session.CartState) {
		if !h.HasClients(sessionID) {
			return
		}
		_ = h.Publish(sessionID, NewCartEvent(sessionID, state))
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) HasClients(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}

func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// HandleClientMessage answers pings. Anything else is ignored.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"session_id": client.SessionID,
			"count":      count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"session_id": client.SessionID,
			"error":      err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		data, _ := json.Marshal(map[string]interface{}{"type": EventPong, "at": now})
		client.TrySend(data)
	}
}
