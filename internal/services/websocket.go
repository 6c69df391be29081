package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the API is consumed by browser dapps on any origin
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WebSocket message types
const (
	EventParcelUpdate    = "parcel_update"
	EventParcelAvailable = "parcel_available"
	EventPong            = "pong"
)

// WebSocketMessage is the envelope of every frame.
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ParcelEvent describes a parcel change pushed to the sender and driver.
type ParcelEvent struct {
	Type             string    `json:"type"`
	ParcelID         string    `json:"parcelId"`
	DeliveryID       string    `json:"deliveryId,omitempty"`
	Status           string    `json:"status"`
	BlockchainStatus int       `json:"blockchainStatus"`
	SenderAddress    string    `json:"senderAddress"`
	DriverAddress    string    `json:"driverAddress,omitempty"`
	TransactionHash  string    `json:"transactionHash,omitempty"`
	Action           string    `json:"action"`
	Timestamp        time.Time `json:"timestamp"`
}

// Client represents a WebSocket client
type Client struct {
	Wallet string
	Role   string
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
}

// Hub maintains the set of active clients keyed by wallet address
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub and returns when ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			zap.L().Debug("websocket client connected", zap.String("wallet", client.Wallet))

		case client := <-h.unregister:
			h.removeClient(client)
			zap.L().Debug("websocket client disconnected", zap.String("wallet", client.Wallet))
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

// deliver hands message to every client matching. Slow clients whose buffer is
// full are dropped.
func (h *Hub) deliver(message []byte, match func(*Client) bool) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	sent := 0
	for client := range h.clients {
		if !match(client) {
			continue
		}
		select {
		case client.Send <- message:
			sent++
		default:
			zap.L().Warn("dropping slow websocket client", zap.String("wallet", client.Wallet))
			close(client.Send)
			delete(h.clients, client)
		}
	}
	return sent
}

// BroadcastToWallet sends a message to every connection of one wallet
func (h *Hub) BroadcastToWallet(wallet string, message []byte) int {
	if h == nil || wallet == "" {
		return 0
	}
	return h.deliver(message, func(c *Client) bool {
		return strings.EqualFold(c.Wallet, wallet)
	})
}

// BroadcastToRole sends a message to all clients that declared role
func (h *Hub) BroadcastToRole(role string, message []byte) int {
	if h == nil {
		return 0
	}
	return h.deliver(message, func(c *Client) bool {
		return c.Role == role
	})
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// SendParcelUpdate pushes event to the parcel's sender and driver. New pending
// parcels are also announced to every connected driver.
func (h *Hub) SendParcelUpdate(event ParcelEvent) {
	if h == nil {
		return
	}

	data, err := json.Marshal(WebSocketMessage{Type: event.Type, Data: event})
	if err != nil {
		zap.L().Error("failed to marshal parcel event", zap.Error(err))
		return
	}

	h.BroadcastToWallet(event.SenderAddress, data)
	if event.DriverAddress != "" && !strings.EqualFold(event.DriverAddress, event.SenderAddress) {
		h.BroadcastToWallet(event.DriverAddress, data)
	}

	if event.Action == "created" {
		announce, err := json.Marshal(WebSocketMessage{Type: EventParcelAvailable, Data: event})
		if err == nil {
			h.BroadcastToRole("driver", announce)
		}
	}
}

// HandleWebSocket upgrades the request and subscribes the connection to
// wallet's parcel events
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, wallet, role string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade error", zap.Error(err))
		return
	}

	client := &Client{
		Wallet: strings.ToLower(wallet),
		Role:   role,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Hub:    hub,
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Warn("websocket read error", zap.String("wallet", c.Wallet), zap.Error(err))
			}
			break
		}

		var wsMessage WebSocketMessage
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			zap.L().Debug("ignoring malformed websocket message", zap.Error(err))
			continue
		}

		switch wsMessage.Type {
		case "ping":
			reply, _ := json.Marshal(WebSocketMessage{Type: EventPong, Data: time.Now().Unix()})
			c.Hub.BroadcastToWallet(c.Wallet, reply)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				zap.L().Warn("websocket write error", zap.String("wallet", c.Wallet), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
