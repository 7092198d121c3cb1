package feedws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
)

const (
	sendBuffer      = 32
	broadcastBuffer = 64
	writeWait       = 10 * time.Second
)

// Hub fans availability changes out to the clients watching each coach.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	logger     *slog.Logger
}

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	coachUID string
	send     chan []byte
}

type Message struct {
	Type      string `json:"type"`
	CoachUID  string `json:"coach_uid"`
	Date      string `json:"date,omitempty"`
	Timestamp string `json:"timestamp"`
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, broadcastBuffer),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, coachUID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		coachUID: coachUID,
		send:     make(chan []byte, sendBuffer),
	}
}

// Run serves registrations and broadcasts until ctx is done. After it returns
// Register and Unregister no longer block.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			return
		case client := <-h.register:
			set, ok := h.clients[client.coachUID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.coachUID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Register adds client to its coach's subscribers. Once the hub has stopped
// the client's send channel is closed so its write pump exits.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// AvailabilityChanged queues a notification without blocking the caller. When
// the queue is full the notification is dropped.
func (h *Hub) AvailabilityChanged(coachUID, date string) {
	message := &Message{
		Type:      "availability_changed",
		CoachUID:  coachUID,
		Date:      date,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("availability feed queue full, dropping notification", "coach_uid", coachUID)
	}
}

func (h *Hub) deliver(message *Message) {
	encoded, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("availability feed encode message", "err", err)
		return
	}

	set, ok := h.clients[message.CoachUID]
	if !ok {
		return
	}
	for client := range set {
		select {
		case client.send <- encoded:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, message.CoachUID)
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.coachUID]
	if !ok {
		return
	}
	if _, exists := set[client]; exists {
		delete(set, client)
		close(client.send)
	}
	if len(set) == 0 {
		delete(h.clients, client.coachUID)
	}
}

// ReadPump drains inbound frames so close and ping frames are processed. The
// feed is server-to-client only.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
