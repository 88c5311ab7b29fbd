package chatws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/viabetel/via-betel-api/internal/services"
)

// Hub fans realtime events out to connected clients. Clients register per
// user and may additionally subscribe to per-thread channels named
// "messages:{threadID}"; an inserted message is delivered to the thread's
// subscribers and to the recipient's user-level clients.
type Hub struct {
	clients       map[string]map[*Client]struct{}
	subscribers   map[int64]map[*Client]struct{}
	clientThreads map[*Client]map[int64]struct{}
	register      chan *Client
	unregister    chan *Client
	subscribe     chan subscription
	unsubscribe   chan subscription
	broadcast     chan *Event
	direct        chan directMessage
}

// directMessage targets a single client. Routing it through the hub keeps
// client.send writes on the hub goroutine, which also owns closing it.
type directMessage struct {
	client  *Client
	payload []byte
}

type subscription struct {
	client   *Client
	threadID int64
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

type chatAccess interface {
	SendMessage(
		ctx context.Context,
		actorID int64,
		role string,
		threadID int64,
		content string,
		clientKey *uuid.UUID,
	) (*services.ChatDelivery, error)
	VerifyParticipant(ctx context.Context, actorID int64, threadID int64) error
}

// Event is the wire frame pushed to clients. Insert events carry the full
// message row under the channel of the owning thread.
type Event struct {
	Type        string          `json:"type"`
	Channel     string          `json:"channel,omitempty"`
	RecipientID string          `json:"recipient_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Content     string          `json:"content,omitempty"`
	Timestamp   string          `json:"timestamp"`
	threadID    int64
}

func ChannelName(threadID int64) string {
	return fmt.Sprintf("messages:%d", threadID)
}

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[string]map[*Client]struct{}),
		subscribers:   make(map[int64]map[*Client]struct{}),
		clientThreads: make(map[*Client]map[int64]struct{}),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan subscription),
		unsubscribe:   make(chan subscription),
		broadcast:     make(chan *Event, 64),
		direct:        make(chan directMessage, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			h.drop(client)
		case sub := <-h.subscribe:
			set, ok := h.subscribers[sub.threadID]
			if !ok {
				set = make(map[*Client]struct{})
				h.subscribers[sub.threadID] = set
			}
			set[sub.client] = struct{}{}
			threads, ok := h.clientThreads[sub.client]
			if !ok {
				threads = make(map[int64]struct{})
				h.clientThreads[sub.client] = threads
			}
			threads[sub.threadID] = struct{}{}
		case sub := <-h.unsubscribe:
			h.dropSubscription(sub.client, sub.threadID)
		case event := <-h.broadcast:
			h.deliver(event)
		case msg := <-h.direct:
			if h.registered(msg.client) {
				h.sendToClient(msg.client, msg.payload)
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastInsert publishes a stored message to the thread channel and the
// recipient.
func (h *Hub) BroadcastInsert(delivery *services.ChatDelivery) {
	payload, err := json.Marshal(delivery.Message)
	if err != nil {
		log.Printf("chat hub encode message: %v", err)
		return
	}

	h.broadcast <- &Event{
		Type:        "INSERT",
		Channel:     ChannelName(delivery.Message.ThreadID),
		RecipientID: strconv.FormatInt(delivery.RecipientID, 10),
		Payload:     payload,
		Timestamp:   services.FormatChatTimestamp(delivery.Message.CreatedAt),
		threadID:    delivery.Message.ThreadID,
	}
}

// drop releases everything the client holds: user registration, channel
// subscriptions, and the send channel. Called on every exit path.
func (h *Hub) drop(client *Client) {
	for threadID := range h.clientThreads[client] {
		h.dropSubscription(client, threadID)
	}

	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := set[client]; exists {
		delete(set, client)
		close(client.send)
	}
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

// registered reports whether the client still holds an open send channel. A
// dropped client must never be written to again.
func (h *Hub) registered(client *Client) bool {
	set, ok := h.clients[client.userID]
	if !ok {
		return false
	}
	_, live := set[client]
	return live
}

func (h *Hub) dropSubscription(client *Client, threadID int64) {
	if set, ok := h.subscribers[threadID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.subscribers, threadID)
		}
	}
	if threads, ok := h.clientThreads[client]; ok {
		delete(threads, threadID)
		if len(threads) == 0 {
			delete(h.clientThreads, client)
		}
	}
}

func (h *Hub) deliver(event *Event) {
	encoded, err := json.Marshal(event)
	if err != nil {
		log.Printf("chat hub encode event: %v", err)
		return
	}

	delivered := make(map[*Client]struct{})
	for client := range h.subscribers[event.threadID] {
		h.sendToClient(client, encoded)
		delivered[client] = struct{}{}
	}
	if event.RecipientID != "" {
		for client := range h.clients[event.RecipientID] {
			if _, done := delivered[client]; done {
				continue
			}
			h.sendToClient(client, encoded)
		}
	}
}

func (h *Hub) sendToClient(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		// Slow consumer: drop the client rather than block the hub.
		h.drop(client)
	}
}

type incomingFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
	ClientKey      string `json:"client_message_id"`
}

func (c *Client) ReadPump(service chatAccess, role string) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	actorID, err := strconv.ParseInt(c.userID, 10, 64)
	if err != nil {
		writeError(c, "invalid user")
		return
	}

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming incomingFrame
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}

		threadID, err := strconv.ParseInt(incoming.ConversationID, 10, 64)
		if err != nil || threadID <= 0 {
			writeError(c, "invalid conversation id")
			continue
		}

		switch incoming.Type {
		case "subscribe":
			if err := service.VerifyParticipant(context.Background(), actorID, threadID); err != nil {
				writeError(c, "conversation not available")
				continue
			}
			c.hub.subscribe <- subscription{client: c, threadID: threadID}
		case "unsubscribe":
			c.hub.unsubscribe <- subscription{client: c, threadID: threadID}
		case "message":
			var clientKey *uuid.UUID
			if incoming.ClientKey != "" {
				parsed, err := uuid.Parse(incoming.ClientKey)
				if err != nil {
					writeError(c, "invalid client message id")
					continue
				}
				clientKey = &parsed
			}

			delivery, err := service.SendMessage(
				context.Background(),
				actorID,
				role,
				threadID,
				incoming.Content,
				clientKey,
			)
			if err != nil {
				writeError(c, "failed to send message")
				continue
			}
			if !delivery.Duplicate {
				c.hub.BroadcastInsert(delivery)
			}
		default:
			writeError(c, "unsupported message type")
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeError(client *Client, message string) {
	payload, err := json.Marshal(Event{
		Type:      "error",
		Content:   message,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		return
	}
	client.hub.direct <- directMessage{client: client, payload: payload}
}
