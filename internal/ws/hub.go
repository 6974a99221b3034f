package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"danceschool/entity"
	"danceschool/internal/lib/sl"
)

const (
	EventJoin       = "join-chat"
	EventLeave      = "leave-chat"
	EventNewMessage = "new-message"
	EventError      = "error"

	authorizeTimeout = 5 * time.Second
)

// Authorizer decides whether a user may subscribe to a conversation room.
type Authorizer interface {
	Authorize(ctx context.Context, user *entity.UserAuth, conversationID string) error
}

// Event represents a WebSocket event in either direction.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type errorData struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message"`
}

// Hub tracks connected clients and the conversation rooms they joined.
// Delivery is best effort: nothing is queued for clients that are not in a room.
type Hub struct {
	mu          sync.RWMutex
	clients     map[string]*Client
	rooms       map[string]map[string]*Client
	clientRooms map[string]map[string]struct{}
	authorizer  Authorizer
	log         *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		rooms:       make(map[string]map[string]*Client),
		clientRooms: make(map[string]map[string]struct{}),
		log:         log.With(sl.Module("ws-hub")),
	}
}

func (h *Hub) SetAuthorizer(authorizer Authorizer) {
	h.authorizer = authorizer
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.clientRooms[c.id] = make(map[string]struct{})
	h.mu.Unlock()

	h.log.With(
		slog.String("client", c.id),
		slog.String("user", c.user.Username),
	).Debug("client connected")
}

// Unregister drops the client from every room and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; !ok {
		return
	}
	for room := range h.clientRooms[c.id] {
		h.leaveLocked(room, c.id)
	}
	delete(h.clientRooms, c.id)
	delete(h.clients, c.id)
	close(c.send)

	h.log.With(
		slog.String("client", c.id),
		slog.String("user", c.user.Username),
	).Debug("client disconnected")
}

// Join adds a registered client to the room of a conversation.
func (h *Hub) Join(conversationID string, c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; !ok {
		return false
	}
	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Client)
		h.rooms[conversationID] = room
	}
	room[c.id] = c
	h.clientRooms[c.id][conversationID] = struct{}{}
	return true
}

func (h *Hub) Leave(conversationID string, c *Client) {
	h.mu.Lock()
	h.leaveLocked(conversationID, c.id)
	h.mu.Unlock()
}

func (h *Hub) leaveLocked(conversationID, clientID string) {
	room := h.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, clientID)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
	if joined, ok := h.clientRooms[clientID]; ok {
		delete(joined, conversationID)
	}
}

// RoomSize returns the number of clients subscribed to a conversation.
func (h *Hub) RoomSize(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}

// Broadcast sends the event to every client in the room and returns how many got it.
// It never blocks: a client whose buffer is full is disconnected.
func (h *Hub) Broadcast(conversationID string, event *Event) int {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.With(sl.Err(err)).Error("marshal event")
		return 0
	}

	var slow []*Client
	delivered := 0

	h.mu.RLock()
	for _, c := range h.rooms[conversationID] {
		select {
		case c.send <- data:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.With(
			slog.String("client", c.id),
			slog.String("user", c.user.Username),
		).Warn("client send buffer full, dropping")
		h.Unregister(c)
	}
	return delivered
}

// NotifyNewMessage pushes a persisted message to the conversation room.
func (h *Hub) NotifyNewMessage(event entity.NewMessageEvent) {
	room := event.ConversationID.Hex()
	n := h.Broadcast(room, &Event{Type: EventNewMessage, Data: event})
	h.log.With(
		slog.String("conversation", room),
		slog.Int("delivered", n),
	).Debug("new message broadcast")
}

// send delivers an event to one client without blocking.
func (h *Hub) send(c *Client, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Unregister(c)
	}
}

// clientEvent represents an incoming WebSocket message from a client.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// conversationID accepts both "<id>" and {"conversationId":"<id>"} as event data.
func (e clientEvent) conversationID() string {
	var id string
	if err := json.Unmarshal(e.Data, &id); err == nil {
		return id
	}
	var data struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(e.Data, &data); err == nil {
		return data.ConversationID
	}
	return ""
}

// HandleClientMessage parses and dispatches an incoming message from a client.
func (h *Hub) HandleClientMessage(c *Client, raw []byte) {
	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.log.With(sl.Err(err)).Warn("failed to parse client ws message")
		return
	}

	conversationID := event.conversationID()
	if conversationID == "" {
		h.send(c, &Event{Type: EventError, Data: errorData{Event: event.Type, Message: "conversation id is required"}})
		return
	}

	switch event.Type {
	case EventJoin:
		h.join(c, conversationID)
	case EventLeave:
		h.Leave(conversationID, c)
	default:
		h.send(c, &Event{Type: EventError, Data: errorData{Event: event.Type, Message: "unknown event"}})
	}
}

func (h *Hub) join(c *Client, conversationID string) {
	log := h.log.With(
		slog.String("client", c.id),
		slog.String("user", c.user.Username),
		slog.String("conversation", conversationID),
	)

	if h.authorizer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), authorizeTimeout)
		err := h.authorizer.Authorize(ctx, c.user, conversationID)
		cancel()
		if err != nil {
			log.With(sl.Err(err)).Debug("join refused")
			h.send(c, &Event{Type: EventError, Data: errorData{
				Event:          EventJoin,
				ConversationID: conversationID,
				Message:        err.Error(),
			}})
			return
		}
	}

	if h.Join(conversationID, c) {
		log.Debug("joined room")
	}
}
