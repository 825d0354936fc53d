package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/auth"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/logger"
)

const (
	StoryCreatedType   = "STORY_CREATED"   // A story was added
	StoryDeletedType   = "STORY_DELETED"   // A story was removed
	ChangesUpdatedType = "CHANGES_UPDATED" // A story's change log was rewritten
	SessionEndedType   = "SESSION_ENDED"   // Signed out or expired; the socket closes next
	PresenceUpdateType = "PRESENCE_UPDATE" // Number of open connections for the owner
)

type WSMessage struct {
	Type      string          `json:"type"`
	OwnerID   string          `json:"ownerId"`
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type Presence struct {
	Connections int `json:"connections"`
}

// Hub fans story events out to every connection of the story owner. Rooms
// are keyed by owner id; a client belongs to exactly one auth session.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	endSession chan string
	done       chan struct{}
	mu         sync.Mutex
}

type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	OwnerID   string
	SessionID string
	ExpiresAt time.Time
	Send      chan []byte

	expiry *time.Timer
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		endSession: make(chan string, 64),
		done:       make(chan struct{}),
	}
}

// Run owns room membership until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.OwnerID] == nil {
				h.Rooms[client.OwnerID] = make(map[*Client]bool)
			}
			h.Rooms[client.OwnerID][client] = true
			if !client.ExpiresAt.IsZero() {
				sessionID := client.SessionID
				client.expiry = time.AfterFunc(time.Until(client.ExpiresAt), func() {
					h.EndSession(sessionID)
				})
			}
			h.mu.Unlock()
			logger.Sugar.Debugf("Client for %s joined (session %s)", client.OwnerID, client.SessionID)
			h.broadcastPresenceUpdate(client.OwnerID)

		case client := <-h.Unregister:
			if h.remove(client) {
				h.broadcastPresenceUpdate(client.OwnerID)
			}

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}
			for _, client := range h.clientsOf(msg.OwnerID) {
				select {
				case client.Send <- payload:
				default:
					// Lagging client; drop it rather than block the hub.
					logger.Sugar.Warnf("Client %s's send buffer is full. Unregistering.", client.OwnerID)
					h.remove(client)
				}
			}

		case sessionID := <-h.endSession:
			h.closeSession(sessionID)
		}
	}
}

// Notify queues msgType for every connection of ownerID. It never blocks;
// when the queue is full the event is dropped and logged.
func (h *Hub) Notify(ownerID, msgType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s payload: %v", msgType, err)
		return
	}
	select {
	case h.Broadcast <- WSMessage{Type: msgType, OwnerID: ownerID, Payload: raw}:
	default:
		logger.Sugar.Warnf("Broadcast queue full, dropping %s for %s", msgType, ownerID)
	}
}

// EndSession tells every connection of sessionID that it is over and
// disconnects it.
func (h *Hub) EndSession(sessionID string) {
	select {
	case h.endSession <- sessionID:
	default:
		logger.Sugar.Warnf("End-session queue full, dropping %s", sessionID)
	}
}

// HandleAuthEvent is subscribed to the auth provider.
func (h *Hub) HandleAuthEvent(ev auth.Event) {
	switch ev.Kind {
	case auth.EventSignedOut, auth.EventExpired:
		h.EndSession(ev.SessionID)
	}
}

// Connections reports how many sockets ownerID has open.
func (h *Hub) Connections(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[ownerID])
}

func (h *Hub) clientsOf(ownerID string) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := make([]*Client, 0, len(h.Rooms[ownerID]))
	for client := range h.Rooms[ownerID] {
		clients = append(clients, client)
	}
	return clients
}

// remove reports whether client was still registered. Its Send channel is
// closed exactly once, here.
func (h *Hub) remove(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.Rooms[client.OwnerID]
	if !ok || !room[client] {
		return false
	}
	delete(room, client)
	if client.expiry != nil {
		client.expiry.Stop()
	}
	close(client.Send)
	if len(room) == 0 {
		delete(h.Rooms, client.OwnerID)
		logger.Sugar.Debugf("Closed empty room: %s", client.OwnerID)
	}
	return true
}

func (h *Hub) closeSession(sessionID string) {
	var ended []*Client
	h.mu.Lock()
	for _, room := range h.Rooms {
		for client := range room {
			if client.SessionID == sessionID {
				ended = append(ended, client)
			}
		}
	}
	h.mu.Unlock()

	owners := make(map[string]bool)
	for _, client := range ended {
		msg, _ := json.Marshal(WSMessage{Type: SessionEndedType, OwnerID: client.OwnerID, SessionID: sessionID})
		select {
		case client.Send <- msg:
		default:
		}
		if h.remove(client) {
			owners[client.OwnerID] = true
		}
	}
	for ownerID := range owners {
		h.broadcastPresenceUpdate(ownerID)
	}
	if len(ended) > 0 {
		logger.Sugar.Infof("Ended %d connection(s) of session %s", len(ended), sessionID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	var all []*Client
	for _, room := range h.Rooms {
		for client := range room {
			all = append(all, client)
		}
	}
	h.mu.Unlock()
	for _, client := range all {
		h.remove(client)
	}
}

func (h *Hub) broadcastPresenceUpdate(ownerID string) {
	clients := h.clientsOf(ownerID)
	if len(clients) == 0 {
		return
	}

	payload, _ := json.Marshal(Presence{Connections: len(clients)})
	msg, err := json.Marshal(WSMessage{Type: PresenceUpdateType, OwnerID: ownerID, Payload: payload})
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence broadcast: %v", err)
		return
	}
	for _, client := range clients {
		select {
		case client.Send <- msg:
		default:
			logger.Sugar.Warnf("Client %s's send buffer was full during presence update.", client.OwnerID)
		}
	}
}
