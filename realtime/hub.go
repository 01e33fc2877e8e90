package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tableshare/tableshare/models"
)

// Client is one registered websocket connection. A client belongs to
// exactly the scopes its verified credential named at registration time:
// participants get a session scope, staff get a store scope.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes on the connection

	SessionID     uint
	StoreID       uint
	ParticipantID uint
}

func (c *Client) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans events out to session and store scopes. Delivery is
// best-effort: a failed write drops the message for that client only.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uint]map[*Client]struct{}
	stores   map[uint]map[*Client]struct{}
}

var hub = Hub{
	sessions: make(map[uint]map[*Client]struct{}),
	stores:   make(map[uint]map[*Client]struct{}),
}

// RegisterSessionClient places a participant connection into its session scope.
func RegisterSessionClient(conn *websocket.Conn, sessionID, participantID uint) *Client {
	client := &Client{conn: conn, SessionID: sessionID, ParticipantID: participantID}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.sessions[sessionID] == nil {
		hub.sessions[sessionID] = make(map[*Client]struct{})
	}
	hub.sessions[sessionID][client] = struct{}{}
	return client
}

// RegisterStaffClient places a staff connection into its store scope.
func RegisterStaffClient(conn *websocket.Conn, storeID uint) *Client {
	client := &Client{conn: conn, StoreID: storeID}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.stores[storeID] == nil {
		hub.stores[storeID] = make(map[*Client]struct{})
	}
	hub.stores[storeID][client] = struct{}{}
	return client
}

// Unregister removes the client from its scope and closes the connection.
func Unregister(client *Client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if client.SessionID != 0 {
		delete(hub.sessions[client.SessionID], client)
		if len(hub.sessions[client.SessionID]) == 0 {
			delete(hub.sessions, client.SessionID)
		}
	}
	if client.StoreID != 0 {
		delete(hub.stores[client.StoreID], client)
		if len(hub.stores[client.StoreID]) == 0 {
			delete(hub.stores, client.StoreID)
		}
	}
	client.conn.Close()
}

func broadcastSession(sessionID uint, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("realtime: marshal %s: %v", msg.Event, err)
		return
	}
	hub.mu.RLock()
	clients := make([]*Client, 0, len(hub.sessions[sessionID]))
	for client := range hub.sessions[sessionID] {
		clients = append(clients, client)
	}
	hub.mu.RUnlock()

	for _, client := range clients {
		if err := client.send(data); err != nil {
			log.Printf("realtime: send %s to session %d participant %d: %v",
				msg.Event, sessionID, client.ParticipantID, err)
		}
	}
}

func broadcastStore(storeID uint, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("realtime: marshal %s: %v", msg.Event, err)
		return
	}
	hub.mu.RLock()
	clients := make([]*Client, 0, len(hub.stores[storeID]))
	for client := range hub.stores[storeID] {
		clients = append(clients, client)
	}
	hub.mu.RUnlock()

	for _, client := range clients {
		if err := client.send(data); err != nil {
			log.Printf("realtime: send %s to store %d: %v", msg.Event, storeID, err)
		}
	}
}

// BroadcastCartUpdate pushes the full current cart to the session scope.
func BroadcastCartUpdate(sessionID uint, cart models.SharedCart) {
	broadcastSession(sessionID, Message{Event: EventCartUpdate, Data: cart})
}

// BroadcastOrderPlaced pushes the full order to the session scope and the
// owning store scope.
func BroadcastOrderPlaced(sessionID, storeID uint, order models.Order) {
	msg := Message{Event: EventOrderPlaced, Data: order}
	broadcastSession(sessionID, msg)
	broadcastStore(storeID, msg)
}

// OrderStatusPayload carries a status transition plus the item snapshots.
type OrderStatusPayload struct {
	OrderID uint               `json:"order_id"`
	Status  string             `json:"status"`
	Items   []models.OrderItem `json:"items"`
}

// BroadcastOrderStatus pushes a status transition to both scopes.
func BroadcastOrderStatus(sessionID, storeID uint, payload OrderStatusPayload) {
	msg := Message{Event: EventOrderStatus, Data: payload}
	broadcastSession(sessionID, msg)
	broadcastStore(storeID, msg)
}

// BroadcastSessionClosed signals the session scope that the session
// reached a terminal status.
func BroadcastSessionClosed(sessionID uint, status string) {
	broadcastSession(sessionID, Message{
		Event: EventSessionClosed,
		Data:  SessionClosedPayload{SessionID: sessionID, Status: status},
	})
}

// BroadcastParticipantJoined announces a new participant to the session scope.
func BroadcastParticipantJoined(sessionID uint, p models.Participant) {
	broadcastSession(sessionID, Message{
		Event: EventParticipantJoin,
		Data:  ParticipantPayload{ParticipantID: p.ID, Nickname: p.Nickname, Color: p.Color},
	})
}

// BroadcastParticipantLeft announces a leave to the session scope.
func BroadcastParticipantLeft(sessionID, participantID uint) {
	broadcastSession(sessionID, Message{
		Event: EventParticipantLeft,
		Data:  ParticipantPayload{ParticipantID: participantID},
	})
}

// BroadcastPresence relays an ephemeral editing indicator to the session
// scope. Nothing is stored; a missed signal is simply gone.
func BroadcastPresence(sessionID uint, payload PresencePayload) {
	broadcastSession(sessionID, Message{Event: EventEditingPresence, Data: payload})
}
