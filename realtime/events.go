package realtime

// Event types pushed over the websocket scopes.
const (
	EventCartUpdate      = "cart_update"
	EventOrderPlaced     = "order_placed"
	EventOrderStatus     = "order_status_update"
	EventSessionClosed   = "session_closed"
	EventParticipantJoin = "participant_joined"
	EventParticipantLeft = "participant_left"
	EventEditingPresence = "editing_presence"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// PresencePayload is the ephemeral editing indicator. It is relayed,
// never persisted.
type PresencePayload struct {
	ParticipantID uint `json:"participant_id"`
	IsEditing     bool `json:"is_editing"`
}

// ParticipantPayload announces a join/leave to the session scope.
type ParticipantPayload struct {
	ParticipantID uint   `json:"participant_id"`
	Nickname      string `json:"nickname,omitempty"`
	Color         string `json:"color,omitempty"`
}

// SessionClosedPayload tells clients to stop further mutation attempts.
type SessionClosedPayload struct {
	SessionID uint   `json:"session_id"`
	Status    string `json:"status"`
}
