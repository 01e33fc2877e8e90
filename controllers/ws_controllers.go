package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tableshare/tableshare/realtime"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// inboundMessage is the only client-to-server frame we accept: the
// ephemeral editing-presence signal.
type inboundMessage struct {
	Event string `json:"event"`
	Data  struct {
		IsEditing bool `json:"is_editing"`
	} `json:"data"`
}

// SessionWS -> websocket endpoint for participants. The verified session
// credential decides the scope; a client cannot ask for any other.
func SessionWS(c *gin.Context) {
	sessionID, participantID := sessionIdentity(c)
	if sessionID == 0 || participantID == 0 {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := realtime.RegisterSessionClient(ws, sessionID, participantID)
	defer realtime.Unregister(client)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}
		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Event == "editing" {
			realtime.BroadcastPresence(sessionID, realtime.PresencePayload{
				ParticipantID: participantID,
				IsEditing:     msg.Data.IsEditing,
			})
		}
	}
}

// StaffWS -> websocket endpoint for staff devices, scoped to their store.
func StaffWS(c *gin.Context) {
	storeID := staffStoreID(c)
	if storeID == 0 {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := realtime.RegisterStaffClient(ws, storeID)
	defer realtime.Unregister(client)

	// Staff connections are receive-only; drain until disconnect.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}
