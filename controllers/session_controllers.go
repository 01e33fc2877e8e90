package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tableshare/tableshare/services"
	"github.com/tableshare/tableshare/utils"
)

type SessionController struct {
	DB       *gorm.DB
	Sessions *services.SessionService
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{DB: db, Sessions: services.NewSessionService(db)}
}

// Join -> admit a device into the table's session, creating the session
// and its empty cart on first join.
func (sc *SessionController) Join(c *gin.Context) {
	var req struct {
		TableToken  string `json:"table_token"`
		ShortCode   string `json:"short_code"`
		Nickname    string `json:"nickname" binding:"required"`
		Fingerprint string `json:"device_fingerprint"`
		Language    string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := sc.Sessions.Join(services.JoinInput{
		TableToken:  req.TableToken,
		ShortCode:   req.ShortCode,
		Nickname:    req.Nickname,
		Fingerprint: req.Fingerprint,
		Language:    req.Language,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("participant %d (%s) joined session %d",
		result.Participant.ID, result.Participant.Role, result.Session.ID)
	utils.RespondJSON(c, http.StatusOK, "Joined session", result)
}

// Leave -> deactivate the calling participant. Their cart lines stay.
func (sc *SessionController) Leave(c *gin.Context) {
	sessionID, participantID := sessionIdentity(c)
	if err := sc.Sessions.Leave(sessionID, participantID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Left session", gin.H{
		"session_id":     sessionID,
		"participant_id": participantID,
	})
}

// GetCurrent -> authoritative snapshot for resynchronization.
func (sc *SessionController) GetCurrent(c *gin.Context) {
	sessionID, participantID := sessionIdentity(c)
	state, err := sc.Sessions.Current(sessionID, participantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session state", state)
}

// NewRound -> host empties the cart and advances the round counter.
func (sc *SessionController) NewRound(c *gin.Context) {
	sessionID, participantID := sessionIdentity(c)

	var req struct {
		ExpectedVersion uint64 `json:"expected_version"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cart, err := sc.Sessions.NewRound(sessionID, req.ExpectedVersion, participantID, false)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "New round started", cart)
}

// Close -> staff terminates a session. Terminal for all further calls.
func (sc *SessionController) Close(c *gin.Context) {
	idStr := c.Param("session_id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	sess, err := sc.Sessions.Close(uint(id), staffStoreID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("session %d closed by staff", sess.ID)
	utils.RespondJSON(c, http.StatusOK, "Session closed", sess)
}

// NewRoundStaff -> staff variant of NewRound.
func (sc *SessionController) NewRoundStaff(c *gin.Context) {
	idStr := c.Param("session_id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		ExpectedVersion uint64 `json:"expected_version"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cart, err := sc.Sessions.NewRound(uint(id), req.ExpectedVersion, 0, true)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "New round started", cart)
}
