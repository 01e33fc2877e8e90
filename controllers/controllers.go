package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tableshare/tableshare/services"
	"github.com/tableshare/tableshare/utils"
)

// respondServiceError maps the service error taxonomy onto HTTP codes:
// validation 400, not-found 404, auth 403, terminal session state 410,
// version conflict 409 (with the current cart so the caller can retry),
// anything else 500.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var notFoundErr *services.NotFoundError
	var authErr *services.AuthError
	var stateErr *services.SessionStateError
	var conflictErr *services.ConflictError

	switch {
	case errors.As(err, &validationErr):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &notFoundErr):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.As(err, &authErr):
		utils.RespondError(c, http.StatusForbidden, err)
	case errors.As(err, &stateErr):
		utils.RespondError(c, http.StatusGone, err)
	case errors.As(err, &conflictErr):
		utils.RespondErrorData(c, http.StatusConflict, err, gin.H{
			"current_version": conflictErr.CurrentVersion,
			"cart":            conflictErr.Cart,
		})
	default:
		utils.ErrorLogger.Printf("internal error: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func sessionIdentity(c *gin.Context) (sessionID, participantID uint) {
	if v, ok := c.Get("session_id"); ok {
		sessionID = v.(uint)
	}
	if v, ok := c.Get("participant_id"); ok {
		participantID = v.(uint)
	}
	return sessionID, participantID
}

func staffStoreID(c *gin.Context) uint {
	if v, ok := c.Get("store_id"); ok {
		return v.(uint)
	}
	return 0
}
