package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/tableshare/tableshare/utils"
)

// Browsers cannot set headers on websocket upgrades, so ws endpoints take
// the credential as a query parameter.

func SessionWebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}
		claims, err := utils.ParseSessionToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}
		c.Set("session_id", claims.SessionID)
		c.Set("participant_id", claims.ParticipantID)
		c.Next()
	}
}

func StaffWebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}
		claims, err := utils.ParseStaffToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("store_id", claims.StoreID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
