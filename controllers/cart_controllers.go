package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tableshare/tableshare/services"
	"github.com/tableshare/tableshare/utils"
)

type CartController struct {
	DB    *gorm.DB
	Carts *services.CartService
}

func NewCartController(db *gorm.DB) *CartController {
	return &CartController{DB: db, Carts: services.NewCartService(db)}
}

// GetCart -> current cart with items, for resync after missed broadcasts.
func (cc *CartController) GetCart(c *gin.Context) {
	sessionID, participantID := sessionIdentity(c)
	cart, err := cc.Carts.Get(sessionID, participantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart", cart)
}

// ApplyMutation -> one ADD/UPDATE/REMOVE against the shared cart. The
// caller sends the version it last saw; a stale version gets 409 with the
// current cart and must retry.
func (cc *CartController) ApplyMutation(c *gin.Context) {
	sessionID, participantID := sessionIdentity(c)

	var req struct {
		ExpectedVersion *uint64                 `json:"expected_version" binding:"required"`
		Action          string                  `json:"action" binding:"required"`
		MenuID          uint                    `json:"menu_id"`
		ItemID          uint                    `json:"item_id"`
		Quantity        int                     `json:"quantity"`
		Options         []services.OptionChoice `json:"options"`
		ReplaceOptions  bool                    `json:"replace_options"`
		Notes           string                  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cart, err := cc.Carts.Apply(services.MutationInput{
		SessionID:       sessionID,
		ParticipantID:   participantID,
		ExpectedVersion: *req.ExpectedVersion,
		Action:          req.Action,
		MenuID:          req.MenuID,
		ItemID:          req.ItemID,
		Quantity:        req.Quantity,
		Options:         req.Options,
		ReplaceOptions:  req.ReplaceOptions,
		Notes:           req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Cart updated", cart)
}
