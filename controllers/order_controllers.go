package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tableshare/tableshare/services"
	"github.com/tableshare/tableshare/utils"
)

type OrderController struct {
	DB     *gorm.DB
	Orders *services.OrderService
}

func NewOrderController(db *gorm.DB) *OrderController {
	return &OrderController{DB: db, Orders: services.NewOrderService(db)}
}

// Place -> convert the current cart into an immutable order, exactly once
// per idempotency key. A replayed key returns the original order with 200
// instead of 201.
func (oc *OrderController) Place(c *gin.Context) {
	sessionID, participantID := sessionIdentity(c)

	var req struct {
		CartVersion    *uint64 `json:"cart_version" binding:"required"`
		IdempotencyKey string  `json:"idempotency_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, replayed, err := oc.Orders.Place(services.PlaceInput{
		SessionID:      sessionID,
		ParticipantID:  participantID,
		CartVersion:    *req.CartVersion,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if replayed {
		utils.RespondJSON(c, http.StatusOK, "Order already placed", order)
		return
	}
	utils.InfoLogger.Printf("order %s placed for session %d (round %d)",
		order.OrderNumber, order.SessionID, order.RoundNumber)
	utils.RespondJSON(c, http.StatusCreated, "Order placed", order)
}

// ListSessionOrders -> the session's own orders.
func (oc *OrderController) ListSessionOrders(c *gin.Context) {
	sessionID, participantID := sessionIdentity(c)
	orders, err := oc.Orders.ListSessionOrders(sessionID, participantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session orders", orders)
}

// ListStoreOrders -> staff view, optionally filtered by status
// (?status=placed,preparing).
func (oc *OrderController) ListStoreOrders(c *gin.Context) {
	var statuses []string
	if raw := c.Query("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}
	orders, err := oc.Orders.ListStoreOrders(staffStoreID(c), statuses)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Store orders", orders)
}

// AdvanceStatus -> staff moves an order forward through its state machine.
func (oc *OrderController) AdvanceStatus(c *gin.Context) {
	idStr := c.Param("order_id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.AdvanceStatus(uint(id), staffStoreID(c), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// AdvanceItemStatus -> chef moves one item forward for kitchen tracking.
func (oc *OrderController) AdvanceItemStatus(c *gin.Context) {
	idStr := c.Param("item_id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.AdvanceItemStatus(uint(id), staffStoreID(c), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order item status updated", order)
}
