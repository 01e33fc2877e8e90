package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tableshare/tableshare/models"
	"github.com/tableshare/tableshare/realtime"
)

type OrderService struct {
	DB *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{DB: db}
}

type PlaceInput struct {
	SessionID      uint
	ParticipantID  uint
	CartVersion    uint64
	IdempotencyKey string
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

// Place converts the current cart into an immutable order exactly once
// per idempotency key. The order and its idempotency record commit in one
// transaction; a retry under the same key returns the stored order
// without recomputation. The cart itself is left untouched.
func (s *OrderService) Place(in PlaceInput) (*models.Order, bool, error) {
	if in.IdempotencyKey == "" {
		return nil, false, &ValidationError{Message: "idempotency_key is required"}
	}

	// Replay before touching the session: a retry must succeed even if
	// the session expired between the original call and the retry.
	if order, ok, err := s.findReplay(in.SessionID, in.IdempotencyKey); err != nil {
		return nil, false, err
	} else if ok {
		return order, true, nil
	}

	sess, store, err := RequireOpenSession(s.DB, in.SessionID)
	if err != nil {
		return nil, false, err
	}
	if _, err := requireParticipant(s.DB, in.SessionID, in.ParticipantID); err != nil {
		return nil, false, err
	}

	cfg := PricingConfig{
		TaxRate:           store.TaxRate,
		ServiceChargeRate: store.ServiceChargeRate,
		TaxIncluded:       store.TaxIncluded,
	}

	var order models.Order
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Re-check under the transaction to close the race between two
		// concurrent retries of the same key.
		var record models.IdempotencyRecord
		err := tx.Where("session_id = ? AND `key` = ?", in.SessionID, in.IdempotencyKey).
			First(&record).Error
		if err == nil {
			return tx.Preload("Items").First(&order, record.OrderID).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var cart models.SharedCart
		if err := tx.Preload("Items").
			Where("session_id = ?", in.SessionID).First(&cart).Error; err != nil {
			return err
		}
		if cart.Version != in.CartVersion {
			return staleCartError(s.DB, cart.ID, in.CartVersion)
		}
		if len(cart.Items) == 0 {
			return &ValidationError{Message: "cart is empty"}
		}

		now := time.Now()
		lineTotals := make([]float64, 0, len(cart.Items))
		items := make([]models.OrderItem, 0, len(cart.Items))
		for _, line := range cart.Items {
			lineTotals = append(lineTotals, line.LineTotal)
			items = append(items, models.OrderItem{
				MenuID:        line.MenuID,
				MenuName:      line.MenuName,
				ParticipantID: line.ParticipantID,
				Quantity:      line.Quantity,
				UnitPrice:     line.UnitPrice,
				Options:       line.Options,
				LineTotal:     line.LineTotal,
				Notes:         line.Notes,
				Status:        models.ItemPlaced,
			})
		}
		totals := CalculateTotals(lineTotals, cfg)

		// With auto confirmation the store accepts orders as they come in;
		// manual mode keeps them PLACED until staff accept.
		status := models.OrderPlaced
		if store.OrderConfirmMode == models.ConfirmAuto {
			status = models.OrderAccepted
		}

		order = models.Order{
			OrderNumber:   newOrderNumber(),
			StoreID:       sess.StoreID,
			TableID:       sess.TableID,
			SessionID:     sess.ID,
			RoundNumber:   sess.CurrentRound,
			Status:        status,
			Items:         items,
			Subtotal:      totals.Subtotal,
			TaxAmount:     totals.TaxAmount,
			ServiceCharge: totals.ServiceCharge,
			GrandTotal:    totals.GrandTotal,
			PlacedAt:      now,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.IdempotencyRecord{
			SessionID: in.SessionID,
			Key:       in.IdempotencyKey,
			OrderID:   order.ID,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&models.TableSession{}).
			Where("id = ?", sess.ID).
			Update("last_activity_at", now).Error
	})
	if err != nil {
		// A concurrent placement may have won the unique (session, key)
		// index; hand back its order instead of surfacing the collision.
		if order, ok, lookupErr := s.findReplay(in.SessionID, in.IdempotencyKey); lookupErr == nil && ok {
			return order, true, nil
		}
		return nil, false, err
	}

	realtime.BroadcastOrderPlaced(sess.ID, sess.StoreID, order)
	return &order, false, nil
}

func (s *OrderService) findReplay(sessionID uint, key string) (*models.Order, bool, error) {
	var record models.IdempotencyRecord
	err := s.DB.Where("session_id = ? AND `key` = ?", sessionID, key).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var order models.Order
	if err := s.DB.Preload("Items").First(&order, record.OrderID).Error; err != nil {
		return nil, false, err
	}
	return &order, true, nil
}

// AdvanceStatus moves an order forward through its state machine on staff
// action. Cancelling also cancels every non-terminal item. Validation and
// the write happen in one transaction, and the write is a compare-and-set
// on the validated status so two racing staff calls cannot interleave a
// transition past a terminal state.
func (s *OrderService) AdvanceStatus(orderID, storeID uint, newStatus string) (*models.Order, error) {
	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "order"}
			}
			return err
		}
		if order.StoreID != storeID {
			return &AuthError{Message: "order belongs to another store"}
		}
		if !models.OrderStatusCanAdvance(order.Status, newStatus) {
			return &ValidationError{
				Message: "invalid status transition " + order.Status + " -> " + newStatus,
			}
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Update("status", newStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &ValidationError{Message: "order status changed concurrently"}
		}

		if newStatus == models.OrderCancelled {
			if err := tx.Model(&models.OrderItem{}).
				Where("order_id = ? AND status NOT IN ?", order.ID,
					[]string{models.ItemServed, models.ItemCancelled}).
				Update("status", models.ItemCancelled).Error; err != nil {
				return err
			}
		}
		return tx.Preload("Items").First(&order, order.ID).Error
	})
	if err != nil {
		return nil, err
	}

	realtime.BroadcastOrderStatus(order.SessionID, order.StoreID, realtime.OrderStatusPayload{
		OrderID: order.ID,
		Status:  order.Status,
		Items:   order.Items,
	})
	return &order, nil
}

// AdvanceItemStatus moves one item forward for kitchen tracking. When the
// last item reaches READY the order itself is marked READY. The same
// compare-and-set discipline as AdvanceStatus applies to the item row;
// the derived order advance is opportunistic, so a racing order
// transition simply skips it.
func (s *OrderService) AdvanceItemStatus(itemID, storeID uint, newStatus string) (*models.Order, error) {
	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "order item"}
			}
			return err
		}
		if err := tx.First(&order, item.OrderID).Error; err != nil {
			return err
		}
		if order.StoreID != storeID {
			return &AuthError{Message: "order belongs to another store"}
		}
		if !models.ItemStatusCanAdvance(item.Status, newStatus) {
			return &ValidationError{
				Message: "invalid item status transition " + item.Status + " -> " + newStatus,
			}
		}

		res := tx.Model(&models.OrderItem{}).
			Where("id = ? AND status = ?", item.ID, item.Status).
			Update("status", newStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &ValidationError{Message: "item status changed concurrently"}
		}

		if newStatus == models.ItemReady {
			var notReady int64
			if err := tx.Model(&models.OrderItem{}).
				Where("order_id = ? AND status NOT IN ?", order.ID,
					[]string{models.ItemReady, models.ItemServed, models.ItemCancelled}).
				Count(&notReady).Error; err != nil {
				return err
			}
			if notReady == 0 && models.OrderStatusCanAdvance(order.Status, models.OrderReady) {
				if res := tx.Model(&models.Order{}).
					Where("id = ? AND status = ?", order.ID, order.Status).
					Update("status", models.OrderReady); res.Error != nil {
					return res.Error
				}
			}
		}
		return tx.Preload("Items").First(&order, order.ID).Error
	})
	if err != nil {
		return nil, err
	}

	realtime.BroadcastOrderStatus(order.SessionID, order.StoreID, realtime.OrderStatusPayload{
		OrderID: order.ID,
		Status:  order.Status,
		Items:   order.Items,
	})
	return &order, nil
}

// ListSessionOrders returns the session's own orders, newest first.
func (s *OrderService) ListSessionOrders(sessionID, participantID uint) ([]models.Order, error) {
	if _, err := requireParticipant(s.DB, sessionID, participantID); err != nil {
		return nil, err
	}
	var orders []models.Order
	err := s.DB.Preload("Items").
		Where("session_id = ?", sessionID).
		Order("placed_at DESC").Find(&orders).Error
	return orders, err
}

// ListStoreOrders returns a store's orders, optionally filtered by status
// (kitchen display).
func (s *OrderService) ListStoreOrders(storeID uint, statuses []string) ([]models.Order, error) {
	q := s.DB.Preload("Items").Where("store_id = ?", storeID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var orders []models.Order
	err := q.Order("placed_at ASC").Find(&orders).Error
	return orders, err
}
