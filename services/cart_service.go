package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tableshare/tableshare/models"
	"github.com/tableshare/tableshare/realtime"
)

// Cart mutation actions.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionRemove = "remove"
)

type CartService struct {
	DB *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{DB: db}
}

// OptionChoice is a client-side option selection; names and price deltas
// are resolved from the catalog, never trusted from the payload.
type OptionChoice struct {
	GroupID uint `json:"group_id"`
	ValueID uint `json:"value_id"`
}

type MutationInput struct {
	SessionID       uint
	ParticipantID   uint
	ExpectedVersion uint64
	Action          string
	MenuID          uint           // ADD
	ItemID          uint           // UPDATE / REMOVE
	Quantity        int            // ADD / UPDATE
	Options         []OptionChoice // ADD; UPDATE when non-nil replaces the set
	ReplaceOptions  bool           // UPDATE: distinguish "no change" from "clear"
	Notes           string
}

// staleCartError loads the current cart state so the losing caller can
// re-render and retry without an extra fetch. It reads on the base
// handle, not the losing transaction: inside that transaction the
// isolation snapshot could still show the pre-race version and send the
// caller back with the same stale number.
func staleCartError(db *gorm.DB, cartID uint, expected uint64) error {
	var current models.SharedCart
	if err := db.Preload("Items").First(&current, cartID).Error; err != nil {
		return err
	}
	return &ConflictError{
		ExpectedVersion: expected,
		CurrentVersion:  current.Version,
		Cart:            &current,
	}
}

// Apply runs one cart mutation as a single atomic unit. The version check
// plus the guarded UPDATE ... WHERE version = ? form the compare-and-swap
// that makes one mutation the sole winner of each version. The broadcast
// fires only after the transaction commits.
func (s *CartService) Apply(in MutationInput) (*models.SharedCart, error) {
	sess, store, err := RequireOpenSession(s.DB, in.SessionID)
	if err != nil {
		return nil, err
	}
	if _, err := requireParticipant(s.DB, in.SessionID, in.ParticipantID); err != nil {
		return nil, err
	}

	cfg := PricingConfig{
		TaxRate:           store.TaxRate,
		ServiceChargeRate: store.ServiceChargeRate,
		TaxIncluded:       store.TaxIncluded,
	}

	var out models.SharedCart
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var cart models.SharedCart
		if err := tx.Preload("Items").
			Where("session_id = ?", in.SessionID).First(&cart).Error; err != nil {
			return err
		}
		if cart.Version != in.ExpectedVersion {
			return staleCartError(s.DB, cart.ID, in.ExpectedVersion)
		}

		switch in.Action {
		case ActionAdd:
			if err := s.applyAdd(tx, &cart, in); err != nil {
				return err
			}
		case ActionUpdate:
			if err := s.applyUpdate(tx, &cart, in); err != nil {
				return err
			}
		case ActionRemove:
			if err := s.applyRemove(tx, &cart, in); err != nil {
				return err
			}
		default:
			return &ValidationError{Message: "unknown action: " + in.Action}
		}

		var items []models.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).
			Order("id ASC").Find(&items).Error; err != nil {
			return err
		}
		lineTotals := make([]float64, 0, len(items))
		for _, it := range items {
			lineTotals = append(lineTotals, it.LineTotal)
		}
		totals := CalculateTotals(lineTotals, cfg)

		res := tx.Model(&models.SharedCart{}).
			Where("id = ? AND version = ?", cart.ID, in.ExpectedVersion).
			Updates(map[string]interface{}{
				"version":        in.ExpectedVersion + 1,
				"subtotal":       totals.Subtotal,
				"tax_amount":     totals.TaxAmount,
				"service_charge": totals.ServiceCharge,
				"grand_total":    totals.GrandTotal,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return staleCartError(s.DB, cart.ID, in.ExpectedVersion)
		}

		if err := tx.Model(&models.TableSession{}).
			Where("id = ?", sess.ID).
			Update("last_activity_at", time.Now()).Error; err != nil {
			return err
		}

		return tx.Preload("Items").First(&out, cart.ID).Error
	})
	if err != nil {
		return nil, err
	}

	realtime.BroadcastCartUpdate(in.SessionID, out)
	return &out, nil
}

// resolveSelections validates chosen options against the menu's option
// groups and snapshots names and price deltas.
func resolveSelections(menu *models.Menu, choices []OptionChoice) ([]models.OptionSelection, error) {
	selections := make([]models.OptionSelection, 0, len(choices))
	for _, choice := range choices {
		var matched bool
		for _, group := range menu.OptionGroups {
			if group.ID != choice.GroupID {
				continue
			}
			for _, value := range group.Values {
				if value.ID != choice.ValueID {
					continue
				}
				selections = append(selections, models.OptionSelection{
					GroupID:    group.ID,
					ValueID:    value.ID,
					GroupName:  group.Name,
					ValueName:  value.Name,
					PriceDelta: value.PriceDelta,
				})
				matched = true
			}
		}
		if !matched {
			return nil, &ValidationError{Message: "unknown option selection"}
		}
	}
	return selections, nil
}

func unitPrice(menu *models.Menu, selections []models.OptionSelection) float64 {
	price := menu.BasePrice
	for _, sel := range selections {
		price += sel.PriceDelta
	}
	return price
}

func loadMenu(tx *gorm.DB, menuID, storeID uint) (*models.Menu, error) {
	var menu models.Menu
	err := tx.Preload("OptionGroups.Values").First(&menu, menuID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "menu item"}
		}
		return nil, err
	}
	if menu.StoreID != storeID {
		return nil, &NotFoundError{Resource: "menu item"}
	}
	if !menu.Available {
		return nil, &ValidationError{Message: "menu item is not available"}
	}
	return &menu, nil
}

// applyAdd appends a line, folding into an existing line when menu item,
// option set and owning participant all match.
func (s *CartService) applyAdd(tx *gorm.DB, cart *models.SharedCart, in MutationInput) error {
	if in.Quantity < 1 {
		return &ValidationError{Message: "quantity must be at least 1"}
	}

	var sess models.TableSession
	if err := tx.First(&sess, cart.SessionID).Error; err != nil {
		return err
	}
	menu, err := loadMenu(tx, in.MenuID, sess.StoreID)
	if err != nil {
		return err
	}
	selections, err := resolveSelections(menu, in.Options)
	if err != nil {
		return err
	}
	price := unitPrice(menu, selections)

	for i := range cart.Items {
		line := &cart.Items[i]
		if line.MergesWith(menu.ID, in.ParticipantID, selections) {
			line.Quantity += in.Quantity
			line.LineTotal = LineTotal(line.UnitPrice, line.Quantity)
			return tx.Save(line).Error
		}
	}

	item := models.CartItem{
		CartID:        cart.ID,
		MenuID:        menu.ID,
		MenuName:      menu.Name,
		ParticipantID: in.ParticipantID,
		Quantity:      in.Quantity,
		UnitPrice:     price,
		Options:       selections,
		LineTotal:     LineTotal(price, in.Quantity),
		Notes:         in.Notes,
	}
	return tx.Create(&item).Error
}

// applyUpdate replaces quantity and, when requested, the option set on one
// line. Quantity zero removes the line.
func (s *CartService) applyUpdate(tx *gorm.DB, cart *models.SharedCart, in MutationInput) error {
	line := findLine(cart, in.ItemID)
	if line == nil {
		return &NotFoundError{Resource: "cart item"}
	}
	if in.Quantity < 0 {
		return &ValidationError{Message: "quantity must not be negative"}
	}
	if in.Quantity == 0 {
		return tx.Delete(&models.CartItem{}, line.ID).Error
	}

	var item models.CartItem
	if err := tx.First(&item, line.ID).Error; err != nil {
		return err
	}

	item.Quantity = in.Quantity
	if in.ReplaceOptions {
		var sess models.TableSession
		if err := tx.First(&sess, cart.SessionID).Error; err != nil {
			return err
		}
		menu, err := loadMenu(tx, item.MenuID, sess.StoreID)
		if err != nil {
			return err
		}
		selections, err := resolveSelections(menu, in.Options)
		if err != nil {
			return err
		}
		item.Options = selections
		item.UnitPrice = unitPrice(menu, selections)
	}
	if in.Notes != "" {
		item.Notes = in.Notes
	}
	item.LineTotal = LineTotal(item.UnitPrice, item.Quantity)
	return tx.Save(&item).Error
}

func (s *CartService) applyRemove(tx *gorm.DB, cart *models.SharedCart, in MutationInput) error {
	line := findLine(cart, in.ItemID)
	if line == nil {
		return &NotFoundError{Resource: "cart item"}
	}
	return tx.Delete(&models.CartItem{}, line.ID).Error
}

func findLine(cart *models.SharedCart, itemID uint) *models.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return &cart.Items[i]
		}
	}
	return nil
}

// Get returns the cart with items for the session, without mutating it.
func (s *CartService) Get(sessionID, participantID uint) (*models.SharedCart, error) {
	if _, _, err := RequireOpenSession(s.DB, sessionID); err != nil {
		return nil, err
	}
	if _, err := requireParticipant(s.DB, sessionID, participantID); err != nil {
		return nil, err
	}
	var cart models.SharedCart
	if err := s.DB.Preload("Items").
		Where("session_id = ?", sessionID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}
