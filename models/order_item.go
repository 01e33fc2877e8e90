package models

import "time"

// Per-item kitchen statuses.
const (
	ItemPlaced    = "placed"
	ItemPreparing = "preparing"
	ItemReady     = "ready"
	ItemServed    = "served"
	ItemCancelled = "cancelled"
)

var itemStatusRank = map[string]int{
	ItemPlaced:    0,
	ItemPreparing: 1,
	ItemReady:     2,
	ItemServed:    3,
}

// OrderItem is the immutable per-line snapshot inside an order. Only the
// Status column ever changes after creation.
type OrderItem struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	OrderID       uint              `gorm:"not null;index" json:"order_id"`
	Order         Order             `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuID        uint              `gorm:"not null" json:"menu_id"`
	MenuName      string            `gorm:"type:varchar(255);not null" json:"menu_name"`
	ParticipantID uint              `gorm:"not null" json:"participant_id"`
	Quantity      int               `gorm:"not null" json:"quantity"`
	UnitPrice     float64           `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Options       []OptionSelection `gorm:"serializer:json" json:"options"`
	LineTotal     float64           `gorm:"type:decimal(10,2);not null" json:"line_total"`
	Notes         string            `gorm:"type:text" json:"notes"`
	Status        string            `gorm:"type:varchar(20);not null;default:'placed'" json:"status"`
	CreatedAt     time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null" json:"updated_at"`
}

func ItemStatusTerminal(status string) bool {
	return status == ItemServed || status == ItemCancelled
}

func ItemStatusCanAdvance(from, to string) bool {
	if ItemStatusTerminal(from) {
		return false
	}
	if to == ItemCancelled {
		return true
	}
	fromRank, ok := itemStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := itemStatusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
