package models

import "time"

// Order statuses, advanced only forward by staff. CANCELLED is reachable
// from any non-terminal status.
const (
	OrderPlaced    = "placed"
	OrderAccepted  = "accepted"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderServed    = "served"
	OrderCancelled = "cancelled"
)

var orderStatusRank = map[string]int{
	OrderPlaced:    0,
	OrderAccepted:  1,
	OrderPreparing: 2,
	OrderReady:     3,
	OrderServed:    4,
}

// Order is the immutable snapshot produced from a cart at placement time.
// Item snapshots and totals never change after creation; only the status
// fields advance.
type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	OrderNumber   string      `gorm:"type:varchar(40);uniqueIndex;not null" json:"order_number"`
	StoreID       uint        `gorm:"not null;index" json:"store_id"`
	TableID       uint        `gorm:"not null" json:"table_id"`
	SessionID     uint        `gorm:"not null;index" json:"session_id"`
	RoundNumber   int         `gorm:"not null" json:"round_number"`
	Status        string      `gorm:"type:varchar(20);not null;default:'placed'" json:"status"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Subtotal      float64     `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	TaxAmount     float64     `gorm:"type:decimal(10,2);not null" json:"tax_amount"`
	ServiceCharge float64     `gorm:"type:decimal(10,2);not null" json:"service_charge"`
	GrandTotal    float64     `gorm:"type:decimal(10,2);not null" json:"grand_total"`
	PlacedAt      time.Time   `gorm:"not null" json:"placed_at"`
	CreatedAt     time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
}

// OrderStatusTerminal reports whether no further transition is allowed.
func OrderStatusTerminal(status string) bool {
	return status == OrderServed || status == OrderCancelled
}

// OrderStatusCanAdvance validates a forward-only transition. Cancelling
// is allowed from any non-terminal status.
func OrderStatusCanAdvance(from, to string) bool {
	if OrderStatusTerminal(from) {
		return false
	}
	if to == OrderCancelled {
		return true
	}
	fromRank, ok := orderStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := orderStatusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
