package models

import "time"

// SharedCart is the single versioned order-in-progress of a session.
// Version advances by exactly one per committed mutation; the totals
// columns are recomputed from the item sequence on every mutation and
// never written independently.
type SharedCart struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	SessionID     uint       `gorm:"not null;uniqueIndex" json:"session_id"`
	Version       uint64     `gorm:"not null;default:0" json:"version"`
	Items         []CartItem `gorm:"foreignKey:CartID" json:"items"`
	Subtotal      float64    `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`
	TaxAmount     float64    `gorm:"type:decimal(10,2);not null;default:0" json:"tax_amount"`
	ServiceCharge float64    `gorm:"type:decimal(10,2);not null;default:0" json:"service_charge"`
	GrandTotal    float64    `gorm:"type:decimal(10,2);not null;default:0" json:"grand_total"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}
