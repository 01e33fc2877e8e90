package models

import "time"

// Order confirmation modes. AUTO accepts an order as soon as it is
// placed; MANUAL leaves it PLACED until staff accept it.
const (
	ConfirmAuto   = "auto"
	ConfirmManual = "manual"
)

// Store carries the pricing and session settings consumed by the cart
// engine and the order coordinator.
type Store struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Name               string    `gorm:"type:varchar(255);not null" json:"name"`
	TaxRate            float64   `gorm:"type:decimal(6,4);not null;default:0" json:"tax_rate"`
	ServiceChargeRate  float64   `gorm:"type:decimal(6,4);not null;default:0" json:"service_charge_rate"`
	TaxIncluded        bool      `gorm:"not null;default:false" json:"tax_included"`
	OrderConfirmMode   string    `gorm:"type:varchar(20);not null;default:'auto'" json:"order_confirm_mode"`
	SessionTTLMinutes  int       `gorm:"not null;default:180" json:"session_ttl_minutes"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}
