package models

import "time"

// Menu is the read-only catalog entry used to validate cart payloads and
// to snapshot names/prices into cart and order lines. Catalog CRUD itself
// lives outside this service.
type Menu struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	StoreID      uint              `gorm:"not null;index" json:"store_id"`
	CategoryID   uint              `gorm:"not null" json:"category_id"`
	Category     MenuCategory      `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category"`
	Name         string            `gorm:"type:varchar(255);not null" json:"name"`
	BasePrice    float64           `gorm:"type:decimal(10,2);not null" json:"base_price"`
	Available    bool              `gorm:"not null;default:true" json:"available"`
	Description  string            `gorm:"type:text" json:"description"`
	OptionGroups []MenuOptionGroup `gorm:"foreignKey:MenuID" json:"option_groups"`
	CreatedAt    time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null" json:"updated_at"`
}

type MenuOptionGroup struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	MenuID    uint              `gorm:"not null;index" json:"menu_id"`
	Name      string            `gorm:"type:varchar(100);not null" json:"name"`
	Required  bool              `gorm:"not null;default:false" json:"required"`
	Values    []MenuOptionValue `gorm:"foreignKey:GroupID" json:"values"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`
}

type MenuOptionValue struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GroupID    uint      `gorm:"not null;index" json:"group_id"`
	Name       string    `gorm:"type:varchar(100);not null" json:"name"`
	PriceDelta float64   `gorm:"type:decimal(10,2);not null;default:0" json:"price_delta"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}
