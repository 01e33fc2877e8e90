package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// OptionSelection is one chosen option value on a cart line. The set is
// stored as JSON on the line; prices are snapshotted at selection time.
type OptionSelection struct {
	GroupID    uint    `json:"group_id"`
	ValueID    uint    `json:"value_id"`
	GroupName  string  `json:"group_name"`
	ValueName  string  `json:"value_name"`
	PriceDelta float64 `json:"price_delta"`
}

type CartItem struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	CartID        uint              `gorm:"not null;index" json:"cart_id"`
	MenuID        uint              `gorm:"not null" json:"menu_id"`
	MenuName      string            `gorm:"type:varchar(255);not null" json:"menu_name"`
	ParticipantID uint              `gorm:"not null;index" json:"participant_id"`
	Quantity      int               `gorm:"not null" json:"quantity"`
	UnitPrice     float64           `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Options       []OptionSelection `gorm:"serializer:json" json:"options"`
	LineTotal     float64           `gorm:"type:decimal(10,2);not null" json:"line_total"`
	Notes         string            `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null" json:"updated_at"`
}

// OptionSignature returns a canonical key for an option set so that two
// lines with the same selections compare equal regardless of order.
func OptionSignature(opts []OptionSelection) string {
	if len(opts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(opts))
	for _, o := range opts {
		keys = append(keys, fmt.Sprintf("%d:%d", o.GroupID, o.ValueID))
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// MergesWith reports whether an incoming ADD for the same menu item,
// option set and participant should fold into this line.
func (ci *CartItem) MergesWith(menuID, participantID uint, opts []OptionSelection) bool {
	return ci.MenuID == menuID &&
		ci.ParticipantID == participantID &&
		OptionSignature(ci.Options) == OptionSignature(opts)
}
