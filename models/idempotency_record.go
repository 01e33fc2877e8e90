package models

import "time"

// IdempotencyRecord maps a client-supplied placement key, scoped to one
// session, to the order it produced. It is written in the same transaction
// as the order so a retry can never create a second order under the key.
type IdempotencyRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;uniqueIndex:idx_session_key" json:"session_id"`
	Key       string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_session_key" json:"key"`
	OrderID   uint      `gorm:"not null" json:"order_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
