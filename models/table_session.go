package models

import "time"

// TableSession statuses. CLOSED and EXPIRED are terminal.
const (
	SessionOpen    = "open"
	SessionClosed  = "closed"
	SessionExpired = "expired"
)

// TableSession is one seating occasion at one table. At most one OPEN
// session exists per table; expiry is detected lazily on access.
type TableSession struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	StoreID uint   `gorm:"not null;index" json:"store_id"`
	TableID uint   `gorm:"not null;index;uniqueIndex:idx_table_open" json:"table_id"`
	Table   Table  `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Status  string `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	// OpenSlot is non-NULL exactly while Status is OPEN and is cleared on
	// close or expiry. The unique index on (table_id, open_slot) makes a
	// concurrent second first-join a constraint violation instead of a
	// second OPEN session.
	OpenSlot       *bool      `gorm:"uniqueIndex:idx_table_open" json:"-"`
	CurrentRound   int        `gorm:"not null;default:1" json:"current_round"`
	LastActivityAt time.Time  `gorm:"not null" json:"last_activity_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

// Expired reports whether an OPEN session has outlived the store TTL.
func (s *TableSession) Expired(ttl time.Duration, now time.Time) bool {
	return s.Status == SessionOpen && now.Sub(s.LastActivityAt) > ttl
}
