package models

import "time"

const (
	RoleHost  = "host"
	RoleGuest = "guest"
)

// Participant is one joined device/person within a session. Participants
// are deactivated on leave, never deleted, so their cart lines keep an
// owner for the lifetime of the session data.
type Participant struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SessionID   uint      `gorm:"not null;index" json:"session_id"`
	Nickname    string    `gorm:"type:varchar(50);not null" json:"nickname"`
	Role        string    `gorm:"type:varchar(10);not null;default:'guest'" json:"role"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	Color       string    `gorm:"type:varchar(10);not null" json:"color"`
	Fingerprint string    `gorm:"type:varchar(128)" json:"-"`
	Language    string    `gorm:"type:varchar(10)" json:"language"`
	JoinedAt    time.Time `gorm:"not null" json:"joined_at"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
