package registration

import (
	"time"
)

// PendingRegistration holds the state of a multi-step signup between the
// initial request and the finalize step. One row per mobile number; consumed
// (deleted) by the finalize operation and ignored once expired.
type PendingRegistration struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	MobileNumber string  `gorm:"type:varchar(20);not null;unique;index" json:"mobile_number"`
	Name         string  `gorm:"type:varchar(255);not null" json:"name"`
	Email        *string `gorm:"type:varchar(255)" json:"email,omitempty"`

	EmergencyContactName   *string `gorm:"type:varchar(255)" json:"emergency_contact_name,omitempty"`
	EmergencyContactMobile *string `gorm:"type:varchar(20)" json:"emergency_contact_mobile,omitempty"`
	BloodType              *string `gorm:"type:varchar(5)" json:"blood_type,omitempty"`

	MobileVerified bool      `gorm:"default:false" json:"mobile_verified"`
	ExpiresAt      time.Time `gorm:"not null;index" json:"expires_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the PendingRegistration model
func (PendingRegistration) TableName() string {
	return "pending_registrations"
}

// IsExpired checks if the signup session has lapsed
func (p *PendingRegistration) IsExpired() bool {
	return time.Now().After(p.ExpiresAt)
}

// Touch extends the session by another ten minute window after a successful
// step.
func (p *PendingRegistration) Touch() {
	p.ExpiresAt = time.Now().Add(10 * time.Minute)
}
