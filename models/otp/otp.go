package otp

import (
	"time"
)

// OTP represents a one-time code bound to a phone number and a purpose.
// Codes are single-use, time-limited and purpose-scoped.
type OTP struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Phone         string     `gorm:"type:varchar(20);not null;index" json:"phone"`
	Code          string     `gorm:"type:varchar(6);not null" json:"-"`
	Purpose       Purpose    `gorm:"type:varchar(50);not null;index" json:"purpose"`
	IsUsed        bool       `gorm:"default:false;index" json:"is_used"`
	RetryCount    int        `gorm:"default:0" json:"retry_count"`
	MaxRetries    int        `gorm:"default:3" json:"max_retries"`
	IsBlocked     bool       `gorm:"default:false" json:"is_blocked"`
	BlockedUntil  *time.Time `gorm:"index" json:"blocked_until,omitempty"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	ExpiresAt     time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the OTP model
func (OTP) TableName() string {
	return "otps"
}

// Purpose scopes an OTP to the flow that requested it
type Purpose string

const (
	PurposeRegistration         Purpose = "registration"
	PurposeLogin                Purpose = "login"
	PurposeForgotPassword       Purpose = "forgot_password"
	PurposeCustomerVerification Purpose = "customer_verification"
)

// IsExpired checks if the OTP has expired
func (o *OTP) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}

// IsValid checks if the OTP is usable (not used, not expired, not blocked)
func (o *OTP) IsValid() bool {
	return !o.IsUsed && !o.IsExpired() && !o.IsBlocked
}

// IsCurrentlyBlocked checks if verification is blocked due to failed attempts
func (o *OTP) IsCurrentlyBlocked() bool {
	if !o.IsBlocked {
		return false
	}
	if o.BlockedUntil != nil && time.Now().After(*o.BlockedUntil) {
		return false
	}
	return true
}

// IncrementRetry records a failed verification attempt, blocking the code for
// 15 minutes once max retries is exceeded.
func (o *OTP) IncrementRetry() {
	now := time.Now()
	o.RetryCount++
	o.LastAttemptAt = &now

	if o.RetryCount >= o.MaxRetries {
		o.IsBlocked = true
		blockUntil := now.Add(15 * time.Minute)
		o.BlockedUntil = &blockUntil
	}
}
