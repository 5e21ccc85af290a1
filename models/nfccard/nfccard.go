package nfccard

import (
	"time"

	"event-ticketing/models/customer"
)

// CardStatus represents the lifecycle state of a physical card, independent
// of any ticket.
type CardStatus string

const (
	StatusPending  CardStatus = "pending"
	StatusActive   CardStatus = "active"
	StatusInactive CardStatus = "inactive"
)

// NFCCard links a physical serial number to at most one customer at a time.
// A card is a credential, not a ticket: check-in resolves card -> customer ->
// candidate ticket.
type NFCCard struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SerialNumber string `gorm:"type:varchar(100);not null;unique;index" json:"serial_number"`

	CustomerID *string            `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Customer   *customer.Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Status     CardStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	HashedCode string     `gorm:"type:varchar(128)" json:"-"`

	AssignedAt *time.Time `json:"assigned_at,omitempty"`
	LastUsed   *time.Time `json:"last_used,omitempty"`
	UsageCount int        `gorm:"default:0" json:"usage_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the NFCCard model
func (NFCCard) TableName() string {
	return "nfc_cards"
}

// IsScannable reports whether the card can be used to admit its holder
func (c *NFCCard) IsScannable() bool {
	return c.Status == StatusActive && c.CustomerID != nil
}
