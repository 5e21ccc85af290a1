package customer

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// CustomerStatus represents the lifecycle state of a customer account
type CustomerStatus string

const (
	StatusPending   CustomerStatus = "pending"
	StatusActive    CustomerStatus = "active"
	StatusSuspended CustomerStatus = "suspended"
)

// Customer represents a registered attendee, identified by a unique mobile number.
// Tickets reference customers both as holder (current possessor) and buyer (payer).
type Customer struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	MobileNumber string         `gorm:"type:varchar(20);not null;unique;index" json:"mobile_number"`
	Email        *string        `gorm:"type:varchar(255)" json:"email,omitempty"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Status       CustomerStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	EmergencyContactName   *string `gorm:"type:varchar(255)" json:"emergency_contact_name,omitempty"`
	EmergencyContactMobile *string `gorm:"type:varchar(20)" json:"emergency_contact_mobile,omitempty"`
	BloodType              *string `gorm:"type:varchar(5)" json:"blood_type,omitempty"`
	ProfileImageURL        *string `gorm:"type:varchar(2048)" json:"profile_image_url,omitempty"`

	FeesPaid      bool            `gorm:"default:false" json:"fees_paid"`
	TotalBookings int             `gorm:"default:0" json:"total_bookings"`
	TotalSpent    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_spent"`
	LastLogin     *time.Time      `json:"last_login,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// SetPassword hashes and stores the given plaintext password
func (c *Customer) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether the given plaintext matches the stored hash
func (c *Customer) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(plain)) == nil
}

// IsActive reports whether the account may log in, receive transfers, or hold cards
func (c *Customer) IsActive() bool {
	return c.Status == StatusActive
}

// Dependent represents a child or other dependent accompanying a customer
type Dependent struct {
	ID           uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID   string   `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer     Customer `gorm:"foreignKey:CustomerID" json:"-"`
	Name         string   `gorm:"type:varchar(255);not null" json:"name"`
	Age          *int     `json:"age,omitempty"`
	Relationship string   `gorm:"type:varchar(50)" json:"relationship"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the Dependent model
func (Dependent) TableName() string {
	return "dependents"
}
