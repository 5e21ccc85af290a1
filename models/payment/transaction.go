package payment

import (
	"time"

	"event-ticketing/models/customer"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents the state of a payment transaction
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction records one charge or refund settled through the payment
// collaborator. Refunds carry a negative amount.
type Transaction struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID string `gorm:"type:varchar(100);not null;unique;index" json:"transaction_id"`

	CustomerID string            `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   customer.Customer `gorm:"foreignKey:CustomerID" json:"-"`

	EventID  *uint   `gorm:"index" json:"event_id,omitempty"`
	TicketID *string `gorm:"type:uuid;index" json:"ticket_id,omitempty"`

	Amount        decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod string            `gorm:"type:varchar(50);not null" json:"payment_method"`
	Status        TransactionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the Transaction model
func (Transaction) TableName() string {
	return "payment_transactions"
}
