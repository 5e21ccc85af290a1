package ticket

import (
	"time"

	"event-ticketing/models/customer"
)

// TransferStatus represents the state of a transfer record
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
)

// TicketTransfer is the append-only log of completed ownership changes. A
// transfer to an unregistered recipient produces no row until the recipient
// registers or logs in and linking completes it; until then the pending state
// lives on the ticket's assignment fields.
type TicketTransfer struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	TicketID string `gorm:"type:uuid;not null;index" json:"ticket_id"`
	Ticket   Ticket `gorm:"foreignKey:TicketID" json:"-"`

	FromCustomerID string            `gorm:"type:uuid;not null;index" json:"from_customer_id"`
	FromCustomer   customer.Customer `gorm:"foreignKey:FromCustomerID" json:"-"`
	ToCustomerID   string            `gorm:"type:uuid;not null;index" json:"to_customer_id"`
	ToCustomer     customer.Customer `gorm:"foreignKey:ToCustomerID" json:"-"`

	TransferDate time.Time      `gorm:"not null;index" json:"transfer_date"`
	Status       TransferStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the TicketTransfer model
func (TicketTransfer) TableName() string {
	return "ticket_transfers"
}
