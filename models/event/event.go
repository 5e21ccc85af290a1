package event

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventStatus represents the lifecycle state of an event
type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

// TransferFeeType selects how the ticket transfer fee is computed
type TransferFeeType string

const (
	TransferFeeFlat       TransferFeeType = "flat"
	TransferFeePercentage TransferFeeType = "percentage"
)

// Event represents a scannable event with a fixed ticket inventory.
// Availability is always derived from counting issued tickets, never stored.
type Event struct {
	ID            uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string      `gorm:"type:varchar(200);not null;index" json:"title"`
	Description   string      `gorm:"type:text" json:"description"`
	OrganizerName string      `gorm:"type:varchar(255);not null" json:"organizer_name"`
	VenueName     string      `gorm:"type:varchar(255)" json:"venue_name"`
	Date          time.Time   `gorm:"not null;index" json:"date"`
	Status        EventStatus `gorm:"type:varchar(20);not null;default:'upcoming';index" json:"status"`

	TotalTickets int `gorm:"not null" json:"total_tickets"`
	// TicketLimit caps the quantity of a single booking.
	TicketLimit int `gorm:"not null;default:10" json:"ticket_limit"`

	TicketTransferEnabled bool             `gorm:"default:true" json:"ticket_transfer_enabled"`
	TransferFeeType       TransferFeeType  `gorm:"type:varchar(20);default:'flat'" json:"transfer_fee_type"`
	TransferFeeValue      decimal.Decimal  `gorm:"type:decimal(10,2);default:0" json:"transfer_fee_value"`
	StartingPrice         *decimal.Decimal `gorm:"type:decimal(10,2)" json:"starting_price,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Event model
func (Event) TableName() string {
	return "events"
}

// ScanningEnabled reports whether ushers may admit attendees for this event
func (e *Event) ScanningEnabled() bool {
	switch e.Status {
	case StatusUpcoming, StatusOngoing:
		return true
	default:
		return false
	}
}

// TransferFee computes the fee charged to move a ticket of the given price
// to a new holder, per this event's configuration.
func (e *Event) TransferFee(ticketPrice decimal.Decimal) decimal.Decimal {
	if e.TransferFeeValue.IsZero() {
		return decimal.Zero
	}
	if e.TransferFeeType == TransferFeePercentage {
		return ticketPrice.Mul(e.TransferFeeValue).Div(decimal.NewFromInt(100))
	}
	return e.TransferFeeValue
}

// TicketCategory configures price and quantity for one category label of an event.
// Bookings for a label with no category row fall back to the event's starting price.
type TicketCategory struct {
	ID       uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID  uint            `gorm:"not null;index:idx_event_category,unique" json:"event_id"`
	Event    Event           `gorm:"foreignKey:EventID" json:"-"`
	Name     string          `gorm:"type:varchar(50);not null;index:idx_event_category,unique" json:"name"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity int             `gorm:"not null" json:"quantity"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the TicketCategory model
func (TicketCategory) TableName() string {
	return "ticket_categories"
}
