package ticket

import (
	"fmt"
	"strings"
	"time"

	"event-ticketing/models/customer"
	"event-ticketing/models/event"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ticket represents one admission right for one event.
//
// Ownership is split across two references: BuyerID is the customer who paid
// and is set once at issuance, HolderID is the customer currently entitled to
// use the ticket. While a ticket is earmarked for a recipient who has no
// account yet, the Assigned* fields carry that recipient's contact details and
// HolderID stays with the previous holder; the two states are mutually
// exclusive (see Ownership).
type Ticket struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"id"`
	TicketNumber string `gorm:"type:varchar(50);not null;unique;index" json:"ticket_number"`

	EventID uint        `gorm:"not null;index;index:idx_ticket_event_status" json:"event_id"`
	Event   event.Event `gorm:"foreignKey:EventID" json:"event,omitempty"`

	HolderID string             `gorm:"type:uuid;not null;index" json:"holder_id"`
	Holder   customer.Customer  `gorm:"foreignKey:HolderID" json:"holder,omitempty"`
	BuyerID  *string            `gorm:"type:uuid;index" json:"buyer_id,omitempty"`
	Buyer    *customer.Customer `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`

	Category string          `gorm:"type:varchar(50);not null" json:"category"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`

	Status       Status     `gorm:"type:varchar(20);not null;default:'valid';index;index:idx_ticket_event_status" json:"status"`
	PurchaseDate time.Time  `gorm:"not null;index" json:"purchase_date"`
	CheckInTime  *time.Time `json:"check_in_time,omitempty"`
	Dependents   int        `gorm:"default:0" json:"dependents"`

	// Pending-assignment triple, set only while the designated recipient
	// has no account yet.
	AssignedName   *string `gorm:"type:varchar(255)" json:"assigned_name,omitempty"`
	AssignedMobile *string `gorm:"type:varchar(20);index" json:"assigned_mobile,omitempty"`
	AssignedEmail  *string `gorm:"type:varchar(255)" json:"assigned_email,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Ticket model
func (Ticket) TableName() string {
	return "tickets"
}

// OwnershipKind discriminates the ticket ownership state
type OwnershipKind string

const (
	// Owned means HolderID alone identifies who may use the ticket.
	Owned OwnershipKind = "owned"
	// AssignedPending means the ticket is earmarked for an unregistered
	// recipient; HolderID still points at the previous holder.
	AssignedPending OwnershipKind = "assigned_pending"
)

// PendingContact is the contact triple of an unregistered recipient
type PendingContact struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Email  string `json:"email"`
}

// OwnershipState is the explicit tagged union over the two legal ownership
// shapes of a ticket.
type OwnershipState struct {
	Kind     OwnershipKind   `json:"kind"`
	HolderID string          `json:"holder_id"`
	Pending  *PendingContact `json:"pending,omitempty"`
}

// Ownership derives the ticket's ownership state from its columns. A non-empty
// assigned mobile is the sole marker of the pending state, so the exclusivity
// invariant holds by construction.
func (t *Ticket) Ownership() OwnershipState {
	if t.AssignedMobile != nil && *t.AssignedMobile != "" {
		pc := &PendingContact{Mobile: *t.AssignedMobile}
		if t.AssignedName != nil {
			pc.Name = *t.AssignedName
		}
		if t.AssignedEmail != nil {
			pc.Email = *t.AssignedEmail
		}
		return OwnershipState{Kind: AssignedPending, HolderID: t.HolderID, Pending: pc}
	}
	return OwnershipState{Kind: Owned, HolderID: t.HolderID}
}

// IsPendingAssignment reports whether the ticket awaits an unregistered recipient
func (t *Ticket) IsPendingAssignment() bool {
	return t.Ownership().Kind == AssignedPending
}

// VisibleTo reports whether the given customer may see this ticket: the
// current holder always can; the buyer can only while a pending assignment
// remains ("bought for someone who hasn't claimed it yet"). A buyer whose
// ticket was fully transferred away no longer sees it.
func (t *Ticket) VisibleTo(c *customer.Customer) bool {
	if t.HolderID == c.ID {
		return true
	}
	if t.AssignedMobile != nil && *t.AssignedMobile == c.MobileNumber {
		return true
	}
	if t.BuyerID != nil && *t.BuyerID == c.ID && t.IsPendingAssignment() {
		return true
	}
	return false
}

// NewTicketNumber builds the human-readable unique ticket number used on QR
// payloads and printed tickets.
func NewTicketNumber(eventID uint, buyerID string) string {
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s-%s", eventID, buyerID[:8], short)
}
