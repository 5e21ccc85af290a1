package ticket

import (
	"strings"
	"testing"

	"event-ticketing/models/customer"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusValid.CanTransitionTo(StatusUsed))
	assert.True(t, StatusValid.CanTransitionTo(StatusRefunded))
	assert.True(t, StatusValid.CanTransitionTo(StatusBanned))

	// All non-valid statuses are terminal.
	for _, from := range []Status{StatusUsed, StatusRefunded, StatusBanned} {
		assert.True(t, from.IsTerminal())
		for _, to := range []Status{StatusValid, StatusUsed, StatusRefunded, StatusBanned} {
			assert.False(t, from.CanTransitionTo(to), "%s -> %s must be rejected", from, to)
		}
	}
}

func TestOwnershipStateExclusive(t *testing.T) {
	holder := uuid.NewString()

	owned := Ticket{HolderID: holder}
	state := owned.Ownership()
	assert.Equal(t, Owned, state.Kind)
	assert.Equal(t, holder, state.HolderID)
	assert.Nil(t, state.Pending)

	pending := Ticket{
		HolderID:       holder,
		AssignedName:   strPtr("Dana"),
		AssignedMobile: strPtr("8801755555555"),
	}
	state = pending.Ownership()
	assert.Equal(t, AssignedPending, state.Kind)
	assert.Equal(t, holder, state.HolderID, "holder is retained while pending")
	assert.NotNil(t, state.Pending)
	assert.Equal(t, "Dana", state.Pending.Name)

	// An empty assigned mobile never produces the pending state.
	empty := Ticket{HolderID: holder, AssignedMobile: strPtr("")}
	assert.Equal(t, Owned, empty.Ownership().Kind)
}

func TestVisibleTo(t *testing.T) {
	holder := &customer.Customer{ID: uuid.NewString(), MobileNumber: "8801711111111"}
	buyer := &customer.Customer{ID: uuid.NewString(), MobileNumber: "8801722222222"}
	recipient := &customer.Customer{ID: uuid.NewString(), MobileNumber: "8801733333333"}
	stranger := &customer.Customer{ID: uuid.NewString(), MobileNumber: "8801744444444"}

	plain := Ticket{HolderID: holder.ID, BuyerID: &buyer.ID}
	assert.True(t, plain.VisibleTo(holder))
	assert.False(t, plain.VisibleTo(buyer), "a buyer without a pending assignment sees nothing")
	assert.False(t, plain.VisibleTo(stranger))

	pending := Ticket{
		HolderID:       holder.ID,
		BuyerID:        &buyer.ID,
		AssignedMobile: &recipient.MobileNumber,
	}
	assert.True(t, pending.VisibleTo(holder))
	assert.True(t, pending.VisibleTo(buyer), "the buyer sees a ticket still awaiting its recipient")
	assert.True(t, pending.VisibleTo(recipient), "the earmarked person sees the ticket")
	assert.False(t, pending.VisibleTo(stranger))
}

func TestNewTicketNumber(t *testing.T) {
	eventID := uint(42)
	buyerID := uuid.NewString()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		num := NewTicketNumber(eventID, buyerID)
		assert.True(t, strings.HasPrefix(num, "42-"))
		assert.False(t, seen[num], "ticket numbers must not repeat")
		seen[num] = true
	}
}
