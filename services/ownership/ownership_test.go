package ownership

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"event-ticketing/apperrors"
	customerModel "event-ticketing/models/customer"
	eventModel "event-ticketing/models/event"
	paymentModel "event-ticketing/models/payment"
	ticketModel "event-ticketing/models/ticket"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerModel.Customer{},
		&eventModel.Event{},
		&eventModel.TicketCategory{},
		&ticketModel.Ticket{},
		&ticketModel.TicketTransfer{},
		&paymentModel.Transaction{},
	))
	return db
}

func newCustomer(t *testing.T, db *gorm.DB, mobile string) *customerModel.Customer {
	t.Helper()
	c := &customerModel.Customer{
		ID:           uuid.NewString(),
		Name:         "Customer " + mobile,
		MobileNumber: mobile,
		Status:       customerModel.StatusActive,
	}
	require.NoError(t, c.SetPassword("secret123"))
	require.NoError(t, db.Create(c).Error)
	return c
}

func newEvent(t *testing.T, db *gorm.DB) *eventModel.Event {
	t.Helper()
	sp := decimal.NewFromInt(100)
	ev := &eventModel.Event{
		Title:                 "Concert",
		OrganizerName:         "Org",
		Date:                  time.Now().Add(72 * time.Hour),
		Status:                eventModel.StatusUpcoming,
		TotalTickets:          50,
		TicketLimit:           10,
		TicketTransferEnabled: true,
		StartingPrice:         &sp,
	}
	require.NoError(t, db.Create(ev).Error)
	return ev
}

func issueOne(t *testing.T, svc *Service, buyer *customerModel.Customer, ev *eventModel.Event) *ticketModel.Ticket {
	t.Helper()
	result, err := svc.Issue(IssueInput{
		BuyerID:       buyer.ID,
		EventID:       ev.ID,
		Category:      "general",
		Quantity:      1,
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	require.Len(t, result.Tickets, 1)
	return &result.Tickets[0]
}

func reload(t *testing.T, db *gorm.DB, id string) *ticketModel.Ticket {
	t.Helper()
	var tk ticketModel.Ticket
	require.NoError(t, db.First(&tk, "id = ?", id).Error)
	return &tk
}

func TestIssueSetsBuyerAndHolder(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	buyer := newCustomer(t, db, "8801711111111")
	ev := newEvent(t, db)

	tk := issueOne(t, svc, buyer, ev)

	assert.Equal(t, buyer.ID, tk.HolderID)
	require.NotNil(t, tk.BuyerID)
	assert.Equal(t, buyer.ID, *tk.BuyerID)
	assert.Equal(t, ticketModel.StatusValid, tk.Status)
	assert.True(t, tk.Price.Equal(decimal.NewFromInt(100)))

	var txn paymentModel.Transaction
	require.NoError(t, db.Where("customer_id = ?", buyer.ID).First(&txn).Error)
	assert.True(t, txn.Amount.Equal(decimal.NewFromInt(100)))
}

func TestIssueAssignmentToExistingCustomer(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	buyer := newCustomer(t, db, "8801711111111")
	friend := newCustomer(t, db, "8801722222222")
	ev := newEvent(t, db)

	result, err := svc.Issue(IssueInput{
		BuyerID:       buyer.ID,
		EventID:       ev.ID,
		Category:      "general",
		Quantity:      1,
		PaymentMethod: "card",
		Assignments:   []Assignment{{Name: "Friend", Mobile: friend.MobileNumber}},
	})
	require.NoError(t, err)

	tk := result.Tickets[0]
	assert.Equal(t, friend.ID, tk.HolderID, "existing customer becomes holder immediately")
	assert.Nil(t, tk.AssignedMobile, "no pending state for a registered recipient")
	require.NotNil(t, tk.BuyerID)
	assert.Equal(t, buyer.ID, *tk.BuyerID, "buyer stays the purchaser")
}

func TestIssueAssignmentToUnknownMobile(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	buyer := newCustomer(t, db, "8801711111111")
	ev := newEvent(t, db)

	result, err := svc.Issue(IssueInput{
		BuyerID:       buyer.ID,
		EventID:       ev.ID,
		Category:      "general",
		Quantity:      1,
		PaymentMethod: "card",
		Assignments:   []Assignment{{Name: "Stranger", Mobile: "8801733333333"}},
	})
	require.NoError(t, err)

	tk := result.Tickets[0]
	assert.Equal(t, buyer.ID, tk.HolderID, "holder stays the buyer while pending")
	require.NotNil(t, tk.AssignedMobile)
	assert.Equal(t, "8801733333333", *tk.AssignedMobile)

	state := tk.Ownership()
	assert.Equal(t, ticketModel.AssignedPending, state.Kind)
	require.NotNil(t, state.Pending)
	assert.Equal(t, "Stranger", state.Pending.Name)
}

func TestIssueCapacityBoundary(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	buyer := newCustomer(t, db, "8801711111111")
	ev := newEvent(t, db)
	ev.TotalTickets = 2
	require.NoError(t, db.Save(ev).Error)

	_, err := svc.Issue(IssueInput{BuyerID: buyer.ID, EventID: ev.ID, Category: "general", Quantity: 2, PaymentMethod: "card"})
	require.NoError(t, err)

	_, err = svc.Issue(IssueInput{BuyerID: buyer.ID, EventID: ev.ID, Category: "general", Quantity: 1, PaymentMethod: "card"})
	require.Error(t, err)
	assert.Equal(t, "INSUFFICIENT_TICKETS", apperrors.CodeOf(err))
}

func TestTransferToExistingCustomer(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	bob := newCustomer(t, db, "8801722222222")
	ev := newEvent(t, db)
	tk := issueOne(t, svc, alice, ev)

	result, err := svc.Transfer(tk.ID, alice.ID, bob.MobileNumber, "", "card")
	require.NoError(t, err)
	assert.True(t, result.RecipientExists)
	assert.Equal(t, bob.ID, result.Ticket.HolderID)
	require.NotNil(t, result.Ticket.BuyerID)
	assert.Equal(t, alice.ID, *result.Ticket.BuyerID, "buyer never changes on transfer")

	var record ticketModel.TicketTransfer
	require.NoError(t, db.Where("ticket_id = ?", tk.ID).First(&record).Error)
	assert.Equal(t, alice.ID, record.FromCustomerID)
	assert.Equal(t, bob.ID, record.ToCustomerID)
	assert.Equal(t, ticketModel.TransferCompleted, record.Status)
}

func TestTransferToUnknownMobileParksPendingAssignment(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	ev := newEvent(t, db)
	tk := issueOne(t, svc, alice, ev)

	result, err := svc.Transfer(tk.ID, alice.ID, "8801799999999", "Carol", "card")
	require.NoError(t, err)
	assert.False(t, result.RecipientExists)
	assert.Equal(t, alice.ID, result.Ticket.HolderID, "holder unchanged while pending")
	require.NotNil(t, result.Ticket.AssignedMobile)
	assert.Equal(t, "8801799999999", *result.Ticket.AssignedMobile)

	var count int64
	require.NoError(t, db.Model(&ticketModel.TicketTransfer{}).Where("ticket_id = ?", tk.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count, "no transfer record until the recipient materializes")
}

func TestTransferDisabledByEvent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	bob := newCustomer(t, db, "8801722222222")
	ev := newEvent(t, db)
	tk := issueOne(t, svc, alice, ev)

	ev.TicketTransferEnabled = false
	require.NoError(t, db.Save(ev).Error)

	_, err := svc.Transfer(tk.ID, alice.ID, bob.MobileNumber, "", "card")
	require.Error(t, err)
	assert.Equal(t, "TRANSFER_DISABLED", apperrors.CodeOf(err))
}

func TestTransferUsedTicketRejected(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	bob := newCustomer(t, db, "8801722222222")
	ev := newEvent(t, db)
	tk := issueOne(t, svc, alice, ev)

	require.NoError(t, db.Model(&ticketModel.Ticket{}).Where("id = ?", tk.ID).
		Update("status", ticketModel.StatusUsed).Error)

	_, err := svc.Transfer(tk.ID, alice.ID, bob.MobileNumber, "", "card")
	require.Error(t, err)
	assert.Equal(t, "INVALID_TICKET", apperrors.CodeOf(err))

	var count int64
	require.NoError(t, db.Model(&ticketModel.TicketTransfer{}).Where("ticket_id = ?", tk.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransferFeeCharged(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	bob := newCustomer(t, db, "8801722222222")
	ev := newEvent(t, db)
	ev.TransferFeeType = eventModel.TransferFeePercentage
	ev.TransferFeeValue = decimal.NewFromInt(10)
	require.NoError(t, db.Save(ev).Error)

	tk := issueOne(t, svc, alice, ev)

	result, err := svc.Transfer(tk.ID, alice.ID, bob.MobileNumber, "", "card")
	require.NoError(t, err)
	assert.True(t, result.Fee.Equal(decimal.NewFromInt(10)), "ten percent of the 100 ticket price")

	var fees []paymentModel.Transaction
	require.NoError(t, db.Where("ticket_id = ?", tk.ID).Find(&fees).Error)
	require.Len(t, fees, 1)
	assert.True(t, fees[0].Amount.Equal(decimal.NewFromInt(10)))
}

func TestGiftRequiresExistingRecipient(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	ev := newEvent(t, db)
	tk := issueOne(t, svc, alice, ev)

	_, err := svc.Gift(tk.ID, alice.ID, "8801799999999")
	require.Error(t, err)
	assert.Equal(t, "RECIPIENT_NOT_FOUND", apperrors.CodeOf(err))

	// The ticket is untouched.
	after := reload(t, db, tk.ID)
	assert.Equal(t, alice.ID, after.HolderID)
	assert.Nil(t, after.AssignedMobile)
}

func TestGiftToExistingCustomer(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	bob := newCustomer(t, db, "8801722222222")
	ev := newEvent(t, db)
	tk := issueOne(t, svc, alice, ev)

	gifted, err := svc.Gift(tk.ID, alice.ID, bob.MobileNumber)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, gifted.HolderID)
	require.NotNil(t, gifted.BuyerID)
	assert.Equal(t, alice.ID, *gifted.BuyerID)
}

func TestLinkClaimsPendingTickets(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	ev := newEvent(t, db)
	tk := issueOne(t, svc, alice, ev)

	_, err := svc.Transfer(tk.ID, alice.ID, "8801755555555", "Dana", "card")
	require.NoError(t, err)

	dana := newCustomer(t, db, "8801755555555")
	linked, err := svc.Link(dana)
	require.NoError(t, err)
	assert.Equal(t, 1, linked)

	after := reload(t, db, tk.ID)
	assert.Equal(t, dana.ID, after.HolderID)
	assert.Nil(t, after.AssignedMobile, "triple cleared on link")
	assert.Nil(t, after.AssignedName)
	require.NotNil(t, after.BuyerID)
	assert.Equal(t, alice.ID, *after.BuyerID, "buyer backfilled once, never overwritten")

	var record ticketModel.TicketTransfer
	require.NoError(t, db.Where("ticket_id = ?", tk.ID).First(&record).Error)
	assert.Equal(t, alice.ID, record.FromCustomerID)
	assert.Equal(t, dana.ID, record.ToCustomerID)
}

func TestLinkIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	ev := newEvent(t, db)
	tk := issueOne(t, svc, alice, ev)

	_, err := svc.Transfer(tk.ID, alice.ID, "8801755555555", "Dana", "card")
	require.NoError(t, err)

	dana := newCustomer(t, db, "8801755555555")
	linked, err := svc.Link(dana)
	require.NoError(t, err)
	assert.Equal(t, 1, linked)

	// A second login runs Link again and finds nothing to do.
	linked, err = svc.Link(dana)
	require.NoError(t, err)
	assert.Equal(t, 0, linked)

	var count int64
	require.NoError(t, db.Model(&ticketModel.TicketTransfer{}).Where("ticket_id = ?", tk.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "exactly one transfer record per completed move")
}

func TestLinkNeverOverwritesBuyer(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	bob := newCustomer(t, db, "8801722222222")
	ev := newEvent(t, db)
	tk := issueOne(t, svc, alice, ev)

	// Alice -> Bob, then Bob parks it for an unregistered Carol.
	_, err := svc.Transfer(tk.ID, alice.ID, bob.MobileNumber, "", "card")
	require.NoError(t, err)
	_, err = svc.Transfer(tk.ID, bob.ID, "8801766666666", "Carol", "card")
	require.NoError(t, err)

	carol := newCustomer(t, db, "8801766666666")
	_, err = svc.Link(carol)
	require.NoError(t, err)

	after := reload(t, db, tk.ID)
	assert.Equal(t, carol.ID, after.HolderID)
	require.NotNil(t, after.BuyerID)
	assert.Equal(t, alice.ID, *after.BuyerID, "buyer is still the original purchaser after two hops")
}

func TestVisibilityRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	ev := newEvent(t, db)
	tk := issueOne(t, svc, alice, ev)

	// Alice sees her own ticket.
	visible, err := svc.VisibleTickets(alice)
	require.NoError(t, err)
	require.Len(t, visible, 1)

	// Parked for unregistered Dana: Alice still sees it as buyer.
	_, err = svc.Transfer(tk.ID, alice.ID, "8801755555555", "Dana", "card")
	require.NoError(t, err)
	visible, err = svc.VisibleTickets(alice)
	require.NoError(t, err)
	require.Len(t, visible, 1, "buyer sees the ticket while the assignment is pending")

	// Dana registers and links: the ticket is hers, Alice no longer sees it.
	dana := newCustomer(t, db, "8801755555555")
	_, err = svc.Link(dana)
	require.NoError(t, err)

	visible, err = svc.VisibleTickets(dana)
	require.NoError(t, err)
	require.Len(t, visible, 1)

	visible, err = svc.VisibleTickets(alice)
	require.NoError(t, err)
	assert.Len(t, visible, 0, "fully transferred away tickets disappear from the buyer's list")
}

func TestRefundReleasesTicket(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	ev := newEvent(t, db)
	tk := issueOne(t, svc, alice, ev)

	refunded, err := svc.Refund(tk.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, ticketModel.StatusRefunded, refunded.Status)

	// A second refund finds no valid ticket.
	_, err = svc.Refund(tk.ID, alice.ID)
	require.Error(t, err)
	assert.Equal(t, "INVALID_TICKET", apperrors.CodeOf(err))

	var txns []paymentModel.Transaction
	require.NoError(t, db.Where("ticket_id = ?", tk.ID).Find(&txns).Error)
	require.Len(t, txns, 1)
	assert.True(t, txns[0].Amount.IsNegative(), "refund recorded with a negative amount")
}

func TestIssueLastSeatConcurrent(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	bob := newCustomer(t, db, "8801722222222")
	ev := newEvent(t, db)
	ev.TotalTickets = 1
	require.NoError(t, db.Save(ev).Error)

	buyers := []*customerModel.Customer{alice, bob}
	errs := make([]error, len(buyers))
	var wg sync.WaitGroup
	for i := range buyers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Issue(IssueInput{
				BuyerID:       buyers[i].ID,
				EventID:       ev.ID,
				Category:      "general",
				Quantity:      1,
				PaymentMethod: "card",
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, e := range errs {
		if e == nil {
			winners++
		} else {
			assert.Equal(t, "INSUFFICIENT_TICKETS", apperrors.CodeOf(e))
		}
	}
	assert.Equal(t, 1, winners, "exactly one booking wins the last seat")

	var count int64
	require.NoError(t, db.Model(&ticketModel.Ticket{}).Where("event_id = ?", ev.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// The loser either failed before charging or had its charge refunded;
	// net collected is one seat's price either way.
	var rows []paymentModel.Transaction
	require.NoError(t, db.Where("event_id = ?", ev.ID).Find(&rows).Error)
	net := decimal.Zero
	for _, r := range rows {
		net = net.Add(r.Amount)
	}
	assert.True(t, net.Equal(decimal.NewFromInt(100)), "net collected equals one seat, got %s", net)
}

func TestTransferFeeRefundedWhenTransferFails(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	alice := newCustomer(t, db, "8801711111111")
	bob := newCustomer(t, db, "8801722222222")
	ev := newEvent(t, db)
	ev.TransferFeeType = eventModel.TransferFeePercentage
	ev.TransferFeeValue = decimal.NewFromInt(10)
	require.NoError(t, db.Save(ev).Error)
	tk := issueOne(t, svc, alice, ev)

	// With the transfer record table gone the ownership move cannot commit.
	require.NoError(t, db.Migrator().DropTable(&ticketModel.TicketTransfer{}))

	_, err := svc.Transfer(tk.ID, alice.ID, bob.MobileNumber, "", "card")
	require.Error(t, err)

	got := reload(t, db, tk.ID)
	assert.Equal(t, alice.ID, got.HolderID)
	assert.Equal(t, ticketModel.StatusValid, got.Status)

	var rows []paymentModel.Transaction
	require.NoError(t, db.Where("ticket_id = ?", tk.ID).Find(&rows).Error)
	net := decimal.Zero
	for _, r := range rows {
		net = net.Add(r.Amount)
	}
	assert.True(t, net.IsZero(), "fee charge and refund net to zero, got %s", net)
}
