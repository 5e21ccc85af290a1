package pricing

import (
	"fmt"
	"testing"
	"time"

	"event-ticketing/apperrors"
	eventModel "event-ticketing/models/event"
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
	require.NoError(t, db.AutoMigrate(&eventModel.Event{}, &eventModel.TicketCategory{}, &ticketModel.Ticket{}))
	return db
}

func newEvent(t *testing.T, db *gorm.DB, total, limit int) *eventModel.Event {
	t.Helper()
	ev := &eventModel.Event{
		Title:         "Summer Festival",
		OrganizerName: "Org",
		Date:          time.Now().Add(48 * time.Hour),
		Status:        eventModel.StatusUpcoming,
		TotalTickets:  total,
		TicketLimit:   limit,
	}
	require.NoError(t, db.Create(ev).Error)
	return ev
}

func seedTickets(t *testing.T, db *gorm.DB, ev *eventModel.Event, category string, n int, status ticketModel.Status) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&ticketModel.Ticket{
			ID:           uuid.NewString(),
			TicketNumber: ticketModel.NewTicketNumber(ev.ID, uuid.NewString()),
			EventID:      ev.ID,
			HolderID:     uuid.NewString(),
			Category:     category,
			Price:        decimal.NewFromInt(100),
			Status:       status,
			PurchaseDate: time.Now(),
		}).Error)
	}
}

func TestResolveCategoryPrice(t *testing.T) {
	db := setupTestDB(t)
	ev := newEvent(t, db, 100, 10)
	require.NoError(t, db.Create(&eventModel.TicketCategory{
		EventID:  ev.ID,
		Name:     "vip",
		Price:    decimal.NewFromInt(500),
		Quantity: 20,
	}).Error)

	quote, err := Resolve(db, ev, "vip", 2)
	require.NoError(t, err)
	assert.True(t, quote.UnitPrice.Equal(decimal.NewFromInt(500)))
	assert.True(t, quote.CategoryFound)
	assert.EqualValues(t, 20, quote.Remaining)
}

func TestResolveFallbackToStartingPrice(t *testing.T) {
	db := setupTestDB(t)
	ev := newEvent(t, db, 100, 10)
	sp := decimal.NewFromInt(150)
	ev.StartingPrice = &sp
	require.NoError(t, db.Save(ev).Error)

	quote, err := Resolve(db, ev, "general", 1)
	require.NoError(t, err)
	assert.True(t, quote.UnitPrice.Equal(sp))
	assert.False(t, quote.CategoryFound)
}

func TestResolveFallbackToDefaultPrice(t *testing.T) {
	db := setupTestDB(t)
	ev := newEvent(t, db, 100, 10)

	quote, err := Resolve(db, ev, "general", 1)
	require.NoError(t, err)
	assert.True(t, quote.UnitPrice.Equal(DefaultUnitPrice))
}

func TestResolveInvalidQuantity(t *testing.T) {
	db := setupTestDB(t)
	ev := newEvent(t, db, 100, 10)

	_, err := Resolve(db, ev, "general", 0)
	require.Error(t, err)
	assert.Equal(t, "INVALID_QUANTITY", apperrors.CodeOf(err))

	_, err = Resolve(db, ev, "general", -3)
	require.Error(t, err)
	assert.Equal(t, "INVALID_QUANTITY", apperrors.CodeOf(err))
}

func TestResolveTicketLimit(t *testing.T) {
	db := setupTestDB(t)
	ev := newEvent(t, db, 100, 4)

	_, err := Resolve(db, ev, "general", 5)
	require.Error(t, err)
	assert.Equal(t, "TICKET_LIMIT_EXCEEDED", apperrors.CodeOf(err))

	_, err = Resolve(db, ev, "general", 4)
	assert.NoError(t, err)
}

func TestResolveCategoryCapacityBoundary(t *testing.T) {
	db := setupTestDB(t)
	ev := newEvent(t, db, 100, 10)
	require.NoError(t, db.Create(&eventModel.TicketCategory{
		EventID:  ev.ID,
		Name:     "vip",
		Price:    decimal.NewFromInt(500),
		Quantity: 5,
	}).Error)
	seedTickets(t, db, ev, "vip", 3, ticketModel.StatusValid)

	// Exactly the remaining quantity succeeds.
	quote, err := Resolve(db, ev, "vip", 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, quote.Remaining)

	// One more fails and reports what is left.
	_, err = Resolve(db, ev, "vip", 3)
	require.Error(t, err)
	ae, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "INSUFFICIENT_TICKETS", ae.Code)
	require.NotNil(t, ae.Remaining)
	assert.EqualValues(t, 2, *ae.Remaining)
}

func TestResolveRefundedTicketsReleaseCapacity(t *testing.T) {
	db := setupTestDB(t)
	ev := newEvent(t, db, 100, 10)
	require.NoError(t, db.Create(&eventModel.TicketCategory{
		EventID:  ev.ID,
		Name:     "vip",
		Price:    decimal.NewFromInt(500),
		Quantity: 3,
	}).Error)
	seedTickets(t, db, ev, "vip", 2, ticketModel.StatusValid)
	seedTickets(t, db, ev, "vip", 1, ticketModel.StatusUsed)
	seedTickets(t, db, ev, "vip", 4, ticketModel.StatusRefunded)

	// Valid and used consume capacity, refunded do not.
	_, err := Resolve(db, ev, "vip", 1)
	require.Error(t, err)
	ae, ok := apperrors.As(err)
	require.True(t, ok)
	assert.EqualValues(t, 0, *ae.Remaining)
}

func TestResolveEventLevelCapacity(t *testing.T) {
	db := setupTestDB(t)
	ev := newEvent(t, db, 5, 10)
	seedTickets(t, db, ev, "general", 4, ticketModel.StatusValid)

	quote, err := Resolve(db, ev, "general", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, quote.Remaining)

	_, err = Resolve(db, ev, "general", 2)
	require.Error(t, err)
	assert.Equal(t, "INSUFFICIENT_TICKETS", apperrors.CodeOf(err))
}
