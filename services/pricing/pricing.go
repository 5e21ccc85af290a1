package pricing

import (
	"errors"
	"fmt"

	"event-ticketing/apperrors"
	eventModel "event-ticketing/models/event"
	ticketModel "event-ticketing/models/ticket"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultUnitPrice applies when an event has neither a category row nor a
// starting price configured.
var DefaultUnitPrice = decimal.NewFromInt(300)

// Quote is the resolved unit price and live availability for one booking
// request.
type Quote struct {
	UnitPrice     decimal.Decimal
	Remaining     int64
	CategoryFound bool
}

// Resolve computes the sellable quantity and fixed unit price for the given
// event and category label. A missing category configuration falls back to
// the event's starting price and event-level capacity; it is not an error.
// Capacity is derived from counting issued tickets, so running Resolve inside
// the issuing transaction keeps it consistent with the ticket store.
func Resolve(tx *gorm.DB, ev *eventModel.Event, category string, quantity int) (*Quote, error) {
	if quantity <= 0 {
		return nil, apperrors.InvalidState("INVALID_QUANTITY", "quantity must be positive")
	}
	if quantity > ev.TicketLimit {
		return nil, apperrors.CapacityExceeded("TICKET_LIMIT_EXCEEDED",
			fmt.Sprintf("Maximum %d tickets per booking allowed.", ev.TicketLimit), int64(ev.TicketLimit))
	}

	var cat eventModel.TicketCategory
	err := tx.Where("event_id = ? AND name = ?", ev.ID, category).First(&cat).Error
	switch {
	case err == nil:
		sold, err := soldCount(tx, ev.ID, &category)
		if err != nil {
			return nil, apperrors.Internal("failed to count sold tickets", err)
		}
		remaining := int64(cat.Quantity) - sold
		if remaining < int64(quantity) {
			return nil, apperrors.CapacityExceeded("INSUFFICIENT_TICKETS",
				fmt.Sprintf("Not enough %s tickets available. Only %d tickets remaining.", category, max64(remaining, 0)),
				max64(remaining, 0))
		}
		return &Quote{UnitPrice: cat.Price, Remaining: remaining, CategoryFound: true}, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		price := DefaultUnitPrice
		if ev.StartingPrice != nil {
			price = *ev.StartingPrice
		}
		sold, err := soldCount(tx, ev.ID, nil)
		if err != nil {
			return nil, apperrors.Internal("failed to count sold tickets", err)
		}
		remaining := int64(ev.TotalTickets) - sold
		if remaining < int64(quantity) {
			return nil, apperrors.CapacityExceeded("INSUFFICIENT_TICKETS",
				fmt.Sprintf("Not enough tickets available. Only %d tickets remaining.", max64(remaining, 0)),
				max64(remaining, 0))
		}
		return &Quote{UnitPrice: price, Remaining: remaining}, nil

	default:
		return nil, apperrors.Internal("failed to load ticket category", err)
	}
}

// soldCount counts tickets that consume capacity: valid and used ones.
// Refunded and banned tickets release their seat.
func soldCount(tx *gorm.DB, eventID uint, category *string) (int64, error) {
	q := tx.Model(&ticketModel.Ticket{}).
		Where("event_id = ? AND status IN ?", eventID,
			[]ticketModel.Status{ticketModel.StatusValid, ticketModel.StatusUsed})
	if category != nil {
		q = q.Where("category = ?", *category)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
