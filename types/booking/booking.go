package booking

import "event-ticketing/services/ownership"

// BookTicketsRequest books one or more tickets for an event. Assignments is
// optional; entry i earmarks ticket i for another person.
type BookTicketsRequest struct {
	EventID       uint                   `json:"event_id"`
	Category      string                 `json:"category"`
	Quantity      int                    `json:"quantity"`
	PaymentMethod string                 `json:"payment_method"`
	Assignments   []ownership.Assignment `json:"assignments,omitempty"`
}
