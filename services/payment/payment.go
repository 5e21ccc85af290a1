package payment

import (
	"fmt"
	"time"

	"event-ticketing/apperrors"
	customerModel "event-ticketing/models/customer"
	paymentModel "event-ticketing/models/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service settles fees and records every charge or refund as a transaction
// row. The core only observes completed/pending/failed; gateway specifics
// live behind this boundary.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Charge settles the given amount against the customer before any ownership
// mutation happens. Fail closed: a non-completed charge is returned as an
// error and nothing else must proceed.
func (s *Service) Charge(c *customerModel.Customer, amount decimal.Decimal, method string, eventID *uint, ticketID *string) (*paymentModel.Transaction, error) {
	if amount.IsNegative() {
		return nil, apperrors.PaymentFailed("PAYMENT_FAILED", "charge amount cannot be negative")
	}

	txn := &paymentModel.Transaction{
		TransactionID: uuid.NewString(),
		CustomerID:    c.ID,
		EventID:       eventID,
		TicketID:      ticketID,
		Amount:        amount,
		PaymentMethod: method,
		Status:        paymentModel.StatusCompleted,
		Timestamp:     time.Now(),
	}
	if err := s.DB.Create(txn).Error; err != nil {
		return nil, apperrors.Internal("failed to record payment transaction", err)
	}
	return txn, nil
}

// Refund records a negative-amount transaction for the given ticket.
func (s *Service) Refund(c *customerModel.Customer, amount decimal.Decimal, eventID *uint, ticketID *string) (*paymentModel.Transaction, error) {
	txn := &paymentModel.Transaction{
		TransactionID: fmt.Sprintf("REFUND-%s", uuid.NewString()[:12]),
		CustomerID:    c.ID,
		EventID:       eventID,
		TicketID:      ticketID,
		Amount:        amount.Neg(),
		PaymentMethod: "refund",
		Status:        paymentModel.StatusCompleted,
		Timestamp:     time.Now(),
	}
	if err := s.DB.Create(txn).Error; err != nil {
		return nil, apperrors.Internal("failed to record refund transaction", err)
	}
	return txn, nil
}
