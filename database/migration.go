package database

import (
	"event-ticketing/models/customer"
	"event-ticketing/models/event"
	log_model "event-ticketing/models/log"
	"event-ticketing/models/nfccard"
	"event-ticketing/models/otp"
	"event-ticketing/models/payment"
	"event-ticketing/models/registration"
	"event-ticketing/models/scanlog"
	"event-ticketing/models/ticket"

	"gorm.io/gorm"
)

// Migrate runs AutoMigrate over every model, leaf tables first so foreign
// keys resolve.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&customer.Customer{},
		&customer.Dependent{},
		&event.Event{},
		&event.TicketCategory{},
		&ticket.Ticket{},
		&ticket.TicketTransfer{},
		&scanlog.ScanLog{},
		&nfccard.NFCCard{},
		&otp.OTP{},
		&registration.PendingRegistration{},
		&payment.Transaction{},
		&log_model.Log{},
	)
}
