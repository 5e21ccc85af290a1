package checkin

import (
	"errors"
	"time"

	"event-ticketing/apperrors"
	"event-ticketing/logger"
	customerModel "event-ticketing/models/customer"
	eventModel "event-ticketing/models/event"
	"event-ticketing/models/nfccard"
	"event-ticketing/models/scanlog"
	ticketModel "event-ticketing/models/ticket"
	"event-ticketing/monitoring"

	"gorm.io/gorm"
)

// Classification is the gate-facing verdict for a scan attempt.
type Classification string

const (
	ClassValid          Classification = "valid"
	ClassAlreadyScanned Classification = "already_scanned"
	ClassInvalid        Classification = "invalid"
	ClassNotFound       Classification = "not_found"
	// ClassError marks an admission attempt the store could not complete.
	// The credential resolved fine; not_found stays reserved for
	// credentials that map to nothing.
	ClassError Classification = "error"
)

// Result maps a classification to the result recorded in the scan log.
func (c Classification) Result() scanlog.Result {
	switch c {
	case ClassValid:
		return scanlog.ResultSuccess
	case ClassAlreadyScanned:
		return scanlog.ResultDuplicate
	case ClassInvalid:
		return scanlog.ResultInvalid
	default:
		return scanlog.ResultFailed
	}
}

// Operator identifies who is driving the gate for audit purposes.
type Operator struct {
	ID   string
	Role string
}

// Resolution is the read-only answer to "what would admitting this
// credential mean". Nothing is mutated until CommitScan.
type Resolution struct {
	Classification Classification
	Ticket         *ticketModel.Ticket
	Customer       *customerModel.Customer
	Card           *nfccard.NFCCard
	Dependents     []customerModel.Dependent
	// OtherEvents lists upcoming events the attendee also holds valid
	// tickets for, shown to the usher alongside the verdict.
	OtherEvents []eventModel.Event
	Reason      string
}

// Service drives the gate: credential resolution, the guarded status flip
// and the append-only scan trail.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// ResolveCard maps a card serial to its customer and the best candidate
// ticket for the event. The verdict is advisory; admission happens in
// CommitScan. A serial that maps to nothing still produces a not_found
// resolution so the attempt can be logged.
func (s *Service) ResolveCard(serial string, eventID uint) (*Resolution, error) {
	var card nfccard.NFCCard
	err := s.DB.Preload("Customer").Where("serial_number = ?", serial).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Resolution{Classification: ClassNotFound, Reason: "Card not registered"}, nil
		}
		return nil, apperrors.Internal("failed to look up card", err)
	}

	if !card.IsScannable() {
		return &Resolution{Classification: ClassInvalid, Card: &card, Customer: card.Customer,
			Reason: "Card is not active"}, nil
	}

	res, err := s.resolveForCustomer(*card.CustomerID, eventID)
	if err != nil {
		return nil, err
	}
	res.Card = &card
	if res.Customer == nil {
		res.Customer = card.Customer
	}
	return res, nil
}

// ResolveQR maps a ticket number from a QR payload to its ticket. The
// customer context comes from the ticket's holder.
func (s *Service) ResolveQR(ticketNumber string, eventID uint) (*Resolution, error) {
	var t ticketModel.Ticket
	err := s.DB.Preload("Event").Where("ticket_number = ?", ticketNumber).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Resolution{Classification: ClassNotFound, Reason: "Ticket not found"}, nil
		}
		return nil, apperrors.Internal("failed to look up ticket", err)
	}
	if t.EventID != eventID {
		return &Resolution{Classification: ClassInvalid, Ticket: &t, Reason: "Ticket belongs to a different event"}, nil
	}

	res := s.classify(&t)
	var holder customerModel.Customer
	if err := s.DB.Where("id = ?", t.HolderID).First(&holder).Error; err == nil {
		res.Customer = &holder
		res.Dependents = s.dependents(holder.ID)
		res.OtherEvents = s.otherEvents(holder.ID, eventID)
	}
	return res, nil
}

// resolveForCustomer picks the best admissible ticket the customer can use
// for the event: held or bought, not refunded or banned, most recent first.
// A used ticket is still surfaced so the duplicate verdict can name it.
func (s *Service) resolveForCustomer(customerID string, eventID uint) (*Resolution, error) {
	var c customerModel.Customer
	if err := s.DB.Where("id = ?", customerID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Resolution{Classification: ClassNotFound, Reason: "Customer not found"}, nil
		}
		return nil, apperrors.Internal("failed to load customer", err)
	}

	var tickets []ticketModel.Ticket
	err := s.DB.Preload("Event").
		Where("event_id = ? AND (holder_id = ? OR buyer_id = ?) AND status IN ?",
			eventID, customerID, customerID, ticketModel.AdmissibleStatuses()).
		Order("purchase_date DESC").
		Find(&tickets).Error
	if err != nil {
		return nil, apperrors.Internal("failed to load tickets", err)
	}

	if len(tickets) == 0 {
		return &Resolution{Classification: ClassNotFound, Customer: &c,
			Reason: "No ticket for this event"}, nil
	}

	// Prefer a still-valid ticket over a used one.
	candidate := &tickets[0]
	for i := range tickets {
		if tickets[i].Status == ticketModel.StatusValid {
			candidate = &tickets[i]
			break
		}
	}

	res := s.classify(candidate)
	res.Customer = &c
	res.Dependents = s.dependents(customerID)
	res.OtherEvents = s.otherEvents(customerID, eventID)
	return res, nil
}

// dependents is usher-screen context; failures degrade to an empty list.
func (s *Service) dependents(customerID string) []customerModel.Dependent {
	var deps []customerModel.Dependent
	if err := s.DB.Where("customer_id = ?", customerID).Find(&deps).Error; err != nil {
		logger.Warning("Could not load dependents for attendee")
		return nil
	}
	return deps
}

func (s *Service) classify(t *ticketModel.Ticket) *Resolution {
	switch t.Status {
	case ticketModel.StatusValid:
		if !t.Event.ScanningEnabled() {
			return &Resolution{Classification: ClassInvalid, Ticket: t, Reason: "Scanning is disabled for this event"}
		}
		return &Resolution{Classification: ClassValid, Ticket: t}
	case ticketModel.StatusUsed:
		return &Resolution{Classification: ClassAlreadyScanned, Ticket: t, Reason: "Ticket already checked in"}
	default:
		return &Resolution{Classification: ClassInvalid, Ticket: t, Reason: "Ticket is " + string(t.Status)}
	}
}

// otherEvents is advisory context for the usher; failures degrade to an
// empty list rather than blocking the scan.
func (s *Service) otherEvents(customerID string, excludeEventID uint) []eventModel.Event {
	var events []eventModel.Event
	err := s.DB.
		Where("id IN (?) AND id <> ?",
			s.DB.Model(&ticketModel.Ticket{}).Select("event_id").
				Where("holder_id = ? AND status = ?", customerID, ticketModel.StatusValid),
			excludeEventID).
		Find(&events).Error
	if err != nil {
		logger.Warning("Could not load other events for attendee")
		return nil
	}
	return events
}

// CommitScan finalizes a resolution: a valid verdict races the guarded
// valid->used flip and only the winner admits; every attempt, winner or
// loser or failure, appends exactly one scan log row.
func (s *Service) CommitScan(res *Resolution, eventID uint, serial string, scanType scanlog.ScanType, op Operator) (*Resolution, error) {
	outcome := *res

	if res.Classification == ClassValid && res.Ticket != nil {
		now := time.Now()
		cas := s.DB.Model(&ticketModel.Ticket{}).
			Where("id = ? AND status = ?", res.Ticket.ID, ticketModel.StatusValid).
			Updates(map[string]interface{}{
				"status":        ticketModel.StatusUsed,
				"check_in_time": now,
			})
		if cas.Error != nil {
			outcome.Classification = ClassError
			outcome.Reason = "Check-in could not be completed"
			s.appendLog(&outcome, eventID, serial, scanType, op)
			return &outcome, apperrors.Internal("failed to commit check-in", cas.Error)
		}
		if cas.RowsAffected == 0 {
			// A concurrent scan won the flip.
			outcome.Classification = ClassAlreadyScanned
			outcome.Reason = "Ticket already checked in"
		} else {
			outcome.Ticket.Status = ticketModel.StatusUsed
			outcome.Ticket.CheckInTime = &now
		}
	}

	s.appendLog(&outcome, eventID, serial, scanType, op)
	monitoring.RecordScan(eventID, string(outcome.Classification.Result()))
	return &outcome, nil
}

// appendLog writes the audit row. The scan trail is best effort relative to
// the admission itself: a log failure is reported but never rolls back a
// completed check-in.
func (s *Service) appendLog(res *Resolution, eventID uint, serial string, scanType scanlog.ScanType, op Operator) {
	entry := scanlog.ScanLog{
		EventID:      eventID,
		CardSerial:   serial,
		ScanType:     scanType,
		Result:       res.Classification.Result(),
		OperatorID:   op.ID,
		OperatorRole: op.Role,
		Notes:        res.Reason,
		Timestamp:    time.Now(),
	}
	if res.Ticket != nil {
		entry.TicketID = &res.Ticket.ID
	}
	if res.Customer != nil {
		entry.CustomerID = &res.Customer.ID
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		logger.Error("Could not append scan log", err)
	}
}

// CheckinByCard is the one-shot gate operation: resolve the card, commit the
// scan and bump the card usage counters.
func (s *Service) CheckinByCard(serial string, eventID uint, op Operator) (*Resolution, error) {
	res, err := s.ResolveCard(serial, eventID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.CommitScan(res, eventID, serial, scanlog.ScanTypeNFC, op)
	if err != nil {
		return outcome, err
	}

	if res.Card != nil {
		now := time.Now()
		err := s.DB.Model(&nfccard.NFCCard{}).Where("id = ?", res.Card.ID).
			Updates(map[string]interface{}{
				"last_used":   now,
				"usage_count": gorm.Expr("usage_count + 1"),
			}).Error
		if err != nil {
			logger.Error("Could not update card usage", err)
		}
	}
	return outcome, nil
}

// CheckinByQR is the one-shot gate operation for the QR path.
func (s *Service) CheckinByQR(ticketNumber string, eventID uint, op Operator) (*Resolution, error) {
	res, err := s.ResolveQR(ticketNumber, eventID)
	if err != nil {
		return nil, err
	}
	return s.CommitScan(res, eventID, ticketNumber, scanlog.ScanTypeQR, op)
}
