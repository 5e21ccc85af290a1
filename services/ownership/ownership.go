package ownership

import (
	"errors"
	"fmt"
	"time"

	"event-ticketing/apperrors"
	"event-ticketing/logger"
	customerModel "event-ticketing/models/customer"
	eventModel "event-ticketing/models/event"
	ticketModel "event-ticketing/models/ticket"
	"event-ticketing/monitoring"
	"event-ticketing/services/payment"
	"event-ticketing/services/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service is the single authority for who may view, use or further transfer
// a ticket, and for propagating ownership when assignment targets register.
type Service struct {
	DB       *gorm.DB
	Payments *payment.Service
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		DB:       db,
		Payments: payment.NewService(db),
	}
}

// Assignment earmarks one ticket of a booking for a specific person. When
// IsOwner is true the ticket simply belongs to the buyer.
type Assignment struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Email   string `json:"email"`
	IsOwner bool   `json:"is_owner"`
}

// IssueInput describes one booking request.
type IssueInput struct {
	BuyerID       string
	EventID       uint
	Category      string
	Quantity      int
	PaymentMethod string
	// Assignments is optional; entry i applies to ticket i.
	Assignments []Assignment
}

// IssueResult carries the created tickets and the settled charge.
type IssueResult struct {
	Tickets       []ticketModel.Ticket
	TransactionID string
	TotalAmount   decimal.Decimal
}

// Issue creates N tickets for the buyer. The fee is settled before any
// ticket row exists (fail closed); availability is re-derived inside the
// issuing transaction so two bookings racing for the last seat cannot both
// succeed. Buyer is always the purchaser, irrespective of final holder.
func (s *Service) Issue(in IssueInput) (*IssueResult, error) {
	buyer, err := s.activeCustomer(in.BuyerID)
	if err != nil {
		return nil, err
	}

	var ev eventModel.Event
	if err := s.DB.First(&ev, in.EventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("NOT_FOUND", "Event not found")
		}
		return nil, apperrors.Internal("failed to load event", err)
	}

	// Pre-check before charging so an obviously doomed booking never pays.
	quote, err := pricing.Resolve(s.DB, &ev, in.Category, in.Quantity)
	if err != nil {
		return nil, err
	}

	total := quote.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
	txn, err := s.Payments.Charge(buyer, total, in.PaymentMethod, &ev.ID, nil)
	if err != nil {
		return nil, err
	}

	var created []ticketModel.Ticket
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Lock the event row, then re-derive availability under the
		// transaction. The pre-check does not protect against a concurrent
		// booking; the row lock makes the second booking wait until the
		// first has committed its tickets, so its count sees them.
		var locked eventModel.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, ev.ID).Error; err != nil {
			return apperrors.Internal("failed to lock event", err)
		}
		quote, err := pricing.Resolve(tx, &locked, in.Category, in.Quantity)
		if err != nil {
			return err
		}

		now := time.Now()
		for i := 0; i < in.Quantity; i++ {
			t := ticketModel.Ticket{
				ID:           uuid.NewString(),
				TicketNumber: ticketModel.NewTicketNumber(ev.ID, buyer.ID),
				EventID:      ev.ID,
				HolderID:     buyer.ID,
				BuyerID:      &buyer.ID,
				Category:     in.Category,
				Price:        quote.UnitPrice,
				Status:       ticketModel.StatusValid,
				PurchaseDate: now,
			}

			if i < len(in.Assignments) && !in.Assignments[i].IsOwner && in.Assignments[i].Mobile != "" {
				s.applyAssignment(tx, &t, in.Assignments[i])
			}

			if err := tx.Create(&t).Error; err != nil {
				return apperrors.Internal("failed to create ticket", err)
			}
			created = append(created, t)
		}

		// Customer stats ride in the same transaction as the tickets.
		return tx.Model(buyer).Updates(map[string]interface{}{
			"total_bookings": gorm.Expr("total_bookings + ?", in.Quantity),
			"total_spent":    gorm.Expr("total_spent + ?", total),
		}).Error
	})
	if err != nil {
		// The charge settled before any ticket existed; a booking that
		// failed to issue pays it back.
		if _, rerr := s.Payments.Refund(buyer, total, &ev.ID, nil); rerr != nil {
			logger.Error("Could not refund charge for failed booking", rerr)
		}
		return nil, err
	}

	monitoring.RecordIssued(ev.ID, in.Category, in.Quantity)
	return &IssueResult{Tickets: created, TransactionID: txn.TransactionID, TotalAmount: total}, nil
}

// applyAssignment resolves a non-owner assignment: a mobile that already
// belongs to a customer moves the holder immediately with no pending state;
// an unknown mobile stores the pending triple and the holder stays the buyer.
func (s *Service) applyAssignment(tx *gorm.DB, t *ticketModel.Ticket, a Assignment) {
	var assignee customerModel.Customer
	err := tx.Where("mobile_number = ?", a.Mobile).First(&assignee).Error
	if err == nil {
		t.HolderID = assignee.ID
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Could not look up assigned customer", err)
	}
	name, mobile, email := a.Name, a.Mobile, a.Email
	if name != "" {
		t.AssignedName = &name
	}
	t.AssignedMobile = &mobile
	if email != "" {
		t.AssignedEmail = &email
	}
}

// TransferResult reports the outcome of a transfer request.
type TransferResult struct {
	Ticket          *ticketModel.Ticket
	Fee             decimal.Decimal
	RecipientExists bool
}

// Transfer moves a valid ticket from its current holder toward the customer
// with the given mobile. The transfer fee is settled before any mutation. An
// existing active recipient takes ownership immediately and a completed
// transfer record is written; an unknown mobile parks the ticket in the
// pending-assignment state until the recipient registers or logs in.
func (s *Service) Transfer(ticketID, fromHolderID, recipientMobile, recipientName, paymentMethod string) (*TransferResult, error) {
	holder, err := s.activeCustomer(fromHolderID)
	if err != nil {
		return nil, err
	}

	var t ticketModel.Ticket
	err = s.DB.Preload("Event").Where("id = ? AND holder_id = ?", ticketID, fromHolderID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("NOT_FOUND", "Ticket not found")
		}
		return nil, apperrors.Internal("failed to load ticket", err)
	}

	if t.Status != ticketModel.StatusValid {
		return nil, apperrors.InvalidState("INVALID_TICKET", "Ticket cannot be transferred")
	}
	if !t.Event.TicketTransferEnabled {
		return nil, apperrors.InvalidState("TRANSFER_DISABLED", "Ticket transfer is disabled for this event")
	}

	fee := t.Event.TransferFee(t.Price)
	if fee.IsPositive() {
		if _, err := s.Payments.Charge(holder, fee, paymentMethod, &t.EventID, &t.ID); err != nil {
			return nil, apperrors.PaymentRequired("TRANSFER_FEE_UNPAID", "Transfer fee could not be settled")
		}
	}

	var recipient *customerModel.Customer
	var rec customerModel.Customer
	err = s.DB.Where("mobile_number = ? AND status = ?", recipientMobile, customerModel.StatusActive).First(&rec).Error
	switch {
	case err == nil:
		recipient = &rec
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Recipient has no account yet; the pending-assignment path applies.
	default:
		return nil, apperrors.Internal("failed to look up recipient", err)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if recipient != nil {
			return s.completeTransfer(tx, &t, fromHolderID, recipient.ID)
		}
		return s.parkPendingAssignment(tx, &t, fromHolderID, recipientName, recipientMobile)
	})
	if err != nil {
		// The ticket did not move; the already-settled fee goes back.
		if fee.IsPositive() {
			if _, rerr := s.Payments.Refund(holder, fee, &t.EventID, &t.ID); rerr != nil {
				logger.Error("Could not refund transfer fee for failed transfer", rerr)
			}
		}
		return nil, err
	}

	if err := s.DB.First(&t, "id = ?", t.ID).Error; err != nil {
		return nil, apperrors.Internal("failed to reload ticket", err)
	}
	return &TransferResult{Ticket: &t, Fee: fee, RecipientExists: recipient != nil}, nil
}

// completeTransfer atomically moves the holder, clears any pending triple,
// backfills a null buyer to the previous holder and appends the completed
// transfer record. The status+holder guard makes it safe against a racing
// check-in or link.
func (s *Service) completeTransfer(tx *gorm.DB, t *ticketModel.Ticket, fromID, toID string) error {
	res := tx.Model(&ticketModel.Ticket{}).
		Where("id = ? AND status = ? AND holder_id = ?", t.ID, ticketModel.StatusValid, fromID).
		Updates(map[string]interface{}{
			"holder_id":       toID,
			"buyer_id":        gorm.Expr("COALESCE(buyer_id, ?)", fromID),
			"assigned_name":   nil,
			"assigned_mobile": nil,
			"assigned_email":  nil,
		})
	if res.Error != nil {
		return apperrors.Internal("failed to update ticket ownership", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.InvalidState("INVALID_TICKET", "Ticket changed state during transfer")
	}

	record := ticketModel.TicketTransfer{
		TicketID:       t.ID,
		FromCustomerID: fromID,
		ToCustomerID:   toID,
		TransferDate:   time.Now(),
		Status:         ticketModel.TransferCompleted,
	}
	if err := tx.Create(&record).Error; err != nil {
		return apperrors.Internal("failed to record transfer", err)
	}

	monitoring.RecordOwnershipChange("transfer")
	return nil
}

// parkPendingAssignment stores the recipient contact triple; the holder stays
// unchanged and no transfer record is written until linking completes it.
func (s *Service) parkPendingAssignment(tx *gorm.DB, t *ticketModel.Ticket, fromID, name, mobile string) error {
	updates := map[string]interface{}{
		"assigned_mobile": mobile,
		"buyer_id":        gorm.Expr("COALESCE(buyer_id, ?)", fromID),
	}
	if name != "" {
		updates["assigned_name"] = name
	}
	res := tx.Model(&ticketModel.Ticket{}).
		Where("id = ? AND status = ? AND holder_id = ?", t.ID, ticketModel.StatusValid, fromID).
		Updates(updates)
	if res.Error != nil {
		return apperrors.Internal("failed to park pending assignment", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.InvalidState("INVALID_TICKET", "Ticket changed state during transfer")
	}
	return nil
}

// Gift moves a valid ticket to an existing active customer. Unlike Transfer
// there is no pending-assignment path and no fee.
func (s *Service) Gift(ticketID, fromHolderID, recipientMobile string) (*ticketModel.Ticket, error) {
	if _, err := s.activeCustomer(fromHolderID); err != nil {
		return nil, err
	}

	var t ticketModel.Ticket
	err := s.DB.Where("id = ? AND holder_id = ?", ticketID, fromHolderID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("NOT_FOUND", "Ticket not found")
		}
		return nil, apperrors.Internal("failed to load ticket", err)
	}
	if t.Status != ticketModel.StatusValid {
		return nil, apperrors.InvalidState("INVALID_TICKET", "Ticket cannot be gifted")
	}

	var recipient customerModel.Customer
	err = s.DB.Where("mobile_number = ? AND status = ?", recipientMobile, customerModel.StatusActive).First(&recipient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("RECIPIENT_NOT_FOUND", "Recipient not found")
		}
		return nil, apperrors.Internal("failed to look up recipient", err)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return s.completeTransfer(tx, &t, fromHolderID, recipient.ID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.DB.First(&t, "id = ?", t.ID).Error; err != nil {
		return nil, apperrors.Internal("failed to reload ticket", err)
	}
	return &t, nil
}

// Link reconciles pending assignments whenever a customer registers or logs
// in: every valid ticket whose assigned mobile matches becomes theirs, the
// triple is cleared, and the buyer is never overwritten (only backfilled once
// when null on legacy rows). Idempotent: the guarded update matches nothing
// on a second run.
func (s *Service) Link(c *customerModel.Customer) (int, error) {
	var pending []ticketModel.Ticket
	err := s.DB.Where("assigned_mobile = ? AND status = ? AND holder_id <> ?",
		c.MobileNumber, ticketModel.StatusValid, c.ID).Find(&pending).Error
	if err != nil {
		return 0, apperrors.Internal("failed to scan pending assignments", err)
	}

	linked := 0
	for i := range pending {
		t := pending[i]
		prevHolder := t.HolderID

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			// Single guarded write: holder, buyer backfill and triple clear
			// move together, so the exclusivity invariant never breaks
			// mid-flight even against a concurrent transfer.
			res := tx.Model(&ticketModel.Ticket{}).
				Where("id = ? AND status = ? AND assigned_mobile = ?", t.ID, ticketModel.StatusValid, c.MobileNumber).
				Updates(map[string]interface{}{
					"holder_id":       c.ID,
					"buyer_id":        gorm.Expr("COALESCE(buyer_id, ?)", prevHolder),
					"assigned_name":   nil,
					"assigned_mobile": nil,
					"assigned_email":  nil,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Already linked or transferred elsewhere in the meantime.
				return nil
			}

			record := ticketModel.TicketTransfer{
				TicketID:       t.ID,
				FromCustomerID: prevHolder,
				ToCustomerID:   c.ID,
				TransferDate:   time.Now(),
				Status:         ticketModel.TransferCompleted,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			linked++
			return nil
		})
		if err != nil {
			return linked, apperrors.Internal("failed to link ticket", err)
		}
	}

	if linked > 0 {
		logger.Success(fmt.Sprintf("Linked %d tickets to customer %s", linked, c.ID))
		monitoring.RecordOwnershipChange("link")
	}
	return linked, nil
}

// VisibleTickets returns the tickets the customer may see: everything they
// hold, everything earmarked for their mobile, and everything they bought
// that still awaits an unregistered recipient. Tickets fully transferred
// away are excluded because no arm matches them.
func (s *Service) VisibleTickets(c *customerModel.Customer) ([]ticketModel.Ticket, error) {
	var tickets []ticketModel.Ticket
	err := s.DB.Preload("Event").
		Where("holder_id = ? OR assigned_mobile = ? OR (buyer_id = ? AND assigned_mobile IS NOT NULL)",
			c.ID, c.MobileNumber, c.ID).
		Order("purchase_date DESC").
		Find(&tickets).Error
	if err != nil {
		return nil, apperrors.Internal("failed to list tickets", err)
	}
	return tickets, nil
}

// Refund moves a valid ticket held by the given customer to refunded and
// records the negative-amount transaction. The transition is guarded the
// same way as check-in, so a racing scan and refund cannot both win.
func (s *Service) Refund(ticketID, holderID string) (*ticketModel.Ticket, error) {
	holder, err := s.activeCustomer(holderID)
	if err != nil {
		return nil, err
	}

	var t ticketModel.Ticket
	err = s.DB.Where("id = ? AND holder_id = ?", ticketID, holderID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("NOT_FOUND", "Ticket not found")
		}
		return nil, apperrors.Internal("failed to load ticket", err)
	}

	res := s.DB.Model(&ticketModel.Ticket{}).
		Where("id = ? AND status = ?", t.ID, ticketModel.StatusValid).
		Update("status", ticketModel.StatusRefunded)
	if res.Error != nil {
		return nil, apperrors.Internal("failed to refund ticket", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.InvalidState("INVALID_TICKET", "Only valid tickets can be refunded")
	}

	if _, err := s.Payments.Refund(holder, t.Price, &t.EventID, &t.ID); err != nil {
		logger.Error("Refund transaction could not be recorded", err)
	}

	if err := s.DB.First(&t, "id = ?", t.ID).Error; err != nil {
		return nil, apperrors.Internal("failed to reload ticket", err)
	}
	return &t, nil
}

func (s *Service) activeCustomer(id string) (*customerModel.Customer, error) {
	var c customerModel.Customer
	err := s.DB.Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("NOT_FOUND", "Customer not found")
		}
		return nil, apperrors.Internal("failed to load customer", err)
	}
	if !c.IsActive() {
		return nil, apperrors.InvalidState("ACCOUNT_INACTIVE", "Customer account is not active")
	}
	return &c, nil
}
