package ticket

import (
	"errors"

	"event-ticketing/apperrors"
	"event-ticketing/logger"
	"event-ticketing/middleware"
	customerModel "event-ticketing/models/customer"
	ticketModel "event-ticketing/models/ticket"
	"event-ticketing/services/ownership"
	"event-ticketing/types"
	ticketTypes "event-ticketing/types/ticket"
	"event-ticketing/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Controller handles the attendee-facing ticket operations: listing,
// transfer, gifting, refunds and the QR payload for gate entry.
type Controller struct {
	DB        *gorm.DB
	Logger    *logger.AsyncLogger
	Ownership *ownership.Service
}

func NewTicketController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:        db,
		Logger:    asyncLogger,
		Ownership: ownership.NewService(db),
	}
}

// ListTickets returns every ticket the customer may see, newest purchase
// first.
func (tc *Controller) ListTickets(c *fiber.Ctx) error {
	customer, err := utils.GetCustomerByID(middleware.SubjectID(c))
	if err != nil {
		return utils.RenderError(c, err)
	}

	tickets, err := tc.Ownership.VisibleTickets(customer)
	if err != nil {
		return utils.RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Tickets retrieved",
		Data:    fiber.Map{"tickets": tickets, "count": len(tickets)},
	})
}

// GetTicket returns one ticket with its ownership view, provided the caller
// is allowed to see it.
func (tc *Controller) GetTicket(c *fiber.Ctx) error {
	customer, err := utils.GetCustomerByID(middleware.SubjectID(c))
	if err != nil {
		return utils.RenderError(c, err)
	}

	t, err := tc.visibleTicket(c.Params("id"), customer)
	if err != nil {
		return utils.RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Ticket retrieved",
		Data: fiber.Map{
			"ticket":    t,
			"ownership": t.Ownership(),
		},
	})
}

// Transfer moves the ticket toward the requested mobile number. An unknown
// recipient leaves the ticket pending until they register.
func (tc *Controller) Transfer(c *fiber.Ctx) error {
	var req ticketTypes.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	result, err := tc.Ownership.Transfer(
		c.Params("id"),
		middleware.SubjectID(c),
		utils.NormalizeMobile(req.RecipientMobile),
		req.RecipientName,
		req.PaymentMethod,
	)
	if err != nil {
		return utils.RenderError(c, err)
	}

	message := "Ticket transferred"
	if !result.RecipientExists {
		message = "Ticket reserved for the recipient; it moves when they register"
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: message,
		Data: fiber.Map{
			"ticket":           result.Ticket,
			"fee":              result.Fee,
			"recipient_exists": result.RecipientExists,
		},
	})
}

// Gift moves the ticket to an existing customer, free of charge.
func (tc *Controller) Gift(c *fiber.Ctx) error {
	var req ticketTypes.GiftRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	t, err := tc.Ownership.Gift(c.Params("id"), middleware.SubjectID(c), utils.NormalizeMobile(req.RecipientMobile))
	if err != nil {
		return utils.RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Ticket gifted",
		Data:    fiber.Map{"ticket": t},
	})
}

// Refund returns a held valid ticket and records the reverse transaction.
func (tc *Controller) Refund(c *fiber.Ctx) error {
	t, err := tc.Ownership.Refund(c.Params("id"), middleware.SubjectID(c))
	if err != nil {
		return utils.RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Ticket refunded",
		Data:    fiber.Map{"ticket": t},
	})
}

// QRPayload returns the encrypted gate credential for a ticket the caller
// holds. Only valid tickets produce a payload.
func (tc *Controller) QRPayload(c *fiber.Ctx) error {
	customer, err := utils.GetCustomerByID(middleware.SubjectID(c))
	if err != nil {
		return utils.RenderError(c, err)
	}

	t, err := tc.visibleTicket(c.Params("id"), customer)
	if err != nil {
		return utils.RenderError(c, err)
	}
	if t.Status != ticketModel.StatusValid {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "INVALID_TICKET", Message: "Only valid tickets can be presented at the gate"},
		})
	}

	payload, err := utils.EncryptData(t.TicketNumber)
	if err != nil {
		logger.Error("Failed to encrypt QR payload", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "QR payload generated",
		Data: fiber.Map{
			"ticket_number": t.TicketNumber,
			"qr_payload":    payload,
		},
	})
}

// CheckinStatus reports whether and when the ticket was used.
func (tc *Controller) CheckinStatus(c *fiber.Ctx) error {
	customer, err := utils.GetCustomerByID(middleware.SubjectID(c))
	if err != nil {
		return utils.RenderError(c, err)
	}

	t, err := tc.visibleTicket(c.Params("id"), customer)
	if err != nil {
		return utils.RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Check-in status retrieved",
		Data: fiber.Map{
			"status":        t.Status,
			"checked_in":    t.Status == ticketModel.StatusUsed,
			"check_in_time": t.CheckInTime,
		},
	})
}

// visibleTicket loads a ticket and enforces the visibility rule in one
// place. A ticket the caller may not see answers exactly like a missing one.
func (tc *Controller) visibleTicket(id string, cust *customerModel.Customer) (*ticketModel.Ticket, error) {
	var t ticketModel.Ticket
	err := tc.DB.Preload("Event").Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("NOT_FOUND", "Ticket not found")
		}
		return nil, apperrors.Internal("failed to load ticket", err)
	}
	if !t.VisibleTo(cust) {
		return nil, apperrors.NotFound("NOT_FOUND", "Ticket not found")
	}
	return &t, nil
}
