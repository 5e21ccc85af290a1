package booking

import (
	"fmt"

	"event-ticketing/logger"
	"event-ticketing/middleware"
	"event-ticketing/services/ownership"
	"event-ticketing/types"
	bookingTypes "event-ticketing/types/booking"
	"event-ticketing/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Controller handles ticket booking for the attendee portal.
type Controller struct {
	DB        *gorm.DB
	Logger    *logger.AsyncLogger
	Ownership *ownership.Service
}

func NewBookingController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:        db,
		Logger:    asyncLogger,
		Ownership: ownership.NewService(db),
	}
}

// BookTickets charges the buyer and issues the requested tickets. Each
// assignment entry may earmark one ticket for another person by mobile
// number; earmarked tickets move immediately when that person already has an
// account, otherwise they wait in the pending-assignment state.
func (bc *Controller) BookTickets(c *fiber.Ctx) error {
	var req bookingTypes.BookTicketsRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	buyerID := middleware.SubjectID(c)
	for i := range req.Assignments {
		req.Assignments[i].Mobile = utils.NormalizeMobile(req.Assignments[i].Mobile)
	}

	result, err := bc.Ownership.Issue(ownership.IssueInput{
		BuyerID:       buyerID,
		EventID:       req.EventID,
		Category:      req.Category,
		Quantity:      req.Quantity,
		PaymentMethod: req.PaymentMethod,
		Assignments:   req.Assignments,
	})
	if err != nil {
		return utils.RenderError(c, err)
	}

	logger.Success(fmt.Sprintf("Booked %d tickets for event %d (txn %s)",
		len(result.Tickets), req.EventID, result.TransactionID))
	err = c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Tickets booked successfully",
		Data: fiber.Map{
			"tickets":        result.Tickets,
			"transaction_id": result.TransactionID,
			"total_amount":   result.TotalAmount,
		},
	})
	bc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return err
}
