package checkin

import (
	"time"

	"event-ticketing/logger"
	"event-ticketing/middleware"
	"event-ticketing/models/scanlog"
	checkinService "event-ticketing/services/checkin"
	"event-ticketing/types"
	checkinTypes "event-ticketing/types/checkin"
	"event-ticketing/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// Controller handles the usher portal: credential verification, attendee
// context, admission and the scan trail.
type Controller struct {
	DB      *gorm.DB
	Logger  *logger.AsyncLogger
	Checkin *checkinService.Service
}

func NewCheckinController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:      db,
		Logger:  asyncLogger,
		Checkin: checkinService.NewService(db),
	}
}

func operator(c *fiber.Ctx) checkinService.Operator {
	return checkinService.Operator{
		ID:   middleware.SubjectID(c),
		Role: middleware.SubjectRole(c),
	}
}

// resolutionView shapes a resolution for the usher screen.
func resolutionView(res *checkinService.Resolution) fiber.Map {
	view := fiber.Map{
		"classification": res.Classification,
		"result":         res.Classification.Result(),
	}
	if res.Reason != "" {
		view["reason"] = res.Reason
	}
	if res.Ticket != nil {
		view["ticket"] = res.Ticket
	}
	if res.Customer != nil {
		attendee := fiber.Map{
			"id":     res.Customer.ID,
			"name":   res.Customer.Name,
			"mobile": res.Customer.MobileNumber,
		}
		if res.Customer.EmergencyContactName != nil {
			attendee["emergency_contact_name"] = *res.Customer.EmergencyContactName
		}
		if res.Customer.EmergencyContactMobile != nil {
			attendee["emergency_contact_mobile"] = *res.Customer.EmergencyContactMobile
		}
		if res.Customer.ProfileImageURL != nil {
			attendee["profile_image_url"] = *res.Customer.ProfileImageURL
		}
		if len(res.Dependents) > 0 {
			attendee["dependents"] = res.Dependents
		}
		if res.Ticket != nil {
			attendee["ticket_dependents"] = res.Ticket.Dependents
		}
		view["attendee"] = attendee
	}
	if len(res.OtherEvents) > 0 {
		view["other_events"] = res.OtherEvents
	}
	return view
}

// VerifyCard answers what admitting this card would mean, without admitting.
func (cc *Controller) VerifyCard(c *fiber.Ctx) error {
	var req checkinTypes.CardScanRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	res, err := cc.Checkin.ResolveCard(req.CardSerial, req.EventID)
	if err != nil {
		return utils.RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Card verified",
		Data:    resolutionView(res),
	})
}

// Attendee shows the person behind a card along with their dependents and
// other upcoming events, for usher-side identity checks.
func (cc *Controller) Attendee(c *fiber.Ctx) error {
	serial := c.Params("serial")
	eventID, err := c.ParamsInt("event_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid event id",
		})
	}

	res, rerr := cc.Checkin.ResolveCard(serial, uint(eventID))
	if rerr != nil {
		return utils.RenderError(c, rerr)
	}
	if res.Customer == nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "NOT_FOUND", Message: "No attendee behind this card"},
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Attendee retrieved",
		Data:    resolutionView(res),
	})
}

// CheckinByCard admits an attendee by NFC card. Exactly one scan log row is
// written whatever the outcome.
func (cc *Controller) CheckinByCard(c *fiber.Ctx) error {
	var req checkinTypes.CardScanRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	res, err := cc.Checkin.CheckinByCard(req.CardSerial, req.EventID, operator(c))
	if err != nil {
		return utils.RenderError(c, err)
	}

	return cc.scanResponse(c, res)
}

// CheckinByQR admits an attendee by the ticket number carried in a QR
// payload. Encrypted payloads are accepted alongside plain ticket numbers.
func (cc *Controller) CheckinByQR(c *fiber.Ctx) error {
	var req checkinTypes.QRScanRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	ticketNumber := req.TicketNumber
	if decrypted, err := utils.DecryptData(ticketNumber); err == nil {
		ticketNumber = decrypted
	}

	res, err := cc.Checkin.CheckinByQR(ticketNumber, req.EventID, operator(c))
	if err != nil {
		return utils.RenderError(c, err)
	}

	return cc.scanResponse(c, res)
}

// ScanResult commits whichever credential the gate device read: a card
// serial or a ticket number. Resolution always happens fresh at commit time,
// so a verify followed much later by a commit cannot admit a ticket that
// changed state in between.
func (cc *Controller) ScanResult(c *fiber.Ctx) error {
	var req struct {
		CardSerial   string `json:"card_serial"`
		TicketNumber string `json:"ticket_number"`
		EventID      uint   `json:"event_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	var (
		res  *checkinService.Resolution
		rerr error
	)
	switch {
	case req.CardSerial != "":
		res, rerr = cc.Checkin.CheckinByCard(req.CardSerial, req.EventID, operator(c))
	case req.TicketNumber != "":
		res, rerr = cc.Checkin.CheckinByQR(req.TicketNumber, req.EventID, operator(c))
	default:
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "A card serial or a ticket number is required",
		})
	}
	if rerr != nil {
		return utils.RenderError(c, rerr)
	}

	return cc.scanResponse(c, res)
}

func (cc *Controller) scanResponse(c *fiber.Ctx, res *checkinService.Resolution) error {
	status := fiber.StatusOK
	message := "Check-in successful"
	switch res.Classification {
	case checkinService.ClassAlreadyScanned:
		status = fiber.StatusConflict
		message = "Ticket already checked in"
	case checkinService.ClassInvalid:
		status = fiber.StatusBadRequest
		message = "Credential is not admissible"
	case checkinService.ClassNotFound:
		status = fiber.StatusNotFound
		message = "No admissible ticket found"
	}

	err := c.Status(status).JSON(types.ApiResponse{
		Status:  status,
		Message: message,
		Data:    resolutionView(res),
	})
	cc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return err
}

// ScanLogs lists the scan trail for an event, filterable by result and day,
// newest first.
func (cc *Controller) ScanLogs(c *fiber.Ctx) error {
	var q checkinTypes.ScanLogQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid query parameters",
		})
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 || q.PerPage > 100 {
		q.PerPage = 25
	}

	query := cc.DB.Model(&scanlog.ScanLog{})
	if q.EventID != 0 {
		query = query.Where("event_id = ?", q.EventID)
	}
	if q.Result != "" {
		query = query.Where("result = ?", q.Result)
	}
	if q.Date != "" {
		day, err := time.Parse("2006-01-02", q.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Invalid date, expected YYYY-MM-DD",
			})
		}
		n := now.New(day)
		query = query.Where("timestamp BETWEEN ? AND ?", n.BeginningOfDay(), n.EndOfDay())
	}
	if q.Search != "" {
		query = query.Where("card_serial LIKE ? OR operator_id LIKE ?", "%"+q.Search+"%", "%"+q.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count scan logs", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	var logs []scanlog.ScanLog
	err := query.Order("timestamp DESC").
		Offset((q.Page - 1) * q.PerPage).
		Limit(q.PerPage).
		Find(&logs).Error
	if err != nil {
		logger.Error("Failed to list scan logs", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Scan logs retrieved",
		Data: fiber.Map{
			"logs":     logs,
			"total":    total,
			"page":     q.Page,
			"per_page": q.PerPage,
		},
	})
}
