package card

import (
	"errors"
	"fmt"
	"time"

	"event-ticketing/logger"
	"event-ticketing/models/nfccard"
	otpModel "event-ticketing/models/otp"
	otpService "event-ticketing/services/otp"
	"event-ticketing/types"
	authTypes "event-ticketing/types/auth"
	cardTypes "event-ticketing/types/card"
	"event-ticketing/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Controller handles the merchant desk: binding physical NFC cards to
// customer accounts. The customer proves presence with an OTP sent to their
// own mobile; payment state never gates the binding.
type Controller struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
	OTP    *otpService.Service
}

func NewCardController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:     db,
		Logger: asyncLogger,
		OTP:    otpService.NewService(db),
	}
}

// AssignCard starts binding a card to the customer with the given mobile
// number by sending them a confirmation code.
func (cc *Controller) AssignCard(c *fiber.Ctx) error {
	var req cardTypes.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	customer, err := utils.GetCustomerByMobile(req.CustomerMobile)
	if err != nil {
		return utils.RenderError(c, err)
	}
	if !customer.IsActive() {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "ACCOUNT_INACTIVE", Message: "Customer account is not active"},
		})
	}

	var card nfccard.NFCCard
	err = cc.DB.Where("serial_number = ?", req.SerialNumber).First(&card).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to look up card", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	if err == nil && card.CustomerID != nil && *card.CustomerID != customer.ID {
		return c.Status(fiber.StatusConflict).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "CARD_ALREADY_ASSIGNED", Message: "Card is bound to another customer"},
		})
	}

	otpRecord, oerr := cc.OTP.RequestCode(customer.MobileNumber, otpModel.PurposeCustomerVerification)
	if oerr != nil {
		return utils.RenderError(c, oerr)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Confirmation code sent to the customer",
		Data: authTypes.OTPResponse{
			Message:   "OTP sent to the customer's phone number",
			ExpiresAt: otpRecord.ExpiresAt.Format("2006-01-02 15:04:05"),
			Success:   true,
		},
	})
}

// ConfirmAssignCard completes the binding once the customer's code checks
// out. The card is created on first sight of its serial and activated.
func (cc *Controller) ConfirmAssignCard(c *fiber.Ctx) error {
	var req cardTypes.ConfirmAssignRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	customer, err := utils.GetCustomerByMobile(req.CustomerMobile)
	if err != nil {
		return utils.RenderError(c, err)
	}

	ok, err := cc.OTP.VerifyCode(customer.MobileNumber, req.Code, otpModel.PurposeCustomerVerification)
	if err != nil {
		return utils.RenderError(c, err)
	}
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "AUTHENTICATION_ERROR", Message: "Invalid or expired confirmation code"},
		})
	}

	now := time.Now()
	hashed, err := utils.EncryptData(req.SerialNumber)
	if err != nil {
		logger.Error("Failed to derive card code", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	var card nfccard.NFCCard
	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("serial_number = ?", req.SerialNumber).First(&card).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			card = nfccard.NFCCard{SerialNumber: req.SerialNumber}
			if err := tx.Create(&card).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if card.CustomerID != nil && *card.CustomerID != customer.ID {
			return errors.New("card is bound to another customer")
		}

		return tx.Model(&card).Updates(map[string]interface{}{
			"customer_id": customer.ID,
			"status":      nfccard.StatusActive,
			"hashed_code": hashed,
			"assigned_at": now,
		}).Error
	})
	if err != nil {
		logger.Error("Failed to assign card", err)
		return c.Status(fiber.StatusConflict).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "CARD_ALREADY_ASSIGNED", Message: "Card could not be assigned"},
		})
	}

	logger.Success(fmt.Sprintf("Card %s assigned to customer %s", card.SerialNumber, customer.ID))
	rerr := c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Card assigned",
		Data:    fiber.Map{"card": card},
	})
	cc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return rerr
}

// ListCards shows the cards bound to a customer, for the merchant desk.
func (cc *Controller) ListCards(c *fiber.Ctx) error {
	customer, err := utils.GetCustomerByMobile(c.Query("mobile"))
	if err != nil {
		return utils.RenderError(c, err)
	}

	var cards []nfccard.NFCCard
	if err := cc.DB.Where("customer_id = ?", customer.ID).Find(&cards).Error; err != nil {
		logger.Error("Failed to list cards", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Cards retrieved",
		Data:    fiber.Map{"cards": cards, "count": len(cards)},
	})
}
