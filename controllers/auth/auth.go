package auth

import (
	"errors"
	"fmt"
	"time"

	"event-ticketing/apperrors"
	"event-ticketing/constants"
	"event-ticketing/logger"
	customerModel "event-ticketing/models/customer"
	otpModel "event-ticketing/models/otp"
	registrationModel "event-ticketing/models/registration"
	otpService "event-ticketing/services/otp"
	"event-ticketing/services/ownership"
	"event-ticketing/types"
	authTypes "event-ticketing/types/auth"
	"event-ticketing/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Controller handles registration, login and password recovery for the
// attendee portal.
type Controller struct {
	DB        *gorm.DB
	Logger    *logger.AsyncLogger
	OTP       *otpService.Service
	Ownership *ownership.Service
}

func NewAuthController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:        db,
		Logger:    asyncLogger,
		OTP:       otpService.NewService(db),
		Ownership: ownership.NewService(db),
	}
}

// Register starts the three-step signup: park the contact details, send the
// OTP. A mobile number that already has an account is rejected here, not at
// the finalize step.
func (ac *Controller) Register(c *fiber.Ctx) error {
	var req authTypes.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}

	mobile := utils.NormalizeMobile(req.MobileNumber)
	if mobile == "" || req.Name == "" {
		return badRequest(c, "Mobile number and name are required")
	}

	var existing customerModel.Customer
	if err := ac.DB.Where("mobile_number = ?", mobile).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status:  fiber.StatusConflict,
			Message: "An account with this mobile number already exists",
		})
	}

	pending := registrationModel.PendingRegistration{
		MobileNumber: mobile,
		Name:         req.Name,
	}
	if req.Email != "" {
		pending.Email = &req.Email
	}
	if req.EmergencyContactName != "" {
		pending.EmergencyContactName = &req.EmergencyContactName
	}
	if req.EmergencyContactMobile != "" {
		em := utils.NormalizeMobile(req.EmergencyContactMobile)
		pending.EmergencyContactMobile = &em
	}
	pending.Touch()

	// Re-registering before finishing replaces the parked details.
	err := ac.DB.Where("mobile_number = ?", mobile).
		Assign(pending).
		FirstOrCreate(&registrationModel.PendingRegistration{}).Error
	if err != nil {
		logger.Error("Failed to store pending registration", err)
		return internalError(c)
	}

	otpRecord, err := ac.OTP.RequestCode(mobile, otpModel.PurposeRegistration)
	if err != nil {
		return utils.RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Verification code sent",
		Data: authTypes.OTPResponse{
			Message:   "OTP sent to your phone number",
			ExpiresAt: otpRecord.ExpiresAt.Format("2006-01-02 15:04:05"),
			Success:   true,
		},
	})
}

// VerifyMobile is step two: confirm the OTP and mark the parked registration
// as verified.
func (ac *Controller) VerifyMobile(c *fiber.Ctx) error {
	var req authTypes.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}

	mobile := utils.NormalizeMobile(req.MobileNumber)
	pending, err := ac.pendingRegistration(mobile)
	if err != nil {
		return utils.RenderError(c, err)
	}

	ok, err := ac.OTP.VerifyCode(mobile, req.Code, otpModel.PurposeRegistration)
	if err != nil {
		return utils.RenderError(c, err)
	}
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "AUTHENTICATION_ERROR", Message: "Invalid or expired verification code"},
		})
	}

	pending.MobileVerified = true
	pending.Touch()
	if err := ac.DB.Save(pending).Error; err != nil {
		logger.Error("Failed to update pending registration", err)
		return internalError(c)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Mobile number verified",
	})
}

// CompleteRegistration is step three: set the password, create the account,
// consume the parked registration and pull in any tickets waiting on this
// mobile number.
func (ac *Controller) CompleteRegistration(c *fiber.Ctx) error {
	var req authTypes.CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}
	if len(req.Password) < 8 {
		return badRequest(c, "Password must be at least 8 characters")
	}

	mobile := utils.NormalizeMobile(req.MobileNumber)
	pending, err := ac.pendingRegistration(mobile)
	if err != nil {
		return utils.RenderError(c, err)
	}
	if !pending.MobileVerified {
		return badRequest(c, "Mobile number is not verified yet")
	}

	customer := customerModel.Customer{
		ID:           uuid.NewString(),
		MobileNumber: mobile,
		Name:         pending.Name,
		Status:       customerModel.StatusActive,
	}
	if pending.Email != nil {
		customer.Email = pending.Email
	}
	customer.EmergencyContactName = pending.EmergencyContactName
	customer.EmergencyContactMobile = pending.EmergencyContactMobile
	if err := customer.SetPassword(req.Password); err != nil {
		logger.Error("Failed to hash password", err)
		return internalError(c)
	}

	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&customer).Error; err != nil {
			return err
		}
		return tx.Delete(pending).Error
	})
	if err != nil {
		logger.Error("Failed to create customer", err)
		return internalError(c)
	}

	linked, err := ac.Ownership.Link(&customer)
	if err != nil {
		// Account exists; linking retries on next login.
		logger.Error("Failed to link pending tickets", err)
	}

	token, err := utils.GenerateToken(customer.ID, constants.RoleCustomer, customer.MobileNumber, nil)
	if err != nil {
		logger.Error("Failed to generate token", err)
		return internalError(c)
	}

	logger.Success(fmt.Sprintf("Customer %s registered (%d tickets linked)", customer.ID, linked))
	rerr := c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Registration complete",
		Token:   token,
		Data:    fiber.Map{"customer": customer, "linked_tickets": linked},
	})
	ac.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return rerr
}

// Login checks the password and, when it matches, sends the login OTP. The
// session token is only minted once VerifyLoginOTP confirms the code.
func (ac *Controller) Login(c *fiber.Ctx) error {
	var req authTypes.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}

	mobile := utils.NormalizeMobile(req.MobileNumber)
	var customer customerModel.Customer
	err := ac.DB.Where("mobile_number = ?", mobile).First(&customer).Error
	if err != nil || !customer.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "AUTHENTICATION_ERROR", Message: "Invalid mobile number or password"},
		})
	}
	if !customer.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "ACCOUNT_INACTIVE", Message: "Account is not active"},
		})
	}

	otpRecord, err := ac.OTP.RequestCode(mobile, otpModel.PurposeLogin)
	if err != nil {
		return utils.RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Login code sent",
		Data: authTypes.OTPResponse{
			Message:   "OTP sent to your phone number",
			ExpiresAt: otpRecord.ExpiresAt.Format("2006-01-02 15:04:05"),
			Success:   true,
		},
	})
}

// VerifyLoginOTP completes the login: the confirmed code mints the session
// token and reconciles any tickets assigned to this mobile since the last
// session.
func (ac *Controller) VerifyLoginOTP(c *fiber.Ctx) error {
	var req authTypes.OTPLoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}

	mobile := utils.NormalizeMobile(req.MobileNumber)
	ok, err := ac.OTP.VerifyCode(mobile, req.Code, otpModel.PurposeLogin)
	if err != nil {
		return utils.RenderError(c, err)
	}
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "AUTHENTICATION_ERROR", Message: "Invalid or expired login code"},
		})
	}

	var customer customerModel.Customer
	if err := ac.DB.Where("mobile_number = ?", mobile).First(&customer).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "NOT_FOUND", Message: "No account with this mobile number"},
		})
	}
	if !customer.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "ACCOUNT_INACTIVE", Message: "Account is not active"},
		})
	}

	linked, err := ac.Ownership.Link(&customer)
	if err != nil {
		logger.Error("Failed to link pending tickets", err)
	}

	if err := ac.DB.Model(&customer).Update("last_login", time.Now()).Error; err != nil {
		logger.Error("Failed to record last login", err)
	}

	token, err := utils.GenerateToken(customer.ID, constants.RoleCustomer, customer.MobileNumber, nil)
	if err != nil {
		logger.Error("Failed to generate token", err)
		return internalError(c)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Login successful",
		Token:   token,
		Data:    fiber.Map{"customer": customer, "linked_tickets": linked},
	})
}

// ForgotPassword starts a password reset. The response is identical whether
// or not an account exists, so the endpoint cannot be used to probe for
// registered mobile numbers.
func (ac *Controller) ForgotPassword(c *fiber.Ctx) error {
	var req authTypes.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}

	mobile := utils.NormalizeMobile(req.MobileNumber)
	var customer customerModel.Customer
	err := ac.DB.Where("mobile_number = ?", mobile).First(&customer).Error
	if err == nil {
		if _, err := ac.OTP.RequestCode(mobile, otpModel.PurposeForgotPassword); err != nil {
			logger.Error("Failed to send reset code", err)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to look up customer", err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "If an account exists for this number, a reset code has been sent",
	})
}

// ResetPassword completes a password reset with the OTP.
func (ac *Controller) ResetPassword(c *fiber.Ctx) error {
	var req authTypes.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}
	if len(req.NewPassword) < 8 {
		return badRequest(c, "Password must be at least 8 characters")
	}

	mobile := utils.NormalizeMobile(req.MobileNumber)
	ok, err := ac.OTP.VerifyCode(mobile, req.Code, otpModel.PurposeForgotPassword)
	if err != nil {
		return utils.RenderError(c, err)
	}
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "AUTHENTICATION_ERROR", Message: "Invalid or expired reset code"},
		})
	}

	var customer customerModel.Customer
	if err := ac.DB.Where("mobile_number = ?", mobile).First(&customer).Error; err != nil {
		// A consumed OTP without an account should not happen; answer the
		// same way as a bad code.
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "AUTHENTICATION_ERROR", Message: "Invalid or expired reset code"},
		})
	}

	if err := customer.SetPassword(req.NewPassword); err != nil {
		logger.Error("Failed to hash password", err)
		return internalError(c)
	}
	if err := ac.DB.Model(&customer).Update("password_hash", customer.PasswordHash).Error; err != nil {
		logger.Error("Failed to update password", err)
		return internalError(c)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Password updated",
	})
}

func (ac *Controller) pendingRegistration(mobile string) (*registrationModel.PendingRegistration, error) {
	var pending registrationModel.PendingRegistration
	err := ac.DB.Where("mobile_number = ?", mobile).First(&pending).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("NOT_FOUND", "No registration in progress for this mobile number")
		}
		return nil, apperrors.Internal("failed to load pending registration", err)
	}
	if pending.IsExpired() {
		return nil, apperrors.NotFound("NOT_FOUND", "Registration session expired, start again")
	}
	return &pending, nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
		Status:  fiber.StatusBadRequest,
		Message: msg,
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
		Status:  fiber.StatusInternalServerError,
		Message: "Internal server error",
	})
}
