package routes

import (
	authController "event-ticketing/controllers/auth"
	bookingController "event-ticketing/controllers/booking"
	cardController "event-ticketing/controllers/card"
	checkinController "event-ticketing/controllers/checkin"
	ticketController "event-ticketing/controllers/ticket"
	"event-ticketing/logger"
	"event-ticketing/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	asyncLogger := logger.NewAsyncLogger(db)
	auth := authController.NewAuthController(db, asyncLogger)
	booking := bookingController.NewBookingController(db, asyncLogger)
	tickets := ticketController.NewTicketController(db, asyncLogger)
	checkin := checkinController.NewCheckinController(db, asyncLogger)
	cards := cardController.NewCardController(db, asyncLogger)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": "event-ticketing", "status": "ok"})
	})

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api")
	api.Post("/register", auth.Register)
	api.Post("/register/verify", auth.VerifyMobile)
	api.Post("/register/complete", auth.CompleteRegistration)
	api.Post("/login", auth.Login)
	api.Post("/login/verify", auth.VerifyLoginOTP)
	api.Post("/forgot-password", auth.ForgotPassword)
	api.Post("/reset-password", auth.ResetPassword)

	/*=============================================================================
	| Customer Routes
	===============================================================================*/
	customer := api.Group("/customer").Use(middleware.RequireCustomer())
	customer.Post("/bookings", booking.BookTickets)
	customer.Get("/tickets", tickets.ListTickets)
	customer.Get("/tickets/:id", tickets.GetTicket)
	customer.Post("/tickets/:id/transfer", tickets.Transfer)
	customer.Post("/tickets/:id/gift", tickets.Gift)
	customer.Post("/tickets/:id/refund", tickets.Refund)
	customer.Get("/tickets/:id/qr", tickets.QRPayload)
	customer.Get("/tickets/:id/checkin-status", tickets.CheckinStatus)

	/*=============================================================================
	| Usher Routes
	===============================================================================*/
	usher := api.Group("/usher").Use(middleware.RequireUsher())
	usher.Post("/verify-card", checkin.VerifyCard)
	usher.Get("/attendee/:serial/:event_id", checkin.Attendee)
	usher.Post("/scan-result", checkin.ScanResult)
	usher.Post("/checkin/card", checkin.CheckinByCard)
	usher.Post("/checkin/qr", checkin.CheckinByQR)
	usher.Get("/scan-logs", checkin.ScanLogs)

	/*=============================================================================
	| Merchant Routes
	===============================================================================*/
	merchant := api.Group("/merchant").Use(middleware.RequireMerchant())
	merchant.Post("/cards/assign", cards.AssignCard)
	merchant.Post("/cards/confirm", cards.ConfirmAssignCard)
	merchant.Get("/cards", cards.ListCards)
}
