package utils

import (
	"event-ticketing/apperrors"
	"event-ticketing/logger"
	"event-ticketing/types"

	"github.com/gofiber/fiber/v2"
)

// RenderError translates a service error into the portal error envelope.
// Unclassified errors are logged and surfaced as a generic internal error so
// collaborator details never leak to clients.
func RenderError(c *fiber.Ctx, err error) error {
	ae, ok := apperrors.As(err)
	if !ok || ae.Kind == apperrors.KindInternal {
		logger.Error("Unhandled service error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{
			Error: types.ApiError{Code: "INTERNAL_ERROR", Message: "Something went wrong"},
		})
	}
	body := types.ErrorResponse{Error: types.ApiError{Code: ae.Code, Message: ae.Message, Remaining: ae.Remaining}}
	return c.Status(ae.Kind.HTTPStatus()).JSON(body)
}
