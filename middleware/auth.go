package middleware

import (
	"strings"

	"event-ticketing/constants"
	"event-ticketing/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"event-ticketing/utils"
)

// IsAuthenticated checks for a valid JWT token and, when roles are given,
// requires the token's role to be one of them. Claims are attached to the
// request context under "user".
func IsAuthenticated(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var token string

		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"status": "error",
					"error":  "Invalid authorization header format",
				})
			}
			token = tokenParts[1]
		} else {
			// Cookie fallback for browser sessions.
			token = c.Cookies("access")
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"status": "error",
					"error":  "Authorization token missing",
				})
			}
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Session expired. Login again.",
				Status:  fiber.StatusUnauthorized,
			})
		}

		if len(allowedRoles) > 0 && !hasRole(claims, allowedRoles) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status": "error",
				"error":  "Insufficient permissions",
			})
		}

		c.Locals("user", claims)
		return c.Next()
	}
}

func hasRole(claims jwt.MapClaims, allowed []string) bool {
	role, _ := claims[constants.ClaimRole].(string)
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// RequireCustomer guards attendee portal routes.
func RequireCustomer() fiber.Handler {
	return IsAuthenticated(constants.RoleCustomer)
}

// RequireUsher guards gate operation routes.
func RequireUsher() fiber.Handler {
	return IsAuthenticated(constants.RoleUsher)
}

// RequireMerchant guards card desk routes.
func RequireMerchant() fiber.Handler {
	return IsAuthenticated(constants.RoleMerchant)
}

// SubjectID extracts the authenticated subject from the request context.
func SubjectID(c *fiber.Ctx) string {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	if !ok {
		return ""
	}
	id, _ := claims[constants.ClaimSubjectID].(string)
	return id
}

// SubjectMobile extracts the authenticated mobile number from the request
// context.
func SubjectMobile(c *fiber.Ctx) string {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	if !ok {
		return ""
	}
	mobile, _ := claims[constants.ClaimMobile].(string)
	return mobile
}

// SubjectRole extracts the authenticated role from the request context.
func SubjectRole(c *fiber.Ctx) string {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	if !ok {
		return ""
	}
	role, _ := claims[constants.ClaimRole].(string)
	return role
}
