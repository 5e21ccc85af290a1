package utils

import (
	"encoding/json"
	"time"

	"event-ticketing/types"

	"github.com/gofiber/fiber/v2"
)

var sensitiveFields = []string{"password", "new_password", "code", "password_hash"}

// sanitizeRequestBody masks credential fields before a request body reaches
// the logs table.
func sanitizeRequestBody(c *fiber.Ctx) string {
	body := c.Body()
	if len(body) == 0 {
		return ""
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return string(append([]byte(nil), body...))
	}
	for _, field := range sensitiveFields {
		if _, ok := parsed[field]; ok {
			parsed[field] = "***"
		}
	}
	sanitized, err := json.Marshal(parsed)
	if err != nil {
		return ""
	}
	return string(sanitized)
}

// CreateSanitizedLogEntry captures the request/response pair for the async
// logger. All data is deep copied because fiber recycles its buffers after
// the handler returns.
func CreateSanitizedLogEntry(c *fiber.Ctx) types.LogEntry {
	method := string([]byte(c.Method()))
	url := string([]byte(c.OriginalURL()))
	requestBody := sanitizeRequestBody(c)
	responseBody := string(append([]byte(nil), c.Response().Body()...))

	requestHeaders := make([]byte, len(c.Request().Header.Header()))
	copy(requestHeaders, c.Request().Header.Header())

	responseHeaders := make([]byte, len(c.Response().Header.Header()))
	copy(responseHeaders, c.Response().Header.Header())

	return types.LogEntry{
		Method:          method,
		URL:             url,
		RequestBody:     requestBody,
		ResponseBody:    responseBody,
		RequestHeaders:  string(requestHeaders),
		ResponseHeaders: string(responseHeaders),
		StatusCode:      c.Response().StatusCode(),
		CreatedAt:       time.Now(),
	}
}
