package types

import "time"

// ApiResponse is the envelope every portal endpoint returns.
type ApiResponse struct {
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Token   string      `json:"token,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ApiError is the structured error body: a stable machine-readable code plus
// a human-readable message.
type ApiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Remaining *int64 `json:"remaining,omitempty"`
}

// ErrorResponse wraps an ApiError for JSON rendering.
type ErrorResponse struct {
	Error ApiError `json:"error"`
}

// LogEntry represents a request/response log entry buffered for the async
// database logger.
type LogEntry struct {
	ID              uint
	Method          string
	URL             string
	RequestBody     string
	ResponseBody    string
	RequestHeaders  string
	ResponseHeaders string
	StatusCode      int
	CreatedAt       time.Time
}
