package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// =============================================================================
// Standard API Response Types
// =============================================================================
//
// Every endpoint answers with one of two shapes:
//   success: {"data": ...} (lists add "pagination")
//   failure: {"error": {"code", "message", "details"}}

// ErrorCode defines standard error codes for programmatic handling
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"      // 400 - Malformed request
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR" // 400 - Validation failed
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"     // 401 - Not authenticated
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"        // 404 - Resource not found
	ErrCodeConflict     ErrorCode = "CONFLICT"         // 409 - Resource conflict

	// Server errors (5xx)
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"      // 500 - Unexpected error
	ErrCodeBadGateway         ErrorCode = "BAD_GATEWAY"         // 502 - Upstream failed
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE" // 503 - Dependency not configured
)

// ErrorDetail provides additional context for validation errors
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorResponse is the standard error response structure
type ErrorResponse struct {
	Error struct {
		Code    ErrorCode     `json:"code"`
		Message string        `json:"message"`
		Details []ErrorDetail `json:"details,omitempty"`
	} `json:"error"`
}

// DataResponse wraps a single resource or object response
type DataResponse[T any] struct {
	Data T `json:"data"`
}

// ListResponse wraps a collection of resources with optional pagination
type ListResponse[T any] struct {
	Data       []T         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination contains offset-based pagination metadata
type Pagination struct {
	HasMore bool `json:"hasMore"`
	Total   *int `json:"total,omitempty"`
	Limit   *int `json:"limit,omitempty"`
	Offset  *int `json:"offset,omitempty"`
}

// RespondData sends a successful response with a single data object
// Status: 200 OK
func RespondData[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, DataResponse[T]{Data: data})
}

// RespondCreated sends a 201 Created response with the created resource
// Also sets the Location header if path is provided
func RespondCreated[T any](c *gin.Context, data T, locationPath string) {
	if locationPath != "" {
		c.Header("Location", locationPath)
	}
	c.JSON(http.StatusCreated, DataResponse[T]{Data: data})
}

// RespondList sends a successful response with a list of items
// Status: 200 OK
func RespondList[T any](c *gin.Context, data []T, pagination *Pagination) {
	// Ensure empty array instead of null
	if data == nil {
		data = []T{}
	}
	c.JSON(http.StatusOK, ListResponse[T]{Data: data, Pagination: pagination})
}

// RespondAccepted sends a 202 Accepted response for async operations
func RespondAccepted[T any](c *gin.Context, data T) {
	c.JSON(http.StatusAccepted, DataResponse[T]{Data: data})
}

func respondError(c *gin.Context, status int, code ErrorCode, message string, details []ErrorDetail) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	c.JSON(status, resp)
}

// RespondBadRequest sends a 400 Bad Request error
func RespondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, ErrCodeBadRequest, message, nil)
}

// RespondValidationError sends a 400 Bad Request with validation details
func RespondValidationError(c *gin.Context, message string, details []ErrorDetail) {
	respondError(c, http.StatusBadRequest, ErrCodeValidation, message, details)
}

// RespondUnauthorized sends a 401 Unauthorized error
func RespondUnauthorized(c *gin.Context, message string) {
	respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, message, nil)
}

// RespondNotFound sends a 404 Not Found error
func RespondNotFound(c *gin.Context, message string) {
	respondError(c, http.StatusNotFound, ErrCodeNotFound, message, nil)
}

// RespondInternalError sends a 500 Internal Server Error
func RespondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, ErrCodeInternal, message, nil)
}

// RespondBadGateway sends a 502 when an upstream service call fails
func RespondBadGateway(c *gin.Context, message string) {
	respondError(c, http.StatusBadGateway, ErrCodeBadGateway, message, nil)
}

// RespondServiceUnavailable sends a 503 Service Unavailable error
func RespondServiceUnavailable(c *gin.Context, message string) {
	respondError(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message, nil)
}
