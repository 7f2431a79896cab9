package httpx

import (
	"fmt"
	"net/http"
)

// Business error codes
const (
	CodeSuccess = 0

	// Authentication/Authorization errors (1000-1099)
	CodeUnauthorized = 1001 // Not logged in / Token missing
	CodeInvalidToken = 1002
	CodeTokenExpired = 1003
	CodeForbidden    = 1004

	// Parameter errors (2000-2099)
	CodeParamMissing = 2001
	CodeParamInvalid = 2002 // Also used for pipeline validation failures

	// Resource errors (3000-3999)
	CodeNotFound = 3001

	// Chain and wallet errors (4000-4099)
	CodeSimulationReverted = 4001 // Dry run reverted, nothing was sent
	CodeUserRejected       = 4002
	CodeSubmissionFailed   = 4003 // Sent but failed or reverted on-chain
	CodeWalletNotConnected = 4004
	CodeChainUnavailable   = 4005

	// System errors (5000-5999)
	CodeInternalError = 5001
	CodeDatabaseError = 5002
	CodeExternalError = 5003
)

// AppError represents an application error with HTTP status and business code
type AppError struct {
	HTTPStatus int         // HTTP status code
	Code       int         // Business error code
	Message    string      // User-facing error message
	Err        error       // Internal error (for logging only, not returned to client)
	Data       interface{} // Additional data, e.g. a partial transaction outcome
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, message=%s, err=%v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("code=%d, message=%s", e.Code, e.Message)
}

// Unwrap exposes the internal error to errors.Is / errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithData adds additional data to the error
func (e *AppError) WithData(data interface{}) *AppError {
	e.Data = data
	return e
}

// NewAppError creates a new AppError
func NewAppError(httpStatus, code int, message string, err error) *AppError {
	return &AppError{
		HTTPStatus: httpStatus,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// ErrUnauthorized creates a 401 unauthorized error
func ErrUnauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, orDefault(message, "unauthorized"), nil)
}

// ErrInvalidToken creates a 401 invalid token error
func ErrInvalidToken(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeInvalidToken, orDefault(message, "invalid token"), nil)
}

// ErrTokenExpired creates a 401 token expired error
func ErrTokenExpired(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeTokenExpired, orDefault(message, "token expired"), nil)
}

// ErrForbidden creates a 403 forbidden error
func ErrForbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, orDefault(message, "forbidden"), nil)
}

// ErrParamMissing creates a 400 parameter missing error
func ErrParamMissing(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeParamMissing, orDefault(message, "parameter missing"), nil)
}

// ErrParamInvalid creates a 400 parameter invalid error
func ErrParamInvalid(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeParamInvalid, orDefault(message, "parameter format error"), nil)
}

// ErrNotFound creates a 404 not found error
func ErrNotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, orDefault(message, "resource not found"), nil)
}

// ErrSimulationReverted creates a 409 error for a reverted dry run
func ErrSimulationReverted(message string, err error) *AppError {
	return NewAppError(http.StatusConflict, CodeSimulationReverted, orDefault(message, "simulation reverted"), err)
}

// ErrUserRejected creates a 409 error for a signature the wallet declined
func ErrUserRejected(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeUserRejected, orDefault(message, "transaction rejected by user"), nil)
}

// ErrSubmissionFailed creates a 502 error for a failed submission or on-chain revert
func ErrSubmissionFailed(message string, err error) *AppError {
	return NewAppError(http.StatusBadGateway, CodeSubmissionFailed, orDefault(message, "transaction failed"), err)
}

// ErrWalletNotConnected creates a 409 error when no wallet session exists
func ErrWalletNotConnected(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeWalletNotConnected, orDefault(message, "wallet not connected"), nil)
}

// ErrChainUnavailable creates a 503 error when no read connection exists
func ErrChainUnavailable(message string, err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, CodeChainUnavailable, orDefault(message, "blockchain connection not available"), err)
}

// ErrInternalError creates a 500 internal error
func ErrInternalError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, orDefault(message, "internal error"), err)
}

// ErrDatabaseError creates a 500 database error
func ErrDatabaseError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeDatabaseError, orDefault(message, "database error"), err)
}

// ErrExternalError creates a 502 external dependency error
func ErrExternalError(message string, err error) *AppError {
	return NewAppError(http.StatusBadGateway, CodeExternalError, orDefault(message, "external dependency failure"), err)
}
