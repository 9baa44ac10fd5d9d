// Package errors provides custom error types for the Markowitz API.
// All service and engine errors use AppError so that every failure carries a
// stable machine-readable code and a safe client-facing message.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Ticker errors.
var (
	ErrTickerNotFound  = &AppError{Code: "TICKER_NOT_FOUND", Message: "Ticker not found", StatusCode: http.StatusNotFound}
	ErrDuplicateTicker = &AppError{Code: "DUPLICATE_TICKER", Message: "A ticker with this symbol already exists", StatusCode: http.StatusConflict}
)

// Price errors.
var (
	ErrNoPriceHistory = &AppError{Code: "NO_PRICE_HISTORY", Message: "No price history recorded for this ticker", StatusCode: http.StatusNotFound}
)

// Market data errors.
var (
	ErrMarketDataUnavailable = &AppError{Code: "MARKET_DATA_UNAVAILABLE", Message: "Upstream market data provider is unavailable", StatusCode: http.StatusBadGateway}
)

// Optimization engine errors. These are raised synchronously at the point of
// detection and never downgraded to partial results: an optimization run
// either yields a complete result or one of these failures.
var (
	ErrInvalidPrice             = &AppError{Code: "INVALID_PRICE", Message: "Price series contains a non-positive or non-finite price", StatusCode: http.StatusUnprocessableEntity}
	ErrInsufficientData         = &AppError{Code: "INSUFFICIENT_DATA", Message: "Too few aligned price periods for a stable estimate", StatusCode: http.StatusUnprocessableEntity}
	ErrIllConditionedCovariance = &AppError{Code: "ILL_CONDITIONED_COVARIANCE", Message: "Covariance matrix is singular or near-singular", StatusCode: http.StatusUnprocessableEntity}
	ErrSolverDidNotConverge     = &AppError{Code: "SOLVER_DID_NOT_CONVERGE", Message: "Quadratic programming solve exceeded its iteration budget", StatusCode: http.StatusInternalServerError}
	ErrNoTangencyPortfolio      = &AppError{Code: "NO_TANGENCY_PORTFOLIO", Message: "Risk-free rate exceeds every attainable portfolio return", StatusCode: http.StatusUnprocessableEntity}
	ErrInvariantViolation       = &AppError{Code: "INVARIANT_VIOLATION", Message: "Optimization result failed structural validation", StatusCode: http.StatusInternalServerError}
)
