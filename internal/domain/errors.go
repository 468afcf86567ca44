package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Booking errors
	ErrBookingNotFound    = errors.New("booking not found")
	ErrAlreadySettled     = errors.New("booking payment already settled")
	ErrAlreadyRefunded    = errors.New("booking already refunded")
	ErrNotRefundable      = errors.New("booking payment is not in a refundable state")
	ErrPaymentNotCaptured = errors.New("payment not captured")

	// Catalog errors
	ErrEventNotFound  = errors.New("event not found")
	ErrTicketNotFound = errors.New("ticket not found on event")

	// Inventory errors
	ErrSoldOut = errors.New("tickets sold out")

	// Validation errors
	ErrInvalidUserID       = errors.New("invalid user id")
	ErrInvalidEventID      = errors.New("invalid event id")
	ErrInvalidTicketID     = errors.New("invalid ticket id")
	ErrInvalidBookingID    = errors.New("invalid booking id")
	ErrInvalidTicketsCount = errors.New("tickets count must be greater than zero")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidStatus       = errors.New("invalid status value")

	// Wallet errors
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// Withdrawal errors
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrNotWithdrawal        = errors.New("transaction is not a withdrawal")
	ErrWithdrawalNotPending = errors.New("withdrawal is not pending")

	// Upstream errors
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrPaymentLookupFailed = errors.New("payment lookup failed at gateway")
	ErrInvalidSignature    = errors.New("payment signature verification failed")
)

// SoldOutError reports a failed capacity check along with the state the
// client needs for retry logic.
type SoldOutError struct {
	EventID   string
	TicketID  string
	Requested int
	Available int
}

func (e *SoldOutError) Error() string {
	return fmt.Sprintf("tickets sold out: requested %d, %d available for ticket %s",
		e.Requested, e.Available, e.TicketID)
}

func (e *SoldOutError) Is(target error) bool {
	return target == ErrSoldOut
}

// InsufficientBalanceError reports a failed withdrawal along with the
// available balance so the client can adjust.
type InsufficientBalanceError struct {
	OrganizerID string
	Requested   float64
	Available   float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient wallet balance: requested %.2f, %.2f available",
		e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrTicketNotFound) ||
		errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidTicketID) ||
		errors.Is(err, ErrInvalidBookingID) ||
		errors.Is(err, ErrInvalidTicketsCount) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidStatus)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrSoldOut) ||
		errors.Is(err, ErrAlreadySettled) ||
		errors.Is(err, ErrAlreadyRefunded) ||
		errors.Is(err, ErrNotRefundable) ||
		errors.Is(err, ErrPaymentNotCaptured) ||
		errors.Is(err, ErrWithdrawalNotPending) ||
		errors.Is(err, ErrNotWithdrawal)
}

// IsUpstreamError checks if the error is a retryable gateway failure
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrGatewayUnavailable) ||
		errors.Is(err, ErrPaymentLookupFailed)
}
