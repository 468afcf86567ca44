package domain

import "time"

// PaymentStatus tracks the money side of a booking lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
	PaymentStatusRefunded  PaymentStatus = "Refunded"
)

// String returns the string representation of the payment status
func (s PaymentStatus) String() string {
	return string(s)
}

// IsValid checks if the payment status is a known value
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// BookingStatus tracks the operational side of a booking lifecycle,
// independent of payment status. Values match the original schema.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "Pending"
	BookingStatusCheckIn    BookingStatus = "check-in"
	BookingStatusInProgress BookingStatus = "in-progress"
	BookingStatusCompleted  BookingStatus = "Completed"
	BookingStatusCancelled  BookingStatus = "Cancelled"
)

// String returns the string representation of the booking status
func (s BookingStatus) String() string {
	return string(s)
}

// IsValid checks if the booking status is a known value
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusCheckIn, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// Booking represents one purchase intent for a quantity of a ticket tier.
// A booking is never deleted, only state-transitioned: it is the audit
// trail of inventory consumption.
type Booking struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	EventID       string        `json:"event_id"`
	TicketID      string        `json:"ticket_id"`
	TicketsCount  int           `json:"tickets_count"`
	AmountPaid    float64       `json:"amount_paid"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	BookingStatus BookingStatus `json:"booking_status"`
	// TransactionID references the ledger entry created at settlement.
	// A non-nil value doubles as the "payment confirmed" flag.
	TransactionID *string   `json:"transaction_id"`
	OrderID       string    `json:"order_id"`
	RefundID      *string   `json:"refund_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsSettled reports whether the booking's payment has been reconciled
// into a ledger transaction.
func (b *Booking) IsSettled() bool {
	return b.PaymentStatus == PaymentStatusCompleted && b.TransactionID != nil
}

// IsRefunded reports whether the booking reached the terminal refunded state.
func (b *Booking) IsRefunded() bool {
	return b.PaymentStatus == PaymentStatusRefunded
}

// BelongsToUser checks booking ownership
func (b *Booking) BelongsToUser(userID string) bool {
	return b.UserID == userID
}

// Booking lifecycle event types published after state transitions.
const (
	BookingEventCreated   = "booking.created"
	BookingEventConfirmed = "booking.confirmed"
	BookingEventRefunded  = "booking.refunded"

	WithdrawalEventRequested = "withdrawal.requested"
	WithdrawalEventCompleted = "withdrawal.completed"
	WithdrawalEventRejected  = "withdrawal.rejected"
)
