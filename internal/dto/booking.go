package dto

import (
	"time"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
)

// CreateBookingRequest represents a request to open a booking and a
// gateway order for one ticket tier
type CreateBookingRequest struct {
	UserID       string  `json:"user_id" binding:"required"`
	EventID      string  `json:"event_id" binding:"required"`
	TicketID     string  `json:"ticket_id" binding:"required"`
	TicketsCount int     `json:"tickets_count" binding:"required,min=1,max=10"`
	AmountPaid   float64 `json:"amount_paid" binding:"required,gt=0"`
}

// CreateBookingResponse carries the pending booking and the gateway order
// the client needs to collect payment
type CreateBookingResponse struct {
	Booking *BookingResponse `json:"booking"`
	Order   *OrderResponse   `json:"order"`
}

// CreateMultipleBookingsRequest opens one gateway order covering several
// ticket tiers in a single checkout
type CreateMultipleBookingsRequest struct {
	UserID  string               `json:"user_id" binding:"required"`
	EventID string               `json:"event_id" binding:"required"`
	Items   []BookingItemRequest `json:"items" binding:"required,min=1,dive"`
}

// BookingItemRequest is one ticket tier line within a multi-tier checkout
type BookingItemRequest struct {
	TicketID     string  `json:"ticket_id" binding:"required"`
	TicketsCount int     `json:"tickets_count" binding:"required,min=1,max=10"`
	AmountPaid   float64 `json:"amount_paid" binding:"required,gt=0"`
}

// CreateMultipleBookingsResponse carries all pending bookings under one order
type CreateMultipleBookingsResponse struct {
	Bookings []*BookingResponse `json:"bookings"`
	Order    *OrderResponse     `json:"order"`
}

// OrderResponse represents a payment gateway order
type OrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
	Provider string `json:"provider"`
}

// ConfirmBookingRequest represents a request to settle a paid booking
type ConfirmBookingRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
	// Signature authenticates the gateway callback (HMAC of order|payment)
	Signature string `json:"signature,omitempty"`
	// PlatformFee is the surcharge collected on top of the ticket amount.
	// Recomputed from the booking when the caller omits it.
	PlatformFee float64 `json:"platform_fee,omitempty"`
}

// ConfirmMultipleBookingsRequest settles every booking under one gateway order
type ConfirmMultipleBookingsRequest struct {
	PaymentID string               `json:"payment_id" binding:"required"`
	Signature string               `json:"signature,omitempty"`
	Updates   []ConfirmUpdateEntry `json:"updates" binding:"required,min=1,dive"`
}

// ConfirmUpdateEntry carries the per-booking split of a multi-tier payment
type ConfirmUpdateEntry struct {
	BookingID   string  `json:"booking_id" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	PlatformFee float64 `json:"platform_fee"`
}

// UpdateBookingStatusRequest changes the operational status of a booking
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	EventID       string    `json:"event_id"`
	TicketID      string    `json:"ticket_id"`
	TicketsCount  int       `json:"tickets_count"`
	AmountPaid    float64   `json:"amount_paid"`
	PaymentStatus string    `json:"payment_status"`
	BookingStatus string    `json:"booking_status"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	OrderID       string    `json:"order_id,omitempty"`
	RefundID      *string   `json:"refund_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RefundBookingResponse represents the result of a refund
type RefundBookingResponse struct {
	BookingID string `json:"booking_id"`
	RefundID  string `json:"refund_id"`
	Status    string `json:"status"`
}

// BookingFromDomain converts a domain Booking to its API shape
func BookingFromDomain(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		EventID:       b.EventID,
		TicketID:      b.TicketID,
		TicketsCount:  b.TicketsCount,
		AmountPaid:    b.AmountPaid,
		PaymentStatus: string(b.PaymentStatus),
		BookingStatus: string(b.BookingStatus),
		TransactionID: b.TransactionID,
		OrderID:       b.OrderID,
		RefundID:      b.RefundID,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

// BookingsFromDomain converts a slice of domain bookings
func BookingsFromDomain(bookings []*domain.Booking) []*BookingResponse {
	out := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, BookingFromDomain(b))
	}
	return out
}
