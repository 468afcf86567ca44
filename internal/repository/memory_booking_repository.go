package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
)

// MemoryBookingRepository implements BookingRepository using in-memory
// storage. Settlement follows the same contract as the PostgreSQL
// implementation: the capacity commit, ledger insert and booking
// transition succeed or fail together under one lock.
type MemoryBookingRepository struct {
	bookings   map[string]*domain.Booking
	organizers map[string]string // eventID -> organizerID
	events     *MemoryEventRepository
	ledger     *MemoryLedgerRepository
	mu         sync.RWMutex
}

// NewMemoryBookingRepository creates a new in-memory booking repository
func NewMemoryBookingRepository(events *MemoryEventRepository, ledger *MemoryLedgerRepository) *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings:   make(map[string]*domain.Booking),
		organizers: make(map[string]string),
		events:     events,
		ledger:     ledger,
	}
}

// SetOrganizer records the event -> organizer mapping used by
// GetByOrganizerID (for testing and seeding)
func (r *MemoryBookingRepository) SetOrganizer(eventID, organizerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.organizers[eventID] = organizerID
}

// Create creates a new booking record
func (r *MemoryBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := *booking
	r.bookings[booking.ID] = &b
	return nil
}

// GetByID retrieves a booking by its ID
func (r *MemoryBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, exists := r.bookings[id]
	if !exists {
		return nil, domain.ErrBookingNotFound
	}

	b := *booking
	return &b, nil
}

// GetByOrderID retrieves all bookings sharing a gateway order
func (r *MemoryBookingRepository) GetByOrderID(ctx context.Context, orderID string) ([]*domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool { return b.OrderID == orderID }, 0, 0)
}

// GetByUserID retrieves all bookings for a user, newest first
func (r *MemoryBookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool { return b.UserID == userID }, limit, offset)
}

// GetByEventID retrieves all bookings for an event, newest first
func (r *MemoryBookingRepository) GetByEventID(ctx context.Context, eventID string, limit, offset int) ([]*domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool { return b.EventID == eventID }, limit, offset)
}

// GetByOrganizerID retrieves bookings across all events of an organizer
func (r *MemoryBookingRepository) GetByOrganizerID(ctx context.Context, organizerID string, limit, offset int) ([]*domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool {
		return r.organizers[b.EventID] == organizerID
	}, limit, offset)
}

// UpdateStatus updates only the operational status of a booking
func (r *MemoryBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, exists := r.bookings[id]
	if !exists {
		return domain.ErrBookingNotFound
	}

	booking.BookingStatus = status
	booking.UpdatedAt = time.Now()
	return nil
}

// Settle atomically commits tier capacity, records the ledger entry and
// moves the booking from Pending to Completed
func (r *MemoryBookingRepository) Settle(ctx context.Context, params SettleParams) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, exists := r.bookings[params.BookingID]
	if !exists {
		return nil, domain.ErrBookingNotFound
	}

	switch booking.PaymentStatus {
	case domain.PaymentStatusPending:
	case domain.PaymentStatusRefunded:
		return nil, domain.ErrAlreadyRefunded
	default:
		return nil, domain.ErrAlreadySettled
	}

	if err := r.events.consume(params.TicketID, params.TicketsCount); err != nil {
		return nil, err
	}

	now := time.Now()
	txn := &domain.Transaction{
		ID:               uuid.New().String(),
		Type:             domain.TransactionTypeBooking,
		Amount:           params.Amount,
		SenderID:         params.UserID,
		ReceiverID:       params.OrganizerID,
		PlatformFee:      params.PlatformFee,
		OrderID:          params.OrderID,
		GatewayPaymentID: params.GatewayPaymentID,
		WalletID:         params.WalletID,
		BookingID:        params.BookingID,
		CreatedAt:        now,
	}
	r.ledger.add(txn)

	booking.AmountPaid = params.Amount
	booking.PaymentStatus = domain.PaymentStatusCompleted
	booking.TransactionID = &txn.ID
	booking.UpdatedAt = now

	return txn, nil
}

// MarkFailed moves a Pending booking to Failed
func (r *MemoryBookingRepository) MarkFailed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, exists := r.bookings[id]
	if !exists {
		return domain.ErrBookingNotFound
	}
	if booking.PaymentStatus != domain.PaymentStatusPending {
		return domain.ErrAlreadySettled
	}

	booking.PaymentStatus = domain.PaymentStatusFailed
	booking.UpdatedAt = time.Now()
	return nil
}

// MarkRefunded moves a Completed booking to the terminal Refunded state
func (r *MemoryBookingRepository) MarkRefunded(ctx context.Context, id, refundID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, exists := r.bookings[id]
	if !exists {
		return domain.ErrBookingNotFound
	}
	switch booking.PaymentStatus {
	case domain.PaymentStatusCompleted:
	case domain.PaymentStatusRefunded:
		return domain.ErrAlreadyRefunded
	default:
		return domain.ErrNotRefundable
	}

	booking.PaymentStatus = domain.PaymentStatusRefunded
	booking.RefundID = &refundID
	booking.UpdatedAt = time.Now()
	return nil
}

// CountConfirmedTickets sums settled ticket quantities for a tier
func (r *MemoryBookingRepository) CountConfirmedTickets(ctx context.Context, ticketID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, b := range r.bookings {
		if b.TicketID == ticketID && b.PaymentStatus == domain.PaymentStatusCompleted {
			count += b.TicketsCount
		}
	}
	return count, nil
}

// Clear clears all data (for testing)
func (r *MemoryBookingRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = make(map[string]*domain.Booking)
	r.organizers = make(map[string]string)
}

func (r *MemoryBookingRepository) filter(match func(*domain.Booking) bool, limit, offset int) ([]*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Booking
	for _, b := range r.bookings {
		if match(b) {
			copied := *b
			result = append(result, &copied)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit <= 0 {
		return result, nil
	}
	if offset >= len(result) {
		return []*domain.Booking{}, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

// Ensure MemoryBookingRepository implements BookingRepository
var _ BookingRepository = (*MemoryBookingRepository)(nil)
