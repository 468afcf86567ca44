package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/telemetry"
)

// PostgresBookingRepository implements BookingRepository using PostgreSQL with pgxpool
type PostgresBookingRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBookingRepository creates a new PostgresBookingRepository
func NewPostgresBookingRepository(pool *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{pool: pool}
}

const bookingColumns = `
	id, user_id, event_id, ticket_id, tickets_count, amount_paid,
	payment_status, booking_status, transaction_id, order_id, refund_id,
	created_at, updated_at
`

// Create creates a new booking record in the database
func (r *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.String("user_id", booking.UserID),
		attribute.String("event_id", booking.EventID),
	)

	query := `
		INSERT INTO bookings (
			id, user_id, event_id, ticket_id, tickets_count, amount_paid,
			payment_status, booking_status, transaction_id, order_id, refund_id,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13
		)
	`

	_, err := r.pool.Exec(ctx, query,
		booking.ID,
		booking.UserID,
		booking.EventID,
		booking.TicketID,
		booking.TicketsCount,
		booking.AmountPaid,
		booking.PaymentStatus.String(),
		booking.BookingStatus.String(),
		booking.TransactionID,
		nullString(booking.OrderID),
		booking.RefundID,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create booking: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a booking by its ID
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrBookingNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// GetByOrderID retrieves all bookings sharing a gateway order
func (r *PostgresBookingRepository) GetByOrderID(ctx context.Context, orderID string) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_order_id")
	defer span.End()

	span.SetAttributes(attribute.String("order_id", orderID))

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE order_id = $1 ORDER BY created_at`

	return r.queryBookings(ctx, query, orderID)
}

// GetByUserID retrieves all bookings for a user, newest first
func (r *PostgresBookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_user_id")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.queryBookings(ctx, query, userID, limit, offset)
}

// GetByEventID retrieves all bookings for an event, newest first
func (r *PostgresBookingRepository) GetByEventID(ctx context.Context, eventID string, limit, offset int) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_event_id")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE event_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.queryBookings(ctx, query, eventID, limit, offset)
}

// GetByOrganizerID retrieves bookings across all events of an organizer
func (r *PostgresBookingRepository) GetByOrganizerID(ctx context.Context, organizerID string, limit, offset int) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_organizer_id")
	defer span.End()

	span.SetAttributes(
		attribute.String("organizer_id", organizerID),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	query := `
		SELECT b.id, b.user_id, b.event_id, b.ticket_id, b.tickets_count, b.amount_paid,
			b.payment_status, b.booking_status, b.transaction_id, b.order_id, b.refund_id,
			b.created_at, b.updated_at
		FROM bookings b
		JOIN events e ON b.event_id = e.id
		WHERE e.organizer_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`

	return r.queryBookings(ctx, query, organizerID, limit, offset)
}

// UpdateStatus updates only the operational status of a booking
func (r *PostgresBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.update_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", id),
		attribute.String("status", status.String()),
	)

	query := `
		UPDATE bookings SET
			booking_status = $2,
			updated_at = $3
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, status.String(), time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrBookingNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Settle commits one paid booking: the tier capacity check-and-increment,
// the ledger insert and the Pending -> Completed transition run in a
// single database transaction, so a capacity failure leaves no trace.
func (r *PostgresBookingRepository) Settle(ctx context.Context, params SettleParams) (*domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.settle")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", params.BookingID),
		attribute.String("ticket_id", params.TicketID),
		attribute.Int("tickets_count", params.TicketsCount),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin settle transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	// Guard the booking transition first so a replayed settle never
	// touches the sold counter.
	txnID := uuid.New().String()
	result, err := tx.Exec(ctx, `
		UPDATE bookings SET
			payment_status = $2,
			transaction_id = $3,
			amount_paid = $4,
			updated_at = $5
		WHERE id = $1 AND payment_status = 'Pending'
	`, params.BookingID, domain.PaymentStatusCompleted.String(), txnID, params.Amount, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to settle booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		var status string
		err := r.pool.QueryRow(ctx, `SELECT payment_status FROM bookings WHERE id = $1`, params.BookingID).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				span.SetStatus(codes.Error, "not found")
				return nil, domain.ErrBookingNotFound
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to check booking status: %w", err)
		}
		switch domain.PaymentStatus(status) {
		case domain.PaymentStatusRefunded:
			span.SetStatus(codes.Error, "already refunded")
			return nil, domain.ErrAlreadyRefunded
		default:
			span.SetStatus(codes.Error, "already settled")
			return nil, domain.ErrAlreadySettled
		}
	}

	// Hard capacity cap: the increment only succeeds while the tier has
	// room for the whole quantity.
	result, err = tx.Exec(ctx, `
		UPDATE tickets SET
			sold_count = sold_count + $2,
			updated_at = $3
		WHERE id = $1 AND sold_count + $2 <= total_quantity
	`, params.TicketID, params.TicketsCount, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to commit ticket capacity: %w", err)
	}

	if result.RowsAffected() == 0 {
		var total, sold int
		var eventID string
		err := r.pool.QueryRow(ctx,
			`SELECT event_id, total_quantity, sold_count FROM tickets WHERE id = $1`,
			params.TicketID).Scan(&eventID, &total, &sold)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				span.SetStatus(codes.Error, "ticket not found")
				return nil, domain.ErrTicketNotFound
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to check ticket capacity: %w", err)
		}
		available := total - sold
		if available < 0 {
			available = 0
		}
		span.SetStatus(codes.Error, "sold out")
		return nil, &domain.SoldOutError{
			EventID:   eventID,
			TicketID:  params.TicketID,
			Requested: params.TicketsCount,
			Available: available,
		}
	}

	txn := &domain.Transaction{
		ID:               txnID,
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

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (
			id, type, amount, sender_id, receiver_id, reference, platform_fee,
			order_id, gateway_payment_id, wallet_id, booking_id,
			withdrawal_status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13
		)
	`,
		txn.ID,
		txn.Type.String(),
		txn.Amount,
		txn.SenderID,
		nullString(txn.ReceiverID),
		nullString(txn.Reference),
		txn.PlatformFee,
		nullString(txn.OrderID),
		nullString(txn.GatewayPaymentID),
		nullString(txn.WalletID),
		nullString(txn.BookingID),
		nil,
		txn.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to insert settlement transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to commit settle transaction: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return txn, nil
}

// MarkFailed moves a Pending booking to Failed
func (r *PostgresBookingRepository) MarkFailed(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.mark_failed")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))

	query := `
		UPDATE bookings SET
			payment_status = $2,
			updated_at = $3
		WHERE id = $1 AND payment_status = 'Pending'
	`

	result, err := r.pool.Exec(ctx, query, id, domain.PaymentStatusFailed.String(), time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to mark booking failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not pending")
		return domain.ErrAlreadySettled
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// MarkRefunded moves a Completed booking to the terminal Refunded state
func (r *PostgresBookingRepository) MarkRefunded(ctx context.Context, id, refundID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.mark_refunded")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", id),
		attribute.String("refund_id", refundID),
	)

	query := `
		UPDATE bookings SET
			payment_status = $2,
			refund_id = $3,
			updated_at = $4
		WHERE id = $1 AND payment_status = 'Completed'
	`

	result, err := r.pool.Exec(ctx, query, id, domain.PaymentStatusRefunded.String(), refundID, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to mark booking refunded: %w", err)
	}

	if result.RowsAffected() == 0 {
		var status string
		err := r.pool.QueryRow(ctx, `SELECT payment_status FROM bookings WHERE id = $1`, id).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				span.SetStatus(codes.Error, "not found")
				return domain.ErrBookingNotFound
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to check booking status: %w", err)
		}
		if domain.PaymentStatus(status) == domain.PaymentStatusRefunded {
			span.SetStatus(codes.Error, "already refunded")
			return domain.ErrAlreadyRefunded
		}
		span.SetStatus(codes.Error, "not refundable")
		return domain.ErrNotRefundable
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// CountConfirmedTickets sums settled ticket quantities for a tier
func (r *PostgresBookingRepository) CountConfirmedTickets(ctx context.Context, ticketID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.count_confirmed")
	defer span.End()

	span.SetAttributes(attribute.String("ticket_id", ticketID))

	query := `
		SELECT COALESCE(SUM(tickets_count), 0) FROM bookings
		WHERE ticket_id = $1 AND payment_status = 'Completed'
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(&count); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to count confirmed tickets: %w", err)
	}

	span.SetAttributes(attribute.Int("count", count))
	span.SetStatus(codes.Ok, "")
	return count, nil
}

func (r *PostgresBookingRepository) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*domain.Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

// scanBooking scans a row into a Booking struct
func scanBooking(row pgx.Row) (*domain.Booking, error) {
	booking := &domain.Booking{}
	var (
		paymentStatus string
		bookingStatus string
		transactionID *string
		orderID       *string
		refundID      *string
	)

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.EventID,
		&booking.TicketID,
		&booking.TicketsCount,
		&booking.AmountPaid,
		&paymentStatus,
		&bookingStatus,
		&transactionID,
		&orderID,
		&refundID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.PaymentStatus = domain.PaymentStatus(paymentStatus)
	booking.BookingStatus = domain.BookingStatus(bookingStatus)
	booking.TransactionID = transactionID
	if orderID != nil {
		booking.OrderID = *orderID
	}
	booking.RefundID = refundID

	return booking, nil
}

// Helper function to convert empty string to nil pointer
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Ensure PostgresBookingRepository implements BookingRepository
var _ BookingRepository = (*PostgresBookingRepository)(nil)
