package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/dto"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/gateway"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/metrics"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/repository"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/logger"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/telemetry"
)

// BookingService defines the interface for booking business logic
type BookingService interface {
	// RequestBooking opens a gateway order and records a pending booking.
	// No inventory is consumed until the payment settles.
	RequestBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error)

	// RequestMultipleBookings opens a single gateway order covering
	// several ticket tiers of one event.
	RequestMultipleBookings(ctx context.Context, req *dto.CreateMultipleBookingsRequest) (*dto.CreateMultipleBookingsResponse, error)

	// ConfirmBooking verifies the payment with the gateway and settles
	// the booking. Replays of an already settled booking succeed without
	// side effects.
	ConfirmBooking(ctx context.Context, bookingID string, req *dto.ConfirmBookingRequest) (*dto.BookingResponse, error)

	// ConfirmMultipleBookings settles every booking of a multi-tier order
	// against one captured payment.
	ConfirmMultipleBookings(ctx context.Context, req *dto.ConfirmMultipleBookingsRequest) ([]*dto.BookingResponse, error)

	// RefundBooking refunds a settled booking through the gateway and
	// moves it to the terminal refunded state.
	RefundBooking(ctx context.Context, bookingID string) (*dto.RefundBookingResponse, error)

	// UpdateBookingStatus updates the operational status (check-in etc.)
	UpdateBookingStatus(ctx context.Context, bookingID string, req *dto.UpdateBookingStatusRequest) (*dto.BookingResponse, error)

	// GetBooking retrieves a booking by ID
	GetBooking(ctx context.Context, bookingID string) (*dto.BookingResponse, error)

	// GetUserBookings retrieves all bookings for a user
	GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*dto.BookingResponse, error)

	// GetEventBookings retrieves all bookings for an event
	GetEventBookings(ctx context.Context, eventID string, limit, offset int) ([]*dto.BookingResponse, error)

	// GetOrganizerBookings retrieves bookings across an organizer's events
	GetOrganizerBookings(ctx context.Context, organizerID string, limit, offset int) ([]*dto.BookingResponse, error)
}

// BookingServiceConfig contains configuration for booking service
type BookingServiceConfig struct {
	DefaultCurrency string
}

// bookingService implements BookingService
type bookingService struct {
	bookingRepo     repository.BookingRepository
	catalog         repository.EventCatalog
	ledgerRepo      repository.LedgerRepository
	wallets         WalletService
	gateway         gateway.PaymentGateway
	eventPublisher  EventPublisher
	inventoryCache  *repository.RedisInventoryCache
	defaultCurrency string
}

// NewBookingService creates a new booking service. inventoryCache is
// optional; without it every availability check falls through to storage.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	catalog repository.EventCatalog,
	ledgerRepo repository.LedgerRepository,
	wallets WalletService,
	gw gateway.PaymentGateway,
	eventPublisher EventPublisher,
	inventoryCache *repository.RedisInventoryCache,
	cfg *BookingServiceConfig,
) BookingService {
	currency := "INR"
	if cfg != nil && cfg.DefaultCurrency != "" {
		currency = cfg.DefaultCurrency
	}
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &bookingService{
		bookingRepo:     bookingRepo,
		catalog:         catalog,
		ledgerRepo:      ledgerRepo,
		wallets:         wallets,
		gateway:         gw,
		eventPublisher:  eventPublisher,
		inventoryCache:  inventoryCache,
		defaultCurrency: currency,
	}
}

// RequestBooking opens a gateway order and records a pending booking
func (s *bookingService) RequestBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.request")
	defer span.End()

	if req == nil || req.UserID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}
	if req.EventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if req.TicketID == "" {
		span.SetStatus(codes.Error, "invalid ticket_id")
		return nil, domain.ErrInvalidTicketID
	}
	if req.TicketsCount <= 0 {
		span.SetStatus(codes.Error, "invalid tickets_count")
		return nil, domain.ErrInvalidTicketsCount
	}
	if req.AmountPaid <= 0 {
		span.SetStatus(codes.Error, "invalid amount")
		return nil, domain.ErrInvalidAmount
	}

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("event_id", req.EventID),
		attribute.String("ticket_id", req.TicketID),
		attribute.Int("tickets_count", req.TicketsCount),
	)

	event, err := s.catalog.GetEvent(ctx, req.EventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	ticket := event.FindTicket(req.TicketID)
	if ticket == nil {
		span.SetStatus(codes.Error, "ticket not found")
		return nil, domain.ErrTicketNotFound
	}

	if err := s.checkAmount(ticket, req.TicketsCount, req.AmountPaid); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Advisory availability check. The hard cap is enforced again at
	// settlement; this only sheds obviously doomed requests early.
	if err := s.checkAvailability(ctx, ticket, req.TicketsCount); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// The buyer pays the ticket amount plus the platform fee; the fee is
	// a surcharge on top, never taken out of the organizer's share.
	bookingID := uuid.New().String()
	order, err := s.gateway.CreateOrder(ctx, &gateway.CreateOrderRequest{
		Amount:   BuyerTotal(req.AmountPaid),
		Currency: s.defaultCurrency,
		Receipt:  bookingID,
		Notes: map[string]string{
			"event_id":  req.EventID,
			"ticket_id": req.TicketID,
			"user_id":   req.UserID,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to open gateway order: %w", err)
	}

	now := time.Now()
	booking := &domain.Booking{
		ID:            bookingID,
		UserID:        req.UserID,
		EventID:       req.EventID,
		TicketID:      req.TicketID,
		TicketsCount:  req.TicketsCount,
		AmountPaid:    req.AmountPaid,
		PaymentStatus: domain.PaymentStatusPending,
		BookingStatus: domain.BookingStatusPending,
		OrderID:       order.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	_ = s.eventPublisher.Publish(ctx, domain.BookingEventCreated, booking.ID, booking)
	metrics.RecordBookingCreated(ctx, booking.EventID, booking.AmountPaid)

	span.AddEvent("booking_created", trace.WithAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.String("order_id", order.ID),
		attribute.Float64("amount", booking.AmountPaid),
	))
	span.SetAttributes(attribute.String("booking_id", booking.ID))
	span.SetStatus(codes.Ok, "")

	return &dto.CreateBookingResponse{
		Booking: dto.BookingFromDomain(booking),
		Order:   orderResponse(order),
	}, nil
}

// RequestMultipleBookings opens one gateway order covering several tiers
func (s *bookingService) RequestMultipleBookings(ctx context.Context, req *dto.CreateMultipleBookingsRequest) (*dto.CreateMultipleBookingsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.request_multiple")
	defer span.End()

	if req == nil || req.UserID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}
	if req.EventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if len(req.Items) == 0 {
		span.SetStatus(codes.Error, "invalid tickets_count")
		return nil, domain.ErrInvalidTicketsCount
	}

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("event_id", req.EventID),
		attribute.Int("items", len(req.Items)),
	)

	event, err := s.catalog.GetEvent(ctx, req.EventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var total float64
	for _, item := range req.Items {
		if item.TicketsCount <= 0 {
			span.SetStatus(codes.Error, "invalid tickets_count")
			return nil, domain.ErrInvalidTicketsCount
		}
		ticket := event.FindTicket(item.TicketID)
		if ticket == nil {
			span.SetStatus(codes.Error, "ticket not found")
			return nil, domain.ErrTicketNotFound
		}
		if err := s.checkAmount(ticket, item.TicketsCount, item.AmountPaid); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if err := s.checkAvailability(ctx, ticket, item.TicketsCount); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		total += BuyerTotal(item.AmountPaid)
	}

	receipt := uuid.New().String()
	order, err := s.gateway.CreateOrder(ctx, &gateway.CreateOrderRequest{
		Amount:   round2(total),
		Currency: s.defaultCurrency,
		Receipt:  receipt,
		Notes: map[string]string{
			"event_id": req.EventID,
			"user_id":  req.UserID,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to open gateway order: %w", err)
	}

	now := time.Now()
	bookings := make([]*domain.Booking, 0, len(req.Items))
	for _, item := range req.Items {
		booking := &domain.Booking{
			ID:            uuid.New().String(),
			UserID:        req.UserID,
			EventID:       req.EventID,
			TicketID:      item.TicketID,
			TicketsCount:  item.TicketsCount,
			AmountPaid:    item.AmountPaid,
			PaymentStatus: domain.PaymentStatusPending,
			BookingStatus: domain.BookingStatusPending,
			OrderID:       order.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.bookingRepo.Create(ctx, booking); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		_ = s.eventPublisher.Publish(ctx, domain.BookingEventCreated, booking.ID, booking)
		metrics.RecordBookingCreated(ctx, booking.EventID, booking.AmountPaid)
		bookings = append(bookings, booking)
	}

	span.SetAttributes(attribute.String("order_id", order.ID))
	span.SetStatus(codes.Ok, "")

	return &dto.CreateMultipleBookingsResponse{
		Bookings: dto.BookingsFromDomain(bookings),
		Order:    orderResponse(order),
	}, nil
}

// ConfirmBooking verifies the captured payment and settles the booking
func (s *bookingService) ConfirmBooking(ctx context.Context, bookingID string, req *dto.ConfirmBookingRequest) (*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.confirm")
	defer span.End()

	if bookingID == "" {
		span.SetStatus(codes.Error, "invalid booking_id")
		return nil, domain.ErrInvalidBookingID
	}
	if req == nil || req.PaymentID == "" {
		span.SetStatus(codes.Error, "payment_id required")
		return nil, domain.ErrInvalidAmount
	}

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.String("payment_id", req.PaymentID),
	)

	start := time.Now()

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Replays of a settled booking are a success, not an error.
	if booking.IsSettled() {
		span.SetStatus(codes.Ok, "already settled")
		return dto.BookingFromDomain(booking), nil
	}
	if booking.IsRefunded() {
		span.SetStatus(codes.Error, "already refunded")
		return nil, domain.ErrAlreadyRefunded
	}

	if req.Signature != "" {
		if err := s.gateway.VerifySignature(booking.OrderID, req.PaymentID, req.Signature); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "signature mismatch")
			return nil, err
		}
	}

	payment, err := s.gateway.FetchPayment(ctx, req.PaymentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if payment.OrderID != "" && payment.OrderID != booking.OrderID {
		span.SetStatus(codes.Error, "payment belongs to another order")
		return nil, domain.ErrInvalidSignature
	}
	if !payment.Captured {
		span.SetStatus(codes.Error, "payment not captured")
		return nil, domain.ErrPaymentNotCaptured
	}

	fee := req.PlatformFee
	if fee <= 0 {
		fee = CalculatePlatformFee(booking.AmountPaid)
	}
	// The captured payment carries the fee surcharge; the organizer's
	// side of the money is what remains after the fee comes off.
	ticketAmount := round2(payment.Amount - fee)
	if ticketAmount+0.001 < booking.AmountPaid {
		span.SetStatus(codes.Error, "captured amount too low")
		return nil, domain.ErrInvalidAmount
	}

	event, err := s.catalog.GetEvent(ctx, booking.EventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	wallet, err := s.wallets.GetOrCreateWallet(ctx, event.OrganizerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	txn, err := s.bookingRepo.Settle(ctx, repository.SettleParams{
		BookingID:        booking.ID,
		TicketID:         booking.TicketID,
		TicketsCount:     booking.TicketsCount,
		UserID:           booking.UserID,
		OrganizerID:      event.OrganizerID,
		WalletID:         wallet.ID,
		OrderID:          booking.OrderID,
		GatewayPaymentID: payment.ID,
		Amount:           ticketAmount,
		PlatformFee:      fee,
	})
	if err != nil {
		return s.handleSettleError(ctx, span, booking, payment, err)
	}

	s.afterSettle(ctx, booking, event.OrganizerID, wallet.ID, txn, fee)
	metrics.RecordBookingSettled(ctx, booking.EventID, fee, time.Since(start).Seconds())

	booking.AmountPaid = ticketAmount
	booking.PaymentStatus = domain.PaymentStatusCompleted
	booking.TransactionID = &txn.ID

	span.AddEvent("booking_settled", trace.WithAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.String("transaction_id", txn.ID),
		attribute.Float64("platform_fee", fee),
	))
	span.SetStatus(codes.Ok, "")
	return dto.BookingFromDomain(booking), nil
}

// ConfirmMultipleBookings settles every booking of one order against one
// captured payment. Bookings already settled are skipped.
func (s *bookingService) ConfirmMultipleBookings(ctx context.Context, req *dto.ConfirmMultipleBookingsRequest) ([]*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.confirm_multiple")
	defer span.End()

	if req == nil || req.PaymentID == "" || len(req.Updates) == 0 {
		span.SetStatus(codes.Error, "invalid request")
		return nil, domain.ErrInvalidBookingID
	}

	span.SetAttributes(
		attribute.String("payment_id", req.PaymentID),
		attribute.Int("updates", len(req.Updates)),
	)

	payment, err := s.gateway.FetchPayment(ctx, req.PaymentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !payment.Captured {
		span.SetStatus(codes.Error, "payment not captured")
		return nil, domain.ErrPaymentNotCaptured
	}

	var total float64
	for _, upd := range req.Updates {
		if upd.BookingID == "" {
			span.SetStatus(codes.Error, "invalid booking_id")
			return nil, domain.ErrInvalidBookingID
		}
		if upd.Amount <= 0 {
			span.SetStatus(codes.Error, "invalid amount")
			return nil, domain.ErrInvalidAmount
		}
		fee := upd.PlatformFee
		if fee <= 0 {
			fee = CalculatePlatformFee(upd.Amount)
		}
		total += upd.Amount + fee
	}
	// The captured payment must cover every ticket amount plus its fee
	// surcharge.
	if total > payment.Amount+0.001 {
		span.SetStatus(codes.Error, "updates exceed captured amount")
		return nil, domain.ErrInvalidAmount
	}

	if req.Signature != "" && payment.OrderID != "" {
		if err := s.gateway.VerifySignature(payment.OrderID, req.PaymentID, req.Signature); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "signature mismatch")
			return nil, err
		}
	}

	start := time.Now()
	responses := make([]*dto.BookingResponse, 0, len(req.Updates))
	for _, upd := range req.Updates {
		booking, err := s.bookingRepo.GetByID(ctx, upd.BookingID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if booking.IsSettled() {
			responses = append(responses, dto.BookingFromDomain(booking))
			continue
		}
		if payment.OrderID != "" && booking.OrderID != payment.OrderID {
			span.SetStatus(codes.Error, "booking belongs to another order")
			return nil, domain.ErrInvalidSignature
		}

		event, err := s.catalog.GetEvent(ctx, booking.EventID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		wallet, err := s.wallets.GetOrCreateWallet(ctx, event.OrganizerID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		fee := upd.PlatformFee
		if fee <= 0 {
			fee = CalculatePlatformFee(upd.Amount)
		}

		txn, err := s.bookingRepo.Settle(ctx, repository.SettleParams{
			BookingID:        booking.ID,
			TicketID:         booking.TicketID,
			TicketsCount:     booking.TicketsCount,
			UserID:           booking.UserID,
			OrganizerID:      event.OrganizerID,
			WalletID:         wallet.ID,
			OrderID:          booking.OrderID,
			GatewayPaymentID: payment.ID,
			Amount:           upd.Amount,
			PlatformFee:      fee,
		})
		if err != nil {
			if errors.Is(err, domain.ErrAlreadySettled) {
				// Lost a replay race; the booking is settled either way.
				responses = append(responses, dto.BookingFromDomain(booking))
				continue
			}
			// Earlier settlements in the batch stand; they are replays
			// the client can safely retry past.
			if _, herr := s.handleSettleError(ctx, span, booking, payment, err); herr != nil {
				return nil, herr
			}
			return nil, err
		}

		s.afterSettle(ctx, booking, event.OrganizerID, wallet.ID, txn, fee)
		metrics.RecordBookingSettled(ctx, booking.EventID, fee, time.Since(start).Seconds())

		booking.AmountPaid = upd.Amount
		booking.PaymentStatus = domain.PaymentStatusCompleted
		booking.TransactionID = &txn.ID
		responses = append(responses, dto.BookingFromDomain(booking))
	}

	span.SetStatus(codes.Ok, "")
	return responses, nil
}

// RefundBooking refunds a settled booking. Refund is terminal: a second
// refund fails with ErrAlreadyRefunded and never reaches the gateway.
func (s *bookingService) RefundBooking(ctx context.Context, bookingID string) (*dto.RefundBookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.refund")
	defer span.End()

	if bookingID == "" {
		span.SetStatus(codes.Error, "invalid booking_id")
		return nil, domain.ErrInvalidBookingID
	}
	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// A nil transaction id means there is no settled payment to reverse;
	// that case and a genuine replay share the same terminal answer.
	if booking.IsRefunded() || booking.TransactionID == nil {
		span.SetStatus(codes.Error, "already refunded")
		return nil, domain.ErrAlreadyRefunded
	}
	if booking.PaymentStatus != domain.PaymentStatusCompleted {
		span.SetStatus(codes.Error, "not refundable")
		return nil, domain.ErrNotRefundable
	}

	txn, err := s.ledgerRepo.GetByID(ctx, *booking.TransactionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	refund, err := s.gateway.Refund(ctx, txn.GatewayPaymentID, booking.AmountPaid)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}

	if err := s.bookingRepo.MarkRefunded(ctx, booking.ID, refund.ID); err != nil {
		// A replay race lost after the gateway call still answers
		// AlreadyRefunded; the gateway dedupes refunds by payment.
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	_ = s.eventPublisher.Publish(ctx, domain.BookingEventRefunded, booking.ID, map[string]string{
		"booking_id": booking.ID,
		"refund_id":  refund.ID,
	})
	metrics.RecordBookingRefunded(ctx, booking.EventID)

	span.SetStatus(codes.Ok, "")
	return &dto.RefundBookingResponse{
		BookingID: booking.ID,
		RefundID:  refund.ID,
		Status:    domain.PaymentStatusRefunded.String(),
	}, nil
}

// UpdateBookingStatus updates the operational status of a booking
func (s *bookingService) UpdateBookingStatus(ctx context.Context, bookingID string, req *dto.UpdateBookingStatusRequest) (*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.update_status")
	defer span.End()

	if bookingID == "" {
		span.SetStatus(codes.Error, "invalid booking_id")
		return nil, domain.ErrInvalidBookingID
	}
	status := domain.BookingStatus(req.Status)
	if !status.IsValid() {
		span.SetStatus(codes.Error, "invalid status")
		return nil, domain.ErrInvalidStatus
	}

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.String("status", status.String()),
	)

	if err := s.bookingRepo.UpdateStatus(ctx, bookingID, status); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.BookingFromDomain(booking), nil
}

// GetBooking retrieves a booking by ID
func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*dto.BookingResponse, error) {
	if bookingID == "" {
		return nil, domain.ErrInvalidBookingID
	}
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return dto.BookingFromDomain(booking), nil
}

// GetUserBookings retrieves all bookings for a user
func (s *bookingService) GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*dto.BookingResponse, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}
	limit, offset = clampPage(limit, offset)
	bookings, err := s.bookingRepo.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.BookingsFromDomain(bookings), nil
}

// GetEventBookings retrieves all bookings for an event
func (s *bookingService) GetEventBookings(ctx context.Context, eventID string, limit, offset int) ([]*dto.BookingResponse, error) {
	if eventID == "" {
		return nil, domain.ErrInvalidEventID
	}
	limit, offset = clampPage(limit, offset)
	bookings, err := s.bookingRepo.GetByEventID(ctx, eventID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.BookingsFromDomain(bookings), nil
}

// GetOrganizerBookings retrieves bookings across an organizer's events
func (s *bookingService) GetOrganizerBookings(ctx context.Context, organizerID string, limit, offset int) ([]*dto.BookingResponse, error) {
	if organizerID == "" {
		return nil, domain.ErrInvalidUserID
	}
	limit, offset = clampPage(limit, offset)
	bookings, err := s.bookingRepo.GetByOrganizerID(ctx, organizerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.BookingsFromDomain(bookings), nil
}

// checkAmount verifies the client-supplied amount against the tier price
func (s *bookingService) checkAmount(ticket *domain.TicketTier, count int, amount float64) error {
	expected := round2(ticket.UnitPrice * float64(count))
	if amount < expected-0.001 || amount > expected+0.001 {
		return domain.ErrInvalidAmount
	}
	return nil
}

// checkAvailability sheds requests that cannot possibly settle. A stale
// cache entry only costs the client a gateway round trip; the settlement
// cap is authoritative.
func (s *bookingService) checkAvailability(ctx context.Context, ticket *domain.TicketTier, count int) error {
	if s.inventoryCache != nil {
		if remaining, ok := s.inventoryCache.Remaining(ctx, ticket.ID); ok {
			if remaining < count {
				return &domain.SoldOutError{
					EventID:   ticket.EventID,
					TicketID:  ticket.ID,
					Requested: count,
					Available: remaining,
				}
			}
			return nil
		}
		_ = s.inventoryCache.SetRemaining(ctx, ticket.ID, ticket.Remaining())
	}
	if ticket.Remaining() < count {
		return &domain.SoldOutError{
			EventID:   ticket.EventID,
			TicketID:  ticket.ID,
			Requested: count,
			Available: ticket.Remaining(),
		}
	}
	return nil
}

// handleSettleError maps settlement failures. Sold-out settlements fail
// the booking and refund the captured payment best effort; an already
// settled booking is returned as a replay success.
func (s *bookingService) handleSettleError(ctx context.Context, span trace.Span, booking *domain.Booking, payment *gateway.Payment, err error) (*dto.BookingResponse, error) {
	var soldOut *domain.SoldOutError
	if errors.As(err, &soldOut) {
		log := logger.Get()
		if mferr := s.bookingRepo.MarkFailed(ctx, booking.ID); mferr != nil {
			log.Warn("failed to mark sold-out booking as failed",
				zap.String("booking_id", booking.ID), zap.Error(mferr))
		}
		// The buyer paid the fee surcharge too, so the whole captured
		// amount goes back.
		if _, rerr := s.gateway.Refund(ctx, payment.ID, payment.Amount); rerr != nil {
			log.Error("failed to refund payment for sold-out booking",
				zap.String("booking_id", booking.ID),
				zap.String("payment_id", payment.ID),
				zap.Error(rerr))
		}
		if s.inventoryCache != nil {
			_ = s.inventoryCache.SetRemaining(ctx, soldOut.TicketID, soldOut.Available)
		}
		metrics.RecordSoldOut(ctx, soldOut.EventID, soldOut.TicketID)
		metrics.RecordBookingFailed(ctx, booking.EventID, "sold_out")
		span.RecordError(err)
		span.SetStatus(codes.Error, "sold out")
		return nil, err
	}
	if errors.Is(err, domain.ErrAlreadySettled) {
		current, gerr := s.bookingRepo.GetByID(ctx, booking.ID)
		if gerr == nil && current.IsSettled() {
			span.SetStatus(codes.Ok, "already settled")
			return dto.BookingFromDomain(current), nil
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

// afterSettle performs the best-effort follow-ups of a settlement. The
// booking is already committed; failures here are logged, not surfaced.
func (s *bookingService) afterSettle(ctx context.Context, booking *domain.Booking, organizerID, walletID string, txn *domain.Transaction, fee float64) {
	// The fee was collected from the buyer on top of the ticket amount,
	// so the wallet gets the full ledger amount.
	if err := s.wallets.Credit(ctx, walletID, txn.Amount, booking.ID); err != nil {
		logger.Get().Error("failed to credit organizer wallet after settlement",
			zap.String("booking_id", booking.ID),
			zap.String("wallet_id", walletID),
			zap.Float64("amount", txn.Amount),
			zap.Error(err))
	}
	if s.inventoryCache != nil {
		if err := s.inventoryCache.Consume(ctx, booking.TicketID, booking.TicketsCount); err != nil {
			_ = s.inventoryCache.Invalidate(ctx, booking.TicketID)
		}
	}
	_ = s.eventPublisher.Publish(ctx, domain.BookingEventConfirmed, booking.ID, map[string]interface{}{
		"booking_id":     booking.ID,
		"transaction_id": txn.ID,
		"organizer_id":   organizerID,
		"amount":         txn.Amount,
		"platform_fee":   fee,
	})
}

// clampPage normalizes pagination inputs
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// orderResponse maps a gateway order into the transport shape
func orderResponse(order *gateway.Order) *dto.OrderResponse {
	return &dto.OrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Provider: order.Provider,
	}
}
