package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/dto"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/service"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/response"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/telemetry"
)

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	bookingService service.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateBooking handles POST /bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	// Authenticated caller wins over the request body.
	if userID := c.GetString("user_id"); userID != "" {
		req.UserID = userID
	}

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("event_id", req.EventID),
		attribute.String("ticket_id", req.TicketID),
		attribute.Int("tickets_count", req.TicketsCount),
	)

	result, err := h.bookingService.RequestBooking(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("booking_id", result.Booking.ID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// CreateMultipleBookings handles POST /bookings/multiple
func (h *BookingHandler) CreateMultipleBookings(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.create_multiple")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateMultipleBookingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	if userID := c.GetString("user_id"); userID != "" {
		req.UserID = userID
	}

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("event_id", req.EventID),
		attribute.Int("items", len(req.Items)),
	)

	result, err := h.bookingService.RequestMultipleBookings(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// ConfirmBooking handles POST /bookings/:id/confirm
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.confirm")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	bookingID := c.Param("id")
	if bookingID == "" {
		span.SetStatus(codes.Error, "booking id required")
		response.BadRequest(c, "booking id required")
		return
	}

	var req dto.ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.String("payment_id", req.PaymentID),
	)

	result, err := h.bookingService.ConfirmBooking(ctx, bookingID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// ConfirmMultipleBookings handles POST /bookings/confirm-multiple
func (h *BookingHandler) ConfirmMultipleBookings(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.confirm_multiple")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.ConfirmMultipleBookingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("payment_id", req.PaymentID),
		attribute.Int("updates", len(req.Updates)),
	)

	result, err := h.bookingService.ConfirmMultipleBookings(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// RefundBooking handles POST /bookings/:id/refund
func (h *BookingHandler) RefundBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.refund")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	bookingID := c.Param("id")
	if bookingID == "" {
		span.SetStatus(codes.Error, "booking id required")
		response.BadRequest(c, "booking id required")
		return
	}
	span.SetAttributes(attribute.String("booking_id", bookingID))

	result, err := h.bookingService.RefundBooking(ctx, bookingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// UpdateBookingStatus handles PATCH /bookings/:id/status
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.update_status")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	bookingID := c.Param("id")
	if bookingID == "" {
		span.SetStatus(codes.Error, "booking id required")
		response.BadRequest(c, "booking id required")
		return
	}

	var req dto.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.String("status", req.Status),
	)

	result, err := h.bookingService.UpdateBookingStatus(ctx, bookingID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// GetBooking handles GET /bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	bookingID := c.Param("id")
	if bookingID == "" {
		span.SetStatus(codes.Error, "booking id required")
		response.BadRequest(c, "booking id required")
		return
	}
	span.SetAttributes(attribute.String("booking_id", bookingID))

	result, err := h.bookingService.GetBooking(ctx, bookingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// GetUserBookings handles GET /users/:id/bookings
func (h *BookingHandler) GetUserBookings(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.list_user")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.Param("id")
	limit, offset := pagination(c)
	span.SetAttributes(attribute.String("user_id", userID))

	result, err := h.bookingService.GetUserBookings(ctx, userID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.SuccessWithMeta(c, result, gin.H{
		"limit":  limit,
		"offset": offset,
		"count":  len(result),
	})
}

// GetEventBookings handles GET /events/:id/bookings
func (h *BookingHandler) GetEventBookings(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.list_event")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	limit, offset := pagination(c)
	span.SetAttributes(attribute.String("event_id", eventID))

	result, err := h.bookingService.GetEventBookings(ctx, eventID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.SuccessWithMeta(c, result, gin.H{
		"limit":  limit,
		"offset": offset,
		"count":  len(result),
	})
}

// GetOrganizerBookings handles GET /organizers/:id/bookings
func (h *BookingHandler) GetOrganizerBookings(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.list_organizer")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	organizerID := c.Param("id")
	limit, offset := pagination(c)
	span.SetAttributes(attribute.String("organizer_id", organizerID))

	result, err := h.bookingService.GetOrganizerBookings(ctx, organizerID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.SuccessWithMeta(c, result, gin.H{
		"limit":  limit,
		"offset": offset,
		"count":  len(result),
	})
}

// pagination parses limit/offset query params with defaults
func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

// handleError maps domain errors to HTTP responses
func handleError(c *gin.Context, err error) {
	var soldOut *domain.SoldOutError
	if errors.As(err, &soldOut) {
		response.Conflict(c, "SOLD_OUT", soldOut.Error(), gin.H{
			"event_id":  soldOut.EventID,
			"ticket_id": soldOut.TicketID,
			"requested": soldOut.Requested,
			"available": soldOut.Available,
		})
		return
	}

	var insufficient *domain.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		response.Conflict(c, "INSUFFICIENT_BALANCE", insufficient.Error(), gin.H{
			"requested": insufficient.Requested,
			"available": insufficient.Available,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		response.Error(c, http.StatusBadRequest, "INVALID_SIGNATURE", err.Error(), nil)
	case errors.Is(err, domain.ErrPaymentNotCaptured):
		response.Error(c, http.StatusPaymentRequired, "PAYMENT_NOT_CAPTURED", err.Error(), nil)
	case errors.Is(err, domain.ErrAlreadyRefunded):
		response.Conflict(c, "ALREADY_REFUNDED", err.Error(), nil)
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	case domain.IsConflictError(err):
		response.Conflict(c, "CONFLICT", err.Error(), nil)
	case domain.IsUpstreamError(err):
		response.UpstreamError(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
