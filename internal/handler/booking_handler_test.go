package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/dto"
)

// MockBookingService is a mock implementation of BookingService for testing
type MockBookingService struct {
	RequestBookingFunc          func(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error)
	RequestMultipleBookingsFunc func(ctx context.Context, req *dto.CreateMultipleBookingsRequest) (*dto.CreateMultipleBookingsResponse, error)
	ConfirmBookingFunc          func(ctx context.Context, bookingID string, req *dto.ConfirmBookingRequest) (*dto.BookingResponse, error)
	ConfirmMultipleBookingsFunc func(ctx context.Context, req *dto.ConfirmMultipleBookingsRequest) ([]*dto.BookingResponse, error)
	RefundBookingFunc           func(ctx context.Context, bookingID string) (*dto.RefundBookingResponse, error)
	UpdateBookingStatusFunc     func(ctx context.Context, bookingID string, req *dto.UpdateBookingStatusRequest) (*dto.BookingResponse, error)
	GetBookingFunc              func(ctx context.Context, bookingID string) (*dto.BookingResponse, error)
	GetUserBookingsFunc         func(ctx context.Context, userID string, limit, offset int) ([]*dto.BookingResponse, error)
	GetEventBookingsFunc        func(ctx context.Context, eventID string, limit, offset int) ([]*dto.BookingResponse, error)
	GetOrganizerBookingsFunc    func(ctx context.Context, organizerID string, limit, offset int) ([]*dto.BookingResponse, error)
}

func (m *MockBookingService) RequestBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
	if m.RequestBookingFunc != nil {
		return m.RequestBookingFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockBookingService) RequestMultipleBookings(ctx context.Context, req *dto.CreateMultipleBookingsRequest) (*dto.CreateMultipleBookingsResponse, error) {
	if m.RequestMultipleBookingsFunc != nil {
		return m.RequestMultipleBookingsFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockBookingService) ConfirmBooking(ctx context.Context, bookingID string, req *dto.ConfirmBookingRequest) (*dto.BookingResponse, error) {
	if m.ConfirmBookingFunc != nil {
		return m.ConfirmBookingFunc(ctx, bookingID, req)
	}
	return nil, nil
}

func (m *MockBookingService) ConfirmMultipleBookings(ctx context.Context, req *dto.ConfirmMultipleBookingsRequest) ([]*dto.BookingResponse, error) {
	if m.ConfirmMultipleBookingsFunc != nil {
		return m.ConfirmMultipleBookingsFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockBookingService) RefundBooking(ctx context.Context, bookingID string) (*dto.RefundBookingResponse, error) {
	if m.RefundBookingFunc != nil {
		return m.RefundBookingFunc(ctx, bookingID)
	}
	return nil, nil
}

func (m *MockBookingService) UpdateBookingStatus(ctx context.Context, bookingID string, req *dto.UpdateBookingStatusRequest) (*dto.BookingResponse, error) {
	if m.UpdateBookingStatusFunc != nil {
		return m.UpdateBookingStatusFunc(ctx, bookingID, req)
	}
	return nil, nil
}

func (m *MockBookingService) GetBooking(ctx context.Context, bookingID string) (*dto.BookingResponse, error) {
	if m.GetBookingFunc != nil {
		return m.GetBookingFunc(ctx, bookingID)
	}
	return nil, nil
}

func (m *MockBookingService) GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*dto.BookingResponse, error) {
	if m.GetUserBookingsFunc != nil {
		return m.GetUserBookingsFunc(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *MockBookingService) GetEventBookings(ctx context.Context, eventID string, limit, offset int) ([]*dto.BookingResponse, error) {
	if m.GetEventBookingsFunc != nil {
		return m.GetEventBookingsFunc(ctx, eventID, limit, offset)
	}
	return nil, nil
}

func (m *MockBookingService) GetOrganizerBookings(ctx context.Context, organizerID string, limit, offset int) ([]*dto.BookingResponse, error) {
	if m.GetOrganizerBookingsFunc != nil {
		return m.GetOrganizerBookingsFunc(ctx, organizerID, limit, offset)
	}
	return nil, nil
}

// envelope mirrors the response package JSON shape for assertions
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func setupBookingRouter(mock *MockBookingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewBookingHandler(mock)

	bookings := router.Group("/bookings")
	{
		bookings.POST("", handler.CreateBooking)
		bookings.POST("/multiple", handler.CreateMultipleBookings)
		bookings.POST("/:id/confirm", handler.ConfirmBooking)
		bookings.POST("/confirm-multiple", handler.ConfirmMultipleBookings)
		bookings.POST("/:id/refund", handler.RefundBooking)
		bookings.PATCH("/:id/status", handler.UpdateBookingStatus)
		bookings.GET("/:id", handler.GetBooking)
	}
	router.GET("/users/:id/bookings", handler.GetUserBookings)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, w.Body.String())
	}
	return w, &env
}

func TestBookingHandler_CreateBooking(t *testing.T) {
	tests := []struct {
		name           string
		request        interface{}
		mockFunc       func(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "successful booking",
			request: &dto.CreateBookingRequest{
				UserID:       "user-123",
				EventID:      "event-123",
				TicketID:     "tier-123",
				TicketsCount: 2,
				AmountPaid:   1000,
			},
			mockFunc: func(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
				return &dto.CreateBookingResponse{
					Booking: &dto.BookingResponse{ID: "booking-123", PaymentStatus: "Pending"},
					Order:   &dto.OrderResponse{OrderID: "order-123", Amount: 110000, Currency: "INR"},
				}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed body",
			request:        gin.H{"tickets_count": "two"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "BAD_REQUEST",
		},
		{
			name: "sold out",
			request: &dto.CreateBookingRequest{
				UserID:       "user-123",
				EventID:      "event-123",
				TicketID:     "tier-123",
				TicketsCount: 5,
				AmountPaid:   2500,
			},
			mockFunc: func(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
				return nil, &domain.SoldOutError{
					EventID:   req.EventID,
					TicketID:  req.TicketID,
					Requested: req.TicketsCount,
					Available: 2,
				}
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "SOLD_OUT",
		},
		{
			name: "unknown event",
			request: &dto.CreateBookingRequest{
				UserID:       "user-123",
				EventID:      "event-missing",
				TicketID:     "tier-123",
				TicketsCount: 1,
				AmountPaid:   500,
			},
			mockFunc: func(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
				return nil, domain.ErrEventNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
		{
			name: "gateway down",
			request: &dto.CreateBookingRequest{
				UserID:       "user-123",
				EventID:      "event-123",
				TicketID:     "tier-123",
				TicketsCount: 1,
				AmountPaid:   500,
			},
			mockFunc: func(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
				return nil, domain.ErrGatewayUnavailable
			},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   "UPSTREAM_FAILURE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupBookingRouter(&MockBookingService{RequestBookingFunc: tt.mockFunc})

			w, env := doJSON(t, router, http.MethodPost, "/bookings", tt.request)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedCode != "" {
				if env.Error == nil {
					t.Fatalf("expected error envelope, got %s", w.Body.String())
				}
				if env.Error.Code != tt.expectedCode {
					t.Errorf("expected code %s, got %s", tt.expectedCode, env.Error.Code)
				}
			}
		})
	}
}

func TestBookingHandler_CreateBooking_SoldOutDetails(t *testing.T) {
	router := setupBookingRouter(&MockBookingService{
		RequestBookingFunc: func(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
			return nil, &domain.SoldOutError{
				EventID:   "event-123",
				TicketID:  "tier-123",
				Requested: 4,
				Available: 1,
			}
		},
	})

	_, env := doJSON(t, router, http.MethodPost, "/bookings", &dto.CreateBookingRequest{
		UserID:       "user-123",
		EventID:      "event-123",
		TicketID:     "tier-123",
		TicketsCount: 4,
		AmountPaid:   2000,
	})

	if env.Error == nil {
		t.Fatal("expected error envelope")
	}
	var details struct {
		Requested int `json:"requested"`
		Available int `json:"available"`
	}
	if err := json.Unmarshal(env.Error.Details, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details.Available != 1 || details.Requested != 4 {
		t.Errorf("details = %+v, want requested 4 available 1", details)
	}
}

func TestBookingHandler_ConfirmBooking(t *testing.T) {
	tests := []struct {
		name           string
		bookingID      string
		request        *dto.ConfirmBookingRequest
		mockFunc       func(ctx context.Context, bookingID string, req *dto.ConfirmBookingRequest) (*dto.BookingResponse, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:      "successful confirmation",
			bookingID: "booking-123",
			request:   &dto.ConfirmBookingRequest{PaymentID: "pay-123"},
			mockFunc: func(ctx context.Context, bookingID string, req *dto.ConfirmBookingRequest) (*dto.BookingResponse, error) {
				return &dto.BookingResponse{ID: bookingID, PaymentStatus: "Completed"}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:      "payment not captured",
			bookingID: "booking-123",
			request:   &dto.ConfirmBookingRequest{PaymentID: "pay-123"},
			mockFunc: func(ctx context.Context, bookingID string, req *dto.ConfirmBookingRequest) (*dto.BookingResponse, error) {
				return nil, domain.ErrPaymentNotCaptured
			},
			expectedStatus: http.StatusPaymentRequired,
			expectedCode:   "PAYMENT_NOT_CAPTURED",
		},
		{
			name:      "bad signature",
			bookingID: "booking-123",
			request:   &dto.ConfirmBookingRequest{PaymentID: "pay-123", Signature: "forged"},
			mockFunc: func(ctx context.Context, bookingID string, req *dto.ConfirmBookingRequest) (*dto.BookingResponse, error) {
				return nil, domain.ErrInvalidSignature
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_SIGNATURE",
		},
		{
			name:      "booking not found",
			bookingID: "booking-missing",
			request:   &dto.ConfirmBookingRequest{PaymentID: "pay-123"},
			mockFunc: func(ctx context.Context, bookingID string, req *dto.ConfirmBookingRequest) (*dto.BookingResponse, error) {
				return nil, domain.ErrBookingNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
		{
			name:      "sold out at settlement",
			bookingID: "booking-123",
			request:   &dto.ConfirmBookingRequest{PaymentID: "pay-123"},
			mockFunc: func(ctx context.Context, bookingID string, req *dto.ConfirmBookingRequest) (*dto.BookingResponse, error) {
				return nil, &domain.SoldOutError{EventID: "event-123", TicketID: "tier-123", Requested: 2, Available: 0}
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "SOLD_OUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupBookingRouter(&MockBookingService{ConfirmBookingFunc: tt.mockFunc})

			w, env := doJSON(t, router, http.MethodPost, "/bookings/"+tt.bookingID+"/confirm", tt.request)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedCode != "" {
				if env.Error == nil {
					t.Fatalf("expected error envelope, got %s", w.Body.String())
				}
				if env.Error.Code != tt.expectedCode {
					t.Errorf("expected code %s, got %s", tt.expectedCode, env.Error.Code)
				}
			}
		})
	}
}

func TestBookingHandler_RefundBooking(t *testing.T) {
	tests := []struct {
		name           string
		mockFunc       func(ctx context.Context, bookingID string) (*dto.RefundBookingResponse, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "successful refund",
			mockFunc: func(ctx context.Context, bookingID string) (*dto.RefundBookingResponse, error) {
				return &dto.RefundBookingResponse{BookingID: bookingID, RefundID: "rfnd-1", Status: "Refunded"}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not refundable",
			mockFunc: func(ctx context.Context, bookingID string) (*dto.RefundBookingResponse, error) {
				return nil, domain.ErrNotRefundable
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONFLICT",
		},
		{
			name: "already refunded",
			mockFunc: func(ctx context.Context, bookingID string) (*dto.RefundBookingResponse, error) {
				return nil, domain.ErrAlreadyRefunded
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "ALREADY_REFUNDED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupBookingRouter(&MockBookingService{RefundBookingFunc: tt.mockFunc})

			w, env := doJSON(t, router, http.MethodPost, "/bookings/booking-123/refund", nil)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedCode != "" && (env.Error == nil || env.Error.Code != tt.expectedCode) {
				t.Errorf("expected code %s, got %+v", tt.expectedCode, env.Error)
			}
		})
	}
}

func TestBookingHandler_GetBooking(t *testing.T) {
	router := setupBookingRouter(&MockBookingService{
		GetBookingFunc: func(ctx context.Context, bookingID string) (*dto.BookingResponse, error) {
			if bookingID != "booking-123" {
				return nil, domain.ErrBookingNotFound
			}
			return &dto.BookingResponse{ID: bookingID, PaymentStatus: "Pending"}, nil
		},
	})

	w, env := doJSON(t, router, http.MethodGet, "/bookings/booking-123", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if !env.Success {
		t.Errorf("expected success envelope, got %s", w.Body.String())
	}

	w, _ = doJSON(t, router, http.MethodGet, "/bookings/booking-missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestBookingHandler_GetUserBookings_Pagination(t *testing.T) {
	var gotLimit, gotOffset int
	router := setupBookingRouter(&MockBookingService{
		GetUserBookingsFunc: func(ctx context.Context, userID string, limit, offset int) ([]*dto.BookingResponse, error) {
			gotLimit, gotOffset = limit, offset
			return []*dto.BookingResponse{}, nil
		},
	})

	w, _ := doJSON(t, router, http.MethodGet, "/users/user-123/bookings?limit=5&offset=10", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if gotLimit != 5 || gotOffset != 10 {
		t.Errorf("pagination = (%d, %d), want (5, 10)", gotLimit, gotOffset)
	}
}
