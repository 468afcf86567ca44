package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/dto"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/gateway"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/repository"
)

// testEnv wires the booking service against in-memory repositories and
// the mock gateway
type testEnv struct {
	events   *repository.MemoryEventRepository
	bookings *repository.MemoryBookingRepository
	ledger   *repository.MemoryLedgerRepository
	wallets  *repository.MemoryWalletRepository
	gateway  *gateway.MockGateway
	walletSv WalletService
	svc      BookingService
}

const (
	testEventID     = "event-001"
	testTicketID    = "tier-ga"
	testOrganizerID = "org-001"
	testUserID      = "user-001"
	testUnitPrice   = 500.0
)

func newTestEnv(t *testing.T, quantity int) *testEnv {
	t.Helper()

	events := repository.NewMemoryEventRepository()
	events.Add(&domain.Event{
		ID:          testEventID,
		OrganizerID: testOrganizerID,
		Title:       "Test Concert",
		IsTicketed:  true,
		Tickets: []domain.TicketTier{
			{
				ID:            testTicketID,
				EventID:       testEventID,
				Name:          "General Admission",
				UnitPrice:     testUnitPrice,
				TotalQuantity: quantity,
			},
		},
	})

	ledger := repository.NewMemoryLedgerRepository()
	bookings := repository.NewMemoryBookingRepository(events, ledger)
	bookings.SetOrganizer(testEventID, testOrganizerID)
	wallets := repository.NewMemoryWalletRepository()
	gw := gateway.NewMockGateway(&gateway.MockGatewayConfig{SuccessRate: 1.0})

	walletSv := NewWalletService(wallets, ledger, nil)
	svc := NewBookingService(bookings, events, ledger, walletSv, gw, nil, nil, nil)

	return &testEnv{
		events:   events,
		bookings: bookings,
		ledger:   ledger,
		wallets:  wallets,
		gateway:  gw,
		walletSv: walletSv,
		svc:      svc,
	}
}

// requestBooking opens a booking for count tickets and returns the response
func (e *testEnv) requestBooking(t *testing.T, count int) *dto.CreateBookingResponse {
	t.Helper()
	resp, err := e.svc.RequestBooking(context.Background(), &dto.CreateBookingRequest{
		UserID:       testUserID,
		EventID:      testEventID,
		TicketID:     testTicketID,
		TicketsCount: count,
		AmountPaid:   testUnitPrice * float64(count),
	})
	if err != nil {
		t.Fatalf("RequestBooking() unexpected error = %v", err)
	}
	return resp
}

// capture simulates the client paying the order and returns the payment
func (e *testEnv) capture(t *testing.T, orderID string) *gateway.Payment {
	t.Helper()
	payment, err := e.gateway.Capture(orderID)
	if err != nil {
		t.Fatalf("Capture() unexpected error = %v", err)
	}
	return payment
}

func TestBookingService_RequestBooking(t *testing.T) {
	tests := []struct {
		name    string
		req     *dto.CreateBookingRequest
		wantErr error
	}{
		{
			name: "success",
			req: &dto.CreateBookingRequest{
				UserID:       testUserID,
				EventID:      testEventID,
				TicketID:     testTicketID,
				TicketsCount: 2,
				AmountPaid:   1000,
			},
		},
		{
			name:    "nil request",
			req:     nil,
			wantErr: domain.ErrInvalidUserID,
		},
		{
			name: "missing user id",
			req: &dto.CreateBookingRequest{
				EventID:      testEventID,
				TicketID:     testTicketID,
				TicketsCount: 1,
				AmountPaid:   500,
			},
			wantErr: domain.ErrInvalidUserID,
		},
		{
			name: "missing event id",
			req: &dto.CreateBookingRequest{
				UserID:       testUserID,
				TicketID:     testTicketID,
				TicketsCount: 1,
				AmountPaid:   500,
			},
			wantErr: domain.ErrInvalidEventID,
		},
		{
			name: "unknown event",
			req: &dto.CreateBookingRequest{
				UserID:       testUserID,
				EventID:      "event-missing",
				TicketID:     testTicketID,
				TicketsCount: 1,
				AmountPaid:   500,
			},
			wantErr: domain.ErrEventNotFound,
		},
		{
			name: "unknown ticket tier",
			req: &dto.CreateBookingRequest{
				UserID:       testUserID,
				EventID:      testEventID,
				TicketID:     "tier-missing",
				TicketsCount: 1,
				AmountPaid:   500,
			},
			wantErr: domain.ErrTicketNotFound,
		},
		{
			name: "zero tickets",
			req: &dto.CreateBookingRequest{
				UserID:     testUserID,
				EventID:    testEventID,
				TicketID:   testTicketID,
				AmountPaid: 500,
			},
			wantErr: domain.ErrInvalidTicketsCount,
		},
		{
			name: "amount does not match tier price",
			req: &dto.CreateBookingRequest{
				UserID:       testUserID,
				EventID:      testEventID,
				TicketID:     testTicketID,
				TicketsCount: 2,
				AmountPaid:   700,
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "more tickets than capacity",
			req: &dto.CreateBookingRequest{
				UserID:       testUserID,
				EventID:      testEventID,
				TicketID:     testTicketID,
				TicketsCount: 11,
				AmountPaid:   testUnitPrice * 11,
			},
			wantErr: domain.ErrSoldOut,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 10)

			resp, err := env.svc.RequestBooking(context.Background(), tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("RequestBooking() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RequestBooking() unexpected error = %v", err)
			}

			if resp.Booking.ID == "" {
				t.Error("RequestBooking() expected booking id, got empty")
			}
			if resp.Booking.PaymentStatus != domain.PaymentStatusPending.String() {
				t.Errorf("payment status = %s, want Pending", resp.Booking.PaymentStatus)
			}
			if resp.Order.OrderID == "" {
				t.Error("RequestBooking() expected gateway order id, got empty")
			}
			// The buyer is charged the ticket amount plus the fee:
			// 1000 + fee(1000) = 1100.
			if resp.Order.Amount != 110000 {
				t.Errorf("order amount = %d minor units, want 110000", resp.Order.Amount)
			}

			// No capacity consumed before settlement.
			ticket, err := env.events.GetTicket(context.Background(), testEventID, testTicketID)
			if err != nil {
				t.Fatalf("GetTicket() unexpected error = %v", err)
			}
			if ticket.SoldCount != 0 {
				t.Errorf("sold count after request = %d, want 0", ticket.SoldCount)
			}
		})
	}
}

func TestBookingService_RequestMultipleBookings(t *testing.T) {
	env := newTestEnv(t, 10)

	resp, err := env.svc.RequestMultipleBookings(context.Background(), &dto.CreateMultipleBookingsRequest{
		UserID:  testUserID,
		EventID: testEventID,
		Items: []dto.BookingItemRequest{
			{TicketID: testTicketID, TicketsCount: 2, AmountPaid: 1000},
			{TicketID: testTicketID, TicketsCount: 1, AmountPaid: 500},
		},
	})
	if err != nil {
		t.Fatalf("RequestMultipleBookings() unexpected error = %v", err)
	}

	if len(resp.Bookings) != 2 {
		t.Fatalf("bookings = %d, want 2", len(resp.Bookings))
	}
	// One order covers the whole batch with each item's fee on top:
	// (1000 + 100) + (500 + 50) = 1650.
	if resp.Order.Amount != 165000 {
		t.Errorf("order amount = %d minor units, want 165000", resp.Order.Amount)
	}
	for _, b := range resp.Bookings {
		if b.OrderID != resp.Order.OrderID {
			t.Errorf("booking %s order id = %s, want %s", b.ID, b.OrderID, resp.Order.OrderID)
		}
	}
}

func TestBookingService_ConfirmBooking(t *testing.T) {
	t.Run("settles a captured payment", func(t *testing.T) {
		env := newTestEnv(t, 10)
		created := env.requestBooking(t, 2)
		payment := env.capture(t, created.Order.OrderID)

		resp, err := env.svc.ConfirmBooking(context.Background(), created.Booking.ID, &dto.ConfirmBookingRequest{
			PaymentID: payment.ID,
			Signature: env.gateway.Sign(created.Order.OrderID, payment.ID),
		})
		if err != nil {
			t.Fatalf("ConfirmBooking() unexpected error = %v", err)
		}

		if resp.PaymentStatus != domain.PaymentStatusCompleted.String() {
			t.Errorf("payment status = %s, want Completed", resp.PaymentStatus)
		}
		if resp.TransactionID == nil {
			t.Fatal("expected transaction id on settled booking")
		}

		ticket, _ := env.events.GetTicket(context.Background(), testEventID, testTicketID)
		if ticket.SoldCount != 2 {
			t.Errorf("sold count = %d, want 2", ticket.SoldCount)
		}

		// The fee came from the buyer on top, so the organizer keeps
		// the full ticket amount.
		wallet, err := env.wallets.GetByOrganizerID(context.Background(), testOrganizerID)
		if err != nil {
			t.Fatalf("GetByOrganizerID() unexpected error = %v", err)
		}
		if wallet.Balance != 1000 {
			t.Errorf("wallet balance = %v, want 1000", wallet.Balance)
		}

		txn, err := env.ledger.GetByID(context.Background(), *resp.TransactionID)
		if err != nil {
			t.Fatalf("GetByID() unexpected error = %v", err)
		}
		if txn.Amount != 1000 {
			t.Errorf("ledger amount = %v, want 1000", txn.Amount)
		}
		if txn.PlatformFee != CalculatePlatformFee(1000) {
			t.Errorf("platform fee = %v, want %v", txn.PlatformFee, CalculatePlatformFee(1000))
		}
		if txn.GatewayPaymentID != payment.ID {
			t.Errorf("gateway payment id = %s, want %s", txn.GatewayPaymentID, payment.ID)
		}
	})

	t.Run("replayed confirmation has no side effects", func(t *testing.T) {
		env := newTestEnv(t, 10)
		created := env.requestBooking(t, 2)
		payment := env.capture(t, created.Order.OrderID)

		req := &dto.ConfirmBookingRequest{PaymentID: payment.ID}
		first, err := env.svc.ConfirmBooking(context.Background(), created.Booking.ID, req)
		if err != nil {
			t.Fatalf("first ConfirmBooking() unexpected error = %v", err)
		}
		second, err := env.svc.ConfirmBooking(context.Background(), created.Booking.ID, req)
		if err != nil {
			t.Fatalf("replayed ConfirmBooking() unexpected error = %v", err)
		}

		if *first.TransactionID != *second.TransactionID {
			t.Errorf("replay produced a different transaction: %s vs %s",
				*first.TransactionID, *second.TransactionID)
		}

		ticket, _ := env.events.GetTicket(context.Background(), testEventID, testTicketID)
		if ticket.SoldCount != 2 {
			t.Errorf("sold count after replay = %d, want 2", ticket.SoldCount)
		}
		wallet, _ := env.wallets.GetByOrganizerID(context.Background(), testOrganizerID)
		if wallet.Balance != 1000 {
			t.Errorf("wallet balance after replay = %v, want 1000", wallet.Balance)
		}
	})

	t.Run("rejects an uncaptured payment", func(t *testing.T) {
		env := newTestEnv(t, 10)
		created := env.requestBooking(t, 1)

		env.gateway.SetSuccessRate(0)
		payment := env.capture(t, created.Order.OrderID)

		_, err := env.svc.ConfirmBooking(context.Background(), created.Booking.ID, &dto.ConfirmBookingRequest{
			PaymentID: payment.ID,
		})
		if !errors.Is(err, domain.ErrPaymentNotCaptured) {
			t.Errorf("ConfirmBooking() error = %v, want ErrPaymentNotCaptured", err)
		}

		booking, _ := env.bookings.GetByID(context.Background(), created.Booking.ID)
		if booking.PaymentStatus != domain.PaymentStatusPending {
			t.Errorf("payment status = %s, want Pending", booking.PaymentStatus)
		}
	})

	t.Run("rejects a bad signature", func(t *testing.T) {
		env := newTestEnv(t, 10)
		created := env.requestBooking(t, 1)
		payment := env.capture(t, created.Order.OrderID)

		_, err := env.svc.ConfirmBooking(context.Background(), created.Booking.ID, &dto.ConfirmBookingRequest{
			PaymentID: payment.ID,
			Signature: "forged",
		})
		if !errors.Is(err, domain.ErrInvalidSignature) {
			t.Errorf("ConfirmBooking() error = %v, want ErrInvalidSignature", err)
		}
	})

	t.Run("rejects a payment captured below the booking amount", func(t *testing.T) {
		env := newTestEnv(t, 10)
		created := env.requestBooking(t, 2)

		env.gateway.RegisterPayment(&gateway.Payment{
			ID:       "pay_short",
			OrderID:  created.Order.OrderID,
			Amount:   400,
			Currency: "INR",
			Status:   "captured",
			Captured: true,
		})

		_, err := env.svc.ConfirmBooking(context.Background(), created.Booking.ID, &dto.ConfirmBookingRequest{
			PaymentID: "pay_short",
		})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("ConfirmBooking() error = %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("sold out at settlement fails the booking and refunds", func(t *testing.T) {
		env := newTestEnv(t, 3)

		first := env.requestBooking(t, 2)
		second := env.requestBooking(t, 2)

		firstPay := env.capture(t, first.Order.OrderID)
		if _, err := env.svc.ConfirmBooking(context.Background(), first.Booking.ID, &dto.ConfirmBookingRequest{
			PaymentID: firstPay.ID,
		}); err != nil {
			t.Fatalf("first ConfirmBooking() unexpected error = %v", err)
		}

		secondPay := env.capture(t, second.Order.OrderID)
		_, err := env.svc.ConfirmBooking(context.Background(), second.Booking.ID, &dto.ConfirmBookingRequest{
			PaymentID: secondPay.ID,
		})
		if !errors.Is(err, domain.ErrSoldOut) {
			t.Fatalf("ConfirmBooking() error = %v, want ErrSoldOut", err)
		}

		var soldOut *domain.SoldOutError
		if !errors.As(err, &soldOut) {
			t.Fatal("expected a SoldOutError with availability details")
		}
		if soldOut.Available != 1 {
			t.Errorf("available = %d, want 1", soldOut.Available)
		}

		booking, _ := env.bookings.GetByID(context.Background(), second.Booking.ID)
		if booking.PaymentStatus != domain.PaymentStatusFailed {
			t.Errorf("payment status = %s, want Failed", booking.PaymentStatus)
		}

		// The full captured amount went back to the user, fee included.
		if got := env.gateway.RefundedAmount(secondPay.ID); got != 1100 {
			t.Errorf("refunded amount = %v, want 1100", got)
		}

		ticket, _ := env.events.GetTicket(context.Background(), testEventID, testTicketID)
		if ticket.SoldCount != 2 {
			t.Errorf("sold count = %d, want 2", ticket.SoldCount)
		}
	})
}

func TestBookingService_ConfirmMultipleBookings(t *testing.T) {
	t.Run("settles every booking of the order", func(t *testing.T) {
		env := newTestEnv(t, 10)

		created, err := env.svc.RequestMultipleBookings(context.Background(), &dto.CreateMultipleBookingsRequest{
			UserID:  testUserID,
			EventID: testEventID,
			Items: []dto.BookingItemRequest{
				{TicketID: testTicketID, TicketsCount: 2, AmountPaid: 1000},
				{TicketID: testTicketID, TicketsCount: 1, AmountPaid: 500},
			},
		})
		if err != nil {
			t.Fatalf("RequestMultipleBookings() unexpected error = %v", err)
		}
		payment := env.capture(t, created.Order.OrderID)

		updates := make([]dto.ConfirmUpdateEntry, 0, len(created.Bookings))
		for _, b := range created.Bookings {
			updates = append(updates, dto.ConfirmUpdateEntry{
				BookingID: b.ID,
				Amount:    b.AmountPaid,
			})
		}

		settled, err := env.svc.ConfirmMultipleBookings(context.Background(), &dto.ConfirmMultipleBookingsRequest{
			PaymentID: payment.ID,
			Updates:   updates,
		})
		if err != nil {
			t.Fatalf("ConfirmMultipleBookings() unexpected error = %v", err)
		}

		if len(settled) != 2 {
			t.Fatalf("settled = %d bookings, want 2", len(settled))
		}
		for _, b := range settled {
			if b.PaymentStatus != domain.PaymentStatusCompleted.String() {
				t.Errorf("booking %s payment status = %s, want Completed", b.ID, b.PaymentStatus)
			}
		}

		ticket, _ := env.events.GetTicket(context.Background(), testEventID, testTicketID)
		if ticket.SoldCount != 3 {
			t.Errorf("sold count = %d, want 3", ticket.SoldCount)
		}
	})

	t.Run("rejects updates exceeding the captured amount", func(t *testing.T) {
		env := newTestEnv(t, 10)
		created := env.requestBooking(t, 1)
		payment := env.capture(t, created.Order.OrderID)

		_, err := env.svc.ConfirmMultipleBookings(context.Background(), &dto.ConfirmMultipleBookingsRequest{
			PaymentID: payment.ID,
			Updates: []dto.ConfirmUpdateEntry{
				{BookingID: created.Booking.ID, Amount: 9999},
			},
		})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("ConfirmMultipleBookings() error = %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("skips bookings already settled", func(t *testing.T) {
		env := newTestEnv(t, 10)
		created := env.requestBooking(t, 1)
		payment := env.capture(t, created.Order.OrderID)

		if _, err := env.svc.ConfirmBooking(context.Background(), created.Booking.ID, &dto.ConfirmBookingRequest{
			PaymentID: payment.ID,
		}); err != nil {
			t.Fatalf("ConfirmBooking() unexpected error = %v", err)
		}

		settled, err := env.svc.ConfirmMultipleBookings(context.Background(), &dto.ConfirmMultipleBookingsRequest{
			PaymentID: payment.ID,
			Updates: []dto.ConfirmUpdateEntry{
				{BookingID: created.Booking.ID, Amount: 500},
			},
		})
		if err != nil {
			t.Fatalf("ConfirmMultipleBookings() unexpected error = %v", err)
		}
		if len(settled) != 1 {
			t.Fatalf("settled = %d bookings, want 1", len(settled))
		}

		ticket, _ := env.events.GetTicket(context.Background(), testEventID, testTicketID)
		if ticket.SoldCount != 1 {
			t.Errorf("sold count = %d, want 1 (no double settle)", ticket.SoldCount)
		}
	})
}

func TestBookingService_RefundBooking(t *testing.T) {
	t.Run("refunds a settled booking", func(t *testing.T) {
		env := newTestEnv(t, 10)
		created := env.requestBooking(t, 1)
		payment := env.capture(t, created.Order.OrderID)

		if _, err := env.svc.ConfirmBooking(context.Background(), created.Booking.ID, &dto.ConfirmBookingRequest{
			PaymentID: payment.ID,
		}); err != nil {
			t.Fatalf("ConfirmBooking() unexpected error = %v", err)
		}

		resp, err := env.svc.RefundBooking(context.Background(), created.Booking.ID)
		if err != nil {
			t.Fatalf("RefundBooking() unexpected error = %v", err)
		}
		if resp.RefundID == "" {
			t.Error("expected a refund id")
		}
		if resp.Status != domain.PaymentStatusRefunded.String() {
			t.Errorf("status = %s, want Refunded", resp.Status)
		}
		if got := env.gateway.RefundedAmount(payment.ID); got != 500 {
			t.Errorf("refunded amount = %v, want 500", got)
		}
	})

	t.Run("refunding twice fails the second call", func(t *testing.T) {
		env := newTestEnv(t, 10)
		created := env.requestBooking(t, 1)
		payment := env.capture(t, created.Order.OrderID)

		if _, err := env.svc.ConfirmBooking(context.Background(), created.Booking.ID, &dto.ConfirmBookingRequest{
			PaymentID: payment.ID,
		}); err != nil {
			t.Fatalf("ConfirmBooking() unexpected error = %v", err)
		}

		if _, err := env.svc.RefundBooking(context.Background(), created.Booking.ID); err != nil {
			t.Fatalf("first RefundBooking() unexpected error = %v", err)
		}
		_, err := env.svc.RefundBooking(context.Background(), created.Booking.ID)
		if !errors.Is(err, domain.ErrAlreadyRefunded) {
			t.Errorf("second RefundBooking() error = %v, want ErrAlreadyRefunded", err)
		}
		// The gateway was only hit once.
		if got := env.gateway.RefundedAmount(payment.ID); got != 500 {
			t.Errorf("refunded amount = %v, want 500", got)
		}
	})

	t.Run("rejects refunding a booking with no settled payment", func(t *testing.T) {
		env := newTestEnv(t, 10)
		created := env.requestBooking(t, 1)

		_, err := env.svc.RefundBooking(context.Background(), created.Booking.ID)
		if !errors.Is(err, domain.ErrAlreadyRefunded) {
			t.Errorf("RefundBooking() error = %v, want ErrAlreadyRefunded", err)
		}
	})
}

func TestBookingService_UpdateBookingStatus(t *testing.T) {
	env := newTestEnv(t, 10)
	created := env.requestBooking(t, 1)

	resp, err := env.svc.UpdateBookingStatus(context.Background(), created.Booking.ID, &dto.UpdateBookingStatusRequest{
		Status: "check-in",
	})
	if err != nil {
		t.Fatalf("UpdateBookingStatus() unexpected error = %v", err)
	}
	if resp.BookingStatus != "check-in" {
		t.Errorf("booking status = %s, want check-in", resp.BookingStatus)
	}

	_, err = env.svc.UpdateBookingStatus(context.Background(), created.Booking.ID, &dto.UpdateBookingStatusRequest{
		Status: "teleported",
	})
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("UpdateBookingStatus() error = %v, want ErrInvalidStatus", err)
	}
}

// Concurrent settlement must never sell past capacity, whatever the
// interleaving.
func TestBookingService_ConcurrentSettlementNeverOversells(t *testing.T) {
	const capacity = 50
	const attempts = 80

	env := newTestEnv(t, capacity)

	type attempt struct {
		bookingID string
		paymentID string
	}
	prepared := make([]attempt, 0, attempts)
	for i := 0; i < attempts; i++ {
		created := env.requestBooking(t, 1)
		payment := env.capture(t, created.Order.OrderID)
		prepared = append(prepared, attempt{
			bookingID: created.Booking.ID,
			paymentID: payment.ID,
		})
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	settled := 0
	soldOut := 0

	for _, a := range prepared {
		wg.Add(1)
		go func(a attempt) {
			defer wg.Done()
			_, err := env.svc.ConfirmBooking(context.Background(), a.bookingID, &dto.ConfirmBookingRequest{
				PaymentID: a.paymentID,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				settled++
			case errors.Is(err, domain.ErrSoldOut):
				soldOut++
			default:
				t.Errorf("ConfirmBooking() unexpected error = %v", err)
			}
		}(a)
	}
	wg.Wait()

	if settled != capacity {
		t.Errorf("settled = %d, want %d", settled, capacity)
	}
	if soldOut != attempts-capacity {
		t.Errorf("sold out = %d, want %d", soldOut, attempts-capacity)
	}

	ticket, _ := env.events.GetTicket(context.Background(), testEventID, testTicketID)
	if ticket.SoldCount != capacity {
		t.Errorf("sold count = %d, want %d", ticket.SoldCount, capacity)
	}

	count, err := env.bookings.CountConfirmedTickets(context.Background(), testTicketID)
	if err != nil {
		t.Fatalf("CountConfirmedTickets() unexpected error = %v", err)
	}
	if count != capacity {
		t.Errorf("confirmed tickets = %d, want %d", count, capacity)
	}

	// Every settled booking credited the organizer once.
	wallet, err := env.wallets.GetByOrganizerID(context.Background(), testOrganizerID)
	if err != nil {
		t.Fatalf("GetByOrganizerID() unexpected error = %v", err)
	}
	wantBalance := testUnitPrice * capacity
	if diff := wallet.Balance - wantBalance; diff > 0.01 || diff < -0.01 {
		t.Errorf("wallet balance = %v, want %v", wallet.Balance, wantBalance)
	}
}

func TestBookingService_GetUserBookings(t *testing.T) {
	env := newTestEnv(t, 100)
	for i := 0; i < 5; i++ {
		env.requestBooking(t, 1)
	}

	bookings, err := env.svc.GetUserBookings(context.Background(), testUserID, 3, 0)
	if err != nil {
		t.Fatalf("GetUserBookings() unexpected error = %v", err)
	}
	if len(bookings) != 3 {
		t.Errorf("bookings = %d, want 3 (limit applied)", len(bookings))
	}

	rest, err := env.svc.GetUserBookings(context.Background(), testUserID, 10, 3)
	if err != nil {
		t.Fatalf("GetUserBookings() unexpected error = %v", err)
	}
	if len(rest) != 2 {
		t.Errorf("bookings = %d, want 2 (offset applied)", len(rest))
	}

	if _, err := env.svc.GetUserBookings(context.Background(), "", 10, 0); !errors.Is(err, domain.ErrInvalidUserID) {
		t.Errorf("GetUserBookings(\"\") error = %v, want ErrInvalidUserID", err)
	}
}

func TestBookingService_GetOrganizerBookings(t *testing.T) {
	env := newTestEnv(t, 100)
	env.requestBooking(t, 1)
	env.requestBooking(t, 2)

	bookings, err := env.svc.GetOrganizerBookings(context.Background(), testOrganizerID, 10, 0)
	if err != nil {
		t.Fatalf("GetOrganizerBookings() unexpected error = %v", err)
	}
	if len(bookings) != 2 {
		t.Errorf("bookings = %d, want 2", len(bookings))
	}

	none, err := env.svc.GetOrganizerBookings(context.Background(), "org-other", 10, 0)
	if err != nil {
		t.Fatalf("GetOrganizerBookings() unexpected error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("bookings for unknown organizer = %d, want 0", len(none))
	}
}

// Guards the gateway failure path: no booking row is left behind when
// the order cannot be opened.
func TestBookingService_GatewayFailureLeavesNoBooking(t *testing.T) {
	env := newTestEnv(t, 10)

	failing := &failingGateway{}
	svc := NewBookingService(env.bookings, env.events, env.ledger, env.walletSv, failing, nil, nil, nil)

	_, err := svc.RequestBooking(context.Background(), &dto.CreateBookingRequest{
		UserID:       testUserID,
		EventID:      testEventID,
		TicketID:     testTicketID,
		TicketsCount: 1,
		AmountPaid:   500,
	})
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("RequestBooking() error = %v, want ErrGatewayUnavailable", err)
	}

	bookings, _ := env.bookings.GetByUserID(context.Background(), testUserID, 10, 0)
	if len(bookings) != 0 {
		t.Errorf("bookings after gateway failure = %d, want 0", len(bookings))
	}
}

// failingGateway rejects every operation
type failingGateway struct{}

func (failingGateway) CreateOrder(ctx context.Context, req *gateway.CreateOrderRequest) (*gateway.Order, error) {
	return nil, fmt.Errorf("%w: connection refused", domain.ErrGatewayUnavailable)
}

func (failingGateway) FetchPayment(ctx context.Context, paymentID string) (*gateway.Payment, error) {
	return nil, fmt.Errorf("%w: connection refused", domain.ErrPaymentLookupFailed)
}

func (failingGateway) Refund(ctx context.Context, paymentID string, amount float64) (*gateway.RefundResult, error) {
	return nil, fmt.Errorf("%w: connection refused", domain.ErrGatewayUnavailable)
}

func (failingGateway) VerifySignature(orderID, paymentID, signature string) error {
	return domain.ErrInvalidSignature
}

func (failingGateway) Name() string { return "failing" }
