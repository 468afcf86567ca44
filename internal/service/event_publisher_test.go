package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/dto"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/gateway"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/repository"
)

// MockEventPublisher records published events for assertions
type MockEventPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	eventType string
	key       string
}

func (m *MockEventPublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{eventType: eventType, key: key})
	return nil
}

func (m *MockEventPublisher) Close() {}

func (m *MockEventPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.eventType)
	}
	return out
}

func TestBookingLifecycleEvents(t *testing.T) {
	events := repository.NewMemoryEventRepository()
	events.Add(&domain.Event{
		ID:          testEventID,
		OrganizerID: testOrganizerID,
		IsTicketed:  true,
		Tickets: []domain.TicketTier{
			{ID: testTicketID, EventID: testEventID, UnitPrice: testUnitPrice, TotalQuantity: 10},
		},
	})
	ledger := repository.NewMemoryLedgerRepository()
	bookings := repository.NewMemoryBookingRepository(events, ledger)
	bookings.SetOrganizer(testEventID, testOrganizerID)
	wallets := repository.NewMemoryWalletRepository()
	gw := gateway.NewMockGateway(&gateway.MockGatewayConfig{SuccessRate: 1.0})

	publisher := &MockEventPublisher{}
	walletSv := NewWalletService(wallets, ledger, publisher)
	svc := NewBookingService(bookings, events, ledger, walletSv, gw, publisher, nil, nil)

	created, err := svc.RequestBooking(context.Background(), &dto.CreateBookingRequest{
		UserID:       testUserID,
		EventID:      testEventID,
		TicketID:     testTicketID,
		TicketsCount: 1,
		AmountPaid:   testUnitPrice,
	})
	if err != nil {
		t.Fatalf("RequestBooking() unexpected error = %v", err)
	}

	payment, err := gw.Capture(created.Order.OrderID)
	if err != nil {
		t.Fatalf("Capture() unexpected error = %v", err)
	}
	if _, err := svc.ConfirmBooking(context.Background(), created.Booking.ID, &dto.ConfirmBookingRequest{
		PaymentID: payment.ID,
	}); err != nil {
		t.Fatalf("ConfirmBooking() unexpected error = %v", err)
	}

	if _, err := svc.RefundBooking(context.Background(), created.Booking.ID); err != nil {
		t.Fatalf("RefundBooking() unexpected error = %v", err)
	}

	want := []string{
		domain.BookingEventCreated,
		domain.BookingEventConfirmed,
		domain.BookingEventRefunded,
	}
	got := publisher.types()
	if len(got) != len(want) {
		t.Fatalf("published = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("published[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	// Events key on the booking for per-booking ordering downstream.
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	for _, e := range publisher.events {
		if e.key != created.Booking.ID {
			t.Errorf("event %s key = %s, want %s", e.eventType, e.key, created.Booking.ID)
		}
	}
}

func TestWithdrawalLifecycleEvents(t *testing.T) {
	wallets := repository.NewMemoryWalletRepository()
	ledger := repository.NewMemoryLedgerRepository()
	publisher := &MockEventPublisher{}
	svc := NewWalletService(wallets, ledger, publisher)

	wallet, err := svc.GetOrCreateWallet(context.Background(), testOrganizerID)
	if err != nil {
		t.Fatalf("GetOrCreateWallet() unexpected error = %v", err)
	}
	if err := svc.Credit(context.Background(), wallet.ID, 1000, "booking-123"); err != nil {
		t.Fatalf("Credit() unexpected error = %v", err)
	}

	res, err := svc.RequestWithdrawal(context.Background(), testOrganizerID, &dto.WithdrawalRequest{Amount: 600})
	if err != nil {
		t.Fatalf("RequestWithdrawal() unexpected error = %v", err)
	}
	if _, err := svc.CompleteWithdrawal(context.Background(), res.Transaction.ID, "utr-1"); err != nil {
		t.Fatalf("CompleteWithdrawal() unexpected error = %v", err)
	}

	got := publisher.types()
	want := []string{domain.WithdrawalEventRequested, domain.WithdrawalEventCompleted}
	if len(got) != len(want) {
		t.Fatalf("published = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("published[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNoOpEventPublisher(t *testing.T) {
	p := NewNoOpEventPublisher()
	if err := p.Publish(context.Background(), domain.BookingEventCreated, "k", nil); err != nil {
		t.Errorf("Publish() unexpected error = %v", err)
	}
	p.Close()
}
