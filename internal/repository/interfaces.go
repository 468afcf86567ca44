package repository

import (
	"context"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
)

// SettleParams carries everything needed to settle one paid booking in a
// single transaction: commit tier capacity, write the ledger entry and
// flip the booking to Completed.
type SettleParams struct {
	BookingID        string
	TicketID         string
	TicketsCount     int
	UserID           string
	OrganizerID      string
	WalletID         string
	OrderID          string
	GatewayPaymentID string
	Amount           float64
	PlatformFee      float64
}

// BookingRepository persists bookings and performs the settlement commit
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByOrderID(ctx context.Context, orderID string) ([]*domain.Booking, error)
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error)
	GetByEventID(ctx context.Context, eventID string, limit, offset int) ([]*domain.Booking, error)
	GetByOrganizerID(ctx context.Context, organizerID string, limit, offset int) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error

	// Settle atomically commits tier capacity, inserts the ledger entry
	// and moves the booking from Pending to Completed. Returns the created
	// transaction. Fails with a SoldOutError when the tier cap would be
	// exceeded, ErrAlreadySettled/ErrAlreadyRefunded when the booking
	// already left Pending.
	Settle(ctx context.Context, params SettleParams) (*domain.Transaction, error)

	// MarkFailed moves a Pending booking to Failed. No-op error when the
	// booking already left Pending.
	MarkFailed(ctx context.Context, id string) error

	// MarkRefunded moves a Completed booking to the terminal Refunded
	// state and records the gateway refund id.
	MarkRefunded(ctx context.Context, id, refundID string) error

	CountConfirmedTickets(ctx context.Context, ticketID string) (int, error)
}

// EventCatalog is the read model of events and their ticket tiers
type EventCatalog interface {
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	GetTicket(ctx context.Context, eventID, ticketID string) (*domain.TicketTier, error)
}

// LedgerRepository persists immutable money transactions
type LedgerRepository interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error)

	// UpdateWithdrawalStatus flips a wallet_debit entry from one
	// withdrawal status to another. The from guard makes terminal
	// transitions single-shot under concurrency.
	UpdateWithdrawalStatus(ctx context.Context, id string, from, to domain.WithdrawalStatus, reference string) error
}

// WalletRepository persists organizer wallets. All balance movements are
// single-row conditional updates so concurrent movements never drive a
// bucket negative.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByOrganizerID(ctx context.Context, organizerID string) (*domain.Wallet, error)
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)

	// Credit adds earnings: balance and totalEarnings both grow.
	Credit(ctx context.Context, walletID string, amount float64) error
	// Hold moves funds from balance into pendingWithdrawals, failing
	// with ErrInsufficientBalance when balance < amount.
	Hold(ctx context.Context, walletID string, amount float64) error
	// SettleHold moves held funds into totalWithdrawals.
	SettleHold(ctx context.Context, walletID string, amount float64) error
	// ReleaseHold returns held funds to the free balance.
	ReleaseHold(ctx context.Context, walletID string, amount float64) error
}
