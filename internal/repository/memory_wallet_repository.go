package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
)

// MemoryWalletRepository implements WalletRepository using in-memory storage
type MemoryWalletRepository struct {
	wallets     map[string]*domain.Wallet
	byOrganizer map[string]string // organizerID -> walletID
	mu          sync.RWMutex
}

// NewMemoryWalletRepository creates a new in-memory wallet repository
func NewMemoryWalletRepository() *MemoryWalletRepository {
	return &MemoryWalletRepository{
		wallets:     make(map[string]*domain.Wallet),
		byOrganizer: make(map[string]string),
	}
}

// Create inserts a new wallet. A second wallet for the same organizer is
// silently ignored, matching the database's conflict handling.
func (r *MemoryWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOrganizer[wallet.OrganizerID]; exists {
		return nil
	}

	w := *wallet
	r.wallets[wallet.ID] = &w
	r.byOrganizer[wallet.OrganizerID] = wallet.ID
	return nil
}

// GetByOrganizerID retrieves the wallet owned by an organizer
func (r *MemoryWalletRepository) GetByOrganizerID(ctx context.Context, organizerID string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	walletID, exists := r.byOrganizer[organizerID]
	if !exists {
		return nil, domain.ErrWalletNotFound
	}

	w := *r.wallets[walletID]
	return &w, nil
}

// GetByID retrieves a wallet by its ID
func (r *MemoryWalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wallet, exists := r.wallets[id]
	if !exists {
		return nil, domain.ErrWalletNotFound
	}

	w := *wallet
	return &w, nil
}

// Credit adds settled earnings to the wallet
func (r *MemoryWalletRepository) Credit(ctx context.Context, walletID string, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, exists := r.wallets[walletID]
	if !exists {
		return domain.ErrWalletNotFound
	}

	now := time.Now()
	wallet.Balance += amount
	wallet.TotalEarnings += amount
	wallet.LastTransactionAt = &now
	wallet.UpdatedAt = now
	return nil
}

// Hold moves funds from the free balance into the pending bucket
func (r *MemoryWalletRepository) Hold(ctx context.Context, walletID string, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, exists := r.wallets[walletID]
	if !exists {
		return domain.ErrWalletNotFound
	}
	if wallet.Balance < amount {
		return &domain.InsufficientBalanceError{
			OrganizerID: wallet.OrganizerID,
			Requested:   amount,
			Available:   wallet.Balance,
		}
	}

	now := time.Now()
	wallet.Balance -= amount
	wallet.PendingWithdrawals += amount
	wallet.LastTransactionAt = &now
	wallet.UpdatedAt = now
	return nil
}

// SettleHold moves held funds into the withdrawn bucket
func (r *MemoryWalletRepository) SettleHold(ctx context.Context, walletID string, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, exists := r.wallets[walletID]
	if !exists {
		return domain.ErrWalletNotFound
	}
	if wallet.PendingWithdrawals < amount {
		return domain.ErrWithdrawalNotPending
	}

	now := time.Now()
	wallet.PendingWithdrawals -= amount
	wallet.TotalWithdrawals += amount
	wallet.LastTransactionAt = &now
	wallet.UpdatedAt = now
	return nil
}

// ReleaseHold returns held funds to the free balance
func (r *MemoryWalletRepository) ReleaseHold(ctx context.Context, walletID string, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, exists := r.wallets[walletID]
	if !exists {
		return domain.ErrWalletNotFound
	}
	if wallet.PendingWithdrawals < amount {
		return domain.ErrWithdrawalNotPending
	}

	now := time.Now()
	wallet.PendingWithdrawals -= amount
	wallet.Balance += amount
	wallet.LastTransactionAt = &now
	wallet.UpdatedAt = now
	return nil
}

// Clear clears all data (for testing)
func (r *MemoryWalletRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets = make(map[string]*domain.Wallet)
	r.byOrganizer = make(map[string]string)
}

// Ensure MemoryWalletRepository implements WalletRepository
var _ WalletRepository = (*MemoryWalletRepository)(nil)
