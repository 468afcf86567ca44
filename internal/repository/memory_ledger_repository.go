package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
)

// MemoryLedgerRepository implements LedgerRepository using in-memory storage
type MemoryLedgerRepository struct {
	transactions map[string]*domain.Transaction
	mu           sync.RWMutex
}

// NewMemoryLedgerRepository creates a new in-memory ledger
func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

// Create inserts a new ledger entry
func (r *MemoryLedgerRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	r.add(txn)
	return nil
}

// add stores a clone of the transaction
func (r *MemoryLedgerRepository) add(txn *domain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := *txn
	if txn.WithdrawalStatus != nil {
		s := *txn.WithdrawalStatus
		t.WithdrawalStatus = &s
	}
	r.transactions[txn.ID] = &t
}

// GetByID retrieves a ledger entry by its ID
func (r *MemoryLedgerRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	txn, exists := r.transactions[id]
	if !exists {
		return nil, domain.ErrTransactionNotFound
	}

	t := *txn
	if txn.WithdrawalStatus != nil {
		s := *txn.WithdrawalStatus
		t.WithdrawalStatus = &s
	}
	return &t, nil
}

// ListByWallet retrieves ledger entries touching a wallet, newest first
func (r *MemoryLedgerRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Transaction
	for _, txn := range r.transactions {
		if txn.WalletID != walletID {
			continue
		}
		t := *txn
		if txn.WithdrawalStatus != nil {
			s := *txn.WithdrawalStatus
			t.WithdrawalStatus = &s
		}
		result = append(result, &t)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit <= 0 {
		return result, nil
	}
	if offset >= len(result) {
		return []*domain.Transaction{}, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

// UpdateWithdrawalStatus flips a wallet_debit entry between withdrawal states
func (r *MemoryLedgerRepository) UpdateWithdrawalStatus(ctx context.Context, id string, from, to domain.WithdrawalStatus, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn, exists := r.transactions[id]
	if !exists {
		return domain.ErrTransactionNotFound
	}
	if txn.Type != domain.TransactionTypeWalletDebit {
		return domain.ErrNotWithdrawal
	}
	if txn.WithdrawalStatus == nil || *txn.WithdrawalStatus != from {
		return domain.ErrWithdrawalNotPending
	}

	status := to
	txn.WithdrawalStatus = &status
	if reference != "" {
		txn.Reference = reference
	}
	return nil
}

// Clear clears all data (for testing)
func (r *MemoryLedgerRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = make(map[string]*domain.Transaction)
}

// Ensure MemoryLedgerRepository implements LedgerRepository
var _ LedgerRepository = (*MemoryLedgerRepository)(nil)
