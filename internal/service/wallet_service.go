package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/dto"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/metrics"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/repository"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/logger"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/telemetry"
)

// WalletService defines the interface for organizer wallet business logic
type WalletService interface {
	// GetOrCreateWallet returns the organizer's wallet, creating it on
	// first use.
	GetOrCreateWallet(ctx context.Context, organizerID string) (*domain.Wallet, error)

	// GetWallet retrieves the organizer's wallet
	GetWallet(ctx context.Context, organizerID string) (*dto.WalletResponse, error)

	// Credit adds earnings to a wallet and writes the matching ledger
	// entry.
	Credit(ctx context.Context, walletID string, amount float64, bookingID string) error

	// RequestWithdrawal places a hold on the free balance and opens a
	// pending withdrawal, returning it with the post-hold wallet.
	RequestWithdrawal(ctx context.Context, organizerID string, req *dto.WithdrawalRequest) (*dto.WithdrawalResponse, error)

	// CompleteWithdrawal settles a pending withdrawal as paid out.
	// Terminal: a completed withdrawal cannot transition again.
	CompleteWithdrawal(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error)

	// RejectWithdrawal fails a pending withdrawal and returns the held
	// funds to the free balance. Terminal.
	RejectWithdrawal(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error)

	// ListTransactions lists the organizer's ledger, newest first
	ListTransactions(ctx context.Context, organizerID string, limit, offset int) ([]*dto.TransactionResponse, error)
}

// walletService implements WalletService
type walletService struct {
	walletRepo     repository.WalletRepository
	ledgerRepo     repository.LedgerRepository
	eventPublisher EventPublisher
}

// NewWalletService creates a new wallet service
func NewWalletService(
	walletRepo repository.WalletRepository,
	ledgerRepo repository.LedgerRepository,
	eventPublisher EventPublisher,
) WalletService {
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &walletService{
		walletRepo:     walletRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
	}
}

// GetOrCreateWallet returns the organizer's wallet, creating it on first use
func (s *walletService) GetOrCreateWallet(ctx context.Context, organizerID string) (*domain.Wallet, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.wallet.get_or_create")
	defer span.End()

	if organizerID == "" {
		span.SetStatus(codes.Error, "invalid organizer_id")
		return nil, domain.ErrInvalidUserID
	}
	span.SetAttributes(attribute.String("organizer_id", organizerID))

	wallet, err := s.walletRepo.GetByOrganizerID(ctx, organizerID)
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return wallet, nil
	}
	if !errors.Is(err, domain.ErrWalletNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := time.Now()
	wallet = &domain.Wallet{
		ID:          uuid.New().String(),
		OrganizerID: organizerID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Create is a no-op when another request won the race; re-read so
	// both callers see the same wallet id.
	wallet, err = s.walletRepo.GetByOrganizerID(ctx, organizerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("wallet_id", wallet.ID))
	span.SetStatus(codes.Ok, "")
	return wallet, nil
}

// GetWallet retrieves the organizer's wallet
func (s *walletService) GetWallet(ctx context.Context, organizerID string) (*dto.WalletResponse, error) {
	if organizerID == "" {
		return nil, domain.ErrInvalidUserID
	}
	wallet, err := s.walletRepo.GetByOrganizerID(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	return dto.WalletFromDomain(wallet), nil
}

// Credit adds earnings to a wallet with a matching ledger entry
func (s *walletService) Credit(ctx context.Context, walletID string, amount float64, bookingID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.wallet.credit")
	defer span.End()

	if amount <= 0 {
		span.SetStatus(codes.Error, "invalid amount")
		return domain.ErrInvalidAmount
	}
	span.SetAttributes(
		attribute.String("wallet_id", walletID),
		attribute.Float64("amount", amount),
	)

	if err := s.walletRepo.Credit(ctx, walletID, amount); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	txn := &domain.Transaction{
		ID:         uuid.New().String(),
		Type:       domain.TransactionTypeWalletCredit,
		Amount:     amount,
		SenderID:   "platform",
		ReceiverID: walletID,
		WalletID:   walletID,
		BookingID:  bookingID,
		CreatedAt:  time.Now(),
	}
	if err := s.ledgerRepo.Create(ctx, txn); err != nil {
		// The balance moved but the ledger write failed; log loudly so
		// reconciliation can repair the gap.
		logger.Get().Error("wallet credited without ledger entry",
			zap.String("wallet_id", walletID),
			zap.String("booking_id", bookingID),
			zap.Float64("amount", amount),
			zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	metrics.RecordWalletCredited(ctx, amount)
	span.SetStatus(codes.Ok, "")
	return nil
}

// RequestWithdrawal places a hold and opens a pending withdrawal
func (s *walletService) RequestWithdrawal(ctx context.Context, organizerID string, req *dto.WithdrawalRequest) (*dto.WithdrawalResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.wallet.request_withdrawal")
	defer span.End()

	if organizerID == "" {
		span.SetStatus(codes.Error, "invalid organizer_id")
		return nil, domain.ErrInvalidUserID
	}
	if req == nil || req.Amount <= 0 {
		span.SetStatus(codes.Error, "invalid amount")
		return nil, domain.ErrInvalidAmount
	}

	span.SetAttributes(
		attribute.String("organizer_id", organizerID),
		attribute.Float64("amount", req.Amount),
	)

	wallet, err := s.walletRepo.GetByOrganizerID(ctx, organizerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if !wallet.CanWithdraw(req.Amount) {
		span.SetStatus(codes.Error, "insufficient balance")
		return nil, &domain.InsufficientBalanceError{
			OrganizerID: organizerID,
			Requested:   req.Amount,
			Available:   wallet.Balance,
		}
	}

	// The conditional update is the real guard; CanWithdraw above only
	// produces a friendlier error for the common case.
	if err := s.walletRepo.Hold(ctx, wallet.ID, req.Amount); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	status := domain.WithdrawalStatusPending
	txn := &domain.Transaction{
		ID:               uuid.New().String(),
		Type:             domain.TransactionTypeWalletDebit,
		Amount:           req.Amount,
		SenderID:         wallet.ID,
		ReceiverID:       organizerID,
		Reference:        req.Reference,
		WalletID:         wallet.ID,
		WithdrawalStatus: &status,
		CreatedAt:        time.Now(),
	}
	if err := s.ledgerRepo.Create(ctx, txn); err != nil {
		// Unwind the hold so funds are not stranded.
		if rerr := s.walletRepo.ReleaseHold(ctx, wallet.ID, req.Amount); rerr != nil {
			logger.Get().Error("failed to release hold after ledger write failure",
				zap.String("wallet_id", wallet.ID),
				zap.Float64("amount", req.Amount),
				zap.Error(rerr))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	_ = s.eventPublisher.Publish(ctx, domain.WithdrawalEventRequested, txn.ID, txn)
	metrics.RecordWithdrawalRequested(ctx, req.Amount)

	// Re-read so the caller sees the balance with the hold applied.
	updated, err := s.walletRepo.GetByID(ctx, wallet.ID)
	if err != nil {
		updated = wallet
		updated.Balance -= req.Amount
		updated.PendingWithdrawals += req.Amount
	}

	span.SetAttributes(attribute.String("transaction_id", txn.ID))
	span.SetStatus(codes.Ok, "")
	return &dto.WithdrawalResponse{
		Transaction: dto.TransactionFromDomain(txn),
		Wallet:      dto.WalletFromDomain(updated),
	}, nil
}

// CompleteWithdrawal settles a pending withdrawal as paid out
func (s *walletService) CompleteWithdrawal(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.wallet.complete_withdrawal")
	defer span.End()

	txn, err := s.loadPendingWithdrawal(ctx, transactionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("transaction_id", txn.ID))

	// Flip the ledger status first. The from-guard makes the transition
	// single-shot, so the bucket move below runs at most once.
	if err := s.ledgerRepo.UpdateWithdrawalStatus(ctx, txn.ID,
		domain.WithdrawalStatusPending, domain.WithdrawalStatusCompleted, reference); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.walletRepo.SettleHold(ctx, txn.WalletID, txn.Amount); err != nil {
		logger.Get().Error("withdrawal completed but hold not settled",
			zap.String("transaction_id", txn.ID),
			zap.String("wallet_id", txn.WalletID),
			zap.Float64("amount", txn.Amount),
			zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	_ = s.eventPublisher.Publish(ctx, domain.WithdrawalEventCompleted, txn.ID, map[string]interface{}{
		"transaction_id": txn.ID,
		"wallet_id":      txn.WalletID,
		"amount":         txn.Amount,
		"reference":      reference,
	})
	metrics.RecordWithdrawalCompleted(ctx)

	return s.reload(ctx, span, txn.ID)
}

// RejectWithdrawal fails a pending withdrawal and releases the hold
func (s *walletService) RejectWithdrawal(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.wallet.reject_withdrawal")
	defer span.End()

	txn, err := s.loadPendingWithdrawal(ctx, transactionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("transaction_id", txn.ID))

	if err := s.ledgerRepo.UpdateWithdrawalStatus(ctx, txn.ID,
		domain.WithdrawalStatusPending, domain.WithdrawalStatusFailed, reference); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.walletRepo.ReleaseHold(ctx, txn.WalletID, txn.Amount); err != nil {
		logger.Get().Error("withdrawal rejected but hold not released",
			zap.String("transaction_id", txn.ID),
			zap.String("wallet_id", txn.WalletID),
			zap.Float64("amount", txn.Amount),
			zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	_ = s.eventPublisher.Publish(ctx, domain.WithdrawalEventRejected, txn.ID, map[string]interface{}{
		"transaction_id": txn.ID,
		"wallet_id":      txn.WalletID,
		"amount":         txn.Amount,
		"reference":      reference,
	})
	metrics.RecordWithdrawalRejected(ctx)

	return s.reload(ctx, span, txn.ID)
}

// ListTransactions lists the organizer's ledger, newest first
func (s *walletService) ListTransactions(ctx context.Context, organizerID string, limit, offset int) ([]*dto.TransactionResponse, error) {
	if organizerID == "" {
		return nil, domain.ErrInvalidUserID
	}
	wallet, err := s.walletRepo.GetByOrganizerID(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	txns, err := s.ledgerRepo.ListByWallet(ctx, wallet.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.TransactionsFromDomain(txns), nil
}

// loadPendingWithdrawal fetches a transaction and verifies it is a
// withdrawal that can still transition
func (s *walletService) loadPendingWithdrawal(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	if transactionID == "" {
		return nil, domain.ErrTransactionNotFound
	}
	txn, err := s.ledgerRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Type != domain.TransactionTypeWalletDebit {
		return nil, domain.ErrNotWithdrawal
	}
	if !txn.IsPendingWithdrawal() {
		return nil, domain.ErrWithdrawalNotPending
	}
	return txn, nil
}

func (s *walletService) reload(ctx context.Context, span trace.Span, transactionID string) (*dto.TransactionResponse, error) {
	txn, err := s.ledgerRepo.GetByID(ctx, transactionID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return dto.TransactionFromDomain(txn), nil
}
