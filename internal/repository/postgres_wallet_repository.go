package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/telemetry"
)

// PostgresWalletRepository implements WalletRepository using PostgreSQL.
// Every balance movement is a single conditional UPDATE so the bucket
// invariant holds without row locks.
type PostgresWalletRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresWalletRepository creates a new PostgresWalletRepository
func NewPostgresWalletRepository(pool *pgxpool.Pool) *PostgresWalletRepository {
	return &PostgresWalletRepository{pool: pool}
}

const walletColumns = `
	id, organizer_id, balance, total_earnings, total_withdrawals,
	pending_withdrawals, last_transaction_at, is_active, created_at, updated_at
`

// Create inserts a new wallet
func (r *PostgresWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.wallet.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("wallet_id", wallet.ID),
		attribute.String("organizer_id", wallet.OrganizerID),
	)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO wallets (
			id, organizer_id, balance, total_earnings, total_withdrawals,
			pending_withdrawals, last_transaction_at, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10
		)
		ON CONFLICT (organizer_id) DO NOTHING
	`,
		wallet.ID,
		wallet.OrganizerID,
		wallet.Balance,
		wallet.TotalEarnings,
		wallet.TotalWithdrawals,
		wallet.PendingWithdrawals,
		wallet.LastTransactionAt,
		wallet.IsActive,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByOrganizerID retrieves the wallet owned by an organizer
func (r *PostgresWalletRepository) GetByOrganizerID(ctx context.Context, organizerID string) (*domain.Wallet, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.wallet.get_by_organizer")
	defer span.End()

	span.SetAttributes(attribute.String("organizer_id", organizerID))

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE organizer_id = $1`
	return r.getWallet(ctx, query, organizerID)
}

// GetByID retrieves a wallet by its ID
func (r *PostgresWalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.wallet.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("wallet_id", id))

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return r.getWallet(ctx, query, id)
}

// Credit adds settled earnings to the wallet
func (r *PostgresWalletRepository) Credit(ctx context.Context, walletID string, amount float64) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.wallet.credit")
	defer span.End()

	span.SetAttributes(
		attribute.String("wallet_id", walletID),
		attribute.Float64("amount", amount),
	)

	now := time.Now()
	result, err := r.pool.Exec(ctx, `
		UPDATE wallets SET
			balance = balance + $2,
			total_earnings = total_earnings + $2,
			last_transaction_at = $3,
			updated_at = $3
		WHERE id = $1
	`, walletID, amount, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to credit wallet: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrWalletNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Hold moves funds from the free balance into the pending bucket
func (r *PostgresWalletRepository) Hold(ctx context.Context, walletID string, amount float64) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.wallet.hold")
	defer span.End()

	span.SetAttributes(
		attribute.String("wallet_id", walletID),
		attribute.Float64("amount", amount),
	)

	now := time.Now()
	result, err := r.pool.Exec(ctx, `
		UPDATE wallets SET
			balance = balance - $2,
			pending_withdrawals = pending_withdrawals + $2,
			last_transaction_at = $3,
			updated_at = $3
		WHERE id = $1 AND balance >= $2
	`, walletID, amount, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to hold wallet funds: %w", err)
	}

	if result.RowsAffected() == 0 {
		var balance float64
		err := r.pool.QueryRow(ctx, `SELECT balance FROM wallets WHERE id = $1`, walletID).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				span.SetStatus(codes.Error, "not found")
				return domain.ErrWalletNotFound
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to check wallet balance: %w", err)
		}
		span.SetStatus(codes.Error, "insufficient balance")
		return &domain.InsufficientBalanceError{Requested: amount, Available: balance}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// SettleHold moves held funds into the withdrawn bucket
func (r *PostgresWalletRepository) SettleHold(ctx context.Context, walletID string, amount float64) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.wallet.settle_hold")
	defer span.End()

	span.SetAttributes(
		attribute.String("wallet_id", walletID),
		attribute.Float64("amount", amount),
	)

	now := time.Now()
	result, err := r.pool.Exec(ctx, `
		UPDATE wallets SET
			pending_withdrawals = pending_withdrawals - $2,
			total_withdrawals = total_withdrawals + $2,
			last_transaction_at = $3,
			updated_at = $3
		WHERE id = $1 AND pending_withdrawals >= $2
	`, walletID, amount, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to settle wallet hold: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "hold mismatch")
		return domain.ErrWithdrawalNotPending
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ReleaseHold returns held funds to the free balance
func (r *PostgresWalletRepository) ReleaseHold(ctx context.Context, walletID string, amount float64) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.wallet.release_hold")
	defer span.End()

	span.SetAttributes(
		attribute.String("wallet_id", walletID),
		attribute.Float64("amount", amount),
	)

	now := time.Now()
	result, err := r.pool.Exec(ctx, `
		UPDATE wallets SET
			pending_withdrawals = pending_withdrawals - $2,
			balance = balance + $2,
			last_transaction_at = $3,
			updated_at = $3
		WHERE id = $1 AND pending_withdrawals >= $2
	`, walletID, amount, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to release wallet hold: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "hold mismatch")
		return domain.ErrWithdrawalNotPending
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *PostgresWalletRepository) getWallet(ctx context.Context, query string, arg string) (*domain.Wallet, error) {
	wallet := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&wallet.ID,
		&wallet.OrganizerID,
		&wallet.Balance,
		&wallet.TotalEarnings,
		&wallet.TotalWithdrawals,
		&wallet.PendingWithdrawals,
		&wallet.LastTransactionAt,
		&wallet.IsActive,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

// Ensure PostgresWalletRepository implements WalletRepository
var _ WalletRepository = (*PostgresWalletRepository)(nil)
