package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/telemetry"
)

// PostgresLedgerRepository implements LedgerRepository using PostgreSQL
type PostgresLedgerRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresLedgerRepository creates a new PostgresLedgerRepository
func NewPostgresLedgerRepository(pool *pgxpool.Pool) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{pool: pool}
}

const transactionColumns = `
	id, type, amount, sender_id, receiver_id, reference, platform_fee,
	order_id, gateway_payment_id, wallet_id, booking_id,
	withdrawal_status, created_at
`

// Create inserts a new ledger entry
func (r *PostgresLedgerRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ledger.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("transaction_id", txn.ID),
		attribute.String("type", txn.Type.String()),
	)

	var withdrawalStatus *string
	if txn.WithdrawalStatus != nil {
		s := txn.WithdrawalStatus.String()
		withdrawalStatus = &s
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (
			id, type, amount, sender_id, receiver_id, reference, platform_fee,
			order_id, gateway_payment_id, wallet_id, booking_id,
			withdrawal_status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13
		)
	`,
		txn.ID,
		txn.Type.String(),
		txn.Amount,
		txn.SenderID,
		nullString(txn.ReceiverID),
		nullString(txn.Reference),
		txn.PlatformFee,
		nullString(txn.OrderID),
		nullString(txn.GatewayPaymentID),
		nullString(txn.WalletID),
		nullString(txn.BookingID),
		withdrawalStatus,
		txn.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a ledger entry by its ID
func (r *PostgresLedgerRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ledger.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("transaction_id", id))

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrTransactionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return txn, nil
}

// ListByWallet retrieves ledger entries touching a wallet, newest first
func (r *PostgresLedgerRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ledger.list_by_wallet")
	defer span.End()

	span.SetAttributes(
		attribute.String("wallet_id", walletID),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(txns)))
	span.SetStatus(codes.Ok, "")
	return txns, nil
}

// UpdateWithdrawalStatus flips a wallet_debit entry between withdrawal
// states. The from guard makes the terminal transition single-shot.
func (r *PostgresLedgerRepository) UpdateWithdrawalStatus(ctx context.Context, id string, from, to domain.WithdrawalStatus, reference string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ledger.update_withdrawal_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("transaction_id", id),
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	)

	query := `
		UPDATE transactions SET
			withdrawal_status = $2,
			reference = COALESCE(NULLIF($3, ''), reference)
		WHERE id = $1 AND type = 'wallet_debit' AND withdrawal_status = $4
	`

	result, err := r.pool.Exec(ctx, query, id, to.String(), reference, from.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update withdrawal status: %w", err)
	}

	if result.RowsAffected() == 0 {
		var txnType string
		var status *string
		err := r.pool.QueryRow(ctx,
			`SELECT type, withdrawal_status FROM transactions WHERE id = $1`, id).Scan(&txnType, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				span.SetStatus(codes.Error, "not found")
				return domain.ErrTransactionNotFound
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to check transaction: %w", err)
		}
		if domain.TransactionType(txnType) != domain.TransactionTypeWalletDebit {
			span.SetStatus(codes.Error, "not a withdrawal")
			return domain.ErrNotWithdrawal
		}
		span.SetStatus(codes.Error, "not pending")
		return domain.ErrWithdrawalNotPending
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// scanTransaction scans a row into a Transaction struct
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	var (
		txnType          string
		receiverID       *string
		reference        *string
		orderID          *string
		gatewayPaymentID *string
		walletID         *string
		bookingID        *string
		withdrawalStatus *string
	)

	err := row.Scan(
		&txn.ID,
		&txnType,
		&txn.Amount,
		&txn.SenderID,
		&receiverID,
		&reference,
		&txn.PlatformFee,
		&orderID,
		&gatewayPaymentID,
		&walletID,
		&bookingID,
		&withdrawalStatus,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Type = domain.TransactionType(txnType)
	if receiverID != nil {
		txn.ReceiverID = *receiverID
	}
	if reference != nil {
		txn.Reference = *reference
	}
	if orderID != nil {
		txn.OrderID = *orderID
	}
	if gatewayPaymentID != nil {
		txn.GatewayPaymentID = *gatewayPaymentID
	}
	if walletID != nil {
		txn.WalletID = *walletID
	}
	if bookingID != nil {
		txn.BookingID = *bookingID
	}
	if withdrawalStatus != nil {
		s := domain.WithdrawalStatus(*withdrawalStatus)
		txn.WithdrawalStatus = &s
	}

	return txn, nil
}

// Ensure PostgresLedgerRepository implements LedgerRepository
var _ LedgerRepository = (*PostgresLedgerRepository)(nil)
