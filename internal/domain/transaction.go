package domain

import "time"

// TransactionType classifies a ledger entry. Values match the original schema.
type TransactionType string

const (
	TransactionTypeCredit       TransactionType = "credit"
	TransactionTypeDebit        TransactionType = "debit"
	TransactionTypeTransfer     TransactionType = "transfer"
	TransactionTypeBillPayment  TransactionType = "bill_payment"
	TransactionTypeBooking      TransactionType = "booking"
	TransactionTypeWalletCredit TransactionType = "wallet_credit"
	TransactionTypeWalletDebit  TransactionType = "wallet_debit"
)

// String returns the string representation of the transaction type
func (t TransactionType) String() string {
	return string(t)
}

// WithdrawalStatus tracks the compensating workflow of a wallet_debit
// transaction. All other transaction types have no withdrawal lifecycle.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusFailed    WithdrawalStatus = "failed"
)

// String returns the string representation of the withdrawal status
func (s WithdrawalStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further withdrawal transitions are permitted.
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusFailed
}

// Transaction is an immutable record of a monetary event. Created exactly
// once per settled booking payment and once per withdrawal request; never
// mutated except for withdrawal status/reference updates.
type Transaction struct {
	ID               string          `json:"id"`
	Type             TransactionType `json:"type"`
	Amount           float64         `json:"amount"`
	SenderID         string          `json:"sender_id"`
	ReceiverID       string          `json:"receiver_id,omitempty"`
	Reference        string          `json:"reference,omitempty"`
	PlatformFee      float64         `json:"platform_fee"`
	OrderID          string          `json:"order_id,omitempty"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	WalletID         string          `json:"wallet_id,omitempty"`
	BookingID        string          `json:"booking_id,omitempty"`
	// WithdrawalStatus is set only for wallet_debit transactions.
	WithdrawalStatus *WithdrawalStatus `json:"withdrawal_status,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// IsPendingWithdrawal reports whether the transaction is a withdrawal hold
// that can still be completed or rejected.
func (t *Transaction) IsPendingWithdrawal() bool {
	return t.Type == TransactionTypeWalletDebit &&
		t.WithdrawalStatus != nil &&
		*t.WithdrawalStatus == WithdrawalStatusPending
}
