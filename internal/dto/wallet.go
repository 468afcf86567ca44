package dto

import (
	"time"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
)

// WithdrawalRequest asks to move funds from the free balance into a
// pending withdrawal hold
type WithdrawalRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Reference string  `json:"reference,omitempty"`
}

// WithdrawalDecisionRequest carries the optional payout reference an
// operator attaches when completing or rejecting a withdrawal
type WithdrawalDecisionRequest struct {
	Reference string `json:"reference,omitempty"`
}

// WithdrawalResponse carries the opened withdrawal together with the
// wallet state after the hold
type WithdrawalResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Wallet      *WalletResponse      `json:"wallet"`
}

// WalletResponse represents an organizer wallet in API responses
type WalletResponse struct {
	ID                 string     `json:"id"`
	OrganizerID        string     `json:"organizer_id"`
	Balance            float64    `json:"balance"`
	TotalEarnings      float64    `json:"total_earnings"`
	TotalWithdrawals   float64    `json:"total_withdrawals"`
	PendingWithdrawals float64    `json:"pending_withdrawals"`
	LastTransactionAt  *time.Time `json:"last_transaction_at,omitempty"`
	IsActive           bool       `json:"is_active"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	Amount           float64   `json:"amount"`
	SenderID         string    `json:"sender_id,omitempty"`
	ReceiverID       string    `json:"receiver_id,omitempty"`
	Reference        string    `json:"reference,omitempty"`
	PlatformFee      float64   `json:"platform_fee,omitempty"`
	OrderID          string    `json:"order_id,omitempty"`
	GatewayPaymentID string    `json:"gateway_payment_id,omitempty"`
	WalletID         string    `json:"wallet_id,omitempty"`
	BookingID        string    `json:"booking_id,omitempty"`
	WithdrawalStatus *string   `json:"withdrawal_status,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// WalletFromDomain converts a domain Wallet to its API shape
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:                 w.ID,
		OrganizerID:        w.OrganizerID,
		Balance:            w.Balance,
		TotalEarnings:      w.TotalEarnings,
		TotalWithdrawals:   w.TotalWithdrawals,
		PendingWithdrawals: w.PendingWithdrawals,
		LastTransactionAt:  w.LastTransactionAt,
		IsActive:           w.IsActive,
		CreatedAt:          w.CreatedAt,
		UpdatedAt:          w.UpdatedAt,
	}
}

// TransactionFromDomain converts a domain Transaction to its API shape
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:               t.ID,
		Type:             string(t.Type),
		Amount:           t.Amount,
		SenderID:         t.SenderID,
		ReceiverID:       t.ReceiverID,
		Reference:        t.Reference,
		PlatformFee:      t.PlatformFee,
		OrderID:          t.OrderID,
		GatewayPaymentID: t.GatewayPaymentID,
		WalletID:         t.WalletID,
		BookingID:        t.BookingID,
		CreatedAt:        t.CreatedAt,
	}
	if t.WithdrawalStatus != nil {
		s := string(*t.WithdrawalStatus)
		resp.WithdrawalStatus = &s
	}
	return resp
}

// TransactionsFromDomain converts a slice of domain transactions
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	out := make([]*TransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, TransactionFromDomain(t))
	}
	return out
}

// Pagination carries limit/offset paging parameters
type Pagination struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// Normalize clamps paging parameters to sane bounds
func (p *Pagination) Normalize() {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}
