package domain

import "time"

// Wallet is an organizer's accumulated-earnings account. Earnings are never
// reduced retroactively, only moved between the balance, pending and
// withdrawn buckets, so balance + pendingWithdrawals + totalWithdrawals
// always equals totalEarnings.
type Wallet struct {
	ID                 string     `json:"id"`
	OrganizerID        string     `json:"organizer_id"`
	Balance            float64    `json:"balance"`
	TotalEarnings      float64    `json:"total_earnings"`
	TotalWithdrawals   float64    `json:"total_withdrawals"`
	PendingWithdrawals float64    `json:"pending_withdrawals"`
	LastTransactionAt  *time.Time `json:"last_transaction_at"`
	IsActive           bool       `json:"is_active"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CanWithdraw reports whether the wallet holds enough free balance.
func (w *Wallet) CanWithdraw(amount float64) bool {
	return amount > 0 && w.Balance >= amount
}
