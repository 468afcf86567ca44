package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/dto"
)

// MockWalletService is a mock implementation of WalletService for testing
type MockWalletService struct {
	GetOrCreateWalletFunc  func(ctx context.Context, organizerID string) (*domain.Wallet, error)
	GetWalletFunc          func(ctx context.Context, organizerID string) (*dto.WalletResponse, error)
	CreditFunc             func(ctx context.Context, walletID string, amount float64, bookingID string) error
	RequestWithdrawalFunc  func(ctx context.Context, organizerID string, req *dto.WithdrawalRequest) (*dto.WithdrawalResponse, error)
	CompleteWithdrawalFunc func(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error)
	RejectWithdrawalFunc   func(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error)
	ListTransactionsFunc   func(ctx context.Context, organizerID string, limit, offset int) ([]*dto.TransactionResponse, error)
}

func (m *MockWalletService) GetOrCreateWallet(ctx context.Context, organizerID string) (*domain.Wallet, error) {
	if m.GetOrCreateWalletFunc != nil {
		return m.GetOrCreateWalletFunc(ctx, organizerID)
	}
	return nil, nil
}

func (m *MockWalletService) GetWallet(ctx context.Context, organizerID string) (*dto.WalletResponse, error) {
	if m.GetWalletFunc != nil {
		return m.GetWalletFunc(ctx, organizerID)
	}
	return nil, nil
}

func (m *MockWalletService) Credit(ctx context.Context, walletID string, amount float64, bookingID string) error {
	if m.CreditFunc != nil {
		return m.CreditFunc(ctx, walletID, amount, bookingID)
	}
	return nil
}

func (m *MockWalletService) RequestWithdrawal(ctx context.Context, organizerID string, req *dto.WithdrawalRequest) (*dto.WithdrawalResponse, error) {
	if m.RequestWithdrawalFunc != nil {
		return m.RequestWithdrawalFunc(ctx, organizerID, req)
	}
	return nil, nil
}

func (m *MockWalletService) CompleteWithdrawal(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error) {
	if m.CompleteWithdrawalFunc != nil {
		return m.CompleteWithdrawalFunc(ctx, transactionID, reference)
	}
	return nil, nil
}

func (m *MockWalletService) RejectWithdrawal(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error) {
	if m.RejectWithdrawalFunc != nil {
		return m.RejectWithdrawalFunc(ctx, transactionID, reference)
	}
	return nil, nil
}

func (m *MockWalletService) ListTransactions(ctx context.Context, organizerID string, limit, offset int) ([]*dto.TransactionResponse, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, organizerID, limit, offset)
	}
	return nil, nil
}

func setupWalletRouter(mock *MockWalletService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewWalletHandler(mock)

	organizers := router.Group("/organizers")
	{
		organizers.GET("/:id/wallet", handler.GetWallet)
		organizers.GET("/:id/transactions", handler.ListTransactions)
		organizers.POST("/:id/withdrawals", handler.RequestWithdrawal)
	}
	withdrawals := router.Group("/withdrawals")
	{
		withdrawals.POST("/:id/complete", handler.CompleteWithdrawal)
		withdrawals.POST("/:id/reject", handler.RejectWithdrawal)
	}

	return router
}

func TestWalletHandler_GetWallet(t *testing.T) {
	router := setupWalletRouter(&MockWalletService{
		GetWalletFunc: func(ctx context.Context, organizerID string) (*dto.WalletResponse, error) {
			if organizerID != "org-123" {
				return nil, domain.ErrWalletNotFound
			}
			return &dto.WalletResponse{ID: "wallet-1", OrganizerID: organizerID, Balance: 900}, nil
		},
	})

	w, env := doJSON(t, router, http.MethodGet, "/organizers/org-123/wallet", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	var wallet dto.WalletResponse
	if err := json.Unmarshal(env.Data, &wallet); err != nil {
		t.Fatalf("decode wallet: %v", err)
	}
	if wallet.Balance != 900 {
		t.Errorf("balance = %v, want 900", wallet.Balance)
	}

	w, _ = doJSON(t, router, http.MethodGet, "/organizers/org-unknown/wallet", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestWalletHandler_RequestWithdrawal(t *testing.T) {
	tests := []struct {
		name           string
		request        interface{}
		mockFunc       func(ctx context.Context, organizerID string, req *dto.WithdrawalRequest) (*dto.WithdrawalResponse, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:    "successful request",
			request: &dto.WithdrawalRequest{Amount: 600, Reference: "payout-june"},
			mockFunc: func(ctx context.Context, organizerID string, req *dto.WithdrawalRequest) (*dto.WithdrawalResponse, error) {
				status := "pending"
				return &dto.WithdrawalResponse{
					Transaction: &dto.TransactionResponse{
						ID:               "txn-1",
						Type:             "wallet_debit",
						Amount:           req.Amount,
						WithdrawalStatus: &status,
					},
					Wallet: &dto.WalletResponse{
						ID:                 "wallet-1",
						Balance:            400,
						PendingWithdrawals: 600,
					},
				}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing amount",
			request:        gin.H{"reference": "payout"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "BAD_REQUEST",
		},
		{
			name:    "insufficient balance",
			request: &dto.WithdrawalRequest{Amount: 5000},
			mockFunc: func(ctx context.Context, organizerID string, req *dto.WithdrawalRequest) (*dto.WithdrawalResponse, error) {
				return nil, &domain.InsufficientBalanceError{
					OrganizerID: organizerID,
					Requested:   req.Amount,
					Available:   1200,
				}
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "INSUFFICIENT_BALANCE",
		},
		{
			name:    "no wallet",
			request: &dto.WithdrawalRequest{Amount: 100},
			mockFunc: func(ctx context.Context, organizerID string, req *dto.WithdrawalRequest) (*dto.WithdrawalResponse, error) {
				return nil, domain.ErrWalletNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupWalletRouter(&MockWalletService{RequestWithdrawalFunc: tt.mockFunc})

			w, env := doJSON(t, router, http.MethodPost, "/organizers/org-123/withdrawals", tt.request)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedCode != "" {
				if env.Error == nil {
					t.Fatalf("expected error envelope, got %s", w.Body.String())
				}
				if env.Error.Code != tt.expectedCode {
					t.Errorf("expected code %s, got %s", tt.expectedCode, env.Error.Code)
				}
				return
			}
			// The success payload carries the withdrawal and the
			// post-hold wallet together.
			var res dto.WithdrawalResponse
			if err := json.Unmarshal(env.Data, &res); err != nil {
				t.Fatalf("decode withdrawal: %v", err)
			}
			if res.Transaction == nil || res.Transaction.ID != "txn-1" {
				t.Errorf("transaction = %+v, want txn-1", res.Transaction)
			}
			if res.Wallet == nil || res.Wallet.Balance != 400 || res.Wallet.PendingWithdrawals != 600 {
				t.Errorf("wallet = %+v, want balance 400 / pending 600", res.Wallet)
			}
		})
	}
}

func TestWalletHandler_CompleteWithdrawal(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		mockFunc       func(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "completes with a payout reference",
			body: &dto.WithdrawalDecisionRequest{Reference: "utr-9001"},
			mockFunc: func(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error) {
				if reference != "utr-9001" {
					t.Errorf("reference = %s, want utr-9001", reference)
				}
				status := "completed"
				return &dto.TransactionResponse{ID: transactionID, WithdrawalStatus: &status}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "empty body is allowed",
			body: nil,
			mockFunc: func(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error) {
				status := "completed"
				return &dto.TransactionResponse{ID: transactionID, WithdrawalStatus: &status}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "already decided",
			mockFunc: func(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error) {
				return nil, domain.ErrWithdrawalNotPending
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONFLICT",
		},
		{
			name: "unknown transaction",
			mockFunc: func(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error) {
				return nil, domain.ErrTransactionNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupWalletRouter(&MockWalletService{CompleteWithdrawalFunc: tt.mockFunc})

			w, env := doJSON(t, router, http.MethodPost, "/withdrawals/txn-1/complete", tt.body)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedCode != "" && (env.Error == nil || env.Error.Code != tt.expectedCode) {
				t.Errorf("expected code %s, got %+v", tt.expectedCode, env.Error)
			}
		})
	}
}

func TestWalletHandler_RejectWithdrawal(t *testing.T) {
	router := setupWalletRouter(&MockWalletService{
		RejectWithdrawalFunc: func(ctx context.Context, transactionID, reference string) (*dto.TransactionResponse, error) {
			status := "failed"
			return &dto.TransactionResponse{ID: transactionID, WithdrawalStatus: &status}, nil
		},
	})

	w, env := doJSON(t, router, http.MethodPost, "/withdrawals/txn-1/reject", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	var txn dto.TransactionResponse
	if err := json.Unmarshal(env.Data, &txn); err != nil {
		t.Fatalf("decode transaction: %v", err)
	}
	if txn.WithdrawalStatus == nil || *txn.WithdrawalStatus != "failed" {
		t.Errorf("withdrawal status = %v, want failed", txn.WithdrawalStatus)
	}
}

func TestWalletHandler_ListTransactions(t *testing.T) {
	var gotLimit, gotOffset int
	router := setupWalletRouter(&MockWalletService{
		ListTransactionsFunc: func(ctx context.Context, organizerID string, limit, offset int) ([]*dto.TransactionResponse, error) {
			gotLimit, gotOffset = limit, offset
			return []*dto.TransactionResponse{{ID: "txn-1"}, {ID: "txn-2"}}, nil
		},
	})

	w, env := doJSON(t, router, http.MethodGet, "/organizers/org-123/transactions?limit=2&offset=4", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if gotLimit != 2 || gotOffset != 4 {
		t.Errorf("pagination = (%d, %d), want (2, 4)", gotLimit, gotOffset)
	}
	var txns []*dto.TransactionResponse
	if err := json.Unmarshal(env.Data, &txns); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(txns) != 2 {
		t.Errorf("transactions = %d, want 2", len(txns))
	}
}
