package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/dto"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/service"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/response"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/telemetry"
)

// WalletHandler handles organizer wallet HTTP requests
type WalletHandler struct {
	walletService service.WalletService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletService service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// GetWallet handles GET /organizers/:id/wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.wallet.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	organizerID := c.Param("id")
	if organizerID == "" {
		span.SetStatus(codes.Error, "organizer id required")
		response.BadRequest(c, "organizer id required")
		return
	}
	span.SetAttributes(attribute.String("organizer_id", organizerID))

	result, err := h.walletService.GetWallet(ctx, organizerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// RequestWithdrawal handles POST /organizers/:id/withdrawals
func (h *WalletHandler) RequestWithdrawal(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.wallet.request_withdrawal")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	organizerID := c.Param("id")
	if organizerID == "" {
		span.SetStatus(codes.Error, "organizer id required")
		response.BadRequest(c, "organizer id required")
		return
	}

	var req dto.WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("organizer_id", organizerID),
		attribute.Float64("amount", req.Amount),
	)

	result, err := h.walletService.RequestWithdrawal(ctx, organizerID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("transaction_id", result.Transaction.ID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// CompleteWithdrawal handles POST /withdrawals/:id/complete
func (h *WalletHandler) CompleteWithdrawal(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.wallet.complete_withdrawal")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	transactionID := c.Param("id")
	if transactionID == "" {
		span.SetStatus(codes.Error, "transaction id required")
		response.BadRequest(c, "transaction id required")
		return
	}

	var req dto.WithdrawalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(attribute.String("transaction_id", transactionID))

	result, err := h.walletService.CompleteWithdrawal(ctx, transactionID, req.Reference)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// RejectWithdrawal handles POST /withdrawals/:id/reject
func (h *WalletHandler) RejectWithdrawal(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.wallet.reject_withdrawal")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	transactionID := c.Param("id")
	if transactionID == "" {
		span.SetStatus(codes.Error, "transaction id required")
		response.BadRequest(c, "transaction id required")
		return
	}

	var req dto.WithdrawalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(attribute.String("transaction_id", transactionID))

	result, err := h.walletService.RejectWithdrawal(ctx, transactionID, req.Reference)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// ListTransactions handles GET /organizers/:id/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.wallet.list_transactions")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	organizerID := c.Param("id")
	if organizerID == "" {
		span.SetStatus(codes.Error, "organizer id required")
		response.BadRequest(c, "organizer id required")
		return
	}
	limit, offset := pagination(c)
	span.SetAttributes(attribute.String("organizer_id", organizerID))

	result, err := h.walletService.ListTransactions(ctx, organizerID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.SuccessWithMeta(c, result, gin.H{
		"limit":  limit,
		"offset": offset,
		"count":  len(result),
	})
}
