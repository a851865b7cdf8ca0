package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gensosanso/financecorner/internal/application/ledger"
	"github.com/gensosanso/financecorner/pkg/currency"
)

type TransactionHandler struct {
	ledgerService ledger.ILedgerService
	currencyUtils *currency.CurrencyUtils
}

func NewTransactionHandler(ledgerService ledger.ILedgerService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
		currencyUtils: currency.NewCurrencyUtils(),
	}
}

type depositRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"required"`
}

type withdrawalRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"required"`
}

type transferRequest struct {
	RecipientEmail string  `json:"recipient_email" binding:"required,email"`
	Amount         float64 `json:"amount" binding:"required,gt=0"`
}

// CreateDeposit records a pending deposit. The balance moves only once an
// administrator approves it.
func (h *TransactionHandler) CreateDeposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": err.Error(),
		})
		return
	}

	userID := c.GetString("user_id")
	amountCents := h.currencyUtils.DollarsToCents(req.Amount)

	txn, err := h.ledgerService.Deposit(c.Request.Context(), userID, amountCents, req.Method)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Deposit request failed")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "deposit submitted for review", txn)
}

// CreateWithdrawal records a pending withdrawal. Funds are checked up front
// but only leave the wallet on approval.
func (h *TransactionHandler) CreateWithdrawal(c *gin.Context) {
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": err.Error(),
		})
		return
	}

	userID := c.GetString("user_id")
	amountCents := h.currencyUtils.DollarsToCents(req.Amount)

	txn, err := h.ledgerService.Withdraw(c.Request.Context(), userID, amountCents, req.Method)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Withdrawal request failed")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "withdrawal submitted for review", txn)
}

// CreateTransfer moves funds to another user immediately, no moderation step.
func (h *TransactionHandler) CreateTransfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": err.Error(),
		})
		return
	}

	userID := c.GetString("user_id")
	amountCents := h.currencyUtils.DollarsToCents(req.Amount)

	txn, err := h.ledgerService.Transfer(c.Request.Context(), userID, req.RecipientEmail, amountCents)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Transfer request failed")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "transfer completed", txn)
}

// ListTransactions returns the caller's transaction history, newest first,
// including transfers where the caller is the recipient.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, offset := pagination(c)

	txns, err := h.ledgerService.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "transactions retrieved", gin.H{
		"transactions": txns,
		"count":        len(txns),
	})
}
