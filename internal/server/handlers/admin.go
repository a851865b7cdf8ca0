package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gensosanso/financecorner/internal/application/ledger"
	"github.com/gensosanso/financecorner/internal/domain"
)

type AdminHandler struct {
	ledgerService ledger.ILedgerService
}

func NewAdminHandler(ledgerService ledger.ILedgerService) *AdminHandler {
	return &AdminHandler{
		ledgerService: ledgerService,
	}
}

// ListPendingTransactions returns the moderation queue, oldest first.
func (h *AdminHandler) ListPendingTransactions(c *gin.Context) {
	limit, offset := pagination(c)

	txns, err := h.ledgerService.ListPendingTransactions(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list pending transactions")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "pending transactions retrieved", gin.H{
		"transactions": txns,
		"count":        len(txns),
	})
}

func (h *AdminHandler) ApproveTransaction(c *gin.Context) {
	h.moderate(c, domain.DecisionApprove)
}

func (h *AdminHandler) RejectTransaction(c *gin.Context) {
	h.moderate(c, domain.DecisionReject)
}

func (h *AdminHandler) moderate(c *gin.Context, decision domain.Decision) {
	adminID := c.GetString("user_id")
	transactionID := c.Param("id")

	txn, err := h.ledgerService.Moderate(c.Request.Context(), adminID, transactionID, decision)
	if err != nil {
		log.Error().Err(err).
			Str("admin_id", adminID).
			Str("transaction_id", transactionID).
			Str("decision", string(decision)).
			Msg("Failed to moderate transaction")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "transaction "+string(txn.Status), txn)
}

// DefaultContract flags an overdue contract. No balances move.
func (h *AdminHandler) DefaultContract(c *gin.Context) {
	adminID := c.GetString("user_id")
	contractID := c.Param("id")

	contract, err := h.ledgerService.MarkDefaulted(c.Request.Context(), adminID, contractID)
	if err != nil {
		log.Error().Err(err).
			Str("admin_id", adminID).
			Str("contract_id", contractID).
			Msg("Failed to mark contract defaulted")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "contract marked defaulted", contract)
}
