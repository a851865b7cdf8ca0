package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gensosanso/financecorner/internal/application/ledger"
	"github.com/gensosanso/financecorner/pkg/currency"
)

type WalletHandler struct {
	ledgerService ledger.ILedgerService
	currencyUtils *currency.CurrencyUtils
}

func NewWalletHandler(ledgerService ledger.ILedgerService) *WalletHandler {
	return &WalletHandler{
		ledgerService: ledgerService,
		currencyUtils: currency.NewCurrencyUtils(),
	}
}

// GetWallet returns the caller's balance. Wallets are created lazily by the
// first deposit, so a brand-new account maps to 404 here.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID := c.GetString("user_id")

	balanceCents, err := h.ledgerService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "wallet retrieved", gin.H{
		"user_id":       userID,
		"balance_cents": balanceCents,
		"balance":       h.currencyUtils.CentsToDollars(balanceCents),
		"display":       h.currencyUtils.FormatUSD(balanceCents),
	})
}
