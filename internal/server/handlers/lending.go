package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gensosanso/financecorner/internal/application/ledger"
	"github.com/gensosanso/financecorner/pkg/currency"
)

type LendingHandler struct {
	ledgerService ledger.ILedgerService
	currencyUtils *currency.CurrencyUtils
}

func NewLendingHandler(ledgerService ledger.ILedgerService) *LendingHandler {
	return &LendingHandler{
		ledgerService: ledgerService,
		currencyUtils: currency.NewCurrencyUtils(),
	}
}

type createOfferRequest struct {
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	InterestRate float64 `json:"interest_rate" binding:"gte=0"`
	DurationDays int     `json:"duration_days" binding:"required,gt=0"`
}

// CreateOffer escrows the lender's funds and publishes the offer.
func (h *LendingHandler) CreateOffer(c *gin.Context) {
	var req createOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": err.Error(),
		})
		return
	}

	lenderID := c.GetString("user_id")
	amountCents := h.currencyUtils.DollarsToCents(req.Amount)

	offer, err := h.ledgerService.CreateLendingOffer(c.Request.Context(), lenderID, amountCents, req.InterestRate, req.DurationDays)
	if err != nil {
		log.Error().Err(err).Str("lender_id", lenderID).Msg("Failed to create lending offer")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "lending offer created", offer)
}

// ListOpenOffers returns the shared marketplace of active offers.
func (h *LendingHandler) ListOpenOffers(c *gin.Context) {
	limit, offset := pagination(c)

	offers, err := h.ledgerService.ListOpenOffers(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list open offers")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "open offers retrieved", gin.H{
		"offers": offers,
		"count":  len(offers),
	})
}

// ListMyOffers returns every offer the caller has posted, any status.
func (h *LendingHandler) ListMyOffers(c *gin.Context) {
	lenderID := c.GetString("user_id")

	offers, err := h.ledgerService.ListOffersByLender(c.Request.Context(), lenderID)
	if err != nil {
		log.Error().Err(err).Str("lender_id", lenderID).Msg("Failed to list lender offers")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "offers retrieved", gin.H{
		"offers": offers,
		"count":  len(offers),
	})
}

// AcceptOffer takes an active offer and opens a contract for the caller.
func (h *LendingHandler) AcceptOffer(c *gin.Context) {
	borrowerID := c.GetString("user_id")
	offerID := c.Param("id")

	contract, err := h.ledgerService.AcceptLendingOffer(c.Request.Context(), borrowerID, offerID)
	if err != nil {
		log.Error().Err(err).
			Str("borrower_id", borrowerID).
			Str("offer_id", offerID).
			Msg("Failed to accept lending offer")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "lending offer accepted", contract)
}

// CancelOffer withdraws one of the caller's active offers and refunds escrow.
func (h *LendingHandler) CancelOffer(c *gin.Context) {
	lenderID := c.GetString("user_id")
	offerID := c.Param("id")

	offer, err := h.ledgerService.CancelLendingOffer(c.Request.Context(), lenderID, offerID)
	if err != nil {
		log.Error().Err(err).
			Str("lender_id", lenderID).
			Str("offer_id", offerID).
			Msg("Failed to cancel lending offer")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "lending offer cancelled", offer)
}

// ListContracts returns contracts where the caller is borrower or lender.
func (h *LendingHandler) ListContracts(c *gin.Context) {
	userID := c.GetString("user_id")

	borrowed, err := h.ledgerService.ListContractsByBorrower(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list borrowed contracts")
		respondError(c, err)
		return
	}

	lent, err := h.ledgerService.ListContractsByLender(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list lent contracts")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "contracts retrieved", gin.H{
		"borrowed": borrowed,
		"lent":     lent,
	})
}

// RepayContract settles an active contract at principal plus interest.
func (h *LendingHandler) RepayContract(c *gin.Context) {
	borrowerID := c.GetString("user_id")
	contractID := c.Param("id")

	contract, err := h.ledgerService.RepayContract(c.Request.Context(), borrowerID, contractID)
	if err != nil {
		log.Error().Err(err).
			Str("borrower_id", borrowerID).
			Str("contract_id", contractID).
			Msg("Failed to repay contract")
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "contract repaid", contract)
}
