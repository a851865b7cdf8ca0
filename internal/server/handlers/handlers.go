package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gensosanso/financecorner/internal/application/ledger"
	"github.com/gensosanso/financecorner/internal/domain"
	"github.com/gensosanso/financecorner/internal/server/middleware"
	"github.com/gensosanso/financecorner/internal/server/websocket"
	"github.com/gensosanso/financecorner/pkg/config"
)

type Handlers struct {
	LedgerSvc ledger.ILedgerService
	Logger    zerolog.Logger
	Config    *config.Config
	Hub       *websocket.WsHub
}

func New(ledgerSvc ledger.ILedgerService, logger zerolog.Logger, config *config.Config, hub *websocket.WsHub) *Handlers {
	return &Handlers{
		LedgerSvc: ledgerSvc,
		Logger:    logger,
		Config:    config,
		Hub:       hub,
	}
}

func (h *Handlers) SetupHandlers(router *gin.Engine, mw *middleware.Middleware) {
	walletHandler := NewWalletHandler(h.LedgerSvc)
	transactionHandler := NewTransactionHandler(h.LedgerSvc)
	lendingHandler := NewLendingHandler(h.LedgerSvc)
	adminHandler := NewAdminHandler(h.LedgerSvc)
	wsHandler := NewWebSocketHandler(h.Hub, h.Logger)
	healthHandler := NewHealthHandler()

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint, token accepted as a query parameter for browser clients
	router.GET("/ws", mw.AuthMiddleware(), wsHandler.HandleConnection)

	v1 := router.Group("/v1")
	v1.Use(mw.AuthMiddleware())
	{
		v1.GET("/wallet", walletHandler.GetWallet)

		transactions := v1.Group("/transactions")
		{
			transactions.GET("", transactionHandler.ListTransactions)
		}

		v1.POST("/deposits", transactionHandler.CreateDeposit)
		v1.POST("/withdrawals", transactionHandler.CreateWithdrawal)
		v1.POST("/transfers", transactionHandler.CreateTransfer)

		lending := v1.Group("/lending")
		{
			lending.GET("/offers", lendingHandler.ListOpenOffers)
			lending.POST("/offers", lendingHandler.CreateOffer)
			lending.GET("/offers/mine", lendingHandler.ListMyOffers)
			lending.POST("/offers/:id/accept", lendingHandler.AcceptOffer)
			lending.POST("/offers/:id/cancel", lendingHandler.CancelOffer)
			lending.GET("/contracts", lendingHandler.ListContracts)
			lending.POST("/contracts/:id/repay", lendingHandler.RepayContract)
		}

		admin := v1.Group("/admin")
		admin.Use(mw.AdminOnly())
		{
			admin.GET("/transactions", adminHandler.ListPendingTransactions)
			admin.POST("/transactions/:id/approve", adminHandler.ApproveTransaction)
			admin.POST("/transactions/:id/reject", adminHandler.RejectTransaction)
			admin.POST("/contracts/:id/default", adminHandler.DefaultContract)
		}
	}
}

// respondError maps ledger sentinel errors to HTTP statuses. Unknown errors
// surface as 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrSelfDeal):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": err.Error(),
		})
	case errors.Is(err, domain.ErrRecipientNotFound), errors.Is(err, domain.ErrUnknownAccount):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": err.Error(),
		})
	case errors.Is(err, domain.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Unprocessable Entity",
			"message": err.Error(),
		})
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrOfferUnavailable):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Conflict",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Request could not be processed",
		})
	}
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, domain.ApiResponse{
		Message: message,
		Success: true,
		Status:  status,
		Data:    data,
	})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = queryInt(c, "limit", 0)
	offset = queryInt(c, "offset", 0)
	return limit, offset
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
