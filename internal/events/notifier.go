package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gensosanso/financecorner/internal/domain"
	"github.com/gensosanso/financecorner/internal/server/websocket"
)

// Notifier fans committed ledger changes out to the Redis streams and the
// in-process WebSocket hub. Failures are logged and swallowed: the ledger
// result is already durable by the time a notification is attempted.
type Notifier struct {
	publisher *Publisher
	hub       *websocket.WsHub
	logger    zerolog.Logger
}

func NewNotifier(publisher *Publisher, hub *websocket.WsHub, logger zerolog.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		hub:       hub,
		logger:    logger,
	}
}

func (n *Notifier) TransactionChanged(ctx context.Context, t *domain.Transaction) {
	n.publish(ctx, TransactionsStream, TransactionChanged, t)
	if n.hub != nil {
		n.hub.BroadcastTransaction(t)
	}
}

func (n *Notifier) WalletChanged(ctx context.Context, userID string, balanceCents int64) {
	n.publish(ctx, WalletsStream, WalletUpdated, WalletUpdatedEvent{
		UserID:       userID,
		BalanceCents: balanceCents,
	})
	if n.hub != nil {
		n.hub.BroadcastWallet(&domain.Wallet{
			UserID:       userID,
			BalanceCents: balanceCents,
			UpdatedAt:    time.Now().UTC(),
		})
	}
}

func (n *Notifier) OfferChanged(ctx context.Context, o *domain.LendingOffer) {
	n.publish(ctx, OffersStream, OfferChanged, o)
	if n.hub != nil {
		n.hub.BroadcastOffer(o)
	}
}

func (n *Notifier) ContractChanged(ctx context.Context, c *domain.LendingContract) {
	n.publish(ctx, ContractsStream, ContractChanged, c)
	if n.hub != nil {
		n.hub.BroadcastContract(c)
	}
}

func (n *Notifier) publish(ctx context.Context, stream, eventType string, data any) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, stream, eventType, data); err != nil {
		n.logger.Err(err).Str("stream", stream).Str("event_type", eventType).Msg("Failed to publish change event")
	}
}
