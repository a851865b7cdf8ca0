package events

import "time"

// Event types, one per row-level change the UI cares about.
const (
	TransactionChanged = "transaction.changed"
	WalletUpdated      = "wallet.updated"
	OfferChanged       = "lending_offer.changed"
	ContractChanged    = "lending_contract.changed"
)

// Stream names, one per relation.
const (
	TransactionsStream = "transactions.events"
	WalletsStream      = "wallets.events"
	OffersStream       = "lending_offers.events"
	ContractsStream    = "lending_contracts.events"
)

type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type WalletUpdatedEvent struct {
	UserID       string `json:"user_id"`
	BalanceCents int64  `json:"balance_cents"`
}
