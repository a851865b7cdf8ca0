package walletrepo

import (
	"context"

	"github.com/gensosanso/financecorner/internal/domain"
	"github.com/gensosanso/financecorner/internal/infrastructure/database"
)

// IWalletRepository is the Account Store. ApplyDelta is the sole balance
// mutator in the system; every write path funnels through it.
type IWalletRepository interface {
	EnsureWallet(ctx context.Context, tx database.Tx, userID string) error
	GetWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	GetWalletForUpdate(ctx context.Context, tx database.Tx, userID string) (*domain.Wallet, error)
	ApplyDelta(ctx context.Context, tx database.Tx, userID string, deltaCents int64) (int64, error)
}
