package txnrepo

import (
	"context"
	"encoding/json"

	"github.com/gensosanso/financecorner/internal/domain"
	"github.com/gensosanso/financecorner/internal/infrastructure/database"
)

// ITransactionRepository is the append-only transaction log. The only
// permitted mutation is the single pending -> terminal status transition,
// which records the moderation audit trail in metadata alongside.
type ITransactionRepository interface {
	Append(ctx context.Context, tx database.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx database.Tx, id string) (*domain.Transaction, error)
	SetStatus(ctx context.Context, tx database.Tx, id string, status domain.TransactionStatus, metadata json.RawMessage) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error)
	ListByStatus(ctx context.Context, status domain.TransactionStatus, limit, offset int) ([]domain.Transaction, error)
}
