package walletrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gensosanso/financecorner/internal/domain"
	"github.com/gensosanso/financecorner/internal/infrastructure/database"
)

type WalletRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) IWalletRepository {
	return &WalletRepository{
		db:     db.Db,
		logger: logger,
	}
}

func (r *WalletRepository) dbtx(tx database.Tx) database.DBTX {
	if t, ok := tx.(*sql.Tx); ok && t != nil {
		return t
	}
	return r.db
}

// EnsureWallet creates the wallet lazily at zero balance on first reference.
func (r *WalletRepository) EnsureWallet(ctx context.Context, tx database.Tx, userID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user_id format: %w", err)
	}

	_, err = r.dbtx(tx).ExecContext(ctx,
		`INSERT INTO wallets (id, user_id, balance_cents, created_at, updated_at)
		 VALUES ($1, $2, 0, NOW(), NOW())
		 ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), userUUID,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to ensure wallet")
		return fmt.Errorf("failed to ensure wallet: %w", err)
	}
	return nil
}

func (r *WalletRepository) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return r.getWallet(ctx, r.db, userID, false)
}

// GetWalletForUpdate locks the wallet row for the duration of the enclosing
// transaction. Callers lock wallets in ascending user_id order.
func (r *WalletRepository) GetWalletForUpdate(ctx context.Context, tx database.Tx, userID string) (*domain.Wallet, error) {
	return r.getWallet(ctx, r.dbtx(tx), userID, true)
}

func (r *WalletRepository) getWallet(ctx context.Context, q database.DBTX, userID string, forUpdate bool) (*domain.Wallet, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id format: %w", err)
	}

	query := `SELECT id, user_id, balance_cents, created_at, updated_at FROM wallets WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var w domain.Wallet
	var id, uid uuid.UUID
	err = q.QueryRowContext(ctx, query, userUUID).Scan(&id, &uid, &w.BalanceCents, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to get wallet")
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	w.ID = id.String()
	w.UserID = uid.String()
	return &w, nil
}

// ApplyDelta applies the signed delta in a single conditional UPDATE that
// refuses to drive the balance negative, and returns the new balance.
func (r *WalletRepository) ApplyDelta(ctx context.Context, tx database.Tx, userID string, deltaCents int64) (int64, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return 0, fmt.Errorf("invalid user_id format: %w", err)
	}

	q := r.dbtx(tx)
	var newBalance int64
	err = q.QueryRowContext(ctx,
		`UPDATE wallets
		 SET balance_cents = balance_cents + $1, updated_at = NOW()
		 WHERE user_id = $2 AND balance_cents + $1 >= 0
		 RETURNING balance_cents`,
		deltaCents, userUUID,
	).Scan(&newBalance)
	if err == nil {
		return newBalance, nil
	}
	if err != sql.ErrNoRows {
		r.logger.Error().Err(err).Str("user_id", userID).Int64("delta_cents", deltaCents).Msg("Failed to apply balance delta")
		return 0, fmt.Errorf("failed to apply balance delta: %w", err)
	}

	// No row updated: missing wallet and an overdrawing delta look the same,
	// so disambiguate before reporting.
	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM wallets WHERE user_id = $1)`, userUUID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check wallet existence: %w", err)
	}
	if !exists {
		return 0, domain.ErrUnknownAccount
	}
	return 0, domain.ErrInsufficientFunds
}
