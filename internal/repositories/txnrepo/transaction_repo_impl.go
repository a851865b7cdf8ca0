package txnrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sqlc-dev/pqtype"

	"github.com/gensosanso/financecorner/internal/domain"
	"github.com/gensosanso/financecorner/internal/infrastructure/database"
)

type TransactionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) ITransactionRepository {
	return &TransactionRepository{
		db:     db.Db,
		logger: logger,
	}
}

func (r *TransactionRepository) dbtx(tx database.Tx) database.DBTX {
	if t, ok := tx.(*sql.Tx); ok && t != nil {
		return t
	}
	return r.db
}

const transactionColumns = `id, kind, user_id, counterparty_id, amount_cents, method, status, metadata, created_at, updated_at`

func (r *TransactionRepository) Append(ctx context.Context, tx database.Tx, t *domain.Transaction) error {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return fmt.Errorf("invalid transaction id format: %w", err)
	}
	userID, err := uuid.Parse(t.UserID)
	if err != nil {
		return fmt.Errorf("invalid user_id format: %w", err)
	}

	var counterparty uuid.NullUUID
	if t.CounterpartyID != "" {
		cp, err := uuid.Parse(t.CounterpartyID)
		if err != nil {
			return fmt.Errorf("invalid counterparty_id format: %w", err)
		}
		counterparty = uuid.NullUUID{UUID: cp, Valid: true}
	}

	_, err = r.dbtx(tx).ExecContext(ctx,
		`INSERT INTO transactions (id, kind, user_id, counterparty_id, amount_cents, method, status, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id,
		string(t.Kind),
		userID,
		counterparty,
		t.AmountCents,
		sql.NullString{String: t.Method, Valid: t.Method != ""},
		string(t.Status),
		pqtype.NullRawMessage{RawMessage: t.Metadata, Valid: t.Metadata != nil},
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("id", t.ID).Str("kind", string(t.Kind)).Msg("Failed to append transaction")
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return r.getByID(ctx, r.db, id, false)
}

func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx database.Tx, id string) (*domain.Transaction, error) {
	return r.getByID(ctx, r.dbtx(tx), id, true)
}

func (r *TransactionRepository) getByID(ctx context.Context, q database.DBTX, id string, forUpdate bool) (*domain.Transaction, error) {
	// A malformed id cannot match any row, so it reads the same as a
	// missing one. Ids arrive here from client-supplied path params.
	txID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	t, err := scanTransaction(q.QueryRowContext(ctx, query, txID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("id", id).Msg("Failed to get transaction")
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// SetStatus performs the guarded status transition, recording the moderation
// metadata in the same statement. Zero rows updated means the transaction is
// missing or already terminal, as does a malformed id.
func (r *TransactionRepository) SetStatus(ctx context.Context, tx database.Tx, id string, status domain.TransactionStatus, metadata json.RawMessage) error {
	txID, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrInvalidState
	}

	res, err := r.dbtx(tx).ExecContext(ctx,
		`UPDATE transactions SET status = $1, metadata = COALESCE($2, metadata), updated_at = NOW()
		 WHERE id = $3 AND status = 'pending'`,
		string(status),
		pqtype.NullRawMessage{RawMessage: metadata, Valid: metadata != nil},
		txID,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("id", id).Str("status", string(status)).Msg("Failed to set transaction status")
		return fmt.Errorf("failed to set transaction status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id format: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = $1 OR counterparty_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userUUID, limit, offset,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions by user")
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListByStatus feeds the moderation queue, so it pages oldest first.
func (r *TransactionRepository) ListByStatus(ctx context.Context, status domain.TransactionStatus, limit, offset int) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE status = $1
		 ORDER BY created_at ASC LIMIT $2 OFFSET $3`,
		string(status), limit, offset,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("status", string(status)).Msg("Failed to list transactions by status")
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var id, userID uuid.UUID
	var counterparty uuid.NullUUID
	var kind, status string
	var method sql.NullString
	var metadata pqtype.NullRawMessage

	err := row.Scan(&id, &kind, &userID, &counterparty, &t.AmountCents, &method, &status, &metadata, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.ID = id.String()
	t.Kind = domain.TransactionKind(kind)
	t.UserID = userID.String()
	if counterparty.Valid {
		t.CounterpartyID = counterparty.UUID.String()
	}
	t.Method = method.String
	t.Status = domain.TransactionStatus(status)
	if metadata.Valid {
		t.Metadata = metadata.RawMessage
	}
	return &t, nil
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}
