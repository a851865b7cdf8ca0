package lendingrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gensosanso/financecorner/internal/domain"
	"github.com/gensosanso/financecorner/internal/infrastructure/database"
)

type LendingRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) ILendingRepository {
	return &LendingRepository{
		db:     db.Db,
		logger: logger,
	}
}

func (r *LendingRepository) dbtx(tx database.Tx) database.DBTX {
	if t, ok := tx.(*sql.Tx); ok && t != nil {
		return t
	}
	return r.db
}

const offerColumns = `id, lender_id, amount_cents, interest_rate, duration_days, status, created_at, updated_at`
const contractColumns = `id, offer_id, lender_id, borrower_id, amount_cents, interest_rate, duration_days, status, start_date, end_date, created_at, updated_at`

func (r *LendingRepository) CreateOffer(ctx context.Context, tx database.Tx, o *domain.LendingOffer) error {
	id, err := uuid.Parse(o.ID)
	if err != nil {
		return fmt.Errorf("invalid offer id format: %w", err)
	}
	lenderID, err := uuid.Parse(o.LenderID)
	if err != nil {
		return fmt.Errorf("invalid lender_id format: %w", err)
	}

	_, err = r.dbtx(tx).ExecContext(ctx,
		`INSERT INTO lending_offers (id, lender_id, amount_cents, interest_rate, duration_days, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, lenderID, o.AmountCents, o.InterestRate, o.DurationDays, string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("offer_id", o.ID).Msg("Failed to create lending offer")
		return fmt.Errorf("failed to create lending offer: %w", err)
	}
	return nil
}

func (r *LendingRepository) GetOffer(ctx context.Context, offerID string) (*domain.LendingOffer, error) {
	// A malformed id cannot match any row, so it reads the same as a
	// missing one. Ids arrive here from client-supplied path params.
	id, err := uuid.Parse(offerID)
	if err != nil {
		return nil, nil
	}

	o, err := scanOffer(r.db.QueryRowContext(ctx,
		`SELECT `+offerColumns+` FROM lending_offers WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("offer_id", offerID).Msg("Failed to get lending offer")
		return nil, fmt.Errorf("failed to get lending offer: %w", err)
	}
	return o, nil
}

// MatchOffer flips active -> taken and returns the fresh row. Losing a match
// race surfaces as ErrOfferUnavailable, as does a missing or settled offer.
func (r *LendingRepository) MatchOffer(ctx context.Context, tx database.Tx, offerID string) (*domain.LendingOffer, error) {
	return r.casOffer(ctx, tx, offerID, "", domain.OfferStatusTaken)
}

// CancelOffer flips active -> cancelled, restricted to the offer's lender.
func (r *LendingRepository) CancelOffer(ctx context.Context, tx database.Tx, offerID, lenderID string) (*domain.LendingOffer, error) {
	return r.casOffer(ctx, tx, offerID, lenderID, domain.OfferStatusCancelled)
}

func (r *LendingRepository) casOffer(ctx context.Context, tx database.Tx, offerID, lenderID string, to domain.OfferStatus) (*domain.LendingOffer, error) {
	id, err := uuid.Parse(offerID)
	if err != nil {
		return nil, domain.ErrOfferUnavailable
	}

	query := `UPDATE lending_offers SET status = $1, updated_at = NOW()
	          WHERE id = $2 AND status = 'active'`
	args := []interface{}{string(to), id}
	if lenderID != "" {
		lender, err := uuid.Parse(lenderID)
		if err != nil {
			return nil, fmt.Errorf("invalid lender_id format: %w", err)
		}
		query += ` AND lender_id = $3`
		args = append(args, lender)
	}
	query += ` RETURNING ` + offerColumns

	o, err := scanOffer(r.dbtx(tx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOfferUnavailable
		}
		r.logger.Error().Err(err).Str("offer_id", offerID).Str("to", string(to)).Msg("Failed to transition lending offer")
		return nil, fmt.Errorf("failed to transition lending offer: %w", err)
	}
	return o, nil
}

func (r *LendingRepository) CreateContract(ctx context.Context, tx database.Tx, c *domain.LendingContract) error {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return fmt.Errorf("invalid contract id format: %w", err)
	}
	offerID, err := uuid.Parse(c.OfferID)
	if err != nil {
		return fmt.Errorf("invalid offer_id format: %w", err)
	}
	lenderID, err := uuid.Parse(c.LenderID)
	if err != nil {
		return fmt.Errorf("invalid lender_id format: %w", err)
	}
	borrowerID, err := uuid.Parse(c.BorrowerID)
	if err != nil {
		return fmt.Errorf("invalid borrower_id format: %w", err)
	}

	_, err = r.dbtx(tx).ExecContext(ctx,
		`INSERT INTO lending_contracts (id, offer_id, lender_id, borrower_id, amount_cents, interest_rate, duration_days, status, start_date, end_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, offerID, lenderID, borrowerID, c.AmountCents, c.InterestRate, c.DurationDays,
		string(c.Status), c.StartDate, c.EndDate, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("contract_id", c.ID).Str("offer_id", c.OfferID).Msg("Failed to create lending contract")
		return fmt.Errorf("failed to create lending contract: %w", err)
	}
	return nil
}

func (r *LendingRepository) GetContract(ctx context.Context, contractID string) (*domain.LendingContract, error) {
	id, err := uuid.Parse(contractID)
	if err != nil {
		return nil, nil
	}

	c, err := scanContract(r.db.QueryRowContext(ctx,
		`SELECT `+contractColumns+` FROM lending_contracts WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("contract_id", contractID).Msg("Failed to get lending contract")
		return nil, fmt.Errorf("failed to get lending contract: %w", err)
	}
	return c, nil
}

func (r *LendingRepository) SetContractStatus(ctx context.Context, tx database.Tx, contractID string, from, to domain.ContractStatus) error {
	id, err := uuid.Parse(contractID)
	if err != nil {
		return domain.ErrInvalidState
	}

	res, err := r.dbtx(tx).ExecContext(ctx,
		`UPDATE lending_contracts SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		string(to), id, string(from),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("contract_id", contractID).Str("to", string(to)).Msg("Failed to set contract status")
		return fmt.Errorf("failed to set contract status: %w", err)
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

func (r *LendingRepository) ListOffersByStatus(ctx context.Context, status domain.OfferStatus, limit, offset int) ([]domain.LendingOffer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+offerColumns+` FROM lending_offers WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		string(status), limit, offset,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("status", string(status)).Msg("Failed to list lending offers")
		return nil, fmt.Errorf("failed to list lending offers: %w", err)
	}
	defer rows.Close()

	return collectOffers(rows)
}

func (r *LendingRepository) ListOffersByLender(ctx context.Context, lenderID string) ([]domain.LendingOffer, error) {
	lender, err := uuid.Parse(lenderID)
	if err != nil {
		return nil, fmt.Errorf("invalid lender_id format: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+offerColumns+` FROM lending_offers WHERE lender_id = $1 ORDER BY created_at DESC`, lender)
	if err != nil {
		r.logger.Error().Err(err).Str("lender_id", lenderID).Msg("Failed to list lender offers")
		return nil, fmt.Errorf("failed to list lender offers: %w", err)
	}
	defer rows.Close()

	return collectOffers(rows)
}

func (r *LendingRepository) ListContractsByBorrower(ctx context.Context, borrowerID string) ([]domain.LendingContract, error) {
	return r.listContracts(ctx, `borrower_id`, borrowerID)
}

func (r *LendingRepository) ListContractsByLender(ctx context.Context, lenderID string) ([]domain.LendingContract, error) {
	return r.listContracts(ctx, `lender_id`, lenderID)
}

func (r *LendingRepository) listContracts(ctx context.Context, column, id string) ([]domain.LendingContract, error) {
	party, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: %w", column, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contractColumns+` FROM lending_contracts WHERE `+column+` = $1 ORDER BY created_at DESC`, party)
	if err != nil {
		r.logger.Error().Err(err).Str(column, id).Msg("Failed to list lending contracts")
		return nil, fmt.Errorf("failed to list lending contracts: %w", err)
	}
	defer rows.Close()

	var out []domain.LendingContract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lending contract: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lending contracts: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOffer(row rowScanner) (*domain.LendingOffer, error) {
	var o domain.LendingOffer
	var id, lenderID uuid.UUID
	var status string

	err := row.Scan(&id, &lenderID, &o.AmountCents, &o.InterestRate, &o.DurationDays, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	o.ID = id.String()
	o.LenderID = lenderID.String()
	o.Status = domain.OfferStatus(status)
	return &o, nil
}

func scanContract(row rowScanner) (*domain.LendingContract, error) {
	var c domain.LendingContract
	var id, offerID, lenderID, borrowerID uuid.UUID
	var status string

	err := row.Scan(&id, &offerID, &lenderID, &borrowerID, &c.AmountCents, &c.InterestRate, &c.DurationDays,
		&status, &c.StartDate, &c.EndDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.ID = id.String()
	c.OfferID = offerID.String()
	c.LenderID = lenderID.String()
	c.BorrowerID = borrowerID.String()
	c.Status = domain.ContractStatus(status)
	return &c, nil
}

func collectOffers(rows *sql.Rows) ([]domain.LendingOffer, error) {
	var out []domain.LendingOffer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lending offer: %w", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lending offers: %w", err)
	}
	return out, nil
}
