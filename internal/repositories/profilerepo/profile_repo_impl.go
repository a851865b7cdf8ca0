package profilerepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gensosanso/financecorner/internal/domain"
	"github.com/gensosanso/financecorner/internal/infrastructure/database"
)

type ProfileRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) IProfileRepository {
	return &ProfileRepository{
		db:     db.Db,
		logger: logger,
	}
}

func (r *ProfileRepository) GetByID(ctx context.Context, userID string) (*domain.Profile, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id format: %w", err)
	}
	return r.get(ctx, `SELECT id, email, full_name, is_admin, created_at FROM profiles WHERE id = $1`, id)
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.get(ctx, `SELECT id, email, full_name, is_admin, created_at FROM profiles WHERE email = $1`, email)
}

func (r *ProfileRepository) get(ctx context.Context, query string, arg interface{}) (*domain.Profile, error) {
	var p domain.Profile
	var id uuid.UUID
	var fullName sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(&id, &p.Email, &fullName, &p.IsAdmin, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("Failed to get profile")
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.ID = id.String()
	p.FullName = fullName.String
	return &p, nil
}
