package profilerepo

import (
	"context"

	"github.com/gensosanso/financecorner/internal/domain"
)

type IProfileRepository interface {
	GetByID(ctx context.Context, userID string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
}
