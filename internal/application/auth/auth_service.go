package authservice

import (
	"context"

	"github.com/google/uuid"

	"github.com/gensosanso/financecorner/internal/domain"
)

type IAuthService interface {
	VerifyToken(ctx context.Context, tokenString string) (*domain.Claim, error)
	GenerateToken(ctx context.Context, userID uuid.UUID, isAdmin bool) (string, error)
}
