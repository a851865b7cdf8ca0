package lendingrepo

import (
	"context"

	"github.com/gensosanso/financecorner/internal/domain"
	"github.com/gensosanso/financecorner/internal/infrastructure/database"
)

// ILendingRepository is the Lending Registry. MatchOffer and CancelOffer are
// atomic compare-and-set transitions on the offer status, so two concurrent
// acceptances of one offer resolve with exactly one winner.
type ILendingRepository interface {
	CreateOffer(ctx context.Context, tx database.Tx, o *domain.LendingOffer) error
	GetOffer(ctx context.Context, offerID string) (*domain.LendingOffer, error)
	MatchOffer(ctx context.Context, tx database.Tx, offerID string) (*domain.LendingOffer, error)
	CancelOffer(ctx context.Context, tx database.Tx, offerID, lenderID string) (*domain.LendingOffer, error)
	CreateContract(ctx context.Context, tx database.Tx, c *domain.LendingContract) error
	GetContract(ctx context.Context, contractID string) (*domain.LendingContract, error)
	SetContractStatus(ctx context.Context, tx database.Tx, contractID string, from, to domain.ContractStatus) error
	ListOffersByStatus(ctx context.Context, status domain.OfferStatus, limit, offset int) ([]domain.LendingOffer, error)
	ListOffersByLender(ctx context.Context, lenderID string) ([]domain.LendingOffer, error)
	ListContractsByBorrower(ctx context.Context, borrowerID string) ([]domain.LendingContract, error)
	ListContractsByLender(ctx context.Context, lenderID string) ([]domain.LendingContract, error)
}
