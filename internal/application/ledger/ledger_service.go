package ledger

import (
	"context"

	"github.com/gensosanso/financecorner/internal/domain"
)

// ILedgerService owns every balance-affecting operation. No caller mutates
// wallet balances outside this interface.
type ILedgerService interface {
	Deposit(ctx context.Context, userID string, amountCents int64, method string) (*domain.Transaction, error)
	Withdraw(ctx context.Context, userID string, amountCents int64, method string) (*domain.Transaction, error)
	Moderate(ctx context.Context, adminID, transactionID string, decision domain.Decision) (*domain.Transaction, error)
	Transfer(ctx context.Context, senderID, recipientEmail string, amountCents int64) (*domain.Transaction, error)

	CreateLendingOffer(ctx context.Context, lenderID string, amountCents int64, interestRate float64, durationDays int) (*domain.LendingOffer, error)
	CancelLendingOffer(ctx context.Context, lenderID, offerID string) (*domain.LendingOffer, error)
	AcceptLendingOffer(ctx context.Context, borrowerID, offerID string) (*domain.LendingContract, error)
	RepayContract(ctx context.Context, borrowerID, contractID string) (*domain.LendingContract, error)
	MarkDefaulted(ctx context.Context, adminID, contractID string) (*domain.LendingContract, error)

	GetBalance(ctx context.Context, userID string) (int64, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error)
	ListPendingTransactions(ctx context.Context, limit, offset int) ([]domain.Transaction, error)
	ListOpenOffers(ctx context.Context, limit, offset int) ([]domain.LendingOffer, error)
	ListOffersByLender(ctx context.Context, lenderID string) ([]domain.LendingOffer, error)
	ListContractsByBorrower(ctx context.Context, borrowerID string) ([]domain.LendingContract, error)
	ListContractsByLender(ctx context.Context, lenderID string) ([]domain.LendingContract, error)
}

// Notifier receives row-level change events after a workflow commits. It is
// best-effort: delivery failures never affect the ledger result.
type Notifier interface {
	TransactionChanged(ctx context.Context, t *domain.Transaction)
	WalletChanged(ctx context.Context, userID string, balanceCents int64)
	OfferChanged(ctx context.Context, o *domain.LendingOffer)
	ContractChanged(ctx context.Context, c *domain.LendingContract)
}
