package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gensosanso/financecorner/internal/domain"
	"github.com/gensosanso/financecorner/internal/infrastructure/database"
	"github.com/gensosanso/financecorner/internal/repositories/lendingrepo"
	"github.com/gensosanso/financecorner/internal/repositories/profilerepo"
	"github.com/gensosanso/financecorner/internal/repositories/txnrepo"
	"github.com/gensosanso/financecorner/internal/repositories/walletrepo"
	"github.com/gensosanso/financecorner/pkg/config"
)

type LedgerService struct {
	db       database.TxBeginner
	wallets  walletrepo.IWalletRepository
	txns     txnrepo.ITransactionRepository
	lending  lendingrepo.ILendingRepository
	profiles profilerepo.IProfileRepository
	notifier Notifier
	cfg      config.LedgerConfig
	logger   zerolog.Logger
}

func New(
	db database.TxBeginner,
	wallets walletrepo.IWalletRepository,
	txns txnrepo.ITransactionRepository,
	lending lendingrepo.ILendingRepository,
	profiles profilerepo.IProfileRepository,
	notifier Notifier,
	cfg config.LedgerConfig,
	logger zerolog.Logger,
) ILedgerService {
	return &LedgerService{
		db:       db,
		wallets:  wallets,
		txns:     txns,
		lending:  lending,
		profiles: profiles,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Deposit records a pending deposit. The wallet balance is untouched until
// an administrator approves the transaction.
func (s *LedgerService) Deposit(ctx context.Context, userID string, amountCents int64, method string) (*domain.Transaction, error) {
	txn, err := domain.NewDeposit(userID, amountCents, method)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback()

	if err := s.wallets.EnsureWallet(ctx, tx, userID); err != nil {
		return nil, err
	}
	if err := s.txns.Append(ctx, tx, txn); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}

	s.logger.Info().Str("transaction_id", txn.ID).Str("user_id", userID).Int64("amount_cents", amountCents).Msg("Deposit recorded")
	s.notifyTransaction(ctx, txn)
	return txn, nil
}

// Withdraw records a pending withdrawal after checking the current balance
// under lock. Funds leave the wallet only on approval.
func (s *LedgerService) Withdraw(ctx context.Context, userID string, amountCents int64, method string) (*domain.Transaction, error) {
	txn, err := domain.NewWithdrawal(userID, amountCents, method)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback()

	wallet, err := s.wallets.GetWalletForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, domain.ErrUnknownAccount
	}
	if wallet.BalanceCents < amountCents {
		return nil, domain.ErrInsufficientFunds
	}

	if err := s.txns.Append(ctx, tx, txn); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}

	s.logger.Info().Str("transaction_id", txn.ID).Str("user_id", userID).Int64("amount_cents", amountCents).Msg("Withdrawal recorded")
	s.notifyTransaction(ctx, txn)
	return txn, nil
}

// Moderate resolves a pending deposit or withdrawal. The status flip and the
// balance delta commit together or not at all, so retrying an approve on an
// already-settled transaction fails with ErrInvalidState instead of paying twice.
func (s *LedgerService) Moderate(ctx context.Context, adminID, transactionID string, decision domain.Decision) (*domain.Transaction, error) {
	if decision != domain.DecisionApprove && decision != domain.DecisionReject {
		return nil, domain.ErrInvalidState
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback()

	txn, err := s.txns.GetByIDForUpdate(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn == nil || txn.Status != domain.StatusPending {
		return nil, domain.ErrInvalidState
	}

	record, err := domain.ModerationRecord{
		AdminID:   adminID,
		Decision:  decision,
		DecidedAt: time.Now().UTC(),
	}.Encode()
	if err != nil {
		return nil, err
	}

	var newBalance int64
	if decision == domain.DecisionApprove {
		if err := s.txns.SetStatus(ctx, tx, txn.ID, domain.StatusCompleted, record); err != nil {
			return nil, err
		}
		newBalance, err = s.wallets.ApplyDelta(ctx, tx, txn.UserID, txn.BalanceDelta())
		if err != nil {
			return nil, err
		}
		txn.Status = domain.StatusCompleted
	} else {
		if err := s.txns.SetStatus(ctx, tx, txn.ID, domain.StatusRejected, record); err != nil {
			return nil, err
		}
		txn.Status = domain.StatusRejected
	}
	txn.Metadata = record
	txn.UpdatedAt = time.Now().UTC()

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}

	s.logger.Info().
		Str("transaction_id", txn.ID).
		Str("admin_id", adminID).
		Str("decision", string(decision)).
		Msg("Transaction moderated")
	s.notifyTransaction(ctx, txn)
	if txn.Status == domain.StatusCompleted {
		s.notifyWallet(ctx, txn.UserID, newBalance)
	}
	return txn, nil
}

// Transfer moves funds between two wallets in one atomic unit, recording a
// completed transaction alongside. Wallet rows are locked in ascending user
// order so concurrent transfers cannot deadlock.
func (s *LedgerService) Transfer(ctx context.Context, senderID, recipientEmail string, amountCents int64) (*domain.Transaction, error) {
	if amountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	recipient, err := s.profiles.GetByEmail(ctx, recipientEmail)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, domain.ErrRecipientNotFound
	}
	if recipient.ID == senderID && !s.cfg.AllowSelfTransfer {
		return nil, domain.ErrSelfDeal
	}

	txn, err := domain.NewTransfer(senderID, recipient.ID, amountCents)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback()

	if err := s.wallets.EnsureWallet(ctx, tx, recipient.ID); err != nil {
		return nil, err
	}

	first, second := senderID, recipient.ID
	if first > second {
		first, second = second, first
	}
	var sender *domain.Wallet
	for _, id := range []string{first, second} {
		w, err := s.wallets.GetWalletForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if w == nil && id == senderID {
			return nil, domain.ErrUnknownAccount
		}
		if id == senderID {
			sender = w
		}
	}
	if sender.BalanceCents < amountCents {
		return nil, domain.ErrInsufficientFunds
	}

	if err := s.txns.Append(ctx, tx, txn); err != nil {
		return nil, err
	}
	senderBalance, err := s.wallets.ApplyDelta(ctx, tx, senderID, -amountCents)
	if err != nil {
		return nil, err
	}
	recipientBalance, err := s.wallets.ApplyDelta(ctx, tx, recipient.ID, amountCents)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}

	s.logger.Info().
		Str("transaction_id", txn.ID).
		Str("sender_id", senderID).
		Str("recipient_id", recipient.ID).
		Int64("amount_cents", amountCents).
		Msg("Transfer completed")
	s.notifyTransaction(ctx, txn)
	s.notifyWallet(ctx, senderID, senderBalance)
	s.notifyWallet(ctx, recipient.ID, recipientBalance)
	return txn, nil
}

// CreateLendingOffer escrows the offered amount by debiting the lender's
// wallet in the same atomic unit that records the offer.
func (s *LedgerService) CreateLendingOffer(ctx context.Context, lenderID string, amountCents int64, interestRate float64, durationDays int) (*domain.LendingOffer, error) {
	offer, err := domain.NewLendingOffer(lenderID, amountCents, interestRate, durationDays)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback()

	wallet, err := s.wallets.GetWalletForUpdate(ctx, tx, lenderID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, domain.ErrUnknownAccount
	}
	if wallet.BalanceCents < amountCents {
		return nil, domain.ErrInsufficientFunds
	}

	newBalance, err := s.wallets.ApplyDelta(ctx, tx, lenderID, -amountCents)
	if err != nil {
		return nil, err
	}
	if err := s.lending.CreateOffer(ctx, tx, offer); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}

	s.logger.Info().Str("offer_id", offer.ID).Str("lender_id", lenderID).Int64("amount_cents", amountCents).Msg("Lending offer created")
	s.notifyOffer(ctx, offer)
	s.notifyWallet(ctx, lenderID, newBalance)
	return offer, nil
}

// CancelLendingOffer refunds the escrowed amount to the lender. The CAS on
// the offer status keeps cancel from racing a concurrent acceptance.
func (s *LedgerService) CancelLendingOffer(ctx context.Context, lenderID, offerID string) (*domain.LendingOffer, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback()

	offer, err := s.lending.CancelOffer(ctx, tx, offerID, lenderID)
	if err != nil {
		return nil, err
	}
	newBalance, err := s.wallets.ApplyDelta(ctx, tx, lenderID, offer.AmountCents)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}

	s.logger.Info().Str("offer_id", offer.ID).Str("lender_id", lenderID).Msg("Lending offer cancelled")
	s.notifyOffer(ctx, offer)
	s.notifyWallet(ctx, lenderID, newBalance)
	return offer, nil
}

// AcceptLendingOffer flips the offer to taken, creates the contract with the
// offer terms snapshotted, and credits the borrower, all in one atomic unit.
// Concurrent acceptances of one offer produce exactly one contract.
func (s *LedgerService) AcceptLendingOffer(ctx context.Context, borrowerID, offerID string) (*domain.LendingContract, error) {
	offer, err := s.lending.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, domain.ErrOfferUnavailable
	}
	if offer.LenderID == borrowerID {
		return nil, domain.ErrSelfDeal
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback()

	offer, err = s.lending.MatchOffer(ctx, tx, offerID)
	if err != nil {
		return nil, err
	}

	contract := domain.NewLendingContract(offer, borrowerID, time.Now())
	if err := s.lending.CreateContract(ctx, tx, contract); err != nil {
		return nil, err
	}
	if err := s.wallets.EnsureWallet(ctx, tx, borrowerID); err != nil {
		return nil, err
	}
	newBalance, err := s.wallets.ApplyDelta(ctx, tx, borrowerID, offer.AmountCents)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}

	s.logger.Info().
		Str("contract_id", contract.ID).
		Str("offer_id", offerID).
		Str("borrower_id", borrowerID).
		Msg("Lending offer accepted")
	s.notifyOffer(ctx, offer)
	s.notifyContract(ctx, contract)
	s.notifyWallet(ctx, borrowerID, newBalance)
	return contract, nil
}

// RepayContract settles an active contract: the borrower pays principal plus
// simple interest, the lender is credited, and the contract becomes terminal.
func (s *LedgerService) RepayContract(ctx context.Context, borrowerID, contractID string) (*domain.LendingContract, error) {
	contract, err := s.lending.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil || contract.BorrowerID != borrowerID || contract.Status != domain.ContractStatusActive {
		return nil, domain.ErrInvalidState
	}
	repayment := contract.RepaymentCents()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback()

	if err := s.lending.SetContractStatus(ctx, tx, contractID, domain.ContractStatusActive, domain.ContractStatusRepaid); err != nil {
		return nil, err
	}
	if err := s.wallets.EnsureWallet(ctx, tx, contract.LenderID); err != nil {
		return nil, err
	}

	first, second := borrowerID, contract.LenderID
	if first > second {
		first, second = second, first
	}
	var borrower *domain.Wallet
	for _, id := range []string{first, second} {
		w, err := s.wallets.GetWalletForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if w == nil && id == borrowerID {
			return nil, domain.ErrUnknownAccount
		}
		if id == borrowerID {
			borrower = w
		}
	}
	if borrower.BalanceCents < repayment {
		return nil, domain.ErrInsufficientFunds
	}

	borrowerBalance, err := s.wallets.ApplyDelta(ctx, tx, borrowerID, -repayment)
	if err != nil {
		return nil, err
	}
	lenderBalance, err := s.wallets.ApplyDelta(ctx, tx, contract.LenderID, repayment)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}

	contract.Status = domain.ContractStatusRepaid
	contract.UpdatedAt = time.Now().UTC()

	s.logger.Info().
		Str("contract_id", contractID).
		Str("borrower_id", borrowerID).
		Int64("repayment_cents", repayment).
		Msg("Lending contract repaid")
	s.notifyContract(ctx, contract)
	s.notifyWallet(ctx, borrowerID, borrowerBalance)
	s.notifyWallet(ctx, contract.LenderID, lenderBalance)
	return contract, nil
}

// MarkDefaulted flags an active contract whose term has elapsed without
// repayment. No balances move; the loss stays with the lender.
func (s *LedgerService) MarkDefaulted(ctx context.Context, adminID, contractID string) (*domain.LendingContract, error) {
	contract, err := s.lending.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil || contract.Status != domain.ContractStatusActive {
		return nil, domain.ErrInvalidState
	}
	if time.Now().Before(contract.EndDate) {
		return nil, domain.ErrInvalidState
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback()

	if err := s.lending.SetContractStatus(ctx, tx, contractID, domain.ContractStatusActive, domain.ContractStatusDefaulted); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}

	contract.Status = domain.ContractStatusDefaulted
	contract.UpdatedAt = time.Now().UTC()

	s.logger.Warn().Str("contract_id", contractID).Str("admin_id", adminID).Msg("Lending contract defaulted")
	s.notifyContract(ctx, contract)
	return contract, nil
}

func (s *LedgerService) GetBalance(ctx context.Context, userID string) (int64, error) {
	wallet, err := s.wallets.GetWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	if wallet == nil {
		return 0, domain.ErrUnknownAccount
	}
	return wallet.BalanceCents, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	return s.txns.ListByUser(ctx, userID, s.clampLimit(limit), offset)
}

func (s *LedgerService) ListPendingTransactions(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	return s.txns.ListByStatus(ctx, domain.StatusPending, s.clampLimit(limit), offset)
}

func (s *LedgerService) ListOpenOffers(ctx context.Context, limit, offset int) ([]domain.LendingOffer, error) {
	return s.lending.ListOffersByStatus(ctx, domain.OfferStatusActive, s.clampLimit(limit), offset)
}

func (s *LedgerService) ListOffersByLender(ctx context.Context, lenderID string) ([]domain.LendingOffer, error) {
	return s.lending.ListOffersByLender(ctx, lenderID)
}

func (s *LedgerService) ListContractsByBorrower(ctx context.Context, borrowerID string) ([]domain.LendingContract, error) {
	return s.lending.ListContractsByBorrower(ctx, borrowerID)
}

func (s *LedgerService) ListContractsByLender(ctx context.Context, lenderID string) ([]domain.LendingContract, error) {
	return s.lending.ListContractsByLender(ctx, lenderID)
}

func (s *LedgerService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		return s.cfg.MaxPageSize
	}
	return limit
}

func (s *LedgerService) notifyTransaction(ctx context.Context, t *domain.Transaction) {
	if s.notifier != nil {
		s.notifier.TransactionChanged(ctx, t)
	}
}

func (s *LedgerService) notifyWallet(ctx context.Context, userID string, balanceCents int64) {
	if s.notifier != nil {
		s.notifier.WalletChanged(ctx, userID, balanceCents)
	}
}

func (s *LedgerService) notifyOffer(ctx context.Context, o *domain.LendingOffer) {
	if s.notifier != nil {
		s.notifier.OfferChanged(ctx, o)
	}
}

func (s *LedgerService) notifyContract(ctx context.Context, c *domain.LendingContract) {
	if s.notifier != nil {
		s.notifier.ContractChanged(ctx, c)
	}
}
