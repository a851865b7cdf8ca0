package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gensosanso/financecorner/internal/domain"
	"github.com/gensosanso/financecorner/internal/infrastructure/database"
)

// memLedger backs the service tests with in-memory implementations of the
// store interfaces. Begin takes a global lock and snapshots all state, so
// Commit/Rollback give the same all-or-nothing behavior the SQL stores get
// from Postgres transactions.
type memLedger struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	wallets   map[string]domain.Wallet
	txns      map[string]domain.Transaction
	offers    map[string]domain.LendingOffer
	contracts map[string]domain.LendingContract
	profiles  map[string]domain.Profile
}

func newMemLedger() *memLedger {
	return &memLedger{
		state: memState{
			wallets:   make(map[string]domain.Wallet),
			txns:      make(map[string]domain.Transaction),
			offers:    make(map[string]domain.LendingOffer),
			contracts: make(map[string]domain.LendingContract),
			profiles:  make(map[string]domain.Profile),
		},
	}
}

func (s memState) clone() memState {
	c := memState{
		wallets:   make(map[string]domain.Wallet, len(s.wallets)),
		txns:      make(map[string]domain.Transaction, len(s.txns)),
		offers:    make(map[string]domain.LendingOffer, len(s.offers)),
		contracts: make(map[string]domain.LendingContract, len(s.contracts)),
		profiles:  make(map[string]domain.Profile, len(s.profiles)),
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.txns {
		c.txns[k] = v
	}
	for k, v := range s.offers {
		c.offers[k] = v
	}
	for k, v := range s.contracts {
		c.contracts[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	return c
}

type memTx struct {
	store    *memLedger
	snapshot memState
	done     bool
}

func (m *memLedger) Begin(ctx context.Context) (database.Tx, error) {
	m.mu.Lock()
	return &memTx{store: m, snapshot: m.state.clone()}, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.store.state = t.snapshot
	t.done = true
	t.store.mu.Unlock()
	return nil
}

// ---- fixture helpers ----

func (m *memLedger) addProfile(email string, isAdmin bool) string {
	id := uuid.New().String()
	m.state.profiles[id] = domain.Profile{
		ID:        id,
		Email:     email,
		IsAdmin:   isAdmin,
		CreatedAt: time.Now().UTC(),
	}
	return id
}

func (m *memLedger) addWallet(userID string, balanceCents int64) {
	now := time.Now().UTC()
	m.state.wallets[userID] = domain.Wallet{
		ID:           uuid.New().String(),
		UserID:       userID,
		BalanceCents: balanceCents,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (m *memLedger) balance(userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.wallets[userID].BalanceCents
}

// ---- IWalletRepository ----

type memWalletRepo struct{ s *memLedger }

func (r memWalletRepo) EnsureWallet(ctx context.Context, tx database.Tx, userID string) error {
	if _, ok := r.s.state.wallets[userID]; !ok {
		now := time.Now().UTC()
		r.s.state.wallets[userID] = domain.Wallet{
			ID:           uuid.New().String(),
			UserID:       userID,
			BalanceCents: 0,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}
	return nil
}

func (r memWalletRepo) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if w, ok := r.s.state.wallets[userID]; ok {
		return &w, nil
	}
	return nil, nil
}

func (r memWalletRepo) GetWalletForUpdate(ctx context.Context, tx database.Tx, userID string) (*domain.Wallet, error) {
	if w, ok := r.s.state.wallets[userID]; ok {
		return &w, nil
	}
	return nil, nil
}

func (r memWalletRepo) ApplyDelta(ctx context.Context, tx database.Tx, userID string, deltaCents int64) (int64, error) {
	w, ok := r.s.state.wallets[userID]
	if !ok {
		return 0, domain.ErrUnknownAccount
	}
	if w.BalanceCents+deltaCents < 0 {
		return 0, domain.ErrInsufficientFunds
	}
	w.BalanceCents += deltaCents
	w.UpdatedAt = time.Now().UTC()
	r.s.state.wallets[userID] = w
	return w.BalanceCents, nil
}

// ---- ITransactionRepository ----

type memTxnRepo struct{ s *memLedger }

func (r memTxnRepo) Append(ctx context.Context, tx database.Tx, t *domain.Transaction) error {
	r.s.state.txns[t.ID] = *t
	return nil
}

func (r memTxnRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.state.txns[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r memTxnRepo) GetByIDForUpdate(ctx context.Context, tx database.Tx, id string) (*domain.Transaction, error) {
	if t, ok := r.s.state.txns[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r memTxnRepo) SetStatus(ctx context.Context, tx database.Tx, id string, status domain.TransactionStatus, metadata json.RawMessage) error {
	t, ok := r.s.state.txns[id]
	if !ok || t.Status != domain.StatusPending {
		return domain.ErrInvalidState
	}
	t.Status = status
	if metadata != nil {
		t.Metadata = metadata
	}
	t.UpdatedAt = time.Now().UTC()
	r.s.state.txns[id] = t
	return nil
}

func (r memTxnRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Transaction
	for _, t := range r.s.state.txns {
		if t.UserID == userID || t.CounterpartyID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return pageTxns(out, limit, offset), nil
}

// ListByStatus pages oldest first, matching the moderation queue order of
// the SQL store.
func (r memTxnRepo) ListByStatus(ctx context.Context, status domain.TransactionStatus, limit, offset int) ([]domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Transaction
	for _, t := range r.s.state.txns {
		if t.Status == status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return pageTxns(out, limit, offset), nil
}

func pageTxns(in []domain.Transaction, limit, offset int) []domain.Transaction {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

// ---- ILendingRepository ----

type memLendingRepo struct{ s *memLedger }

func (r memLendingRepo) CreateOffer(ctx context.Context, tx database.Tx, o *domain.LendingOffer) error {
	r.s.state.offers[o.ID] = *o
	return nil
}

func (r memLendingRepo) GetOffer(ctx context.Context, offerID string) (*domain.LendingOffer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.state.offers[offerID]; ok {
		return &o, nil
	}
	return nil, nil
}

func (r memLendingRepo) MatchOffer(ctx context.Context, tx database.Tx, offerID string) (*domain.LendingOffer, error) {
	o, ok := r.s.state.offers[offerID]
	if !ok || o.Status != domain.OfferStatusActive {
		return nil, domain.ErrOfferUnavailable
	}
	o.Status = domain.OfferStatusTaken
	o.UpdatedAt = time.Now().UTC()
	r.s.state.offers[offerID] = o
	return &o, nil
}

func (r memLendingRepo) CancelOffer(ctx context.Context, tx database.Tx, offerID, lenderID string) (*domain.LendingOffer, error) {
	o, ok := r.s.state.offers[offerID]
	if !ok || o.Status != domain.OfferStatusActive || o.LenderID != lenderID {
		return nil, domain.ErrOfferUnavailable
	}
	o.Status = domain.OfferStatusCancelled
	o.UpdatedAt = time.Now().UTC()
	r.s.state.offers[offerID] = o
	return &o, nil
}

func (r memLendingRepo) CreateContract(ctx context.Context, tx database.Tx, c *domain.LendingContract) error {
	r.s.state.contracts[c.ID] = *c
	return nil
}

func (r memLendingRepo) GetContract(ctx context.Context, contractID string) (*domain.LendingContract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.state.contracts[contractID]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r memLendingRepo) SetContractStatus(ctx context.Context, tx database.Tx, contractID string, from, to domain.ContractStatus) error {
	c, ok := r.s.state.contracts[contractID]
	if !ok || c.Status != from {
		return domain.ErrInvalidState
	}
	c.Status = to
	c.UpdatedAt = time.Now().UTC()
	r.s.state.contracts[contractID] = c
	return nil
}

func (r memLendingRepo) ListOffersByStatus(ctx context.Context, status domain.OfferStatus, limit, offset int) ([]domain.LendingOffer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.LendingOffer
	for _, o := range r.s.state.offers {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r memLendingRepo) ListOffersByLender(ctx context.Context, lenderID string) ([]domain.LendingOffer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.LendingOffer
	for _, o := range r.s.state.offers {
		if o.LenderID == lenderID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r memLendingRepo) ListContractsByBorrower(ctx context.Context, borrowerID string) ([]domain.LendingContract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.LendingContract
	for _, c := range r.s.state.contracts {
		if c.BorrowerID == borrowerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memLendingRepo) ListContractsByLender(ctx context.Context, lenderID string) ([]domain.LendingContract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.LendingContract
	for _, c := range r.s.state.contracts {
		if c.LenderID == lenderID {
			out = append(out, c)
		}
	}
	return out, nil
}

// ---- IProfileRepository ----

type memProfileRepo struct{ s *memLedger }

func (r memProfileRepo) GetByID(ctx context.Context, userID string) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.state.profiles[userID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r memProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.state.profiles {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, nil
}
