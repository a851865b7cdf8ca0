package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gensosanso/financecorner/internal/domain"
	"github.com/gensosanso/financecorner/internal/server/middleware"
	"github.com/gensosanso/financecorner/internal/server/websocket"
	"github.com/gensosanso/financecorner/pkg/config"
)

// ---- mock implementations ----

type mockLedgerService struct {
	depositFn      func(ctx context.Context, userID string, amountCents int64, method string) (*domain.Transaction, error)
	withdrawFn     func(ctx context.Context, userID string, amountCents int64, method string) (*domain.Transaction, error)
	moderateFn     func(ctx context.Context, adminID, transactionID string, decision domain.Decision) (*domain.Transaction, error)
	transferFn     func(ctx context.Context, senderID, recipientEmail string, amountCents int64) (*domain.Transaction, error)
	createOfferFn  func(ctx context.Context, lenderID string, amountCents int64, interestRate float64, durationDays int) (*domain.LendingOffer, error)
	cancelOfferFn  func(ctx context.Context, lenderID, offerID string) (*domain.LendingOffer, error)
	acceptOfferFn  func(ctx context.Context, borrowerID, offerID string) (*domain.LendingContract, error)
	repayFn        func(ctx context.Context, borrowerID, contractID string) (*domain.LendingContract, error)
	defaultFn      func(ctx context.Context, adminID, contractID string) (*domain.LendingContract, error)
	getBalanceFn   func(ctx context.Context, userID string) (int64, error)
	listTxnsFn     func(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error)
	listPendingFn  func(ctx context.Context, limit, offset int) ([]domain.Transaction, error)
	listOffersFn   func(ctx context.Context, limit, offset int) ([]domain.LendingOffer, error)
	listByLenderFn func(ctx context.Context, lenderID string) ([]domain.LendingOffer, error)
	listBorrowedFn func(ctx context.Context, borrowerID string) ([]domain.LendingContract, error)
	listLentFn     func(ctx context.Context, lenderID string) ([]domain.LendingContract, error)
}

func (m *mockLedgerService) Deposit(ctx context.Context, userID string, amountCents int64, method string) (*domain.Transaction, error) {
	if m.depositFn != nil {
		return m.depositFn(ctx, userID, amountCents, method)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) Withdraw(ctx context.Context, userID string, amountCents int64, method string) (*domain.Transaction, error) {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID, amountCents, method)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) Moderate(ctx context.Context, adminID, transactionID string, decision domain.Decision) (*domain.Transaction, error) {
	if m.moderateFn != nil {
		return m.moderateFn(ctx, adminID, transactionID, decision)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) Transfer(ctx context.Context, senderID, recipientEmail string, amountCents int64) (*domain.Transaction, error) {
	if m.transferFn != nil {
		return m.transferFn(ctx, senderID, recipientEmail, amountCents)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) CreateLendingOffer(ctx context.Context, lenderID string, amountCents int64, interestRate float64, durationDays int) (*domain.LendingOffer, error) {
	if m.createOfferFn != nil {
		return m.createOfferFn(ctx, lenderID, amountCents, interestRate, durationDays)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) CancelLendingOffer(ctx context.Context, lenderID, offerID string) (*domain.LendingOffer, error) {
	if m.cancelOfferFn != nil {
		return m.cancelOfferFn(ctx, lenderID, offerID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) AcceptLendingOffer(ctx context.Context, borrowerID, offerID string) (*domain.LendingContract, error) {
	if m.acceptOfferFn != nil {
		return m.acceptOfferFn(ctx, borrowerID, offerID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) RepayContract(ctx context.Context, borrowerID, contractID string) (*domain.LendingContract, error) {
	if m.repayFn != nil {
		return m.repayFn(ctx, borrowerID, contractID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) MarkDefaulted(ctx context.Context, adminID, contractID string) (*domain.LendingContract, error) {
	if m.defaultFn != nil {
		return m.defaultFn(ctx, adminID, contractID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) GetBalance(ctx context.Context, userID string) (int64, error) {
	if m.getBalanceFn != nil {
		return m.getBalanceFn(ctx, userID)
	}
	return 0, fmt.Errorf("not configured")
}

func (m *mockLedgerService) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	if m.listTxnsFn != nil {
		return m.listTxnsFn(ctx, userID, limit, offset)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) ListPendingTransactions(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	if m.listPendingFn != nil {
		return m.listPendingFn(ctx, limit, offset)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) ListOpenOffers(ctx context.Context, limit, offset int) ([]domain.LendingOffer, error) {
	if m.listOffersFn != nil {
		return m.listOffersFn(ctx, limit, offset)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) ListOffersByLender(ctx context.Context, lenderID string) ([]domain.LendingOffer, error) {
	if m.listByLenderFn != nil {
		return m.listByLenderFn(ctx, lenderID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) ListContractsByBorrower(ctx context.Context, borrowerID string) ([]domain.LendingContract, error) {
	if m.listBorrowedFn != nil {
		return m.listBorrowedFn(ctx, borrowerID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockLedgerService) ListContractsByLender(ctx context.Context, lenderID string) ([]domain.LendingContract, error) {
	if m.listLentFn != nil {
		return m.listLentFn(ctx, lenderID)
	}
	return nil, fmt.Errorf("not configured")
}

// mockAuthService resolves fixed bearer tokens to fixed identities so the
// real auth middleware runs in handler tests.
type mockAuthService struct{}

var (
	testUserID  = uuid.New()
	testAdminID = uuid.New()
)

func (m *mockAuthService) VerifyToken(ctx context.Context, tokenString string) (*domain.Claim, error) {
	switch tokenString {
	case "user-token":
		return &domain.Claim{UserID: testUserID, IsAdmin: false}, nil
	case "admin-token":
		return &domain.Claim{UserID: testAdminID, IsAdmin: true}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func (m *mockAuthService) GenerateToken(ctx context.Context, userID uuid.UUID, isAdmin bool) (string, error) {
	return "user-token", nil
}

// ---- helpers ----

func newTestRouter(svc *mockLedgerService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	cfg := &config.Config{}
	logger := zerolog.Nop()
	mw := middleware.NewMiddleware(&mockAuthService{}, logger)

	h := New(svc, logger, cfg, websocket.NewWsHub(logger))
	h.SetupHandlers(router, mw)
	return router
}

func doRequest(router *gin.Engine, method, url, token string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, url, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- tests ----

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(&mockLedgerService{})

	for _, path := range []string{"/health", "/ready"} {
		w := doRequest(router, http.MethodGet, path, "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, w.Code)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(&mockLedgerService{})

	w := doRequest(router, http.MethodGet, "/v1/wallet", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/v1/wallet", "bogus", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", w.Code)
	}
}

func TestGetWallet(t *testing.T) {
	svc := &mockLedgerService{
		getBalanceFn: func(ctx context.Context, userID string) (int64, error) {
			if userID != testUserID.String() {
				t.Fatalf("wrong user id: %s", userID)
			}
			return 12_345, nil
		},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodGet, "/v1/wallet", "user-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp domain.ApiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	data := resp.Data.(map[string]interface{})
	if data["balance_cents"].(float64) != 12_345 {
		t.Fatalf("balance_cents = %v, want 12345", data["balance_cents"])
	}
	if data["display"] != "$123.45" {
		t.Fatalf("display = %v, want $123.45", data["display"])
	}
}

func TestGetWalletUnknownAccount(t *testing.T) {
	svc := &mockLedgerService{
		getBalanceFn: func(ctx context.Context, userID string) (int64, error) {
			return 0, domain.ErrUnknownAccount
		},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodGet, "/v1/wallet", "user-token", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCreateDeposit(t *testing.T) {
	var gotCents int64
	svc := &mockLedgerService{
		depositFn: func(ctx context.Context, userID string, amountCents int64, method string) (*domain.Transaction, error) {
			gotCents = amountCents
			return &domain.Transaction{
				ID:          uuid.New().String(),
				Kind:        domain.KindDeposit,
				UserID:      userID,
				AmountCents: amountCents,
				Method:      method,
				Status:      domain.StatusPending,
				CreatedAt:   time.Now(),
			}, nil
		},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodPost, "/v1/deposits", "user-token", map[string]interface{}{
		"amount": 125.50,
		"method": "bank_transfer",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if gotCents != 12_550 {
		t.Fatalf("amount converted to %d cents, want 12550", gotCents)
	}
}

func TestCreateDepositValidation(t *testing.T) {
	router := newTestRouter(&mockLedgerService{})

	cases := []map[string]interface{}{
		{"method": "card"},                     // amount missing
		{"amount": -10.0, "method": "card"},    // negative
		{"amount": 0.0, "method": "card"},      // zero
		{"amount": 10.0},                       // method missing
	}
	for i, body := range cases {
		w := doRequest(router, http.MethodPost, "/v1/deposits", "user-token", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("case %d status = %d, want 400", i, w.Code)
		}
	}
}

func TestCreateWithdrawalInsufficientFunds(t *testing.T) {
	svc := &mockLedgerService{
		withdrawFn: func(ctx context.Context, userID string, amountCents int64, method string) (*domain.Transaction, error) {
			return nil, domain.ErrInsufficientFunds
		},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodPost, "/v1/withdrawals", "user-token", map[string]interface{}{
		"amount": 100.0,
		"method": "bank_transfer",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestCreateTransfer(t *testing.T) {
	svc := &mockLedgerService{
		transferFn: func(ctx context.Context, senderID, recipientEmail string, amountCents int64) (*domain.Transaction, error) {
			if recipientEmail != "bob@example.com" {
				t.Fatalf("recipient = %s", recipientEmail)
			}
			return &domain.Transaction{
				ID:          uuid.New().String(),
				Kind:        domain.KindTransfer,
				UserID:      senderID,
				AmountCents: amountCents,
				Status:      domain.StatusCompleted,
			}, nil
		},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodPost, "/v1/transfers", "user-token", map[string]interface{}{
		"recipient_email": "bob@example.com",
		"amount":          25.0,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
}

func TestCreateTransferRecipientNotFound(t *testing.T) {
	svc := &mockLedgerService{
		transferFn: func(ctx context.Context, senderID, recipientEmail string, amountCents int64) (*domain.Transaction, error) {
			return nil, domain.ErrRecipientNotFound
		},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodPost, "/v1/transfers", "user-token", map[string]interface{}{
		"recipient_email": "ghost@example.com",
		"amount":          25.0,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestAcceptOfferConflict(t *testing.T) {
	svc := &mockLedgerService{
		acceptOfferFn: func(ctx context.Context, borrowerID, offerID string) (*domain.LendingContract, error) {
			return nil, domain.ErrOfferUnavailable
		},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodPost, "/v1/lending/offers/some-offer/accept", "user-token", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestAcceptOwnOfferRejected(t *testing.T) {
	svc := &mockLedgerService{
		acceptOfferFn: func(ctx context.Context, borrowerID, offerID string) (*domain.LendingContract, error) {
			return nil, domain.ErrSelfDeal
		},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodPost, "/v1/lending/offers/some-offer/accept", "user-token", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListContracts(t *testing.T) {
	svc := &mockLedgerService{
		listBorrowedFn: func(ctx context.Context, borrowerID string) ([]domain.LendingContract, error) {
			return []domain.LendingContract{{ID: "c1", BorrowerID: borrowerID}}, nil
		},
		listLentFn: func(ctx context.Context, lenderID string) ([]domain.LendingContract, error) {
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodGet, "/v1/lending/contracts", "user-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp domain.ApiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	data := resp.Data.(map[string]interface{})
	if len(data["borrowed"].([]interface{})) != 1 {
		t.Fatalf("borrowed count wrong: %v", data["borrowed"])
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	router := newTestRouter(&mockLedgerService{})

	w := doRequest(router, http.MethodGet, "/v1/admin/transactions", "user-token", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestApproveTransaction(t *testing.T) {
	svc := &mockLedgerService{
		moderateFn: func(ctx context.Context, adminID, transactionID string, decision domain.Decision) (*domain.Transaction, error) {
			if adminID != testAdminID.String() {
				t.Fatalf("admin id = %s", adminID)
			}
			if decision != domain.DecisionApprove {
				t.Fatalf("decision = %s", decision)
			}
			return &domain.Transaction{
				ID:     transactionID,
				Status: domain.StatusCompleted,
			}, nil
		},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodPost, "/v1/admin/transactions/txn-1/approve", "admin-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestRejectSettledTransaction(t *testing.T) {
	svc := &mockLedgerService{
		moderateFn: func(ctx context.Context, adminID, transactionID string, decision domain.Decision) (*domain.Transaction, error) {
			return nil, domain.ErrInvalidState
		},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodPost, "/v1/admin/transactions/txn-1/reject", "admin-token", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}
