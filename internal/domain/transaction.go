package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TransactionKind string
type TransactionStatus string
type Decision string

const (
	KindDeposit    TransactionKind = "deposit"
	KindWithdrawal TransactionKind = "withdrawal"
	KindTransfer   TransactionKind = "transfer"
)

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusRejected  TransactionStatus = "rejected"
)

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Transaction is one entry in the append-only transaction log. Only the
// status field ever changes after creation, and only pending -> terminal.
type Transaction struct {
	ID             string            `json:"id" db:"id"`
	Kind           TransactionKind   `json:"kind" db:"kind" binding:"required"`
	UserID         string            `json:"user_id" db:"user_id" binding:"required"`
	CounterpartyID string            `json:"counterparty_id,omitempty" db:"counterparty_id"`
	AmountCents    int64             `json:"amount_cents" db:"amount_cents" binding:"required"`
	Method         string            `json:"method,omitempty" db:"method"`
	Status         TransactionStatus `json:"status" db:"status" binding:"required"`
	Metadata       json.RawMessage   `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

func (s TransactionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// ModerationRecord is the audit trail stored in a transaction's metadata
// when an administrator settles it.
type ModerationRecord struct {
	AdminID   string    `json:"admin_id"`
	Decision  Decision  `json:"decision"`
	DecidedAt time.Time `json:"decided_at"`
}

func (m ModerationRecord) Encode() (json.RawMessage, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode moderation record: %w", err)
	}
	return raw, nil
}

// BalanceDelta is the signed amount applied to the owner's wallet when the
// transaction reaches completed status.
func (t *Transaction) BalanceDelta() int64 {
	if t.Kind == KindWithdrawal {
		return -t.AmountCents
	}
	return t.AmountCents
}

func NewDeposit(userID string, amountCents int64, method string) (*Transaction, error) {
	return newTransaction(KindDeposit, userID, "", amountCents, method, StatusPending)
}

func NewWithdrawal(userID string, amountCents int64, method string) (*Transaction, error) {
	return newTransaction(KindWithdrawal, userID, "", amountCents, method, StatusPending)
}

// NewTransfer is created already completed: peer transfers settle in the
// same atomic unit that records them, with no moderation step.
func NewTransfer(senderID, recipientID string, amountCents int64) (*Transaction, error) {
	return newTransaction(KindTransfer, senderID, recipientID, amountCents, "", StatusCompleted)
}

func newTransaction(kind TransactionKind, userID, counterpartyID string, amountCents int64, method string, status TransactionStatus) (*Transaction, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	now := time.Now().UTC()
	return &Transaction{
		ID:             uuid.New().String(),
		Kind:           kind,
		UserID:         userID,
		CounterpartyID: counterpartyID,
		AmountCents:    amountCents,
		Method:         method,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
