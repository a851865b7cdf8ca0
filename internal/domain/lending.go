package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type OfferStatus string
type ContractStatus string

const (
	OfferStatusActive    OfferStatus = "active"
	OfferStatusTaken     OfferStatus = "taken"
	OfferStatusCancelled OfferStatus = "cancelled"
)

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusRepaid    ContractStatus = "repaid"
	ContractStatusDefaulted ContractStatus = "defaulted"
)

// LendingOffer is lender capital awaiting a borrower. The amount is debited
// from the lender's wallet when the offer is created, not when it is taken.
type LendingOffer struct {
	ID           string      `json:"id" db:"id"`
	LenderID     string      `json:"lender_id" db:"lender_id" binding:"required"`
	AmountCents  int64       `json:"amount_cents" db:"amount_cents" binding:"required"`
	InterestRate float64     `json:"interest_rate" db:"interest_rate"`
	DurationDays int         `json:"duration_days" db:"duration_days" binding:"required"`
	Status       OfferStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// LendingContract snapshots the matched offer's terms at acceptance time.
// Later changes to the offer row never reach the contract.
type LendingContract struct {
	ID           string         `json:"id" db:"id"`
	OfferID      string         `json:"offer_id" db:"offer_id" binding:"required"`
	LenderID     string         `json:"lender_id" db:"lender_id"`
	BorrowerID   string         `json:"borrower_id" db:"borrower_id" binding:"required"`
	AmountCents  int64          `json:"amount_cents" db:"amount_cents"`
	InterestRate float64        `json:"interest_rate" db:"interest_rate"`
	DurationDays int            `json:"duration_days" db:"duration_days"`
	Status       ContractStatus `json:"status" db:"status"`
	StartDate    time.Time      `json:"start_date" db:"start_date"`
	EndDate      time.Time      `json:"end_date" db:"end_date"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

func NewLendingOffer(lenderID string, amountCents int64, interestRate float64, durationDays int) (*LendingOffer, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if interestRate < 0 || math.IsNaN(interestRate) || math.IsInf(interestRate, 0) {
		return nil, ErrInvalidAmount
	}
	if durationDays <= 0 {
		return nil, ErrInvalidAmount
	}
	now := time.Now().UTC()
	return &LendingOffer{
		ID:           uuid.New().String(),
		LenderID:     lenderID,
		AmountCents:  amountCents,
		InterestRate: interestRate,
		DurationDays: durationDays,
		Status:       OfferStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NewLendingContract builds the contract for an offer that has just been
// flipped to taken. The caller creates both rows in one atomic unit.
func NewLendingContract(offer *LendingOffer, borrowerID string, now time.Time) *LendingContract {
	now = now.UTC()
	return &LendingContract{
		ID:           uuid.New().String(),
		OfferID:      offer.ID,
		LenderID:     offer.LenderID,
		BorrowerID:   borrowerID,
		AmountCents:  offer.AmountCents,
		InterestRate: offer.InterestRate,
		DurationDays: offer.DurationDays,
		Status:       ContractStatusActive,
		StartDate:    now,
		EndDate:      now.AddDate(0, 0, offer.DurationDays),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// RepaymentCents is principal plus simple interest for the full term,
// rounded to the nearest cent.
func (c *LendingContract) RepaymentCents() int64 {
	interest := int64(math.Round(float64(c.AmountCents) * c.InterestRate / 100))
	return c.AmountCents + interest
}
