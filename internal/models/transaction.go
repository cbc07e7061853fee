package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionStatus is the workflow status of a transaction. Only COMPLETED
// transactions carry balance effects and enter aggregations.
type TransactionStatus string

const (
	TransactionStatusCompleted       TransactionStatus = "COMPLETED"
	TransactionStatusPendingApproval TransactionStatus = "PENDING_APPROVAL"
	TransactionStatusRejected        TransactionStatus = "REJECTED"
)

// TransactionKind is the shape of a transaction, derived exactly once from
// which account references are set.
type TransactionKind string

const (
	TransactionKindIncome   TransactionKind = "INCOME"
	TransactionKindExpense  TransactionKind = "EXPENSE"
	TransactionKindTransfer TransactionKind = "TRANSFER"
)

// Transaction is a committed ledger entry.
//
// Exactly one of three shapes holds:
//   - Income: only DestinationAccountID is set, the source is the category
//   - Expense: only SourceAccountID is set, the destination is the category
//   - Transfer: both accounts are set and no category
//
// Transactions are soft-deleted only, the row is kept for auditability.
type Transaction struct {
	DefaultModel
	Date                 time.Time
	Description          string
	Amount               decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	Currency             string          // ISO 4217 code
	ExchangeRate         decimal.Decimal `gorm:"type:DECIMAL(20,8)"` // destination units per source unit, 1 unless converting
	Status               TransactionStatus
	SourceAccountID      *uuid.UUID `gorm:"check:source_destination_different,source_account_id != destination_account_id"`
	SourceAccount        Account    `json:"-"`
	DestinationAccountID *uuid.UUID
	DestinationAccount   Account `json:"-"`
	CategoryID           *uuid.UUID
	Category             Category   `json:"-"`
	MinistryID           *uuid.UUID // opaque reference into the member management system
}

var (
	ErrTransactionShapeInvalid       = fmt.Errorf("%w: invalid transaction shape", ErrValidation)
	ErrTransactionAmountNotPositive  = fmt.Errorf("%w: the transaction amount must be positive", ErrValidation)
	ErrTransactionRateNotPositive    = fmt.Errorf("%w: the exchange rate must be positive when converting between currencies", ErrValidation)
	ErrTransactionRateNotOne         = fmt.Errorf("%w: the exchange rate must be 1 when the currencies match", ErrValidation)
	ErrTransactionCurrencyInvalid    = fmt.Errorf("%w: the transaction currency must be a valid ISO 4217 code", ErrValidation)
	ErrTransactionStatusInvalid      = fmt.Errorf("%w: the transaction status must be one of COMPLETED, PENDING_APPROVAL, REJECTED", ErrValidation)
	ErrSourceDoesNotEqualDestination = fmt.Errorf("%w: source and destination account must be different", ErrValidation)
)

// Kind classifies the transaction shape. An ambiguous or incomplete shape
// is rejected with ErrTransactionShapeInvalid.
func (t Transaction) Kind() (TransactionKind, error) {
	switch {
	case t.SourceAccountID == nil && t.DestinationAccountID != nil:
		return TransactionKindIncome, nil
	case t.SourceAccountID != nil && t.DestinationAccountID == nil:
		return TransactionKindExpense, nil
	case t.SourceAccountID != nil && t.DestinationAccountID != nil && t.CategoryID == nil:
		return TransactionKindTransfer, nil
	}

	return "", ErrTransactionShapeInvalid
}

// DestinationDelta is the amount credited to the destination account. For
// transfers between currencies this is the converted amount, for everything
// else the exchange rate is normalized to 1.
func (t Transaction) DestinationDelta() decimal.Decimal {
	return t.Amount.Mul(t.ExchangeRate)
}

// AfterFind updates the timestamps to use UTC as
// timezone, not +0000. Yes, this is different.
func (t *Transaction) AfterFind(tx *gorm.DB) (err error) {
	err = t.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	// Enforce dates to be in UTC
	t.Date = t.Date.In(time.UTC)
	return
}

// BeforeSave
//   - sets the timezone for the Date to UTC and defaults it to now
//   - defaults the status to COMPLETED and the exchange rate to 1
//   - trims whitespace from string fields
func (t *Transaction) BeforeSave(_ *gorm.DB) (err error) {
	t.Description = strings.TrimSpace(t.Description)
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))

	if t.Date.IsZero() {
		t.Date = time.Now().In(time.UTC)
	} else {
		t.Date = t.Date.In(time.UTC)
	}

	if t.Status == "" {
		t.Status = TransactionStatusCompleted
	}

	if t.ExchangeRate.IsZero() {
		t.ExchangeRate = decimal.NewFromInt(1)
	}

	// Ensure that references are nil and not pointers to the nil UUID
	if t.SourceAccountID != nil && *t.SourceAccountID == uuid.Nil {
		t.SourceAccountID = nil
	}

	if t.DestinationAccountID != nil && *t.DestinationAccountID == uuid.Nil {
		t.DestinationAccountID = nil
	}

	if t.CategoryID != nil && *t.CategoryID == uuid.Nil {
		t.CategoryID = nil
	}

	if t.MinistryID != nil && *t.MinistryID == uuid.Nil {
		t.MinistryID = nil
	}

	return
}
