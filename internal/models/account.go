package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"golang.org/x/text/currency"
	"gorm.io/gorm"
)

// AccountType classifies what an account represents on the balance sheet.
// Only these three types carry balances.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
)

// Account represents a monetary account, e.g. a bank account or the cash box.
//
// The stored Balance is maintained incrementally by the ledger package and
// always equals InitialBalance plus the sum of all effects of non-deleted
// COMPLETED transactions touching the account.
type Account struct {
	DefaultModel
	Name           string `gorm:"uniqueIndex"`
	Type           AccountType
	Currency       string // ISO 4217 code
	Note           string
	InitialBalance decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	Balance        decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	Archived       bool
}

var (
	ErrAccountNameEmpty       = fmt.Errorf("%w: the account name must not be empty", ErrValidation)
	ErrAccountNameNotUnique   = fmt.Errorf("%w: the account name is already in use", ErrConflict)
	ErrAccountTypeInvalid     = fmt.Errorf("%w: the account type must be one of ASSET, LIABILITY, EQUITY", ErrValidation)
	ErrAccountCurrencyInvalid = fmt.Errorf("%w: the account currency must be a valid ISO 4217 code", ErrValidation)
	ErrAccountArchived        = fmt.Errorf("%w: the account is archived", ErrConflict)

	ErrAccountInitialBalanceImmutable = fmt.Errorf("%w: the initial balance cannot be changed after creation", ErrValidation)
)

// BeforeSave validates and normalizes the account.
//
// It trims whitespace from all strings and verifies the account type and
// that the currency is a known ISO 4217 code.
func (a *Account) BeforeSave(_ *gorm.DB) error {
	a.Name = strings.TrimSpace(a.Name)
	a.Note = strings.TrimSpace(a.Note)
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))

	if a.Name == "" {
		return ErrAccountNameEmpty
	}

	if !slices.Contains([]AccountType{AccountTypeAsset, AccountTypeLiability, AccountTypeEquity}, a.Type) {
		return ErrAccountTypeInvalid
	}

	if _, err := currency.ParseISO(a.Currency); err != nil {
		return ErrAccountCurrencyInvalid
	}

	return nil
}

// BeforeCreate opens the account with its initial balance.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	_ = a.DefaultModel.BeforeCreate(tx)

	a.Balance = a.InitialBalance
	return nil
}

// Transactions returns all non-deleted transactions touching this account.
func (a Account) Transactions(db *gorm.DB) ([]Transaction, error) {
	var transactions []Transaction

	err := db.
		Where(db.Where(Transaction{SourceAccountID: &a.ID}).Or(Transaction{DestinationAccountID: &a.ID})).
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// ReplayedBalance reconstructs the account balance purely from the
// transaction history: the initial balance plus all effects of non-deleted
// COMPLETED transactions.
func (a Account) ReplayedBalance(db *gorm.DB) (decimal.Decimal, error) {
	transactions, err := a.Transactions(db)
	if err != nil {
		return decimal.Zero, err
	}

	balance := a.InitialBalance
	for _, t := range transactions {
		if t.Status != TransactionStatusCompleted {
			continue
		}

		if t.DestinationAccountID != nil && *t.DestinationAccountID == a.ID {
			balance = balance.Add(t.DestinationDelta())
		}

		if t.SourceAccountID != nil && *t.SourceAccountID == a.ID {
			balance = balance.Sub(t.Amount)
		}
	}

	return balance, nil
}

// CheckConsistency verifies the core correctness invariant: the stored
// balance equals the replayed balance. A mismatch is reported as
// ErrConsistency and never corrected silently.
func (a Account) CheckConsistency(db *gorm.DB) error {
	replayed, err := a.ReplayedBalance(db)
	if err != nil {
		return err
	}

	if !replayed.Equal(a.Balance) {
		return fmt.Errorf("%w: account %s has stored balance %s, but the replayed balance is %s", ErrConsistency, a.ID, a.Balance, replayed)
	}

	return nil
}

// HasHistory reports whether any transaction, deleted or not, ever touched
// the account. Accounts with history are archived instead of deleted.
func (a Account) HasHistory(db *gorm.DB) (bool, error) {
	var count int64

	err := db.Model(&Transaction{}).Unscoped().
		Where(db.Where(Transaction{SourceAccountID: &a.ID}).Or(Transaction{DestinationAccountID: &a.ID})).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
