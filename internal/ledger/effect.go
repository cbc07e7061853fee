package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/parish-ledger/backend/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"golang.org/x/text/currency"
	"gorm.io/gorm"
)

// Effect is the signed balance delta a transaction applies to one account.
// A transaction has zero effects (not COMPLETED), one effect (income,
// expense) or two effects (transfer).
type Effect struct {
	AccountID uuid.UUID
	Delta     decimal.Decimal
}

// negated returns the exact reversal of the effects.
func negated(effects []Effect) []Effect {
	reversed := make([]Effect, 0, len(effects))
	for _, e := range effects {
		reversed = append(reversed, Effect{AccountID: e.AccountID, Delta: e.Delta.Neg()})
	}

	return reversed
}

// validate classifies the transaction shape exactly once, validates the
// amount, status, currency and exchange rate rules against the referenced
// accounts and normalizes the exchange rate. It returns the effects the
// transaction has on account balances.
//
// Classification happens here and nowhere else, so "both accounts unset"
// and "category set on a transfer" bugs cannot exist further in.
func validate(tx *gorm.DB, t *models.Transaction) ([]Effect, error) {
	if !t.Amount.IsPositive() {
		return nil, models.ErrTransactionAmountNotPositive
	}

	if t.Status == "" {
		t.Status = models.TransactionStatusCompleted
	}

	if !slices.Contains([]models.TransactionStatus{
		models.TransactionStatusCompleted,
		models.TransactionStatusPendingApproval,
		models.TransactionStatusRejected,
	}, t.Status) {
		return nil, models.ErrTransactionStatusInvalid
	}

	if _, err := currency.ParseISO(t.Currency); err != nil {
		return nil, models.ErrTransactionCurrencyInvalid
	}

	kind, err := t.Kind()
	if err != nil {
		return nil, err
	}

	if t.CategoryID != nil {
		err = tx.First(&models.Category{}, "id = ?", *t.CategoryID).Error
		if err != nil {
			return nil, err
		}
	}

	var source, destination models.Account
	if t.SourceAccountID != nil {
		err = tx.First(&source, "id = ?", *t.SourceAccountID).Error
		if err != nil {
			return nil, err
		}
	}

	if t.DestinationAccountID != nil {
		err = tx.First(&destination, "id = ?", *t.DestinationAccountID).Error
		if err != nil {
			return nil, err
		}
	}

	switch kind {
	case models.TransactionKindIncome:
		if destination.Currency != t.Currency {
			return nil, fmt.Errorf("%w: the transaction is in %s, but account %q uses %s", models.ErrCurrencyMismatch, t.Currency, destination.Name, destination.Currency)
		}
		t.ExchangeRate = decimal.NewFromInt(1)

	case models.TransactionKindExpense:
		if source.Currency != t.Currency {
			return nil, fmt.Errorf("%w: the transaction is in %s, but account %q uses %s", models.ErrCurrencyMismatch, t.Currency, source.Name, source.Currency)
		}
		t.ExchangeRate = decimal.NewFromInt(1)

	case models.TransactionKindTransfer:
		// The amount is debited from the source account, so the
		// transaction currency is the source currency
		if source.Currency != t.Currency {
			return nil, fmt.Errorf("%w: the transaction is in %s, but account %q uses %s", models.ErrCurrencyMismatch, t.Currency, source.Name, source.Currency)
		}

		if source.Currency == destination.Currency {
			if t.ExchangeRate.IsZero() {
				t.ExchangeRate = decimal.NewFromInt(1)
			}

			if !t.ExchangeRate.Equal(decimal.NewFromInt(1)) {
				return nil, models.ErrTransactionRateNotOne
			}
		} else if !t.ExchangeRate.IsPositive() {
			return nil, models.ErrTransactionRateNotPositive
		}
	}

	// Only COMPLETED transactions carry effects. PENDING_APPROVAL and
	// REJECTED transactions are recorded, but do not touch balances.
	if t.Status != models.TransactionStatusCompleted {
		return []Effect{}, nil
	}

	return effects(*t), nil
}

// effects derives the account deltas for a transaction whose fields have
// already been validated. The caller must ensure the transaction is
// COMPLETED, anything else has no effects.
func effects(t models.Transaction) []Effect {
	kind, err := t.Kind()
	if err != nil {
		// Committed transactions always have a valid shape
		return []Effect{}
	}

	switch kind {
	case models.TransactionKindIncome:
		return []Effect{{AccountID: *t.DestinationAccountID, Delta: t.Amount}}
	case models.TransactionKindExpense:
		return []Effect{{AccountID: *t.SourceAccountID, Delta: t.Amount.Neg()}}
	default:
		return []Effect{
			{AccountID: *t.SourceAccountID, Delta: t.Amount.Neg()},
			{AccountID: *t.DestinationAccountID, Delta: t.DestinationDelta()},
		}
	}
}

// committedEffects returns the effects a stored transaction currently has
// on account balances.
func committedEffects(t models.Transaction) []Effect {
	if t.Status != models.TransactionStatusCompleted {
		return []Effect{}
	}

	return effects(t)
}
