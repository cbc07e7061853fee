// Package ledger owns every mutation of transactions and account balances.
//
// Commit, Edit and Remove each run as a single database transaction spanning
// the transaction row and the balance updates, so a partially applied
// operation is never observable. The stored balance of every touched account
// is verified against the replayed transaction history before the operation
// commits.
package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/parish-ledger/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Commit validates and persists a new transaction and applies its effects
// to the account balances.
func Commit(db *gorm.DB, transaction models.Transaction) (models.Transaction, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		effects, err := validate(tx, &transaction)
		if err != nil {
			return err
		}

		// New effects may not touch archived accounts
		for _, e := range effects {
			var account models.Account
			err = tx.First(&account, "id = ?", e.AccountID).Error
			if err != nil {
				return err
			}

			if account.Archived {
				return fmt.Errorf("%w (%s)", models.ErrAccountArchived, account.Name)
			}
		}

		err = tx.Create(&transaction).Error
		if err != nil {
			return err
		}

		err = apply(tx, effects)
		if err != nil {
			return err
		}

		return verifyConsistency(tx, effects)
	})
	if err != nil {
		// Begin and Commit errors bypass the callback chain
		return models.Transaction{}, models.TranslateError(err)
	}

	return transaction, nil
}

// Edit revises a transaction: the old effect is reversed, the new effect is
// validated and applied, the new field values are persisted and an audit log
// entry is appended. On any failure the whole operation, including the
// reversal, rolls back.
//
// The updated transaction must carry the full new field values, the caller
// merges the patch onto the loaded transaction.
func Edit(db *gorm.DB, id uuid.UUID, updated models.Transaction, reason, changedByID string) (models.Transaction, error) {
	var transaction models.Transaction

	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.First(&transaction, "id = ?", id).Error
		if err != nil {
			return err
		}

		old := transaction

		err = apply(tx, negated(committedEffects(old)))
		if err != nil {
			return err
		}

		updated.DefaultModel = old.DefaultModel
		newEffects, err := validate(tx, &updated)
		if err != nil {
			return err
		}

		err = apply(tx, newEffects)
		if err != nil {
			return err
		}

		transaction = updated
		err = tx.Save(&transaction).Error
		if err != nil {
			return err
		}

		err = tx.Create(&models.AuditLogEntry{
			TransactionID:  transaction.ID,
			ChangedByID:    changedByID,
			OldAmount:      old.Amount,
			NewAmount:      transaction.Amount,
			OldDescription: old.Description,
			NewDescription: transaction.Description,
			ChangeReason:   reason,
		}).Error
		if err != nil {
			return err
		}

		return verifyConsistency(tx, append(negated(committedEffects(old)), newEffects...))
	})
	if err != nil {
		return models.Transaction{}, models.TranslateError(err)
	}

	return transaction, nil
}

// Remove soft-deletes a transaction: the full reversal of its effect is
// applied and deletedAt is set. The row is kept, status and description
// included, and excluded from all future balance and aggregate computations.
//
// Like an edit, the deletion is recorded in the audit trail. Reason and
// changer are optional for deletions and get defaults when unset.
func Remove(db *gorm.DB, id uuid.UUID, reason, changedByID string) error {
	if reason == "" {
		reason = "transaction deleted"
	}

	if changedByID == "" {
		changedByID = "system"
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var transaction models.Transaction
		err := tx.First(&transaction, "id = ?", id).Error
		if err != nil {
			return err
		}

		reversal := negated(committedEffects(transaction))

		err = apply(tx, reversal)
		if err != nil {
			return err
		}

		// A deletion is an edit to a zero effect, the audit entry
		// records it that way
		err = tx.Create(&models.AuditLogEntry{
			TransactionID:  transaction.ID,
			ChangedByID:    changedByID,
			OldAmount:      transaction.Amount,
			NewAmount:      decimal.Zero,
			OldDescription: transaction.Description,
			NewDescription: transaction.Description,
			ChangeReason:   reason,
		}).Error
		if err != nil {
			return err
		}

		err = tx.Delete(&transaction).Error
		if err != nil {
			return err
		}

		return verifyConsistency(tx, reversal)
	})

	return models.TranslateError(err)
}

// apply increments the stored balances by the effect deltas. This is the
// only place where account balances are written.
func apply(tx *gorm.DB, effects []Effect) error {
	for _, e := range effects {
		var account models.Account
		err := tx.First(&account, "id = ?", e.AccountID).Error
		if err != nil {
			return err
		}

		err = tx.Model(&account).UpdateColumn("balance", account.Balance.Add(e.Delta)).Error
		if err != nil {
			return err
		}
	}

	return nil
}

// verifyConsistency re-checks the balance invariant for every account the
// operation touched. A failure aborts the surrounding database transaction,
// so corruption is surfaced instead of persisted.
func verifyConsistency(tx *gorm.DB, effects []Effect) error {
	seen := make(map[uuid.UUID]bool)
	for _, e := range effects {
		if seen[e.AccountID] {
			continue
		}
		seen[e.AccountID] = true

		var account models.Account
		err := tx.First(&account, "id = ?", e.AccountID).Error
		if err != nil {
			return err
		}

		err = account.CheckConsistency(tx)
		if err != nil {
			return err
		}
	}

	return nil
}
