package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AuditLogEntry records a single mutating edit of a transaction as a
// before/after diff with a reason. Entries are append-only: the hooks below
// refuse every update and delete.
type AuditLogEntry struct {
	DefaultModel
	TransactionID  uuid.UUID
	Transaction    Transaction `json:"-"`
	ChangedByID    string
	OldAmount      decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	NewAmount      decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	OldDescription string
	NewDescription string
	ChangeReason   string
}

var (
	ErrAuditEntryImmutable = fmt.Errorf("%w: audit log entries can not be changed or deleted", ErrConflict)
	ErrAuditReasonEmpty    = fmt.Errorf("%w: a change reason must be given", ErrValidation)
	ErrAuditChangedByEmpty = fmt.Errorf("%w: the id of the person making the change must be given", ErrValidation)
)

func (e *AuditLogEntry) BeforeCreate(tx *gorm.DB) error {
	_ = e.DefaultModel.BeforeCreate(tx)

	e.ChangeReason = strings.TrimSpace(e.ChangeReason)
	e.ChangedByID = strings.TrimSpace(e.ChangedByID)

	if e.ChangeReason == "" {
		return ErrAuditReasonEmpty
	}

	if e.ChangedByID == "" {
		return ErrAuditChangedByEmpty
	}

	return nil
}

func (e *AuditLogEntry) BeforeUpdate(_ *gorm.DB) error {
	return ErrAuditEntryImmutable
}

func (e *AuditLogEntry) BeforeDelete(_ *gorm.DB) error {
	return ErrAuditEntryImmutable
}

// AuditLog returns the audit trail of a transaction, oldest entry first,
// newest last.
func AuditLog(db *gorm.DB, transactionID uuid.UUID) ([]AuditLogEntry, error) {
	var entries []AuditLogEntry

	err := db.
		Where(AuditLogEntry{TransactionID: transactionID}).
		Order("datetime(created_at) ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}
