package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"golang.org/x/text/currency"
	"gorm.io/gorm"
)

// BudgetPeriodType classifies the length of a budget period.
type BudgetPeriodType string

const (
	BudgetPeriodTypeMonthly BudgetPeriodType = "MONTHLY"
	BudgetPeriodTypeYearly  BudgetPeriodType = "YEARLY"
)

// BudgetPeriod is a date range that budget allocations are defined against.
type BudgetPeriod struct {
	DefaultModel
	Name      string
	Type      BudgetPeriodType
	StartDate time.Time
	EndDate   time.Time
	Currency  string // ISO 4217 code
}

var (
	ErrPeriodNameEmpty       = fmt.Errorf("%w: the budget period name must not be empty", ErrValidation)
	ErrPeriodTypeInvalid     = fmt.Errorf("%w: the budget period type must be one of MONTHLY, YEARLY", ErrValidation)
	ErrPeriodRangeInvalid    = fmt.Errorf("%w: the budget period must not end before it starts", ErrValidation)
	ErrPeriodCurrencyInvalid = fmt.Errorf("%w: the budget period currency must be a valid ISO 4217 code", ErrValidation)
	ErrPeriodLocked          = fmt.Errorf("%w: the date range can not be changed while allocations exist for the period", ErrConflict)
	ErrPeriodHasAllocations  = fmt.Errorf("%w: the budget period still has allocations, delete them first", ErrConflict)
)

// BeforeSave validates and normalizes the budget period.
func (p *BudgetPeriod) BeforeSave(_ *gorm.DB) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))

	if p.Name == "" {
		return ErrPeriodNameEmpty
	}

	if !slices.Contains([]BudgetPeriodType{BudgetPeriodTypeMonthly, BudgetPeriodTypeYearly}, p.Type) {
		return ErrPeriodTypeInvalid
	}

	if _, err := currency.ParseISO(p.Currency); err != nil {
		return ErrPeriodCurrencyInvalid
	}

	p.StartDate = p.StartDate.In(time.UTC)
	p.EndDate = p.EndDate.In(time.UTC)

	if p.EndDate.Before(p.StartDate) {
		return ErrPeriodRangeInvalid
	}

	return nil
}

// BeforeUpdate freezes the date range once allocations reference the period
// so that execution results stay stable.
//
// Statement.Changed only sees column updates. When the full merged resource
// is saved, model and update target are the same struct, so the new values
// are additionally compared against the stored row.
func (p *BudgetPeriod) BeforeUpdate(tx *gorm.DB) error {
	changed := tx.Statement.Changed("StartDate", "EndDate")

	if !changed {
		var current BudgetPeriod
		err := tx.First(&current, "id = ?", p.ID).Error
		if err != nil {
			return err
		}

		changed = !p.StartDate.Equal(current.StartDate) || !p.EndDate.Equal(current.EndDate)
	}

	if !changed {
		return nil
	}

	var count int64
	err := tx.Model(&BudgetAllocation{}).Where(BudgetAllocation{BudgetPeriodID: p.ID}).Count(&count).Error
	if err != nil {
		return err
	}

	if count > 0 {
		return ErrPeriodLocked
	}

	return nil
}

// BeforeDelete blocks deletion while allocations still reference the period.
func (p *BudgetPeriod) BeforeDelete(tx *gorm.DB) error {
	var count int64
	err := tx.Model(&BudgetAllocation{}).Where(BudgetAllocation{BudgetPeriodID: p.ID}).Count(&count).Error
	if err != nil {
		return err
	}

	if count > 0 {
		return ErrPeriodHasAllocations
	}

	return nil
}

// BudgetAllocation is a budget ceiling scoped to a ministry and/or category
// within a period. At least one of the two scope fields must be set.
type BudgetAllocation struct {
	DefaultModel
	BudgetPeriodID uuid.UUID       `gorm:"uniqueIndex:allocation_period_ministry_category"`
	BudgetPeriod   BudgetPeriod    `json:"-"`
	MinistryID     *uuid.UUID      `gorm:"uniqueIndex:allocation_period_ministry_category"` // opaque reference into the member management system
	CategoryID     *uuid.UUID      `gorm:"uniqueIndex:allocation_period_ministry_category"`
	Category       Category        `json:"-"`
	Amount         decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
}

var (
	ErrAllocationScopeMissing  = fmt.Errorf("%w: an allocation needs at least one of ministry and category", ErrValidation)
	ErrAllocationAmountInvalid = fmt.Errorf("%w: the allocation amount must not be negative", ErrValidation)
	ErrAllocationNotUnique     = fmt.Errorf("%w: an allocation for this period, ministry and category already exists", ErrConflict)
)

// validate checks the allocation scope and amount. It runs in both the
// create and the update hook so that validation errors always take
// precedence over the scope uniqueness check.
func (a *BudgetAllocation) validate() error {
	if a.MinistryID != nil && *a.MinistryID == uuid.Nil {
		a.MinistryID = nil
	}

	if a.CategoryID != nil && *a.CategoryID == uuid.Nil {
		a.CategoryID = nil
	}

	if a.MinistryID == nil && a.CategoryID == nil {
		return ErrAllocationScopeMissing
	}

	if a.Amount.IsNegative() {
		return ErrAllocationAmountInvalid
	}

	return nil
}

// checkScope verifies that the period exists and that no other allocation
// has the same scope. The unique index does not catch duplicates with a NULL
// scope field, sqlite treats NULLs as distinct.
func (a *BudgetAllocation) checkScope(tx *gorm.DB) error {
	err := tx.First(&BudgetPeriod{}, "id = ?", a.BudgetPeriodID).Error
	if err != nil {
		return err
	}

	q := tx.Model(&BudgetAllocation{}).
		Where(BudgetAllocation{BudgetPeriodID: a.BudgetPeriodID}).
		Where("id != ?", a.ID)

	if a.MinistryID == nil {
		q = q.Where("ministry_id IS NULL")
	} else {
		q = q.Where("ministry_id = ?", *a.MinistryID)
	}

	if a.CategoryID == nil {
		q = q.Where("category_id IS NULL")
	} else {
		q = q.Where("category_id = ?", *a.CategoryID)
	}

	var count int64
	err = q.Count(&count).Error
	if err != nil {
		return err
	}

	if count > 0 {
		return ErrAllocationNotUnique
	}

	return nil
}

func (a *BudgetAllocation) BeforeCreate(tx *gorm.DB) error {
	_ = a.DefaultModel.BeforeCreate(tx)

	if err := a.validate(); err != nil {
		return err
	}

	return a.checkScope(tx)
}

// BeforeUpdate re-runs the scope checks, a patch can move an allocation onto
// a scope that another allocation already covers.
func (a *BudgetAllocation) BeforeUpdate(tx *gorm.DB) error {
	if err := a.validate(); err != nil {
		return err
	}

	return a.checkScope(tx)
}
