package models

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// CategoryKind determines whether a category classifies income or expenses.
type CategoryKind string

const (
	CategoryKindIncome  CategoryKind = "INCOME"
	CategoryKindExpense CategoryKind = "EXPENSE"
)

// Category is a classification label for transactions. It never holds a
// balance.
type Category struct {
	DefaultModel
	Name string `gorm:"uniqueIndex"`
	Kind CategoryKind
	Note string
}

var (
	ErrCategoryNameEmpty     = fmt.Errorf("%w: the category name must not be empty", ErrValidation)
	ErrCategoryNameNotUnique = fmt.Errorf("%w: the category name is already in use", ErrConflict)
	ErrCategoryKindInvalid   = fmt.Errorf("%w: the category kind must be one of INCOME, EXPENSE", ErrValidation)
	ErrCategoryInUse         = fmt.Errorf("%w: the category is referenced by transactions", ErrConflict)
)

// BeforeSave validates and normalizes the category.
func (c *Category) BeforeSave(_ *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Note = strings.TrimSpace(c.Note)

	if c.Name == "" {
		return ErrCategoryNameEmpty
	}

	if !slices.Contains([]CategoryKind{CategoryKindIncome, CategoryKindExpense}, c.Kind) {
		return ErrCategoryKindInvalid
	}

	return nil
}

// BeforeDelete blocks deletion while any non-deleted transaction still
// references the category.
func (c *Category) BeforeDelete(tx *gorm.DB) error {
	var count int64

	err := tx.Model(&Transaction{}).Where(Transaction{CategoryID: &c.ID}).Count(&count).Error
	if err != nil {
		return err
	}

	if count > 0 {
		return fmt.Errorf("%w: %d transactions still use it, delete or reassign them first", ErrCategoryInUse, count)
	}

	return nil
}
