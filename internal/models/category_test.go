package models_test

import (
	"github.com/parish-ledger/backend/internal/models"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestCategoryValidation() {
	tests := []struct {
		name     string
		category models.Category
		err      error
	}{
		{"no name", models.Category{Kind: models.CategoryKindExpense}, models.ErrCategoryNameEmpty},
		{"invalid kind", models.Category{Name: "Donations", Kind: "TRANSFER"}, models.ErrCategoryKindInvalid},
		{"no kind", models.Category{Name: "Donations"}, models.ErrCategoryKindInvalid},
		{"valid", models.Category{Name: "Donations", Kind: models.CategoryKindIncome}, nil},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			err := models.DB.Create(&tt.category).Error
			suite.Assert().ErrorIs(err, tt.err)
		})
	}
}

func (suite *TestSuiteStandard) TestCategoryNameNotUnique() {
	_ = suite.createTestCategory(models.Category{Name: "Maintenance"})

	err := models.DB.Create(&models.Category{Name: "Maintenance", Kind: models.CategoryKindExpense}).Error
	suite.Assert().ErrorIs(err, models.ErrCategoryNameNotUnique)
}

func (suite *TestSuiteStandard) TestCategoryDeleteBlockedWhileInUse() {
	category := suite.createTestCategory(models.Category{})
	account := suite.createTestAccount(models.Account{})

	transaction := suite.createTestTransaction(models.Transaction{
		Amount:          decimal.NewFromFloat(25),
		SourceAccountID: &account.ID,
		CategoryID:      &category.ID,
	})

	err := models.DB.Delete(&category).Error
	suite.Assert().ErrorIs(err, models.ErrCategoryInUse)
	suite.Assert().ErrorIs(err, models.ErrConflict)

	// Once the transaction is gone, the category can be deleted
	err = models.DB.Delete(&transaction).Error
	suite.Require().NoError(err)

	err = models.DB.Delete(&category).Error
	suite.Assert().NoError(err)
}
