package models_test

import (
	"time"

	"github.com/google/uuid"
	"github.com/parish-ledger/backend/internal/models"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestBudgetPeriodValidation() {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		period models.BudgetPeriod
		err    error
	}{
		{"no name", models.BudgetPeriod{Type: models.BudgetPeriodTypeMonthly, StartDate: start, EndDate: end, Currency: "EUR"}, models.ErrPeriodNameEmpty},
		{"invalid type", models.BudgetPeriod{Name: "March", Type: "WEEKLY", StartDate: start, EndDate: end, Currency: "EUR"}, models.ErrPeriodTypeInvalid},
		{"invalid currency", models.BudgetPeriod{Name: "March", Type: models.BudgetPeriodTypeMonthly, StartDate: start, EndDate: end, Currency: "XYZ"}, models.ErrPeriodCurrencyInvalid},
		{"end before start", models.BudgetPeriod{Name: "March", Type: models.BudgetPeriodTypeMonthly, StartDate: end, EndDate: start, Currency: "EUR"}, models.ErrPeriodRangeInvalid},
		{"valid", models.BudgetPeriod{Name: "March", Type: models.BudgetPeriodTypeMonthly, StartDate: start, EndDate: end, Currency: "EUR"}, nil},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			err := models.DB.Create(&tt.period).Error
			suite.Assert().ErrorIs(err, tt.err)
		})
	}
}

func (suite *TestSuiteStandard) TestBudgetPeriodRangeLocked() {
	period := suite.createTestBudgetPeriod(models.BudgetPeriod{})
	ministry := uuid.New()

	// Without allocations the range can still be moved
	err := models.DB.Model(&period).Update("EndDate", period.EndDate.AddDate(0, 0, 1)).Error
	suite.Assert().NoError(err)

	_ = suite.createTestBudgetAllocation(models.BudgetAllocation{
		BudgetPeriodID: period.ID,
		MinistryID:     &ministry,
		Amount:         decimal.NewFromFloat(1000),
	})

	err = models.DB.Model(&period).Update("EndDate", period.EndDate.AddDate(0, 0, 2)).Error
	suite.Assert().ErrorIs(err, models.ErrPeriodLocked)

	// Fields outside the date range stay editable
	err = models.DB.Model(&period).Update("Name", "March (final)").Error
	suite.Assert().NoError(err)
}

func (suite *TestSuiteStandard) TestBudgetPeriodDeleteBlocked() {
	period := suite.createTestBudgetPeriod(models.BudgetPeriod{})
	ministry := uuid.New()

	allocation := suite.createTestBudgetAllocation(models.BudgetAllocation{
		BudgetPeriodID: period.ID,
		MinistryID:     &ministry,
		Amount:         decimal.NewFromFloat(500),
	})

	err := models.DB.Delete(&period).Error
	suite.Assert().ErrorIs(err, models.ErrPeriodHasAllocations)

	err = models.DB.Delete(&allocation).Error
	suite.Require().NoError(err)

	err = models.DB.Delete(&period).Error
	suite.Assert().NoError(err)
}

func (suite *TestSuiteStandard) TestBudgetAllocationValidation() {
	period := suite.createTestBudgetPeriod(models.BudgetPeriod{})
	ministry := uuid.New()

	err := models.DB.Create(&models.BudgetAllocation{
		BudgetPeriodID: period.ID,
		Amount:         decimal.NewFromFloat(100),
	}).Error
	suite.Assert().ErrorIs(err, models.ErrAllocationScopeMissing)

	err = models.DB.Create(&models.BudgetAllocation{
		BudgetPeriodID: period.ID,
		MinistryID:     &ministry,
		Amount:         decimal.NewFromFloat(-1),
	}).Error
	suite.Assert().ErrorIs(err, models.ErrAllocationAmountInvalid)

	err = models.DB.Create(&models.BudgetAllocation{
		BudgetPeriodID: uuid.New(),
		MinistryID:     &ministry,
		Amount:         decimal.NewFromFloat(100),
	}).Error
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestBudgetAllocationZeroAmount() {
	period := suite.createTestBudgetPeriod(models.BudgetPeriod{})
	ministry := uuid.New()

	err := models.DB.Create(&models.BudgetAllocation{
		BudgetPeriodID: period.ID,
		MinistryID:     &ministry,
		Amount:         decimal.Zero,
	}).Error
	suite.Assert().NoError(err, "A zero allocation is a valid explicit budget of nothing")
}

func (suite *TestSuiteStandard) TestBudgetAllocationNotUnique() {
	period := suite.createTestBudgetPeriod(models.BudgetPeriod{})
	ministry := uuid.New()
	category := suite.createTestCategory(models.Category{})

	_ = suite.createTestBudgetAllocation(models.BudgetAllocation{
		BudgetPeriodID: period.ID,
		MinistryID:     &ministry,
		CategoryID:     &category.ID,
		Amount:         decimal.NewFromFloat(100),
	})

	err := models.DB.Create(&models.BudgetAllocation{
		BudgetPeriodID: period.ID,
		MinistryID:     &ministry,
		CategoryID:     &category.ID,
		Amount:         decimal.NewFromFloat(200),
	}).Error
	suite.Assert().ErrorIs(err, models.ErrAllocationNotUnique)

	// SQLite UNIQUE treats NULL scope fields as distinct, the duplicate
	// check has to catch these
	_ = suite.createTestBudgetAllocation(models.BudgetAllocation{
		BudgetPeriodID: period.ID,
		MinistryID:     &ministry,
		Amount:         decimal.NewFromFloat(100),
	})

	err = models.DB.Create(&models.BudgetAllocation{
		BudgetPeriodID: period.ID,
		MinistryID:     &ministry,
		Amount:         decimal.NewFromFloat(200),
	}).Error
	suite.Assert().ErrorIs(err, models.ErrAllocationNotUnique)
}
