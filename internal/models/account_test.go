package models_test

import (
	"github.com/parish-ledger/backend/internal/models"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestAccountValidation() {
	tests := []struct {
		name    string
		account models.Account
		err     error
	}{
		{"no name", models.Account{Type: models.AccountTypeAsset, Currency: "EUR"}, models.ErrAccountNameEmpty},
		{"whitespace name", models.Account{Name: "   ", Type: models.AccountTypeAsset, Currency: "EUR"}, models.ErrAccountNameEmpty},
		{"invalid type", models.Account{Name: "Checking", Type: "SAVINGS", Currency: "EUR"}, models.ErrAccountTypeInvalid},
		{"no type", models.Account{Name: "Checking", Currency: "EUR"}, models.ErrAccountTypeInvalid},
		{"invalid currency", models.Account{Name: "Checking", Type: models.AccountTypeAsset, Currency: "EURO"}, models.ErrAccountCurrencyInvalid},
		{"no currency", models.Account{Name: "Checking", Type: models.AccountTypeAsset}, models.ErrAccountCurrencyInvalid},
		{"valid", models.Account{Name: "Checking", Type: models.AccountTypeAsset, Currency: "EUR"}, nil},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			err := models.DB.Create(&tt.account).Error
			suite.Assert().ErrorIs(err, tt.err)
		})
	}
}

func (suite *TestSuiteStandard) TestAccountCurrencyNormalized() {
	account := suite.createTestAccount(models.Account{Name: "Cash box", Currency: " eur "})
	suite.Assert().Equal("EUR", account.Currency)
}

func (suite *TestSuiteStandard) TestAccountNameNotUnique() {
	_ = suite.createTestAccount(models.Account{Name: "Offerings"})

	err := models.DB.Create(&models.Account{Name: "Offerings", Type: models.AccountTypeAsset, Currency: "EUR"}).Error
	suite.Assert().ErrorIs(err, models.ErrAccountNameNotUnique)
	suite.Assert().ErrorIs(err, models.ErrConflict)
}

func (suite *TestSuiteStandard) TestAccountOpensWithInitialBalance() {
	account := suite.createTestAccount(models.Account{InitialBalance: decimal.NewFromFloat(173.12)})

	suite.Assert().True(account.Balance.Equal(decimal.NewFromFloat(173.12)), "Balance is %s, should be 173.12", account.Balance)

	var reloaded models.Account
	err := models.DB.First(&reloaded, "id = ?", account.ID).Error
	suite.Require().NoError(err)
	suite.Assert().True(reloaded.Balance.Equal(account.InitialBalance))
}

func (suite *TestSuiteStandard) TestAccountReplayedBalance() {
	account := suite.createTestAccount(models.Account{InitialBalance: decimal.NewFromFloat(100)})

	_ = suite.createTestTransaction(models.Transaction{
		Amount:               decimal.NewFromFloat(50),
		DestinationAccountID: &account.ID,
	})

	_ = suite.createTestTransaction(models.Transaction{
		Amount:          decimal.NewFromFloat(20),
		SourceAccountID: &account.ID,
	})

	// Pending transactions have no effect on the balance
	_ = suite.createTestTransaction(models.Transaction{
		Amount:               decimal.NewFromFloat(1000),
		DestinationAccountID: &account.ID,
		Status:               models.TransactionStatusPendingApproval,
	})

	replayed, err := account.ReplayedBalance(models.DB)
	suite.Require().NoError(err)
	suite.Assert().True(replayed.Equal(decimal.NewFromFloat(130)), "Replayed balance is %s, should be 130", replayed)
}

func (suite *TestSuiteStandard) TestAccountCheckConsistency() {
	account := suite.createTestAccount(models.Account{InitialBalance: decimal.NewFromFloat(100)})
	suite.Assert().NoError(account.CheckConsistency(models.DB))

	// Writing the balance without a matching transaction corrupts the account
	err := models.DB.Model(&account).UpdateColumn("balance", decimal.NewFromFloat(999)).Error
	suite.Require().NoError(err)

	err = models.DB.First(&account, "id = ?", account.ID).Error
	suite.Require().NoError(err)

	err = account.CheckConsistency(models.DB)
	suite.Assert().ErrorIs(err, models.ErrConsistency)
}

func (suite *TestSuiteStandard) TestAccountHasHistory() {
	account := suite.createTestAccount(models.Account{})

	hasHistory, err := account.HasHistory(models.DB)
	suite.Require().NoError(err)
	suite.Assert().False(hasHistory)

	transaction := suite.createTestTransaction(models.Transaction{
		Amount:               decimal.NewFromFloat(10),
		DestinationAccountID: &account.ID,
	})

	hasHistory, err = account.HasHistory(models.DB)
	suite.Require().NoError(err)
	suite.Assert().True(hasHistory)

	// Deleted transactions still count as history
	err = models.DB.Delete(&transaction).Error
	suite.Require().NoError(err)

	hasHistory, err = account.HasHistory(models.DB)
	suite.Require().NoError(err)
	suite.Assert().True(hasHistory)
}

func (suite *TestSuiteStandard) TestAccountTransactions() {
	account := suite.createTestAccount(models.Account{})
	other := suite.createTestAccount(models.Account{})

	_ = suite.createTestTransaction(models.Transaction{Amount: decimal.NewFromFloat(10), DestinationAccountID: &account.ID})
	_ = suite.createTestTransaction(models.Transaction{Amount: decimal.NewFromFloat(20), SourceAccountID: &account.ID})
	_ = suite.createTestTransaction(models.Transaction{Amount: decimal.NewFromFloat(30), DestinationAccountID: &other.ID})

	transactions, err := account.Transactions(models.DB)
	suite.Require().NoError(err)
	suite.Assert().Len(transactions, 2)
}
