package models_test

import (
	"time"

	"github.com/parish-ledger/backend/internal/models"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) createTestAuditLogEntry(entry models.AuditLogEntry) models.AuditLogEntry {
	if entry.ChangedByID == "" {
		entry.ChangedByID = "treasurer-test"
	}

	if entry.ChangeReason == "" {
		entry.ChangeReason = "test change"
	}

	err := models.DB.Create(&entry).Error
	if err != nil {
		suite.Assert().FailNow("Audit log entry could not be saved", "Error: %s, Entry: %#v", err, entry)
	}

	return entry
}

func (suite *TestSuiteStandard) TestAuditLogEntryValidation() {
	account := suite.createTestAccount(models.Account{})
	transaction := suite.createTestTransaction(models.Transaction{
		Amount:          decimal.NewFromFloat(10),
		SourceAccountID: &account.ID,
	})

	err := models.DB.Create(&models.AuditLogEntry{
		TransactionID: transaction.ID,
		ChangedByID:   "treasurer-test",
	}).Error
	suite.Assert().ErrorIs(err, models.ErrAuditReasonEmpty)

	err = models.DB.Create(&models.AuditLogEntry{
		TransactionID: transaction.ID,
		ChangeReason:  "typo in the amount",
	}).Error
	suite.Assert().ErrorIs(err, models.ErrAuditChangedByEmpty)
}

func (suite *TestSuiteStandard) TestAuditLogEntryImmutable() {
	account := suite.createTestAccount(models.Account{})
	transaction := suite.createTestTransaction(models.Transaction{
		Amount:          decimal.NewFromFloat(10),
		SourceAccountID: &account.ID,
	})

	entry := suite.createTestAuditLogEntry(models.AuditLogEntry{TransactionID: transaction.ID})

	err := models.DB.Model(&entry).Update("change_reason", "rewritten history").Error
	suite.Assert().ErrorIs(err, models.ErrAuditEntryImmutable)

	err = models.DB.Delete(&entry).Error
	suite.Assert().ErrorIs(err, models.ErrAuditEntryImmutable)

	var count int64
	err = models.DB.Model(&models.AuditLogEntry{}).Count(&count).Error
	suite.Require().NoError(err)
	suite.Assert().Equal(int64(1), count)
}

func (suite *TestSuiteStandard) TestAuditLogOrder() {
	account := suite.createTestAccount(models.Account{})
	transaction := suite.createTestTransaction(models.Transaction{
		Amount:          decimal.NewFromFloat(10),
		SourceAccountID: &account.ID,
	})

	first := suite.createTestAuditLogEntry(models.AuditLogEntry{
		TransactionID: transaction.ID,
		ChangeReason:  "first change",
	})
	first.CreatedAt = first.CreatedAt.Add(-time.Minute)
	suite.Require().NoError(models.DB.Model(&models.AuditLogEntry{}).Where("id = ?", first.ID).UpdateColumn("created_at", first.CreatedAt).Error)

	second := suite.createTestAuditLogEntry(models.AuditLogEntry{
		TransactionID: transaction.ID,
		ChangeReason:  "second change",
	})

	// Entries for other transactions do not show up
	other := suite.createTestTransaction(models.Transaction{
		Amount:          decimal.NewFromFloat(10),
		SourceAccountID: &account.ID,
	})
	_ = suite.createTestAuditLogEntry(models.AuditLogEntry{TransactionID: other.ID})

	entries, err := models.AuditLog(models.DB, transaction.ID)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)

	suite.Assert().Equal(first.ID, entries[0].ID, "Oldest entry must come first")
	suite.Assert().Equal(second.ID, entries[1].ID)
}
