package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/parish-ledger/backend/internal/httputil"
	"github.com/parish-ledger/backend/internal/ledger"
	"github.com/parish-ledger/backend/internal/models"
	"golang.org/x/exp/slices"
)

// RegisterTransactionRoutes registers the routes for transactions with
// the RouterGroup that is passed.
func RegisterTransactionRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsTransactionList)
		r.GET("", GetTransactions)
		r.POST("", CreateTransactions)
	}

	// Transaction with ID
	{
		r.OPTIONS("/:id", OptionsTransactionDetail)
		r.GET("/:id", GetTransaction)
		r.PATCH("/:id", UpdateTransaction)
		r.DELETE("/:id", DeleteTransaction)
		r.GET("/:id/audit", GetTransactionAuditLog)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Transactions
// @Success		204
// @Router			/v1/transactions [options]
func OptionsTransactionList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Transactions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/transactions/{id} [options]
func OptionsTransactionDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.Transaction{})
}

// @Summary		Create transactions
// @Description	Creates new transactions and applies their effects to the involved accounts
// @Tags			Transactions
// @Produce		json
// @Success		201				{object}	TransactionCreateResponse
// @Failure		400				{object}	TransactionCreateResponse
// @Failure		404				{object}	TransactionCreateResponse
// @Failure		409				{object}	TransactionCreateResponse
// @Failure		500				{object}	TransactionCreateResponse
// @Param			transactions	body		[]TransactionEditable	true	"Transactions"
// @Router			/v1/transactions [post]
func CreateTransactions(c *gin.Context) {
	var editables []TransactionEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := TransactionCreateResponse{}

	for _, editable := range editables {
		transaction, err := ledger.Commit(models.DB, editable.model())
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newTransaction(c, transaction)
		r.Data = append(r.Data, TransactionResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get transactions
// @Description	Returns a list of transactions
// @Tags			Transactions
// @Produce		json
// @Success		200	{object}	TransactionListResponse
// @Failure		400	{object}	TransactionListResponse
// @Failure		500	{object}	TransactionListResponse
// @Router			/v1/transactions [get]
// @Param			date			query	string	false	"Transactions at this date. Ignores exact time, matches on the day of the RFC3339 timestamp provided."
// @Param			fromDate		query	string	false	"Transactions at and after this date. Ignores exact time, matches on the day of the RFC3339 timestamp provided."
// @Param			untilDate		query	string	false	"Transactions before and at this date. Ignores exact time, matches on the day of the RFC3339 timestamp provided."
// @Param			amount			query	string	false	"Filter by exact amount"
// @Param			description		query	string	false	"Filter by description"
// @Param			currency		query	string	false	"Filter by currency"
// @Param			status			query	string	false	"Filter by transaction status"
// @Param			type			query	string	false	"Filter by transaction type: INCOME, EXPENSE or TRANSFER"
// @Param			account			query	string	false	"Filter by ID of associated account, regardless of source or destination"
// @Param			source			query	string	false	"Filter by source account ID"
// @Param			destination		query	string	false	"Filter by destination account ID"
// @Param			category		query	string	false	"Filter by category ID"
// @Param			ministry		query	string	false	"Filter by ministry ID"
// @Param			includeDeleted	query	bool	false	"Include deleted transactions. Defaults to false."
// @Param			offset			query	uint	false	"The offset of the first Transaction returned. Defaults to 0."
// @Param			limit			query	int		false	"Maximum number of Transactions to return. Defaults to 50."
func GetTransactions(c *gin.Context) {
	var filter TransactionQueryFilter
	if err := c.Bind(&filter); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, TransactionListResponse{
			Error: &e,
		})
		return
	}

	// Get the fields set in the filter
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	model := filter.model()

	db := models.DB
	if filter.IncludeDeleted {
		db = db.Unscoped()
	}

	q := db.
		Order("datetime(transactions.date) DESC, datetime(transactions.created_at) DESC").
		Where(&model, queryFields...)

	// Filter for the transaction being at the same date
	if !filter.Date.IsZero() {
		date := time.Date(filter.Date.Year(), filter.Date.Month(), filter.Date.Day(), 0, 0, 0, 0, time.UTC)
		q = q.Where("transactions.date >= date(?)", date).Where("transactions.date < date(?)", date.AddDate(0, 0, 1))
	}

	if !filter.FromDate.IsZero() {
		q = q.Where("transactions.date >= date(?)", time.Date(filter.FromDate.Year(), filter.FromDate.Month(), filter.FromDate.Day(), 0, 0, 0, 0, time.UTC))
	}

	if !filter.UntilDate.IsZero() {
		q = q.Where("transactions.date < date(?)", time.Date(filter.UntilDate.Year(), filter.UntilDate.Month(), filter.UntilDate.Day()+1, 0, 0, 0, 0, time.UTC))
	}

	if slices.Contains(setFields, "AccountID") {
		q = q.Where(
			models.DB.Where("transactions.source_account_id = ?", filter.AccountID.UUID).
				Or("transactions.destination_account_id = ?", filter.AccountID.UUID),
		)
	}

	if filter.Type != "" {
		if !slices.Contains([]models.TransactionKind{models.TransactionKindIncome, models.TransactionKindExpense, models.TransactionKindTransfer}, filter.Type) {
			e := errTransactionTypeInvalid.Error()
			c.JSON(http.StatusBadRequest, TransactionListResponse{
				Error: &e,
			})
			return
		}

		// The type follows directly from which accounts are set
		switch filter.Type {
		case models.TransactionKindIncome:
			q = q.Where("transactions.source_account_id IS NULL AND transactions.destination_account_id IS NOT NULL")
		case models.TransactionKindExpense:
			q = q.Where("transactions.source_account_id IS NOT NULL AND transactions.destination_account_id IS NULL")
		case models.TransactionKindTransfer:
			q = q.Where("transactions.source_account_id IS NOT NULL AND transactions.destination_account_id IS NOT NULL")
		}
	}

	if filter.Description != "" {
		q = q.Where("description LIKE ?", fmt.Sprintf("%%%s%%", filter.Description))
	} else if slices.Contains(setFields, "Description") {
		q = q.Where("description = ''")
	}

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	// Default to 50 Transactions and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var transactions []models.Transaction
	err := q.Find(&transactions).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionListResponse{
			Error: &e,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionListResponse{
			Error: &e,
		})
		return
	}

	data := make([]Transaction, 0, len(transactions))
	for _, transaction := range transactions {
		data = append(data, newTransaction(c, transaction))
	}

	c.JSON(http.StatusOK, TransactionListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get transaction
// @Description	Returns a specific transaction. Deleted transactions stay retrievable by their ID.
// @Tags			Transactions
// @Produce		json
// @Success		200	{object}	TransactionResponse
// @Failure		400	{object}	TransactionResponse
// @Failure		404	{object}	TransactionResponse
// @Failure		500	{object}	TransactionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/transactions/{id} [get]
func GetTransaction(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{
			Error: &e,
		})
		return
	}

	var transaction models.Transaction
	err = models.DB.Unscoped().First(&transaction, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{
			Error: &e,
		})
		return
	}

	data := newTransaction(c, transaction)
	c.JSON(http.StatusOK, TransactionResponse{Data: &data})
}

// @Summary		Update transaction
// @Description	Updates an existing transaction, adjusts the account balances and records the change in the audit log. Only values to be updated need to be specified, but reason and changedById are always required.
// @Tags			Transactions
// @Accept			json
// @Produce		json
// @Success		200			{object}	TransactionResponse
// @Failure		400			{object}	TransactionResponse
// @Failure		404			{object}	TransactionResponse
// @Failure		409			{object}	TransactionResponse
// @Failure		500			{object}	TransactionResponse
// @Param			id			path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			transaction	body		TransactionPatch	true	"Transaction"
// @Router			/v1/transactions/{id} [patch]
func UpdateTransaction(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{
			Error: &e,
		})
		return
	}

	var transaction models.Transaction
	err = models.DB.First(&transaction, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{
			Error: &e,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, TransactionPatch{})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{
			Error: &e,
		})
		return
	}

	var patch TransactionPatch
	err = httputil.BindData(c, &patch)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{
			Error: &e,
		})
		return
	}

	// Merge the set fields onto the existing transaction so that the
	// ledger revalidates the full resulting resource
	updated := transaction
	if fieldSet(updateFields, "Date") {
		updated.Date = patch.Date
	}
	if fieldSet(updateFields, "Amount") {
		updated.Amount = patch.Amount
	}
	if fieldSet(updateFields, "Description") {
		updated.Description = patch.Description
	}
	if fieldSet(updateFields, "Currency") {
		updated.Currency = patch.Currency
	}
	if fieldSet(updateFields, "ExchangeRate") {
		updated.ExchangeRate = patch.ExchangeRate
	}
	if fieldSet(updateFields, "Status") {
		updated.Status = patch.Status
	}
	if fieldSet(updateFields, "SourceAccountID") {
		updated.SourceAccountID = patch.SourceAccountID
	}
	if fieldSet(updateFields, "DestinationAccountID") {
		updated.DestinationAccountID = patch.DestinationAccountID
	}
	if fieldSet(updateFields, "CategoryID") {
		updated.CategoryID = patch.CategoryID
	}
	if fieldSet(updateFields, "MinistryID") {
		updated.MinistryID = patch.MinistryID
	}

	transaction, err = ledger.Edit(models.DB, uri.ID.UUID, updated, patch.Reason, patch.ChangedByID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{
			Error: &e,
		})
		return
	}

	r := newTransaction(c, transaction)
	c.JSON(http.StatusOK, TransactionResponse{Data: &r})
}

// @Summary		Delete transaction
// @Description	Deletes a transaction and reverses its effect on the account balances. The deletion is recorded in the audit log.
// @Tags			Transactions
// @Success		204
// @Failure		400			{object}	httpError
// @Failure		404			{object}	httpError
// @Failure		500			{object}	httpError
// @Param			id			path	URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			reason		query	string	false	"Why the transaction is deleted"
// @Param			changedById	query	string	false	"Who is deleting the transaction"
// @Router			/v1/transactions/{id} [delete]
func DeleteTransaction(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = ledger.Remove(models.DB, uri.ID.UUID, c.Query("reason"), c.Query("changedById"))
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// @Summary		Get audit log
// @Description	Returns the audit log for a transaction, oldest entry first
// @Tags			Transactions
// @Produce		json
// @Success		200	{object}	AuditLogResponse
// @Failure		400	{object}	AuditLogResponse
// @Failure		404	{object}	AuditLogResponse
// @Failure		500	{object}	AuditLogResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/transactions/{id}/audit [get]
func GetTransactionAuditLog(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AuditLogResponse{
			Error: &e,
		})
		return
	}

	// The audit log outlives the transaction, deleted transactions keep
	// their history
	var transaction models.Transaction
	err = models.DB.Unscoped().First(&transaction, "id = ?", uri.ID.UUID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AuditLogResponse{
			Error: &e,
		})
		return
	}

	entries, err := models.AuditLog(models.DB, transaction.ID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AuditLogResponse{
			Error: &e,
		})
		return
	}

	data := make([]AuditLogEntry, 0, len(entries))
	for _, entry := range entries {
		data = append(data, newAuditLogEntry(entry))
	}

	c.JSON(http.StatusOK, AuditLogResponse{Data: data})
}
