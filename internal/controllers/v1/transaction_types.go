package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/parish-ledger/backend/internal/httputil"
	"github.com/parish-ledger/backend/internal/models"
	ez_uuid "github.com/parish-ledger/backend/internal/uuid"
	"github.com/shopspring/decimal"
)

type TransactionEditable struct {
	Date time.Time `json:"date" example:"2024-03-17T00:00:00Z"` // Date of the transaction. Defaults to the current time

	// The maximum value is "999999999999.99999999", swagger unfortunately rounds this.
	Amount decimal.Decimal `json:"amount" example:"14.03" minimum:"0.00000001" maximum:"999999999999.99999999" multipleOf:"0.00000001"` // The amount of the transaction

	Description          string                   `json:"description" example:"Sunday offering" default:""`
	Currency             string                   `json:"currency" example:"EUR"`                                              // ISO 4217 code, must match the involved accounts
	ExchangeRate         decimal.Decimal          `json:"exchangeRate" example:"1" default:"1"`                                // Destination units per source unit, only for cross-currency transfers
	Status               models.TransactionStatus `json:"status" example:"COMPLETED" default:"COMPLETED"`                      // One of COMPLETED, PENDING_APPROVAL, REJECTED
	SourceAccountID      *uuid.UUID               `json:"sourceAccountId" example:"fd81dc45-a3a2-468e-a6fa-b2618f30aa45"`      // Set for expenses and transfers
	DestinationAccountID *uuid.UUID               `json:"destinationAccountId" example:"8e16b456-a719-48ce-9fec-e115cfa7cbcc"` // Set for income and transfers
	CategoryID           *uuid.UUID               `json:"categoryId" example:"2649c965-7999-4873-ae16-89d5d5fa972e"`           // Classification, not allowed on transfers
	MinistryID           *uuid.UUID               `json:"ministryId" example:"90b077fb-ca32-4dc9-b12f-3c4a6c45b1e4"`           // Opaque reference into the member management system
}

// model returns the database resource for the API representation of the editable fields
func (editable TransactionEditable) model() models.Transaction {
	return models.Transaction{
		Date:                 editable.Date,
		Amount:               editable.Amount,
		Description:          editable.Description,
		Currency:             editable.Currency,
		ExchangeRate:         editable.ExchangeRate,
		Status:               editable.Status,
		SourceAccountID:      editable.SourceAccountID,
		DestinationAccountID: editable.DestinationAccountID,
		CategoryID:           editable.CategoryID,
		MinistryID:           editable.MinistryID,
	}
}

// TransactionPatch is the request body for transaction updates. Every update
// is recorded in the audit log, so the reason and the person making the
// change travel with the changed values.
type TransactionPatch struct {
	TransactionEditable
	Reason      string `json:"reason" example:"typo in the amount"`  // Why the transaction is changed
	ChangedByID string `json:"changedById" example:"treasurer-anna"` // Who is making the change
}

type TransactionLinks struct {
	Self  string `json:"self" example:"https://example.com/api/v1/transactions/d430d7c3-d14c-4712-9336-ee56965a6673"`        // The transaction itself
	Audit string `json:"audit" example:"https://example.com/api/v1/transactions/d430d7c3-d14c-4712-9336-ee56965a6673/audit"` // The audit log for the transaction
}

// Transaction is the representation of a Transaction in API v1.
type Transaction struct {
	models.DefaultModel
	TransactionEditable
	Links TransactionLinks `json:"links"`
}

// newTransaction returns the API v1 representation of the resource
func newTransaction(c *gin.Context, model models.Transaction) Transaction {
	url := httputil.RequestHost(c)

	return Transaction{
		DefaultModel: model.DefaultModel,
		TransactionEditable: TransactionEditable{
			Date:                 model.Date,
			Amount:               model.Amount,
			Description:          model.Description,
			Currency:             model.Currency,
			ExchangeRate:         model.ExchangeRate,
			Status:               model.Status,
			SourceAccountID:      model.SourceAccountID,
			DestinationAccountID: model.DestinationAccountID,
			CategoryID:           model.CategoryID,
			MinistryID:           model.MinistryID,
		},
		Links: TransactionLinks{
			Self:  fmt.Sprintf("%s/v1/transactions/%s", url, model.ID),
			Audit: fmt.Sprintf("%s/v1/transactions/%s/audit", url, model.ID),
		},
	}
}

type TransactionListResponse struct {
	Data       []Transaction `json:"data"`                                                          // List of transactions
	Error      *string       `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination   `json:"pagination"`                                                    // Pagination information
}

type TransactionCreateResponse struct {
	Error *string               `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  []TransactionResponse `json:"data"`                                                          // List of created Transactions
}

func (t *TransactionCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	t.Data = append(t.Data, TransactionResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type TransactionResponse struct {
	Error *string      `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred for this transaction
	Data  *Transaction `json:"data"`                                                          // The Transaction data, if the request was successful
}

// AuditLogEntry is the representation of an audit log entry in API v1.
type AuditLogEntry struct {
	ID             uuid.UUID       `json:"id" example:"65392deb-5e92-4268-b114-297faad6cdce"`
	CreatedAt      time.Time       `json:"createdAt" example:"2024-03-17T14:42:18.791Z"`
	ChangedByID    string          `json:"changedById" example:"treasurer-anna"`
	OldAmount      decimal.Decimal `json:"oldAmount" example:"14.03"`
	NewAmount      decimal.Decimal `json:"newAmount" example:"15.17"`
	OldDescription string          `json:"oldDescription" example:"Sunday offering"`
	NewDescription string          `json:"newDescription" example:"Sunday offering (corrected)"`
	ChangeReason   string          `json:"changeReason" example:"typo in the amount"`
}

func newAuditLogEntry(model models.AuditLogEntry) AuditLogEntry {
	return AuditLogEntry{
		ID:             model.ID,
		CreatedAt:      model.CreatedAt,
		ChangedByID:    model.ChangedByID,
		OldAmount:      model.OldAmount,
		NewAmount:      model.NewAmount,
		OldDescription: model.OldDescription,
		NewDescription: model.NewDescription,
		ChangeReason:   model.ChangeReason,
	}
}

type AuditLogResponse struct {
	Data  []AuditLogEntry `json:"data"`                                                          // The audit log entries, oldest first
	Error *string         `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type TransactionQueryFilter struct {
	Date                 time.Time                `form:"date" filterField:"false"`           // Exact date. Time is ignored.
	FromDate             time.Time                `form:"fromDate" filterField:"false"`       // From this date. Time is ignored.
	UntilDate            time.Time                `form:"untilDate" filterField:"false"`      // Until this date. Time is ignored.
	Amount               decimal.Decimal          `form:"amount"`                             // Exact amount
	Description          string                   `form:"description" filterField:"false"`    // Description contains this string
	Currency             string                   `form:"currency"`                           // ISO 4217 code
	Status               models.TransactionStatus `form:"status"`                             // Transaction status
	Type                 models.TransactionKind   `form:"type" filterField:"false"`           // INCOME, EXPENSE or TRANSFER
	SourceAccountID      ez_uuid.UUID             `form:"source"`                             // ID of the source account
	DestinationAccountID ez_uuid.UUID             `form:"destination"`                        // ID of the destination account
	AccountID            ez_uuid.UUID             `form:"account" filterField:"false"`        // ID of either source or destination account
	CategoryID           ez_uuid.UUID             `form:"category"`                           // ID of the category
	MinistryID           ez_uuid.UUID             `form:"ministry"`                           // ID of the ministry
	IncludeDeleted       bool                     `form:"includeDeleted" filterField:"false"` // Include soft-deleted transactions. Defaults to false.
	Offset               uint                     `form:"offset" filterField:"false"`         // The offset of the first Transaction returned. Defaults to 0.
	Limit                int                      `form:"limit" filterField:"false"`          // Maximum number of Transactions to return. Defaults to 50.
}

func (f TransactionQueryFilter) model() models.Transaction {
	// If an ID is uuid.Nil, use an actual nil, not a pointer to uuid.Nil
	var sID, dID, cID, mID *uuid.UUID
	if f.SourceAccountID != ez_uuid.Nil {
		sID = &f.SourceAccountID.UUID
	}

	if f.DestinationAccountID != ez_uuid.Nil {
		dID = &f.DestinationAccountID.UUID
	}

	if f.CategoryID != ez_uuid.Nil {
		cID = &f.CategoryID.UUID
	}

	if f.MinistryID != ez_uuid.Nil {
		mID = &f.MinistryID.UUID
	}

	// This does not set the string or date fields since they are
	// handled in the controller function
	return models.Transaction{
		Amount:               f.Amount,
		Currency:             f.Currency,
		Status:               f.Status,
		SourceAccountID:      sID,
		DestinationAccountID: dID,
		CategoryID:           cID,
		MinistryID:           mID,
	}
}
