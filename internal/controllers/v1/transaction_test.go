package v1_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	v1 "github.com/parish-ledger/backend/internal/controllers/v1"
	"github.com/parish-ledger/backend/internal/models"
	"github.com/parish-ledger/backend/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// accountBalance reads the current stored balance of an account through
// the API.
func accountBalance(t *testing.T, account v1.AccountResponse) decimal.Decimal {
	r := test.Request(t, http.MethodGet, account.Data.Links.Self, "")
	test.AssertHTTPStatus(t, &r, http.StatusOK)

	var response v1.AccountResponse
	test.DecodeResponse(t, &r, &response)

	return response.Data.Balance
}

// TestTransactionsDBClosed verifies that errors are processed correctly when
// the database is closed.
func (suite *TestSuiteStandard) TestTransactionsDBClosed() {
	a := createTestAccount(suite.T(), v1.AccountEditable{})

	tests := []struct {
		name string             // Name of the test
		test func(t *testing.T) // Code to run
	}{
		{
			"Creation fails",
			func(t *testing.T) {
				createTestTransaction(t, v1.TransactionEditable{
					Amount:               decimal.NewFromFloat(17.23),
					DestinationAccountID: &a.Data.ID,
				}, http.StatusInternalServerError)
			},
		},
		{
			"GET fails",
			func(t *testing.T) {
				recorder := test.Request(t, http.MethodGet, "http://example.com/v1/transactions", "")
				test.AssertHTTPStatus(t, &recorder, http.StatusInternalServerError)

				var response v1.TransactionListResponse
				test.DecodeResponse(t, &recorder, &response)
				assert.Contains(t, *response.Error, models.ErrGeneral.Error())
			},
		},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			suite.CloseDB()

			tt.test(t)
		})
	}
}

// TestTransactionsOptions verifies that OPTIONS requests are handled correctly.
func (suite *TestSuiteStandard) TestTransactionsOptions() {
	account := createTestAccount(suite.T(), v1.AccountEditable{})

	transaction := createTestTransaction(suite.T(), v1.TransactionEditable{
		Amount:               decimal.NewFromFloat(31),
		DestinationAccountID: &account.Data.ID,
	})

	tests := []struct {
		name   string
		id     string // path at the Transactions endpoint to test
		status int    // Expected HTTP status code
	}{
		{"No transaction with this ID", uuid.New().String(), http.StatusNotFound},
		{"Not a valid UUID", "NotParseableAsUUID", http.StatusBadRequest},
		{"Transaction exists", transaction.Data.ID.String(), http.StatusNoContent},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			path := fmt.Sprintf("%s/%s", "http://example.com/v1/transactions", tt.id)
			r := test.Request(t, http.MethodOptions, path, "")
			test.AssertHTTPStatus(t, &r, tt.status)

			if tt.status == http.StatusNoContent {
				assert.Equal(t, "OPTIONS, GET, PATCH, DELETE", r.Header().Get("allow"))
			}
		})
	}
}

// TestTransactionsGetSingle verifies that requests for the resource endpoints
// are handled correctly.
func (suite *TestSuiteStandard) TestTransactionsGetSingle() {
	account := createTestAccount(suite.T(), v1.AccountEditable{})

	transaction := createTestTransaction(suite.T(), v1.TransactionEditable{
		Amount:               decimal.NewFromFloat(31),
		DestinationAccountID: &account.Data.ID,
	})

	tests := []struct {
		name   string
		id     string
		status int
		method string
	}{
		{"GET Existing transaction", transaction.Data.ID.String(), http.StatusOK, http.MethodGet},
		{"GET No transaction with this ID", uuid.New().String(), http.StatusNotFound, http.MethodGet},
		{"GET Invalid ID (negative number)", "-56", http.StatusBadRequest, http.MethodGet},
		{"GET Invalid ID (positive number)", "23", http.StatusBadRequest, http.MethodGet},
		{"GET Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodGet},
		{"PATCH Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodPatch},
		{"DELETE Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodDelete},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, tt.method, fmt.Sprintf("http://example.com/v1/transactions/%s", tt.id), "")

			var transaction v1.TransactionResponse
			test.DecodeResponse(t, &r, &transaction)
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

// TestTransactionsCreateAppliesEffects verifies that committing transactions
// updates the involved account balances.
func (suite *TestSuiteStandard) TestTransactionsCreateAppliesEffects() {
	checking := createTestAccount(suite.T(), v1.AccountEditable{
		Name:           "Checking",
		InitialBalance: decimal.NewFromFloat(1000),
	})
	cashBox := createTestAccount(suite.T(), v1.AccountEditable{Name: "Cash box"})

	// Income of 500
	_ = createTestTransaction(suite.T(), v1.TransactionEditable{
		Amount:               decimal.NewFromFloat(500),
		DestinationAccountID: &checking.Data.ID,
	})
	assert.True(suite.T(), accountBalance(suite.T(), checking).Equal(decimal.NewFromFloat(1500)))

	// Expense of 200
	_ = createTestTransaction(suite.T(), v1.TransactionEditable{
		Amount:          decimal.NewFromFloat(200),
		SourceAccountID: &checking.Data.ID,
	})
	assert.True(suite.T(), accountBalance(suite.T(), checking).Equal(decimal.NewFromFloat(1300)))

	// Transfer of 300 into the cash box
	_ = createTestTransaction(suite.T(), v1.TransactionEditable{
		Amount:               decimal.NewFromFloat(300),
		SourceAccountID:      &checking.Data.ID,
		DestinationAccountID: &cashBox.Data.ID,
	})
	assert.True(suite.T(), accountBalance(suite.T(), checking).Equal(decimal.NewFromFloat(1000)))
	assert.True(suite.T(), accountBalance(suite.T(), cashBox).Equal(decimal.NewFromFloat(300)))

	// Pending transactions do not touch balances
	_ = createTestTransaction(suite.T(), v1.TransactionEditable{
		Amount:          decimal.NewFromFloat(10000),
		SourceAccountID: &checking.Data.ID,
		Status:          models.TransactionStatusPendingApproval,
	})
	assert.True(suite.T(), accountBalance(suite.T(), checking).Equal(decimal.NewFromFloat(1000)))
}

func (suite *TestSuiteStandard) TestTransactionsCreateFails() {
	account := createTestAccount(suite.T(), v1.AccountEditable{Currency: "EUR"})
	archived := createTestAccount(suite.T(), v1.AccountEditable{Archived: true})

	tests := []struct {
		name     string
		body     any
		status   int    // expected HTTP status
		contains string // substring the error must contain
	}{
		{"Broken Body", `[{ "description": 2 }]`, http.StatusBadRequest, "json: cannot unmarshal number"},
		{"No body", "", http.StatusBadRequest, "the request body must not be empty"},
		{
			"No accounts",
			[]v1.TransactionEditable{{Amount: decimal.NewFromFloat(10), Currency: "EUR"}},
			http.StatusBadRequest,
			models.ErrTransactionShapeInvalid.Error(),
		},
		{
			"Zero amount",
			[]v1.TransactionEditable{{Currency: "EUR", DestinationAccountID: &account.Data.ID}},
			http.StatusBadRequest,
			models.ErrTransactionAmountNotPositive.Error(),
		},
		{
			"Unknown account",
			`[{ "amount": "10", "currency": "EUR", "destinationAccountId": "b1cbbfbb-1f27-4a5b-bf0e-30d2a3a6e835" }]`,
			http.StatusNotFound,
			models.ErrResourceNotFound.Error(),
		},
		{
			"Archived account",
			[]v1.TransactionEditable{{Amount: decimal.NewFromFloat(10), Currency: "EUR", DestinationAccountID: &archived.Data.ID}},
			http.StatusConflict,
			models.ErrAccountArchived.Error(),
		},
		{
			"Currency mismatch",
			[]v1.TransactionEditable{{Amount: decimal.NewFromFloat(10), Currency: "HUF", DestinationAccountID: &account.Data.ID}},
			http.StatusBadRequest,
			models.ErrCurrencyMismatch.Error(),
		},
		{
			"Invalid status",
			[]v1.TransactionEditable{{Amount: decimal.NewFromFloat(10), Currency: "EUR", Status: "DRAFT", DestinationAccountID: &account.Data.ID}},
			http.StatusBadRequest,
			models.ErrTransactionStatusInvalid.Error(),
		},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, "http://example.com/v1/transactions", tt.body)
			test.AssertHTTPStatus(t, &r, tt.status)

			var response v1.TransactionCreateResponse
			test.DecodeResponse(t, &r, &response)

			if response.Error != nil {
				assert.Contains(t, *response.Error, tt.contains)
			} else {
				require.Len(t, response.Data, 1)
				assert.Contains(t, *response.Data[0].Error, tt.contains)
			}
		})
	}
}

func (suite *TestSuiteStandard) TestTransactionsGetFilter() {
	checking := createTestAccount(suite.T(), v1.AccountEditable{Name: "Checking"})
	cashBox := createTestAccount(suite.T(), v1.AccountEditable{Name: "Cash box"})

	offerings := createTestCategory(suite.T(), v1.CategoryEditable{Name: "Offerings", Kind: models.CategoryKindIncome})

	ministryID := uuid.New()

	_ = createTestTransaction(suite.T(), v1.TransactionEditable{
		Date:                 time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		Amount:               decimal.NewFromFloat(120),
		Description:          "Sunday offering",
		DestinationAccountID: &checking.Data.ID,
		CategoryID:           &offerings.Data.ID,
	})

	_ = createTestTransaction(suite.T(), v1.TransactionEditable{
		Date:            time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:          decimal.NewFromFloat(45.5),
		Description:     "Cleaning supplies",
		SourceAccountID: &checking.Data.ID,
		MinistryID:      &ministryID,
	})

	_ = createTestTransaction(suite.T(), v1.TransactionEditable{
		Date:                 time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
		Amount:               decimal.NewFromFloat(200),
		Description:          "Cash for the youth event",
		SourceAccountID:      &checking.Data.ID,
		DestinationAccountID: &cashBox.Data.ID,
	})

	_ = createTestTransaction(suite.T(), v1.TransactionEditable{
		Date:            time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
		Amount:          decimal.NewFromFloat(45.5),
		Description:     "Pending reimbursement",
		SourceAccountID: &checking.Data.ID,
		Status:          models.TransactionStatusPendingApproval,
	})

	tests := []struct {
		name  string
		query string
		len   int
	}{
		{"Type income", "type=INCOME", 1},
		{"Type expense", "type=EXPENSE", 2},
		{"Type transfer", "type=TRANSFER", 1},
		{"Status completed", "status=COMPLETED", 3},
		{"Status pending", "status=PENDING_APPROVAL", 1},
		{"Amount", "amount=45.5", 2},
		{"Description", "description=offering", 1},
		{"Account", fmt.Sprintf("account=%s", cashBox.Data.ID), 1},
		{"Source", fmt.Sprintf("source=%s", checking.Data.ID), 3},
		{"Destination", fmt.Sprintf("destination=%s", checking.Data.ID), 1},
		{"Category", fmt.Sprintf("category=%s", offerings.Data.ID), 1},
		{"Ministry", fmt.Sprintf("ministry=%s", ministryID), 1},
		{"Date", "date=2024-03-10T15:04:05Z", 1},
		{"From date", "fromDate=2024-03-10T00:00:00Z", 3},
		{"Until date", "untilDate=2024-03-10T00:00:00Z", 2},
		{"Date range", "fromDate=2024-03-04T00:00:00Z&untilDate=2024-03-20T00:00:00Z", 2},
		{"Limit 2", "limit=2", 2},
		{"Offset 3", "offset=3", 1},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			var re v1.TransactionListResponse
			r := test.Request(t, http.MethodGet, fmt.Sprintf("/v1/transactions?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)
			test.DecodeResponse(t, &r, &re)

			assert.Equal(t, tt.len, len(re.Data), "Wrong number of transactions, Request-ID: %s", r.Header().Get("x-request-id"))
		})
	}
}

// TestTransactionsGetFilterInvalidType verifies that an unknown type is
// rejected instead of silently returning everything.
func (suite *TestSuiteStandard) TestTransactionsGetFilterInvalidType() {
	r := test.Request(suite.T(), http.MethodGet, "/v1/transactions?type=DONATION", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

// TestTransactionsGetSorted verifies that transactions are sorted by date,
// newest first.
func (suite *TestSuiteStandard) TestTransactionsGetSorted() {
	account := createTestAccount(suite.T(), v1.AccountEditable{})

	oldest := createTestTransaction(suite.T(), v1.TransactionEditable{
		Date:                 time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:               decimal.NewFromFloat(10),
		DestinationAccountID: &account.Data.ID,
	})

	newest := createTestTransaction(suite.T(), v1.TransactionEditable{
		Date:                 time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:               decimal.NewFromFloat(10),
		DestinationAccountID: &account.Data.ID,
	})

	middle := createTestTransaction(suite.T(), v1.TransactionEditable{
		Date:                 time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		Amount:               decimal.NewFromFloat(10),
		DestinationAccountID: &account.Data.ID,
	})

	r := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/transactions", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.TransactionListResponse
	test.DecodeResponse(suite.T(), &r, &response)

	require.Len(suite.T(), response.Data, 3)
	assert.Equal(suite.T(), newest.Data.ID, response.Data[0].ID)
	assert.Equal(suite.T(), middle.Data.ID, response.Data[1].ID)
	assert.Equal(suite.T(), oldest.Data.ID, response.Data[2].ID)
}

// TestTransactionsUpdate verifies that updates adjust the account balances
// and are recorded in the audit log.
func (suite *TestSuiteStandard) TestTransactionsUpdate() {
	account := createTestAccount(suite.T(), v1.AccountEditable{
		InitialBalance: decimal.NewFromFloat(1000),
	})

	transaction := createTestTransaction(suite.T(), v1.TransactionEditable{
		Amount:          decimal.NewFromFloat(200),
		Description:     "Cleaning supplies",
		SourceAccountID: &account.Data.ID,
	})
	assert.True(suite.T(), accountBalance(suite.T(), account).Equal(decimal.NewFromFloat(800)))

	r := test.Request(suite.T(), http.MethodPatch, transaction.Data.Links.Self, map[string]any{
		"amount":      "150",
		"reason":      "typo in the amount",
		"changedById": "treasurer-anna",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var updated v1.TransactionResponse
	test.DecodeResponse(suite.T(), &r, &updated)
	assert.True(suite.T(), updated.Data.Amount.Equal(decimal.NewFromFloat(150)))

	// The old effect is reversed, the new one applied
	assert.True(suite.T(), accountBalance(suite.T(), account).Equal(decimal.NewFromFloat(850)))

	// The change is in the audit log
	r = test.Request(suite.T(), http.MethodGet, transaction.Data.Links.Audit, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var audit v1.AuditLogResponse
	test.DecodeResponse(suite.T(), &r, &audit)

	require.Len(suite.T(), audit.Data, 1)
	assert.True(suite.T(), audit.Data[0].OldAmount.Equal(decimal.NewFromFloat(200)))
	assert.True(suite.T(), audit.Data[0].NewAmount.Equal(decimal.NewFromFloat(150)))
	assert.Equal(suite.T(), "typo in the amount", audit.Data[0].ChangeReason)
	assert.Equal(suite.T(), "treasurer-anna", audit.Data[0].ChangedByID)
}

func (suite *TestSuiteStandard) TestTransactionsUpdateFails() {
	account := createTestAccount(suite.T(), v1.AccountEditable{
		InitialBalance: decimal.NewFromFloat(1000),
	})

	tests := []struct {
		name   string
		id     string
		body   any
		status int // expected response status
	}{
		{"Broken JSON", "", `{ "amount": "1" "`, http.StatusBadRequest},
		{"Non-existing transaction", uuid.New().String(), `{ "amount": "10", "reason": "r", "changedById": "c" }`, http.StatusNotFound},
		{"Missing reason", "", `{ "amount": "10", "changedById": "treasurer-anna" }`, http.StatusBadRequest},
		{"Missing changedById", "", `{ "amount": "10", "reason": "typo" }`, http.StatusBadRequest},
		{"Negative amount", "", `{ "amount": "-10", "reason": "typo", "changedById": "treasurer-anna" }`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			if tt.id == "" {
				transaction := createTestTransaction(suite.T(), v1.TransactionEditable{
					Amount:          decimal.NewFromFloat(20),
					SourceAccountID: &account.Data.ID,
				})
				tt.id = transaction.Data.ID.String()
			}

			recorder := test.Request(t, http.MethodPatch, fmt.Sprintf("http://example.com/v1/transactions/%s", tt.id), tt.body)
			test.AssertHTTPStatus(t, &recorder, tt.status)
		})
	}
}

// TestTransactionsDelete verifies the full deletion semantics: the effect is
// reversed, the row is kept and the deletion is recorded in the audit log.
func (suite *TestSuiteStandard) TestTransactionsDelete() {
	account := createTestAccount(suite.T(), v1.AccountEditable{
		InitialBalance: decimal.NewFromFloat(1000),
	})

	transaction := createTestTransaction(suite.T(), v1.TransactionEditable{
		Amount:          decimal.NewFromFloat(200),
		SourceAccountID: &account.Data.ID,
	})
	assert.True(suite.T(), accountBalance(suite.T(), account).Equal(decimal.NewFromFloat(800)))

	r := test.Request(suite.T(), http.MethodDelete, transaction.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	// The effect is reversed
	assert.True(suite.T(), accountBalance(suite.T(), account).Equal(decimal.NewFromFloat(1000)))

	// Deleted transactions stay retrievable by ID
	r = test.Request(suite.T(), http.MethodGet, transaction.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	// The list does not contain the transaction by default
	r = test.Request(suite.T(), http.MethodGet, "http://example.com/v1/transactions", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var list v1.TransactionListResponse
	test.DecodeResponse(suite.T(), &r, &list)
	assert.Len(suite.T(), list.Data, 0)

	// With includeDeleted it does
	r = test.Request(suite.T(), http.MethodGet, "http://example.com/v1/transactions?includeDeleted=true", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	test.DecodeResponse(suite.T(), &r, &list)
	assert.Len(suite.T(), list.Data, 1)

	// The deletion is recorded in the audit log
	r = test.Request(suite.T(), http.MethodGet, transaction.Data.Links.Audit, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var audit v1.AuditLogResponse
	test.DecodeResponse(suite.T(), &r, &audit)

	require.Len(suite.T(), audit.Data, 1)
	assert.True(suite.T(), audit.Data[0].NewAmount.IsZero())
	assert.Equal(suite.T(), "transaction deleted", audit.Data[0].ChangeReason)
	assert.Equal(suite.T(), "system", audit.Data[0].ChangedByID)

	// Deleting again fails, the effect is not reversed twice
	r = test.Request(suite.T(), http.MethodDelete, transaction.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
	assert.True(suite.T(), accountBalance(suite.T(), account).Equal(decimal.NewFromFloat(1000)))
}

// TestTransactionsDeleteWithReason verifies that a custom reason and person
// are recorded for deletions.
func (suite *TestSuiteStandard) TestTransactionsDeleteWithReason() {
	account := createTestAccount(suite.T(), v1.AccountEditable{})

	transaction := createTestTransaction(suite.T(), v1.TransactionEditable{
		Amount:               decimal.NewFromFloat(50),
		DestinationAccountID: &account.Data.ID,
	})

	r := test.Request(suite.T(), http.MethodDelete, fmt.Sprintf("%s?reason=duplicate entry&changedById=treasurer-anna", transaction.Data.Links.Self), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodGet, transaction.Data.Links.Audit, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var audit v1.AuditLogResponse
	test.DecodeResponse(suite.T(), &r, &audit)

	require.Len(suite.T(), audit.Data, 1)
	assert.Equal(suite.T(), "duplicate entry", audit.Data[0].ChangeReason)
	assert.Equal(suite.T(), "treasurer-anna", audit.Data[0].ChangedByID)
}

// TestTransactionsAuditLogNotFound verifies the audit endpoint error cases.
func (suite *TestSuiteStandard) TestTransactionsAuditLogNotFound() {
	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"No transaction with this ID", uuid.New().String(), http.StatusNotFound},
		{"Not a valid UUID", "notaUUID", http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/transactions/%s/audit", tt.id), "")
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}
