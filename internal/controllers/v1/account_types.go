package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/parish-ledger/backend/internal/httputil"
	"github.com/parish-ledger/backend/internal/models"
	"github.com/shopspring/decimal"
)

type AccountEditable struct {
	Name           string             `json:"name" example:"Main checking account" default:""`
	Type           models.AccountType `json:"type" example:"ASSET"`   // One of ASSET, LIABILITY, EQUITY
	Currency       string             `json:"currency" example:"EUR"` // ISO 4217 code
	Note           string             `json:"note" example:"Offerings go here" default:""`
	InitialBalance decimal.Decimal    `json:"initialBalance" example:"173.12" default:"0"` // Opening balance of the account
	Archived       bool               `json:"archived" example:"false" default:"false"`    // Archived accounts do not accept new transactions
}

// model returns the database resource for the API representation of the editable fields
func (editable AccountEditable) model() models.Account {
	return models.Account{
		Name:           editable.Name,
		Type:           editable.Type,
		Currency:       editable.Currency,
		Note:           editable.Note,
		InitialBalance: editable.InitialBalance,
		Archived:       editable.Archived,
	}
}

type AccountLinks struct {
	Self         string `json:"self" example:"https://example.com/api/v1/accounts/af892e10-7e0a-4fb8-b1bc-4b6d88401ed2"`                     // The account itself
	Transactions string `json:"transactions" example:"https://example.com/api/v1/transactions?account=af892e10-7e0a-4fb8-b1bc-4b6d88401ed2"` // Transactions touching the account
}

// Account is the representation of an Account in API v1.
type Account struct {
	models.DefaultModel
	AccountEditable
	Balance decimal.Decimal `json:"balance" example:"2735.17"` // Stored balance, maintained by the ledger
	Links   AccountLinks    `json:"links"`
}

// newAccount returns the API v1 representation of the resource
func newAccount(c *gin.Context, model models.Account) Account {
	url := httputil.RequestHost(c)

	return Account{
		DefaultModel: model.DefaultModel,
		AccountEditable: AccountEditable{
			Name:           model.Name,
			Type:           model.Type,
			Currency:       model.Currency,
			Note:           model.Note,
			InitialBalance: model.InitialBalance,
			Archived:       model.Archived,
		},
		Balance: model.Balance,
		Links: AccountLinks{
			Self:         fmt.Sprintf("%s/v1/accounts/%s", url, model.ID),
			Transactions: fmt.Sprintf("%s/v1/transactions?account=%s", url, model.ID),
		},
	}
}

type AccountListResponse struct {
	Data       []Account   `json:"data"`                                                          // List of accounts
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type AccountCreateResponse struct {
	Data  []AccountResponse `json:"data"`                                                          // List of the created Accounts or their respective error
	Error *string           `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (r *AccountCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, AccountResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type AccountResponse struct {
	Data  *Account `json:"data"`                                                          // The Account data, if the request was successful
	Error *string  `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type AccountQueryFilter struct {
	Name     string             `form:"name" filterField:"false"`   // Name contains this string
	Type     models.AccountType `form:"type"`                       // Account type
	Currency string             `form:"currency"`                   // ISO 4217 code
	Archived bool               `form:"archived"`                   // Is the account archived?
	Offset   uint               `form:"offset" filterField:"false"` // The offset of the first Account returned. Defaults to 0.
	Limit    int                `form:"limit" filterField:"false"`  // Maximum number of Accounts to return. Defaults to 50.
}

func (f AccountQueryFilter) model() models.Account {
	return models.Account{
		Type:     f.Type,
		Currency: f.Currency,
		Archived: f.Archived,
	}
}
