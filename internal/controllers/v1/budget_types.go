package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/parish-ledger/backend/internal/budget"
	"github.com/parish-ledger/backend/internal/httputil"
	"github.com/parish-ledger/backend/internal/models"
	ez_uuid "github.com/parish-ledger/backend/internal/uuid"
	"github.com/shopspring/decimal"
)

type BudgetPeriodEditable struct {
	Name      string                  `json:"name" example:"March 2024" default:""`
	Type      models.BudgetPeriodType `json:"type" example:"MONTHLY"`                   // One of MONTHLY, YEARLY
	StartDate time.Time               `json:"startDate" example:"2024-03-01T00:00:00Z"` // First day of the period
	EndDate   time.Time               `json:"endDate" example:"2024-03-31T00:00:00Z"`   // Last day of the period, inclusive
	Currency  string                  `json:"currency" example:"EUR"`                   // ISO 4217 code
}

// model returns the database resource for the API representation of the editable fields
func (editable BudgetPeriodEditable) model() models.BudgetPeriod {
	return models.BudgetPeriod{
		Name:      editable.Name,
		Type:      editable.Type,
		StartDate: editable.StartDate,
		EndDate:   editable.EndDate,
		Currency:  editable.Currency,
	}
}

type BudgetPeriodLinks struct {
	Self        string `json:"self" example:"https://example.com/api/v1/budget/periods/a2aa0c01-dd5d-4eb1-b90c-7cbdf4e52dba"`                   // The budget period itself
	Allocations string `json:"allocations" example:"https://example.com/api/v1/budget/allocations?period=a2aa0c01-dd5d-4eb1-b90c-7cbdf4e52dba"` // Allocations for the period
	Execution   string `json:"execution" example:"https://example.com/api/v1/budget/execution/a2aa0c01-dd5d-4eb1-b90c-7cbdf4e52dba"`            // Budget execution for the period
}

// BudgetPeriod is the representation of a BudgetPeriod in API v1.
type BudgetPeriod struct {
	models.DefaultModel
	BudgetPeriodEditable
	Links BudgetPeriodLinks `json:"links"`
}

// newBudgetPeriod returns the API v1 representation of the resource
func newBudgetPeriod(c *gin.Context, model models.BudgetPeriod) BudgetPeriod {
	url := httputil.RequestHost(c)

	return BudgetPeriod{
		DefaultModel: model.DefaultModel,
		BudgetPeriodEditable: BudgetPeriodEditable{
			Name:      model.Name,
			Type:      model.Type,
			StartDate: model.StartDate,
			EndDate:   model.EndDate,
			Currency:  model.Currency,
		},
		Links: BudgetPeriodLinks{
			Self:        fmt.Sprintf("%s/v1/budget/periods/%s", url, model.ID),
			Allocations: fmt.Sprintf("%s/v1/budget/allocations?period=%s", url, model.ID),
			Execution:   fmt.Sprintf("%s/v1/budget/execution/%s", url, model.ID),
		},
	}
}

type BudgetPeriodListResponse struct {
	Data       []BudgetPeriod `json:"data"`                                                          // List of budget periods
	Error      *string        `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination    `json:"pagination"`                                                    // Pagination information
}

type BudgetPeriodCreateResponse struct {
	Data  []BudgetPeriodResponse `json:"data"`                                                          // List of the created periods or their respective error
	Error *string                `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (r *BudgetPeriodCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, BudgetPeriodResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type BudgetPeriodResponse struct {
	Data  *BudgetPeriod `json:"data"`                                                          // The period data, if the request was successful
	Error *string       `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type BudgetPeriodQueryFilter struct {
	Name     string                  `form:"name" filterField:"false"`   // Name contains this string
	Type     models.BudgetPeriodType `form:"type"`                       // Period type
	Currency string                  `form:"currency"`                   // ISO 4217 code
	Offset   uint                    `form:"offset" filterField:"false"` // The offset of the first period returned. Defaults to 0.
	Limit    int                     `form:"limit" filterField:"false"`  // Maximum number of periods to return. Defaults to 50.
}

func (f BudgetPeriodQueryFilter) model() models.BudgetPeriod {
	return models.BudgetPeriod{
		Type:     f.Type,
		Currency: f.Currency,
	}
}

type BudgetAllocationEditable struct {
	BudgetPeriodID uuid.UUID  `json:"budgetPeriodId" example:"a2aa0c01-dd5d-4eb1-b90c-7cbdf4e52dba"` // ID of the period the allocation belongs to
	MinistryID     *uuid.UUID `json:"ministryId" example:"90b077fb-ca32-4dc9-b12f-3c4a6c45b1e4"`     // Scope: ministry, optional
	CategoryID     *uuid.UUID `json:"categoryId" example:"2649c965-7999-4873-ae16-89d5d5fa972e"`     // Scope: category, optional

	Amount decimal.Decimal `json:"amount" example:"1000" minimum:"0" maximum:"999999999999.99999999" multipleOf:"0.00000001"` // The allocated amount
}

// model returns the database resource for the API representation of the editable fields
func (editable BudgetAllocationEditable) model() models.BudgetAllocation {
	return models.BudgetAllocation{
		BudgetPeriodID: editable.BudgetPeriodID,
		MinistryID:     editable.MinistryID,
		CategoryID:     editable.CategoryID,
		Amount:         editable.Amount,
	}
}

type BudgetAllocationLinks struct {
	Self   string `json:"self" example:"https://example.com/api/v1/budget/allocations/af892e10-7e0a-4fb8-b1bc-4b6d88401ed2"` // The allocation itself
	Period string `json:"period" example:"https://example.com/api/v1/budget/periods/a2aa0c01-dd5d-4eb1-b90c-7cbdf4e52dba"`   // The period the allocation belongs to
}

// BudgetAllocation is the representation of a BudgetAllocation in API v1.
type BudgetAllocation struct {
	models.DefaultModel
	BudgetAllocationEditable
	Links BudgetAllocationLinks `json:"links"`
}

// newBudgetAllocation returns the API v1 representation of the resource
func newBudgetAllocation(c *gin.Context, model models.BudgetAllocation) BudgetAllocation {
	url := httputil.RequestHost(c)

	return BudgetAllocation{
		DefaultModel: model.DefaultModel,
		BudgetAllocationEditable: BudgetAllocationEditable{
			BudgetPeriodID: model.BudgetPeriodID,
			MinistryID:     model.MinistryID,
			CategoryID:     model.CategoryID,
			Amount:         model.Amount,
		},
		Links: BudgetAllocationLinks{
			Self:   fmt.Sprintf("%s/v1/budget/allocations/%s", url, model.ID),
			Period: fmt.Sprintf("%s/v1/budget/periods/%s", url, model.BudgetPeriodID),
		},
	}
}

type BudgetAllocationListResponse struct {
	Data       []BudgetAllocation `json:"data"`                                                          // List of allocations
	Error      *string            `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination        `json:"pagination"`                                                    // Pagination information
}

type BudgetAllocationCreateResponse struct {
	Data  []BudgetAllocationResponse `json:"data"`                                                          // List of the created allocations or their respective error
	Error *string                    `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (r *BudgetAllocationCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, BudgetAllocationResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type BudgetAllocationResponse struct {
	Data  *BudgetAllocation `json:"data"`                                                          // The allocation data, if the request was successful
	Error *string           `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type BudgetAllocationQueryFilter struct {
	BudgetPeriodID ez_uuid.UUID `form:"period"`                     // ID of the budget period
	MinistryID     ez_uuid.UUID `form:"ministry"`                   // ID of the ministry
	CategoryID     ez_uuid.UUID `form:"category"`                   // ID of the category
	Offset         uint         `form:"offset" filterField:"false"` // The offset of the first allocation returned. Defaults to 0.
	Limit          int          `form:"limit" filterField:"false"`  // Maximum number of allocations to return. Defaults to 50.
}

func (f BudgetAllocationQueryFilter) model() models.BudgetAllocation {
	// If an ID is uuid.Nil, use an actual nil, not a pointer to uuid.Nil
	var mID, cID *uuid.UUID
	if f.MinistryID != ez_uuid.Nil {
		mID = &f.MinistryID.UUID
	}

	if f.CategoryID != ez_uuid.Nil {
		cID = &f.CategoryID.UUID
	}

	return models.BudgetAllocation{
		BudgetPeriodID: f.BudgetPeriodID.UUID,
		MinistryID:     mID,
		CategoryID:     cID,
	}
}

// AllocationExecution is one allocation with its execution numbers.
type AllocationExecution struct {
	BudgetAllocation
	SpentAmount     decimal.Decimal `json:"spentAmount" example:"700"`     // Sum of matched transaction amounts
	RemainingAmount decimal.Decimal `json:"remainingAmount" example:"300"` // Allocated minus spent, negative when over budget
	UsagePercentage decimal.Decimal `json:"usagePercentage" example:"70"`  // Spent as a percentage of the allocated amount, 0 when nothing is allocated
}

// BudgetExecutionSummary aggregates the execution over all allocations of a period.
type BudgetExecutionSummary struct {
	TotalBudget     decimal.Decimal `json:"totalBudget" example:"1000"`
	TotalSpent      decimal.Decimal `json:"totalSpent" example:"700"`
	Remaining       decimal.Decimal `json:"remaining" example:"300"`
	UsagePercentage decimal.Decimal `json:"usagePercentage" example:"70"`
}

// BudgetExecution is the representation of a budget execution report in API v1.
type BudgetExecution struct {
	Period      BudgetPeriod           `json:"period"`
	Summary     BudgetExecutionSummary `json:"summary"`
	Allocations []AllocationExecution  `json:"allocations"`
}

// newBudgetExecution returns the API v1 representation of an execution report
func newBudgetExecution(c *gin.Context, execution budget.Execution) BudgetExecution {
	allocations := make([]AllocationExecution, 0, len(execution.Allocations))
	for _, allocation := range execution.Allocations {
		allocations = append(allocations, AllocationExecution{
			BudgetAllocation: newBudgetAllocation(c, allocation.Allocation),
			SpentAmount:      allocation.Spent,
			RemainingAmount:  allocation.Remaining,
			UsagePercentage:  allocation.Usage,
		})
	}

	return BudgetExecution{
		Period: newBudgetPeriod(c, execution.Period),
		Summary: BudgetExecutionSummary{
			TotalBudget:     execution.Summary.TotalBudget,
			TotalSpent:      execution.Summary.TotalSpent,
			Remaining:       execution.Summary.Remaining,
			UsagePercentage: execution.Summary.Usage,
		},
		Allocations: allocations,
	}
}

type BudgetExecutionResponse struct {
	Data  *BudgetExecution `json:"data"`                                                          // The execution report, if the request was successful
	Error *string          `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}
