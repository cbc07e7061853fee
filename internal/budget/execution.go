// Package budget computes budget execution: how actual ledger activity
// compares against the allocations of a budget period. It only ever reads.
package budget

import (
	"github.com/google/uuid"
	"github.com/parish-ledger/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AllocationExecution is the computed execution of a single allocation.
type AllocationExecution struct {
	Allocation models.BudgetAllocation
	Spent      decimal.Decimal
	Remaining  decimal.Decimal
	Usage      decimal.Decimal // percentage, 0 when the allocation amount is 0
}

// Summary aggregates the execution over all allocations of a period.
type Summary struct {
	TotalBudget decimal.Decimal
	TotalSpent  decimal.Decimal
	Remaining   decimal.Decimal
	Usage       decimal.Decimal // percentage, 0 when the total budget is 0
}

// Execution is the full execution report for a budget period.
type Execution struct {
	Period      models.BudgetPeriod
	Summary     Summary
	Allocations []AllocationExecution
}

// Compute loads a budget period and computes the execution of all its
// allocations from the committed ledger history.
//
// Every matching transaction is counted against exactly one allocation.
// When several allocations match, the most specific one wins: ministry and
// category both set, then category only, then ministry only. Allocations
// without a category track expenses, allocations with a category follow the
// category kind.
func Compute(db *gorm.DB, periodID uuid.UUID) (Execution, error) {
	var period models.BudgetPeriod
	err := db.First(&period, "id = ?", periodID).Error
	if err != nil {
		return Execution{}, err
	}

	var allocations []models.BudgetAllocation
	err = db.
		Where(models.BudgetAllocation{BudgetPeriodID: period.ID}).
		Order("datetime(created_at) ASC, id ASC").
		Find(&allocations).Error
	if err != nil {
		return Execution{}, err
	}

	transactions, err := periodTransactions(db, period)
	if err != nil {
		return Execution{}, err
	}

	categories, err := categoriesByID(db)
	if err != nil {
		return Execution{}, err
	}

	spent := make(map[uuid.UUID]decimal.Decimal, len(allocations))
	for _, t := range transactions {
		allocation, ok := match(t, allocations, categories)
		if !ok {
			continue
		}

		spent[allocation.ID] = spent[allocation.ID].Add(t.Amount)
	}

	execution := Execution{
		Period:      period,
		Allocations: make([]AllocationExecution, 0, len(allocations)),
	}

	for _, allocation := range allocations {
		row := AllocationExecution{
			Allocation: allocation,
			Spent:      spent[allocation.ID],
			Remaining:  allocation.Amount.Sub(spent[allocation.ID]),
			Usage:      usage(spent[allocation.ID], allocation.Amount),
		}

		execution.Allocations = append(execution.Allocations, row)
		execution.Summary.TotalBudget = execution.Summary.TotalBudget.Add(allocation.Amount)
		execution.Summary.TotalSpent = execution.Summary.TotalSpent.Add(row.Spent)
	}

	execution.Summary.Remaining = execution.Summary.TotalBudget.Sub(execution.Summary.TotalSpent)
	execution.Summary.Usage = usage(execution.Summary.TotalSpent, execution.Summary.TotalBudget)

	return execution, nil
}

// usage is spent / allocated * 100. The division by zero boundary case is
// pinned to 0, not NaN or an error.
func usage(spent, allocated decimal.Decimal) decimal.Decimal {
	if allocated.IsZero() {
		return decimal.Zero
	}

	return spent.Div(allocated).Mul(decimal.NewFromInt(100))
}

// periodTransactions returns the non-deleted COMPLETED income and expense
// transactions dated inside the period. Transfers move money between
// accounts without leaving the books and never count against a budget.
func periodTransactions(db *gorm.DB, period models.BudgetPeriod) ([]models.Transaction, error) {
	var transactions []models.Transaction

	err := db.
		Where(models.Transaction{Status: models.TransactionStatusCompleted}).
		Where("datetime(transactions.date) >= datetime(?)", period.StartDate).
		Where("datetime(transactions.date) <= datetime(?)", period.EndDate).
		Where("(transactions.source_account_id IS NULL) != (transactions.destination_account_id IS NULL)").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

func categoriesByID(db *gorm.DB) (map[uuid.UUID]models.Category, error) {
	var categories []models.Category
	err := db.Find(&categories).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Category, len(categories))
	for _, category := range categories {
		byID[category.ID] = category
	}

	return byID, nil
}

// match finds the allocation a transaction counts against. The bool result
// is false when no allocation matches.
func match(t models.Transaction, allocations []models.BudgetAllocation, categories map[uuid.UUID]models.Category) (models.BudgetAllocation, bool) {
	kind, err := t.Kind()
	if err != nil {
		return models.BudgetAllocation{}, false
	}

	var best models.BudgetAllocation
	bestRank := 0

	for _, allocation := range allocations {
		r := rank(t, kind, allocation, categories)
		if r > bestRank {
			best = allocation
			bestRank = r
		}
	}

	return best, bestRank > 0
}

// rank scores how specifically an allocation matches a transaction. 0 means
// no match. Ministry and category both set ranks highest, then category
// only, then ministry only, so a transaction is never double counted by
// overlapping allocations.
func rank(t models.Transaction, kind models.TransactionKind, allocation models.BudgetAllocation, categories map[uuid.UUID]models.Category) int {
	if allocation.MinistryID != nil {
		if t.MinistryID == nil || *t.MinistryID != *allocation.MinistryID {
			return 0
		}
	}

	if allocation.CategoryID != nil {
		if t.CategoryID == nil || *t.CategoryID != *allocation.CategoryID {
			return 0
		}

		// An allocation on an income category tracks income received,
		// everything else tracks expenses
		category := categories[*allocation.CategoryID]
		if category.Kind == models.CategoryKindIncome && kind != models.TransactionKindIncome {
			return 0
		}
		if category.Kind == models.CategoryKindExpense && kind != models.TransactionKindExpense {
			return 0
		}
	} else if kind != models.TransactionKindExpense {
		// Ministry-only allocations are spending ceilings
		return 0
	}

	switch {
	case allocation.MinistryID != nil && allocation.CategoryID != nil:
		return 3
	case allocation.CategoryID != nil:
		return 2
	default:
		return 1
	}
}
