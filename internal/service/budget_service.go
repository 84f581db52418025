package service

import (
	"context"
	"fmt"
	"time"

	"spendscan/internal/dto"
	"spendscan/internal/models"

	"go.uber.org/zap"
)

// BudgetStore persists per-category budgets, unique by category.
type BudgetStore interface {
	Upsert(ctx context.Context, category models.Category, amount float64) (*models.Budget, error)
	List(ctx context.Context) ([]*models.Budget, error)
}

// CategoryTotaler sums completed-receipt spending per category for a range.
type CategoryTotaler interface {
	CategoryTotals(ctx context.Context, start, end time.Time) (map[models.Category]float64, error)
}

type BudgetService struct {
	budgets  BudgetStore
	receipts CategoryTotaler
	logger   *zap.Logger
}

func NewBudgetService(budgets BudgetStore, receipts CategoryTotaler, logger *zap.Logger) *BudgetService {
	return &BudgetService{
		budgets:  budgets,
		receipts: receipts,
		logger:   logger,
	}
}

// Set upserts the budget for a category. Calling it twice with the same
// category keeps a single record.
func (s *BudgetService) Set(ctx context.Context, category models.Category, amount float64) (*dto.BudgetResponse, error) {
	budget, err := s.budgets.Upsert(ctx, category, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to set budget: %w", err)
	}

	return &dto.BudgetResponse{
		ID:       budget.ID.String(),
		Category: string(budget.Category),
		Amount:   budget.Amount,
	}, nil
}

func (s *BudgetService) List(ctx context.Context) ([]dto.BudgetResponse, error) {
	budgets, err := s.budgets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	responses := make([]dto.BudgetResponse, len(budgets))
	for i, budget := range budgets {
		responses[i] = dto.BudgetResponse{
			ID:       budget.ID.String(),
			Category: string(budget.Category),
			Amount:   budget.Amount,
		}
	}

	return responses, nil
}

// History computes budget compliance per category across the month span
// [start, end], both given as year/month pairs. Budgets are taken as static
// over the span; months only count for a category when its budget is > 0.
func (s *BudgetService) History(ctx context.Context, startYear int, startMonth time.Month, endYear int, endMonth time.Month) (*dto.BudgetHistoryResponse, error) {
	budgetsList, err := s.budgets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	budgets := make(map[models.Category]float64, len(budgetsList))
	for _, budget := range budgetsList {
		budgets[budget.Category] = budget.Amount
	}

	months := monthsBetween(startYear, startMonth, endYear, endMonth)

	perMonth := make([]map[models.Category]float64, len(months))
	for i, month := range months {
		start, end := MonthRange(month.Year, time.Month(month.Month), time.UTC)
		totals, err := s.receipts.CategoryTotals(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to total month %d-%02d: %w", month.Year, month.Month, err)
		}
		perMonth[i] = totals
	}

	return &dto.BudgetHistoryResponse{
		Stats:  computeBudgetStats(budgets, perMonth),
		Months: months,
	}, nil
}

// monthsBetween lists the calendar months from start to end inclusive.
func monthsBetween(startYear int, startMonth time.Month, endYear int, endMonth time.Month) []dto.MonthRef {
	var months []dto.MonthRef
	year, month := startYear, startMonth
	for year < endYear || (year == endYear && month <= endMonth) {
		months = append(months, dto.MonthRef{Year: year, Month: int(month)})
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return months
}

// computeBudgetStats buckets each month as under or over budget per category
// and averages the percentage margin within each bucket. A month where
// spending exactly meets the budget counts as under.
func computeBudgetStats(budgets map[models.Category]float64, perMonth []map[models.Category]float64) map[string]dto.CategoryBudgetStats {
	stats := make(map[string]dto.CategoryBudgetStats, len(budgets))

	for category, budget := range budgets {
		var under, over, count int
		var totalUnderPct, totalOverPct float64

		if budget > 0 {
			for _, totals := range perMonth {
				spent := totals[category]
				count++
				if spent <= budget {
					under++
					totalUnderPct += (budget - spent) / budget * 100
				} else {
					over++
					totalOverPct += (spent - budget) / budget * 100
				}
			}
		}

		categoryStats := dto.CategoryBudgetStats{
			MonthsUnder: under,
			MonthsOver:  over,
			TotalMonths: count,
		}
		if under > 0 {
			categoryStats.AvgUnderPct = totalUnderPct / float64(under)
		}
		if over > 0 {
			categoryStats.AvgOverPct = totalOverPct / float64(over)
		}
		stats[string(category)] = categoryStats
	}

	return stats
}
