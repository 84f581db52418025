package service

import (
	"context"
	"fmt"
	"time"

	"spendscan/internal/dto"
	"spendscan/internal/models"
	"spendscan/internal/repository"

	"go.uber.org/zap"
)

const topListLimit = 5

// AnalyticsStore is the slice of the receipt repository the analytics
// queries need. Only completed receipts feed any of it.
type AnalyticsStore interface {
	ListCompletedBetween(ctx context.Context, start, end time.Time) ([]*models.Receipt, error)
	DailyTotals(ctx context.Context, start, end time.Time) ([]repository.DailyTotalRow, error)
	TopMerchants(ctx context.Context, start, end time.Time, limit uint64) ([]repository.MerchantTotalRow, error)
	TopItems(ctx context.Context, start, end time.Time, limit uint64) ([]repository.ItemStatRow, error)
}

// BudgetLister exposes the stored budgets for inclusion in the analytics view.
type BudgetLister interface {
	List(ctx context.Context) ([]*models.Budget, error)
}

type AnalyticsService struct {
	receipts AnalyticsStore
	budgets  BudgetLister
	logger   *zap.Logger
}

func NewAnalyticsService(receipts AnalyticsStore, budgets BudgetLister, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		receipts: receipts,
		budgets:  budgets,
		logger:   logger,
	}
}

// Monthly assembles the spending dashboard for [start, end].
func (s *AnalyticsService) Monthly(ctx context.Context, start, end time.Time) (*dto.AnalyticsResponse, error) {
	receipts, err := s.receipts.ListCompletedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	monthlyTotal, categoryTotals := sumByCategory(receipts)

	daily, err := s.receipts.DailyTotals(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily spending: %w", err)
	}

	topMerchants, err := s.receipts.TopMerchants(ctx, start, end, topListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank merchants: %w", err)
	}

	topItems, err := s.receipts.TopItems(ctx, start, end, topListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank items: %w", err)
	}

	budgets, err := s.budgets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	response := &dto.AnalyticsResponse{
		MonthlyTotal:   monthlyTotal,
		CategoryTotals: categoryTotals,
		DailySpending:  make([]dto.DailySpending, len(daily)),
		TopMerchants:   make([]dto.MerchantTotal, len(topMerchants)),
		TopItems:       make([]dto.ItemStat, len(topItems)),
		Budgets:        make([]dto.BudgetResponse, len(budgets)),
		Metadata: dto.AnalyticsMetadata{
			StartDate:    start.Format(time.RFC3339),
			EndDate:      end.Format(time.RFC3339),
			ReceiptCount: len(receipts),
		},
	}
	for i, row := range daily {
		response.DailySpending[i] = dto.DailySpending{Date: row.Date, Total: row.Total}
	}
	for i, row := range topMerchants {
		response.TopMerchants[i] = dto.MerchantTotal{Merchant: row.Merchant, Total: row.Total}
	}
	for i, row := range topItems {
		response.TopItems[i] = dto.ItemStat{Name: row.Name, TotalSpent: row.TotalSpent, Count: row.Count}
	}
	for i, budget := range budgets {
		response.Budgets[i] = dto.BudgetResponse{
			ID:       budget.ID.String(),
			Category: string(budget.Category),
			Amount:   budget.Amount,
		}
	}

	return response, nil
}

// sumByCategory totals completed receipts overall and per category,
// skipping receipts whose total was never extracted.
func sumByCategory(receipts []*models.Receipt) (float64, map[string]float64) {
	var total float64
	categoryTotals := make(map[string]float64)

	for _, receipt := range receipts {
		if receipt.Total == nil {
			continue
		}
		categoryTotals[string(receipt.Category)] += *receipt.Total
		total += *receipt.Total
	}

	return total, categoryTotals
}

// MonthRange returns the inclusive bounds of a calendar month, the end
// clamped to the last millisecond of its final day.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}

// CurrentMonthRange is MonthRange for the month containing now.
func CurrentMonthRange(now time.Time) (time.Time, time.Time) {
	return MonthRange(now.Year(), now.Month(), now.Location())
}
