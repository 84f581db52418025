package repository

import (
	"context"

	"spendscan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type BudgetRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBudgetRepository(db *pgxpool.Pool, logger *zap.Logger) *BudgetRepository {
	return &BudgetRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or replaces the budget for a category. Budgets are unique
// by category, so repeated calls never create duplicates.
func (r *BudgetRepository) Upsert(ctx context.Context, category models.Category, amount float64) (*models.Budget, error) {
	query := squirrel.Insert("budgets").
		Columns("id", "category", "amount").
		Values(uuid.New(), category, amount).
		Suffix("ON CONFLICT (category) DO UPDATE SET amount = EXCLUDED.amount RETURNING id, category, amount").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var budget models.Budget
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&budget.ID, &budget.Category, &budget.Amount); err != nil {
		return nil, err
	}

	return &budget, nil
}

func (r *BudgetRepository) List(ctx context.Context) ([]*models.Budget, error) {
	query := squirrel.Select("id", "category", "amount").
		From("budgets").
		OrderBy("category ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []*models.Budget
	for rows.Next() {
		var budget models.Budget
		if err := rows.Scan(&budget.ID, &budget.Category, &budget.Amount); err != nil {
			return nil, err
		}
		budgets = append(budgets, &budget)
	}

	return budgets, rows.Err()
}
