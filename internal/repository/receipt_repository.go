package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"spendscan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ReceiptRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReceiptRepository(db *pgxpool.Pool, logger *zap.Logger) *ReceiptRepository {
	return &ReceiptRepository{
		db:     db,
		logger: logger,
	}
}

// DailyTotalRow is one day's summed spending, ordered by day.
type DailyTotalRow struct {
	Date  string
	Total float64
}

// MerchantTotalRow is one merchant's summed spending.
type MerchantTotalRow struct {
	Merchant string
	Total    float64
}

// ItemStatRow aggregates one line-item name across receipts.
type ItemStatRow struct {
	Name       string
	TotalSpent float64
	Count      int
}

func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	query := squirrel.Insert("receipts").
		Columns("id", "filename", "path", "mime_type", "size_bytes", "category", "upload_date", "status").
		Values(receipt.ID, receipt.Filename, receipt.Path, receipt.MimeType, receipt.SizeBytes, receipt.Category, receipt.UploadDate, receipt.Status).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ReceiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	query := squirrel.Select("id", "filename", "path", "mime_type", "size_bytes", "category", "upload_date",
		"merchant", "receipt_date", "total", "items", "raw_text", "confidence", "status").
		From("receipts").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var receipt models.Receipt
	var itemsRaw []byte
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&receipt.ID, &receipt.Filename, &receipt.Path, &receipt.MimeType, &receipt.SizeBytes,
		&receipt.Category, &receipt.UploadDate, &receipt.Merchant, &receipt.Date, &receipt.Total,
		&itemsRaw, &receipt.RawText, &receipt.Confidence, &receipt.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &receipt.Items); err != nil {
			return nil, fmt.Errorf("failed to decode receipt items: %w", err)
		}
	}

	return &receipt, nil
}

// CompleteExtraction writes the extracted fields and moves the receipt to
// completed. Only receipts still in processing are touched, so a terminal
// state is never overwritten.
func (r *ReceiptRepository) CompleteExtraction(ctx context.Context, id uuid.UUID, result *models.ExtractionResult) error {
	itemsRaw, err := json.Marshal(result.Items)
	if err != nil {
		return fmt.Errorf("failed to encode receipt items: %w", err)
	}

	query := squirrel.Update("receipts").
		Set("merchant", result.Merchant).
		Set("receipt_date", result.Date).
		Set("total", result.Total).
		Set("items", itemsRaw).
		Set("raw_text", result.RawText).
		Set("confidence", result.Confidence).
		Set("status", models.StatusCompleted).
		Where(squirrel.Eq{"id": id, "status": models.StatusProcessing}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		r.logger.Warn("Receipt already terminal, completion skipped", zap.String("receipt_id", id.String()))
	}
	return nil
}

// MarkFailed moves a processing receipt to failed, leaving extraction fields unset.
func (r *ReceiptRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Update("receipts").
		Set("status", models.StatusFailed).
		Where(squirrel.Eq{"id": id, "status": models.StatusProcessing}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// ListCompletedBetween returns completed receipts uploaded within [start, end].
func (r *ReceiptRepository) ListCompletedBetween(ctx context.Context, start, end time.Time) ([]*models.Receipt, error) {
	query := squirrel.Select("id", "filename", "path", "mime_type", "size_bytes", "category", "upload_date",
		"merchant", "receipt_date", "total", "items", "raw_text", "confidence", "status").
		From("receipts").
		Where(squirrel.Eq{"status": models.StatusCompleted}).
		Where(squirrel.GtOrEq{"upload_date": start}).
		Where(squirrel.LtOrEq{"upload_date": end}).
		OrderBy("upload_date ASC").
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

	var receipts []*models.Receipt
	for rows.Next() {
		var receipt models.Receipt
		var itemsRaw []byte
		if err := rows.Scan(
			&receipt.ID, &receipt.Filename, &receipt.Path, &receipt.MimeType, &receipt.SizeBytes,
			&receipt.Category, &receipt.UploadDate, &receipt.Merchant, &receipt.Date, &receipt.Total,
			&itemsRaw, &receipt.RawText, &receipt.Confidence, &receipt.Status,
		); err != nil {
			return nil, err
		}
		if len(itemsRaw) > 0 {
			if err := json.Unmarshal(itemsRaw, &receipt.Items); err != nil {
				return nil, fmt.Errorf("failed to decode receipt items: %w", err)
			}
		}
		receipts = append(receipts, &receipt)
	}

	return receipts, rows.Err()
}

// DailyTotals sums completed-receipt totals per upload day within [start, end].
func (r *ReceiptRepository) DailyTotals(ctx context.Context, start, end time.Time) ([]DailyTotalRow, error) {
	query := squirrel.Select("to_char(upload_date, 'YYYY-MM-DD') AS day", "COALESCE(SUM(total), 0)").
		From("receipts").
		Where(squirrel.Eq{"status": models.StatusCompleted}).
		Where(squirrel.NotEq{"total": nil}).
		Where(squirrel.GtOrEq{"upload_date": start}).
		Where(squirrel.LtOrEq{"upload_date": end}).
		GroupBy("day").
		OrderBy("day ASC").
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

	var totals []DailyTotalRow
	for rows.Next() {
		var row DailyTotalRow
		if err := rows.Scan(&row.Date, &row.Total); err != nil {
			return nil, err
		}
		totals = append(totals, row)
	}

	return totals, rows.Err()
}

// TopMerchants ranks merchants by summed spending, highest first.
func (r *ReceiptRepository) TopMerchants(ctx context.Context, start, end time.Time, limit uint64) ([]MerchantTotalRow, error) {
	query := squirrel.Select("merchant", "SUM(total) AS total").
		From("receipts").
		Where(squirrel.Eq{"status": models.StatusCompleted}).
		Where(squirrel.NotEq{"merchant": nil}).
		Where(squirrel.NotEq{"total": nil}).
		Where(squirrel.GtOrEq{"upload_date": start}).
		Where(squirrel.LtOrEq{"upload_date": end}).
		GroupBy("merchant").
		OrderBy("total DESC").
		Limit(limit).
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

	var merchants []MerchantTotalRow
	for rows.Next() {
		var row MerchantTotalRow
		if err := rows.Scan(&row.Merchant, &row.Total); err != nil {
			return nil, err
		}
		merchants = append(merchants, row)
	}

	return merchants, rows.Err()
}

// TopItems unnests the jsonb line items of completed receipts and ranks item
// names by purchase count, highest first.
func (r *ReceiptRepository) TopItems(ctx context.Context, start, end time.Time, limit uint64) ([]ItemStatRow, error) {
	query := squirrel.Select(
		"item->>'name' AS name",
		"COALESCE(SUM((item->>'price')::double precision), 0) AS total_spent",
		"COUNT(*) AS purchase_count",
	).
		From("receipts, jsonb_array_elements(receipts.items) AS item").
		Where(squirrel.Eq{"status": models.StatusCompleted}).
		Where(squirrel.NotEq{"items": nil}).
		Where(squirrel.GtOrEq{"upload_date": start}).
		Where(squirrel.LtOrEq{"upload_date": end}).
		GroupBy("name").
		OrderBy("purchase_count DESC").
		Limit(limit).
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

	var items []ItemStatRow
	for rows.Next() {
		var row ItemStatRow
		if err := rows.Scan(&row.Name, &row.TotalSpent, &row.Count); err != nil {
			return nil, err
		}
		items = append(items, row)
	}

	return items, rows.Err()
}

// CategoryTotals sums completed-receipt totals per category within [start, end].
func (r *ReceiptRepository) CategoryTotals(ctx context.Context, start, end time.Time) (map[models.Category]float64, error) {
	query := squirrel.Select("category", "COALESCE(SUM(total), 0)").
		From("receipts").
		Where(squirrel.Eq{"status": models.StatusCompleted}).
		Where(squirrel.NotEq{"total": nil}).
		Where(squirrel.GtOrEq{"upload_date": start}).
		Where(squirrel.LtOrEq{"upload_date": end}).
		GroupBy("category").
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

	totals := make(map[models.Category]float64)
	for rows.Next() {
		var category models.Category
		var total float64
		if err := rows.Scan(&category, &total); err != nil {
			return nil, err
		}
		totals[category] = total
	}

	return totals, rows.Err()
}
