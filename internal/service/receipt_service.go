package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"spendscan/internal/dto"
	"spendscan/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReceiptStore is the slice of the receipt repository the upload and lookup
// paths need.
type ReceiptStore interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// Dispatcher schedules background extraction for an uploaded receipt.
type Dispatcher interface {
	Enqueue(receiptID uuid.UUID, filePath string) error
}

type ReceiptService struct {
	store      ReceiptStore
	dispatcher Dispatcher
	uploadDir  string
	logger     *zap.Logger
}

func NewReceiptService(store ReceiptStore, dispatcher Dispatcher, uploadDir string, logger *zap.Logger) *ReceiptService {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		logger.Warn("Failed to create upload directory", zap.Error(err))
	}

	return &ReceiptService{
		store:      store,
		dispatcher: dispatcher,
		uploadDir:  uploadDir,
		logger:     logger,
	}
}

// Upload stores the file, inserts the receipt as processing, and hands it to
// the background processor. It returns before extraction runs; callers learn
// the outcome by polling the lookup endpoint. When the processing queue is
// full the receipt is marked failed and ErrQueueFull is returned.
func (s *ReceiptService) Upload(ctx context.Context, file io.Reader, filename, mimeType string, size int64, category models.Category) (*dto.UploadReceiptResponse, error) {
	receiptID := uuid.New()
	storedName := receiptID.String() + filepath.Ext(filename)
	filePath := filepath.Join(s.uploadDir, storedName)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	receipt := &models.Receipt{
		ID:         receiptID,
		Filename:   filename,
		Path:       filePath,
		MimeType:   mimeType,
		SizeBytes:  size,
		Category:   category,
		UploadDate: time.Now(),
		Status:     models.StatusProcessing,
	}

	if err := s.store.Create(ctx, receipt); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to create receipt record: %w", err)
	}

	if err := s.dispatcher.Enqueue(receiptID, filePath); err != nil {
		// The record exists but no worker will ever pick it up; fail it now
		// so pollers see a terminal state instead of processing forever.
		if markErr := s.store.MarkFailed(ctx, receiptID); markErr != nil {
			s.logger.Error("Failed to mark rejected receipt as failed",
				zap.String("receipt_id", receiptID.String()),
				zap.Error(markErr),
			)
		}
		return nil, err
	}

	return &dto.UploadReceiptResponse{
		Message: "File uploaded and processing started",
		Receipt: dto.ReceiptSummary{
			ID:         receipt.ID.String(),
			Filename:   receipt.Filename,
			Category:   string(receipt.Category),
			UploadDate: receipt.UploadDate.Format(time.RFC3339),
			Status:     string(receipt.Status),
		},
	}, nil
}

// Get returns the polling view of a receipt. Data is populated only for
// completed receipts; processing and failed receipts report data as null.
func (s *ReceiptService) Get(ctx context.Context, id uuid.UUID) (*dto.ReceiptStatusResponse, error) {
	receipt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := &dto.ReceiptStatusResponse{
		ID:     receipt.ID.String(),
		Status: string(receipt.Status),
	}

	if receipt.Status == models.StatusCompleted {
		data := &dto.ReceiptData{
			Merchant: receipt.Merchant,
			Total:    receipt.Total,
			Category: string(receipt.Category),
			Items:    make([]dto.ReceiptItem, len(receipt.Items)),
		}
		if receipt.Date != nil {
			date := receipt.Date.Format("2006-01-02")
			data.Date = &date
		}
		for i, item := range receipt.Items {
			data.Items[i] = dto.ReceiptItem{Name: item.Name, Price: item.Price}
		}
		response.Data = data
	}

	return response, nil
}
