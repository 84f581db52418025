package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"spendscan/internal/models"
	"spendscan/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrQueueFull is returned by Enqueue when the bounded job queue cannot
// accept more work. Callers reject the upload rather than block.
var ErrQueueFull = errors.New("processing queue is full")

// ProcessorStore is the slice of the receipt repository the processor needs
// to drive the terminal status transition.
type ProcessorStore interface {
	CompleteExtraction(ctx context.Context, id uuid.UUID, result *models.ExtractionResult) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// MerchantResolver resolves a merchant name from a transcript, best-effort.
type MerchantResolver interface {
	Resolve(ctx context.Context, text string) *string
}

type extractionJob struct {
	receiptID uuid.UUID
	filePath  string
}

// ProcessorService runs receipt extraction on a fixed pool of workers fed by
// a bounded queue. Each receipt is enqueued at most once, by the upload
// path, and receives exactly one terminal transition: completed with the
// extracted fields, or failed with the fields left unset.
type ProcessorService struct {
	store      ProcessorStore
	ocr        TextRecognizer
	merchants  MerchantResolver
	jobs       chan extractionJob
	workers    int
	jobTimeout time.Duration
	logger     *zap.Logger
	wg         sync.WaitGroup
}

func NewProcessorService(
	store ProcessorStore,
	ocr TextRecognizer,
	merchants MerchantResolver,
	cfg *config.ProcessorConfig,
	logger *zap.Logger,
) *ProcessorService {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 16
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 2 * time.Minute
	}

	return &ProcessorService{
		store:      store,
		ocr:        ocr,
		merchants:  merchants,
		jobs:       make(chan extractionJob, queueSize),
		workers:    workers,
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

// Start launches the worker pool. Workers stop when ctx is cancelled or the
// queue is closed by Shutdown; a job already picked up runs to completion.
func (s *ProcessorService) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-s.jobs:
					if !ok {
						return
					}
					s.process(job)
				}
			}
		}()
	}
	s.logger.Info("Receipt processor started",
		zap.Int("workers", s.workers),
		zap.Int("queue_size", cap(s.jobs)),
	)
}

// Shutdown closes the queue and waits for in-flight jobs to finish.
func (s *ProcessorService) Shutdown() {
	close(s.jobs)
	s.wg.Wait()
}

// Enqueue schedules extraction for a receipt without blocking. The upload
// response does not wait on this work.
func (s *ProcessorService) Enqueue(receiptID uuid.UUID, filePath string) error {
	select {
	case s.jobs <- extractionJob{receiptID: receiptID, filePath: filePath}:
		return nil
	default:
		return ErrQueueFull
	}
}

// process runs one extraction job and applies the terminal transition.
// Dispatched jobs are never cancelled, so the job context is independent of
// the server's; only the per-job timeout bounds it.
func (s *ProcessorService) process(job extractionJob) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	result, err := s.Extract(ctx, job.filePath)
	if err != nil {
		s.logger.Error("Receipt processing failed",
			zap.String("receipt_id", job.receiptID.String()),
			zap.String("file", job.filePath),
			zap.Error(err),
		)
		// The job context may already be expired; the status write gets its own.
		storeCtx, storeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer storeCancel()
		if err := s.store.MarkFailed(storeCtx, job.receiptID); err != nil {
			s.logger.Error("Failed to mark receipt as failed",
				zap.String("receipt_id", job.receiptID.String()),
				zap.Error(err),
			)
		}
		return
	}

	if err := s.store.CompleteExtraction(ctx, job.receiptID, result); err != nil {
		s.logger.Error("Failed to store extraction result",
			zap.String("receipt_id", job.receiptID.String()),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Receipt processing completed",
		zap.String("receipt_id", job.receiptID.String()),
		zap.Float64("confidence", result.Confidence),
		zap.Int("items", len(result.Items)),
	)
}

// Extract runs OCR and the field heuristics against one file. OCR failure or
// an unreadable file is a processing error; an individual heuristic finding
// nothing is not. Merchant resolution makes a network round-trip, so it runs
// concurrently with the pattern extractors over the same immutable text.
func (s *ProcessorService) Extract(ctx context.Context, filePath string) (*models.ExtractionResult, error) {
	transcript, err := s.ocr.Recognize(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("ocr failed: %w", err)
	}

	merchantCh := make(chan *string, 1)
	go func() {
		merchantCh <- s.merchants.Resolve(ctx, transcript.Text)
	}()

	result := &models.ExtractionResult{
		Items:      extractItems(transcript.Text),
		RawText:    sanitizeUTF8(transcript.Text),
		Confidence: transcript.Confidence,
	}
	if date, ok := extractDate(transcript.Text); ok {
		result.Date = &date
	}
	if total, ok := extractTotal(transcript.Text); ok {
		result.Total = &total
	}
	if merchant := <-merchantCh; merchant != nil {
		clean := sanitizeUTF8(*merchant)
		result.Merchant = &clean
	}

	return result, nil
}
