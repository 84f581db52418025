package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spendscan/internal/models"
	"spendscan/pkg/config"
)

type fakeProcessorStore struct {
	mu        sync.Mutex
	completed map[uuid.UUID]*models.ExtractionResult
	failed    map[uuid.UUID]bool
	done      chan uuid.UUID
}

func newFakeProcessorStore() *fakeProcessorStore {
	return &fakeProcessorStore{
		completed: make(map[uuid.UUID]*models.ExtractionResult),
		failed:    make(map[uuid.UUID]bool),
		done:      make(chan uuid.UUID, 16),
	}
}

func (f *fakeProcessorStore) CompleteExtraction(_ context.Context, id uuid.UUID, result *models.ExtractionResult) error {
	f.mu.Lock()
	f.completed[id] = result
	f.mu.Unlock()
	f.done <- id
	return nil
}

func (f *fakeProcessorStore) MarkFailed(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	f.failed[id] = true
	f.mu.Unlock()
	f.done <- id
	return nil
}

type fakeOCR struct {
	transcript *Transcript
	err        error
}

func (f *fakeOCR) Recognize(context.Context, string) (*Transcript, error) {
	return f.transcript, f.err
}

type fakeMerchants struct {
	merchant *string
}

func (f *fakeMerchants) Resolve(context.Context, string) *string {
	return f.merchant
}

func stringPtr(s string) *string { return &s }

func waitForJob(t *testing.T, store *fakeProcessorStore) uuid.UUID {
	t.Helper()
	select {
	case id := <-store.done:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job to finish")
		return uuid.Nil
	}
}

func newTestProcessor(store ProcessorStore, ocr TextRecognizer, merchants MerchantResolver) *ProcessorService {
	return NewProcessorService(store, ocr, merchants, &config.ProcessorConfig{
		Workers:    1,
		QueueSize:  4,
		JobTimeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestProcessor_SuccessTransitionsToCompleted(t *testing.T) {
	store := newFakeProcessorStore()
	ocr := &fakeOCR{transcript: &Transcript{
		Text:       "Corner Store\n12/03/2024\nMilk 2.50\nBread 1.20\nTotal: $3.70",
		Confidence: 91.5,
	}}
	svc := newTestProcessor(store, ocr, &fakeMerchants{merchant: stringPtr("Corner Store")})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Shutdown()

	id := uuid.New()
	require.NoError(t, svc.Enqueue(id, "/tmp/receipt.png"))
	waitForJob(t, store)

	result := store.completed[id]
	require.NotNil(t, result)
	assert.False(t, store.failed[id])

	require.NotNil(t, result.Merchant)
	assert.Equal(t, "Corner Store", *result.Merchant)
	require.NotNil(t, result.Date)
	assert.Equal(t, "2024-03-12", result.Date.Format("2006-01-02"))
	require.NotNil(t, result.Total)
	assert.Equal(t, 3.70, *result.Total)
	assert.Equal(t, []models.Item{
		{Name: "Milk", Price: 2.50},
		{Name: "Bread", Price: 1.20},
	}, result.Items)
	assert.Equal(t, 91.5, result.Confidence)
}

func TestProcessor_OCRFailureTransitionsToFailed(t *testing.T) {
	store := newFakeProcessorStore()
	svc := newTestProcessor(store, &fakeOCR{err: errors.New("engine unreachable")}, &fakeMerchants{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Shutdown()

	id := uuid.New()
	require.NoError(t, svc.Enqueue(id, "/tmp/receipt.png"))
	waitForJob(t, store)

	assert.True(t, store.failed[id])
	assert.NotContains(t, store.completed, id)
}

func TestProcessor_FieldMissesAreNotFailures(t *testing.T) {
	store := newFakeProcessorStore()
	ocr := &fakeOCR{transcript: &Transcript{Text: "illegible smudge", Confidence: 12}}
	svc := newTestProcessor(store, ocr, &fakeMerchants{merchant: stringPtr("illegible smudge")})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Shutdown()

	id := uuid.New()
	require.NoError(t, svc.Enqueue(id, "/tmp/receipt.png"))
	waitForJob(t, store)

	result := store.completed[id]
	require.NotNil(t, result)
	assert.Nil(t, result.Date)
	assert.Nil(t, result.Total)
	assert.Empty(t, result.Items)
	assert.Equal(t, "illegible smudge", result.RawText)
}

func TestProcessor_EnqueueRejectsWhenQueueFull(t *testing.T) {
	// Workers never started, so the queue fills up and stays full.
	svc := newTestProcessor(newFakeProcessorStore(), &fakeOCR{}, &fakeMerchants{})

	for i := 0; i < 4; i++ {
		require.NoError(t, svc.Enqueue(uuid.New(), "/tmp/receipt.png"))
	}

	err := svc.Enqueue(uuid.New(), "/tmp/receipt.png")
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestExtract_PropagatesOCRError(t *testing.T) {
	svc := newTestProcessor(newFakeProcessorStore(), &fakeOCR{err: errors.New("unreadable file")}, &fakeMerchants{})

	_, err := svc.Extract(context.Background(), "/tmp/receipt.png")

	assert.ErrorContains(t, err, "unreadable file")
}
