package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spendscan/internal/dto"
	"spendscan/internal/models"
	"spendscan/internal/service"
)

type stubReceiptStore struct {
	receipts map[uuid.UUID]*models.Receipt
	created  int
	failed   []uuid.UUID
}

func newStubReceiptStore() *stubReceiptStore {
	return &stubReceiptStore{receipts: make(map[uuid.UUID]*models.Receipt)}
}

func (s *stubReceiptStore) Create(_ context.Context, receipt *models.Receipt) error {
	s.created++
	s.receipts[receipt.ID] = receipt
	return nil
}

func (s *stubReceiptStore) GetByID(_ context.Context, id uuid.UUID) (*models.Receipt, error) {
	receipt, ok := s.receipts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return receipt, nil
}

func (s *stubReceiptStore) MarkFailed(_ context.Context, id uuid.UUID) error {
	s.failed = append(s.failed, id)
	if receipt, ok := s.receipts[id]; ok {
		receipt.Status = models.StatusFailed
	}
	return nil
}

type stubDispatcher struct {
	err      error
	enqueued int
}

func (d *stubDispatcher) Enqueue(uuid.UUID, string) error {
	if d.err != nil {
		return d.err
	}
	d.enqueued++
	return nil
}

func newTestApp(t *testing.T, store *stubReceiptStore, dispatcher *stubDispatcher, maxUploadSize int64) *fiber.App {
	t.Helper()

	receiptService := service.NewReceiptService(store, dispatcher, t.TempDir(), zap.NewNop())
	handler := NewReceiptHandler(receiptService, maxUploadSize, zap.NewNop())

	app := fiber.New()
	app.Post("/api/upload", handler.Upload)
	app.Get("/api/receipt/:id", handler.Get)
	return app
}

// uploadRequest builds a multipart POST with an explicit part content type,
// which CreateFormFile cannot set.
func uploadRequest(t *testing.T, filename, mimeType, category string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if filename != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
		header.Set("Content-Type", mimeType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if category != "" {
		require.NoError(t, writer.WriteField("category", category))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["error"]
}

func TestUpload_Success(t *testing.T) {
	store := newStubReceiptStore()
	dispatcher := &stubDispatcher{}
	app := newTestApp(t, store, dispatcher, 5*1024*1024)

	req := uploadRequest(t, "receipt.jpg", "image/jpeg", "food", []byte("fake image bytes"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var uploaded dto.UploadReceiptResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	assert.Equal(t, "File uploaded and processing started", uploaded.Message)
	assert.Equal(t, "receipt.jpg", uploaded.Receipt.Filename)
	assert.Equal(t, "food", uploaded.Receipt.Category)
	assert.Equal(t, "processing", uploaded.Receipt.Status)
	assert.NotEmpty(t, uploaded.Receipt.ID)

	assert.Equal(t, 1, store.created)
	assert.Equal(t, 1, dispatcher.enqueued)
}

func TestUpload_NoFile(t *testing.T) {
	app := newTestApp(t, newStubReceiptStore(), &stubDispatcher{}, 5*1024*1024)

	req := uploadRequest(t, "", "", "food", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file uploaded", decodeError(t, resp))
}

func TestUpload_MissingCategory(t *testing.T) {
	app := newTestApp(t, newStubReceiptStore(), &stubDispatcher{}, 5*1024*1024)

	req := uploadRequest(t, "receipt.jpg", "image/jpeg", "", []byte("x"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Receipt category is required", decodeError(t, resp))
}

func TestUpload_UnknownCategory(t *testing.T) {
	app := newTestApp(t, newStubReceiptStore(), &stubDispatcher{}, 5*1024*1024)

	req := uploadRequest(t, "receipt.jpg", "image/jpeg", "groceries", []byte("x"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid receipt category", decodeError(t, resp))
}

func TestUpload_FileTooLarge(t *testing.T) {
	store := newStubReceiptStore()
	app := newTestApp(t, store, &stubDispatcher{}, 16)

	req := uploadRequest(t, "receipt.jpg", "image/jpeg", "food", bytes.Repeat([]byte("a"), 64))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "File size is too large. Max limit is 5MB", decodeError(t, resp))
	assert.Zero(t, store.created)
}

func TestUpload_RejectsUnsupportedMimeType(t *testing.T) {
	app := newTestApp(t, newStubReceiptStore(), &stubDispatcher{}, 5*1024*1024)

	req := uploadRequest(t, "notes.txt", "text/plain", "food", []byte("plain text"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Only PDF or image files are accepted", decodeError(t, resp))
}

func TestUpload_QueueFull(t *testing.T) {
	store := newStubReceiptStore()
	dispatcher := &stubDispatcher{err: service.ErrQueueFull}
	app := newTestApp(t, store, dispatcher, 5*1024*1024)

	req := uploadRequest(t, "receipt.pdf", "application/pdf", "shopping", []byte("%PDF-1.4"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	// The stranded record must end up terminal so pollers are not stuck.
	require.Len(t, store.failed, 1)
}

func TestGet_InvalidID(t *testing.T) {
	app := newTestApp(t, newStubReceiptStore(), &stubDispatcher{}, 5*1024*1024)

	req := httptest.NewRequest(http.MethodGet, "/api/receipt/not-a-uuid", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid receipt ID", decodeError(t, resp))
}

func TestGet_NotFound(t *testing.T) {
	app := newTestApp(t, newStubReceiptStore(), &stubDispatcher{}, 5*1024*1024)

	req := httptest.NewRequest(http.MethodGet, "/api/receipt/"+uuid.NewString(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Receipt not found", decodeError(t, resp))
}

func TestGet_ProcessingHasNoData(t *testing.T) {
	store := newStubReceiptStore()
	id := uuid.New()
	store.receipts[id] = &models.Receipt{
		ID:       id,
		Category: models.CategoryFood,
		Status:   models.StatusProcessing,
	}
	app := newTestApp(t, store, &stubDispatcher{}, 5*1024*1024)

	req := httptest.NewRequest(http.MethodGet, "/api/receipt/"+id.String(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status dto.ReceiptStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "processing", status.Status)
	assert.Nil(t, status.Data)
}

func TestGet_CompletedIncludesData(t *testing.T) {
	store := newStubReceiptStore()
	id := uuid.New()
	merchant := "Corner Store"
	total := 42.50
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	store.receipts[id] = &models.Receipt{
		ID:       id,
		Category: models.CategoryFood,
		Status:   models.StatusCompleted,
		Merchant: &merchant,
		Date:     &date,
		Total:    &total,
		Items: []models.Item{
			{Name: "Milk", Price: 3.99},
			{Name: "Bread", Price: 2.49},
		},
	}
	app := newTestApp(t, store, &stubDispatcher{}, 5*1024*1024)

	req := httptest.NewRequest(http.MethodGet, "/api/receipt/"+id.String(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status dto.ReceiptStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "completed", status.Status)
	require.NotNil(t, status.Data)
	assert.Equal(t, "Corner Store", *status.Data.Merchant)
	assert.Equal(t, "2024-03-12", *status.Data.Date)
	assert.Equal(t, 42.50, *status.Data.Total)
	assert.Equal(t, "food", status.Data.Category)
	require.Len(t, status.Data.Items, 2)
	assert.Equal(t, "Milk", status.Data.Items[0].Name)
}
