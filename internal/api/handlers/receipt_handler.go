package handlers

import (
	"errors"
	"strings"

	"spendscan/internal/models"
	"spendscan/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReceiptHandler struct {
	receiptService *service.ReceiptService
	maxUploadSize  int64
	logger         *zap.Logger
}

func NewReceiptHandler(receiptService *service.ReceiptService, maxUploadSize int64, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
		maxUploadSize:  maxUploadSize,
		logger:         logger,
	}
}

// Upload godoc
// @Summary Upload a receipt
// @Description Upload a receipt image or PDF; extraction runs in the background
// @Tags receipts
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Receipt file (image or PDF)"
// @Param category formData string true "Spending category"
// @Success 200 {object} dto.UploadReceiptResponse
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/upload [post]
func (h *ReceiptHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	categoryValue := c.FormValue("category")
	if categoryValue == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Receipt category is required",
		})
	}
	category, ok := models.ParseCategory(categoryValue)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid receipt category",
		})
	}

	if file.Size > h.maxUploadSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File size is too large. Max limit is 5MB",
		})
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType != "application/pdf" && !strings.HasPrefix(mimeType, "image/") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only PDF or image files are accepted",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	response, err := h.receiptService.Upload(c.Context(), src, file.Filename, mimeType, file.Size, category)
	if err != nil {
		if errors.Is(err, service.ErrQueueFull) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Processing queue is full, try again later",
			})
		}
		h.logger.Error("Failed to upload receipt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error uploading file",
		})
	}

	return c.JSON(response)
}

// Get godoc
// @Summary Fetch a receipt's processing state
// @Description Poll a receipt; data is present once processing has completed
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} dto.ReceiptStatusResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/receipt/{id} [get]
func (h *ReceiptHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid receipt ID",
		})
	}

	response, err := h.receiptService.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Receipt not found",
			})
		}
		h.logger.Error("Failed to fetch receipt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error fetching receipt data",
		})
	}

	return c.JSON(response)
}
