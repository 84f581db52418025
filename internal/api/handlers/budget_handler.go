package handlers

import (
	"time"

	"spendscan/internal/dto"
	"spendscan/internal/models"
	"spendscan/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = validator.New()

type BudgetHandler struct {
	budgetService *service.BudgetService
	logger        *zap.Logger
}

func NewBudgetHandler(budgetService *service.BudgetService, logger *zap.Logger) *BudgetHandler {
	return &BudgetHandler{
		budgetService: budgetService,
		logger:        logger,
	}
}

// Set godoc
// @Summary Set the budget for a category
// @Description Upsert a per-category spending ceiling
// @Tags budgets
// @Accept json
// @Produce json
// @Param request body dto.SetBudgetRequest true "Budget"
// @Success 200 {object} dto.BudgetResponse
// @Failure 400 {object} map[string]string
// @Router /api/budget/set [post]
func (h *BudgetHandler) Set(c *fiber.Ctx) error {
	var req dto.SetBudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Category and amount required",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Category and amount required",
		})
	}

	response, err := h.budgetService.Set(c.Context(), models.Category(req.Category), *req.Amount)
	if err != nil {
		h.logger.Error("Failed to set budget", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error setting budget",
		})
	}

	return c.JSON(response)
}

// List godoc
// @Summary List all budgets
// @Tags budgets
// @Produce json
// @Success 200 {array} dto.BudgetResponse
// @Router /api/budget/all [get]
func (h *BudgetHandler) List(c *fiber.Ctx) error {
	budgets, err := h.budgetService.List(c.Context())
	if err != nil {
		h.logger.Error("Failed to list budgets", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error fetching budgets",
		})
	}

	return c.JSON(budgets)
}

// History godoc
// @Summary Budget compliance per category over a month span
// @Tags budgets
// @Produce json
// @Param start query string true "First month (YYYY-MM)"
// @Param end query string true "Last month (YYYY-MM)"
// @Success 200 {object} dto.BudgetHistoryResponse
// @Failure 400 {object} map[string]string
// @Router /api/budget/history [get]
func (h *BudgetHandler) History(c *fiber.Ctx) error {
	startRaw, endRaw := c.Query("start"), c.Query("end")
	if startRaw == "" || endRaw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "start and end required",
		})
	}

	start, err := time.Parse("2006-01", startRaw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid month format, expected YYYY-MM",
		})
	}
	end, err := time.Parse("2006-01", endRaw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid month format, expected YYYY-MM",
		})
	}

	response, err := h.budgetService.History(c.Context(), start.Year(), start.Month(), end.Year(), end.Month())
	if err != nil {
		h.logger.Error("Failed to generate budget history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error generating budget history analysis",
		})
	}

	return c.JSON(response)
}
