package handlers

import (
	"time"

	"spendscan/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
	logger           *zap.Logger
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// Monthly godoc
// @Summary Spending analytics for a date range
// @Description Totals, category breakdown, daily spending, top merchants and items; defaults to the current calendar month
// @Tags analytics
// @Produce json
// @Param startDate query string false "Range start (YYYY-MM-DD or RFC3339)"
// @Param endDate query string false "Range end (YYYY-MM-DD or RFC3339)"
// @Success 200 {object} dto.AnalyticsResponse
// @Failure 400 {object} map[string]string
// @Router /api/analytics/monthly [get]
func (h *AnalyticsHandler) Monthly(c *fiber.Ctx) error {
	defaultStart, defaultEnd := service.CurrentMonthRange(time.Now())

	start := defaultStart
	if raw := c.Query("startDate"); raw != "" {
		parsed, err := parseDateParam(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid date format",
			})
		}
		start = parsed
	}

	end := defaultEnd
	if raw := c.Query("endDate"); raw != "" {
		parsed, err := parseDateParam(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid date format",
			})
		}
		end = endOfDay(parsed)
	}

	response, err := h.analyticsService.Monthly(c.Context(), start, end)
	if err != nil {
		h.logger.Error("Failed to generate analytics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error generating analytics",
		})
	}

	return c.JSON(response)
}

func parseDateParam(raw string) (time.Time, error) {
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
