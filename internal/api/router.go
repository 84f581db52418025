package api

import (
	"spendscan/internal/api/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupRouter wires the fiber app. The body limit sits above the documented
// 5MB upload ceiling so oversized files get the handler's 400 instead of a
// bare 413 from the framework.
func SetupRouter(
	receiptHandler *handlers.ReceiptHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	budgetHandler *handlers.BudgetHandler,
	maxUploadSize int64,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: int(maxUploadSize) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	api := app.Group("/api")

	api.Post("/upload", receiptHandler.Upload)
	api.Get("/receipt/:id", receiptHandler.Get)

	analytics := api.Group("/analytics")
	analytics.Get("/monthly", analyticsHandler.Monthly)

	budget := api.Group("/budget")
	budget.Post("/set", budgetHandler.Set)
	budget.Get("/all", budgetHandler.List)
	budget.Get("/history", budgetHandler.History)

	return app
}
