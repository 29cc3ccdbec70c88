// Package app wires repositories, services and handlers into a Fiber server.
package app

import (
	"context"
	"time"

	"doner/internal/config"
	"doner/internal/handlers"
	"doner/internal/repositories"
	"doner/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Deps are the external resources the server runs on.
type Deps struct {
	DB      *gorm.DB
	Gateway services.InvoiceGateway
	// Publisher receives order and anomaly events. Nil disables publishing.
	Publisher services.EventPublisher
	// Broker reports the AMQP state on /health; empty when AMQP is disabled.
	Broker string
}

// Server holds the assembled HTTP app and the services background workers use.
type Server struct {
	Fiber         *fiber.App
	Confirmations *services.ConfirmationService
	Reaper        *services.Reaper
	Identity      *services.IdentityService
}

// NewServer builds every service on deps and registers the HTTP routes.
func NewServer(cfg *config.Config, deps Deps) *Server {
	catalogRepo := repositories.NewGORMCatalogRepository(deps.DB)
	orderRepo := repositories.NewGORMOrderRepository(deps.DB)
	ledger := repositories.NewGORMStagingLedger(deps.DB)

	catalogService := services.NewCatalogService(catalogRepo)
	orderService := services.NewOrderService(orderRepo, cfg.AdminID)
	invoiceService := services.NewInvoiceService(catalogRepo, ledger, deps.Gateway, services.InvoiceConfig{
		Title:          cfg.InvoiceTitle,
		Currency:       cfg.Currency,
		GatewayTimeout: cfg.GatewayTimeout,
	})
	confirmations := services.NewConfirmationService(ledger, deps.Publisher, services.ConfirmationConfig{
		ReconcileTimeout: cfg.ReconcileTimeout,
		StageTTL:         cfg.StageTTL,
	})
	adminService := services.NewAdminService(catalogRepo, cfg.AdminID)
	identity := services.NewIdentityService(cfg.IdentitySecret, cfg.IdentityTTL)
	reaper := services.NewReaper(ledger, services.ReaperConfig{
		StageTTL:     cfg.StageTTL,
		TombstoneTTL: cfg.TombstoneTTL,
		Interval:     cfg.ReapInterval,
		Batch:        cfg.ReapBatch,
	})

	app := fiber.New(fiber.Config{
		AppName: "doner",
	})
	app.Use(recover.New())
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")
	handlers.NewCatalogHandler(catalogService).RegisterRoutes(apiV1)
	handlers.NewCheckoutHandler(invoiceService).RegisterRoutes(apiV1)
	handlers.NewOrderHandler(orderService, identity).RegisterRoutes(apiV1)
	handlers.NewPaymentHandler(confirmations, cfg.WebhookSecret).RegisterRoutes(apiV1)
	handlers.NewAdminHandler(adminService, identity).RegisterRoutes(apiV1)

	app.Get("/health", healthHandler(deps.DB, ledger, deps.Broker))

	return &Server{
		Fiber:         app,
		Confirmations: confirmations,
		Reaper:        reaper,
		Identity:      identity,
	}
}

func healthHandler(db *gorm.DB, ledger repositories.StagingLedger, broker string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status := fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		}
		if broker != "" {
			status["rabbitmq"] = broker
		}

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status["status"] = "unhealthy"
			status["database"] = err.Error()
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
		status["database"] = "connected"

		if staged, err := ledger.Count(ctx); err == nil {
			status["staged_carts"] = staged
		}
		return c.JSON(status)
	}
}
