package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/inventory"
	"github.com/jhoicas/marina-inventario/internal/application/pricing"
	"github.com/jhoicas/marina-inventario/internal/application/usecase"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ServiceName      string
	PartUC           *usecase.PartUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	Ledger           *inventory.LedgerUseCase
	Replenishment    *inventory.ReplenishmentUseCase
	InvoiceImport    *inventory.InvoiceImportUseCase
	Count            *inventory.CountUseCase
	PriceSync        *pricing.PriceSyncUseCase // nil si el portal no está configurado
	Warranty         *pricing.WarrantyUseCase
	JWTSecret        string
	Log              *logger.Logger
	// Gatherer origen de /metrics; prometheus.DefaultGatherer si es nil.
	Gatherer prometheus.Gatherer
	// HealthCheck verifica dependencias (p. ej. ping a PostgreSQL). Opcional.
	HealthCheck func(ctx context.Context) error
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log.Component("http")

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	app.Get("/health", healthHandler(deps.ServiceName, deps.HealthCheck))

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Parts
	parts := api.Group("/parts")
	partHandler := NewPartHandler(deps.PartUC, deps.Replenishment, log)
	parts.Get("/low-stock", partHandler.LowStock)
	parts.Get("/export.xlsx", partHandler.Export)
	parts.Post("/import.xlsx", partHandler.Import)
	parts.Post("/", partHandler.Create)
	parts.Get("/", partHandler.List)
	parts.Get("/:id", partHandler.GetByID)
	parts.Put("/:id", partHandler.Update)
	parts.Delete("/:id", partHandler.Delete)

	// Kardex
	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.Ledger, log)
	invGroup.Post("/movements", inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Get("/parts/:id/ledger", inventoryHandler.Ledger)

	// NF-e
	invoiceHandler := NewInvoiceHandler(deps.InvoiceImport, log)
	invoices := invGroup.Group("/invoices")
	invoices.Post("/import", invoiceHandler.Import)
	invoices.Get("/:session", invoiceHandler.Get)
	invoices.Delete("/:session", invoiceHandler.Reset)
	invoices.Put("/:session/items/:index/link", invoiceHandler.Link)
	invoices.Delete("/:session/items/:index/link", invoiceHandler.Unlink)
	invoices.Post("/:session/items/:index/confirm", invoiceHandler.Confirm)
	invoices.Post("/:session/submit", invoiceHandler.Submit)

	// Inventario físico
	countHandler := NewCountHandler(deps.Count, log)
	counts := invGroup.Group("/counts")
	counts.Post("/", countHandler.Start)
	counts.Get("/:session/sheet.pdf", countHandler.Sheet)
	counts.Post("/:session/finish", countHandler.Finish)

	// Portal de precios
	catalog := api.Group("/catalog")
	if deps.PriceSync == nil {
		catalog.Use(func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "CATALOG_DISABLED", Message: "portal de precios no configurado"})
		})
		return
	}
	catalogHandler := NewCatalogHandler(deps.PriceSync, deps.Warranty, log)
	catalog.Get("/search/:code", catalogHandler.Search)
	catalog.Post("/sync", catalogHandler.Sync)
	catalog.Post("/batch-sync", catalogHandler.BatchSync)
	if deps.Warranty != nil {
		catalog.Get("/warranty/:serial", catalogHandler.Warranty)
	}
}

func healthHandler(service string, check func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": service, "error": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": service})
	}
}
