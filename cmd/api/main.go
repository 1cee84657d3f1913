package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/marina-inventario/internal/application/inventory"
	"github.com/jhoicas/marina-inventario/internal/application/ports"
	"github.com/jhoicas/marina-inventario/internal/application/pricing"
	"github.com/jhoicas/marina-inventario/internal/application/usecase"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/mercury"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/metrics"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/nfe"
	infrapdf "github.com/jhoicas/marina-inventario/internal/infrastructure/pdf"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/postgres"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/redisstore"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/marina-inventario/internal/interfaces/http"
	"github.com/jhoicas/marina-inventario/pkg/config"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(cfg.DB); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	partRepo := postgres.NewPartRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	appMetrics := metrics.New(prometheus.DefaultRegisterer)

	// Redis es opcional: sin REDIS_ADDR las sesiones viven en memoria y el portal no se cachea.
	var sessions repository.SessionStore = memory.NewSessionStore()
	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis no disponible, sesiones en memoria")
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = redisstore.NewSessionStore(redisClient)
	}

	var catalog ports.CatalogClient
	var warrantyUC *pricing.WarrantyUseCase
	if cfg.Catalog.Enabled() {
		portal := mercury.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Username, cfg.Catalog.Password, cfg.Catalog.Timeout, log)
		catalog = portal
		// La garantía cambia con cada venta: se consulta siempre contra el portal.
		warrantyUC = pricing.NewWarrantyUseCase(portal, log)
		if redisClient != nil {
			catalog = redisstore.NewCatalogCache(portal, redisClient, cfg.Redis.CacheTTL, appMetrics, log)
		}
	} else {
		log.Info().Msg("portal de precios sin credenciales, sincronización deshabilitada")
	}

	partUC := usecase.NewPartUseCase(partRepo, xlsx.NewPartsWorkbook(), log)
	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner, appMetrics, log).
		RequireStock(cfg.Inventory.StrictStock)
	ledgerUC := inventory.NewLedgerUseCase(movementRepo, partRepo)
	replenishmentUC := inventory.NewReplenishmentUseCase(partRepo)
	invoiceImportUC := inventory.NewInvoiceImportUseCase(
		nfe.NewParser(), partRepo, sessions, registerMovementUC, partUC,
		inventory.InvoiceImportConfig{
			Catalog:       catalog,
			Metrics:       appMetrics,
			SessionTTL:    cfg.Redis.SessionTTL,
			EnrichTimeout: cfg.Catalog.EnrichTimeout,
		},
		log,
	)
	countUC := inventory.NewCountUseCase(
		partRepo, sessions, registerMovementUC,
		infrapdf.NewCountSheetRenderer(cfg.App.Name), appMetrics, cfg.Redis.SessionTTL, log,
	)
	var priceSyncUC *pricing.PriceSyncUseCase
	if catalog != nil {
		priceSyncUC = pricing.NewPriceSyncUseCase(catalog, partRepo, pricing.Config{
			Brand:   cfg.Catalog.Brand,
			Workers: cfg.Catalog.Workers,
			Metrics: appMetrics,
		}, log)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    cfg.Inventory.MaxUploadBytes,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("access"), appMetrics))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ServiceName:      cfg.App.Name,
		PartUC:           partUC,
		RegisterMovement: registerMovementUC,
		Ledger:           ledgerUC,
		Replenishment:    replenishmentUC,
		InvoiceImport:    invoiceImportUC,
		Count:            countUC,
		PriceSync:        priceSyncUC,
		Warranty:         warrantyUC,
		JWTSecret:        cfg.JWT.Secret,
		Log:              log,
		HealthCheck:      pool.Ping,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
