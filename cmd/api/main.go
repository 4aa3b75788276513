// @title           Stock Reconciler API
// @version         1.0
// @description     Log de transacciones de stock, posiciones, alertas de reposición y reconciliación contra la vista materializada.
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in              header
// @name            Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	_ "github.com/jhoicas/stock-reconciler/docs"
	"github.com/jhoicas/stock-reconciler/internal/application/inventory"
	"github.com/jhoicas/stock-reconciler/internal/application/reconciliation"
	"github.com/jhoicas/stock-reconciler/internal/infrastructure/cache"
	infrapdf "github.com/jhoicas/stock-reconciler/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-reconciler/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/stock-reconciler/internal/interfaces/http"
	"github.com/jhoicas/stock-reconciler/internal/jobs"
	"github.com/jhoicas/stock-reconciler/pkg/config"
	"github.com/jhoicas/stock-reconciler/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET requerido")
	}

	ctx := context.Background()
	stores, err := storage.Open(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer stores.Close()

	// Redis es opcional: sin él el último reporte vive en memoria del proceso y no hay cola.
	var (
		reports   reconciliation.ReportStore = cache.NewMemoryReportStore()
		refresher inventory.RefreshScheduler
		scheduler httpRouter.ReconcileScheduler
	)
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		reports = cache.NewRedisReportStore(rdb, cfg.Redis.ReportTTL)

		jobsClient := jobs.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer jobsClient.Close()
		refresher = jobsClient
		scheduler = jobsClient
	}

	ledgerUC := inventory.NewUseCase(stores.Transactions, stores.Summary, stores.Policies, log)
	if refresher == nil {
		// Sin cola cada escritura refresca la vista en el mismo request.
		log.Warn().Msg("REDIS_ADDR vacío: reportes en memoria, vista refrescada en línea y sin cola de jobs")
		refresher = inventory.NewInlineRefreshScheduler(ledgerUC)
	}
	registerUC := inventory.NewRegisterTransactionUseCase(stores.Transactions, refresher, log)
	reconciliationUC := reconciliation.NewUseCase(
		stores.Transactions, stores.Summary, stores.Policies,
		reports, cfg.Reconciliation.Policy(), log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Reconciler API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "db_driver": cfg.DB.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		RegisterTransaction: registerUC,
		Ledger:              ledgerUC,
		Reconciliation:      reconciliationUC,
		TxRunner:            stores.TxRunner,
		PDF:                 infrapdf.NewMarotoAlertReportGenerator(),
		Scheduler:           scheduler,
		JWTSecret:           cfg.JWT.Secret,
		JWTIssuer:           cfg.JWT.Issuer,
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
