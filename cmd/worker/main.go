package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-reconciler/internal/application/inventory"
	"github.com/jhoicas/stock-reconciler/internal/application/reconciliation"
	"github.com/jhoicas/stock-reconciler/internal/infrastructure/cache"
	"github.com/jhoicas/stock-reconciler/internal/infrastructure/storage"
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

	if !cfg.Redis.Enabled() {
		log.Fatal().Msg("REDIS_ADDR requerido para el worker")
	}
	// El worker corre en otro proceso: con memory no vería lo que registra el API.
	if cfg.DB.Driver == config.DriverMemory {
		log.Fatal().Msg("el worker necesita DB_DRIVER postgres o sqlite")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := storage.Open(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer stores.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar Redis")
		}
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
	}

	reconciliationUC := reconciliation.NewUseCase(
		stores.Transactions, stores.Summary, stores.Policies,
		cache.NewRedisReportStore(rdb, cfg.Redis.ReportTTL),
		cfg.Reconciliation.Policy(), log,
	)
	ledgerUC := inventory.NewUseCase(stores.Transactions, stores.Summary, stores.Policies, log)

	reconcileJob := jobs.NewReconcileJob(reconciliationUC, stores.Transactions, log)
	refreshJob := jobs.NewSummaryRefreshJob(ledgerUC, stores.Transactions, log)

	var cron []jobs.CronRegistration
	if cfg.Worker.ReconcileCron != "" {
		task, err := jobs.NewReconcileTask(jobs.ReconcilePayload{CompanyID: jobs.AllCompanies})
		if err != nil {
			log.Fatal().Err(err).Msg("construir tarea de reconciliación")
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.Worker.ReconcileCron, Task: task})
	}
	if cfg.Worker.SummaryCron != "" {
		task, err := jobs.NewSummaryRefreshTask(jobs.AllCompanies)
		if err != nil {
			log.Fatal().Err(err).Msg("construir tarea de refresco")
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.Worker.SummaryCron, Task: task})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Concurrency: cfg.Worker.Concurrency,
		Logger:      log,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReconcile, Handler: reconcileJob.Handle},
			{Type: jobs.TaskSummaryRefresh, Handler: refreshJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("iniciar worker")
	}

	log.Info().
		Str("env", cfg.App.Env).
		Str("db_driver", cfg.DB.Driver).
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("iniciando worker")

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("worker finalizado con error")
	}
}
