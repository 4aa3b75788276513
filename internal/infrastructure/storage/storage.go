// Package storage arma los repositorios según DB_DRIVER. Lo usan el API y el worker
// para que ambos lean y escriban el mismo almacenamiento.
package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-reconciler/internal/application/inventory"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
	"github.com/jhoicas/stock-reconciler/internal/infrastructure/memory"
	"github.com/jhoicas/stock-reconciler/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-reconciler/internal/infrastructure/sqlite"
	"github.com/jhoicas/stock-reconciler/pkg/config"
	"github.com/jhoicas/stock-reconciler/pkg/logger"
)

// Stores repositorios listos para inyectar en los casos de uso.
type Stores struct {
	Transactions repository.TransactionRepository
	Summary      repository.StockSummaryRepository
	Policies     repository.ReorderPolicyRepository
	TxRunner     inventory.TxRunner

	closeFn func()
}

// Close libera conexiones. Es seguro llamarlo más de una vez.
func (s *Stores) Close() {
	if s == nil || s.closeFn == nil {
		return
	}
	s.closeFn()
	s.closeFn = nil
}

// Open conecta al driver configurado y asegura el esquema.
func Open(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*Stores, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("storage")

	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL (%s): %w", postgres.RedactDSN(cfg.ConnectionString()), err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Str("driver", cfg.Driver).Msg("almacenamiento listo")
		return &Stores{
			Transactions: postgres.NewTransactionRepository(pool),
			Summary:      postgres.NewStockSummaryRepository(pool),
			Policies:     postgres.NewReorderPolicyRepository(pool),
			TxRunner:     postgres.NewTxRunner(pool),
			closeFn:      pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("abrir SQLite %s: %w", cfg.SQLitePath, err)
		}
		log.Info().Str("driver", cfg.Driver).Str("path", cfg.SQLitePath).Msg("almacenamiento listo")
		return &Stores{
			Transactions: sqlite.NewTransactionRepository(db),
			Summary:      sqlite.NewStockSummaryRepository(db),
			Policies:     sqlite.NewReorderPolicyRepository(db),
			TxRunner:     sqlite.NewTxRunner(db),
			closeFn:      func() { _ = db.Close() },
		}, nil

	case config.DriverMemory:
		txs := memory.NewTransactionRepository()
		log.Warn().Str("driver", cfg.Driver).Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &Stores{
			Transactions: txs,
			Summary:      memory.NewStockSummaryRepository(txs),
			Policies:     memory.NewReorderPolicyRepository(),
			TxRunner:     memory.NewTxRunner(txs),
		}, nil
	}
	return nil, fmt.Errorf("driver de almacenamiento desconocido %q", cfg.Driver)
}
