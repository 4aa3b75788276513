package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
	"github.com/jhoicas/stock-reconciler/pkg/config"
	"github.com/jhoicas/stock-reconciler/pkg/logger"
)

func TestOpen_DriversLocales(t *testing.T) {
	cases := []config.DBConfig{
		{Driver: config.DriverMemory},
		{Driver: config.DriverSQLite, SQLitePath: ":memory:"},
	}
	for _, cfg := range cases {
		t.Run(cfg.Driver, func(t *testing.T) {
			ctx := context.Background()
			s, err := Open(ctx, cfg, logger.Nop())
			require.NoError(t, err)
			defer s.Close()

			tx := entity.StockTransaction{
				ID:              "tx-1",
				CompanyID:       "c-1",
				ItemCode:        "A",
				Type:            entity.TransactionTypeGRN,
				Quantity:        decimal.NewFromInt(5),
				OccurredAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				SourceReference: "GRN-1",
			}
			require.NoError(t, s.TxRunner.Run(ctx, func(txRepo repository.TransactionRepository) error {
				return txRepo.Append(ctx, &tx)
			}))
			require.NoError(t, s.Summary.Refresh(ctx, "c-1"))

			got, err := s.Summary.FetchSummaryPositions(ctx, "c-1", nil)
			require.NoError(t, err)
			assert.True(t, got["A"].Equal(decimal.NewFromInt(5)))
		})
	}
}

func TestOpen_DriverDesconocido(t *testing.T) {
	_, err := Open(context.Background(), config.DBConfig{Driver: "oracle"}, nil)
	assert.Error(t, err)
}

func TestStores_CloseIdempotente(t *testing.T) {
	calls := 0
	s := &Stores{closeFn: func() { calls++ }}
	s.Close()
	s.Close()
	assert.Equal(t, 1, calls)
}
