package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// StockSummaryRepository define el puerto de la vista materializada de saldos por ítem.
// Es un caché derivado del log; puede estar desfasado (eso es lo que detecta el chequeo de integridad).
type StockSummaryRepository interface {
	// FetchSummaryPositions devuelve item_code → cantidad. itemCodes vacío = todos.
	FetchSummaryPositions(ctx context.Context, companyID string, itemCodes []string) (map[string]decimal.Decimal, error)
	// Refresh recalcula la vista desde el log.
	Refresh(ctx context.Context, companyID string) error
}
