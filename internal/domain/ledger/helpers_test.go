package ledger_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
)

// baseDate fecha de referencia fija para que los tests sean deterministas.
var baseDate = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// txOn construye una transacción daysAgo días antes de baseDate.
func txOn(item string, typ entity.TransactionType, qty string, daysAgo int) entity.StockTransaction {
	return entity.StockTransaction{
		ItemCode:        item,
		Type:            typ,
		Quantity:        dec(qty),
		OccurredAt:      baseDate.AddDate(0, 0, -daysAgo),
		SourceReference: string(typ) + "-" + item,
	}
}
