package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
)

var two = decimal.NewFromInt(2)

// AverageDailyConsumption promedio diario de salidas (ISSUE) en la ventana (asOf − windowDays, asOf].
// Espera transacciones validadas con item_code normalizado.
func AverageDailyConsumption(txs []entity.StockTransaction, itemCode string, asOf time.Time, windowDays int) decimal.Decimal {
	if windowDays <= 0 {
		return decimal.Zero
	}
	start := asOf.AddDate(0, 0, -windowDays)
	issued := issuedBetween(NormalizeItemCode(itemCode), txs, start, asOf)
	return issued.Div(decimal.NewFromInt(int64(windowDays)))
}

// TurnoverInputs calcula las entradas de ClassifyTurnover para la ventana (asOf − windowDays, asOf]:
//
//	averageStock = (saldo al inicio de la ventana + saldo en asOf) / 2
//	totalIssued  = Σ ISSUE dentro de la ventana
func TurnoverInputs(txs []entity.StockTransaction, itemCode string, asOf time.Time, windowDays int) (averageStock, totalIssued decimal.Decimal) {
	code := NormalizeItemCode(itemCode)
	start := asOf.AddDate(0, 0, -windowDays)
	opening := balanceUpTo(code, txs, start)
	closing := balanceUpTo(code, txs, asOf)
	return opening.Add(closing).Div(two), issuedBetween(code, txs, start, asOf)
}

func issuedBetween(code string, txs []entity.StockTransaction, start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.ItemCode != code || t.Type != entity.TransactionTypeIssue {
			continue
		}
		if !t.OccurredAt.After(start) || t.OccurredAt.After(end) {
			continue
		}
		total = total.Add(t.Quantity)
	}
	return total
}
