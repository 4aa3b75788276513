package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
)

// ComputeStockPosition calcula la cantidad actual de un ítem sumando el log con signo:
//
//	Actual = Σ OPENING_STOCK + Σ GRN − Σ ISSUE   (occurred_at <= asOf)
//
// El orden de txs es irrelevante. Sin transacciones el resultado es cero.
// Un saldo negativo se marca en Negative y se devuelve tal cual.
// Devuelve *domain.ValidationError ante la primera transacción mal formada del ítem.
func ComputeStockPosition(itemCode string, txs []entity.StockTransaction, asOf time.Time) (entity.StockPosition, error) {
	code := NormalizeItemCode(itemCode)
	opening, received, issued := decimal.Zero, decimal.Zero, decimal.Zero
	for _, t := range txs {
		if NormalizeItemCode(t.ItemCode) != code || t.OccurredAt.After(asOf) {
			continue
		}
		if err := ValidateTransaction(t); err != nil {
			return entity.StockPosition{}, err
		}
		switch t.Type {
		case entity.TransactionTypeOpeningStock:
			opening = opening.Add(t.Quantity)
		case entity.TransactionTypeGRN:
			received = received.Add(t.Quantity)
		case entity.TransactionTypeIssue:
			issued = issued.Add(t.Quantity)
		}
	}
	qty := opening.Add(received).Sub(issued)
	return entity.StockPosition{
		ItemCode:        code,
		CurrentQuantity: qty,
		LastComputedAt:  asOf,
		Negative:        qty.IsNegative(),
	}, nil
}

// AggregatePositions agrupa por ítem y calcula todas las posiciones en una pasada.
// Espera transacciones ya validadas (ver SplitTransactions).
func AggregatePositions(txs []entity.StockTransaction, asOf time.Time) map[string]entity.StockPosition {
	totals := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.OccurredAt.After(asOf) {
			continue
		}
		code := NormalizeItemCode(t.ItemCode)
		totals[code] = totals[code].Add(t.SignedQuantity())
	}
	positions := make(map[string]entity.StockPosition, len(totals))
	for code, qty := range totals {
		positions[code] = entity.StockPosition{
			ItemCode:        code,
			CurrentQuantity: qty,
			LastComputedAt:  asOf,
			Negative:        qty.IsNegative(),
		}
	}
	return positions
}

// SortedPositions devuelve las posiciones ordenadas por item_code.
func SortedPositions(positions map[string]entity.StockPosition) []entity.StockPosition {
	out := make([]entity.StockPosition, 0, len(positions))
	for _, p := range positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemCode < out[j].ItemCode })
	return out
}

// Quantities proyecta las posiciones a item_code → cantidad (entrada del chequeo de integridad).
func Quantities(positions map[string]entity.StockPosition) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(positions))
	for code, p := range positions {
		out[code] = p.CurrentQuantity
	}
	return out
}

// balanceUpTo suma con signo las transacciones del ítem con occurred_at <= at.
func balanceUpTo(code string, txs []entity.StockTransaction, at time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.ItemCode != code || t.OccurredAt.After(at) {
			continue
		}
		total = total.Add(t.SignedQuantity())
	}
	return total
}
