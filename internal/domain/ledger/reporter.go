package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
)

// RankAlerts ordena las clasificaciones sin modificar la entrada:
//  1. menor cantidad actual primero
//  2. mayor severidad de urgencia (CRITICAL > HIGH > MEDIUM > LOW)
//  3. item_code ascendente, para que el orden sea total
func RankAlerts(classifications []entity.ClassificationResult) []entity.ClassificationResult {
	out := make([]entity.ClassificationResult, len(classifications))
	copy(out, classifications)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CurrentQuantity.Equal(b.CurrentQuantity) {
			return a.CurrentQuantity.LessThan(b.CurrentQuantity)
		}
		if sa, sb := a.UrgencyLevel.Severity(), b.UrgencyLevel.Severity(); sa != sb {
			return sa > sb
		}
		return a.ItemCode < b.ItemCode
	})
	return out
}

// ClassifyTurnover calcula la rotación de un ítem:
//
//	ratio = totalIssued / averageStock   (0 si averageStock <= 0)
//
// y la clasifica con los umbrales de la política: ratio >= Fast ⇒ Fast,
// >= Medium ⇒ Medium, > 0 ⇒ Slow, resto Dead.
func ClassifyTurnover(itemCode string, averageStock, totalIssuedOverWindow decimal.Decimal, p Policy) (entity.TurnoverRecord, error) {
	if totalIssuedOverWindow.IsNegative() {
		return entity.TurnoverRecord{}, &domain.ValidationError{
			Kind:     domain.RecordKindTransaction,
			ItemCode: itemCode,
			Reason:   "total emitido en la ventana negativo",
		}
	}
	ratio := decimal.Zero
	if averageStock.IsPositive() {
		ratio = totalIssuedOverWindow.Div(averageStock)
	}

	class := entity.TurnoverDead
	switch {
	case ratio.GreaterThanOrEqual(p.FastTurnoverRatio):
		class = entity.TurnoverFast
	case ratio.GreaterThanOrEqual(p.MediumTurnoverRatio):
		class = entity.TurnoverMedium
	case ratio.IsPositive():
		class = entity.TurnoverSlow
	}

	return entity.TurnoverRecord{
		ItemCode:              NormalizeItemCode(itemCode),
		AverageStock:          averageStock,
		TotalIssuedOverWindow: totalIssuedOverWindow,
		TurnoverRatio:         ratio.Round(4),
		Classification:        class,
	}, nil
}

// RankTurnover ordena por ratio descendente y luego por item_code.
func RankTurnover(records []entity.TurnoverRecord) []entity.TurnoverRecord {
	out := make([]entity.TurnoverRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.TurnoverRatio.Equal(b.TurnoverRatio) {
			return a.TurnoverRatio.GreaterThan(b.TurnoverRatio)
		}
		return a.ItemCode < b.ItemCode
	})
	return out
}

// Alerts filtra las clasificaciones que requieren reposición (estado distinto de NORMAL).
func Alerts(classifications []entity.ClassificationResult) []entity.ClassificationResult {
	out := make([]entity.ClassificationResult, 0, len(classifications))
	for _, c := range classifications {
		if c.StockStatus != entity.StockStatusNormal {
			out = append(out, c)
		}
	}
	return out
}
