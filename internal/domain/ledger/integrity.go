package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
)

// CheckIntegrity compara el saldo calculado del log contra la vista materializada.
// Recorre la unión de claves: un ítem ausente en un mapa cuenta como cero.
// Solo emite diferencias con |delta| > epsilon, ordenadas por item_code.
// Es de solo lectura; repetirlo con los mismos mapas produce el mismo reporte.
func CheckIntegrity(ledgerPositions, materializedPositions map[string]decimal.Decimal, epsilon decimal.Decimal) []entity.IntegrityDiscrepancy {
	epsilon = epsilon.Abs()

	keys := make(map[string]struct{}, len(ledgerPositions)+len(materializedPositions))
	for k := range ledgerPositions {
		keys[k] = struct{}{}
	}
	for k := range materializedPositions {
		keys[k] = struct{}{}
	}

	out := make([]entity.IntegrityDiscrepancy, 0)
	for k := range keys {
		ledgerQty := ledgerPositions[k]
		viewQty := materializedPositions[k]
		delta := ledgerQty.Sub(viewQty)
		if delta.Abs().LessThanOrEqual(epsilon) {
			continue
		}
		out = append(out, entity.IntegrityDiscrepancy{
			ItemCode:                 k,
			LedgerComputedQuantity:   ledgerQty,
			MaterializedViewQuantity: viewQty,
			Delta:                    delta,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemCode < out[j].ItemCode })
	return out
}
