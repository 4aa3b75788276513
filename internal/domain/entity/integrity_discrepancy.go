package entity

import "github.com/shopspring/decimal"

// IntegrityDiscrepancy diferencia entre el saldo calculado del log y el de la vista materializada.
// Es un hallazgo reportable, no un error.
type IntegrityDiscrepancy struct {
	ItemCode                 string          `json:"item_code"`
	LedgerComputedQuantity   decimal.Decimal `json:"ledger_computed_quantity"`
	MaterializedViewQuantity decimal.Decimal `json:"materialized_view_quantity"`
	Delta                    decimal.Decimal `json:"delta"`
}
