package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockPosition cantidad actual derivada del log para un ítem.
// No es autoritativa: se recalcula en cada consulta.
type StockPosition struct {
	ItemCode        string          `json:"item_code"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	LastComputedAt  time.Time       `json:"last_computed_at"`
	// Negative marca un saldo negativo: se reporta, nunca se recorta a cero.
	Negative bool `json:"negative"`
}
