package entity

import "github.com/shopspring/decimal"

// TurnoverClass clasificación de rotación.
type TurnoverClass string

const (
	TurnoverFast   TurnoverClass = "Fast"
	TurnoverMedium TurnoverClass = "Medium"
	TurnoverSlow   TurnoverClass = "Slow"
	TurnoverDead   TurnoverClass = "Dead"
)

// TurnoverRecord rotación de un ítem en la ventana de análisis.
type TurnoverRecord struct {
	ItemCode              string          `json:"item_code"`
	AverageStock          decimal.Decimal `json:"average_stock"`
	TotalIssuedOverWindow decimal.Decimal `json:"total_issued_over_window"`
	TurnoverRatio         decimal.Decimal `json:"turnover_ratio"`
	Classification        TurnoverClass   `json:"classification"`
}
