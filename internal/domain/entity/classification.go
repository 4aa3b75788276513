package entity

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// StockStatus nivel de stock frente al punto de reorden.
type StockStatus string

const (
	StockStatusZero     StockStatus = "ZERO"
	StockStatusCritical StockStatus = "CRITICAL"
	StockStatusLow      StockStatus = "LOW"
	StockStatusNormal   StockStatus = "NORMAL"
)

// UrgencyLevel urgencia de reposición.
type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "CRITICAL"
	UrgencyHigh     UrgencyLevel = "HIGH"
	UrgencyMedium   UrgencyLevel = "MEDIUM"
	UrgencyLow      UrgencyLevel = "LOW"
)

// Severity devuelve el peso de la urgencia (mayor = más severa).
func (u UrgencyLevel) Severity() int {
	switch u {
	case UrgencyCritical:
		return 4
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	}
	return 0
}

// infiniteDays valor JSON de DaysOfStock cuando no hay consumo.
const infiniteDays = "infinite"

// DaysOfStock días estimados de cobertura. Infinite cuando el consumo diario es <= 0.
type DaysOfStock struct {
	Days     decimal.Decimal
	Infinite bool
}

// FiniteDays construye una cobertura finita.
func FiniteDays(d decimal.Decimal) DaysOfStock { return DaysOfStock{Days: d} }

// InfiniteDays construye la cobertura infinita.
func InfiniteDays() DaysOfStock { return DaysOfStock{Infinite: true} }

// AtMost indica si la cobertura es finita y no supera limit.
func (d DaysOfStock) AtMost(limit decimal.Decimal) bool {
	return !d.Infinite && d.Days.LessThanOrEqual(limit)
}

// LessThan indica si la cobertura es finita y menor que limit.
func (d DaysOfStock) LessThan(limit decimal.Decimal) bool {
	return !d.Infinite && d.Days.LessThan(limit)
}

func (d DaysOfStock) String() string {
	if d.Infinite {
		return infiniteDays
	}
	return d.Days.StringFixed(2)
}

// MarshalJSON serializa "infinite" o el número de días.
func (d DaysOfStock) MarshalJSON() ([]byte, error) {
	if d.Infinite {
		return json.Marshal(infiniteDays)
	}
	return d.Days.MarshalJSON()
}

// UnmarshalJSON acepta "infinite" o un número.
func (d *DaysOfStock) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil && s == infiniteDays {
		*d = InfiniteDays()
		return nil
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(b); err != nil {
		return err
	}
	*d = FiniteDays(v)
	return nil
}

// ClassificationResult resultado del clasificador para un ítem. Derivado, nunca persistido.
type ClassificationResult struct {
	ItemCode               string          `json:"item_code"`
	CurrentQuantity        decimal.Decimal `json:"current_quantity"`
	ReorderLevel           decimal.Decimal `json:"reorder_level"`
	StockStatus            StockStatus     `json:"stock_status"`
	UrgencyLevel           UrgencyLevel    `json:"urgency_level"`
	AvgDailyConsumption    decimal.Decimal `json:"avg_daily_consumption"`
	EstimatedDaysOfStock   DaysOfStock     `json:"estimated_days_of_stock"`
	ShortageQuantity       decimal.Decimal `json:"shortage_quantity"`
	SuggestedOrderQuantity decimal.Decimal `json:"suggested_order_quantity"`
	ShortageValue          decimal.Decimal `json:"shortage_value"` // ShortageQuantity × costo unitario configurado
}
