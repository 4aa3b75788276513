package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
)

// Classify asigna estado de stock y urgencia a una posición.
//
// Estado:
//   - ZERO      si Actual <= 0
//   - CRITICAL  si Actual <= ReorderLevel × CriticalFraction
//   - LOW       si Actual <= ReorderLevel (Actual == ReorderLevel es LOW)
//   - NORMAL    en otro caso
//
// Días de cobertura = Actual / consumo diario; infinito si el consumo es <= 0.
//
// Urgencia: CRITICAL si ZERO o días <= CriticalDays; HIGH si días <= HighDays;
// MEDIUM si días <= MediumDays, si Actual <= ReorderLevel o si la cobertura no alcanza
// BufferDays; LOW en otro caso.
//
// Función pura: mismo input, mismo resultado.
func Classify(pos entity.StockPosition, policy entity.ReorderPolicy, avgDailyConsumption decimal.Decimal, p Policy) (entity.ClassificationResult, error) {
	if err := ValidatePolicy(entity.ReorderPolicy{
		ItemCode:        pos.ItemCode,
		ReorderLevel:    policy.ReorderLevel,
		ReorderQuantity: policy.ReorderQuantity,
	}); err != nil {
		return entity.ClassificationResult{}, err
	}
	if avgDailyConsumption.IsNegative() {
		return entity.ClassificationResult{}, &domain.ValidationError{
			Kind:     domain.RecordKindPolicy,
			ItemCode: pos.ItemCode,
			Reason:   "consumo diario promedio negativo",
		}
	}

	qty := pos.CurrentQuantity
	level := policy.ReorderLevel

	status := stockStatus(qty, level, p.CriticalFraction)

	days := entity.InfiniteDays()
	if avgDailyConsumption.IsPositive() {
		days = entity.FiniteDays(qty.Div(avgDailyConsumption))
	}

	urgency := urgencyLevel(status, days, qty, level, p)

	shortage := decimal.Max(decimal.Zero, level.Sub(qty))
	suggested := decimal.Max(level, shortage.Add(avgDailyConsumption.Mul(p.BufferDays)))

	if !days.Infinite {
		days.Days = days.Days.Round(2)
	}

	return entity.ClassificationResult{
		ItemCode:               pos.ItemCode,
		CurrentQuantity:        qty,
		ReorderLevel:           level,
		StockStatus:            status,
		UrgencyLevel:           urgency,
		AvgDailyConsumption:    avgDailyConsumption,
		EstimatedDaysOfStock:   days,
		ShortageQuantity:       shortage,
		SuggestedOrderQuantity: suggested,
		ShortageValue:          shortage.Mul(p.ShortageUnitCost),
	}, nil
}

func stockStatus(qty, level, criticalFraction decimal.Decimal) entity.StockStatus {
	switch {
	case !qty.IsPositive():
		return entity.StockStatusZero
	case qty.LessThanOrEqual(level.Mul(criticalFraction)):
		return entity.StockStatusCritical
	case qty.LessThanOrEqual(level):
		return entity.StockStatusLow
	default:
		return entity.StockStatusNormal
	}
}

func urgencyLevel(status entity.StockStatus, days entity.DaysOfStock, qty, level decimal.Decimal, p Policy) entity.UrgencyLevel {
	switch {
	case status == entity.StockStatusZero || days.AtMost(p.CriticalDays):
		return entity.UrgencyCritical
	case days.AtMost(p.HighDays):
		return entity.UrgencyHigh
	case days.AtMost(p.MediumDays), qty.LessThanOrEqual(level), days.LessThan(p.BufferDays):
		return entity.UrgencyMedium
	default:
		return entity.UrgencyLow
	}
}
