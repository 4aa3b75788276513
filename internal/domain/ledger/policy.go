// Package ledger contiene los servicios de dominio puros de reconciliación de stock:
// agregación del log, clasificación, chequeo de integridad y reportes de alertas/rotación.
//
// Ninguna función guarda estado entre llamadas; todas son seguras para uso concurrente.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Policy centraliza las constantes de negocio de la reconciliación.
// Los valores por defecto son provisionales; se sobreescriben desde la configuración.
type Policy struct {
	// Epsilon tolerancia de diferencia entre log y vista materializada.
	Epsilon decimal.Decimal
	// BufferDays días de consumo que se suman a la cantidad sugerida de pedido.
	BufferDays decimal.Decimal
	// CriticalFraction fracción del punto de reorden bajo la cual el stock es CRITICAL.
	CriticalFraction decimal.Decimal

	// Umbrales de días de cobertura para la urgencia.
	CriticalDays decimal.Decimal
	HighDays     decimal.Decimal
	MediumDays   decimal.Decimal

	// Umbrales de rotación (ratio >= Fast ⇒ Fast; >= Medium ⇒ Medium; > 0 ⇒ Slow; resto Dead).
	FastTurnoverRatio   decimal.Decimal
	MediumTurnoverRatio decimal.Decimal

	// Ventanas (en días) para consumo promedio diario y rotación.
	ConsumptionWindowDays int
	TurnoverWindowDays    int

	// ShortageUnitCost costo unitario para estimar el valor del faltante.
	ShortageUnitCost decimal.Decimal
}

// DefaultPolicy devuelve los valores por defecto.
func DefaultPolicy() Policy {
	return Policy{
		Epsilon:               decimal.RequireFromString("0.01"),
		BufferDays:            decimal.NewFromInt(30),
		CriticalFraction:      decimal.RequireFromString("0.5"),
		CriticalDays:          decimal.NewFromInt(1),
		HighDays:              decimal.NewFromInt(7),
		MediumDays:            decimal.NewFromInt(14),
		FastTurnoverRatio:     decimal.NewFromInt(2),
		MediumTurnoverRatio:   decimal.RequireFromString("0.5"),
		ConsumptionWindowDays: 30,
		TurnoverWindowDays:    90,
		ShortageUnitCost:      decimal.NewFromInt(100),
	}
}

// Validate verifica la coherencia de los umbrales.
func (p Policy) Validate() error {
	switch {
	case p.Epsilon.IsNegative():
		return fmt.Errorf("policy: epsilon negativo")
	case p.BufferDays.IsNegative():
		return fmt.Errorf("policy: buffer_days negativo")
	case p.CriticalFraction.IsNegative() || p.CriticalFraction.GreaterThan(decimal.NewFromInt(1)):
		return fmt.Errorf("policy: critical_fraction fuera de [0,1]")
	case p.CriticalDays.GreaterThan(p.HighDays) || p.HighDays.GreaterThan(p.MediumDays):
		return fmt.Errorf("policy: umbrales de urgencia deben ser crecientes (critical <= high <= medium)")
	case p.MediumTurnoverRatio.GreaterThan(p.FastTurnoverRatio) || !p.MediumTurnoverRatio.IsPositive():
		return fmt.Errorf("policy: umbrales de rotación inválidos (0 < medium <= fast)")
	case p.ConsumptionWindowDays <= 0 || p.TurnoverWindowDays <= 0:
		return fmt.Errorf("policy: ventanas deben ser positivas")
	case p.ShortageUnitCost.IsNegative():
		return fmt.Errorf("policy: costo unitario negativo")
	}
	return nil
}
