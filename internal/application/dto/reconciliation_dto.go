package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
)

// ReconcileRequest body para POST /api/reconciliation/run y /schedule.
// Sin item_codes se reconcilian todos los ítems; sin as_of se usa "ahora".
type ReconcileRequest struct {
	ItemCodes []string   `json:"item_codes,omitempty" validate:"omitempty,max=500,dive,required,max=64"`
	AsOf      *time.Time `json:"as_of,omitempty"`
}

// ReconciliationScope alcance de una corrida: empresa, ítems y fecha de corte.
type ReconciliationScope struct {
	CompanyID string     `json:"company_id"`
	ItemCodes []string   `json:"item_codes,omitempty"`
	AsOf      *time.Time `json:"as_of,omitempty"`
}

// ReportStatus estado del reporte.
type ReportStatus string

const (
	// ReportStatusEmpty no hay datos todavía (log vacío para el alcance).
	ReportStatusEmpty ReportStatus = "EMPTY"
	// ReportStatusOK todos los registros fueron válidos.
	ReportStatusOK ReportStatus = "OK"
	// ReportStatusPartial hubo registros rechazados (ver Rejected).
	ReportStatusPartial ReportStatus = "PARTIAL"
)

// ReportSummary totales del reporte.
type ReportSummary struct {
	TotalItems         int             `json:"total_items"`
	AlertCount         int             `json:"alert_count"`
	CriticalCount      int             `json:"critical_count"`
	NegativeCount      int             `json:"negative_count"`
	DiscrepancyCount   int             `json:"discrepancy_count"`
	RejectedCount      int             `json:"rejected_count"`
	TotalShortageValue decimal.Decimal `json:"total_shortage_value" swaggertype:"string"`
}

// ReconciliationReport resultado completo de una reconciliación.
type ReconciliationReport struct {
	RunID       string              `json:"run_id"`
	Scope       ReconciliationScope `json:"scope"`
	AsOf        time.Time           `json:"as_of"`
	RequestedAt time.Time           `json:"requested_at"`
	CompletedAt time.Time           `json:"completed_at"`
	Status      ReportStatus        `json:"status"`
	Summary     ReportSummary       `json:"summary"`

	// IntegrityAsOf corte del log usado para comparar contra la vista materializada.
	IntegrityAsOf time.Time `json:"integrity_as_of"`

	Positions        []entity.StockPosition        `json:"positions"`
	Classifications  []entity.ClassificationResult `json:"classifications"`
	Alerts           []entity.ClassificationResult `json:"alerts"`
	Discrepancies    []entity.IntegrityDiscrepancy `json:"discrepancies"`
	NegativeBalances []entity.StockPosition        `json:"negative_balances"`
	TurnoverRanking  []entity.TurnoverRecord       `json:"turnover_ranking"`
	Rejected         []domain.ValidationError      `json:"rejected"`
}

// ScheduleResponse respuesta de POST /api/reconciliation/schedule.
type ScheduleResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}
