// Package jobs define las tareas asíncronas (asynq) del servicio: reconciliación
// programada y refresco de la vista de saldos.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault cola de trabajos de fondo.
	QueueDefault = "default"

	// TaskReconcile reconcilia el log contra la vista para una empresa o para todas.
	TaskReconcile = "stock:reconcile"
	// TaskSummaryRefresh recalcula la vista materializada de saldos.
	TaskSummaryRefresh = "stock:summary_refresh"

	// AllCompanies en company_id procesa todas las empresas con transacciones.
	AllCompanies = "all"
)

// ReconcilePayload alcance de la reconciliación programada.
type ReconcilePayload struct {
	CompanyID string     `json:"company_id"`
	ItemCodes []string   `json:"item_codes,omitempty"`
	AsOf      *time.Time `json:"as_of,omitempty"`
}

// SummaryRefreshPayload empresa cuya vista se refresca.
type SummaryRefreshPayload struct {
	CompanyID string `json:"company_id"`
}

// NewReconcileTask construye la tarea. company_id vacío = todas las empresas.
func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	if payload.CompanyID == "" {
		payload.CompanyID = AllCompanies
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serializar %s: %w", TaskReconcile, err)
	}
	return asynq.NewTask(TaskReconcile, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewSummaryRefreshTask construye la tarea. companyID vacío = todas las empresas.
func NewSummaryRefreshTask(companyID string) (*asynq.Task, error) {
	if companyID == "" {
		companyID = AllCompanies
	}
	body, err := json.Marshal(SummaryRefreshPayload{CompanyID: companyID})
	if err != nil {
		return nil, fmt.Errorf("serializar %s: %w", TaskSummaryRefresh, err)
	}
	return asynq.NewTask(TaskSummaryRefresh, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}
