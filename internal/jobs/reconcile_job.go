package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
	"github.com/jhoicas/stock-reconciler/internal/application/reconciliation"
	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/pkg/logger"
)

// Reconciler lo implementa *reconciliation.UseCase.
type Reconciler interface {
	Reconcile(ctx context.Context, scope reconciliation.Scope) (*dto.ReconciliationReport, error)
}

// CompanyLister descubre las empresas con transacciones (TransactionRepository).
type CompanyLister interface {
	ListCompanies(ctx context.Context) ([]string, error)
}

// ReconcileJob ejecuta la reconciliación programada y deja en el log los hallazgos.
type ReconcileJob struct {
	reconciler Reconciler
	companies  CompanyLister
	log        *logger.Logger
	clock      func() time.Time
}

func NewReconcileJob(reconciler Reconciler, companies CompanyLister, log *logger.Logger) *ReconcileJob {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileJob{
		reconciler: reconciler,
		companies:  companies,
		log:        log.Component(TaskReconcile),
		clock:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle procesa TaskReconcile. Un payload ilegible o un alcance inválido no se reintenta;
// una fuente caída sí (asynq reintenta con backoff).
func (j *ReconcileJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.reconciler == nil || j.companies == nil {
		return errors.New("reconcile job: dependencias no configuradas")
	}
	var payload ReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("payload inválido: %v: %w", err, asynq.SkipRetry)
	}

	companies, err := resolveCompanies(ctx, j.companies, payload.CompanyID)
	if err != nil {
		j.log.Error().Err(err).Str("company_id", payload.CompanyID).Msg("no se pudieron resolver las empresas")
		return err
	}
	if len(companies) == 0 {
		j.log.Info().Msg("sin empresas con transacciones")
		return nil
	}

	start := j.clock()
	for _, companyID := range companies {
		report, err := j.reconciler.Reconcile(ctx, reconciliation.Scope{
			CompanyID: companyID,
			ItemCodes: payload.ItemCodes,
			AsOf:      payload.AsOf,
		})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			j.log.Error().Err(err).Str("company_id", companyID).Msg("reconciliación fallida")
			return err
		}
		j.logFindings(companyID, report)
	}
	j.log.Info().Int("companies", len(companies)).Dur("duration", j.clock().Sub(start)).Msg("reconciliación programada completada")
	return nil
}

func (j *ReconcileJob) logFindings(companyID string, report *dto.ReconciliationReport) {
	for _, d := range report.Discrepancies {
		j.log.Warn().
			Str("company_id", companyID).
			Str("item_code", d.ItemCode).
			Str("ledger", d.LedgerComputedQuantity.String()).
			Str("view", d.MaterializedViewQuantity.String()).
			Str("delta", d.Delta.String()).
			Msg("descuadre entre log y vista")
	}
	for _, n := range report.NegativeBalances {
		j.log.Warn().Str("company_id", companyID).Str("item_code", n.ItemCode).Str("quantity", n.CurrentQuantity.String()).Msg("saldo negativo")
	}
	j.log.Info().
		Str("company_id", companyID).
		Str("run_id", report.RunID).
		Str("status", string(report.Status)).
		Int("alerts", report.Summary.AlertCount).
		Int("critical", report.Summary.CriticalCount).
		Int("discrepancies", report.Summary.DiscrepancyCount).
		Msg("reconciliación de empresa completada")
}

// WithClock reemplaza el reloj interno (tests deterministas).
func (j *ReconcileJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}

func resolveCompanies(ctx context.Context, lister CompanyLister, companyID string) ([]string, error) {
	if companyID != "" && companyID != AllCompanies {
		return []string{companyID}, nil
	}
	return lister.ListCompanies(ctx)
}
