// Package reconciliation contiene el caso de uso de reconciliación de stock: el único punto
// de entrada que usa la capa de presentación para obtener posiciones, alertas, diferencias
// contra la vista materializada y ranking de rotación.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/ledger"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
	"github.com/jhoicas/stock-reconciler/pkg/logger"
)

// Nombres de las fuentes de datos en DataSourceError.
const (
	SourceTransactions = "transactions"
	SourceStockSummary = "stock_summary"
	SourcePolicies     = "reorder_policies"
	SourceReportStore  = "report_store"
)

// UseCase ejecuta reconciliaciones. Es seguro para uso concurrente: corridas simultáneas
// con el mismo alcance comparten una sola ejecución.
type UseCase struct {
	txRepo      repository.TransactionRepository
	summaryRepo repository.StockSummaryRepository
	policyRepo  repository.ReorderPolicyRepository
	reports     ReportStore
	policy      ledger.Policy
	log         *logger.Logger

	group singleflight.Group
	clock func() time.Time
	newID func() string
}

// NewUseCase construye el caso de uso. reports puede ser nil (no se guarda el último reporte).
func NewUseCase(
	txRepo repository.TransactionRepository,
	summaryRepo repository.StockSummaryRepository,
	policyRepo repository.ReorderPolicyRepository,
	reports ReportStore,
	policy ledger.Policy,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRepo:      txRepo,
		summaryRepo: summaryRepo,
		policyRepo:  policyRepo,
		reports:     reports,
		policy:      policy,
		log:         log.Component("reconciliation"),
		clock:       func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.NewString() },
	}
}

// WithClock reemplaza el reloj interno (tests deterministas).
func (uc *UseCase) WithClock(clock func() time.Time) {
	if clock != nil {
		uc.clock = clock
	}
}

// Policy devuelve la política vigente.
func (uc *UseCase) Policy() ledger.Policy { return uc.policy }

// Reconcile ejecuta (o se une a) la reconciliación del alcance y devuelve el reporte.
//
// Errores:
//   - domain.ErrInvalidInput si falta la empresa
//   - *domain.DataSourceError si falla alguna fuente (aborta la corrida completa)
//   - ctx.Err() si el contexto se cancela mientras espera
//
// Los registros inválidos no son error: quedan en report.Rejected con Status PARTIAL.
//
// La corrida compartida no hereda la cancelación de quien la inició: si ese llamador se va,
// los demás que esperan el mismo alcance siguen recibiendo el resultado.
func (uc *UseCase) Reconcile(ctx context.Context, scope Scope) (*dto.ReconciliationReport, error) {
	scope = NormalizeScope(scope)
	if scope.CompanyID == "" {
		return nil, fmt.Errorf("%w: company_id requerido", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := ScopeKey(scope)
	requestedAt := uc.clock()
	runCtx := context.WithoutCancel(ctx)

	resultCh := uc.group.DoChan(key, func() (interface{}, error) {
		return uc.run(runCtx, key, scope, requestedAt)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			uc.log.Debug().Str("scope", key).Msg("reconciliación compartida con una corrida en curso")
		}
		return res.Val.(*dto.ReconciliationReport), nil
	}
}

// Latest devuelve el último reporte completado para el alcance.
func (uc *UseCase) Latest(ctx context.Context, scope Scope) (*dto.ReconciliationReport, error) {
	scope = NormalizeScope(scope)
	if scope.CompanyID == "" {
		return nil, fmt.Errorf("%w: company_id requerido", domain.ErrInvalidInput)
	}
	if uc.reports == nil {
		return nil, domain.ErrNotFound
	}
	report, err := uc.reports.Latest(ctx, ScopeKey(scope))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, domain.NewDataSourceError(SourceReportStore, err)
	}
	return report, nil
}

// fetched datos crudos de una corrida.
type fetched struct {
	txs      []entity.StockTransaction
	summary  map[string]decimal.Decimal
	policies []entity.ReorderPolicy
}

// fetch lee las tres fuentes en paralelo. Las transacciones se cortan en until.
func (uc *UseCase) fetch(ctx context.Context, scope Scope, until time.Time) (*fetched, error) {
	type txResult struct {
		txs []entity.StockTransaction
		err error
	}
	type summaryResult struct {
		summary map[string]decimal.Decimal
		err     error
	}
	type policyResult struct {
		policies []entity.ReorderPolicy
		err      error
	}

	txCh := make(chan txResult, 1)
	summaryCh := make(chan summaryResult, 1)
	policyCh := make(chan policyResult, 1)

	go func() {
		txs, err := uc.txRepo.List(ctx, repository.TransactionFilter{
			CompanyID: scope.CompanyID,
			ItemCodes: scope.ItemCodes,
			To:        &until,
		})
		txCh <- txResult{txs, err}
	}()
	go func() {
		summary, err := uc.summaryRepo.FetchSummaryPositions(ctx, scope.CompanyID, scope.ItemCodes)
		summaryCh <- summaryResult{summary, err}
	}()
	go func() {
		policies, err := uc.policyRepo.ListPolicies(ctx, scope.CompanyID, scope.ItemCodes)
		policyCh <- policyResult{policies, err}
	}()

	txs := <-txCh
	summary := <-summaryCh
	policies := <-policyCh

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if txs.err != nil {
		return nil, domain.NewDataSourceError(SourceTransactions, txs.err)
	}
	if summary.err != nil {
		return nil, domain.NewDataSourceError(SourceStockSummary, summary.err)
	}
	if policies.err != nil {
		return nil, domain.NewDataSourceError(SourcePolicies, policies.err)
	}
	return &fetched{txs: txs.txs, summary: summary.summary, policies: policies.policies}, nil
}

func (uc *UseCase) run(ctx context.Context, key string, scope Scope, requestedAt time.Time) (*dto.ReconciliationReport, error) {
	asOf := requestedAt
	if scope.AsOf != nil {
		asOf = *scope.AsOf
	}
	runID := uc.newID()
	log := uc.log.With().Str("run_id", runID).Str("scope", key).Logger()

	// La vista se refresca con el reloj del sistema, así que el chequeo de integridad
	// compara contra el log cortado en el instante de la corrida, no en as_of.
	viewAt := requestedAt
	until := asOf
	if viewAt.After(until) {
		until = viewAt
	}

	data, err := uc.fetch(ctx, scope, until)
	if err != nil {
		log.Error().Err(err).Msg("reconciliación abortada")
		return nil, fmt.Errorf("reconciliation: %w", err)
	}

	report := uc.build(data, scope, asOf, viewAt)
	report.RunID = runID
	report.Scope = scope
	report.RequestedAt = requestedAt
	report.CompletedAt = uc.clock()

	log.Info().
		Str("status", string(report.Status)).
		Int("items", report.Summary.TotalItems).
		Int("alerts", report.Summary.AlertCount).
		Int("discrepancies", report.Summary.DiscrepancyCount).
		Int("rejected", report.Summary.RejectedCount).
		Msg("reconciliación completada")
	for _, d := range report.Discrepancies {
		log.Warn().
			Str("item_code", d.ItemCode).
			Str("ledger", d.LedgerComputedQuantity.String()).
			Str("view", d.MaterializedViewQuantity.String()).
			Str("delta", d.Delta.String()).
			Msg("diferencia entre log y vista materializada")
	}

	if uc.reports != nil {
		saved, err := uc.reports.SaveIfNewer(ctx, key, report)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("no se pudo guardar el último reporte")
		case !saved:
			log.Debug().Msg("existe un reporte más reciente; no se reemplaza")
		}
	}
	return report, nil
}

// build es la parte pura de la corrida: valida, agrega, clasifica, chequea integridad y rankea.
// Posiciones y clasificación usan el log hasta asOf; la integridad usa el log hasta viewAt.
func (uc *UseCase) build(data *fetched, scope Scope, asOf, viewAt time.Time) *dto.ReconciliationReport {
	p := uc.policy
	report := &dto.ReconciliationReport{
		AsOf:             asOf,
		IntegrityAsOf:    viewAt,
		Positions:        []entity.StockPosition{},
		Classifications:  []entity.ClassificationResult{},
		Alerts:           []entity.ClassificationResult{},
		Discrepancies:    []entity.IntegrityDiscrepancy{},
		NegativeBalances: []entity.StockPosition{},
		TurnoverRanking:  []entity.TurnoverRecord{},
		Rejected:         []domain.ValidationError{},
	}

	summary := normalizeSummary(data.summary)
	if len(data.txs) == 0 && len(summary) == 0 {
		report.Status = dto.ReportStatusEmpty
		return report
	}

	inCut := make([]entity.StockTransaction, 0, len(data.txs))
	for _, t := range data.txs {
		if !t.OccurredAt.After(asOf) {
			inCut = append(inCut, t)
		}
	}
	valid, rejected := ledger.SplitTransactions(inCut)
	report.Rejected = append(report.Rejected, rejected...)

	policies, badPolicies := ledger.SplitPolicies(data.policies)
	report.Rejected = append(report.Rejected, badPolicies...)
	skip := make(map[string]struct{}, len(badPolicies))
	for _, bp := range badPolicies {
		skip[ledger.NormalizeItemCode(bp.ItemCode)] = struct{}{}
	}

	positions := ledger.AggregatePositions(valid, asOf)
	for _, code := range scope.ItemCodes {
		if _, ok := positions[code]; !ok {
			positions[code] = entity.StockPosition{ItemCode: code, CurrentQuantity: decimal.Zero, LastComputedAt: asOf}
		}
	}

	byItem := make(map[string][]entity.StockTransaction, len(positions))
	for _, t := range valid {
		byItem[t.ItemCode] = append(byItem[t.ItemCode], t)
	}

	report.Positions = ledger.SortedPositions(positions)

	allValid, _ := ledger.SplitTransactions(data.txs)
	viewPositions := ledger.AggregatePositions(allValid, viewAt)
	report.Discrepancies = ledger.CheckIntegrity(ledger.Quantities(viewPositions), summary, p.Epsilon)

	turnover := make([]entity.TurnoverRecord, 0, len(positions))
	shortageValue := decimal.Zero
	for _, pos := range report.Positions {
		if pos.Negative {
			report.NegativeBalances = append(report.NegativeBalances, pos)
		}
		txs := byItem[pos.ItemCode]

		avgStock, issued := ledger.TurnoverInputs(txs, pos.ItemCode, asOf, p.TurnoverWindowDays)
		if rec, err := ledger.ClassifyTurnover(pos.ItemCode, avgStock, issued, p); err == nil {
			turnover = append(turnover, rec)
		}

		if _, bad := skip[pos.ItemCode]; bad {
			continue
		}
		// Sin política el punto de reorden es cero.
		policy := policies[pos.ItemCode]
		policy.ItemCode = pos.ItemCode
		avg := ledger.AverageDailyConsumption(txs, pos.ItemCode, asOf, p.ConsumptionWindowDays)
		res, err := ledger.Classify(pos, policy, avg, p)
		if err != nil {
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				report.Rejected = append(report.Rejected, *ve)
			}
			continue
		}
		report.Classifications = append(report.Classifications, res)
		shortageValue = shortageValue.Add(res.ShortageValue)
	}

	report.Alerts = ledger.RankAlerts(ledger.Alerts(report.Classifications))
	report.TurnoverRanking = ledger.RankTurnover(turnover)

	report.Status = dto.ReportStatusOK
	if len(report.Rejected) > 0 {
		report.Status = dto.ReportStatusPartial
	}

	critical := 0
	for _, a := range report.Alerts {
		if a.UrgencyLevel == entity.UrgencyCritical {
			critical++
		}
	}
	report.Summary = dto.ReportSummary{
		TotalItems:         len(report.Positions),
		AlertCount:         len(report.Alerts),
		CriticalCount:      critical,
		NegativeCount:      len(report.NegativeBalances),
		DiscrepancyCount:   len(report.Discrepancies),
		RejectedCount:      len(report.Rejected),
		TotalShortageValue: shortageValue,
	}
	return report
}

// normalizeSummary normaliza las claves de la vista; claves repetidas tras normalizar se suman.
func normalizeSummary(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		code := ledger.NormalizeItemCode(k)
		if code == "" {
			continue
		}
		out[code] = out[code].Add(in[k])
	}
	return out
}
