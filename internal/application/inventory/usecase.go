// Package inventory contiene los casos de uso de lectura y escritura del log de stock:
// registro de transacciones, consulta del log, posiciones agregadas, políticas de reorden
// y refresco de la vista materializada.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/ledger"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
	"github.com/jhoicas/stock-reconciler/pkg/logger"
)

// UseCase consultas del log y mantenimiento de políticas y vista.
type UseCase struct {
	txRepo      repository.TransactionRepository
	summaryRepo repository.StockSummaryRepository
	policyRepo  repository.ReorderPolicyRepository
	log         *logger.Logger
	clock       func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRepo repository.TransactionRepository,
	summaryRepo repository.StockSummaryRepository,
	policyRepo repository.ReorderPolicyRepository,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRepo:      txRepo,
		summaryRepo: summaryRepo,
		policyRepo:  policyRepo,
		log:         log.Component("ledger"),
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

// ListTransactions devuelve una página del log filtrada por ítem y rango de fechas.
// from/to aceptan RFC3339 o YYYY-MM-DD (to por fecha incluye el día completo).
func (uc *UseCase) ListTransactions(ctx context.Context, companyID string, q dto.ListTransactionsQuery) (*dto.TransactionListResponse, error) {
	q.DefaultPage()
	filter := repository.TransactionFilter{
		CompanyID: companyID,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	if code := ledger.NormalizeItemCode(q.ItemCode); code != "" {
		filter.ItemCodes = []string{code}
	}
	var err error
	if filter.From, err = parseDate(q.From, false); err != nil {
		return nil, err
	}
	if filter.To, err = parseDate(q.To, true); err != nil {
		return nil, err
	}

	items, err := uc.txRepo.List(ctx, filter)
	if err != nil {
		return nil, domain.NewDataSourceError("transactions", err)
	}
	if items == nil {
		items = []entity.StockTransaction{}
	}
	return &dto.TransactionListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Count: len(items)},
	}, nil
}

// Positions ejecuta solo el agregador (sin clasificar ni comparar con la vista).
// Las transacciones inválidas se omiten; la reconciliación completa las reporta.
func (uc *UseCase) Positions(ctx context.Context, companyID string, itemCodes []string, asOf *time.Time) (*dto.PositionsResponse, error) {
	cut := uc.clock()
	if asOf != nil {
		cut = asOf.UTC()
	}
	codes := ledger.NormalizeItemCodes(itemCodes)
	txs, err := uc.txRepo.List(ctx, repository.TransactionFilter{CompanyID: companyID, ItemCodes: codes, To: &cut})
	if err != nil {
		return nil, domain.NewDataSourceError("transactions", err)
	}
	valid, rejected := ledger.SplitTransactions(txs)
	if len(rejected) > 0 {
		uc.log.Warn().Str("company_id", companyID).Int("rejected", len(rejected)).Msg("transacciones inválidas omitidas en posiciones")
	}
	positions := ledger.AggregatePositions(valid, cut)
	for _, code := range codes {
		if _, ok := positions[code]; !ok {
			positions[code] = entity.StockPosition{ItemCode: code, LastComputedAt: cut}
		}
	}
	return &dto.PositionsResponse{AsOf: cut, Positions: ledger.SortedPositions(positions)}, nil
}

// ListPolicies devuelve las políticas de reorden de la empresa.
func (uc *UseCase) ListPolicies(ctx context.Context, companyID string, itemCodes []string) ([]entity.ReorderPolicy, error) {
	policies, err := uc.policyRepo.ListPolicies(ctx, companyID, ledger.NormalizeItemCodes(itemCodes))
	if err != nil {
		return nil, domain.NewDataSourceError("reorder_policies", err)
	}
	if policies == nil {
		policies = []entity.ReorderPolicy{}
	}
	return policies, nil
}

// UpsertPolicy crea o reemplaza la política de un ítem.
func (uc *UseCase) UpsertPolicy(ctx context.Context, companyID, itemCode string, in dto.UpsertPolicyRequest) (*entity.ReorderPolicy, error) {
	p := entity.ReorderPolicy{
		CompanyID:       companyID,
		ItemCode:        ledger.NormalizeItemCode(itemCode),
		ReorderLevel:    in.ReorderLevel,
		ReorderQuantity: in.ReorderQuantity,
	}
	if err := ledger.ValidatePolicy(p); err != nil {
		return nil, err
	}
	if err := uc.policyRepo.Upsert(ctx, &p); err != nil {
		return nil, fmt.Errorf("guardar política: %w", err)
	}
	return &p, nil
}

// RefreshSummary recalcula la vista materializada de la empresa.
func (uc *UseCase) RefreshSummary(ctx context.Context, companyID string) error {
	start := time.Now()
	if err := uc.summaryRepo.Refresh(ctx, companyID); err != nil {
		return domain.NewDataSourceError("stock_summary", err)
	}
	uc.log.Info().Str("company_id", companyID).Dur("duration", time.Since(start)).Msg("vista de stock refrescada")
	return nil
}

func parseDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha inválida %q (RFC3339 o YYYY-MM-DD)", domain.ErrInvalidInput, s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
