package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/domain/ledger"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
)

var _ repository.StockSummaryRepository = (*StockSummaryRepository)(nil)

// StockSummaryRepository vista materializada en memoria: una foto del log tomada en Refresh.
type StockSummaryRepository struct {
	mu    sync.RWMutex
	txs   *TransactionRepository
	views map[string]map[string]decimal.Decimal // company → item → qty
	clock func() time.Time
}

// NewStockSummaryRepository crea la vista sobre el log dado.
func NewStockSummaryRepository(txs *TransactionRepository) *StockSummaryRepository {
	return &StockSummaryRepository{
		txs:   txs,
		views: make(map[string]map[string]decimal.Decimal),
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// FetchSummaryPositions devuelve la última foto (vacía si nunca se refrescó).
func (r *StockSummaryRepository) FetchSummaryPositions(ctx context.Context, companyID string, itemCodes []string) (map[string]decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	view := r.views[companyID]
	out := make(map[string]decimal.Decimal, len(view))
	if len(itemCodes) == 0 {
		for k, v := range view {
			out[k] = v
		}
		return out, nil
	}
	for _, c := range itemCodes {
		if v, ok := view[c]; ok {
			out[c] = v
		}
	}
	return out, nil
}

// Refresh recalcula la foto desde el log.
func (r *StockSummaryRepository) Refresh(ctx context.Context, companyID string) error {
	all, err := r.txs.List(ctx, repository.TransactionFilter{CompanyID: companyID})
	if err != nil {
		return err
	}
	valid, _ := ledger.SplitTransactions(all)
	view := ledger.Quantities(ledger.AggregatePositions(valid, r.clock()))

	r.mu.Lock()
	r.views[companyID] = view
	r.mu.Unlock()
	return nil
}

// Set fija una cantidad en la vista sin pasar por el log (simula desfase).
func (r *StockSummaryRepository) Set(companyID, itemCode string, qty decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.views[companyID] == nil {
		r.views[companyID] = make(map[string]decimal.Decimal)
	}
	r.views[companyID][itemCode] = qty
}
