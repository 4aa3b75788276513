// Package memory implementa los puertos de persistencia en memoria.
// Se usa con DB_DRIVER=memory (demo, desarrollo) y en tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository log append-only en memoria.
type TransactionRepository struct {
	mu   sync.RWMutex
	txs  []entity.StockTransaction
	ids  map[string]struct{}
	refs map[string]struct{}
}

// NewTransactionRepository crea el repositorio vacío.
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		ids:  make(map[string]struct{}),
		refs: make(map[string]struct{}),
	}
}

func refKey(t *entity.StockTransaction) string {
	return t.CompanyID + "|" + string(t.Type) + "|" + t.SourceReference
}

// Append agrega la transacción; rechaza id o referencia repetidos con domain.ErrDuplicate.
func (r *TransactionRepository) Append(ctx context.Context, t *entity.StockTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[t.ID]; ok {
		return domain.ErrDuplicate
	}
	if t.SourceReference != "" {
		if _, ok := r.refs[refKey(t)]; ok {
			return domain.ErrDuplicate
		}
		r.refs[refKey(t)] = struct{}{}
	}
	r.ids[t.ID] = struct{}{}
	r.txs = append(r.txs, *t)
	return nil
}

// List filtra por empresa, ítems y rango de occurred_at; ordena por occurred_at, id.
func (r *TransactionRepository) List(ctx context.Context, f repository.TransactionFilter) ([]entity.StockTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := make(map[string]struct{}, len(f.ItemCodes))
	for _, c := range f.ItemCodes {
		items[c] = struct{}{}
	}

	r.mu.RLock()
	out := make([]entity.StockTransaction, 0, len(r.txs))
	for _, t := range r.txs {
		if t.CompanyID != f.CompanyID {
			continue
		}
		if len(items) > 0 {
			if _, ok := items[t.ItemCode]; !ok {
				continue
			}
		}
		if f.From != nil && t.OccurredAt.Before(*f.From) {
			continue
		}
		if f.To != nil && t.OccurredAt.After(*f.To) {
			continue
		}
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []entity.StockTransaction{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// ListCompanies empresas con transacciones, ordenadas.
func (r *TransactionRepository) ListCompanies(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	out := []string{}
	for _, t := range r.txs {
		if _, ok := seen[t.CompanyID]; ok {
			continue
		}
		seen[t.CompanyID] = struct{}{}
		out = append(out, t.CompanyID)
	}
	sort.Strings(out)
	return out, nil
}

func (r *TransactionRepository) exists(t *entity.StockTransaction) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.ids[t.ID]; ok {
		return true
	}
	_, ok := r.refs[refKey(t)]
	return t.SourceReference != "" && ok
}

// appendAll agrega todas o ninguna.
func (r *TransactionRepository) appendAll(ctx context.Context, txs []entity.StockTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range txs {
		if _, ok := r.ids[txs[i].ID]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := r.refs[refKey(&txs[i])]; ok && txs[i].SourceReference != "" {
			return domain.ErrDuplicate
		}
	}
	for i := range txs {
		r.ids[txs[i].ID] = struct{}{}
		if txs[i].SourceReference != "" {
			r.refs[refKey(&txs[i])] = struct{}{}
		}
		r.txs = append(r.txs, txs[i])
	}
	return nil
}
