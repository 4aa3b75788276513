package memory

import (
	"context"

	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
)

// TxRunner acumula las altas de fn y las aplica juntas solo si fn termina sin error.
type TxRunner struct {
	repo *TransactionRepository
}

func NewTxRunner(repo *TransactionRepository) *TxRunner {
	return &TxRunner{repo: repo}
}

func (r *TxRunner) Run(ctx context.Context, fn func(txRepo repository.TransactionRepository) error) error {
	staged := &stagedRepo{base: r.repo}
	if err := fn(staged); err != nil {
		return err
	}
	return r.repo.appendAll(ctx, staged.pending)
}

// stagedRepo lee del log base y retiene las altas hasta el commit.
type stagedRepo struct {
	base    *TransactionRepository
	pending []entity.StockTransaction
}

func (s *stagedRepo) Append(ctx context.Context, t *entity.StockTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i := range s.pending {
		if s.pending[i].ID == t.ID || refKey(&s.pending[i]) == refKey(t) {
			return domain.ErrDuplicate
		}
	}
	if s.base.exists(t) {
		return domain.ErrDuplicate
	}
	s.pending = append(s.pending, *t)
	return nil
}

func (s *stagedRepo) List(ctx context.Context, f repository.TransactionFilter) ([]entity.StockTransaction, error) {
	return s.base.List(ctx, f)
}

func (s *stagedRepo) ListCompanies(ctx context.Context) ([]string, error) {
	return s.base.ListCompanies(ctx)
}
