package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/ledger"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
)

var base = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

func newTx(id, company, item string, typ entity.TransactionType, qty string, daysAgo int) *entity.StockTransaction {
	return &entity.StockTransaction{
		ID:              id,
		CompanyID:       company,
		ItemCode:        item,
		Type:            typ,
		Quantity:        decimal.RequireFromString(qty),
		OccurredAt:      base.AddDate(0, 0, -daysAgo),
		SourceReference: "ref-" + id,
	}
}

func seed(t *testing.T) *TransactionRepository {
	t.Helper()
	r := NewTransactionRepository()
	ctx := context.Background()
	require.NoError(t, r.Append(ctx, newTx("t3", "c-1", "A", entity.TransactionTypeIssue, "4", 1)))
	require.NoError(t, r.Append(ctx, newTx("t1", "c-1", "A", entity.TransactionTypeOpeningStock, "10", 10)))
	require.NoError(t, r.Append(ctx, newTx("t2", "c-1", "B", entity.TransactionTypeGRN, "7", 5)))
	require.NoError(t, r.Append(ctx, newTx("t4", "c-2", "A", entity.TransactionTypeGRN, "99", 5)))
	return r
}

func TestTransactionRepository_ListFiltraYOrdena(t *testing.T) {
	r := seed(t)
	ctx := context.Background()

	all, err := r.List(ctx, repository.TransactionFilter{CompanyID: "c-1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"t1", "t2", "t3"}, []string{all[0].ID, all[1].ID, all[2].ID})

	onlyA, err := r.List(ctx, repository.TransactionFilter{CompanyID: "c-1", ItemCodes: []string{"A"}})
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)

	to := base.AddDate(0, 0, -2)
	upTo, err := r.List(ctx, repository.TransactionFilter{CompanyID: "c-1", To: &to})
	require.NoError(t, err)
	assert.Len(t, upTo, 2)

	page, err := r.List(ctx, repository.TransactionFilter{CompanyID: "c-1", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "t2", page[0].ID)

	empty, err := r.List(ctx, repository.TransactionFilter{CompanyID: "c-1", Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTransactionRepository_DuplicadosRechazados(t *testing.T) {
	r := seed(t)
	ctx := context.Background()

	assert.ErrorIs(t, r.Append(ctx, newTx("t1", "c-1", "Z", entity.TransactionTypeGRN, "1", 0)), domain.ErrDuplicate)

	sameRef := newTx("t9", "c-1", "A", entity.TransactionTypeIssue, "1", 0)
	sameRef.SourceReference = "ref-t3"
	assert.ErrorIs(t, r.Append(ctx, sameRef), domain.ErrDuplicate)

	// Misma referencia con otro tipo no es duplicado (una GRN y su salida comparten documento).
	otherType := newTx("t10", "c-1", "A", entity.TransactionTypeGRN, "1", 0)
	otherType.SourceReference = "ref-t3"
	assert.NoError(t, r.Append(ctx, otherType))
}

func TestTransactionRepository_ListCompanies(t *testing.T) {
	r := seed(t)
	companies, err := r.ListCompanies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1", "c-2"}, companies)
}

// La vista refrescada coincide con el log; tras un append queda desfasada hasta el próximo refresh.
func TestStockSummaryRepository_RefreshYDesfase(t *testing.T) {
	ctx := context.Background()
	txs := seed(t)
	summary := NewStockSummaryRepository(txs)
	summary.clock = func() time.Time { return base }

	view, err := summary.FetchSummaryPositions(ctx, "c-1", nil)
	require.NoError(t, err)
	assert.Empty(t, view, "sin refresh la vista está vacía")

	require.NoError(t, summary.Refresh(ctx, "c-1"))
	view, err = summary.FetchSummaryPositions(ctx, "c-1", nil)
	require.NoError(t, err)

	all, err := txs.List(ctx, repository.TransactionFilter{CompanyID: "c-1"})
	require.NoError(t, err)
	fromLog := ledger.Quantities(ledger.AggregatePositions(all, base))
	assert.Empty(t, ledger.CheckIntegrity(fromLog, view, decimal.RequireFromString("0.01")))

	require.NoError(t, txs.Append(ctx, newTx("t5", "c-1", "B", entity.TransactionTypeIssue, "2", 0)))
	all, err = txs.List(ctx, repository.TransactionFilter{CompanyID: "c-1"})
	require.NoError(t, err)
	fromLog = ledger.Quantities(ledger.AggregatePositions(all, base))
	drift := ledger.CheckIntegrity(fromLog, view, decimal.RequireFromString("0.01"))
	require.Len(t, drift, 1)
	assert.Equal(t, "B", drift[0].ItemCode)

	onlyB, err := summary.FetchSummaryPositions(ctx, "c-1", []string{"B"})
	require.NoError(t, err)
	assert.Len(t, onlyB, 1)
}

func TestReorderPolicyRepository_UpsertYList(t *testing.T) {
	ctx := context.Background()
	r := NewReorderPolicyRepository()
	require.NoError(t, r.Upsert(ctx, &entity.ReorderPolicy{CompanyID: "c-1", ItemCode: "B", ReorderLevel: decimal.NewFromInt(5)}))
	require.NoError(t, r.Upsert(ctx, &entity.ReorderPolicy{CompanyID: "c-1", ItemCode: "A", ReorderLevel: decimal.NewFromInt(1)}))
	require.NoError(t, r.Upsert(ctx, &entity.ReorderPolicy{CompanyID: "c-1", ItemCode: "A", ReorderLevel: decimal.NewFromInt(3)}))

	all, err := r.ListPolicies(ctx, "c-1", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].ItemCode)
	assert.True(t, all[0].ReorderLevel.Equal(decimal.NewFromInt(3)))

	other, err := r.ListPolicies(ctx, "c-2", nil)
	require.NoError(t, err)
	assert.Empty(t, other)
}

// ─── TxRunner ──────────────────────────────────────────────────────────────

func TestTxRunner_AplicaTodoAlConfirmar(t *testing.T) {
	repo := NewTransactionRepository()
	runner := NewTxRunner(repo)
	ctx := context.Background()

	err := runner.Run(ctx, func(txRepo repository.TransactionRepository) error {
		if err := txRepo.Append(ctx, newTx("b1", "c-1", "A", entity.TransactionTypeGRN, "5", 1)); err != nil {
			return err
		}
		return txRepo.Append(ctx, newTx("b2", "c-1", "B", entity.TransactionTypeGRN, "6", 1))
	})
	require.NoError(t, err)

	got, err := repo.List(ctx, repository.TransactionFilter{CompanyID: "c-1"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestTxRunner_NoAplicaNadaSiFalla(t *testing.T) {
	repo := seed(t)
	runner := NewTxRunner(repo)
	ctx := context.Background()

	err := runner.Run(ctx, func(txRepo repository.TransactionRepository) error {
		if err := txRepo.Append(ctx, newTx("nuevo", "c-1", "A", entity.TransactionTypeGRN, "5", 1)); err != nil {
			return err
		}
		// t1 ya existe en el log base
		return txRepo.Append(ctx, newTx("t1", "c-1", "A", entity.TransactionTypeGRN, "5", 1))
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	got, err := repo.List(ctx, repository.TransactionFilter{CompanyID: "c-1"})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestTxRunner_DuplicadoDentroDelLote(t *testing.T) {
	repo := NewTransactionRepository()
	runner := NewTxRunner(repo)
	ctx := context.Background()

	err := runner.Run(ctx, func(txRepo repository.TransactionRepository) error {
		a := newTx("x1", "c-1", "A", entity.TransactionTypeGRN, "5", 1)
		b := newTx("x2", "c-1", "A", entity.TransactionTypeGRN, "5", 1)
		b.SourceReference = a.SourceReference
		if err := txRepo.Append(ctx, a); err != nil {
			return err
		}
		return txRepo.Append(ctx, b)
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	got, _ := repo.List(ctx, repository.TransactionFilter{CompanyID: "c-1"})
	assert.Empty(t, got)
}
