package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/domain/ledger"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
)

var _ repository.StockSummaryRepository = (*StockSummaryRepo)(nil)

type summaryRow struct {
	ItemCode string          `db:"item_code"`
	Quantity decimal.Decimal `db:"quantity"`
}

// StockSummaryRepo tabla stock_summary reescrita en cada Refresh. Hace de vista
// materializada: puede quedar desfasada respecto al log hasta el siguiente refresco.
type StockSummaryRepo struct {
	db    *sqlx.DB
	clock func() time.Time
}

func NewStockSummaryRepository(db *sqlx.DB) *StockSummaryRepo {
	return &StockSummaryRepo{db: db, clock: func() time.Time { return time.Now().UTC() }}
}

func (r *StockSummaryRepo) FetchSummaryPositions(ctx context.Context, companyID string, itemCodes []string) (map[string]decimal.Decimal, error) {
	query := `SELECT item_code, quantity FROM stock_summary WHERE company_id = ?`
	args := []any{companyID}
	if len(itemCodes) > 0 {
		query += ` AND item_code IN (?)`
		args = append(args, itemCodes)
	}
	query, args, err := in(r.db, query, args...)
	if err != nil {
		return nil, err
	}
	var rows []summaryRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetch stock summary: %w", err)
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.ItemCode] = row.Quantity
	}
	return out, nil
}

// Refresh recalcula los saldos de la empresa desde el log dentro de una transacción.
// companyID vacío refresca todas las empresas. La suma se hace con decimal exacto
// porque SUM de SQLite sobre TEXT convierte a REAL.
func (r *StockSummaryRepo) Refresh(ctx context.Context, companyID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin refresh: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txRepo := NewTransactionRepository(tx)
	companies := []string{companyID}
	if companyID == "" {
		if companies, err = txRepo.ListCompanies(ctx); err != nil {
			return err
		}
	}

	now := r.clock()
	for _, company := range companies {
		all, err := txRepo.List(ctx, repository.TransactionFilter{CompanyID: company})
		if err != nil {
			return err
		}
		valid, _ := ledger.SplitTransactions(all)
		view := ledger.Quantities(ledger.AggregatePositions(valid, now))

		if _, err := tx.ExecContext(ctx, `DELETE FROM stock_summary WHERE company_id = ?`, company); err != nil {
			return fmt.Errorf("limpiar stock_summary: %w", err)
		}
		for code, qty := range view {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO stock_summary (company_id, item_code, quantity, refreshed_at) VALUES (?, ?, ?, ?)`,
				company, code, qty.String(), formatTime(now)); err != nil {
				return fmt.Errorf("insertar stock_summary: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit refresh: %w", err)
	}
	return nil
}

// SetQuantity fija un saldo sin pasar por el log (simula desfase en tests y demos).
func (r *StockSummaryRepo) SetQuantity(ctx context.Context, companyID, itemCode string, qty decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_summary (company_id, item_code, quantity, refreshed_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(company_id, item_code) DO UPDATE SET quantity = excluded.quantity`,
		companyID, itemCode, qty.String(), formatTime(r.clock()))
	if err != nil {
		return fmt.Errorf("set stock_summary: %w", err)
	}
	return nil
}
