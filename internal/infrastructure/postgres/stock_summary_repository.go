package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
)

var _ repository.StockSummaryRepository = (*StockSummaryRepo)(nil)

// StockSummaryRepo lee la vista materializada stock_summary.
type StockSummaryRepo struct {
	q Querier
}

func NewStockSummaryRepository(q Querier) *StockSummaryRepo {
	return &StockSummaryRepo{q: q}
}

// FetchSummaryPositions devuelve item_code → cantidad según la vista (no el log).
func (r *StockSummaryRepo) FetchSummaryPositions(ctx context.Context, companyID string, itemCodes []string) (map[string]decimal.Decimal, error) {
	query := `SELECT item_code, quantity FROM stock_summary WHERE company_id = $1`
	args := []any{companyID}
	if len(itemCodes) > 0 {
		query += ` AND item_code = ANY($2)`
		args = append(args, itemCodes)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch stock summary: %w", err)
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var code string
		var qty decimal.Decimal
		if err := rows.Scan(&code, &qty); err != nil {
			return nil, fmt.Errorf("scan stock summary: %w", err)
		}
		out[code] = qty
	}
	return out, rows.Err()
}

// Refresh recalcula la vista completa sin bloquear lecturas. Postgres no refresca por
// empresa, así que companyID no acota el trabajo.
func (r *StockSummaryRepo) Refresh(ctx context.Context, _ string) error {
	if _, err := r.q.Exec(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY stock_summary`); err != nil {
		return fmt.Errorf("refresh stock summary: %w", err)
	}
	return nil
}
