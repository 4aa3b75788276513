package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
)

var _ repository.ReorderPolicyRepository = (*ReorderPolicyRepo)(nil)

type policyRow struct {
	CompanyID       string          `db:"company_id"`
	ItemCode        string          `db:"item_code"`
	ReorderLevel    decimal.Decimal `db:"reorder_level"`
	ReorderQuantity decimal.Decimal `db:"reorder_quantity"`
}

// ReorderPolicyRepo políticas de reorden sobre SQLite.
type ReorderPolicyRepo struct {
	db DBTX
}

func NewReorderPolicyRepository(db DBTX) *ReorderPolicyRepo {
	return &ReorderPolicyRepo{db: db}
}

func (r *ReorderPolicyRepo) ListPolicies(ctx context.Context, companyID string, itemCodes []string) ([]entity.ReorderPolicy, error) {
	query := `
		SELECT company_id, item_code, reorder_level, reorder_quantity
		FROM reorder_policies WHERE company_id = ?`
	args := []any{companyID}
	if len(itemCodes) > 0 {
		query += ` AND item_code IN (?)`
		args = append(args, itemCodes)
	}
	query += ` ORDER BY item_code`
	query, args, err := in(r.db, query, args...)
	if err != nil {
		return nil, err
	}

	var rows []policyRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list reorder policies: %w", err)
	}
	list := make([]entity.ReorderPolicy, 0, len(rows))
	for _, row := range rows {
		list = append(list, entity.ReorderPolicy{
			CompanyID:       row.CompanyID,
			ItemCode:        row.ItemCode,
			ReorderLevel:    row.ReorderLevel,
			ReorderQuantity: row.ReorderQuantity,
		})
	}
	return list, nil
}

func (r *ReorderPolicyRepo) Upsert(ctx context.Context, p *entity.ReorderPolicy) error {
	const q = `
		INSERT INTO reorder_policies (company_id, item_code, reorder_level, reorder_quantity, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(company_id, item_code) DO UPDATE SET
			reorder_level = excluded.reorder_level,
			reorder_quantity = excluded.reorder_quantity,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, q, p.CompanyID, p.ItemCode,
		p.ReorderLevel.String(), p.ReorderQuantity.String(), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert reorder policy: %w", err)
	}
	return nil
}
