package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
)

var _ repository.ReorderPolicyRepository = (*ReorderPolicyRepo)(nil)

// ReorderPolicyRepo políticas de reorden sobre PostgreSQL.
type ReorderPolicyRepo struct {
	q Querier
}

func NewReorderPolicyRepository(q Querier) *ReorderPolicyRepo {
	return &ReorderPolicyRepo{q: q}
}

func (r *ReorderPolicyRepo) ListPolicies(ctx context.Context, companyID string, itemCodes []string) ([]entity.ReorderPolicy, error) {
	query := `
		SELECT company_id, item_code, reorder_level, reorder_quantity
		FROM reorder_policies WHERE company_id = $1`
	args := []any{companyID}
	if len(itemCodes) > 0 {
		query += ` AND item_code = ANY($2)`
		args = append(args, itemCodes)
	}
	query += ` ORDER BY item_code`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reorder policies: %w", err)
	}
	defer rows.Close()
	list := []entity.ReorderPolicy{}
	for rows.Next() {
		var p entity.ReorderPolicy
		if err := rows.Scan(&p.CompanyID, &p.ItemCode, &p.ReorderLevel, &p.ReorderQuantity); err != nil {
			return nil, fmt.Errorf("scan reorder policy: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *ReorderPolicyRepo) Upsert(ctx context.Context, p *entity.ReorderPolicy) error {
	query := `
		INSERT INTO reorder_policies (company_id, item_code, reorder_level, reorder_quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (company_id, item_code)
		DO UPDATE SET reorder_level = EXCLUDED.reorder_level,
		              reorder_quantity = EXCLUDED.reorder_quantity,
		              updated_at = now()`
	if _, err := r.q.Exec(ctx, query, p.CompanyID, p.ItemCode, p.ReorderLevel, p.ReorderQuantity); err != nil {
		return fmt.Errorf("upsert reorder policy: %w", err)
	}
	return nil
}
