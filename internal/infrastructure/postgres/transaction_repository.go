package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo log de transacciones sobre PostgreSQL (usable con pool o tx).
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Append inserta la transacción. La tabla rechaza UPDATE/DELETE por trigger.
func (r *TransactionRepo) Append(ctx context.Context, t *entity.StockTransaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	query := `
		INSERT INTO stock_transactions (id, company_id, item_code, type, quantity, occurred_at, source_reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.CompanyID, t.ItemCode, string(t.Type), t.Quantity,
		t.OccurredAt, t.SourceReference, t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("append stock transaction: %w", err)
	}
	return nil
}

// List consulta el log con filtros opcionales, ordenado por occurred_at, id.
func (r *TransactionRepo) List(ctx context.Context, f repository.TransactionFilter) ([]entity.StockTransaction, error) {
	query := `
		SELECT id, company_id, item_code, type, quantity, occurred_at, source_reference, created_at
		FROM stock_transactions WHERE company_id = $1`
	args := []any{f.CompanyID}
	pos := 2
	if len(f.ItemCodes) > 0 {
		query += fmt.Sprintf(" AND item_code = ANY($%d)", pos)
		args = append(args, f.ItemCodes)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	query += " ORDER BY occurred_at, id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", pos)
		args = append(args, f.Limit)
		pos++
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", pos)
		args = append(args, f.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock transactions: %w", err)
	}
	defer rows.Close()

	list := []entity.StockTransaction{}
	for rows.Next() {
		var t entity.StockTransaction
		var typ string
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.ItemCode, &typ, &t.Quantity,
			&t.OccurredAt, &t.SourceReference, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock transaction: %w", err)
		}
		t.Type = entity.TransactionType(typ)
		list = append(list, t)
	}
	return list, rows.Err()
}

// ListCompanies empresas con al menos una transacción.
func (r *TransactionRepo) ListCompanies(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT company_id FROM stock_transactions ORDER BY company_id`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
