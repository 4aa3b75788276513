package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

type transactionRow struct {
	ID              string          `db:"id"`
	CompanyID       string          `db:"company_id"`
	ItemCode        string          `db:"item_code"`
	Type            string          `db:"type"`
	Quantity        decimal.Decimal `db:"quantity"`
	OccurredAt      string          `db:"occurred_at"`
	SourceReference string          `db:"source_reference"`
	CreatedAt       string          `db:"created_at"`
}

func (r transactionRow) toEntity() (entity.StockTransaction, error) {
	occurred, err := parseTime(r.OccurredAt)
	if err != nil {
		return entity.StockTransaction{}, err
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return entity.StockTransaction{}, err
	}
	return entity.StockTransaction{
		ID:              r.ID,
		CompanyID:       r.CompanyID,
		ItemCode:        r.ItemCode,
		Type:            entity.TransactionType(r.Type),
		Quantity:        r.Quantity,
		OccurredAt:      occurred,
		SourceReference: r.SourceReference,
		CreatedAt:       created,
	}, nil
}

// TransactionRepo log de transacciones sobre SQLite (usable con *sqlx.DB o *sqlx.Tx).
type TransactionRepo struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// Append inserta la transacción; id o (empresa, tipo, referencia) repetidos ⇒ domain.ErrDuplicate.
func (r *TransactionRepo) Append(ctx context.Context, t *entity.StockTransaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO stock_transactions (id, company_id, item_code, type, quantity, occurred_at, source_reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		t.ID, t.CompanyID, t.ItemCode, string(t.Type), t.Quantity.String(),
		formatTime(t.OccurredAt), t.SourceReference, formatTime(t.CreatedAt),
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
		FROM stock_transactions WHERE company_id = ?`
	args := []any{f.CompanyID}
	if len(f.ItemCodes) > 0 {
		query += ` AND item_code IN (?)`
		args = append(args, f.ItemCodes)
	}
	if f.From != nil {
		query += ` AND occurred_at >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += ` AND occurred_at <= ?`
		args = append(args, formatTime(*f.To))
	}
	query += ` ORDER BY occurred_at, id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, f.Offset)
		}
	} else if f.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, f.Offset)
	}

	query, args, err := in(r.db, query, args...)
	if err != nil {
		return nil, err
	}
	var rows []transactionRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list stock transactions: %w", err)
	}
	list := make([]entity.StockTransaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toEntity()
		if err != nil {
			return nil, fmt.Errorf("transacción %s: %w", row.ID, err)
		}
		list = append(list, t)
	}
	return list, nil
}

// ListCompanies empresas con al menos una transacción.
func (r *TransactionRepo) ListCompanies(ctx context.Context) ([]string, error) {
	out := []string{}
	if err := sqlx.SelectContext(ctx, r.db, &out, `SELECT DISTINCT company_id FROM stock_transactions ORDER BY company_id`); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return out, nil
}
