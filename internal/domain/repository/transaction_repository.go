package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
)

// TransactionFilter filtros de consulta del log de transacciones.
// ItemCodes vacío = todos los ítems de la empresa. From/To acotan occurred_at (inclusive).
// Limit <= 0 = sin límite.
type TransactionFilter struct {
	CompanyID string
	ItemCodes []string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// TransactionRepository define el puerto del log de transacciones (append-only).
// No existe Update ni Delete: una corrección es una nueva transacción.
type TransactionRepository interface {
	// Append agrega una transacción. Devuelve domain.ErrDuplicate si ya existe
	// (mismo id o misma empresa+tipo+source_reference).
	Append(ctx context.Context, tx *entity.StockTransaction) error
	// List devuelve las transacciones ordenadas por occurred_at, id.
	List(ctx context.Context, filter TransactionFilter) ([]entity.StockTransaction, error)
	// ListCompanies devuelve las empresas con al menos una transacción (jobs programados).
	ListCompanies(ctx context.Context) ([]string, error)
}
