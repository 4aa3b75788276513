package inventory

import (
	"context"

	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
)

// RefreshScheduler programa el refresco asíncrono de la vista materializada después de
// registrar transacciones. Lo implementa el cliente de jobs; nil = sin refresco automático.
type RefreshScheduler interface {
	ScheduleSummaryRefresh(ctx context.Context, companyID string) error
}

// TxRunner ejecuta fn dentro de una transacción de BD con el log atado a esa tx.
// Un lote de transacciones se registra completo o no se registra.
type TxRunner interface {
	Run(ctx context.Context, fn func(txRepo repository.TransactionRepository) error) error
}
