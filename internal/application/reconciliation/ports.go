package reconciliation

import (
	"context"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
)

// ReportStore guarda el último reporte completado por alcance.
// SaveIfNewer aplica "último completado gana" comparando RequestedAt: un reporte pedido
// antes que el almacenado no lo reemplaza aunque termine después. Devuelve true si guardó.
type ReportStore interface {
	SaveIfNewer(ctx context.Context, key string, report *dto.ReconciliationReport) (bool, error)
	// Latest devuelve domain.ErrNotFound si no hay reporte para la clave.
	Latest(ctx context.Context, key string) (*dto.ReconciliationReport, error)
}
