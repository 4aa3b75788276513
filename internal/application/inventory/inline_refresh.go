package inventory

import "context"

// InlineRefreshScheduler refresca la vista en el mismo proceso, sin cola. Es el
// RefreshScheduler del API cuando no hay Redis: cada escritura deja la vista al día.
type InlineRefreshScheduler struct {
	uc *UseCase
}

// NewInlineRefreshScheduler construye el scheduler sobre el caso de uso del log.
func NewInlineRefreshScheduler(uc *UseCase) *InlineRefreshScheduler {
	return &InlineRefreshScheduler{uc: uc}
}

// ScheduleSummaryRefresh refresca la vista de la empresa antes de volver.
func (s *InlineRefreshScheduler) ScheduleSummaryRefresh(ctx context.Context, companyID string) error {
	return s.uc.RefreshSummary(ctx, companyID)
}
