package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/stock-reconciler/pkg/logger"
)

// SummaryRefresher lo implementa *inventory.UseCase.
type SummaryRefresher interface {
	RefreshSummary(ctx context.Context, companyID string) error
}

// SummaryRefreshJob recalcula la vista de saldos de una empresa o de todas.
type SummaryRefreshJob struct {
	refresher SummaryRefresher
	companies CompanyLister
	log       *logger.Logger
}

func NewSummaryRefreshJob(refresher SummaryRefresher, companies CompanyLister, log *logger.Logger) *SummaryRefreshJob {
	if log == nil {
		log = logger.Nop()
	}
	return &SummaryRefreshJob{
		refresher: refresher,
		companies: companies,
		log:       log.Component(TaskSummaryRefresh),
	}
}

// Handle procesa TaskSummaryRefresh.
func (j *SummaryRefreshJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.refresher == nil || j.companies == nil {
		return errors.New("summary refresh job: dependencias no configuradas")
	}
	var payload SummaryRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("payload inválido: %v: %w", err, asynq.SkipRetry)
	}
	companies, err := resolveCompanies(ctx, j.companies, payload.CompanyID)
	if err != nil {
		return err
	}
	for _, companyID := range companies {
		if err := j.refresher.RefreshSummary(ctx, companyID); err != nil {
			j.log.Error().Err(err).Str("company_id", companyID).Msg("refresco de vista fallido")
			return err
		}
	}
	j.log.Debug().Int("companies", len(companies)).Msg("vista de saldos refrescada")
	return nil
}
