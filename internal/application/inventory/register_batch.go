package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
)

// RegisterBatch registra varias transacciones de un mismo documento (p.ej. una GRN con
// varias líneas) en una sola transacción de BD. Si alguna línea es inválida o repetida
// no se registra ninguna y el error indica la línea. Cada línea necesita su propia
// source_reference (p.ej. "GRN-0042/1").
func (uc *RegisterTransactionUseCase) RegisterBatch(ctx context.Context, runner TxRunner, companyID string, in dto.AppendBatchRequest) ([]entity.StockTransaction, error) {
	if runner == nil {
		return nil, errors.New("registrar lote: sin soporte transaccional")
	}
	if companyID == "" {
		return nil, fmt.Errorf("%w: company_id requerido", domain.ErrInvalidInput)
	}

	staged := make([]entity.StockTransaction, 0, len(in.Transactions))
	for i, line := range in.Transactions {
		input := TransactionInputDTO{
			CompanyID:       companyID,
			ItemCode:        line.ItemCode,
			Type:            line.Type,
			Quantity:        line.Quantity,
			SourceReference: line.SourceReference,
		}
		if line.OccurredAt != nil {
			input.OccurredAt = *line.OccurredAt
		}
		t, err := uc.build(input)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", i+1, err)
		}
		staged = append(staged, t)
	}
	seen := make(map[string]int, len(staged))
	for i, t := range staged {
		key := string(t.Type) + "|" + t.SourceReference
		if first, dup := seen[key]; dup {
			return nil, fmt.Errorf("línea %d repite la referencia de la línea %d: %w", i+1, first+1, domain.ErrDuplicate)
		}
		seen[key] = i
	}

	err := runner.Run(ctx, func(txRepo repository.TransactionRepository) error {
		for i := range staged {
			if err := txRepo.Append(ctx, &staged[i]); err != nil {
				return fmt.Errorf("línea %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("company_id", companyID).Int("lines", len(staged)).Msg("lote de transacciones registrado")
	if uc.scheduler != nil {
		if err := uc.scheduler.ScheduleSummaryRefresh(ctx, companyID); err != nil {
			uc.log.Warn().Err(err).Str("company_id", companyID).Msg("no se pudo programar el refresco de la vista")
		}
	}
	return staged, nil
}
