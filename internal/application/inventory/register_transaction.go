package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/ledger"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
	"github.com/jhoicas/stock-reconciler/pkg/logger"
)

// RegisterTransactionUseCase agrega transacciones al log (append-only).
// Es la entrada de eventos de compras (GRN), producción (ISSUE) y aperturas de stock.
type RegisterTransactionUseCase struct {
	txRepo    repository.TransactionRepository
	scheduler RefreshScheduler
	log       *logger.Logger
	clock     func() time.Time
}

// NewRegisterTransactionUseCase construye el caso de uso. scheduler puede ser nil.
func NewRegisterTransactionUseCase(txRepo repository.TransactionRepository, scheduler RefreshScheduler, log *logger.Logger) *RegisterTransactionUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &RegisterTransactionUseCase{
		txRepo:    txRepo,
		scheduler: scheduler,
		log:       log.Component("ledger"),
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// TransactionInputDTO entrada para registrar una transacción.
// OccurredAt cero = ahora.
type TransactionInputDTO struct {
	CompanyID       string
	ItemCode        string
	Type            string
	Quantity        decimal.Decimal
	OccurredAt      time.Time
	SourceReference string
}

// RegisterTransaction valida y agrega la transacción. Una transacción mal formada se rechaza
// con *domain.ValidationError; un evento repetido (misma referencia) con domain.ErrDuplicate.
func (uc *RegisterTransactionUseCase) RegisterTransaction(ctx context.Context, input TransactionInputDTO) (*entity.StockTransaction, error) {
	t, err := uc.build(input)
	if err != nil {
		return nil, err
	}

	if err := uc.txRepo.Append(ctx, &t); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("registrar transacción: %w", err)
	}

	uc.log.Info().
		Str("company_id", t.CompanyID).
		Str("item_code", t.ItemCode).
		Str("type", string(t.Type)).
		Str("quantity", t.Quantity.String()).
		Str("source_reference", t.SourceReference).
		Msg("transacción registrada")

	if uc.scheduler != nil {
		if err := uc.scheduler.ScheduleSummaryRefresh(ctx, t.CompanyID); err != nil {
			uc.log.Warn().Err(err).Str("company_id", t.CompanyID).Msg("no se pudo programar el refresco de la vista")
		}
	}
	return &t, nil
}

// RegisterTransactionFromRequest adapta el request HTTP al caso de uso.
func (uc *RegisterTransactionUseCase) RegisterTransactionFromRequest(ctx context.Context, companyID string, in dto.AppendTransactionRequest) (*entity.StockTransaction, error) {
	input := TransactionInputDTO{
		CompanyID:       companyID,
		ItemCode:        in.ItemCode,
		Type:            in.Type,
		Quantity:        in.Quantity,
		SourceReference: in.SourceReference,
	}
	if in.OccurredAt != nil {
		input.OccurredAt = *in.OccurredAt
	}
	return uc.RegisterTransaction(ctx, input)
}

// build arma y valida la transacción sin persistirla.
func (uc *RegisterTransactionUseCase) build(input TransactionInputDTO) (entity.StockTransaction, error) {
	if input.CompanyID == "" {
		return entity.StockTransaction{}, fmt.Errorf("%w: company_id requerido", domain.ErrInvalidInput)
	}
	now := uc.clock()
	occurredAt := input.OccurredAt.UTC()
	if input.OccurredAt.IsZero() {
		occurredAt = now
	}
	t := entity.StockTransaction{
		ID:              uuid.NewString(),
		CompanyID:       input.CompanyID,
		ItemCode:        ledger.NormalizeItemCode(input.ItemCode),
		Type:            entity.TransactionType(input.Type),
		Quantity:        input.Quantity,
		OccurredAt:      occurredAt,
		SourceReference: input.SourceReference,
		CreatedAt:       now,
	}
	if err := ledger.ValidateTransaction(t); err != nil {
		return entity.StockTransaction{}, err
	}
	if t.SourceReference == "" {
		return entity.StockTransaction{}, &domain.ValidationError{
			Kind:     domain.RecordKindTransaction,
			ItemCode: t.ItemCode,
			Reason:   "source_reference vacío",
		}
	}
	return t, nil
}
