package repository

import (
	"context"

	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
)

// ReorderPolicyRepository puerto de lectura de políticas de reorden por ítem.
type ReorderPolicyRepository interface {
	ListPolicies(ctx context.Context, companyID string, itemCodes []string) ([]entity.ReorderPolicy, error)
	// Upsert crea o reemplaza la política del ítem.
	Upsert(ctx context.Context, policy *entity.ReorderPolicy) error
}
