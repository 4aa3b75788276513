package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
)

var _ repository.ReorderPolicyRepository = (*ReorderPolicyRepository)(nil)

// ReorderPolicyRepository políticas de reorden en memoria.
type ReorderPolicyRepository struct {
	mu       sync.RWMutex
	policies map[string]map[string]entity.ReorderPolicy
}

func NewReorderPolicyRepository() *ReorderPolicyRepository {
	return &ReorderPolicyRepository{policies: make(map[string]map[string]entity.ReorderPolicy)}
}

func (r *ReorderPolicyRepository) ListPolicies(ctx context.Context, companyID string, itemCodes []string) ([]entity.ReorderPolicy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	byItem := r.policies[companyID]
	out := make([]entity.ReorderPolicy, 0, len(byItem))
	if len(itemCodes) == 0 {
		for _, p := range byItem {
			out = append(out, p)
		}
	} else {
		for _, c := range itemCodes {
			if p, ok := byItem[c]; ok {
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemCode < out[j].ItemCode })
	return out, nil
}

func (r *ReorderPolicyRepository) Upsert(ctx context.Context, p *entity.ReorderPolicy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.policies[p.CompanyID] == nil {
		r.policies[p.CompanyID] = make(map[string]entity.ReorderPolicy)
	}
	r.policies[p.CompanyID][p.ItemCode] = *p
	return nil
}
