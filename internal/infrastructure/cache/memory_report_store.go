package cache

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
	"github.com/jhoicas/stock-reconciler/internal/application/reconciliation"
	"github.com/jhoicas/stock-reconciler/internal/domain"
)

var _ reconciliation.ReportStore = (*MemoryReportStore)(nil)

// MemoryReportStore versión en proceso, para cuando no hay Redis configurado.
type MemoryReportStore struct {
	mu      sync.Mutex
	reports map[string]*dto.ReconciliationReport
}

func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{reports: make(map[string]*dto.ReconciliationReport)}
}

func (s *MemoryReportStore) SaveIfNewer(_ context.Context, key string, report *dto.ReconciliationReport) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.reports[key]; ok && cur.RequestedAt.After(report.RequestedAt) {
		return false, nil
	}
	s.reports[key] = report
	return true, nil
}

func (s *MemoryReportStore) Latest(_ context.Context, key string) (*dto.ReconciliationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}
