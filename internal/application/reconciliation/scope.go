package reconciliation

import (
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
	"github.com/jhoicas/stock-reconciler/internal/domain/ledger"
)

// Scope alcance de una reconciliación.
type Scope = dto.ReconciliationScope

const latestAsOf = "latest"

// NormalizeScope normaliza y ordena los códigos de ítem y lleva as_of a UTC.
func NormalizeScope(s Scope) Scope {
	codes := ledger.NormalizeItemCodes(s.ItemCodes)
	sort.Strings(codes)
	out := Scope{CompanyID: strings.TrimSpace(s.CompanyID), ItemCodes: codes}
	if s.AsOf != nil {
		asOf := s.AsOf.UTC()
		out.AsOf = &asOf
	}
	return out
}

// ScopeKey clave de deduplicación y de último reporte: empresa, ítems ordenados y as_of
// ("latest" si no se indicó). Dos alcances equivalentes producen la misma clave.
func ScopeKey(s Scope) string {
	s = NormalizeScope(s)
	items := "*"
	if len(s.ItemCodes) > 0 {
		items = strings.Join(s.ItemCodes, ",")
	}
	asOf := latestAsOf
	if s.AsOf != nil {
		asOf = s.AsOf.Format(time.RFC3339Nano)
	}
	return s.CompanyID + "|" + items + "|" + asOf
}
