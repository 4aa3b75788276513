package ledger

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
)

// NormalizeItemCode normaliza el código de ítem (NFC, sin espacios, mayúsculas)
// para que "rm-001 " y "RM-001" agreguen sobre la misma posición.
// cases.Caser no es seguro entre goroutines: se crea uno por llamada.
func NormalizeItemCode(code string) string {
	code = strings.TrimSpace(norm.NFC.String(code))
	if code == "" {
		return ""
	}
	return cases.Upper(language.Und).String(code)
}

// NormalizeItemCodes normaliza y deduplica una lista de códigos, descartando vacíos.
func NormalizeItemCodes(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n := NormalizeItemCode(c)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// ValidateTransaction rechaza transacciones mal formadas en vez de corregirlas.
func ValidateTransaction(t entity.StockTransaction) error {
	reject := func(reason string) error {
		return &domain.ValidationError{
			Kind:            domain.RecordKindTransaction,
			ID:              t.ID,
			ItemCode:        t.ItemCode,
			SourceReference: t.SourceReference,
			Reason:          reason,
		}
	}
	if NormalizeItemCode(t.ItemCode) == "" {
		return reject("item_code vacío")
	}
	if !t.Type.Valid() {
		return reject("tipo de transacción desconocido: " + string(t.Type))
	}
	if !t.Quantity.IsPositive() {
		return reject("la cantidad debe ser positiva (el signo lo define el tipo)")
	}
	if t.OccurredAt.IsZero() {
		return reject("occurred_at vacío")
	}
	return nil
}

// ValidatePolicy rechaza políticas con niveles negativos.
func ValidatePolicy(p entity.ReorderPolicy) error {
	reject := func(reason string) error {
		return &domain.ValidationError{
			Kind:     domain.RecordKindPolicy,
			ItemCode: p.ItemCode,
			Reason:   reason,
		}
	}
	if NormalizeItemCode(p.ItemCode) == "" {
		return reject("item_code vacío")
	}
	if p.ReorderLevel.IsNegative() {
		return reject("reorder_level negativo")
	}
	if p.ReorderQuantity.IsNegative() {
		return reject("reorder_quantity negativo")
	}
	return nil
}

// SplitTransactions separa el lote en transacciones válidas (con item_code normalizado)
// y rechazadas. Un registro inválido no aborta el lote. IDs repetidos se rechazan
// para no contar dos veces la misma transacción.
func SplitTransactions(txs []entity.StockTransaction) ([]entity.StockTransaction, []domain.ValidationError) {
	valid := make([]entity.StockTransaction, 0, len(txs))
	var rejected []domain.ValidationError
	seen := make(map[string]struct{}, len(txs))
	for _, t := range txs {
		if err := ValidateTransaction(t); err != nil {
			rejected = append(rejected, *err.(*domain.ValidationError))
			continue
		}
		if t.ID != "" {
			if _, dup := seen[t.ID]; dup {
				rejected = append(rejected, domain.ValidationError{
					Kind:            domain.RecordKindTransaction,
					ID:              t.ID,
					ItemCode:        t.ItemCode,
					SourceReference: t.SourceReference,
					Reason:          "transacción duplicada en el lote",
				})
				continue
			}
			seen[t.ID] = struct{}{}
		}
		t.ItemCode = NormalizeItemCode(t.ItemCode)
		valid = append(valid, t)
	}
	return valid, rejected
}

// SplitPolicies indexa las políticas válidas por item_code normalizado.
// Si un ítem tiene varias políticas gana la última.
func SplitPolicies(policies []entity.ReorderPolicy) (map[string]entity.ReorderPolicy, []domain.ValidationError) {
	valid := make(map[string]entity.ReorderPolicy, len(policies))
	var rejected []domain.ValidationError
	for _, p := range policies {
		if err := ValidatePolicy(p); err != nil {
			rejected = append(rejected, *err.(*domain.ValidationError))
			continue
		}
		p.ItemCode = NormalizeItemCode(p.ItemCode)
		valid[p.ItemCode] = p
	}
	return valid, rejected
}
