package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-reconciler/internal/domain/ledger"
)

var epsilon = dec("0.01")

// Sin falsos positivos cuando log y vista coinciden exactamente.
func TestCheckIntegrity_MapasIgualesNoReportan(t *testing.T) {
	x := map[string]decimal.Decimal{"A": dec("10"), "B": dec("-3"), "C": dec("0"), "D": dec("123.456")}
	assert.Empty(t, ledger.CheckIntegrity(x, x, epsilon))
	assert.Empty(t, ledger.CheckIntegrity(map[string]decimal.Decimal{}, map[string]decimal.Decimal{}, epsilon))
}

// Clave ausente cuenta como cero, no se omite.
func TestCheckIntegrity_ClaveSoloEnLedger(t *testing.T) {
	out := ledger.CheckIntegrity(map[string]decimal.Decimal{"A": dec("10")}, map[string]decimal.Decimal{}, epsilon)
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].ItemCode)
	assert.True(t, out[0].Delta.Equal(dec("10")))
	assert.True(t, out[0].MaterializedViewQuantity.IsZero())
}

func TestCheckIntegrity_ClaveSoloEnVista(t *testing.T) {
	out := ledger.CheckIntegrity(map[string]decimal.Decimal{}, map[string]decimal.Decimal{"Z": dec("5")}, epsilon)
	require.Len(t, out, 1)
	assert.True(t, out[0].Delta.Equal(dec("-5")))
	assert.True(t, out[0].LedgerComputedQuantity.IsZero())
}

func TestCheckIntegrity_ToleranciaEpsilon(t *testing.T) {
	ledgerQty := map[string]decimal.Decimal{"A": dec("10.01"), "B": dec("10.011"), "C": dec("9.99")}
	viewQty := map[string]decimal.Decimal{"A": dec("10"), "B": dec("10"), "C": dec("10")}

	out := ledger.CheckIntegrity(ledgerQty, viewQty, epsilon)
	require.Len(t, out, 1, "solo |delta| > 0.01 debe reportarse")
	assert.Equal(t, "B", out[0].ItemCode)
}

// Repetir el chequeo con los mismos datos produce el mismo reporte, ordenado.
func TestCheckIntegrity_IdempotenteYOrdenado(t *testing.T) {
	ledgerQty := map[string]decimal.Decimal{"C": dec("1"), "A": dec("2"), "B": dec("3")}
	viewQty := map[string]decimal.Decimal{}

	first := ledger.CheckIntegrity(ledgerQty, viewQty, epsilon)
	second := ledger.CheckIntegrity(ledgerQty, viewQty, epsilon)
	assert.Equal(t, first, second)
	require.Len(t, first, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{first[0].ItemCode, first[1].ItemCode, first[2].ItemCode})
}
