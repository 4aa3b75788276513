package ledger_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-reconciler/internal/domain"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/ledger"
)

// ──────────────────────────────────────────────────────────────────────────────
// ComputeStockPosition
// ──────────────────────────────────────────────────────────────────────────────

// OPENING 100 + GRN 50 − ISSUE 30 − ISSUE 20 = 100
func TestComputeStockPosition_EscenarioCompleto(t *testing.T) {
	txs := []entity.StockTransaction{
		txOn("RM-001", entity.TransactionTypeOpeningStock, "100", 10),
		txOn("RM-001", entity.TransactionTypeGRN, "50", 8),
		txOn("RM-001", entity.TransactionTypeIssue, "30", 5),
		txOn("RM-001", entity.TransactionTypeIssue, "20", 1),
	}

	pos, err := ledger.ComputeStockPosition("RM-001", txs, baseDate)
	require.NoError(t, err)
	assert.True(t, pos.CurrentQuantity.Equal(dec("100")), "esperado 100, obtenido %s", pos.CurrentQuantity)
	assert.False(t, pos.Negative)
	assert.Equal(t, baseDate, pos.LastComputedAt)
}

// La suma es conmutativa: cualquier permutación del log da el mismo saldo.
func TestComputeStockPosition_InvarianteAlOrden(t *testing.T) {
	txs := []entity.StockTransaction{
		txOn("RM-002", entity.TransactionTypeOpeningStock, "12.5", 20),
		txOn("RM-002", entity.TransactionTypeGRN, "7.25", 15),
		txOn("RM-002", entity.TransactionTypeGRN, "3.10", 12),
		txOn("RM-002", entity.TransactionTypeIssue, "4.05", 9),
		txOn("RM-002", entity.TransactionTypeIssue, "1.3", 2),
	}
	expected := dec("12.5").Add(dec("7.25")).Add(dec("3.10")).Sub(dec("4.05")).Sub(dec("1.3"))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := make([]entity.StockTransaction, len(txs))
		copy(shuffled, txs)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		pos, err := ledger.ComputeStockPosition("RM-002", shuffled, baseDate)
		require.NoError(t, err)
		assert.True(t, pos.CurrentQuantity.Equal(expected), "permutación %d: %s != %s", i, pos.CurrentQuantity, expected)
	}
}

// 10.000 entradas de 0.1 deben sumar exactamente 1000 (sin deriva de punto flotante).
func TestComputeStockPosition_SinDerivaDecimal(t *testing.T) {
	txs := make([]entity.StockTransaction, 0, 10_000)
	for i := 0; i < 10_000; i++ {
		txs = append(txs, txOn("RM-003", entity.TransactionTypeGRN, "0.1", 1))
	}
	pos, err := ledger.ComputeStockPosition("RM-003", txs, baseDate)
	require.NoError(t, err)
	assert.Equal(t, "1000", pos.CurrentQuantity.String())
}

func TestComputeStockPosition_SinTransaccionesEsCero(t *testing.T) {
	pos, err := ledger.ComputeStockPosition("RM-404", nil, baseDate)
	require.NoError(t, err)
	assert.True(t, pos.CurrentQuantity.IsZero())
	assert.False(t, pos.Negative)
}

// Un saldo negativo se reporta, nunca se recorta a cero.
func TestComputeStockPosition_SaldoNegativoSeMarca(t *testing.T) {
	txs := []entity.StockTransaction{
		txOn("RM-005", entity.TransactionTypeGRN, "5", 3),
		txOn("RM-005", entity.TransactionTypeIssue, "10", 1),
	}
	pos, err := ledger.ComputeStockPosition("RM-005", txs, baseDate)
	require.NoError(t, err)
	assert.True(t, pos.CurrentQuantity.Equal(dec("-5")))
	assert.True(t, pos.Negative, "el saldo negativo debe quedar marcado")
}

func TestComputeStockPosition_IgnoraPosterioresAsOfYOtrosItems(t *testing.T) {
	txs := []entity.StockTransaction{
		txOn("RM-006", entity.TransactionTypeGRN, "10", 3),
		txOn("RM-006", entity.TransactionTypeGRN, "99", -2), // futuro respecto a baseDate
		txOn("RM-999", entity.TransactionTypeGRN, "7", 1),
	}
	pos, err := ledger.ComputeStockPosition("rm-006", txs, baseDate)
	require.NoError(t, err)
	assert.True(t, pos.CurrentQuantity.Equal(dec("10")))
	assert.Equal(t, "RM-006", pos.ItemCode, "el código debe quedar normalizado")
}

func TestComputeStockPosition_CantidadNegativaEsErrorDeValidacion(t *testing.T) {
	bad := txOn("RM-007", entity.TransactionTypeIssue, "-3", 1)
	_, err := ledger.ComputeStockPosition("RM-007", []entity.StockTransaction{bad}, baseDate)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, domain.RecordKindTransaction, vErr.Kind)
}

// ──────────────────────────────────────────────────────────────────────────────
// AggregatePositions
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregatePositions_AgrupaPorItem(t *testing.T) {
	txs := []entity.StockTransaction{
		txOn("A", entity.TransactionTypeOpeningStock, "10", 5),
		txOn("a", entity.TransactionTypeIssue, "4", 2),
		txOn("B", entity.TransactionTypeGRN, "3", 1),
		txOn("B", entity.TransactionTypeIssue, "5", 1),
	}
	positions := ledger.AggregatePositions(txs, baseDate)
	require.Len(t, positions, 2)
	assert.True(t, positions["A"].CurrentQuantity.Equal(dec("6")))
	assert.True(t, positions["B"].CurrentQuantity.Equal(dec("-2")))
	assert.True(t, positions["B"].Negative)

	sorted := ledger.SortedPositions(positions)
	assert.Equal(t, "A", sorted[0].ItemCode)
	assert.Equal(t, "B", sorted[1].ItemCode)
}

// Cada item de AggregatePositions coincide con ComputeStockPosition.
func TestAggregatePositions_CoincideConComputeStockPosition(t *testing.T) {
	txs := []entity.StockTransaction{
		txOn("X", entity.TransactionTypeOpeningStock, "40", 30),
		txOn("X", entity.TransactionTypeIssue, "12.5", 10),
		txOn("Y", entity.TransactionTypeGRN, "8", 4),
		txOn("Y", entity.TransactionTypeGRN, "2", 4),
	}
	positions := ledger.AggregatePositions(txs, baseDate)
	for code, p := range positions {
		single, err := ledger.ComputeStockPosition(code, txs, baseDate)
		require.NoError(t, err)
		assert.True(t, single.CurrentQuantity.Equal(p.CurrentQuantity), "item %s", code)
	}
}
