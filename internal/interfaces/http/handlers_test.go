package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
	"github.com/jhoicas/stock-reconciler/internal/application/inventory"
	"github.com/jhoicas/stock-reconciler/internal/application/reconciliation"
	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
	"github.com/jhoicas/stock-reconciler/internal/domain/ledger"
	"github.com/jhoicas/stock-reconciler/internal/domain/repository"
	"github.com/jhoicas/stock-reconciler/internal/infrastructure/cache"
	"github.com/jhoicas/stock-reconciler/internal/infrastructure/memory"
	"github.com/jhoicas/stock-reconciler/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/stock-reconciler/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stock-reconciler/pkg/jwt"
	"github.com/jhoicas/stock-reconciler/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Entorno: casos de uso reales sobre los repositorios en memoria
// ──────────────────────────────────────────────────────────────────────────────

type failingTxRepo struct{}

func (failingTxRepo) Append(context.Context, *entity.StockTransaction) error {
	return errors.New("conexión rechazada")
}

func (failingTxRepo) List(context.Context, repository.TransactionFilter) ([]entity.StockTransaction, error) {
	return nil, errors.New("conexión rechazada")
}

func (failingTxRepo) ListCompanies(context.Context) ([]string, error) {
	return nil, errors.New("conexión rechazada")
}

type fakeScheduler struct {
	scopes []dto.ReconciliationScope
}

func (f *fakeScheduler) ScheduleReconcile(_ context.Context, scope dto.ReconciliationScope) (*dto.ScheduleResponse, error) {
	f.scopes = append(f.scopes, scope)
	return &dto.ScheduleResponse{TaskID: "task-1", Queue: "default"}, nil
}

type testEnv struct {
	app      *fiber.App
	txs      *memory.TransactionRepository
	policies *memory.ReorderPolicyRepository
}

type envOpts struct {
	txRepo        repository.TransactionRepository
	withRunner    bool
	scheduler     apphttp.ReconcileScheduler
	inlineRefresh bool
}

func newTestEnv(t *testing.T, opts envOpts) *testEnv {
	t.Helper()
	e := &testEnv{
		txs:      memory.NewTransactionRepository(),
		policies: memory.NewReorderPolicyRepository(),
	}
	var txRepo repository.TransactionRepository = e.txs
	if opts.txRepo != nil {
		txRepo = opts.txRepo
	}
	summary := memory.NewStockSummaryRepository(e.txs)
	log := logger.Nop()

	ledgerUC := inventory.NewUseCase(txRepo, summary, e.policies, log)
	var refresher inventory.RefreshScheduler
	if opts.inlineRefresh {
		refresher = inventory.NewInlineRefreshScheduler(ledgerUC)
	}
	deps := apphttp.RouterDeps{
		RegisterTransaction: inventory.NewRegisterTransactionUseCase(txRepo, refresher, log),
		Ledger:              ledgerUC,
		Reconciliation: reconciliation.NewUseCase(txRepo, summary, e.policies,
			cache.NewMemoryReportStore(), ledger.DefaultPolicy(), log),
		PDF:       pdf.NewMarotoAlertReportGenerator(),
		Scheduler: opts.scheduler,
		JWTSecret: testJWTSecret,
		JWTIssuer: testIssuer,
	}
	if opts.withRunner {
		deps.TxRunner = memory.NewTxRunner(e.txs)
	}

	e.app = fiber.New()
	e.app.Use(apphttp.RequestLogger(log))
	apphttp.Router(e.app, deps)
	return e
}

func (e *testEnv) do(t *testing.T, method, path, role string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", bearer(t, role, testIssuer))
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func txBody(item, typ, qty, ref string, occurredAt time.Time) map[string]any {
	return map[string]any{
		"item_code":        item,
		"type":             typ,
		"quantity":         qty,
		"occurred_at":      occurredAt.Format(time.RFC3339),
		"source_reference": ref,
	}
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	ago := func(days int) time.Time { return time.Now().UTC().AddDate(0, 0, -days) }
	for _, b := range []map[string]any{
		txBody("rm-001", "OPENING_STOCK", "10", "OPEN-1", ago(20)),
		txBody("rm-001", "ISSUE", "9", "ISS-1", ago(2)),
		txBody("rm-002", "GRN", "500", "GRN-1", ago(5)),
	} {
		resp := e.do(t, http.MethodPost, "/api/ledger/transactions", pkgjwt.RoleOperator, b)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}
	require.NoError(t, e.policies.Upsert(context.Background(), &entity.ReorderPolicy{
		CompanyID: testCompanyID, ItemCode: "RM-001", ReorderLevel: decimal.NewFromInt(40),
	}))
}

// ──────────────────────────────────────────────────────────────────────────────
// Ledger
// ──────────────────────────────────────────────────────────────────────────────

func TestAppendTransaction_CreaYNormaliza(t *testing.T) {
	e := newTestEnv(t, envOpts{})
	resp := e.do(t, http.MethodPost, "/api/ledger/transactions", pkgjwt.RoleOperator,
		txBody(" rm-009 ", "GRN", "12.5", "GRN-0009", time.Now().Add(-time.Hour)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tx := decode[entity.StockTransaction](t, resp)
	assert.Equal(t, "RM-009", tx.ItemCode)
	assert.Equal(t, testCompanyID, tx.CompanyID)
	assert.True(t, tx.Quantity.Equal(decimal.RequireFromString("12.5")))
}

func TestAppendTransaction_LectorNoPuedeEscribir(t *testing.T) {
	e := newTestEnv(t, envOpts{})
	resp := e.do(t, http.MethodPost, "/api/ledger/transactions", pkgjwt.RoleViewer,
		txBody("A", "GRN", "1", "R-1", time.Now()))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAppendTransaction_Validaciones(t *testing.T) {
	e := newTestEnv(t, envOpts{})

	cases := []struct {
		name string
		body map[string]any
	}{
		{"tipo desconocido", txBody("A", "TRANSFER", "1", "R-1", time.Now())},
		{"cantidad negativa", txBody("A", "GRN", "-1", "R-2", time.Now())},
		{"cantidad cero", txBody("A", "ISSUE", "0", "R-3", time.Now())},
		{"sin referencia", txBody("A", "GRN", "1", "", time.Now())},
		{"sin ítem", txBody("", "GRN", "1", "R-4", time.Now())},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := e.do(t, http.MethodPost, "/api/ledger/transactions", pkgjwt.RoleOperator, tc.body)
			errResp := decode[dto.ErrorResponse](t, resp)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "VALIDATION", errResp.Code)
		})
	}
}

func TestAppendTransaction_ReferenciaRepetida409(t *testing.T) {
	e := newTestEnv(t, envOpts{})
	body := txBody("A", "GRN", "1", "GRN-77", time.Now())
	first := e.do(t, http.MethodPost, "/api/ledger/transactions", pkgjwt.RoleOperator, body)
	first.Body.Close()
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second := e.do(t, http.MethodPost, "/api/ledger/transactions", pkgjwt.RoleOperator, body)
	errResp := decode[dto.ErrorResponse](t, second)
	assert.Equal(t, http.StatusConflict, second.StatusCode)
	assert.Equal(t, "DUPLICATE", errResp.Code)
}

func TestAppendBatch(t *testing.T) {
	t.Run("sin soporte transaccional", func(t *testing.T) {
		e := newTestEnv(t, envOpts{})
		resp := e.do(t, http.MethodPost, "/api/ledger/transactions/batch", pkgjwt.RoleOperator,
			map[string]any{"transactions": []any{txBody("A", "GRN", "1", "G/1", time.Now())}})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	})

	t.Run("registra todas las líneas", func(t *testing.T) {
		e := newTestEnv(t, envOpts{withRunner: true})
		resp := e.do(t, http.MethodPost, "/api/ledger/transactions/batch", pkgjwt.RoleOperator,
			map[string]any{"transactions": []any{
				txBody("A", "GRN", "1", "G/1", time.Now()),
				txBody("B", "GRN", "2", "G/2", time.Now()),
			}})
		got := decode[[]entity.StockTransaction](t, resp)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Len(t, got, 2)

		list, err := e.txs.List(context.Background(), repository.TransactionFilter{CompanyID: testCompanyID})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("lote vacío", func(t *testing.T) {
		e := newTestEnv(t, envOpts{withRunner: true})
		resp := e.do(t, http.MethodPost, "/api/ledger/transactions/batch", pkgjwt.RoleOperator,
			map[string]any{"transactions": []any{}})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestListTransactions_FiltraYPagina(t *testing.T) {
	e := newTestEnv(t, envOpts{})
	e.seed(t)

	resp := e.do(t, http.MethodGet, "/api/ledger/transactions?item_code=rm-001&limit=1", pkgjwt.RoleViewer, nil)
	out := decode[dto.TransactionListResponse](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "OPEN-1", out.Items[0].SourceReference)
	assert.Equal(t, 1, out.Page.Limit)

	bad := e.do(t, http.MethodGet, "/api/ledger/transactions?from=ayer", pkgjwt.RoleViewer, nil)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	tooMany := e.do(t, http.MethodGet, "/api/ledger/transactions?limit=5000", pkgjwt.RoleViewer, nil)
	tooMany.Body.Close()
	assert.Equal(t, http.StatusBadRequest, tooMany.StatusCode)
}

func TestPositions_SoloAgregacion(t *testing.T) {
	e := newTestEnv(t, envOpts{})
	e.seed(t)

	resp := e.do(t, http.MethodGet, "/api/ledger/positions?item_codes=rm-001,RM-404", pkgjwt.RoleViewer, nil)
	out := decode[dto.PositionsResponse](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out.Positions, 2)
	assert.Equal(t, "RM-001", out.Positions[0].ItemCode)
	assert.True(t, out.Positions[0].CurrentQuantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, out.Positions[1].CurrentQuantity.IsZero())

	bad := e.do(t, http.MethodGet, "/api/ledger/positions?as_of=mañana", pkgjwt.RoleViewer, nil)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestPolicies_UpsertYList(t *testing.T) {
	e := newTestEnv(t, envOpts{})

	resp := e.do(t, http.MethodPut, "/api/ledger/policies/rm-001", pkgjwt.RoleAdmin,
		map[string]any{"reorder_level": "40", "reorder_quantity": "100"})
	p := decode[entity.ReorderPolicy](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "RM-001", p.ItemCode)

	neg := e.do(t, http.MethodPut, "/api/ledger/policies/rm-002", pkgjwt.RoleAdmin,
		map[string]any{"reorder_level": "-1", "reorder_quantity": "0"})
	neg.Body.Close()
	assert.Equal(t, http.StatusBadRequest, neg.StatusCode)

	list := e.do(t, http.MethodGet, "/api/ledger/policies", pkgjwt.RoleViewer, nil)
	got := decode[[]entity.ReorderPolicy](t, list)
	require.Len(t, got, 1)
	assert.True(t, got[0].ReorderLevel.Equal(decimal.NewFromInt(40)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Reconciliación
// ──────────────────────────────────────────────────────────────────────────────

func TestReconciliationRun_ReporteCompleto(t *testing.T) {
	e := newTestEnv(t, envOpts{})
	e.seed(t)

	resp := e.do(t, http.MethodPost, "/api/reconciliation/run", pkgjwt.RoleOperator, map[string]any{})
	report := decode[dto.ReconciliationReport](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.ReportStatusOK, report.Status)
	assert.Equal(t, testCompanyID, report.Scope.CompanyID)
	assert.Len(t, report.Positions, 2)
	require.NotEmpty(t, report.Alerts)
	assert.Equal(t, "RM-001", report.Alerts[0].ItemCode)
	// la vista nunca se refrescó: ambos ítems aparecen como descuadre
	assert.Len(t, report.Discrepancies, 2)
}

func TestReconciliationRun_LectorNoPuedeEjecutar(t *testing.T) {
	e := newTestEnv(t, envOpts{})
	resp := e.do(t, http.MethodPost, "/api/reconciliation/run", pkgjwt.RoleViewer, map[string]any{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// El refresco manual alinea la vista con el log y la corrida siguiente no ve descuadres.
func TestSummaryRefresh_EliminaDescuadres(t *testing.T) {
	e := newTestEnv(t, envOpts{})
	e.seed(t)

	before := decode[dto.ReconciliationReport](t,
		e.do(t, http.MethodPost, "/api/reconciliation/run", pkgjwt.RoleOperator, map[string]any{}))
	require.Len(t, before.Discrepancies, 2)

	resp := e.do(t, http.MethodPost, "/api/ledger/summary/refresh", pkgjwt.RoleOperator, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	after := decode[dto.ReconciliationReport](t,
		e.do(t, http.MethodPost, "/api/reconciliation/run", pkgjwt.RoleOperator, map[string]any{}))
	assert.Empty(t, after.Discrepancies)
	assert.Equal(t, 0, after.Summary.DiscrepancyCount)
}

func TestSummaryRefresh_LectorNoPuedeRefrescar(t *testing.T) {
	e := newTestEnv(t, envOpts{})
	resp := e.do(t, http.MethodPost, "/api/ledger/summary/refresh", pkgjwt.RoleViewer, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// Sin cola, cada escritura refresca la vista en línea.
func TestSummaryRefresh_EnLineaAlRegistrar(t *testing.T) {
	e := newTestEnv(t, envOpts{inlineRefresh: true})
	e.seed(t)

	resp := e.do(t, http.MethodPost, "/api/reconciliation/run", pkgjwt.RoleOperator, map[string]any{})
	report := decode[dto.ReconciliationReport](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, report.Positions, 2)
	assert.Empty(t, report.Discrepancies)
}

func TestReconciliationRun_SinCuerpo(t *testing.T) {
	e := newTestEnv(t, envOpts{})
	resp := e.do(t, http.MethodPost, "/api/reconciliation/run", pkgjwt.RoleOperator, nil)
	report := decode[dto.ReconciliationReport](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.ReportStatusEmpty, report.Status)
}

func TestReconciliationRun_FuenteCaida503(t *testing.T) {
	e := newTestEnv(t, envOpts{txRepo: failingTxRepo{}})
	resp := e.do(t, http.MethodPost, "/api/reconciliation/run", pkgjwt.RoleOperator, map[string]any{})
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "DATA_SOURCE_UNAVAILABLE", errResp.Code)
}

func TestReconciliationLatest(t *testing.T) {
	e := newTestEnv(t, envOpts{})
	e.seed(t)

	missing := e.do(t, http.MethodGet, "/api/reconciliation/latest", pkgjwt.RoleViewer, nil)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	run := e.do(t, http.MethodPost, "/api/reconciliation/run", pkgjwt.RoleOperator, map[string]any{})
	ran := decode[dto.ReconciliationReport](t, run)

	resp := e.do(t, http.MethodGet, "/api/reconciliation/latest", pkgjwt.RoleViewer, nil)
	latest := decode[dto.ReconciliationReport](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, ran.RunID, latest.RunID)
}

func TestReconciliationAlertsPDF(t *testing.T) {
	e := newTestEnv(t, envOpts{})
	e.seed(t)

	resp := e.do(t, http.MethodGet, "/api/reconciliation/alerts.pdf", pkgjwt.RoleViewer, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestReconciliationSchedule(t *testing.T) {
	t.Run("sin cola configurada", func(t *testing.T) {
		e := newTestEnv(t, envOpts{})
		resp := e.do(t, http.MethodPost, "/api/reconciliation/schedule", pkgjwt.RoleOperator, map[string]any{})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	})

	t.Run("encola con la empresa del token", func(t *testing.T) {
		sched := &fakeScheduler{}
		e := newTestEnv(t, envOpts{scheduler: sched})
		resp := e.do(t, http.MethodPost, "/api/reconciliation/schedule", pkgjwt.RoleOperator,
			map[string]any{"item_codes": []string{"rm-001"}})
		out := decode[dto.ScheduleResponse](t, resp)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, "task-1", out.TaskID)
		require.Len(t, sched.scopes, 1)
		assert.Equal(t, testCompanyID, sched.scopes[0].CompanyID)
	})

	t.Run("lector no puede encolar", func(t *testing.T) {
		e := newTestEnv(t, envOpts{scheduler: &fakeScheduler{}})
		resp := e.do(t, http.MethodPost, "/api/reconciliation/schedule", pkgjwt.RoleViewer, map[string]any{})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
