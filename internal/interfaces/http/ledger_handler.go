package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
	"github.com/jhoicas/stock-reconciler/internal/application/inventory"
)

// LedgerHandler maneja el log de transacciones, las posiciones y las políticas (protegido).
type LedgerHandler struct {
	register *inventory.RegisterTransactionUseCase
	uc       *inventory.UseCase
	runner   inventory.TxRunner
}

// NewLedgerHandler construye el handler. runner puede ser nil (sin endpoint de lotes).
func NewLedgerHandler(register *inventory.RegisterTransactionUseCase, uc *inventory.UseCase, runner inventory.TxRunner) *LedgerHandler {
	return &LedgerHandler{register: register, uc: uc, runner: runner}
}

// AppendTransaction godoc
// @Summary      Registrar transacción de stock
// @Description  Agrega una transacción al log (append-only). La cantidad es siempre positiva;
//
//	ISSUE descuenta, OPENING_STOCK y GRN suman.
//
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AppendTransactionRequest  true  "item_code, type, quantity, occurred_at, source_reference"
// @Success      201   {object}  entity.StockTransaction
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/transactions [post]
func (h *LedgerHandler) AppendTransaction(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return errUnauthorized.send(c)
	}
	var in dto.AppendTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return errInvalidBody.send(c)
	}
	if aerr := validateRequest(in); aerr != nil {
		return aerr.send(c)
	}
	tx, err := h.register.RegisterTransactionFromRequest(c.UserContext(), companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tx)
}

// AppendBatch godoc
// @Summary      Registrar lote de transacciones
// @Description  Registra todas las líneas en una sola transacción de BD o ninguna.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AppendBatchRequest  true  "transactions"
// @Success      201   {array}   entity.StockTransaction
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      501   {object}  dto.ErrorResponse
// @Router       /api/ledger/transactions/batch [post]
func (h *LedgerHandler) AppendBatch(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return errUnauthorized.send(c)
	}
	if h.runner == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_SUPPORTED", Message: "el almacenamiento configurado no admite lotes"})
	}
	var in dto.AppendBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return errInvalidBody.send(c)
	}
	if aerr := validateRequest(in); aerr != nil {
		return aerr.send(c)
	}
	txs, err := h.register.RegisterBatch(c.UserContext(), h.runner, companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(txs)
}

// ListTransactions godoc
// @Summary      Listar transacciones
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        item_code  query  string  false  "Código de ítem"
// @Param        from       query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to         query  string  false  "Hasta (RFC3339 o YYYY-MM-DD, inclusivo)"
// @Param        limit      query  int     false  "Máximo 500 (default 100)"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.TransactionListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/ledger/transactions [get]
func (h *LedgerHandler) ListTransactions(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return errUnauthorized.send(c)
	}
	var q dto.ListTransactionsQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if aerr := validateRequest(q); aerr != nil {
		return aerr.send(c)
	}
	out, err := h.uc.ListTransactions(c.UserContext(), companyID, q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Positions godoc
// @Summary      Posiciones de stock (solo agregación)
// @Description  Saldo por ítem derivado del log, sin clasificar ni comparar contra la vista.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        item_codes  query  string  false  "Códigos separados por coma"
// @Param        as_of       query  string  false  "Fecha de corte RFC3339"
// @Success      200  {object}  dto.PositionsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/ledger/positions [get]
func (h *LedgerHandler) Positions(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return errUnauthorized.send(c)
	}
	asOf, err := queryTime(c, "as_of")
	if err != nil {
		return errInvalidAsOf.send(c)
	}
	out, err := h.uc.Positions(c.UserContext(), companyID, queryList(c, "item_codes"), asOf)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListPolicies godoc
// @Summary      Listar políticas de reorden
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        item_codes  query  string  false  "Códigos separados por coma"
// @Success      200  {array}   entity.ReorderPolicy
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/ledger/policies [get]
func (h *LedgerHandler) ListPolicies(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return errUnauthorized.send(c)
	}
	out, err := h.uc.ListPolicies(c.UserContext(), companyID, queryList(c, "item_codes"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpsertPolicy godoc
// @Summary      Crear o reemplazar la política de reorden de un ítem
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        item_code  path  string                   true  "Código de ítem"
// @Param        body       body  dto.UpsertPolicyRequest  true  "reorder_level, reorder_quantity"
// @Success      200  {object}  entity.ReorderPolicy
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/ledger/policies/{item_code} [put]
func (h *LedgerHandler) UpsertPolicy(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return errUnauthorized.send(c)
	}
	var in dto.UpsertPolicyRequest
	if err := c.BodyParser(&in); err != nil {
		return errInvalidBody.send(c)
	}
	out, err := h.uc.UpsertPolicy(c.UserContext(), companyID, c.Params("item_code"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RefreshSummary godoc
// @Summary      Refrescar la vista materializada
// @Description  Recalcula stock_summary de la empresa desde el log. Con Redis el worker
//
//	lo hace en segundo plano; este endpoint fuerza el refresco en el momento.
//
// @Tags         ledger
// @Security     Bearer
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/ledger/summary/refresh [post]
func (h *LedgerHandler) RefreshSummary(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return errUnauthorized.send(c)
	}
	if err := h.uc.RefreshSummary(c.UserContext(), companyID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── helpers de query ──────────────────────────────────────────────────────────

// queryList separa un parámetro "a,b,c" descartando vacíos.
func queryList(c *fiber.Ctx, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
