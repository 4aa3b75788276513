package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
	"github.com/jhoicas/stock-reconciler/internal/application/reconciliation"
	"github.com/jhoicas/stock-reconciler/internal/domain"
)

// AlertReportGenerator lo implementa *pdf.MarotoAlertReportGenerator.
type AlertReportGenerator interface {
	GenerateAlertReport(ctx context.Context, report *dto.ReconciliationReport) ([]byte, error)
}

// ReconcileScheduler lo implementa *jobs.Client (cola asynq).
type ReconcileScheduler interface {
	ScheduleReconcile(ctx context.Context, scope dto.ReconciliationScope) (*dto.ScheduleResponse, error)
}

// ReconciliationHandler expone la reconciliación del log contra la vista (protegido).
type ReconciliationHandler struct {
	uc        *reconciliation.UseCase
	pdf       AlertReportGenerator
	scheduler ReconcileScheduler
}

// NewReconciliationHandler construye el handler. pdf y scheduler pueden ser nil.
func NewReconciliationHandler(uc *reconciliation.UseCase, pdf AlertReportGenerator, scheduler ReconcileScheduler) *ReconciliationHandler {
	return &ReconciliationHandler{uc: uc, pdf: pdf, scheduler: scheduler}
}

// Run godoc
// @Summary      Ejecutar reconciliación
// @Description  Agrega el log, clasifica cada ítem, compara contra la vista materializada y
//
//	devuelve alertas, descuadres, saldos negativos y rotación. Las corridas
//	concurrentes con el mismo alcance comparten una sola ejecución.
//
// @Tags         reconciliation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReconcileRequest  false  "item_codes (vacío = todos), as_of"
// @Success      200   {object}  dto.ReconciliationReport
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/reconciliation/run [post]
func (h *ReconciliationHandler) Run(c *fiber.Ctx) error {
	scope, aerr := h.scopeFromBody(c)
	if aerr != nil {
		return aerr.send(c)
	}
	report, err := h.uc.Reconcile(c.UserContext(), scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// Latest godoc
// @Summary      Último reporte de reconciliación
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Param        item_codes  query  string  false  "Códigos separados por coma"
// @Param        as_of       query  string  false  "Fecha de corte RFC3339"
// @Success      200  {object}  dto.ReconciliationReport
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reconciliation/latest [get]
func (h *ReconciliationHandler) Latest(c *fiber.Ctx) error {
	scope, aerr := h.scopeFromQuery(c)
	if aerr != nil {
		return aerr.send(c)
	}
	report, err := h.uc.Latest(c.UserContext(), scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// AlertsPDF godoc
// @Summary      Reporte PDF de alertas
// @Description  Usa el último reporte del alcance; si no hay, ejecuta la reconciliación.
// @Tags         reconciliation
// @Security     Bearer
// @Produce      application/pdf
// @Param        item_codes  query  string  false  "Códigos separados por coma"
// @Param        as_of       query  string  false  "Fecha de corte RFC3339"
// @Success      200  {file}    binary
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reconciliation/alerts.pdf [get]
func (h *ReconciliationHandler) AlertsPDF(c *fiber.Ctx) error {
	if h.pdf == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_SUPPORTED", Message: "generador PDF no configurado"})
	}
	scope, aerr := h.scopeFromQuery(c)
	if aerr != nil {
		return aerr.send(c)
	}
	ctx := c.UserContext()
	report, err := h.uc.Latest(ctx, scope)
	if errors.Is(err, domain.ErrNotFound) {
		report, err = h.uc.Reconcile(ctx, scope)
	}
	if err != nil {
		return writeError(c, err)
	}
	doc, err := h.pdf.GenerateAlertReport(ctx, report)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="alertas-%s.pdf"`, report.AsOf.Format("20060102")))
	return c.Send(doc)
}

// Schedule godoc
// @Summary      Programar reconciliación asíncrona
// @Tags         reconciliation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReconcileRequest  false  "item_codes, as_of"
// @Success      202   {object}  dto.ScheduleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      501   {object}  dto.ErrorResponse
// @Router       /api/reconciliation/schedule [post]
func (h *ReconciliationHandler) Schedule(c *fiber.Ctx) error {
	if h.scheduler == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_SUPPORTED", Message: "cola de trabajos no configurada (REDIS_ADDR)"})
	}
	scope, aerr := h.scopeFromBody(c)
	if aerr != nil {
		return aerr.send(c)
	}
	out, err := h.scheduler.ScheduleReconcile(c.UserContext(), scope)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "QUEUE_UNAVAILABLE", Message: err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}

// scopeFromBody arma el alcance desde el body; un body vacío reconcilia todos los ítems.
func (h *ReconciliationHandler) scopeFromBody(c *fiber.Ctx) (reconciliation.Scope, *apiError) {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return reconciliation.Scope{}, errUnauthorized
	}
	var in dto.ReconcileRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return reconciliation.Scope{}, errInvalidBody
		}
	}
	if aerr := validateRequest(in); aerr != nil {
		return reconciliation.Scope{}, aerr
	}
	return reconciliation.Scope{CompanyID: companyID, ItemCodes: in.ItemCodes, AsOf: in.AsOf}, nil
}

func (h *ReconciliationHandler) scopeFromQuery(c *fiber.Ctx) (reconciliation.Scope, *apiError) {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return reconciliation.Scope{}, errUnauthorized
	}
	asOf, err := queryTime(c, "as_of")
	if err != nil {
		return reconciliation.Scope{}, errInvalidAsOf
	}
	return reconciliation.Scope{CompanyID: companyID, ItemCodes: queryList(c, "item_codes"), AsOf: asOf}, nil
}
