package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-reconciler/internal/application/inventory"
	"github.com/jhoicas/stock-reconciler/internal/application/reconciliation"
	"github.com/jhoicas/stock-reconciler/pkg/jwt"
)

// RouterDeps dependencias para el router. TxRunner, PDF y Scheduler son opcionales.
type RouterDeps struct {
	RegisterTransaction *inventory.RegisterTransactionUseCase
	Ledger              *inventory.UseCase
	Reconciliation      *reconciliation.UseCase
	TxRunner            inventory.TxRunner
	PDF                 AlertReportGenerator
	Scheduler           ReconcileScheduler
	JWTSecret           string
	JWTIssuer           string
}

// Router registra las rutas de la API. Todas requieren Bearer Token; la empresa sale del token.
func Router(app fiber.Router, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	readers := RequireRole(jwt.RoleViewer, jwt.RoleOperator, jwt.RoleAdmin)
	writers := RequireWriter()

	// Log de transacciones, posiciones y políticas
	ledger := api.Group("/ledger")
	ledgerHandler := NewLedgerHandler(deps.RegisterTransaction, deps.Ledger, deps.TxRunner)
	ledger.Post("/transactions", writers, ledgerHandler.AppendTransaction)
	ledger.Post("/transactions/batch", writers, ledgerHandler.AppendBatch)
	ledger.Get("/transactions", readers, ledgerHandler.ListTransactions)
	ledger.Get("/positions", readers, ledgerHandler.Positions)
	ledger.Get("/policies", readers, ledgerHandler.ListPolicies)
	ledger.Put("/policies/:item_code", writers, ledgerHandler.UpsertPolicy)
	ledger.Post("/summary/refresh", writers, ledgerHandler.RefreshSummary)

	// Reconciliación
	recon := api.Group("/reconciliation")
	reconHandler := NewReconciliationHandler(deps.Reconciliation, deps.PDF, deps.Scheduler)
	recon.Post("/run", writers, reconHandler.Run)
	recon.Get("/latest", readers, reconHandler.Latest)
	recon.Get("/alerts.pdf", readers, reconHandler.AlertsPDF)
	recon.Post("/schedule", writers, reconHandler.Schedule)
}
