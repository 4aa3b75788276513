package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-reconciler/internal/domain/entity"
)

// AppendTransactionRequest body para POST /api/ledger/transactions.
// La cantidad siempre es positiva; el signo lo define el tipo.
type AppendTransactionRequest struct {
	ItemCode        string          `json:"item_code" validate:"required,max=64"`
	Type            string          `json:"type" validate:"required,oneof=OPENING_STOCK GRN ISSUE"`
	Quantity        decimal.Decimal `json:"quantity" swaggertype:"string" example:"12.5"`
	OccurredAt      *time.Time      `json:"occurred_at,omitempty"`
	SourceReference string          `json:"source_reference" validate:"required,max=128"`
}

// ListTransactionsQuery filtros de GET /api/ledger/transactions.
type ListTransactionsQuery struct {
	ItemCode string `query:"item_code" validate:"omitempty,max=64"`
	From     string `query:"from"`
	To       string `query:"to"`
	PageRequest
}

// TransactionListResponse página del log.
type TransactionListResponse struct {
	Items []entity.StockTransaction `json:"items"`
	Page  PageResponse              `json:"page"`
}

// PositionsResponse respuesta de GET /api/ledger/positions (solo agregación).
type PositionsResponse struct {
	AsOf      time.Time              `json:"as_of"`
	Positions []entity.StockPosition `json:"positions"`
}

// UpsertPolicyRequest body para PUT /api/ledger/policies/{item_code}.
type UpsertPolicyRequest struct {
	ReorderLevel    decimal.Decimal `json:"reorder_level" swaggertype:"string" example:"40"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity" swaggertype:"string" example:"100"`
}

// AppendBatchRequest body para POST /api/ledger/transactions/batch.
type AppendBatchRequest struct {
	Transactions []AppendTransactionRequest `json:"transactions" validate:"required,min=1,max=500,dive"`
}
