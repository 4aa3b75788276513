package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tipo de evento que afecta el stock.
type TransactionType string

// Tipos de transacción del log. La cantidad siempre se guarda positiva;
// el signo lo define el tipo.
const (
	TransactionTypeOpeningStock TransactionType = "OPENING_STOCK" // stock inicial (suma)
	TransactionTypeGRN          TransactionType = "GRN"           // nota de recepción de mercancía (suma)
	TransactionTypeIssue        TransactionType = "ISSUE"         // salida a producción/consumo (resta)
)

// Valid indica si el tipo es uno de los soportados.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeOpeningStock, TransactionTypeGRN, TransactionTypeIssue:
		return true
	}
	return false
}

// Additive indica si el tipo suma al stock.
func (t TransactionType) Additive() bool {
	return t == TransactionTypeOpeningStock || t == TransactionTypeGRN
}

// StockTransaction registro inmutable del log de stock (append-only).
// Lo crean eventos externos de compras/producción; nunca se modifica ni se borra.
type StockTransaction struct {
	ID              string          `json:"id"`
	CompanyID       string          `json:"company_id"`
	ItemCode        string          `json:"item_code"`
	Type            TransactionType `json:"type"`
	Quantity        decimal.Decimal `json:"quantity"` // siempre > 0
	OccurredAt      time.Time       `json:"occurred_at"`
	SourceReference string          `json:"source_reference"` // GRN, orden de producción, nota de apertura, etc.
	CreatedAt       time.Time       `json:"created_at"`
}

// SignedQuantity devuelve la cantidad con el signo implícito del tipo.
func (t StockTransaction) SignedQuantity() decimal.Decimal {
	if t.Type.Additive() {
		return t.Quantity
	}
	return t.Quantity.Neg()
}
