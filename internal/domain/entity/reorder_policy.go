package entity

import "github.com/shopspring/decimal"

// ReorderPolicy configuración de reposición por ítem (solo lectura para el núcleo).
type ReorderPolicy struct {
	CompanyID       string          `json:"-"`
	ItemCode        string          `json:"item_code"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity"`
}
