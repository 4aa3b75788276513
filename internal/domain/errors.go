package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrDuplicate             = errors.New("recurso duplicado")
	ErrUnauthorized          = errors.New("no autorizado")
	ErrDataSourceUnavailable = errors.New("fuente de datos no disponible")
)

// Tipos de registro que pueden fallar la validación.
const (
	RecordKindTransaction = "transaction"
	RecordKindPolicy      = "policy"
)

// ValidationError describe un registro individual rechazado (transacción o política).
// El registro se descarta y el resto del lote continúa.
type ValidationError struct {
	Kind            string `json:"kind"`
	ID              string `json:"id,omitempty"`
	ItemCode        string `json:"item_code,omitempty"`
	SourceReference string `json:"source_reference,omitempty"`
	Reason          string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.ItemCode != "" {
		return fmt.Sprintf("%s inválido (%s): %s", e.Kind, e.ItemCode, e.Reason)
	}
	return fmt.Sprintf("%s inválido: %s", e.Kind, e.Reason)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// DataSourceError envuelve la falla de un colaborador externo (log de transacciones,
// vista materializada, políticas). Aborta la reconciliación completa.
type DataSourceError struct {
	Source string
	Err    error
}

// NewDataSourceError construye el error; devuelve nil si err es nil.
func NewDataSourceError(source string, err error) error {
	if err == nil {
		return nil
	}
	return &DataSourceError{Source: source, Err: err}
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("fuente %s no disponible: %v", e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrDataSourceUnavailable) sin perder la causa original.
func (e *DataSourceError) Is(target error) bool {
	return target == ErrDataSourceUnavailable
}
