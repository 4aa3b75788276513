package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-reconciler/internal/application/dto"
	"github.com/jhoicas/stock-reconciler/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// apiError respuesta de error ya decidida por un helper; el handler solo la envía.
type apiError struct {
	status int
	body   dto.ErrorResponse
}

func newAPIError(status int, code, msg string) *apiError {
	return &apiError{status: status, body: dto.ErrorResponse{Code: code, Message: msg}}
}

func (e *apiError) send(c *fiber.Ctx) error {
	return c.Status(e.status).JSON(e.body)
}

// validateRequest aplica las etiquetas validate del DTO; informa el primer campo inválido.
func validateRequest(v any) *apiError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	msg := "datos inválidos"
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msg = "campo " + verrs[0].Namespace() + " no cumple '" + verrs[0].Tag() + "'"
	}
	return newAPIError(fiber.StatusBadRequest, "VALIDATION", msg)
}

// writeError traduce errores de dominio al código HTTP correspondiente.
func writeError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: verr.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDataSourceUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "DATA_SOURCE_UNAVAILABLE", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

var (
	errUnauthorized = newAPIError(fiber.StatusUnauthorized, "UNAUTHORIZED", "token inválido")
	errInvalidBody  = newAPIError(fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	errInvalidAsOf  = newAPIError(fiber.StatusBadRequest, "VALIDATION", "as_of debe ser RFC3339")
)
