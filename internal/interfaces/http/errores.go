package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/entregas-pro/internal/application/dto"
	"github.com/tu-usuario/entregas-pro/internal/domain"
	"github.com/tu-usuario/entregas-pro/internal/domain/reparto"
)

// responderError traduce errores de dominio a respuestas HTTP. Los fallos
// estructurados de carga y entrega viajan con su detalle completo para que
// el cliente de campo pueda mostrarlos al usuario.
func responderError(c *fiber.Ctx, err error) error {
	var cargaErr *reparto.FacturasIncompletasError
	if errors.As(err, &cargaErr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CargaIncompletaResponse{
			Code:                 "CARGA_INCOMPLETA",
			Message:              "hay facturas con items sin cargar",
			RequiereConfirmacion: true,
			FacturasIncompletas:  cargaErr.Facturas,
		})
	}
	var entregaErr *reparto.EntregaIncompletaError
	if errors.As(err, &entregaErr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.EntregaIncompletaResponse{
			Code:            "ENTREGA_INCOMPLETA",
			Message:         "la factura no cumple las condiciones de entrega",
			ItemsPendientes: entregaErr.ItemsPendientes,
			FaltaEvidencia:  entregaErr.FaltaEvidencia,
			FaltaPago:       entregaErr.FaltaPago,
		})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	case errors.Is(err, domain.ErrEstadoTerminal):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ESTADO_TERMINAL", Message: err.Error()})
	case errors.Is(err, domain.ErrTransicionInvalida):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "TRANSICION_INVALIDA", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrMontoInsuficiente):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MONTO_INSUFICIENTE", Message: err.Error()})
	case errors.Is(err, domain.ErrReferenciaRequerida):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "REFERENCIA_REQUERIDA", Message: err.Error()})
	case errors.Is(err, domain.ErrEvidenciaRequerida):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "EVIDENCIA_REQUERIDA", Message: err.Error()})
	case errors.Is(err, domain.ErrMotivoRequerido):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MOTIVO_REQUERIDO", Message: err.Error()})
	case errors.Is(err, domain.ErrPagoPendiente):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "PAGO_PENDIENTE", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
