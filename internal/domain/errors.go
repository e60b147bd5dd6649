package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrTransicionInvalida  = errors.New("transición de estado inválida")
	ErrEstadoTerminal      = errors.New("el estado actual es terminal")
	ErrEvidenciaRequerida  = errors.New("se requiere al menos una foto de evidencia")
	ErrMotivoRequerido     = errors.New("se requiere un motivo")
	ErrPagoPendiente       = errors.New("la factura tiene pago pendiente")
	ErrMontoInsuficiente   = errors.New("el monto recibido es menor al total")
	ErrReferenciaRequerida = errors.New("se requiere referencia de pago")
)
