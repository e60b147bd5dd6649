package dto

import (
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
	"github.com/tu-usuario/entregas-pro/internal/domain/reparto"
)

// ItemRequest referencia un item dentro de una factura de la ruta.
type ItemRequest struct {
	FacturaID string `json:"facturaId" validate:"required"`
	ItemIndex int    `json:"itemIndex" validate:"min=0"`
}

// DanoRequest reporta un item dañado, en carga o en reparto.
type DanoRequest struct {
	FacturaID   string   `json:"facturaId" validate:"required"`
	ItemIndex   int      `json:"itemIndex" validate:"min=0"`
	Descripcion string   `json:"descripcion" validate:"required"`
	Fotos       []string `json:"fotos" validate:"required,min=1"`
}

// FinalizarCargaRequest cierra la fase de carga de la ruta.
type FinalizarCargaRequest struct {
	Notas string `json:"notas"`
}

// CargaIncompletaResponse es el cuerpo del rechazo estructurado de
// finalizar carga.
type CargaIncompletaResponse struct {
	Code                 string                      `json:"code"`
	Message              string                      `json:"message"`
	RequiereConfirmacion bool                        `json:"requiereConfirmacion"`
	FacturasIncompletas  []reparto.FacturaIncompleta `json:"facturasIncompletas"`
}

// FotosRequest adjunta fotos de evidencia a una factura.
type FotosRequest struct {
	Fotos []string `json:"fotos" validate:"required,min=1"`
}

// PagoRequest registra el cobro contra entrega.
type PagoRequest struct {
	MetodoPago     string `json:"metodoPago" validate:"required"`
	MontoRecibido  string `json:"montoRecibido" validate:"required"`
	ReferenciaPago string `json:"referenciaPago"`
}

// PagoResponse devuelve el resultado del cobro.
type PagoResponse struct {
	Estado string `json:"estado"`
	Cambio string `json:"cambio"`
}

// EntregaRequest marca una factura como entregada.
type EntregaRequest struct {
	NombreReceptor string `json:"nombreReceptor"`
	Notas          string `json:"notas"`
}

// EntregaIncompletaResponse es el cuerpo del rechazo estructurado de
// marcar entregada.
type EntregaIncompletaResponse struct {
	Code            string `json:"code"`
	Message         string `json:"message"`
	ItemsPendientes int    `json:"itemsPendientes"`
	FaltaEvidencia  bool   `json:"faltaEvidencia"`
	FaltaPago       bool   `json:"faltaPago"`
}

// NoEntregaRequest reporta una factura como no entregada.
type NoEntregaRequest struct {
	Motivo      string   `json:"motivo" validate:"required"`
	Descripcion string   `json:"descripcion" validate:"required"`
	Fotos       []string `json:"fotos" validate:"required,min=1"`
	Reintentar  bool     `json:"reintentar"`
}

// FinalizarRutaRequest cierra la ruta, forzando las facturas pendientes.
type FinalizarRutaRequest struct {
	Notas string `json:"notas"`
}

// GastoRequest registra un gasto operativo contra la ruta.
type GastoRequest struct {
	Tipo        string `json:"tipo" validate:"required"`
	Monto       string `json:"monto" validate:"required"`
	Descripcion string `json:"descripcion" validate:"required"`
	NCF         string `json:"ncf"`
	RNC         string `json:"rnc"`
	Foto        string `json:"foto"`
}

// RutaResponse es la proyección canónica de una ruta tras una operación.
type RutaResponse struct {
	Ruta     *entity.Ruta      `json:"ruta"`
	Facturas []*entity.Factura `json:"facturas,omitempty"`
}
