package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una factura de entrega.
type EstadoFactura string

const (
	FacturaPendiente   EstadoFactura = "pendiente"    // sin ruta asignada
	FacturaAsignada    EstadoFactura = "asignada"     // en ruta, carga no terminada
	FacturaEnRuta      EstadoFactura = "en_ruta"      // la ruta salió a reparto
	FacturaEntregada   EstadoFactura = "entregada"    // terminal
	FacturaNoEntregada EstadoFactura = "no_entregada" // terminal
)

// Terminal indica si el estado de la factura ya no admite transiciones.
func (e EstadoFactura) Terminal() bool {
	return e == FacturaEntregada || e == FacturaNoEntregada
}

// EstadoCarga es el resumen de carga de la factura, derivado de sus items.
type EstadoCarga string

const (
	CargaPendiente EstadoCarga = "pendiente"
	CargaCompleta  EstadoCarga = "cargada"
)

// Estados de pago contra entrega.
type EstadoPago string

const (
	PagoPendiente EstadoPago = "pendiente_pago"
	PagoPagada    EstadoPago = "pagada"
)

// Métodos de pago aceptados en campo.
const (
	MetodoEfectivo      = "efectivo"
	MetodoTransferencia = "transferencia"
	MetodoCheque        = "cheque"
)

// Pago es el sub-estado de cobro contra entrega de una factura.
type Pago struct {
	Estado         EstadoPago      `json:"estado"`
	Total          decimal.Decimal `json:"total"`
	MontoPagado    decimal.Decimal `json:"montoPagado"`
	MontoPendiente decimal.Decimal `json:"montoPendiente"`
	MetodoPago     string          `json:"metodoPago,omitempty"`
	ReferenciaPago string          `json:"referenciaPago,omitempty"`
	Cambio         decimal.Decimal `json:"cambio"`
	PagadoEn       *time.Time      `json:"pagadoEn,omitempty"`
}

// SinCobro indica que la factura no requiere cobro en campo.
func (p Pago) SinCobro() bool {
	return p.Total.IsZero()
}

// Destinatario son los datos de contacto del receptor de la factura.
type Destinatario struct {
	Nombre    string `json:"nombre"`
	Direccion string `json:"direccion"`
	Telefono  string `json:"telefono,omitempty"`
}

// Factura es el agregado de una entrega individual dentro de una ruta.
type Factura struct {
	ID             string        `json:"id"`
	CompanyID      string        `json:"companyId"`
	RutaID         string        `json:"rutaId,omitempty"`
	CodigoTracking string        `json:"codigoTracking"`
	Destinatario   Destinatario  `json:"destinatario"`
	Estado         EstadoFactura `json:"estado"`
	EstadoCarga    EstadoCarga   `json:"estadoCarga"`
	Pago           Pago          `json:"pago"`
	Items          []Item        `json:"items"`

	FotosEntrega         []string `json:"fotosEntrega,omitempty"`
	NombreReceptor       string   `json:"nombreReceptor,omitempty"`
	NotasEntrega         string   `json:"notasEntrega,omitempty"`
	MotivoNoEntrega      string   `json:"motivoNoEntrega,omitempty"`
	DescripcionNoEntrega string   `json:"descripcionNoEntrega,omitempty"`
	OrigenNoEntrega      string   `json:"origenNoEntrega,omitempty"` // "repartidor" | "sistema"

	CreadoEn      time.Time `json:"creadoEn"`
	ActualizadoEn time.Time `json:"actualizadoEn"`
}

// ItemsCargados cuenta los items que ya pasaron por carga.
func (f *Factura) ItemsCargados() int {
	n := 0
	for _, it := range f.Items {
		if it.Cargado() {
			n++
		}
	}
	return n
}

// ItemsTerminales cuenta los items en estado terminal de entrega.
func (f *Factura) ItemsTerminales() int {
	n := 0
	for _, it := range f.Items {
		if it.Estado.Terminal() {
			n++
		}
	}
	return n
}

// CargaCompleta indica si todos los items de la factura fueron cargados.
func (f *Factura) CargaCompleta() bool {
	return f.ItemsCargados() == len(f.Items)
}

// RecalcularEstadoCarga deriva EstadoCarga de los items.
func (f *Factura) RecalcularEstadoCarga() {
	if f.CargaCompleta() && len(f.Items) > 0 {
		f.EstadoCarga = CargaCompleta
	} else {
		f.EstadoCarga = CargaPendiente
	}
}
