package reparto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/entregas-pro/internal/domain"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
)

// MotivoCierreRuta es el motivo que el sistema asigna a las facturas no
// terminales al forzar el cierre de una ruta. Se distingue de un motivo
// reportado por el repartidor por el origen "sistema".
const MotivoCierreRuta = "cierre_de_ruta"

// Orígenes de un reporte de no entrega.
const (
	OrigenRepartidor = "repartidor"
	OrigenSistema    = "sistema"
)

// IniciarEntregas pasa la ruta de cargada a en_curso y pone sus facturas
// no terminales en en_ruta.
func IniciarEntregas(r *entity.Ruta, facturas []*entity.Factura, ahora time.Time) error {
	if err := TransicionRuta(r.Estado, entity.RutaEnCurso); err != nil {
		return err
	}
	r.Estado = entity.RutaEnCurso
	r.EntregasIniciadas = &ahora
	r.ActualizadoEn = ahora
	for _, f := range facturas {
		if f.Estado.Terminal() {
			continue
		}
		f.Estado = entity.FacturaEnRuta
		f.ActualizadoEn = ahora
	}
	return nil
}

// ConfirmarItemEntregado marca un item como entregado.
func ConfirmarItemEntregado(f *entity.Factura, idx int, ahora time.Time) error {
	if idx < 0 || idx >= len(f.Items) {
		return fmt.Errorf("%w: índice de item %d fuera de rango", domain.ErrInvalidInput, idx)
	}
	it := &f.Items[idx]
	if err := TransicionItem(it.Estado, entity.ItemEntregado); err != nil {
		return err
	}
	it.Estado = entity.ItemEntregado
	f.ActualizadoEn = ahora
	return nil
}

// ReportarDanoEntrega marca un item como dañado durante el reparto.
// Mismas exigencias que en carga: descripción y al menos una foto.
func ReportarDanoEntrega(f *entity.Factura, idx int, descripcion string, fotos []string, ahora time.Time) error {
	return reportarDano(f, idx, descripcion, fotos, ahora)
}

// AgregarFotosEvidencia acumula fotos de entrega sobre una factura no terminal.
func AgregarFotosEvidencia(f *entity.Factura, fotos []string, ahora time.Time) error {
	if f.Estado.Terminal() {
		return fmt.Errorf("%w: la factura ya está %s", domain.ErrEstadoTerminal, f.Estado)
	}
	if len(fotos) == 0 {
		return domain.ErrEvidenciaRequerida
	}
	f.FotosEntrega = append(f.FotosEntrega, fotos...)
	f.ActualizadoEn = ahora
	return nil
}

// ConfirmarPago registra el cobro contra entrega de la factura.
// Efectivo exige monto mayor o igual al total y devuelve el cambio;
// transferencia y cheque exigen referencia. Nunca hay pagos parciales.
func ConfirmarPago(f *entity.Factura, metodo string, monto decimal.Decimal, referencia string, ahora time.Time) (decimal.Decimal, error) {
	if f.Estado.Terminal() {
		return decimal.Zero, fmt.Errorf("%w: la factura ya está %s", domain.ErrEstadoTerminal, f.Estado)
	}
	if f.Pago.SinCobro() {
		return decimal.Zero, fmt.Errorf("%w: la factura no requiere cobro", domain.ErrConflict)
	}
	if f.Pago.Estado == entity.PagoPagada {
		return decimal.Zero, fmt.Errorf("%w: la factura ya está pagada", domain.ErrConflict)
	}

	cambio := decimal.Zero
	switch metodo {
	case entity.MetodoEfectivo:
		if monto.LessThan(f.Pago.Total) {
			return decimal.Zero, fmt.Errorf("%w: recibido %s, total %s",
				domain.ErrMontoInsuficiente, monto.StringFixed(2), f.Pago.Total.StringFixed(2))
		}
		cambio = monto.Sub(f.Pago.Total)
	case entity.MetodoTransferencia, entity.MetodoCheque:
		if referencia == "" {
			return decimal.Zero, domain.ErrReferenciaRequerida
		}
	default:
		return decimal.Zero, fmt.Errorf("%w: método de pago %q", domain.ErrInvalidInput, metodo)
	}

	f.Pago.Estado = entity.PagoPagada
	f.Pago.MontoPagado = f.Pago.Total
	f.Pago.MontoPendiente = decimal.Zero
	f.Pago.MetodoPago = metodo
	f.Pago.ReferenciaPago = referencia
	f.Pago.Cambio = cambio
	f.Pago.PagadoEn = &ahora
	f.ActualizadoEn = ahora
	return cambio, nil
}

// MarcarEntregada cierra la factura como entregada. Exige todos los items
// en estado terminal, el pago resuelto y al menos una foto de evidencia;
// si falta algo devuelve el detalle estructurado.
func MarcarEntregada(f *entity.Factura, receptor, notas string, ahora time.Time) error {
	if f.Estado.Terminal() {
		return fmt.Errorf("%w: la factura ya está %s", domain.ErrEstadoTerminal, f.Estado)
	}

	pendientes := len(f.Items) - f.ItemsTerminales()
	faltaPago := !f.Pago.SinCobro() && f.Pago.Estado != entity.PagoPagada
	faltaEvidencia := len(f.FotosEntrega) == 0
	if pendientes > 0 || faltaPago || faltaEvidencia {
		return &EntregaIncompletaError{
			ItemsPendientes: pendientes,
			FaltaEvidencia:  faltaEvidencia,
			FaltaPago:       faltaPago,
		}
	}

	f.Estado = entity.FacturaEntregada
	f.NombreReceptor = receptor
	f.NotasEntrega = notas
	f.ActualizadoEn = ahora
	return nil
}

// ReportarNoEntrega cierra la factura como no entregada. Exige motivo,
// descripción y al menos una foto cuando el origen es el repartidor; el
// cierre forzado por sistema no exige evidencia. Los items no terminales
// pasan a no_entregado. Con reintentar la factura vuelve al pool de
// despacho (pendiente, sin ruta) en lugar de quedar terminal.
func ReportarNoEntrega(f *entity.Factura, motivo, descripcion string, fotos []string, reintentar bool, origen string, ahora time.Time) error {
	if f.Estado.Terminal() {
		return fmt.Errorf("%w: la factura ya está %s", domain.ErrEstadoTerminal, f.Estado)
	}
	if motivo == "" {
		return domain.ErrMotivoRequerido
	}
	if origen == OrigenRepartidor {
		if descripcion == "" {
			return fmt.Errorf("%w: descripción del motivo requerida", domain.ErrInvalidInput)
		}
		if len(fotos) == 0 {
			return domain.ErrEvidenciaRequerida
		}
	}

	for i := range f.Items {
		if !f.Items[i].Estado.Terminal() {
			f.Items[i].Estado = entity.ItemNoEntregado
		}
	}
	f.FotosEntrega = append(f.FotosEntrega, fotos...)
	f.MotivoNoEntrega = motivo
	f.DescripcionNoEntrega = descripcion
	f.OrigenNoEntrega = origen
	if reintentar {
		f.Estado = entity.FacturaPendiente
		f.RutaID = ""
	} else {
		f.Estado = entity.FacturaNoEntregada
	}
	f.ActualizadoEn = ahora
	return nil
}

// FinalizarRuta cierra la ruta. Las facturas que sigan sin resolver se
// fuerzan a no_entregada con motivo de sistema y la ruta queda marcada
// como cierre forzado, con el resumen de entregas calculado.
func FinalizarRuta(r *entity.Ruta, facturas []*entity.Factura, notas string, ahora time.Time) error {
	if err := TransicionRuta(r.Estado, entity.RutaFinalizada); err != nil {
		return err
	}

	resumen := entity.ResumenEntregas{}
	for _, f := range facturas {
		switch f.Estado {
		case entity.FacturaEntregada:
			resumen.Entregadas++
		case entity.FacturaNoEntregada:
			resumen.NoEntregadas++
		default:
			if err := ReportarNoEntrega(f, MotivoCierreRuta, "", nil, false, OrigenSistema, ahora); err != nil {
				return err
			}
			resumen.NoEntregadas++
			resumen.Forzadas++
		}
	}

	r.Estado = entity.RutaFinalizada
	r.NotasCierre = notas
	r.CierreForzado = resumen.Forzadas > 0
	r.Resumen = &resumen
	r.FinalizadaEn = &ahora
	r.ActualizadoEn = ahora
	RecalcularContadores(r, facturas)
	return nil
}
