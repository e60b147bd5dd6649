package reparto_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/entregas-pro/internal/domain"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
	"github.com/tu-usuario/entregas-pro/internal/domain/reparto"
)

// buildFacturaEnRuta crea una factura en reparto con n items ya cargados
// y un total a cobrar contra entrega.
func buildFacturaEnRuta(id string, n int, total decimal.Decimal) *entity.Factura {
	f := buildFactura(id, "TRK-"+id, n)
	for i := range f.Items {
		f.Items[i].Estado = entity.ItemCargado
	}
	f.RecalcularEstadoCarga()
	f.Estado = entity.FacturaEnRuta
	f.Pago = entity.Pago{
		Estado:         entity.PagoPendiente,
		Total:          total,
		MontoPendiente: total,
	}
	if total.IsZero() {
		f.Pago.Estado = entity.PagoPendiente
	}
	return f
}

// ── Iniciar entregas ──────────────────────────────────────────────────────────

func TestIniciarEntregas_MueveFacturasAEnRuta(t *testing.T) {
	r := buildRuta(entity.RutaCargada)
	f1 := buildFactura("fac-1", "TRK-001", 1)
	f2 := buildFactura("fac-2", "TRK-002", 1)
	f2.Estado = entity.FacturaNoEntregada // terminal, no debe tocarse

	err := reparto.IniciarEntregas(r, []*entity.Factura{f1, f2}, testAhora)

	require.NoError(t, err)
	assert.Equal(t, entity.RutaEnCurso, r.Estado)
	assert.Equal(t, entity.FacturaEnRuta, f1.Estado)
	assert.Equal(t, entity.FacturaNoEntregada, f2.Estado,
		"las facturas terminales no se reactivan")
}

func TestIniciarEntregas_RechazaSinCargaCerrada(t *testing.T) {
	r := buildRuta(entity.RutaEnCarga)
	err := reparto.IniciarEntregas(r, nil, testAhora)
	assert.ErrorIs(t, err, domain.ErrTransicionInvalida)
}

// ── Confirmar pago ────────────────────────────────────────────────────────────

func TestConfirmarPago_EfectivoConCambio(t *testing.T) {
	f := buildFacturaEnRuta("fac-1", 1, decimal.NewFromInt(1500))

	cambio, err := reparto.ConfirmarPago(f, entity.MetodoEfectivo, decimal.NewFromInt(2000), "", testAhora)

	require.NoError(t, err)
	assert.True(t, cambio.Equal(decimal.NewFromInt(500)), "el cambio debe ser 500, fue %s", cambio)
	assert.Equal(t, entity.PagoPagada, f.Pago.Estado)
	assert.True(t, f.Pago.MontoPendiente.IsZero())
}

func TestConfirmarPago_EfectivoInsuficiente(t *testing.T) {
	f := buildFacturaEnRuta("fac-1", 1, decimal.NewFromInt(1500))

	_, err := reparto.ConfirmarPago(f, entity.MetodoEfectivo, decimal.NewFromInt(1000), "", testAhora)

	assert.ErrorIs(t, err, domain.ErrMontoInsuficiente,
		"no se aceptan pagos parciales en efectivo")
	assert.Equal(t, entity.PagoPendiente, f.Pago.Estado)
}

func TestConfirmarPago_TransferenciaExigeReferencia(t *testing.T) {
	f := buildFacturaEnRuta("fac-1", 1, decimal.NewFromInt(1500))

	_, err := reparto.ConfirmarPago(f, entity.MetodoTransferencia, decimal.NewFromInt(1500), "", testAhora)
	assert.ErrorIs(t, err, domain.ErrReferenciaRequerida)

	_, err = reparto.ConfirmarPago(f, entity.MetodoTransferencia, decimal.NewFromInt(1500), "REF-8841", testAhora)
	require.NoError(t, err)
	assert.Equal(t, "REF-8841", f.Pago.ReferenciaPago)
}

func TestConfirmarPago_RechazaDoblePagoYSinCobro(t *testing.T) {
	f := buildFacturaEnRuta("fac-1", 1, decimal.NewFromInt(100))
	_, err := reparto.ConfirmarPago(f, entity.MetodoEfectivo, decimal.NewFromInt(100), "", testAhora)
	require.NoError(t, err)

	_, err = reparto.ConfirmarPago(f, entity.MetodoEfectivo, decimal.NewFromInt(100), "", testAhora)
	assert.ErrorIs(t, err, domain.ErrConflict, "una factura pagada no se cobra dos veces")

	sinCobro := buildFacturaEnRuta("fac-2", 1, decimal.Zero)
	_, err = reparto.ConfirmarPago(sinCobro, entity.MetodoEfectivo, decimal.NewFromInt(50), "", testAhora)
	assert.ErrorIs(t, err, domain.ErrConflict, "una factura sin cobro no admite pagos")
}

// ── Marcar entregada ──────────────────────────────────────────────────────────

func TestMarcarEntregada_ExigePrecondiciones(t *testing.T) {
	f := buildFacturaEnRuta("fac-1", 2, decimal.NewFromInt(1000))
	require.NoError(t, reparto.ConfirmarItemEntregado(f, 0, testAhora))

	err := reparto.MarcarEntregada(f, "Juan Pérez", "", testAhora)

	var inc *reparto.EntregaIncompletaError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, 1, inc.ItemsPendientes)
	assert.True(t, inc.FaltaEvidencia)
	assert.True(t, inc.FaltaPago)
	assert.Equal(t, entity.FacturaEnRuta, f.Estado, "el estado no cambia tras el rechazo")
}

func TestMarcarEntregada_FlujoCompleto(t *testing.T) {
	f := buildFacturaEnRuta("fac-1", 2, decimal.NewFromInt(1000))
	require.NoError(t, reparto.ConfirmarItemEntregado(f, 0, testAhora))
	require.NoError(t, reparto.ConfirmarItemEntregado(f, 1, testAhora))
	_, err := reparto.ConfirmarPago(f, entity.MetodoEfectivo, decimal.NewFromInt(1000), "", testAhora)
	require.NoError(t, err)
	require.NoError(t, reparto.AgregarFotosEvidencia(f, []string{"foto-1"}, testAhora))

	err = reparto.MarcarEntregada(f, "Juan Pérez", "entregado en portería", testAhora)

	require.NoError(t, err)
	assert.Equal(t, entity.FacturaEntregada, f.Estado)
	assert.Equal(t, "Juan Pérez", f.NombreReceptor)
}

func TestMarcarEntregada_SinCobroNoExigePago(t *testing.T) {
	f := buildFacturaEnRuta("fac-1", 1, decimal.Zero)
	require.NoError(t, reparto.ConfirmarItemEntregado(f, 0, testAhora))
	require.NoError(t, reparto.AgregarFotosEvidencia(f, []string{"foto-1"}, testAhora))

	assert.NoError(t, reparto.MarcarEntregada(f, "María", "", testAhora),
		"una factura con total cero no exige pago")
}

func TestMarcarEntregada_ItemDanadoCuentaComoTerminal(t *testing.T) {
	f := buildFacturaEnRuta("fac-1", 2, decimal.Zero)
	require.NoError(t, reparto.ConfirmarItemEntregado(f, 0, testAhora))
	require.NoError(t, reparto.ReportarDanoEntrega(f, 1, "empaque roto", []string{"f1"}, testAhora))
	require.NoError(t, reparto.AgregarFotosEvidencia(f, []string{"foto-1"}, testAhora))

	assert.NoError(t, reparto.MarcarEntregada(f, "María", "", testAhora))
}

// ── Reportar no entrega ───────────────────────────────────────────────────────

func TestReportarNoEntrega_ExigeMotivoDescripcionYFoto(t *testing.T) {
	f := buildFacturaEnRuta("fac-1", 1, decimal.Zero)

	err := reparto.ReportarNoEntrega(f, "", "nadie en casa", []string{"f1"}, false, reparto.OrigenRepartidor, testAhora)
	assert.ErrorIs(t, err, domain.ErrMotivoRequerido)

	err = reparto.ReportarNoEntrega(f, "ausente", "", []string{"f1"}, false, reparto.OrigenRepartidor, testAhora)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = reparto.ReportarNoEntrega(f, "ausente", "nadie en casa", nil, false, reparto.OrigenRepartidor, testAhora)
	assert.ErrorIs(t, err, domain.ErrEvidenciaRequerida)
}

func TestReportarNoEntrega_BarreItemsNoTerminales(t *testing.T) {
	f := buildFacturaEnRuta("fac-1", 3, decimal.Zero)
	require.NoError(t, reparto.ConfirmarItemEntregado(f, 0, testAhora))

	err := reparto.ReportarNoEntrega(f, "direccion_incorrecta", "no existe el número", []string{"f1"}, false, reparto.OrigenRepartidor, testAhora)

	require.NoError(t, err)
	assert.Equal(t, entity.FacturaNoEntregada, f.Estado)
	assert.Equal(t, entity.ItemEntregado, f.Items[0].Estado,
		"los items ya terminales no se tocan")
	assert.Equal(t, entity.ItemNoEntregado, f.Items[1].Estado)
	assert.Equal(t, entity.ItemNoEntregado, f.Items[2].Estado)
	assert.Equal(t, reparto.OrigenRepartidor, f.OrigenNoEntrega)
}

func TestReportarNoEntrega_ReintentarVuelvePendiente(t *testing.T) {
	f := buildFacturaEnRuta("fac-1", 1, decimal.Zero)

	err := reparto.ReportarNoEntrega(f, "ausente", "volver mañana", []string{"f1"}, true, reparto.OrigenRepartidor, testAhora)

	require.NoError(t, err)
	assert.Equal(t, entity.FacturaPendiente, f.Estado,
		"con reintento la factura vuelve al pool de despacho")
	assert.Empty(t, f.RutaID, "la factura se desvincula de la ruta")
}

// ── Finalizar ruta ────────────────────────────────────────────────────────────

func TestFinalizarRuta_CierreLimpio(t *testing.T) {
	r := buildRuta(entity.RutaEnCurso)
	f := buildFacturaEnRuta("fac-1", 1, decimal.Zero)
	require.NoError(t, reparto.ConfirmarItemEntregado(f, 0, testAhora))
	require.NoError(t, reparto.AgregarFotosEvidencia(f, []string{"foto"}, testAhora))
	require.NoError(t, reparto.MarcarEntregada(f, "Ana", "", testAhora))

	err := reparto.FinalizarRuta(r, []*entity.Factura{f}, "sin novedades", testAhora)

	require.NoError(t, err)
	assert.Equal(t, entity.RutaFinalizada, r.Estado)
	assert.False(t, r.CierreForzado)
	require.NotNil(t, r.Resumen)
	assert.Equal(t, entity.ResumenEntregas{Entregadas: 1}, *r.Resumen)
}

func TestFinalizarRuta_ForzadoMarcaPendientesComoSistema(t *testing.T) {
	r := buildRuta(entity.RutaEnCurso)
	entregada := buildFacturaEnRuta("fac-1", 1, decimal.Zero)
	require.NoError(t, reparto.ConfirmarItemEntregado(entregada, 0, testAhora))
	require.NoError(t, reparto.AgregarFotosEvidencia(entregada, []string{"foto"}, testAhora))
	require.NoError(t, reparto.MarcarEntregada(entregada, "Ana", "", testAhora))
	pendiente := buildFacturaEnRuta("fac-2", 2, decimal.Zero)

	err := reparto.FinalizarRuta(r, []*entity.Factura{entregada, pendiente}, "", testAhora)

	require.NoError(t, err)
	assert.True(t, r.CierreForzado)
	assert.Equal(t, entity.ResumenEntregas{Entregadas: 1, NoEntregadas: 1, Forzadas: 1}, *r.Resumen)

	assert.Equal(t, entity.FacturaNoEntregada, pendiente.Estado)
	assert.Equal(t, reparto.MotivoCierreRuta, pendiente.MotivoNoEntrega)
	assert.Equal(t, reparto.OrigenSistema, pendiente.OrigenNoEntrega,
		"el motivo forzado debe distinguirse de uno reportado por el repartidor")
	for _, it := range pendiente.Items {
		assert.Equal(t, entity.ItemNoEntregado, it.Estado)
	}
}

func TestFinalizarRuta_RechazaDesdeCargada(t *testing.T) {
	r := buildRuta(entity.RutaCargada)
	err := reparto.FinalizarRuta(r, nil, "", testAhora)
	assert.ErrorIs(t, err, domain.ErrTransicionInvalida,
		"una ruta que no salió a reparto no se finaliza")
}
