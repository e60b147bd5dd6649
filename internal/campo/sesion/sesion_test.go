package sesion_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/entregas-pro/internal/campo/sesion"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
	"github.com/tu-usuario/entregas-pro/internal/infrastructure/feed"
	"github.com/tu-usuario/entregas-pro/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// fakeGateway sirve el snapshot inicial y registra las confirmaciones.
type fakeGateway struct {
	mu       sync.Mutex
	ruta     *entity.Ruta
	facturas []*entity.Factura

	confirmadosCarga []string
	fallarRemoto     bool
}

func (g *fakeGateway) DetalleRuta(ctx context.Context, rutaID string) (*entity.Ruta, []*entity.Factura, error) {
	return g.ruta, g.facturas, nil
}

func (g *fakeGateway) ConfirmarItemCargado(ctx context.Context, rutaID, facturaID string, itemIndex int) (*entity.Factura, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fallarRemoto {
		return nil, errors.New("timeout")
	}
	g.confirmadosCarga = append(g.confirmadosCarga, facturaID)
	return &entity.Factura{ID: facturaID}, nil
}

func (g *fakeGateway) ConfirmarItemEntregado(ctx context.Context, rutaID, facturaID string, itemIndex int) (*entity.Factura, error) {
	return &entity.Factura{ID: facturaID}, nil
}

func (g *fakeGateway) carga() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.confirmadosCarga...)
}

// fakeSuscriptor entrega un canal controlado por el test.
type fakeSuscriptor struct {
	cambios chan feed.Cambio
}

func (s *fakeSuscriptor) Suscribir(ctx context.Context, companyID string) (<-chan feed.Cambio, error) {
	return s.cambios, nil
}

func escenario() (*fakeGateway, *fakeSuscriptor) {
	gw := &fakeGateway{
		ruta: &entity.Ruta{ID: "ruta-1", CompanyID: "emp-1", Estado: entity.RutaEnCarga,
			ActualizadoEn: time.Now()},
		facturas: []*entity.Factura{
			{ID: "fac-1", RutaID: "ruta-1", CodigoTracking: "TRK-0001",
				Items: []entity.Item{
					{Descripcion: "caja", Cantidad: 1, Estado: entity.ItemCargado},
					{Descripcion: "saco", Cantidad: 1, Estado: entity.ItemPendiente},
				},
				ActualizadoEn: time.Now()},
		},
	}
	return gw, &fakeSuscriptor{cambios: make(chan feed.Cambio, 8)}
}

func nuevaSesion(gw *fakeGateway, sub *fakeSuscriptor, notificar func(string)) *sesion.Sesion {
	return sesion.New(gw, sub, sesion.Opciones{
		CompanyID: "emp-1",
		RutaID:    "ruta-1",
		Notificar: notificar,
	}, testLogger())
}

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo de vida
// ──────────────────────────────────────────────────────────────────────────────

func TestSesion_Iniciar_CargaSnapshotSinNotificar(t *testing.T) {
	gw, sub := escenario()

	var mu sync.Mutex
	var avisos []string
	s := nuevaSesion(gw, sub, func(m string) {
		mu.Lock()
		avisos = append(avisos, m)
		mu.Unlock()
	})

	require.NoError(t, s.Iniciar(context.Background()))
	defer s.Cerrar()

	ruta, err := s.Store().Ruta("ruta-1")
	require.NoError(t, err)
	assert.Equal(t, entity.RutaEnCarga, ruta.Estado)
	assert.Len(t, s.Store().FacturasDeRuta("ruta-1"), 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, avisos, "el snapshot inicial no genera avisos al usuario")
}

func TestSesion_CambioFrescoDelFeed_RefrescaYNotifica(t *testing.T) {
	gw, sub := escenario()

	avisos := make(chan string, 4)
	s := nuevaSesion(gw, sub, func(m string) { avisos <- m })
	require.NoError(t, s.Iniciar(context.Background()))
	defer s.Cerrar()

	// El gateway publica la factura ya entregada.
	actualizada := entity.Factura{ID: "fac-1", RutaID: "ruta-1", CodigoTracking: "TRK-0001",
		Estado: entity.FacturaEntregada, ActualizadoEn: time.Now()}
	doc, err := json.Marshal(actualizada)
	require.NoError(t, err)
	sub.cambios <- feed.Cambio{
		Tipo:          feed.CambioModificado,
		Coleccion:     feed.ColeccionFacturas,
		DocumentoID:   "fac-1",
		Documento:     doc,
		ActualizadoEn: actualizada.ActualizadoEn,
	}

	select {
	case <-avisos:
	case <-time.After(2 * time.Second):
		t.Fatal("el cambio fresco no generó aviso")
	}

	require.Eventually(t, func() bool {
		f, err := s.Store().Factura("fac-1")
		return err == nil && f.Estado == entity.FacturaEntregada
	}, 2*time.Second, 10*time.Millisecond,
		"el refresco debe aplicar la versión autoritativa al estado local")
}

// ──────────────────────────────────────────────────────────────────────────────
// Intents optimistas
// ──────────────────────────────────────────────────────────────────────────────

func TestSesion_ConfirmarItemCargado_AplicaLocalYConfirma(t *testing.T) {
	gw, sub := escenario()
	s := nuevaSesion(gw, sub, nil)
	require.NoError(t, s.Iniciar(context.Background()))
	defer s.Cerrar()

	require.NoError(t, s.ConfirmarItemCargado(context.Background(), "fac-1", 1))

	// La mutación local es inmediata.
	f, err := s.Store().Factura("fac-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ItemCargado, f.Items[1].Estado)

	require.Eventually(t, func() bool { return len(gw.carga()) == 1 },
		2*time.Second, 10*time.Millisecond, "la confirmación remota debe llegar al gateway")

	require.Eventually(t, func() bool {
		f, err := s.Store().Factura("fac-1")
		return err == nil && !f.Items[1].Optimista
	}, 2*time.Second, 10*time.Millisecond, "la marca optimista se limpia tras el éxito")
}

func TestSesion_FalloRemoto_RevierteElItem(t *testing.T) {
	gw, sub := escenario()
	gw.fallarRemoto = true

	avisos := make(chan string, 4)
	s := nuevaSesion(gw, sub, func(m string) { avisos <- m })
	require.NoError(t, s.Iniciar(context.Background()))
	defer s.Cerrar()

	require.NoError(t, s.ConfirmarItemCargado(context.Background(), "fac-1", 1))

	select {
	case <-avisos:
	case <-time.After(2 * time.Second):
		t.Fatal("el fallo remoto debe avisar al usuario")
	}

	require.Eventually(t, func() bool {
		f, err := s.Store().Factura("fac-1")
		return err == nil && f.Items[1].Estado == entity.ItemPendiente && !f.Items[1].Optimista
	}, 2*time.Second, 10*time.Millisecond,
		"el rollback debe dejar el item exactamente como estaba")
}

func TestSesion_TransicionInvalidaLocal_NoLlegaAlGateway(t *testing.T) {
	gw, sub := escenario()
	s := nuevaSesion(gw, sub, nil)
	require.NoError(t, s.Iniciar(context.Background()))
	defer s.Cerrar()

	// El item 0 ya está cargado; recargarlo es una transición inválida.
	err := s.ConfirmarItemCargado(context.Background(), "fac-1", 0)
	require.Error(t, err)
	s.Cerrar()
	assert.Empty(t, gw.carga(), "una validación local fallida no llama al gateway")
}

// ──────────────────────────────────────────────────────────────────────────────
// Escáner integrado
// ──────────────────────────────────────────────────────────────────────────────

func TestSesion_Escaneo_ResuelvePrimerPendiente(t *testing.T) {
	gw, sub := escenario()
	s := nuevaSesion(gw, sub, nil)
	require.NoError(t, s.Iniciar(context.Background()))
	defer s.Cerrar()

	for _, r := range "TRK-0001" {
		s.Tecla(r)
	}
	require.NoError(t, s.ConfirmarEscaneo(context.Background()))

	f, err := s.Store().Factura("fac-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ItemCargado, f.Items[1].Estado,
		"el escaneo debe confirmar el primer item pendiente")
}

func TestSesion_EscaneoDesconocido_NoMuta(t *testing.T) {
	gw, sub := escenario()
	s := nuevaSesion(gw, sub, nil)
	require.NoError(t, s.Iniciar(context.Background()))
	defer s.Cerrar()

	for _, r := range "XXX-999" {
		s.Tecla(r)
	}
	err := s.ConfirmarEscaneo(context.Background())
	assert.ErrorIs(t, err, sesion.ErrCodigoNoEncontrado)

	f, errF := s.Store().Factura("fac-1")
	require.NoError(t, errF)
	assert.Equal(t, entity.ItemPendiente, f.Items[1].Estado)
}
