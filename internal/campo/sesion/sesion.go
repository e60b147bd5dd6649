// Package sesion arma el contexto explícito del cliente de campo: gateway,
// feed, estado local, ejecutor optimista, listener de reconciliación y
// escáner, con un ciclo de vida Iniciar/Cerrar atado a la ruta activa.
package sesion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tu-usuario/entregas-pro/internal/campo/escaner"
	"github.com/tu-usuario/entregas-pro/internal/campo/estado"
	"github.com/tu-usuario/entregas-pro/internal/campo/optimista"
	"github.com/tu-usuario/entregas-pro/internal/campo/reconciliar"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
	"github.com/tu-usuario/entregas-pro/internal/domain/reparto"
	"github.com/tu-usuario/entregas-pro/internal/infrastructure/feed"
	"github.com/tu-usuario/entregas-pro/pkg/logger"
)

// ErrCodigoNoEncontrado indica que un escaneo no coincide con ninguna
// factura ni item de la ruta activa. No se muta nada.
var ErrCodigoNoEncontrado = errors.New("sesion: código escaneado no encontrado")

// Gateway es lo que la sesión necesita del cliente HTTP del gateway.
type Gateway interface {
	DetalleRuta(ctx context.Context, rutaID string) (*entity.Ruta, []*entity.Factura, error)
	ConfirmarItemCargado(ctx context.Context, rutaID, facturaID string, itemIndex int) (*entity.Factura, error)
	ConfirmarItemEntregado(ctx context.Context, rutaID, facturaID string, itemIndex int) (*entity.Factura, error)
}

// Suscriptor abre el canal de cambios de la empresa.
type Suscriptor interface {
	Suscribir(ctx context.Context, companyID string) (<-chan feed.Cambio, error)
}

// Opciones configura la sesión.
type Opciones struct {
	CompanyID       string
	RutaID          string
	VentanaFrescura time.Duration
	MinCaracteres   int
	Reloj           reconciliar.Reloj
	// Notificar recibe los cambios frescos del feed y las resoluciones
	// del ejecutor. Puede ser nil.
	Notificar  func(mensaje string)
	Resolucion func(optimista.Resultado)
}

// Sesion es el contexto de una jornada de campo sobre una ruta.
type Sesion struct {
	gw    Gateway
	sub   Suscriptor
	store *estado.Store
	ejec  *optimista.Ejecutor
	lis   *reconciliar.Listener
	esc   *escaner.Escaner
	log   *logger.Logger
	reloj reconciliar.Reloj

	companyID string
	rutaID    string
	notificar func(string)

	cancelar context.CancelFunc
	wg       sync.WaitGroup
}

// New construye la sesión sin arrancarla.
func New(gw Gateway, sub Suscriptor, opts Opciones, log *logger.Logger) *Sesion {
	if opts.Reloj == nil {
		opts.Reloj = reconciliar.RelojSistema{}
	}
	notificar := opts.Notificar
	if notificar == nil {
		notificar = func(string) {}
	}
	resolucion := opts.Resolucion
	if resolucion == nil {
		resolucion = func(r optimista.Resultado) {
			if !r.Exito {
				notificar(r.Mensaje)
			}
		}
	}

	s := &Sesion{
		gw:        gw,
		sub:       sub,
		store:     estado.New(),
		esc:       escaner.New(opts.MinCaracteres),
		log:       log,
		reloj:     opts.Reloj,
		companyID: opts.CompanyID,
		rutaID:    opts.RutaID,
		notificar: notificar,
	}
	s.ejec = optimista.New(resolucion, log)
	s.lis = reconciliar.New(opts.VentanaFrescura, opts.Reloj, reconciliar.Callbacks{
		CargaInicial: func(total int) {
			log.Info().Int("documentos", total).Msg("snapshot inicial cargado")
		},
		Notificar: s.notificarCambio,
		Refrescar: s.refrescar,
	}, log)
	return s
}

// Iniciar carga el snapshot inicial desde el gateway y arranca el
// listener sobre el feed de cambios.
func (s *Sesion) Iniciar(ctx context.Context) error {
	ruta, facturas, err := s.gw.DetalleRuta(ctx, s.rutaID)
	if err != nil {
		return fmt.Errorf("cargar ruta activa: %w", err)
	}
	s.store.CargarSnapshot([]*entity.Ruta{ruta}, facturas)

	// El snapshot inicial marca todo como visto sin notificar.
	inicial := reconciliar.Snapshot{Cambios: make([]feed.Cambio, 0, len(facturas)+1)}
	inicial.Cambios = append(inicial.Cambios, feed.Cambio{
		Tipo: feed.CambioAgregado, Coleccion: feed.ColeccionRutas,
		DocumentoID: ruta.ID, ActualizadoEn: ruta.ActualizadoEn,
	})
	for _, f := range facturas {
		inicial.Cambios = append(inicial.Cambios, feed.Cambio{
			Tipo: feed.CambioAgregado, Coleccion: feed.ColeccionFacturas,
			DocumentoID: f.ID, ActualizadoEn: f.ActualizadoEn,
		})
	}
	s.lis.Procesar(inicial)

	cambios, err := s.sub.Suscribir(ctx, s.companyID)
	if err != nil {
		return fmt.Errorf("suscribir al feed: %w", err)
	}

	ctxEscucha, cancelar := context.WithCancel(ctx)
	s.cancelar = cancelar

	snapshots := make(chan reconciliar.Snapshot)
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		defer close(snapshots)
		for {
			select {
			case <-ctxEscucha.Done():
				return
			case c, ok := <-cambios:
				if !ok {
					return
				}
				select {
				case snapshots <- reconciliar.Snapshot{Cambios: []feed.Cambio{c}}:
				case <-ctxEscucha.Done():
					return
				}
			}
		}
	}()
	go func() {
		defer s.wg.Done()
		s.lis.Escuchar(ctxEscucha, snapshots)
	}()
	return nil
}

// Cerrar detiene el listener y espera las acciones optimistas en vuelo.
func (s *Sesion) Cerrar() {
	if s.cancelar != nil {
		s.cancelar()
	}
	s.wg.Wait()
	s.ejec.Esperar()
}

// Store expone el estado local para las lecturas de la UI.
func (s *Sesion) Store() *estado.Store {
	return s.store
}

// ── Intents optimistas ────────────────────────────────────────────────────────

// ConfirmarItemCargado aplica la carga del item localmente y la confirma
// contra el gateway en segundo plano.
func (s *Sesion) ConfirmarItemCargado(ctx context.Context, facturaID string, itemIndex int) error {
	previa, err := s.store.Factura(facturaID)
	if err != nil {
		return err
	}
	return s.ejec.Ejecutar(ctx, optimista.Accion{
		Clave: optimista.ClaveItem(facturaID, itemIndex),
		AplicarLocal: func() error {
			return s.store.MutarFactura(facturaID, func(f *entity.Factura) error {
				if err := reparto.ConfirmarItemCargado(f, itemIndex, s.reloj.Ahora()); err != nil {
					return err
				}
				f.Items[itemIndex].Optimista = true
				return nil
			})
		},
		LlamarRemoto: func(ctx context.Context) error {
			_, err := s.gw.ConfirmarItemCargado(ctx, s.rutaID, facturaID, itemIndex)
			return err
		},
		Confirmar: func() { s.limpiarOptimista(facturaID, itemIndex) },
		Revertir:  func() { s.store.ReemplazarFactura(previa) },
		MensajeExito: "item cargado",
		MensajeError: "no se pudo confirmar la carga del item, vuelve a intentarlo",
	})
}

// ConfirmarItemEntregado aplica la entrega del item localmente y la
// confirma contra el gateway en segundo plano.
func (s *Sesion) ConfirmarItemEntregado(ctx context.Context, facturaID string, itemIndex int) error {
	previa, err := s.store.Factura(facturaID)
	if err != nil {
		return err
	}
	return s.ejec.Ejecutar(ctx, optimista.Accion{
		Clave: optimista.ClaveItem(facturaID, itemIndex),
		AplicarLocal: func() error {
			return s.store.MutarFactura(facturaID, func(f *entity.Factura) error {
				if err := reparto.ConfirmarItemEntregado(f, itemIndex, s.reloj.Ahora()); err != nil {
					return err
				}
				f.Items[itemIndex].Optimista = true
				return nil
			})
		},
		LlamarRemoto: func(ctx context.Context) error {
			_, err := s.gw.ConfirmarItemEntregado(ctx, s.rutaID, facturaID, itemIndex)
			return err
		},
		Confirmar: func() { s.limpiarOptimista(facturaID, itemIndex) },
		Revertir:  func() { s.store.ReemplazarFactura(previa) },
		MensajeExito: "item entregado",
		MensajeError: "no se pudo confirmar la entrega del item, vuelve a intentarlo",
	})
}

// ── Escáner ───────────────────────────────────────────────────────────────────

// Tecla acumula una pulsación en el escáner.
func (s *Sesion) Tecla(r rune) {
	s.esc.Pulsar(r)
}

// FocoCampoTexto suprime o reactiva la interpretación de teclas.
func (s *Sesion) FocoCampoTexto(dentro bool) {
	s.esc.FocoCampoTexto(dentro)
}

// ConfirmarEscaneo cierra el código acumulado, lo resuelve contra las
// facturas de la ruta y emite el intent de carga del item resuelto.
func (s *Sesion) ConfirmarEscaneo(ctx context.Context) error {
	codigo, ok := s.esc.Confirmar()
	if !ok {
		return nil
	}
	res, ok := escaner.Resolver(s.store.FacturasDeRuta(s.rutaID), codigo)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCodigoNoEncontrado, codigo)
	}
	return s.ConfirmarItemCargado(ctx, res.FacturaID, res.ItemIndex)
}

// ── Reconciliación ────────────────────────────────────────────────────────────

func (s *Sesion) notificarCambio(c feed.Cambio) {
	s.notificar(fmt.Sprintf("%s %s actualizado", c.Coleccion, c.DocumentoID))
}

// refrescar aplica el documento autoritativo al estado local. La versión
// del servidor pisa cualquier marca optimista ya confirmada.
func (s *Sesion) refrescar(c feed.Cambio) {
	switch c.Coleccion {
	case feed.ColeccionRutas:
		if c.Tipo == feed.CambioEliminado {
			s.store.EliminarRuta(c.DocumentoID)
			return
		}
		var ruta entity.Ruta
		if err := json.Unmarshal(c.Documento, &ruta); err != nil {
			s.log.Warn().Err(err).Str("documento_id", c.DocumentoID).Msg("ruta del feed indescifrable")
			return
		}
		s.store.ReemplazarRuta(&ruta)
	case feed.ColeccionFacturas:
		if c.Tipo == feed.CambioEliminado {
			s.store.EliminarFactura(c.DocumentoID)
			return
		}
		var factura entity.Factura
		if err := json.Unmarshal(c.Documento, &factura); err != nil {
			s.log.Warn().Err(err).Str("documento_id", c.DocumentoID).Msg("factura del feed indescifrable")
			return
		}
		s.store.ReemplazarFactura(&factura)
	}
}

func (s *Sesion) limpiarOptimista(facturaID string, itemIndex int) {
	_ = s.store.MutarFactura(facturaID, func(f *entity.Factura) error {
		if itemIndex >= 0 && itemIndex < len(f.Items) {
			f.Items[itemIndex].Optimista = false
		}
		return nil
	})
}
