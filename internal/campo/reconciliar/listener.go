// Package reconciliar implementa el listener de reconciliación del
// cliente de campo: consume snapshots del feed de cambios y decide qué
// merece notificación al usuario y qué se refresca en silencio.
package reconciliar

import (
	"context"
	"time"

	"github.com/tu-usuario/entregas-pro/internal/infrastructure/feed"
	"github.com/tu-usuario/entregas-pro/pkg/logger"
)

// VentanaFrescuraDefecto filtra cambios históricos que solo entraron al
// resultado por reordenación de la consulta, no por una edición nueva.
const VentanaFrescuraDefecto = 30 * time.Second

// Reloj abstrae el "ahora" para que los tests controlen la frescura.
type Reloj interface {
	Ahora() time.Time
}

// RelojSistema usa time.Now.
type RelojSistema struct{}

func (RelojSistema) Ahora() time.Time { return time.Now() }

// Snapshot es una entrega del feed: el primero trae el resultado completo
// de la suscripción, los siguientes traen cambios incrementales.
type Snapshot struct {
	Cambios []feed.Cambio
}

// Callbacks conecta el listener con el resto del cliente. CargaInicial
// corre una sola vez con el tamaño del primer snapshot. Notificar solo
// corre para cambios frescos. Refrescar corre para todo cambio posterior
// al primer snapshot, fresco o no.
type Callbacks struct {
	CargaInicial func(total int)
	Notificar    func(c feed.Cambio)
	Refrescar    func(c feed.Cambio)
}

// Listener filtra el feed de cambios por frescura.
type Listener struct {
	ventana time.Duration
	reloj   Reloj
	cb      Callbacks
	log     *logger.Logger

	inicial bool
}

// New construye el listener. Con ventana <= 0 se usa el valor por defecto;
// con reloj nil se usa el reloj de sistema.
func New(ventana time.Duration, reloj Reloj, cb Callbacks, log *logger.Logger) *Listener {
	if ventana <= 0 {
		ventana = VentanaFrescuraDefecto
	}
	if reloj == nil {
		reloj = RelojSistema{}
	}
	if cb.CargaInicial == nil {
		cb.CargaInicial = func(int) {}
	}
	if cb.Notificar == nil {
		cb.Notificar = func(feed.Cambio) {}
	}
	if cb.Refrescar == nil {
		cb.Refrescar = func(feed.Cambio) {}
	}
	return &Listener{ventana: ventana, reloj: reloj, cb: cb, log: log}
}

// Escuchar consume snapshots hasta que el contexto se cancele o el canal
// se cierre. Un cierre inesperado del canal es un fallo del listener: se
// registra un warning y el listener se detiene sin reintentar.
func (l *Listener) Escuchar(ctx context.Context, snapshots <-chan Snapshot) {
	for {
		select {
		case <-ctx.Done():
			l.log.Debug().Msg("listener de reconciliación detenido")
			return
		case snap, ok := <-snapshots:
			if !ok {
				l.log.Warn().Msg("el feed de cambios se cerró; listener detenido")
				return
			}
			l.Procesar(snap)
		}
	}
}

// Procesar aplica un snapshot. Es la transición pura del listener,
// separada del bucle de E/S para poder probarla directamente.
func (l *Listener) Procesar(snap Snapshot) {
	if !l.inicial {
		// Primer snapshot: todo se considera ya visto, sin notificaciones.
		l.inicial = true
		l.cb.CargaInicial(len(snap.Cambios))
		return
	}
	ahora := l.reloj.Ahora()
	for _, c := range snap.Cambios {
		if l.esFresco(c, ahora) {
			l.cb.Notificar(c)
		}
		l.cb.Refrescar(c)
	}
}

// esFresco decide si un cambio es una edición reciente. Las eliminaciones
// nunca notifican; solo refrescan.
func (l *Listener) esFresco(c feed.Cambio, ahora time.Time) bool {
	if c.Tipo == feed.CambioEliminado {
		return false
	}
	delta := ahora.Sub(c.ActualizadoEn)
	if delta < 0 {
		delta = -delta
	}
	return delta <= l.ventana
}
