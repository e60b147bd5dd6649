// Package optimista implementa el ejecutor de mutaciones optimistas del
// cliente de campo: aplica el cambio local de inmediato, llama al gateway
// en segundo plano y revierte exactamente si la llamada falla.
package optimista

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tu-usuario/entregas-pro/pkg/logger"
)

// ErrAccionPendiente se devuelve cuando ya hay una acción sin resolver
// sobre la misma clave. El segundo intento se rechaza, no se encola.
var ErrAccionPendiente = errors.New("optimista: ya hay una acción pendiente sobre este elemento")

// Accion es una mutación optimista completa. AplicarLocal corre síncrono;
// LlamarRemoto corre en una goroutine; Revertir restaura el valor exacto
// capturado antes de aplicar.
type Accion struct {
	Clave        string
	AplicarLocal func() error
	LlamarRemoto func(ctx context.Context) error
	// Confirmar limpia la marca optimista tras el éxito remoto; el valor
	// canónico llega después por el listener de reconciliación.
	Confirmar    func()
	Revertir     func()
	MensajeExito string
	MensajeError string
}

// Resultado es la resolución de una acción, entregada por el callback de
// notificación.
type Resultado struct {
	Clave   string
	Exito   bool
	Mensaje string
	Err     error
}

// Ejecutor serializa acciones por clave. Mientras una acción sobre una
// clave no resuelve, cualquier otra sobre la misma clave se rechaza con
// ErrAccionPendiente.
type Ejecutor struct {
	mu         sync.Mutex
	pendientes map[string]struct{}
	wg         sync.WaitGroup

	notificar func(Resultado)
	log       *logger.Logger
}

// New construye el ejecutor. notificar puede ser nil si el llamador no
// necesita resoluciones.
func New(notificar func(Resultado), log *logger.Logger) *Ejecutor {
	if notificar == nil {
		notificar = func(Resultado) {}
	}
	return &Ejecutor{
		pendientes: make(map[string]struct{}),
		notificar:  notificar,
		log:        log,
	}
}

// ClaveItem construye la clave de serialización de un item.
func ClaveItem(facturaID string, itemIndex int) string {
	return fmt.Sprintf("%s#%d", facturaID, itemIndex)
}

// ClaveFactura construye la clave de serialización de una operación a
// nivel de factura.
func ClaveFactura(facturaID, operacion string) string {
	return facturaID + "@" + operacion
}

// Ejecutar corre la acción. AplicarLocal se invoca de forma síncrona: si
// falla, no queda nada pendiente y el error vuelve directo al llamador.
// La llamada remota resuelve en segundo plano; no hay reintento
// automático, reintentar es repetir el mismo intento.
func (e *Ejecutor) Ejecutar(ctx context.Context, a Accion) error {
	e.mu.Lock()
	if _, ocupada := e.pendientes[a.Clave]; ocupada {
		e.mu.Unlock()
		return ErrAccionPendiente
	}
	e.pendientes[a.Clave] = struct{}{}
	e.mu.Unlock()

	if err := a.AplicarLocal(); err != nil {
		e.liberar(a.Clave)
		return err
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		err := a.LlamarRemoto(ctx)
		e.liberar(a.Clave)
		if err != nil {
			a.Revertir()
			e.log.Warn().Err(err).Str("clave", a.Clave).Msg("acción optimista revertida")
			e.notificar(Resultado{Clave: a.Clave, Exito: false, Mensaje: a.MensajeError, Err: err})
			return
		}
		if a.Confirmar != nil {
			a.Confirmar()
		}
		e.notificar(Resultado{Clave: a.Clave, Exito: true, Mensaje: a.MensajeExito})
	}()
	return nil
}

// Pendiente indica si hay una acción sin resolver sobre la clave.
func (e *Ejecutor) Pendiente(clave string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pendientes[clave]
	return ok
}

// Esperar bloquea hasta que resuelvan todas las acciones en vuelo.
func (e *Ejecutor) Esperar() {
	e.wg.Wait()
}

func (e *Ejecutor) liberar(clave string) {
	e.mu.Lock()
	delete(e.pendientes, clave)
	e.mu.Unlock()
}
