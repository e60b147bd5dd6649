// Package reparto contiene las máquinas de estado puras de rutas,
// facturas e items. Ninguna función de este paquete toca persistencia
// ni red; reciben agregados, los mutan y devuelven error si la
// transición no es válida.
package reparto

import (
	"fmt"

	"github.com/tu-usuario/entregas-pro/internal/domain"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
)

// Tabla de transiciones de item. Los estados terminales no aparecen
// como origen: un item nunca retrocede.
var transicionesItem = map[entity.EstadoItem][]entity.EstadoItem{
	entity.ItemPendiente: {entity.ItemCargado, entity.ItemDanado, entity.ItemNoEntregado},
	entity.ItemCargado:   {entity.ItemEntregado, entity.ItemDanado, entity.ItemNoEntregado},
}

// Tabla de transiciones de ruta.
var transicionesRuta = map[entity.EstadoRuta][]entity.EstadoRuta{
	entity.RutaAsignada: {entity.RutaEnCarga},
	entity.RutaEnCarga:  {entity.RutaCargada},
	entity.RutaCargada:  {entity.RutaEnCurso},
	entity.RutaEnCurso:  {entity.RutaFinalizada},
}

// TransicionItem valida el paso de un item de un estado a otro.
func TransicionItem(actual, siguiente entity.EstadoItem) error {
	if actual.Terminal() {
		return fmt.Errorf("%w: el item ya está %s", domain.ErrEstadoTerminal, actual)
	}
	for _, s := range transicionesItem[actual] {
		if s == siguiente {
			return nil
		}
	}
	return fmt.Errorf("%w: item %s -> %s", domain.ErrTransicionInvalida, actual, siguiente)
}

// TransicionRuta valida el paso de una ruta de un estado a otro.
func TransicionRuta(actual, siguiente entity.EstadoRuta) error {
	if actual.Terminal() {
		return fmt.Errorf("%w: la ruta ya está %s", domain.ErrEstadoTerminal, actual)
	}
	for _, s := range transicionesRuta[actual] {
		if s == siguiente {
			return nil
		}
	}
	return fmt.Errorf("%w: ruta %s -> %s", domain.ErrTransicionInvalida, actual, siguiente)
}

// EstadosPermitidosItem devuelve los destinos válidos desde un estado de item.
func EstadosPermitidosItem(actual entity.EstadoItem) []entity.EstadoItem {
	return transicionesItem[actual]
}
