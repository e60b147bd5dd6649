// Package escaner implementa el parser de eventos de escaneo del cliente
// de campo: un acumulador único sobre pulsaciones de teclado que resuelve
// códigos contra las facturas de la ruta activa.
package escaner

import (
	"strings"
	"unicode"

	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
)

// MinCaracteresDefecto es el largo mínimo de un código escaneado válido.
const MinCaracteresDefecto = 3

// Escaner acumula pulsaciones mientras el modo escáner está activo. No es
// seguro para uso concurrente: vive en el bucle de eventos del cliente.
type Escaner struct {
	buf          strings.Builder
	min          int
	enCampoTexto bool
}

// New construye el escáner. Con min <= 0 se usa el valor por defecto.
func New(min int) *Escaner {
	if min <= 0 {
		min = MinCaracteresDefecto
	}
	return &Escaner{min: min}
}

// FocoCampoTexto activa o desactiva la supresión: con el foco dentro de
// un campo de texto las pulsaciones no se interpretan como escaneo.
func (e *Escaner) FocoCampoTexto(dentro bool) {
	e.enCampoTexto = dentro
	if dentro {
		e.buf.Reset()
	}
}

// Pulsar acumula una tecla imprimible. Cualquier otra se ignora.
func (e *Escaner) Pulsar(r rune) {
	if e.enCampoTexto || !unicode.IsPrint(r) || unicode.IsSpace(r) {
		return
	}
	e.buf.WriteRune(r)
}

// Confirmar es el Enter del lector: vacía el buffer y devuelve el código
// si alcanza el largo mínimo. Enter es el único terminador reconocido.
func (e *Escaner) Confirmar() (string, bool) {
	codigo := e.buf.String()
	e.buf.Reset()
	if e.enCampoTexto || len(codigo) < e.min {
		return "", false
	}
	return codigo, true
}

// Resolucion identifica el item que debe confirmarse tras un escaneo.
type Resolucion struct {
	FacturaID string
	ItemIndex int
}

// Resolver busca el código entre las facturas: si coincide con el código
// de tracking de una factura se elige su primer item sin cargar; si
// coincide con el código de barras de un item se elige el primer item
// pendiente con ese código. Devuelve false si nada coincide; un escaneo
// no encontrado no muta nada.
func Resolver(facturas []*entity.Factura, codigo string) (Resolucion, bool) {
	for _, f := range facturas {
		if f.CodigoTracking == codigo {
			if idx, ok := primerPendiente(f.Items, func(entity.Item) bool { return true }); ok {
				return Resolucion{FacturaID: f.ID, ItemIndex: idx}, true
			}
			continue
		}
		if idx, ok := primerPendiente(f.Items, func(it entity.Item) bool { return it.CodigoBarra == codigo }); ok {
			return Resolucion{FacturaID: f.ID, ItemIndex: idx}, true
		}
	}
	return Resolucion{}, false
}

// primerPendiente devuelve el índice del primer item sin cargar que
// cumpla el filtro (política first-pending-match).
func primerPendiente(items []entity.Item, filtro func(entity.Item) bool) (int, bool) {
	for i, it := range items {
		if !it.Cargado() && filtro(it) {
			return i, true
		}
	}
	return 0, false
}
