package entity

// EstadoItem es el estado único de un item dentro de una factura.
// Las proyecciones booleanas (Cargado, Entregado) se derivan, nunca se almacenan aparte.
type EstadoItem string

const (
	ItemPendiente   EstadoItem = "pendiente"
	ItemCargado     EstadoItem = "cargado"
	ItemEntregado   EstadoItem = "entregado"
	ItemDanado      EstadoItem = "danado"
	ItemNoEntregado EstadoItem = "no_entregado"
)

// Terminal indica si el estado ya no admite transiciones.
func (e EstadoItem) Terminal() bool {
	switch e {
	case ItemEntregado, ItemDanado, ItemNoEntregado:
		return true
	}
	return false
}

// Item es una línea física de una factura de entrega.
type Item struct {
	Descripcion     string     `json:"descripcion"`
	Cantidad        int        `json:"cantidad"`
	CodigoBarra     string     `json:"codigoBarra,omitempty"`
	Estado          EstadoItem `json:"estado"`
	DescripcionDano string     `json:"descripcionDano,omitempty"`
	FotosDano       []string   `json:"fotosDano,omitempty"`

	// Optimista marca una mutación local aún no confirmada por el gateway.
	// Nunca se persiste ni viaja por el feed.
	Optimista bool `json:"-"`
}

// Cargado indica si el item pasó por la fase de carga.
// Los estados de entrega implican carga previa.
func (i Item) Cargado() bool {
	return i.Estado != ItemPendiente
}

// Entregado indica si el item llegó a manos del destinatario.
func (i Item) Entregado() bool {
	return i.Estado == ItemEntregado
}
