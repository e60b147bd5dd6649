// Package pdf genera el comprobante de entrega de una factura: quién
// recibió, qué items se entregaron y cómo quedó el cobro.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Comprobante de entrega │ Código tracking + Fecha    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DESTINATARIO: nombre, dirección, teléfono, receptor        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | Estado                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PAGO: total / método / cambio │ QR con el tracking          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ComprobanteGenerator genera comprobantes de entrega usando Maroto v2.
type ComprobanteGenerator struct{}

// NewComprobanteGenerator construye el generador.
func NewComprobanteGenerator() *ComprobanteGenerator { return &ComprobanteGenerator{} }

// GenerarComprobante genera el PDF de una factura entregada y devuelve sus bytes.
func (g *ComprobanteGenerator) GenerarComprobante(factura *entity.Factura) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de Entrega", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(factura))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(destinatarioRow(factura))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableItemRows(factura.Items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(pagoRow(factura))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título (izq), tracking con fecha de entrega (der).
func headerRow(factura *entity.Factura) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("COMPROBANTE DE ENTREGA", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Estado: "+string(factura.Estado), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(factura.CodigoTracking, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 3,
			}),
			text.New("Fecha: "+factura.ActualizadoEn.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 11, Color: colorGray,
			}),
		),
	)
}

// destinatarioRow: datos del destinatario y quién recibió.
func destinatarioRow(factura *entity.Factura) core.Row {
	receptor := nonEmpty(factura.NombreReceptor, "—")
	return row.New(16).Add(
		col.New(12).Add(
			text.New("DESTINATARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(factura.Destinatario.Nombre, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Dirección: %s   |   Tel: %s   |   Recibió: %s",
				nonEmpty(factura.Destinatario.Direccion, "—"),
				nonEmpty(factura.Destinatario.Telefono, "—"),
				receptor,
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de items.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 2, align.Center),
		h("Descripción", 7, align.Left),
		h("Estado", 3, align.Right),
	)
}

// tableItemRows: una fila por item, con su estado final.
func tableItemRows(items []entity.Item) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(
				fmt.Sprintf("%d", it.Cantidad),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(7).Add(text.New(
				it.Descripcion,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(3).Add(text.New(
				string(it.Estado),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// pagoRow: resumen del cobro (izq) y QR con el tracking (der).
func pagoRow(factura *entity.Factura) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Top: top, Left: 30})
	}

	pago := factura.Pago
	metodo := nonEmpty(pago.MetodoPago, "sin cobro")
	return row.New(40).Add(
		col.New(8).Add(
			label("Total:", 2), value("$"+pago.Total.StringFixed(2), 2),
			label("Pagado:", 8), value("$"+pago.MontoPagado.StringFixed(2), 8),
			label("Cambio:", 14), value("$"+pago.Cambio.StringFixed(2), 14),
			label("Método:", 20), value(metodo, 20),
		),
		col.New(4).Add(code.NewQr(factura.CodigoTracking, props.Rect{
			Percent: 90,
			Center:  true,
		})),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
