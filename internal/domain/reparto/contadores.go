package reparto

import "github.com/tu-usuario/entregas-pro/internal/domain/entity"

// RecalcularContadores rederiva los contadores de la ruta desde el árbol
// de facturas e items. Es la única forma válida de actualizarlos.
func RecalcularContadores(r *entity.Ruta, facturas []*entity.Factura) {
	total, cargados := 0, 0
	for _, f := range facturas {
		total += len(f.Items)
		cargados += f.ItemsCargados()
	}
	r.ItemsTotalRuta = total
	r.ItemsCargadosRuta = cargados
}
