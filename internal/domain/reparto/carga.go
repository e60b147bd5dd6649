package reparto

import (
	"fmt"
	"time"

	"github.com/tu-usuario/entregas-pro/internal/domain"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
)

// IniciarCarga pasa la ruta de asignada a en_carga. Una ruta sin
// facturas no tiene nada que cargar.
func IniciarCarga(r *entity.Ruta, ahora time.Time) error {
	if err := TransicionRuta(r.Estado, entity.RutaEnCarga); err != nil {
		return err
	}
	if len(r.FacturaIDs) == 0 {
		return fmt.Errorf("%w: la ruta no tiene facturas asignadas", domain.ErrConflict)
	}
	r.Estado = entity.RutaEnCarga
	r.CargaIniciadaEn = &ahora
	r.ActualizadoEn = ahora
	return nil
}

// ConfirmarItemCargado marca un item como cargado y rederiva el estado
// de carga de la factura.
func ConfirmarItemCargado(f *entity.Factura, idx int, ahora time.Time) error {
	if idx < 0 || idx >= len(f.Items) {
		return fmt.Errorf("%w: índice de item %d fuera de rango", domain.ErrInvalidInput, idx)
	}
	it := &f.Items[idx]
	if err := TransicionItem(it.Estado, entity.ItemCargado); err != nil {
		return err
	}
	it.Estado = entity.ItemCargado
	f.RecalcularEstadoCarga()
	f.ActualizadoEn = ahora
	return nil
}

// ReportarDanoCarga marca un item como dañado durante la carga.
// Requiere descripción del daño y al menos una foto.
func ReportarDanoCarga(f *entity.Factura, idx int, descripcion string, fotos []string, ahora time.Time) error {
	return reportarDano(f, idx, descripcion, fotos, ahora)
}

func reportarDano(f *entity.Factura, idx int, descripcion string, fotos []string, ahora time.Time) error {
	if idx < 0 || idx >= len(f.Items) {
		return fmt.Errorf("%w: índice de item %d fuera de rango", domain.ErrInvalidInput, idx)
	}
	if descripcion == "" {
		return fmt.Errorf("%w: descripción del daño requerida", domain.ErrInvalidInput)
	}
	if len(fotos) == 0 {
		return fmt.Errorf("%w: foto del daño requerida", domain.ErrEvidenciaRequerida)
	}
	it := &f.Items[idx]
	if err := TransicionItem(it.Estado, entity.ItemDanado); err != nil {
		return err
	}
	it.Estado = entity.ItemDanado
	it.DescripcionDano = descripcion
	it.FotosDano = fotos
	f.RecalcularEstadoCarga()
	f.ActualizadoEn = ahora
	return nil
}

// ValidarFinCarga comprueba que todas las facturas tengan todos sus items
// cargados (o dañados). Si no, devuelve el detalle estructurado por factura.
func ValidarFinCarga(facturas []*entity.Factura) *FacturasIncompletasError {
	var incompletas []FacturaIncompleta
	for _, f := range facturas {
		if !f.CargaCompleta() {
			incompletas = append(incompletas, FacturaIncompleta{
				FacturaID:      f.ID,
				CodigoTracking: f.CodigoTracking,
				ItemsCargados:  f.ItemsCargados(),
				ItemsTotal:     len(f.Items),
			})
		}
	}
	if len(incompletas) == 0 {
		return nil
	}
	return &FacturasIncompletasError{Facturas: incompletas}
}

// FinalizarCarga cierra la fase de carga. Falla con FacturasIncompletasError
// si alguna factura tiene items sin cargar; en éxito la ruta pasa a cargada.
func FinalizarCarga(r *entity.Ruta, facturas []*entity.Factura, notas string, ahora time.Time) error {
	if err := TransicionRuta(r.Estado, entity.RutaCargada); err != nil {
		return err
	}
	if inc := ValidarFinCarga(facturas); inc != nil {
		return inc
	}
	r.Estado = entity.RutaCargada
	r.NotasCarga = notas
	r.CargaFinalizadaEn = &ahora
	r.ActualizadoEn = ahora
	RecalcularContadores(r, facturas)
	return nil
}
