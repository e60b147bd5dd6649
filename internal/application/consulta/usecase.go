// Package consulta expone las lecturas que usan el cliente de campo y el
// panel: rutas asignadas, detalle de ruta con facturas y búsqueda por
// tracking. Es la fuente del snapshot inicial del feed.
package consulta

import (
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
	"github.com/tu-usuario/entregas-pro/internal/domain/repository"
)

// UseCase lecturas de rutas y facturas.
type UseCase struct {
	rutaRepo    repository.RutaRepository
	facturaRepo repository.FacturaRepository
}

// New construye el caso de uso de consulta.
func New(rutaRepo repository.RutaRepository, facturaRepo repository.FacturaRepository) *UseCase {
	return &UseCase{rutaRepo: rutaRepo, facturaRepo: facturaRepo}
}

// RutasAsignadas devuelve las rutas donde el usuario es cargador o repartidor.
func (uc *UseCase) RutasAsignadas(companyID, userID string, limit, offset int) ([]*entity.Ruta, error) {
	return uc.rutaRepo.ListByAsignado(companyID, userID, limit, offset)
}

// DetalleRuta devuelve la ruta con sus facturas en orden de despacho.
func (uc *UseCase) DetalleRuta(companyID, rutaID string) (*entity.Ruta, []*entity.Factura, error) {
	r, err := uc.rutaRepo.GetByID(companyID, rutaID)
	if err != nil {
		return nil, nil, err
	}
	facturas, err := uc.facturaRepo.ListByRuta(companyID, rutaID)
	if err != nil {
		return nil, nil, err
	}
	return r, facturas, nil
}

// BuscarPorTracking busca una factura por su código de tracking.
func (uc *UseCase) BuscarPorTracking(companyID, codigo string) (*entity.Factura, error) {
	return uc.facturaRepo.GetByTracking(companyID, codigo)
}
