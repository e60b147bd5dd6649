package repository

import "github.com/tu-usuario/entregas-pro/internal/domain/entity"

// FacturaRepository define el puerto de persistencia para facturas de entrega.
type FacturaRepository interface {
	Create(factura *entity.Factura) error
	// Update persiste el agregado completo, items y pago incluidos.
	Update(factura *entity.Factura) error
	GetByID(companyID, id string) (*entity.Factura, error)
	// ListByRuta devuelve las facturas de una ruta en orden de despacho.
	ListByRuta(companyID, rutaID string) ([]*entity.Factura, error)
	// GetByTracking busca por código de tracking dentro de la empresa.
	GetByTracking(companyID, codigo string) (*entity.Factura, error)
}
