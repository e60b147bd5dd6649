package entrega

import (
	"context"

	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
	"github.com/tu-usuario/entregas-pro/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		rutaRepo repository.RutaRepository,
		facturaRepo repository.FacturaRepository,
	) error) error
}

// FeedPublisher notifica a los clientes conectados que un documento cambió.
type FeedPublisher interface {
	PublicarRuta(ctx context.Context, ruta *entity.Ruta) error
	PublicarFactura(ctx context.Context, factura *entity.Factura) error
}
