package carga

import (
	"context"

	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
	"github.com/tu-usuario/entregas-pro/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que ruta y facturas se
// actualicen de forma atómica.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		rutaRepo repository.RutaRepository,
		facturaRepo repository.FacturaRepository,
	) error) error
}

// FeedPublisher notifica a los clientes conectados que un documento cambió.
// Un fallo de publicación no revierte la operación; se registra y sigue.
type FeedPublisher interface {
	PublicarRuta(ctx context.Context, ruta *entity.Ruta) error
	PublicarFactura(ctx context.Context, factura *entity.Factura) error
}
