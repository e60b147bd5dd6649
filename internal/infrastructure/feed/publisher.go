package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
)

// Publisher publica documentos mutados en el canal de la empresa.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher construye el publicador sobre un cliente Redis.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// PublicarRuta publica la ruta completa como cambio modified.
func (p *Publisher) PublicarRuta(ctx context.Context, ruta *entity.Ruta) error {
	return p.publicar(ctx, ruta.CompanyID, Cambio{
		Tipo:          CambioModificado,
		Coleccion:     ColeccionRutas,
		DocumentoID:   ruta.ID,
		ActualizadoEn: ruta.ActualizadoEn,
	}, ruta)
}

// PublicarFactura publica la factura completa como cambio modified.
func (p *Publisher) PublicarFactura(ctx context.Context, factura *entity.Factura) error {
	return p.publicar(ctx, factura.CompanyID, Cambio{
		Tipo:          CambioModificado,
		Coleccion:     ColeccionFacturas,
		DocumentoID:   factura.ID,
		ActualizadoEn: factura.ActualizadoEn,
	}, factura)
}

func (p *Publisher) publicar(ctx context.Context, companyID string, cambio Cambio, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal documento: %w", err)
	}
	cambio.Documento = raw
	payload, err := json.Marshal(cambio)
	if err != nil {
		return fmt.Errorf("marshal cambio: %w", err)
	}
	if err := p.rdb.Publish(ctx, Canal(companyID), payload).Err(); err != nil {
		return fmt.Errorf("publish cambio: %w", err)
	}
	return nil
}
