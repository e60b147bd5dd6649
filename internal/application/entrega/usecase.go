package entrega

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/entregas-pro/internal/application/dto"
	"github.com/tu-usuario/entregas-pro/internal/domain"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
	"github.com/tu-usuario/entregas-pro/internal/domain/reparto"
	"github.com/tu-usuario/entregas-pro/internal/domain/repository"
	"github.com/tu-usuario/entregas-pro/pkg/logger"
)

// Actor identifica al usuario que ejecuta la operación.
type Actor struct {
	UserID    string
	CompanyID string
	Role      string
}

// UseCase orquesta la fase de reparto: salida a ruta, items, pagos,
// evidencia, cierres de factura y cierre de ruta.
type UseCase struct {
	txRunner TxRunner
	feed     FeedPublisher
	log      *logger.Logger
}

// New construye el caso de uso de entrega.
func New(txRunner TxRunner, feed FeedPublisher, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, feed: feed, log: log}
}

func puedeOperar(r *entity.Ruta, actor Actor) error {
	if actor.Role == "admin" {
		return nil
	}
	if r.RepartidorID != actor.UserID {
		return domain.ErrForbidden
	}
	return nil
}

// IniciarEntregas saca la ruta a reparto y pone sus facturas en en_ruta.
func (uc *UseCase) IniciarEntregas(ctx context.Context, actor Actor, rutaID string) (*entity.Ruta, error) {
	var (
		ruta     *entity.Ruta
		facturas []*entity.Factura
	)
	err := uc.txRunner.Run(ctx, func(rutaRepo repository.RutaRepository, facturaRepo repository.FacturaRepository) error {
		r, err := rutaRepo.GetByID(actor.CompanyID, rutaID)
		if err != nil {
			return err
		}
		if err := puedeOperar(r, actor); err != nil {
			return err
		}
		fs, err := facturaRepo.ListByRuta(actor.CompanyID, r.ID)
		if err != nil {
			return err
		}
		if err := reparto.IniciarEntregas(r, fs, time.Now()); err != nil {
			return err
		}
		for _, f := range fs {
			if err := facturaRepo.Update(f); err != nil {
				return err
			}
		}
		if err := rutaRepo.Update(r); err != nil {
			return err
		}
		ruta, facturas = r, fs
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.publicarRuta(ctx, ruta)
	for _, f := range facturas {
		uc.publicarFactura(ctx, f)
	}
	return ruta, nil
}

// mutarFactura carga ruta y factura con las comprobaciones comunes de la
// fase de reparto, aplica fn y persiste ambos agregados.
func (uc *UseCase) mutarFactura(ctx context.Context, actor Actor, rutaID, facturaID string, fn func(*entity.Factura) error) (*entity.Factura, error) {
	var (
		ruta    *entity.Ruta
		factura *entity.Factura
	)
	err := uc.txRunner.Run(ctx, func(rutaRepo repository.RutaRepository, facturaRepo repository.FacturaRepository) error {
		r, err := rutaRepo.GetByID(actor.CompanyID, rutaID)
		if err != nil {
			return err
		}
		if err := puedeOperar(r, actor); err != nil {
			return err
		}
		if r.Estado != entity.RutaEnCurso {
			return fmt.Errorf("%w: la ruta no está en reparto", domain.ErrConflict)
		}

		f, err := facturaRepo.GetByID(actor.CompanyID, facturaID)
		if err != nil {
			return err
		}
		if f.RutaID != r.ID {
			return fmt.Errorf("%w: la factura no pertenece a la ruta", domain.ErrConflict)
		}
		if err := fn(f); err != nil {
			return err
		}
		if err := facturaRepo.Update(f); err != nil {
			return err
		}

		facturas, err := facturaRepo.ListByRuta(actor.CompanyID, r.ID)
		if err != nil {
			return err
		}
		reparto.RecalcularContadores(r, facturas)
		r.ActualizadoEn = time.Now()
		if err := rutaRepo.Update(r); err != nil {
			return err
		}
		ruta, factura = r, f
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.publicarFactura(ctx, factura)
	uc.publicarRuta(ctx, ruta)
	return factura, nil
}

// ConfirmarItemEntregado marca un item como entregado.
func (uc *UseCase) ConfirmarItemEntregado(ctx context.Context, actor Actor, rutaID string, req dto.ItemRequest) (*entity.Factura, error) {
	return uc.mutarFactura(ctx, actor, rutaID, req.FacturaID, func(f *entity.Factura) error {
		return reparto.ConfirmarItemEntregado(f, req.ItemIndex, time.Now())
	})
}

// ReportarDano marca un item como dañado durante el reparto.
func (uc *UseCase) ReportarDano(ctx context.Context, actor Actor, rutaID string, req dto.DanoRequest) (*entity.Factura, error) {
	return uc.mutarFactura(ctx, actor, rutaID, req.FacturaID, func(f *entity.Factura) error {
		return reparto.ReportarDanoEntrega(f, req.ItemIndex, req.Descripcion, req.Fotos, time.Now())
	})
}

// SubirFotosEvidencia acumula fotos de evidencia sobre la factura.
func (uc *UseCase) SubirFotosEvidencia(ctx context.Context, actor Actor, rutaID, facturaID string, fotos []string) (*entity.Factura, error) {
	return uc.mutarFactura(ctx, actor, rutaID, facturaID, func(f *entity.Factura) error {
		return reparto.AgregarFotosEvidencia(f, fotos, time.Now())
	})
}

// ConfirmarPago registra el cobro contra entrega y devuelve el cambio.
func (uc *UseCase) ConfirmarPago(ctx context.Context, actor Actor, rutaID, facturaID string, req dto.PagoRequest) (*entity.Factura, decimal.Decimal, error) {
	monto, err := decimal.NewFromString(req.MontoRecibido)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("%w: monto recibido inválido", domain.ErrInvalidInput)
	}
	var cambio decimal.Decimal
	f, err := uc.mutarFactura(ctx, actor, rutaID, facturaID, func(f *entity.Factura) error {
		c, err := reparto.ConfirmarPago(f, req.MetodoPago, monto, req.ReferenciaPago, time.Now())
		if err != nil {
			return err
		}
		cambio = c
		return nil
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return f, cambio, nil
}

// MarcarEntregada cierra la factura como entregada.
func (uc *UseCase) MarcarEntregada(ctx context.Context, actor Actor, rutaID, facturaID string, req dto.EntregaRequest) (*entity.Factura, error) {
	return uc.mutarFactura(ctx, actor, rutaID, facturaID, func(f *entity.Factura) error {
		return reparto.MarcarEntregada(f, req.NombreReceptor, req.Notas, time.Now())
	})
}

// ReportarNoEntrega cierra la factura como no entregada, o la devuelve al
// pool de despacho si el repartidor pide reintento.
func (uc *UseCase) ReportarNoEntrega(ctx context.Context, actor Actor, rutaID, facturaID string, req dto.NoEntregaRequest) (*entity.Factura, error) {
	return uc.mutarFactura(ctx, actor, rutaID, facturaID, func(f *entity.Factura) error {
		return reparto.ReportarNoEntrega(f, req.Motivo, req.Descripcion, req.Fotos, req.Reintentar, reparto.OrigenRepartidor, time.Now())
	})
}

// FinalizarRuta cierra la ruta forzando las facturas que sigan sin
// resolver a no_entregada con motivo de sistema.
func (uc *UseCase) FinalizarRuta(ctx context.Context, actor Actor, rutaID, notas string) (*entity.Ruta, error) {
	var (
		ruta     *entity.Ruta
		forzadas []*entity.Factura
	)
	err := uc.txRunner.Run(ctx, func(rutaRepo repository.RutaRepository, facturaRepo repository.FacturaRepository) error {
		r, err := rutaRepo.GetByID(actor.CompanyID, rutaID)
		if err != nil {
			return err
		}
		if err := puedeOperar(r, actor); err != nil {
			return err
		}
		facturas, err := facturaRepo.ListByRuta(actor.CompanyID, r.ID)
		if err != nil {
			return err
		}

		antes := make(map[string]entity.EstadoFactura, len(facturas))
		for _, f := range facturas {
			antes[f.ID] = f.Estado
		}
		if err := reparto.FinalizarRuta(r, facturas, notas, time.Now()); err != nil {
			return err
		}
		for _, f := range facturas {
			if antes[f.ID] == f.Estado {
				continue
			}
			if err := facturaRepo.Update(f); err != nil {
				return err
			}
			forzadas = append(forzadas, f)
		}
		if err := rutaRepo.Update(r); err != nil {
			return err
		}
		ruta = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.publicarRuta(ctx, ruta)
	for _, f := range forzadas {
		uc.publicarFactura(ctx, f)
	}
	return ruta, nil
}

func (uc *UseCase) publicarRuta(ctx context.Context, r *entity.Ruta) {
	if err := uc.feed.PublicarRuta(ctx, r); err != nil {
		uc.log.Warn().Err(err).Str("ruta_id", r.ID).Msg("no se pudo publicar la ruta en el feed")
	}
}

func (uc *UseCase) publicarFactura(ctx context.Context, f *entity.Factura) {
	if err := uc.feed.PublicarFactura(ctx, f); err != nil {
		uc.log.Warn().Err(err).Str("factura_id", f.ID).Msg("no se pudo publicar la factura en el feed")
	}
}
