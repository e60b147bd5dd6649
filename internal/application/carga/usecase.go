package carga

import (
	"context"
	"fmt"
	"time"

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

// UseCase orquesta la fase de carga de una ruta: transición de estados,
// persistencia transaccional y publicación en el feed de cambios.
type UseCase struct {
	txRunner TxRunner
	feed     FeedPublisher
	log      *logger.Logger
}

// New construye el caso de uso de carga.
func New(txRunner TxRunner, feed FeedPublisher, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, feed: feed, log: log}
}

// puedeOperar verifica que el actor sea el cargador asignado o un admin.
func puedeOperar(r *entity.Ruta, actor Actor) error {
	if actor.Role == "admin" {
		return nil
	}
	if r.CargadorID != actor.UserID {
		return domain.ErrForbidden
	}
	return nil
}

// IniciarCarga pasa la ruta a en_carga.
func (uc *UseCase) IniciarCarga(ctx context.Context, actor Actor, rutaID string) (*entity.Ruta, error) {
	var ruta *entity.Ruta
	err := uc.txRunner.Run(ctx, func(rutaRepo repository.RutaRepository, _ repository.FacturaRepository) error {
		r, err := rutaRepo.GetByID(actor.CompanyID, rutaID)
		if err != nil {
			return err
		}
		if err := puedeOperar(r, actor); err != nil {
			return err
		}
		if err := reparto.IniciarCarga(r, time.Now()); err != nil {
			return err
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
	return ruta, nil
}

// ConfirmarItemCargado marca un item como cargado y recalcula los
// contadores de la ruta desde el árbol completo.
func (uc *UseCase) ConfirmarItemCargado(ctx context.Context, actor Actor, rutaID string, req dto.ItemRequest) (*entity.Factura, error) {
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
		if r.Estado != entity.RutaEnCarga {
			return fmt.Errorf("%w: la ruta no está en carga", domain.ErrConflict)
		}

		f, err := facturaRepo.GetByID(actor.CompanyID, req.FacturaID)
		if err != nil {
			return err
		}
		if f.RutaID != r.ID {
			return fmt.Errorf("%w: la factura no pertenece a la ruta", domain.ErrConflict)
		}
		if err := reparto.ConfirmarItemCargado(f, req.ItemIndex, time.Now()); err != nil {
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

// ReportarDano marca un item como dañado durante la carga.
func (uc *UseCase) ReportarDano(ctx context.Context, actor Actor, rutaID string, req dto.DanoRequest) (*entity.Factura, error) {
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
		if r.Estado != entity.RutaEnCarga {
			return fmt.Errorf("%w: la ruta no está en carga", domain.ErrConflict)
		}

		f, err := facturaRepo.GetByID(actor.CompanyID, req.FacturaID)
		if err != nil {
			return err
		}
		if f.RutaID != r.ID {
			return fmt.Errorf("%w: la factura no pertenece a la ruta", domain.ErrConflict)
		}
		if err := reparto.ReportarDanoCarga(f, req.ItemIndex, req.Descripcion, req.Fotos, time.Now()); err != nil {
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

// FinalizarCarga cierra la fase de carga. El rechazo por items pendientes
// viaja como FacturasIncompletasError para que el handler lo serialice.
func (uc *UseCase) FinalizarCarga(ctx context.Context, actor Actor, rutaID, notas string) (*entity.Ruta, error) {
	var ruta *entity.Ruta
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
		if err := reparto.FinalizarCarga(r, facturas, notas, time.Now()); err != nil {
			return err
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
