// Package gastos registra los gastos operativos de una ruta contra su
// monto asignado, recalculando totales y balance en cada alta.
package gastos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/entregas-pro/internal/application/dto"
	"github.com/tu-usuario/entregas-pro/internal/domain"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
	"github.com/tu-usuario/entregas-pro/internal/domain/repository"
	"github.com/tu-usuario/entregas-pro/pkg/logger"
)

// Actor identifica al usuario que ejecuta la operación.
type Actor struct {
	UserID    string
	CompanyID string
	Role      string
}

// FeedPublisher notifica el cambio de la ruta a los clientes conectados.
type FeedPublisher interface {
	PublicarRuta(ctx context.Context, ruta *entity.Ruta) error
}

// UseCase registra gastos de ruta.
type UseCase struct {
	rutaRepo repository.RutaRepository
	feed     FeedPublisher
	log      *logger.Logger
}

// New construye el caso de uso de gastos.
func New(rutaRepo repository.RutaRepository, feed FeedPublisher, log *logger.Logger) *UseCase {
	return &UseCase{rutaRepo: rutaRepo, feed: feed, log: log}
}

// AgregarGasto valida y añade un gasto a la ruta. El total de gastos y el
// balance se recalculan siempre desde la lista completa.
func (uc *UseCase) AgregarGasto(ctx context.Context, actor Actor, rutaID string, req dto.GastoRequest) (*entity.Ruta, error) {
	monto, err := decimal.NewFromString(req.Monto)
	if err != nil {
		return nil, fmt.Errorf("%w: monto inválido", domain.ErrInvalidInput)
	}

	r, err := uc.rutaRepo.GetByID(actor.CompanyID, rutaID)
	if err != nil {
		return nil, err
	}
	if actor.Role != "admin" && r.CargadorID != actor.UserID && r.RepartidorID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if r.Estado.Terminal() {
		return nil, fmt.Errorf("%w: la ruta ya está finalizada", domain.ErrEstadoTerminal)
	}

	gasto := entity.Gasto{
		ID:            uuid.New().String(),
		Tipo:          req.Tipo,
		Monto:         monto,
		Descripcion:   req.Descripcion,
		NCF:           req.NCF,
		RNC:           req.RNC,
		Foto:          req.Foto,
		Fecha:         time.Now(),
		RegistradoPor: actor.UserID,
	}
	if err := gasto.Validar(); err != nil {
		return nil, err
	}

	r.Gastos = append(r.Gastos, gasto)
	r.RecalcularGastos()
	r.ActualizadoEn = time.Now()
	if err := uc.rutaRepo.Update(r); err != nil {
		return nil, err
	}

	if err := uc.feed.PublicarRuta(ctx, r); err != nil {
		uc.log.Warn().Err(err).Str("ruta_id", r.ID).Msg("no se pudo publicar la ruta en el feed")
	}
	return r, nil
}
