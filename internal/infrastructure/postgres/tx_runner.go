package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/entregas-pro/internal/application/carga"
	"github.com/tu-usuario/entregas-pro/internal/application/entrega"
	"github.com/tu-usuario/entregas-pro/internal/domain/repository"
)

var _ carga.TxRunner = (*TxRunner)(nil)
var _ entrega.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	rutaRepo repository.RutaRepository,
	facturaRepo repository.FacturaRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rutaRepo := NewRutaRepository(tx)
	facturaRepo := NewFacturaRepository(tx)

	if err := fn(rutaRepo, facturaRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
