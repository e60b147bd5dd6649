package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/entregas-pro/internal/domain"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
	"github.com/tu-usuario/entregas-pro/internal/domain/repository"
)

var _ repository.RutaRepository = (*RutaRepo)(nil)

// RutaRepo implementación de RutaRepository sobre PostgreSQL (usable con pool o tx).
// Las colecciones del agregado (facturas referenciadas, gastos, resumen)
// se guardan como JSONB.
type RutaRepo struct {
	q Querier
}

// NewRutaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRutaRepository(q Querier) *RutaRepo {
	return &RutaRepo{q: q}
}

const rutaColumns = `
	id, company_id, nombre, zona, estado, cargador_id, repartidor_id,
	factura_ids, items_total, items_cargados,
	gastos, monto_asignado, total_gastos, balance,
	notas_carga, notas_cierre, cierre_forzado, resumen,
	carga_iniciada_en, carga_finalizada_en, entregas_iniciadas_en, finalizada_en,
	creado_en, actualizado_en`

// Create persiste una ruta nueva.
func (r *RutaRepo) Create(ruta *entity.Ruta) error {
	if ruta.ID == "" {
		ruta.ID = uuid.New().String()
	}
	facturaIDs, gastos, resumen, err := marshalRuta(ruta)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO rutas (` + rutaColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	_, err = r.q.Exec(context.Background(), query,
		ruta.ID, ruta.CompanyID, ruta.Nombre, nullIfEmpty(ruta.Zona), ruta.Estado,
		nullIfEmpty(ruta.CargadorID), nullIfEmpty(ruta.RepartidorID),
		facturaIDs, ruta.ItemsTotalRuta, ruta.ItemsCargadosRuta,
		gastos, ruta.MontoAsignado, ruta.TotalGastos, ruta.Balance,
		nullIfEmpty(ruta.NotasCarga), nullIfEmpty(ruta.NotasCierre), ruta.CierreForzado, resumen,
		ruta.CargaIniciadaEn, ruta.CargaFinalizadaEn, ruta.EntregasIniciadas, ruta.FinalizadaEn,
		ruta.CreadoEn, ruta.ActualizadoEn,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrDuplicate, err)
		}
		return fmt.Errorf("insert ruta: %w", err)
	}
	return nil
}

// Update persiste el agregado completo de la ruta.
func (r *RutaRepo) Update(ruta *entity.Ruta) error {
	facturaIDs, gastos, resumen, err := marshalRuta(ruta)
	if err != nil {
		return err
	}
	query := `
		UPDATE rutas
		SET estado              = $2,
		    cargador_id         = $3,
		    repartidor_id       = $4,
		    factura_ids         = $5,
		    items_total         = $6,
		    items_cargados      = $7,
		    gastos              = $8,
		    monto_asignado      = $9,
		    total_gastos        = $10,
		    balance             = $11,
		    notas_carga         = $12,
		    notas_cierre        = $13,
		    cierre_forzado      = $14,
		    resumen             = $15,
		    carga_iniciada_en   = $16,
		    carga_finalizada_en = $17,
		    entregas_iniciadas_en = $18,
		    finalizada_en       = $19,
		    actualizado_en      = $20
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		ruta.ID, ruta.Estado,
		nullIfEmpty(ruta.CargadorID), nullIfEmpty(ruta.RepartidorID),
		facturaIDs, ruta.ItemsTotalRuta, ruta.ItemsCargadosRuta,
		gastos, ruta.MontoAsignado, ruta.TotalGastos, ruta.Balance,
		nullIfEmpty(ruta.NotasCarga), nullIfEmpty(ruta.NotasCierre), ruta.CierreForzado, resumen,
		ruta.CargaIniciadaEn, ruta.CargaFinalizadaEn, ruta.EntregasIniciadas, ruta.FinalizadaEn,
		ruta.ActualizadoEn,
	)
	if err != nil {
		return fmt.Errorf("update ruta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene una ruta de la empresa por ID.
func (r *RutaRepo) GetByID(companyID, id string) (*entity.Ruta, error) {
	query := `SELECT ` + rutaColumns + ` FROM rutas WHERE id = $1 AND company_id = $2`
	ruta, err := scanRuta(r.q.QueryRow(context.Background(), query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get ruta: %w", err)
	}
	return ruta, nil
}

// ListByAsignado devuelve las rutas donde el usuario es cargador o repartidor.
func (r *RutaRepo) ListByAsignado(companyID, userID string, limit, offset int) ([]*entity.Ruta, error) {
	query := `
		SELECT ` + rutaColumns + `
		FROM rutas
		WHERE company_id = $1 AND (cargador_id = $2 OR repartidor_id = $2)
		ORDER BY creado_en DESC LIMIT $3 OFFSET $4`
	return r.list(query, companyID, userID, limit, offset)
}


func (r *RutaRepo) list(query string, args ...any) ([]*entity.Ruta, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rutas: %w", err)
	}
	defer rows.Close()
	var out []*entity.Ruta
	for rows.Next() {
		ruta, err := scanRuta(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ruta: %w", err)
		}
		out = append(out, ruta)
	}
	return out, rows.Err()
}

func marshalRuta(ruta *entity.Ruta) (facturaIDs, gastos, resumen []byte, err error) {
	if facturaIDs, err = json.Marshal(ruta.FacturaIDs); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal factura_ids: %w", err)
	}
	if gastos, err = json.Marshal(ruta.Gastos); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal gastos: %w", err)
	}
	if ruta.Resumen != nil {
		if resumen, err = json.Marshal(ruta.Resumen); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal resumen: %w", err)
		}
	}
	return facturaIDs, gastos, resumen, nil
}

func scanRuta(row pgx.Row) (*entity.Ruta, error) {
	var (
		ruta                              entity.Ruta
		zona, cargador, repartidor        *string
		notasCarga, notasCierre           *string
		facturaIDs, gastosRaw, resumenRaw []byte
	)
	err := row.Scan(
		&ruta.ID, &ruta.CompanyID, &ruta.Nombre, &zona, &ruta.Estado, &cargador, &repartidor,
		&facturaIDs, &ruta.ItemsTotalRuta, &ruta.ItemsCargadosRuta,
		&gastosRaw, &ruta.MontoAsignado, &ruta.TotalGastos, &ruta.Balance,
		&notasCarga, &notasCierre, &ruta.CierreForzado, &resumenRaw,
		&ruta.CargaIniciadaEn, &ruta.CargaFinalizadaEn, &ruta.EntregasIniciadas, &ruta.FinalizadaEn,
		&ruta.CreadoEn, &ruta.ActualizadoEn,
	)
	if err != nil {
		return nil, err
	}
	ruta.Zona = derefStr(zona)
	ruta.CargadorID = derefStr(cargador)
	ruta.RepartidorID = derefStr(repartidor)
	ruta.NotasCarga = derefStr(notasCarga)
	ruta.NotasCierre = derefStr(notasCierre)
	if len(facturaIDs) > 0 {
		if err := json.Unmarshal(facturaIDs, &ruta.FacturaIDs); err != nil {
			return nil, fmt.Errorf("unmarshal factura_ids: %w", err)
		}
	}
	if len(gastosRaw) > 0 {
		if err := json.Unmarshal(gastosRaw, &ruta.Gastos); err != nil {
			return nil, fmt.Errorf("unmarshal gastos: %w", err)
		}
	}
	if len(resumenRaw) > 0 {
		ruta.Resumen = &entity.ResumenEntregas{}
		if err := json.Unmarshal(resumenRaw, ruta.Resumen); err != nil {
			return nil, fmt.Errorf("unmarshal resumen: %w", err)
		}
	}
	return &ruta, nil
}
