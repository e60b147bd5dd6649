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

var _ repository.FacturaRepository = (*FacturaRepo)(nil)

// FacturaRepo implementación de FacturaRepository sobre PostgreSQL (usable
// con pool o tx). Items, pago, destinatario y fotos van como JSONB: el
// agregado se lee y escribe completo.
type FacturaRepo struct {
	q Querier
}

// NewFacturaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFacturaRepository(q Querier) *FacturaRepo {
	return &FacturaRepo{q: q}
}

const facturaColumns = `
	id, company_id, ruta_id, codigo_tracking, destinatario,
	estado, estado_carga, pago, items, fotos_entrega,
	nombre_receptor, notas_entrega, motivo_no_entrega, descripcion_no_entrega, origen_no_entrega,
	creado_en, actualizado_en`

// Create persiste una factura nueva.
func (r *FacturaRepo) Create(f *entity.Factura) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	destinatario, pago, items, fotos, err := marshalFactura(f)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO facturas (` + facturaColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err = r.q.Exec(context.Background(), query,
		f.ID, f.CompanyID, nullIfEmpty(f.RutaID), f.CodigoTracking, destinatario,
		f.Estado, f.EstadoCarga, pago, items, fotos,
		nullIfEmpty(f.NombreReceptor), nullIfEmpty(f.NotasEntrega),
		nullIfEmpty(f.MotivoNoEntrega), nullIfEmpty(f.DescripcionNoEntrega), nullIfEmpty(f.OrigenNoEntrega),
		f.CreadoEn, f.ActualizadoEn,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: codigo_tracking repetido: %v", domain.ErrDuplicate, err)
		}
		return fmt.Errorf("insert factura: %w", err)
	}
	return nil
}

// Update persiste el agregado completo de la factura.
func (r *FacturaRepo) Update(f *entity.Factura) error {
	destinatario, pago, items, fotos, err := marshalFactura(f)
	if err != nil {
		return err
	}
	query := `
		UPDATE facturas
		SET ruta_id                = $2,
		    destinatario           = $3,
		    estado                 = $4,
		    estado_carga           = $5,
		    pago                   = $6,
		    items                  = $7,
		    fotos_entrega          = $8,
		    nombre_receptor        = $9,
		    notas_entrega          = $10,
		    motivo_no_entrega      = $11,
		    descripcion_no_entrega = $12,
		    origen_no_entrega      = $13,
		    actualizado_en         = $14
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		f.ID, nullIfEmpty(f.RutaID), destinatario, f.Estado, f.EstadoCarga,
		pago, items, fotos,
		nullIfEmpty(f.NombreReceptor), nullIfEmpty(f.NotasEntrega),
		nullIfEmpty(f.MotivoNoEntrega), nullIfEmpty(f.DescripcionNoEntrega), nullIfEmpty(f.OrigenNoEntrega),
		f.ActualizadoEn,
	)
	if err != nil {
		return fmt.Errorf("update factura: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene una factura de la empresa por ID.
func (r *FacturaRepo) GetByID(companyID, id string) (*entity.Factura, error) {
	query := `SELECT ` + facturaColumns + ` FROM facturas WHERE id = $1 AND company_id = $2`
	f, err := scanFactura(r.q.QueryRow(context.Background(), query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get factura: %w", err)
	}
	return f, nil
}

// ListByRuta devuelve las facturas de una ruta en orden de despacho.
func (r *FacturaRepo) ListByRuta(companyID, rutaID string) ([]*entity.Factura, error) {
	query := `
		SELECT ` + facturaColumns + `
		FROM facturas
		WHERE company_id = $1 AND ruta_id = $2
		ORDER BY creado_en, id`
	rows, err := r.q.Query(context.Background(), query, companyID, rutaID)
	if err != nil {
		return nil, fmt.Errorf("list facturas: %w", err)
	}
	defer rows.Close()
	var out []*entity.Factura
	for rows.Next() {
		f, err := scanFactura(rows)
		if err != nil {
			return nil, fmt.Errorf("scan factura: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetByTracking busca por código de tracking dentro de la empresa.
func (r *FacturaRepo) GetByTracking(companyID, codigo string) (*entity.Factura, error) {
	query := `SELECT ` + facturaColumns + ` FROM facturas WHERE company_id = $1 AND codigo_tracking = $2`
	f, err := scanFactura(r.q.QueryRow(context.Background(), query, companyID, codigo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get factura por tracking: %w", err)
	}
	return f, nil
}

func marshalFactura(f *entity.Factura) (destinatario, pago, items, fotos []byte, err error) {
	if destinatario, err = json.Marshal(f.Destinatario); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal destinatario: %w", err)
	}
	if pago, err = json.Marshal(f.Pago); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal pago: %w", err)
	}
	if items, err = json.Marshal(f.Items); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal items: %w", err)
	}
	if fotos, err = json.Marshal(f.FotosEntrega); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal fotos: %w", err)
	}
	return destinatario, pago, items, fotos, nil
}

func scanFactura(row pgx.Row) (*entity.Factura, error) {
	var (
		f                                     entity.Factura
		rutaID, receptor, notas               *string
		motivo, descripcionMotivo, origen     *string
		destinatarioRaw, pagoRaw, itemsRaw, fotosRaw []byte
	)
	err := row.Scan(
		&f.ID, &f.CompanyID, &rutaID, &f.CodigoTracking, &destinatarioRaw,
		&f.Estado, &f.EstadoCarga, &pagoRaw, &itemsRaw, &fotosRaw,
		&receptor, &notas, &motivo, &descripcionMotivo, &origen,
		&f.CreadoEn, &f.ActualizadoEn,
	)
	if err != nil {
		return nil, err
	}
	f.RutaID = derefStr(rutaID)
	f.NombreReceptor = derefStr(receptor)
	f.NotasEntrega = derefStr(notas)
	f.MotivoNoEntrega = derefStr(motivo)
	f.DescripcionNoEntrega = derefStr(descripcionMotivo)
	f.OrigenNoEntrega = derefStr(origen)
	if len(destinatarioRaw) > 0 {
		if err := json.Unmarshal(destinatarioRaw, &f.Destinatario); err != nil {
			return nil, fmt.Errorf("unmarshal destinatario: %w", err)
		}
	}
	if len(pagoRaw) > 0 {
		if err := json.Unmarshal(pagoRaw, &f.Pago); err != nil {
			return nil, fmt.Errorf("unmarshal pago: %w", err)
		}
	}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &f.Items); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
	}
	if len(fotosRaw) > 0 {
		if err := json.Unmarshal(fotosRaw, &f.FotosEntrega); err != nil {
			return nil, fmt.Errorf("unmarshal fotos: %w", err)
		}
	}
	return &f, nil
}
