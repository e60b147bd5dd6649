package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/entregas-pro/internal/domain"
)

// Tipos de gasto operativo de una ruta.
const (
	GastoCombustible = "combustible"
	GastoPeaje       = "peaje"
	GastoComida      = "comida"
	GastoReparacion  = "reparacion"
	GastoOtro        = "otro"
)

// Gasto es un gasto operativo registrado contra el monto asignado de la ruta.
// Los campos fiscales NCF y RNC van juntos o no van; si van, la foto del
// comprobante es obligatoria.
type Gasto struct {
	ID            string          `json:"id"`
	Tipo          string          `json:"tipo"`
	Monto         decimal.Decimal `json:"monto"`
	Descripcion   string          `json:"descripcion"`
	NCF           string          `json:"ncf,omitempty"`
	RNC           string          `json:"rnc,omitempty"`
	Foto          string          `json:"foto,omitempty"`
	Fecha         time.Time       `json:"fecha"`
	RegistradoPor string          `json:"registradoPor"`
}

// Validar comprueba las reglas de forma del gasto antes de registrarlo.
func (g Gasto) Validar() error {
	if g.Tipo == "" {
		return fmt.Errorf("%w: tipo de gasto requerido", domain.ErrInvalidInput)
	}
	if !g.Monto.IsPositive() {
		return fmt.Errorf("%w: el monto debe ser mayor que cero", domain.ErrInvalidInput)
	}
	if g.Descripcion == "" {
		return fmt.Errorf("%w: descripción requerida", domain.ErrInvalidInput)
	}

	tieneNCF := g.NCF != ""
	tieneRNC := g.RNC != ""
	if tieneNCF != tieneRNC {
		return fmt.Errorf("%w: NCF y RNC deben registrarse juntos", domain.ErrInvalidInput)
	}
	if tieneNCF {
		if err := validarNCF(g.NCF); err != nil {
			return err
		}
		if err := validarRNC(g.RNC); err != nil {
			return err
		}
		if g.Foto == "" {
			return fmt.Errorf("%w: foto del comprobante requerida con datos fiscales", domain.ErrInvalidInput)
		}
	}
	return nil
}

// validarNCF valida el Número de Comprobante Fiscal: letra B seguida de 10 dígitos.
func validarNCF(ncf string) error {
	if len(ncf) != 11 || ncf[0] != 'B' {
		return fmt.Errorf("%w: NCF inválido, formato esperado B##########", domain.ErrInvalidInput)
	}
	for _, c := range ncf[1:] {
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: NCF inválido, formato esperado B##########", domain.ErrInvalidInput)
		}
	}
	return nil
}

// validarRNC valida el Registro Nacional de Contribuyente: 9 u 11 dígitos.
func validarRNC(rnc string) error {
	if len(rnc) != 9 && len(rnc) != 11 {
		return fmt.Errorf("%w: RNC inválido, se esperan 9 u 11 dígitos", domain.ErrInvalidInput)
	}
	for _, c := range rnc {
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: RNC inválido, se esperan 9 u 11 dígitos", domain.ErrInvalidInput)
		}
	}
	return nil
}
