package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/tu-usuario/entregas-pro/internal/domain"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
)

func buildGasto() entity.Gasto {
	return entity.Gasto{
		ID:            "gasto-1",
		Tipo:          entity.GastoCombustible,
		Monto:         decimal.NewFromInt(500),
		Descripcion:   "llenado de tanque",
		RegistradoPor: "user-1",
	}
}

func TestGastoValidar_SinDatosFiscales(t *testing.T) {
	g := buildGasto()
	assert.NoError(t, g.Validar(), "un gasto sin NCF ni RNC es válido")
}

func TestGastoValidar_CamposBasicos(t *testing.T) {
	g := buildGasto()
	g.Tipo = ""
	assert.ErrorIs(t, g.Validar(), domain.ErrInvalidInput, "sin tipo debe fallar")

	g = buildGasto()
	g.Monto = decimal.Zero
	assert.ErrorIs(t, g.Validar(), domain.ErrInvalidInput, "monto cero debe fallar")

	g = buildGasto()
	g.Monto = decimal.NewFromInt(-10)
	assert.ErrorIs(t, g.Validar(), domain.ErrInvalidInput, "monto negativo debe fallar")

	g = buildGasto()
	g.Descripcion = ""
	assert.ErrorIs(t, g.Validar(), domain.ErrInvalidInput, "sin descripción debe fallar")
}

func TestGastoValidar_FiscalesVanJuntos(t *testing.T) {
	g := buildGasto()
	g.NCF = "B0100000012"
	assert.ErrorIs(t, g.Validar(), domain.ErrInvalidInput, "NCF sin RNC debe fallar")

	g = buildGasto()
	g.RNC = "131234567"
	assert.ErrorIs(t, g.Validar(), domain.ErrInvalidInput, "RNC sin NCF debe fallar")
}

func TestGastoValidar_FormatoNCF(t *testing.T) {
	casos := []string{"B010000001", "X0100000012", "B01000000AB", "B01000000123"}
	for _, ncf := range casos {
		g := buildGasto()
		g.NCF = ncf
		g.RNC = "131234567"
		g.Foto = "foto-1"
		assert.ErrorIs(t, g.Validar(), domain.ErrInvalidInput, "NCF %q debe rechazarse", ncf)
	}
}

func TestGastoValidar_FormatoRNC(t *testing.T) {
	g := buildGasto()
	g.NCF = "B0100000012"
	g.Foto = "foto-1"

	for _, rnc := range []string{"131234567", "00113123456"} {
		g.RNC = rnc
		assert.NoError(t, g.Validar(), "RNC de %d dígitos debe aceptarse", len(rnc))
	}
	for _, rnc := range []string{"12345678", "1234567890", "13123456A"} {
		g.RNC = rnc
		assert.ErrorIs(t, g.Validar(), domain.ErrInvalidInput, "RNC %q debe rechazarse", rnc)
	}
}

func TestGastoValidar_FiscalExigeFoto(t *testing.T) {
	g := buildGasto()
	g.NCF = "B0100000012"
	g.RNC = "131234567"
	assert.ErrorIs(t, g.Validar(), domain.ErrInvalidInput,
		"con datos fiscales la foto del comprobante es obligatoria")

	g.Foto = "foto-1"
	assert.NoError(t, g.Validar())
}
