package optimista_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/entregas-pro/internal/campo/optimista"
	"github.com/tu-usuario/entregas-pro/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// recolector acumula resoluciones de forma segura para los asserts.
type recolector struct {
	mu         sync.Mutex
	resultados []optimista.Resultado
}

func (r *recolector) recibir(res optimista.Resultado) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resultados = append(r.resultados, res)
}

func (r *recolector) todos() []optimista.Resultado {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]optimista.Resultado(nil), r.resultados...)
}

// ──────────────────────────────────────────────────────────────────────────────
// Camino feliz
// ──────────────────────────────────────────────────────────────────────────────

func TestEjecutor_Exito_AplicaYConfirma(t *testing.T) {
	rec := &recolector{}
	ejec := optimista.New(rec.recibir, testLogger())

	valor := "pendiente"
	optimistaTag := false

	err := ejec.Ejecutar(context.Background(), optimista.Accion{
		Clave: optimista.ClaveItem("fac-1", 0),
		AplicarLocal: func() error {
			valor = "cargado"
			optimistaTag = true
			return nil
		},
		LlamarRemoto: func(ctx context.Context) error { return nil },
		Confirmar:    func() { optimistaTag = false },
		Revertir:     func() { valor = "pendiente" },
		MensajeExito: "item cargado",
	})
	require.NoError(t, err)
	ejec.Esperar()

	assert.Equal(t, "cargado", valor, "la mutación local debe mantenerse tras el éxito remoto")
	assert.False(t, optimistaTag, "la marca optimista debe limpiarse tras el éxito")

	resultados := rec.todos()
	require.Len(t, resultados, 1)
	assert.True(t, resultados[0].Exito)
	assert.Equal(t, "item cargado", resultados[0].Mensaje)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rollback exacto
// ──────────────────────────────────────────────────────────────────────────────

// apply → fail → rollback debe ser un no-op sobre el estado observable.
func TestEjecutor_FalloRemoto_RevierteExacto(t *testing.T) {
	rec := &recolector{}
	ejec := optimista.New(rec.recibir, testLogger())

	valor := "pendiente"
	previa := valor

	err := ejec.Ejecutar(context.Background(), optimista.Accion{
		Clave:        optimista.ClaveItem("fac-1", 0),
		AplicarLocal: func() error { valor = "cargado"; return nil },
		LlamarRemoto: func(ctx context.Context) error { return errors.New("timeout") },
		Revertir:     func() { valor = previa },
		MensajeError: "no se pudo confirmar",
	})
	require.NoError(t, err, "el fallo remoto no es un error síncrono del intent")
	ejec.Esperar()

	assert.Equal(t, "pendiente", valor, "el rollback debe restaurar el valor exacto previo")

	resultados := rec.todos()
	require.Len(t, resultados, 1)
	assert.False(t, resultados[0].Exito)
	assert.Equal(t, "no se pudo confirmar", resultados[0].Mensaje)
	assert.Error(t, resultados[0].Err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Serialización por clave
// ──────────────────────────────────────────────────────────────────────────────

func TestEjecutor_SegundoIntentMismaClave_Rechazado(t *testing.T) {
	ejec := optimista.New(nil, testLogger())

	bloqueo := make(chan struct{})
	err := ejec.Ejecutar(context.Background(), optimista.Accion{
		Clave:        optimista.ClaveItem("fac-1", 2),
		AplicarLocal: func() error { return nil },
		LlamarRemoto: func(ctx context.Context) error { <-bloqueo; return nil },
		Revertir:     func() {},
	})
	require.NoError(t, err)
	assert.True(t, ejec.Pendiente(optimista.ClaveItem("fac-1", 2)))

	// Segundo intent sobre el mismo item mientras el primero no resuelve.
	err = ejec.Ejecutar(context.Background(), optimista.Accion{
		Clave:        optimista.ClaveItem("fac-1", 2),
		AplicarLocal: func() error { t.Fatal("no debe aplicarse localmente"); return nil },
		LlamarRemoto: func(ctx context.Context) error { return nil },
		Revertir:     func() {},
	})
	assert.ErrorIs(t, err, optimista.ErrAccionPendiente)

	// Otra clave no se bloquea.
	err = ejec.Ejecutar(context.Background(), optimista.Accion{
		Clave:        optimista.ClaveItem("fac-1", 3),
		AplicarLocal: func() error { return nil },
		LlamarRemoto: func(ctx context.Context) error { return nil },
		Revertir:     func() {},
	})
	assert.NoError(t, err, "claves distintas no se serializan entre sí")

	close(bloqueo)
	ejec.Esperar()
	assert.False(t, ejec.Pendiente(optimista.ClaveItem("fac-1", 2)),
		"la clave debe liberarse al resolver")
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación local
// ──────────────────────────────────────────────────────────────────────────────

func TestEjecutor_FalloLocal_NoLlamaRemotoNiDejaPendiente(t *testing.T) {
	ejec := optimista.New(nil, testLogger())

	falloValidacion := errors.New("descripción requerida")
	remotoLlamado := false

	err := ejec.Ejecutar(context.Background(), optimista.Accion{
		Clave:        optimista.ClaveFactura("fac-1", "dano"),
		AplicarLocal: func() error { return falloValidacion },
		LlamarRemoto: func(ctx context.Context) error { remotoLlamado = true; return nil },
		Revertir:     func() {},
	})
	assert.ErrorIs(t, err, falloValidacion, "el fallo de validación vuelve síncrono")
	ejec.Esperar()

	assert.False(t, remotoLlamado, "una validación fallida nunca llega al gateway")
	assert.False(t, ejec.Pendiente(optimista.ClaveFactura("fac-1", "dano")))
}
