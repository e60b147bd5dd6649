package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/entregas-pro/internal/application/auth"
	"github.com/tu-usuario/entregas-pro/internal/application/carga"
	"github.com/tu-usuario/entregas-pro/internal/application/consulta"
	"github.com/tu-usuario/entregas-pro/internal/application/entrega"
	"github.com/tu-usuario/entregas-pro/internal/application/gastos"
	"github.com/tu-usuario/entregas-pro/internal/domain"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
	"github.com/tu-usuario/entregas-pro/internal/domain/repository"
	apphttp "github.com/tu-usuario/entregas-pro/internal/interfaces/http"
	pkgjwt "github.com/tu-usuario/entregas-pro/pkg/jwt"
	"github.com/tu-usuario/entregas-pro/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeRutaRepo struct {
	rutas map[string]*entity.Ruta
}

func (f *fakeRutaRepo) Create(r *entity.Ruta) error {
	f.rutas[r.ID] = r
	return nil
}

func (f *fakeRutaRepo) Update(r *entity.Ruta) error {
	if _, ok := f.rutas[r.ID]; !ok {
		return domain.ErrNotFound
	}
	f.rutas[r.ID] = r
	return nil
}

func (f *fakeRutaRepo) GetByID(companyID, id string) (*entity.Ruta, error) {
	r, ok := f.rutas[id]
	if !ok || r.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRutaRepo) ListByAsignado(companyID, userID string, limit, offset int) ([]*entity.Ruta, error) {
	var out []*entity.Ruta
	for _, r := range f.rutas {
		if r.CompanyID == companyID && (r.CargadorID == userID || r.RepartidorID == userID) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeFacturaRepo struct {
	facturas map[string]*entity.Factura
}

func (f *fakeFacturaRepo) Create(fa *entity.Factura) error {
	f.facturas[fa.ID] = fa
	return nil
}

func (f *fakeFacturaRepo) Update(fa *entity.Factura) error {
	if _, ok := f.facturas[fa.ID]; !ok {
		return domain.ErrNotFound
	}
	f.facturas[fa.ID] = fa
	return nil
}

func (f *fakeFacturaRepo) GetByID(companyID, id string) (*entity.Factura, error) {
	fa, ok := f.facturas[id]
	if !ok || fa.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	cp := *fa
	return &cp, nil
}

func (f *fakeFacturaRepo) ListByRuta(companyID, rutaID string) ([]*entity.Factura, error) {
	var out []*entity.Factura
	for _, fa := range f.facturas {
		if fa.CompanyID == companyID && fa.RutaID == rutaID {
			cp := *fa
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeFacturaRepo) GetByTracking(companyID, codigo string) (*entity.Factura, error) {
	for _, fa := range f.facturas {
		if fa.CompanyID == companyID && fa.CodigoTracking == codigo {
			cp := *fa
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeTxRunner struct {
	rutaRepo    *fakeRutaRepo
	facturaRepo *fakeFacturaRepo
}

func (f *fakeTxRunner) Run(ctx context.Context, fn func(repository.RutaRepository, repository.FacturaRepository) error) error {
	return fn(f.rutaRepo, f.facturaRepo)
}

type fakeFeed struct{}

func (fakeFeed) PublicarRuta(ctx context.Context, r *entity.Ruta) error        { return nil }
func (fakeFeed) PublicarFactura(ctx context.Context, fa *entity.Factura) error { return nil }

type fakeUserRepo struct {
	users map[string]*entity.User
}

func (f *fakeUserRepo) Create(u *entity.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(id string) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmailAndCompany(email, companyID string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.CompanyID == companyID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByEmail(email string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeComprobante struct{}

func (fakeComprobante) GenerarComprobante(f *entity.Factura) ([]byte, error) {
	return []byte("%PDF-1.4 comprobante " + f.CodigoTracking), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: app completa con router y un escenario sembrado
// ──────────────────────────────────────────────────────────────────────────────

const (
	testCargadorID   = "00000000-0000-0000-0000-00000000000a"
	testRepartidorID = "00000000-0000-0000-0000-00000000000b"
)

type testEnv struct {
	app      *fiber.App
	rutas    *fakeRutaRepo
	facturas *fakeFacturaRepo
}

func buildEnv(t *testing.T) *testEnv {
	t.Helper()
	rutaRepo := &fakeRutaRepo{rutas: map[string]*entity.Ruta{}}
	facturaRepo := &fakeFacturaRepo{facturas: map[string]*entity.Factura{}}
	userRepo := &fakeUserRepo{users: map[string]*entity.User{}}
	tx := &fakeTxRunner{rutaRepo: rutaRepo, facturaRepo: facturaRepo}
	log := logger.New(logger.Config{Env: "production", Level: "error"})

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     testJWTSecret,
		ExpMinutes: testExpMin,
		Issuer:     testIssuer,
	})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:      authUC,
		CargaUC:     carga.New(tx, fakeFeed{}, log),
		EntregaUC:   entrega.New(tx, fakeFeed{}, log),
		GastosUC:    gastos.New(rutaRepo, fakeFeed{}, log),
		ConsultaUC:  consulta.New(rutaRepo, facturaRepo),
		Comprobante: fakeComprobante{},
		JWTSecret:   testJWTSecret,
	})
	return &testEnv{app: app, rutas: rutaRepo, facturas: facturaRepo}
}

func (e *testEnv) seedRuta(estado entity.EstadoRuta) {
	ahora := time.Now()
	e.rutas.rutas["ruta-1"] = &entity.Ruta{
		ID:            "ruta-1",
		CompanyID:     testCompanyID,
		Nombre:        "Zona Norte AM",
		Estado:        estado,
		CargadorID:    testCargadorID,
		RepartidorID:  testRepartidorID,
		FacturaIDs:    []string{"fac-1"},
		MontoAsignado: decimal.NewFromInt(500),
		CreadoEn:      ahora,
		ActualizadoEn: ahora,
	}
	facEstado := entity.FacturaAsignada
	if estado == entity.RutaEnCurso {
		facEstado = entity.FacturaEnRuta
	}
	itemEstado := entity.ItemPendiente
	if estado == entity.RutaEnCurso {
		itemEstado = entity.ItemCargado
	}
	e.facturas.facturas["fac-1"] = &entity.Factura{
		ID:             "fac-1",
		CompanyID:      testCompanyID,
		RutaID:         "ruta-1",
		CodigoTracking: "TRK-0001",
		Destinatario:   entity.Destinatario{Nombre: "Colmado La Esquina", Direccion: "Calle 4 #12"},
		Estado:         facEstado,
		EstadoCarga:    entity.CargaPendiente,
		Pago: entity.Pago{
			Estado:         entity.PagoPendiente,
			Total:          decimal.NewFromInt(1200),
			MontoPendiente: decimal.NewFromInt(1200),
		},
		Items: []entity.Item{
			{Descripcion: "Caja de refrescos", Cantidad: 2, Estado: itemEstado},
			{Descripcion: "Saco de arroz", Cantidad: 1, Estado: itemEstado},
		},
		CreadoEn:      ahora,
		ActualizadoEn: ahora,
	}
}

func (e *testEnv) do(t *testing.T, method, path, role string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	userID := testCargadorID
	if role == "repartidor" {
		userID = testRepartidorID
	}
	tok, err := pkgjwt.Generate(testJWTSecret, userID, testCompanyID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Fase de carga
// ──────────────────────────────────────────────────────────────────────────────

func TestCargaHandler_IniciarCarga_OK(t *testing.T) {
	env := buildEnv(t)
	env.seedRuta(entity.RutaAsignada)

	resp := env.do(t, http.MethodPost, "/api/rutas/ruta-1/carga/iniciar", "cargador", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ruta entity.Ruta
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ruta))
	assert.Equal(t, entity.RutaEnCarga, ruta.Estado, "la ruta debe quedar en en_carga")
}

func TestCargaHandler_IniciarCarga_RepartidorBloqueado(t *testing.T) {
	env := buildEnv(t)
	env.seedRuta(entity.RutaAsignada)

	resp := env.do(t, http.MethodPost, "/api/rutas/ruta-1/carga/iniciar", "repartidor", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode,
		"el grupo de carga exige rol cargador")
}

func TestCargaHandler_FinalizarCarga_Incompleta_DevuelveDetalle(t *testing.T) {
	env := buildEnv(t)
	env.seedRuta(entity.RutaEnCarga)

	resp := env.do(t, http.MethodPost, "/api/rutas/ruta-1/carga/finalizar", "cargador",
		map[string]string{"notas": "salida 8am"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Code                 string `json:"code"`
		RequiereConfirmacion bool   `json:"requiereConfirmacion"`
		FacturasIncompletas  []struct {
			FacturaID     string `json:"facturaId"`
			ItemsCargados int    `json:"itemsCargados"`
			ItemsTotal    int    `json:"itemsTotal"`
		} `json:"facturasIncompletas"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "CARGA_INCOMPLETA", body.Code)
	assert.True(t, body.RequiereConfirmacion)
	require.Len(t, body.FacturasIncompletas, 1)
	assert.Equal(t, "fac-1", body.FacturasIncompletas[0].FacturaID)
	assert.Equal(t, 0, body.FacturasIncompletas[0].ItemsCargados)
	assert.Equal(t, 2, body.FacturasIncompletas[0].ItemsTotal)
}

func TestCargaHandler_ConfirmarItem_ActualizaContadores(t *testing.T) {
	env := buildEnv(t)
	env.seedRuta(entity.RutaEnCarga)

	resp := env.do(t, http.MethodPost, "/api/rutas/ruta-1/carga/items", "cargador",
		map[string]any{"facturaId": "fac-1", "itemIndex": 0})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, env.rutas.rutas["ruta-1"].ItemsCargadosRuta,
		"el contador de la ruta debe recalcularse tras confirmar el item")
}

// ──────────────────────────────────────────────────────────────────────────────
// Fase de reparto
// ──────────────────────────────────────────────────────────────────────────────

func TestEntregaHandler_MarcarEntregada_Incompleta_DevuelveDetalle(t *testing.T) {
	env := buildEnv(t)
	env.seedRuta(entity.RutaEnCurso)

	resp := env.do(t, http.MethodPost, "/api/rutas/ruta-1/facturas/fac-1/entregar", "repartidor",
		map[string]string{"nombreReceptor": "Ana"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Code            string `json:"code"`
		ItemsPendientes int    `json:"itemsPendientes"`
		FaltaEvidencia  bool   `json:"faltaEvidencia"`
		FaltaPago       bool   `json:"faltaPago"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ENTREGA_INCOMPLETA", body.Code)
	assert.Equal(t, 2, body.ItemsPendientes)
	assert.True(t, body.FaltaEvidencia)
	assert.True(t, body.FaltaPago)
}

func TestEntregaHandler_ConfirmarPago_EfectivoDevuelveCambio(t *testing.T) {
	env := buildEnv(t)
	env.seedRuta(entity.RutaEnCurso)

	resp := env.do(t, http.MethodPost, "/api/rutas/ruta-1/facturas/fac-1/pago", "repartidor",
		map[string]string{"metodoPago": "efectivo", "montoRecibido": "1500"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Estado string `json:"estado"`
		Cambio string `json:"cambio"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "pagada", body.Estado)
	assert.Equal(t, "300.00", body.Cambio)
}

func TestEntregaHandler_ConfirmarPago_MontoInsuficiente(t *testing.T) {
	env := buildEnv(t)
	env.seedRuta(entity.RutaEnCurso)

	resp := env.do(t, http.MethodPost, "/api/rutas/ruta-1/facturas/fac-1/pago", "repartidor",
		map[string]string{"metodoPago": "efectivo", "montoRecibido": "1000"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "MONTO_INSUFICIENTE", body.Code)
}

func TestEntregaHandler_RutaInexistente_404(t *testing.T) {
	env := buildEnv(t)

	resp := env.do(t, http.MethodPost, "/api/rutas/no-existe/entregas/iniciar", "repartidor", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Gastos y consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestGastoHandler_AgregarGasto_RecalculaBalance(t *testing.T) {
	env := buildEnv(t)
	env.seedRuta(entity.RutaEnCurso)

	resp := env.do(t, http.MethodPost, "/api/rutas/ruta-1/gastos", "repartidor",
		map[string]string{"tipo": "combustible", "monto": "180.50", "descripcion": "gasolina"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var ruta entity.Ruta
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ruta))
	require.Len(t, ruta.Gastos, 1)
	assert.True(t, ruta.TotalGastos.Equal(decimal.RequireFromString("180.50")))
	assert.True(t, ruta.Balance.Equal(decimal.RequireFromString("319.50")),
		"balance = monto asignado - total de gastos")
}

func TestGastoHandler_GastoFiscalSinFoto_400(t *testing.T) {
	env := buildEnv(t)
	env.seedRuta(entity.RutaEnCurso)

	resp := env.do(t, http.MethodPost, "/api/rutas/ruta-1/gastos", "repartidor",
		map[string]string{
			"tipo": "peaje", "monto": "100", "descripcion": "peaje autopista",
			"ncf": "B0100000001", "rnc": "131246789",
		})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode,
		"un gasto con comprobante fiscal exige foto")
}

func TestConsultaHandler_DetalleRuta_IncluyeFacturas(t *testing.T) {
	env := buildEnv(t)
	env.seedRuta(entity.RutaAsignada)

	resp := env.do(t, http.MethodGet, "/api/rutas/ruta-1", "cargador", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Ruta     *entity.Ruta      `json:"ruta"`
		Facturas []*entity.Factura `json:"facturas"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Ruta)
	assert.Equal(t, "ruta-1", body.Ruta.ID)
	require.Len(t, body.Facturas, 1)
	assert.Equal(t, "TRK-0001", body.Facturas[0].CodigoTracking)
}

func TestConsultaHandler_Comprobante_SoloFacturaEntregada(t *testing.T) {
	env := buildEnv(t)
	env.seedRuta(entity.RutaEnCurso)

	resp := env.do(t, http.MethodGet, "/api/facturas/tracking/TRK-0001/comprobante", "repartidor", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode,
		"no debe generarse comprobante de una factura sin entregar")

	env.facturas.facturas["fac-1"].Estado = entity.FacturaEntregada
	resp2 := env.do(t, http.MethodGet, "/api/facturas/tracking/TRK-0001/comprobante", "repartidor", nil)
	defer resp2.Body.Close()

	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, "application/pdf", resp2.Header.Get("Content-Type"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth: registro y login
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthHandler_RegisterYLogin(t *testing.T) {
	env := buildEnv(t)

	registro := map[string]any{
		"email":      "pedro@acme.do",
		"password":   "secreto123",
		"company_id": testCompanyID,
		"name":       "Pedro",
		"role":       "repartidor",
	}
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(registro))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	login := map[string]any{"email": "pedro@acme.do", "password": "secreto123"}
	buf.Reset()
	require.NoError(t, json.NewEncoder(&buf).Encode(login))
	req2 := httptest.NewRequest(http.MethodPost, "/api/auth/login", &buf)
	req2.Header.Set("Content-Type", "application/json")
	resp2, err := env.app.Test(req2, -1)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var out struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&out))
	require.NotEmpty(t, out.Token, "el login debe emitir un token")
	assert.Equal(t, "repartidor", out.User.Role)

	// el token emitido lleva el rol y sirve contra endpoints protegidos
	_, _, role, err := pkgjwt.Parse(testJWTSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "repartidor", role)
}

func TestAuthHandler_LoginCredencialesInvalidas(t *testing.T) {
	env := buildEnv(t)

	login := map[string]any{"email": "nadie@acme.do", "password": "loquesea1"}
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(login))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHandler_RegisterEmailDuplicado(t *testing.T) {
	env := buildEnv(t)

	registro := map[string]any{
		"email":      "ana@acme.do",
		"password":   "secreto123",
		"company_id": testCompanyID,
	}
	enviar := func() *http.Response {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(registro))
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", &buf)
		req.Header.Set("Content-Type", "application/json")
		resp, err := env.app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp1 := enviar()
	defer resp1.Body.Close()
	assert.Equal(t, http.StatusCreated, resp1.StatusCode)

	resp2 := enviar()
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
}
