package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/entregas-pro/internal/application/auth"
	"github.com/tu-usuario/entregas-pro/internal/application/carga"
	"github.com/tu-usuario/entregas-pro/internal/application/consulta"
	"github.com/tu-usuario/entregas-pro/internal/application/entrega"
	"github.com/tu-usuario/entregas-pro/internal/application/gastos"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	CargaUC     *carga.UseCase
	EntregaUC   *entrega.UseCase
	GastosUC    *gastos.UseCase
	ConsultaUC  *consulta.UseCase
	Comprobante ComprobanteGenerator
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Consultas (protegido)
	consultaHandler := NewConsultaHandler(deps.ConsultaUC, deps.Comprobante)
	rutas := protected.Group("/rutas")
	rutas.Get("/", consultaHandler.RutasAsignadas)
	rutas.Get("/:id", consultaHandler.DetalleRuta)

	facturas := protected.Group("/facturas")
	facturas.Get("/tracking/:codigo", consultaHandler.BuscarPorTracking)
	facturas.Get("/tracking/:codigo/comprobante", consultaHandler.Comprobante)

	// Fase de carga (cargador o admin)
	cargaHandler := NewCargaHandler(deps.CargaUC)
	cargaGroup := rutas.Group("/:id/carga", RequireRole(RoleCargador))
	cargaGroup.Post("/iniciar", cargaHandler.IniciarCarga)
	cargaGroup.Post("/items", cargaHandler.ConfirmarItem)
	cargaGroup.Post("/danos", cargaHandler.ReportarDano)
	cargaGroup.Post("/finalizar", cargaHandler.FinalizarCarga)

	// Fase de reparto (repartidor o admin)
	entregaHandler := NewEntregaHandler(deps.EntregaUC)
	entregasGroup := rutas.Group("/:id/entregas", RequireRole(RoleRepartidor))
	entregasGroup.Post("/iniciar", entregaHandler.IniciarEntregas)
	entregasGroup.Post("/items", entregaHandler.ConfirmarItem)
	entregasGroup.Post("/danos", entregaHandler.ReportarDano)

	facturasGroup := rutas.Group("/:id/facturas", RequireRole(RoleRepartidor))
	facturasGroup.Post("/:facturaId/fotos", entregaHandler.SubirFotos)
	facturasGroup.Post("/:facturaId/pago", entregaHandler.ConfirmarPago)
	facturasGroup.Post("/:facturaId/entregar", entregaHandler.MarcarEntregada)
	facturasGroup.Post("/:facturaId/no-entrega", entregaHandler.ReportarNoEntrega)

	rutas.Post("/:id/finalizar", RequireRole(RoleRepartidor), entregaHandler.FinalizarRuta)

	// Gastos (cualquier asignado a la ruta)
	gastoHandler := NewGastoHandler(deps.GastosUC)
	rutas.Post("/:id/gastos", RequireRole(RoleCargador, RoleRepartidor), gastoHandler.AgregarGasto)
}
