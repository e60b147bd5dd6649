package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/entregas-pro/internal/application/auth"
	"github.com/tu-usuario/entregas-pro/internal/application/carga"
	"github.com/tu-usuario/entregas-pro/internal/application/consulta"
	"github.com/tu-usuario/entregas-pro/internal/application/entrega"
	"github.com/tu-usuario/entregas-pro/internal/application/gastos"
	"github.com/tu-usuario/entregas-pro/internal/infrastructure/feed"
	infrapdf "github.com/tu-usuario/entregas-pro/internal/infrastructure/pdf"
	"github.com/tu-usuario/entregas-pro/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/entregas-pro/internal/interfaces/http"
	"github.com/tu-usuario/entregas-pro/pkg/config"
	"github.com/tu-usuario/entregas-pro/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:      cfg.App.Env,
		Level:    "info",
		Servicio: "api",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	redisClient, err := feed.NewClient(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer func() { _ = redisClient.Close() }()

	rutaRepo := postgres.NewRutaRepository(pool)
	facturaRepo := postgres.NewFacturaRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	publisher := feed.NewPublisher(redisClient)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	cargaUC := carga.New(txRunner, publisher, log)
	entregaUC := entrega.New(txRunner, publisher, log)
	gastosUC := gastos.New(rutaRepo, publisher, log)
	consultaUC := consulta.New(rutaRepo, facturaRepo)
	comprobante := infrapdf.NewComprobanteGenerator()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Entregas Pro API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		CargaUC:     cargaUC,
		EntregaUC:   entregaUC,
		GastosUC:    gastosUC,
		ConsultaUC:  consultaUC,
		Comprobante: comprobante,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
