// Binario del cliente de campo: una terminal mínima que abre una sesión
// sobre una ruta, escucha el feed de cambios y trata cada línea de stdin
// como un escaneo de código de barras.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tu-usuario/entregas-pro/internal/campo/gateway"
	"github.com/tu-usuario/entregas-pro/internal/campo/optimista"
	"github.com/tu-usuario/entregas-pro/internal/campo/sesion"
	"github.com/tu-usuario/entregas-pro/internal/infrastructure/evidencia"
	"github.com/tu-usuario/entregas-pro/internal/infrastructure/feed"
	"github.com/tu-usuario/entregas-pro/pkg/config"
	"github.com/tu-usuario/entregas-pro/pkg/logger"
)

func main() {
	var (
		rutaID    = flag.String("ruta", "", "ID de la ruta activa")
		companyID = flag.String("empresa", "", "ID de la empresa del token")
		token     = flag.String("token", os.Getenv("CAMPO_TOKEN"), "token JWT del usuario de campo")
	)
	flag.Parse()
	if *rutaID == "" || *companyID == "" || *token == "" {
		fmt.Fprintln(os.Stderr, "uso: campo -ruta <id> -empresa <id> -token <jwt>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "warn", Servicio: "campo"})

	redisClient, err := feed.NewClient(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer func() { _ = redisClient.Close() }()

	gw := gateway.NewClient(cfg.Campo.GatewayURL, *token, log)
	fotos := evidencia.NewClient(cfg.Evidencia, log)
	sub := feed.NewSubscriber(redisClient, log)

	s := sesion.New(gw, sub, sesion.Opciones{
		CompanyID:       *companyID,
		RutaID:          *rutaID,
		VentanaFrescura: cfg.Campo.VentanaFrescura,
		MinCaracteres:   cfg.Campo.MinCaracteres,
		Notificar: func(m string) {
			fmt.Println("»", m)
		},
		Resolucion: func(r optimista.Resultado) {
			if r.Exito {
				fmt.Println("✓", r.Mensaje)
			} else {
				fmt.Println("✗", r.Mensaje)
			}
		},
	}, log)

	ctx, cancelar := context.WithCancel(context.Background())
	defer cancelar()

	if err := s.Iniciar(ctx); err != nil {
		log.Fatal().Err(err).Msg("iniciar la sesión de campo")
	}
	fmt.Printf("sesión abierta sobre la ruta %s; escanea códigos (Ctrl-D para salir)\n", *rutaID)
	fmt.Println("comandos: /foto <facturaId> <archivo> adjunta evidencia de entrega")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	lineas := make(chan string)
	go func() {
		defer close(lineas)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lineas <- sc.Text()
		}
	}()

	for {
		select {
		case <-quit:
			cerrar(s)
			return
		case linea, ok := <-lineas:
			if !ok {
				cerrar(s)
				return
			}
			if strings.HasPrefix(linea, "/foto ") {
				subirFoto(ctx, gw, fotos, *rutaID, linea)
				continue
			}
			for _, r := range linea {
				s.Tecla(r)
			}
			if err := s.ConfirmarEscaneo(ctx); err != nil {
				switch {
				case errors.Is(err, sesion.ErrCodigoNoEncontrado):
					fmt.Println("✗ código no encontrado:", linea)
				case errors.Is(err, optimista.ErrAccionPendiente):
					fmt.Println("… ese item ya tiene una acción en curso")
				default:
					fmt.Println("✗", err)
				}
			}
		}
	}
}

// subirFoto procesa "/foto <facturaId> <archivo>": sube la imagen al
// servicio de evidencia y adjunta las referencias a la factura.
func subirFoto(ctx context.Context, gw *gateway.Client, cliente *evidencia.Client, rutaID, linea string) {
	campos := strings.Fields(linea)
	if len(campos) != 3 {
		fmt.Println("uso: /foto <facturaId> <archivo>")
		return
	}
	facturaID, archivo := campos[1], campos[2]

	imagen, err := os.ReadFile(archivo)
	if err != nil {
		fmt.Println("✗ leer archivo:", err)
		return
	}
	refs, err := cliente.Subir(ctx, imagen, tipoImagen(archivo))
	if err != nil {
		fmt.Println("✗ subir evidencia:", err)
		return
	}
	if _, err := gw.SubirFotos(ctx, rutaID, facturaID, []string{refs.Original}); err != nil {
		fmt.Println("✗ adjuntar fotos:", err)
		return
	}
	fmt.Println("✓ evidencia adjuntada a", facturaID)
}

func tipoImagen(archivo string) string {
	if strings.HasSuffix(archivo, ".png") {
		return "image/png"
	}
	return "image/jpeg"
}

func cerrar(s *sesion.Sesion) {
	fmt.Println("cerrando sesión...")
	hecho := make(chan struct{})
	go func() {
		s.Cerrar()
		close(hecho)
	}()
	select {
	case <-hecho:
	case <-time.After(5 * time.Second):
	}
}
