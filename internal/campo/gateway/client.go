// Package gateway es el cliente HTTP del cliente de campo contra la API
// de entregas. Traduce las respuestas de error estructuradas de vuelta a
// los errores de dominio para que el resto del cliente no vea HTTP.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tu-usuario/entregas-pro/internal/application/dto"
	"github.com/tu-usuario/entregas-pro/internal/domain"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
	"github.com/tu-usuario/entregas-pro/internal/domain/reparto"
	"github.com/tu-usuario/entregas-pro/pkg/logger"
)

// Client llama a la API del gateway con el token del usuario de campo.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logger.Logger
}

// loggingRoundTrip registra método, URL, estado y duración de cada request.
type loggingRoundTrip struct {
	proxied http.RoundTripper
	log     *logger.Logger
}

func (rt *loggingRoundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.proxied.RoundTrip(req)
	evt := rt.log.Debug()
	if err != nil {
		evt = rt.log.Error().Err(err)
	}
	evt.Str("method", req.Method).
		Str("url", req.URL.String()).
		Dur("duration", time.Since(start))
	if resp != nil {
		evt.Int("status", resp.StatusCode)
	}
	evt.Msg("request al gateway")
	return resp, err
}

// NewClient construye el cliente del gateway.
func NewClient(baseURL, token string, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http: &http.Client{
			Transport: &loggingRoundTrip{proxied: http.DefaultTransport, log: log},
		},
		log: log,
	}
}

// ── Fase de carga ─────────────────────────────────────────────────────────────

// IniciarCarga pasa la ruta a en_carga.
func (c *Client) IniciarCarga(ctx context.Context, rutaID string) (*entity.Ruta, error) {
	var ruta entity.Ruta
	if err := c.hacer(ctx, http.MethodPost, "/api/rutas/"+rutaID+"/carga/iniciar", nil, &ruta); err != nil {
		return nil, err
	}
	return &ruta, nil
}

// ConfirmarItemCargado confirma un item en carga.
func (c *Client) ConfirmarItemCargado(ctx context.Context, rutaID, facturaID string, itemIndex int) (*entity.Factura, error) {
	var factura entity.Factura
	body := dto.ItemRequest{FacturaID: facturaID, ItemIndex: itemIndex}
	if err := c.hacer(ctx, http.MethodPost, "/api/rutas/"+rutaID+"/carga/items", body, &factura); err != nil {
		return nil, err
	}
	return &factura, nil
}

// ReportarDanoCarga reporta un item dañado durante la carga.
func (c *Client) ReportarDanoCarga(ctx context.Context, rutaID string, req dto.DanoRequest) (*entity.Factura, error) {
	var factura entity.Factura
	if err := c.hacer(ctx, http.MethodPost, "/api/rutas/"+rutaID+"/carga/danos", req, &factura); err != nil {
		return nil, err
	}
	return &factura, nil
}

// FinalizarCarga cierra la carga. Un rechazo por carga incompleta vuelve
// como *reparto.FacturasIncompletasError.
func (c *Client) FinalizarCarga(ctx context.Context, rutaID, notas string) (*entity.Ruta, error) {
	var ruta entity.Ruta
	body := dto.FinalizarCargaRequest{Notas: notas}
	if err := c.hacer(ctx, http.MethodPost, "/api/rutas/"+rutaID+"/carga/finalizar", body, &ruta); err != nil {
		return nil, err
	}
	return &ruta, nil
}

// ── Fase de reparto ───────────────────────────────────────────────────────────

// IniciarEntregas saca la ruta a reparto.
func (c *Client) IniciarEntregas(ctx context.Context, rutaID string) (*entity.Ruta, error) {
	var ruta entity.Ruta
	if err := c.hacer(ctx, http.MethodPost, "/api/rutas/"+rutaID+"/entregas/iniciar", nil, &ruta); err != nil {
		return nil, err
	}
	return &ruta, nil
}

// ConfirmarItemEntregado confirma un item entregado.
func (c *Client) ConfirmarItemEntregado(ctx context.Context, rutaID, facturaID string, itemIndex int) (*entity.Factura, error) {
	var factura entity.Factura
	body := dto.ItemRequest{FacturaID: facturaID, ItemIndex: itemIndex}
	if err := c.hacer(ctx, http.MethodPost, "/api/rutas/"+rutaID+"/entregas/items", body, &factura); err != nil {
		return nil, err
	}
	return &factura, nil
}

// ReportarDanoEntrega reporta un item dañado durante el reparto.
func (c *Client) ReportarDanoEntrega(ctx context.Context, rutaID string, req dto.DanoRequest) (*entity.Factura, error) {
	var factura entity.Factura
	if err := c.hacer(ctx, http.MethodPost, "/api/rutas/"+rutaID+"/entregas/danos", req, &factura); err != nil {
		return nil, err
	}
	return &factura, nil
}

// SubirFotos adjunta fotos de evidencia a la factura.
func (c *Client) SubirFotos(ctx context.Context, rutaID, facturaID string, fotos []string) (*entity.Factura, error) {
	var factura entity.Factura
	body := dto.FotosRequest{Fotos: fotos}
	if err := c.hacer(ctx, http.MethodPost, "/api/rutas/"+rutaID+"/facturas/"+facturaID+"/fotos", body, &factura); err != nil {
		return nil, err
	}
	return &factura, nil
}

// ConfirmarPago registra el cobro contra entrega.
func (c *Client) ConfirmarPago(ctx context.Context, rutaID, facturaID string, req dto.PagoRequest) (*dto.PagoResponse, error) {
	var pago dto.PagoResponse
	if err := c.hacer(ctx, http.MethodPost, "/api/rutas/"+rutaID+"/facturas/"+facturaID+"/pago", req, &pago); err != nil {
		return nil, err
	}
	return &pago, nil
}

// MarcarEntregada cierra la factura como entregada. Un rechazo por
// precondiciones vuelve como *reparto.EntregaIncompletaError.
func (c *Client) MarcarEntregada(ctx context.Context, rutaID, facturaID string, req dto.EntregaRequest) (*entity.Factura, error) {
	var factura entity.Factura
	if err := c.hacer(ctx, http.MethodPost, "/api/rutas/"+rutaID+"/facturas/"+facturaID+"/entregar", req, &factura); err != nil {
		return nil, err
	}
	return &factura, nil
}

// ReportarNoEntrega cierra la factura como no entregada.
func (c *Client) ReportarNoEntrega(ctx context.Context, rutaID, facturaID string, req dto.NoEntregaRequest) (*entity.Factura, error) {
	var factura entity.Factura
	if err := c.hacer(ctx, http.MethodPost, "/api/rutas/"+rutaID+"/facturas/"+facturaID+"/no-entrega", req, &factura); err != nil {
		return nil, err
	}
	return &factura, nil
}

// FinalizarRuta cierra la ruta.
func (c *Client) FinalizarRuta(ctx context.Context, rutaID, notas string) (*entity.Ruta, error) {
	var ruta entity.Ruta
	body := dto.FinalizarRutaRequest{Notas: notas}
	if err := c.hacer(ctx, http.MethodPost, "/api/rutas/"+rutaID+"/finalizar", body, &ruta); err != nil {
		return nil, err
	}
	return &ruta, nil
}

// AgregarGasto registra un gasto contra la ruta.
func (c *Client) AgregarGasto(ctx context.Context, rutaID string, req dto.GastoRequest) (*entity.Ruta, error) {
	var ruta entity.Ruta
	if err := c.hacer(ctx, http.MethodPost, "/api/rutas/"+rutaID+"/gastos", req, &ruta); err != nil {
		return nil, err
	}
	return &ruta, nil
}

// ── Lecturas ──────────────────────────────────────────────────────────────────

// RutasAsignadas devuelve las rutas del usuario del token.
func (c *Client) RutasAsignadas(ctx context.Context) ([]*entity.Ruta, error) {
	var out struct {
		Rutas []*entity.Ruta `json:"rutas"`
	}
	if err := c.hacer(ctx, http.MethodGet, "/api/rutas/", nil, &out); err != nil {
		return nil, err
	}
	return out.Rutas, nil
}

// DetalleRuta devuelve la ruta con sus facturas.
func (c *Client) DetalleRuta(ctx context.Context, rutaID string) (*entity.Ruta, []*entity.Factura, error) {
	var out dto.RutaResponse
	if err := c.hacer(ctx, http.MethodGet, "/api/rutas/"+rutaID, nil, &out); err != nil {
		return nil, nil, err
	}
	return out.Ruta, out.Facturas, nil
}

// hacer ejecuta la llamada y decodifica la respuesta o el error.
func (c *Client) hacer(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("serializar request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("crear request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("llamar al gateway: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodificarError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decodificar respuesta: %w", err)
	}
	return nil
}

// decodificarError reconstruye el error de dominio desde el cuerpo. Los
// rechazos estructurados de carga y entrega vuelven con su tipo original
// para que el llamador pueda inspeccionarlos con errors.As.
func decodificarError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var base struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &base); err != nil || base.Code == "" {
		return fmt.Errorf("el gateway respondió %d: %s", resp.StatusCode, raw)
	}

	switch base.Code {
	case "CARGA_INCOMPLETA":
		var detalle dto.CargaIncompletaResponse
		if err := json.Unmarshal(raw, &detalle); err == nil {
			return &reparto.FacturasIncompletasError{Facturas: detalle.FacturasIncompletas}
		}
	case "ENTREGA_INCOMPLETA":
		var detalle dto.EntregaIncompletaResponse
		if err := json.Unmarshal(raw, &detalle); err == nil {
			return &reparto.EntregaIncompletaError{
				ItemsPendientes: detalle.ItemsPendientes,
				FaltaEvidencia:  detalle.FaltaEvidencia,
				FaltaPago:       detalle.FaltaPago,
			}
		}
	case "NOT_FOUND":
		return fmt.Errorf("%w: %s", domain.ErrNotFound, base.Message)
	case "FORBIDDEN":
		return fmt.Errorf("%w: %s", domain.ErrForbidden, base.Message)
	case "UNAUTHORIZED", "MISSING_TOKEN", "INVALID_TOKEN", "MISSING_ROLE":
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, base.Message)
	case "ESTADO_TERMINAL":
		return fmt.Errorf("%w: %s", domain.ErrEstadoTerminal, base.Message)
	case "TRANSICION_INVALIDA":
		return fmt.Errorf("%w: %s", domain.ErrTransicionInvalida, base.Message)
	case "CONFLICT":
		return fmt.Errorf("%w: %s", domain.ErrConflict, base.Message)
	case "MONTO_INSUFICIENTE":
		return fmt.Errorf("%w: %s", domain.ErrMontoInsuficiente, base.Message)
	case "REFERENCIA_REQUERIDA":
		return fmt.Errorf("%w: %s", domain.ErrReferenciaRequerida, base.Message)
	case "EVIDENCIA_REQUERIDA":
		return fmt.Errorf("%w: %s", domain.ErrEvidenciaRequerida, base.Message)
	case "MOTIVO_REQUERIDO":
		return fmt.Errorf("%w: %s", domain.ErrMotivoRequerido, base.Message)
	case "VALIDATION", "INVALID_BODY":
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, base.Message)
	}
	return fmt.Errorf("el gateway respondió %d (%s): %s", resp.StatusCode, base.Code, base.Message)
}
