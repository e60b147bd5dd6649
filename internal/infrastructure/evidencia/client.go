// Package evidencia es el cliente del servicio externo de fotos. El
// servicio procesa la imagen y devuelve tres referencias opacas; aquí no
// se interpreta su contenido, solo se exige que no vengan vacías.
package evidencia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tu-usuario/entregas-pro/pkg/config"
	"github.com/tu-usuario/entregas-pro/pkg/logger"
)

// Fotos son las tres variantes que devuelve el servicio por cada imagen.
type Fotos struct {
	Thumbnail string `json:"thumbnail"`
	Preview   string `json:"preview"`
	Original  string `json:"original"`
}

// Client sube imágenes de evidencia al servicio externo.
type Client struct {
	baseURL string
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
	evt.Msg("request al servicio de evidencia")
	return resp, err
}

// NewClient construye el cliente con timeout y logging de requests.
func NewClient(cfg config.EvidenciaConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Transport: &loggingRoundTrip{proxied: http.DefaultTransport, log: log},
			Timeout:   cfg.Timeout,
		},
		log: log,
	}
}

// Subir envía la imagen y devuelve las tres referencias. Un fallo del
// servicio es un error de transporte: el caller decide si reintenta.
func (c *Client) Subir(ctx context.Context, imagen []byte, contentType string) (*Fotos, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/fotos", bytes.NewReader(imagen))
	if err != nil {
		return nil, fmt.Errorf("crear request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("subir evidencia: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("servicio de evidencia respondió %d: %s", resp.StatusCode, body)
	}

	var fotos Fotos
	if err := json.NewDecoder(resp.Body).Decode(&fotos); err != nil {
		return nil, fmt.Errorf("decodificar respuesta: %w", err)
	}
	if fotos.Thumbnail == "" || fotos.Preview == "" || fotos.Original == "" {
		return nil, fmt.Errorf("respuesta incompleta del servicio de evidencia")
	}
	return &fotos, nil
}
