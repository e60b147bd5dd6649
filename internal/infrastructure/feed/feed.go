// Package feed implementa el canal de cambios en tiempo real sobre Redis
// pub/sub. El gateway publica cada documento que muta; los clientes de
// campo se suscriben al canal de su empresa y reconcilian su estado local.
package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tipos de cambio que viajan por el feed.
const (
	CambioAgregado   = "added"
	CambioModificado = "modified"
	CambioEliminado  = "removed"
)

// Colecciones publicadas.
const (
	ColeccionRutas    = "rutas"
	ColeccionFacturas = "facturas"
)

// Cambio es el mensaje que viaja por el canal: tipo de cambio, colección
// y el documento completo, con su marca de actualización para el filtro
// de frescura del cliente.
type Cambio struct {
	Tipo          string          `json:"tipo"`
	Coleccion     string          `json:"coleccion"`
	DocumentoID   string          `json:"documentoId"`
	Documento     json.RawMessage `json:"documento"`
	ActualizadoEn time.Time       `json:"actualizadoEn"`
}

// Canal devuelve el nombre del canal pub/sub de una empresa.
func Canal(companyID string) string {
	return "cambios:" + companyID
}

// NewClient crea el cliente Redis desde la URL de configuración.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
