package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una ruta de entrega.
type EstadoRuta string

const (
	RutaAsignada   EstadoRuta = "asignada"   // creada, con cargador asignado
	RutaEnCarga    EstadoRuta = "en_carga"   // el cargador inició la carga
	RutaCargada    EstadoRuta = "cargada"    // carga cerrada, lista para salir
	RutaEnCurso    EstadoRuta = "en_curso"   // el repartidor salió a reparto
	RutaFinalizada EstadoRuta = "finalizada" // terminal
)

// Terminal indica si la ruta ya no admite transiciones.
func (e EstadoRuta) Terminal() bool {
	return e == RutaFinalizada
}

// ResumenEntregas es el cierre contable de una ruta finalizada.
type ResumenEntregas struct {
	Entregadas   int `json:"entregadas"`
	NoEntregadas int `json:"noEntregadas"`
	Forzadas     int `json:"forzadas"`
}

// Ruta es el agregado raíz de una jornada de reparto.
// Los contadores de items se recalculan siempre desde el árbol de facturas,
// nunca se incrementan de forma puntual.
type Ruta struct {
	ID           string     `json:"id"`
	CompanyID    string     `json:"companyId"`
	Nombre       string     `json:"nombre"`
	Zona         string     `json:"zona,omitempty"`
	Estado       EstadoRuta `json:"estado"`
	CargadorID   string     `json:"cargadorId,omitempty"`
	RepartidorID string     `json:"repartidorId,omitempty"`

	FacturaIDs []string `json:"facturaIds"`

	ItemsTotalRuta    int `json:"itemsTotalRuta"`
	ItemsCargadosRuta int `json:"itemsCargadosRuta"`

	Gastos        []Gasto         `json:"gastos,omitempty"`
	MontoAsignado decimal.Decimal `json:"montoAsignado"`
	TotalGastos   decimal.Decimal `json:"totalGastos"`
	Balance       decimal.Decimal `json:"balance"`

	NotasCarga  string `json:"notasCarga,omitempty"`
	NotasCierre string `json:"notasCierre,omitempty"`

	CierreForzado bool             `json:"cierreForzado"`
	Resumen       *ResumenEntregas `json:"resumenEntregas,omitempty"`

	CargaIniciadaEn   *time.Time `json:"cargaIniciadaEn,omitempty"`
	CargaFinalizadaEn *time.Time `json:"cargaFinalizadaEn,omitempty"`
	EntregasIniciadas *time.Time `json:"entregasIniciadasEn,omitempty"`
	FinalizadaEn      *time.Time `json:"finalizadaEn,omitempty"`
	CreadoEn          time.Time  `json:"creadoEn"`
	ActualizadoEn     time.Time  `json:"actualizadoEn"`
}

// RecalcularGastos recalcula el total de gastos y el balance desde la lista.
func (r *Ruta) RecalcularGastos() {
	total := decimal.Zero
	for _, g := range r.Gastos {
		total = total.Add(g.Monto)
	}
	r.TotalGastos = total
	r.Balance = r.MontoAsignado.Sub(total)
}
