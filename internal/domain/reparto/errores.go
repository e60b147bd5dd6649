package reparto

import "fmt"

// FacturaIncompleta describe una factura con items sin cargar al intentar
// cerrar la carga de la ruta.
type FacturaIncompleta struct {
	FacturaID      string `json:"facturaId"`
	CodigoTracking string `json:"codigoTracking"`
	ItemsCargados  int    `json:"itemsCargados"`
	ItemsTotal     int    `json:"itemsTotal"`
}

// FacturasIncompletasError es el fallo estructurado de finalizar carga:
// enumera qué facturas quedaron a medias para que el cliente lo muestre.
type FacturasIncompletasError struct {
	Facturas []FacturaIncompleta
}

func (e *FacturasIncompletasError) Error() string {
	return fmt.Sprintf("carga incompleta: %d facturas con items pendientes", len(e.Facturas))
}

// EntregaIncompletaError es el fallo estructurado de marcar una factura
// como entregada sin cumplir las precondiciones.
type EntregaIncompletaError struct {
	ItemsPendientes int  `json:"itemsPendientes"`
	FaltaEvidencia  bool `json:"faltaEvidencia"`
	FaltaPago       bool `json:"faltaPago"`
}

func (e *EntregaIncompletaError) Error() string {
	return fmt.Sprintf("entrega incompleta: %d items pendientes, falta evidencia=%t, falta pago=%t",
		e.ItemsPendientes, e.FaltaEvidencia, e.FaltaPago)
}
