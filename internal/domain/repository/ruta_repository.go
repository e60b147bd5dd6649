package repository

import "github.com/tu-usuario/entregas-pro/internal/domain/entity"

// RutaRepository define el puerto de persistencia para rutas de entrega.
type RutaRepository interface {
	Create(ruta *entity.Ruta) error
	// Update persiste el agregado completo: estado, contadores, gastos,
	// resumen y marcas de tiempo.
	Update(ruta *entity.Ruta) error
	GetByID(companyID, id string) (*entity.Ruta, error)
	// ListByAsignado devuelve las rutas donde el usuario figura como
	// cargador o repartidor, más recientes primero, paginadas.
	ListByAsignado(companyID, userID string, limit, offset int) ([]*entity.Ruta, error)
}
