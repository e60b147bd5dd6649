package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleCargador   = "cargador"
	RoleRepartidor = "repartidor"
)

// User representa un usuario del sistema (pertenece a una Company).
// El rol determina qué fase de la ruta opera: el cargador trabaja en
// almacén y el repartidor en calle; admin puede ambas.
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, cargador, repartidor
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
