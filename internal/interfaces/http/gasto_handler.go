package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/entregas-pro/internal/application/dto"
	"github.com/tu-usuario/entregas-pro/internal/application/gastos"
)

// GastoHandler maneja las peticiones HTTP de gastos de ruta (protegido).
type GastoHandler struct {
	uc *gastos.UseCase
}

// NewGastoHandler construye el handler.
func NewGastoHandler(uc *gastos.UseCase) *GastoHandler {
	return &GastoHandler{uc: uc}
}

// AgregarGasto godoc
// @Summary      Registrar un gasto operativo contra la ruta
// @Description  NCF y RNC van juntos o ninguno; el comprobante fiscal exige foto.
// @Tags         gastos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "ID de la ruta"
// @Param        body  body  dto.GastoRequest  true  "tipo, monto, descripcion, ncf, rnc, foto"
// @Success      201  {object}  entity.Ruta
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/rutas/{id}/gastos [post]
func (h *GastoHandler) AgregarGasto(c *fiber.Ctx) error {
	actor := gastos.Actor{UserID: GetUserID(c), CompanyID: GetCompanyID(c), Role: GetRole(c)}
	if actor.CompanyID == "" || actor.UserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.GastoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ruta, err := h.uc.AgregarGasto(c.Context(), actor, c.Params("id"), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ruta)
}
