package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/entregas-pro/internal/application/carga"
	"github.com/tu-usuario/entregas-pro/internal/application/dto"
)

// CargaHandler maneja las peticiones HTTP de la fase de carga (protegido).
type CargaHandler struct {
	uc *carga.UseCase
}

// NewCargaHandler construye el handler.
func NewCargaHandler(uc *carga.UseCase) *CargaHandler {
	return &CargaHandler{uc: uc}
}

func (h *CargaHandler) actor(c *fiber.Ctx) carga.Actor {
	return carga.Actor{UserID: GetUserID(c), CompanyID: GetCompanyID(c), Role: GetRole(c)}
}

// IniciarCarga godoc
// @Summary      Iniciar la carga de una ruta
// @Tags         carga
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la ruta"
// @Success      200  {object}  entity.Ruta
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/rutas/{id}/carga/iniciar [post]
func (h *CargaHandler) IniciarCarga(c *fiber.Ctx) error {
	actor := h.actor(c)
	if actor.CompanyID == "" || actor.UserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	ruta, err := h.uc.IniciarCarga(c.Context(), actor, c.Params("id"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(ruta)
}

// ConfirmarItem godoc
// @Summary      Confirmar un item como cargado
// @Tags         carga
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string           true  "ID de la ruta"
// @Param        body  body  dto.ItemRequest  true  "facturaId, itemIndex"
// @Success      200  {object}  entity.Factura
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/rutas/{id}/carga/items [post]
func (h *CargaHandler) ConfirmarItem(c *fiber.Ctx) error {
	actor := h.actor(c)
	if actor.CompanyID == "" || actor.UserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	factura, err := h.uc.ConfirmarItemCargado(c.Context(), actor, c.Params("id"), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(factura)
}

// ReportarDano godoc
// @Summary      Reportar un item dañado durante la carga
// @Tags         carga
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string           true  "ID de la ruta"
// @Param        body  body  dto.DanoRequest  true  "facturaId, itemIndex, descripcion, fotos"
// @Success      200  {object}  entity.Factura
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/rutas/{id}/carga/danos [post]
func (h *CargaHandler) ReportarDano(c *fiber.Ctx) error {
	actor := h.actor(c)
	if actor.CompanyID == "" || actor.UserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.DanoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	factura, err := h.uc.ReportarDano(c.Context(), actor, c.Params("id"), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(factura)
}

// FinalizarCarga godoc
// @Summary      Finalizar la carga de la ruta
// @Description  Rechaza con el detalle de facturas incompletas si quedan
//
//	items sin cargar.
//
// @Tags         carga
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la ruta"
// @Param        body  body  dto.FinalizarCargaRequest  true  "notas"
// @Success      200  {object}  entity.Ruta
// @Failure      400  {object}  dto.CargaIncompletaResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/rutas/{id}/carga/finalizar [post]
func (h *CargaHandler) FinalizarCarga(c *fiber.Ctx) error {
	actor := h.actor(c)
	if actor.CompanyID == "" || actor.UserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.FinalizarCargaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ruta, err := h.uc.FinalizarCarga(c.Context(), actor, c.Params("id"), in.Notas)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(ruta)
}
