package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/entregas-pro/internal/application/dto"
	"github.com/tu-usuario/entregas-pro/internal/application/entrega"
)

// EntregaHandler maneja las peticiones HTTP de la fase de reparto (protegido).
type EntregaHandler struct {
	uc *entrega.UseCase
}

// NewEntregaHandler construye el handler.
func NewEntregaHandler(uc *entrega.UseCase) *EntregaHandler {
	return &EntregaHandler{uc: uc}
}

func (h *EntregaHandler) actor(c *fiber.Ctx) entrega.Actor {
	return entrega.Actor{UserID: GetUserID(c), CompanyID: GetCompanyID(c), Role: GetRole(c)}
}

// IniciarEntregas godoc
// @Summary      Sacar la ruta a reparto
// @Tags         entrega
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la ruta"
// @Success      200  {object}  entity.Ruta
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/rutas/{id}/entregas/iniciar [post]
func (h *EntregaHandler) IniciarEntregas(c *fiber.Ctx) error {
	actor := h.actor(c)
	if actor.CompanyID == "" || actor.UserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	ruta, err := h.uc.IniciarEntregas(c.Context(), actor, c.Params("id"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(ruta)
}

// ConfirmarItem godoc
// @Summary      Confirmar un item como entregado
// @Tags         entrega
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string           true  "ID de la ruta"
// @Param        body  body  dto.ItemRequest  true  "facturaId, itemIndex"
// @Success      200  {object}  entity.Factura
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/rutas/{id}/entregas/items [post]
func (h *EntregaHandler) ConfirmarItem(c *fiber.Ctx) error {
	actor := h.actor(c)
	if actor.CompanyID == "" || actor.UserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	factura, err := h.uc.ConfirmarItemEntregado(c.Context(), actor, c.Params("id"), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(factura)
}

// ReportarDano godoc
// @Summary      Reportar un item dañado durante el reparto
// @Tags         entrega
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string           true  "ID de la ruta"
// @Param        body  body  dto.DanoRequest  true  "facturaId, itemIndex, descripcion, fotos"
// @Success      200  {object}  entity.Factura
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/rutas/{id}/entregas/danos [post]
func (h *EntregaHandler) ReportarDano(c *fiber.Ctx) error {
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

// SubirFotos godoc
// @Summary      Adjuntar fotos de evidencia a una factura
// @Tags         entrega
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id         path  string            true  "ID de la ruta"
// @Param        facturaId  path  string            true  "ID de la factura"
// @Param        body       body  dto.FotosRequest  true  "fotos (refs del servicio de evidencia)"
// @Success      200  {object}  entity.Factura
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/rutas/{id}/facturas/{facturaId}/fotos [post]
func (h *EntregaHandler) SubirFotos(c *fiber.Ctx) error {
	actor := h.actor(c)
	if actor.CompanyID == "" || actor.UserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.FotosRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	factura, err := h.uc.SubirFotosEvidencia(c.Context(), actor, c.Params("id"), c.Params("facturaId"), in.Fotos)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(factura)
}

// ConfirmarPago godoc
// @Summary      Registrar el cobro contra entrega
// @Description  efectivo exige monto suficiente y devuelve el cambio;
//
//	transferencia y cheque exigen referencia.
//
// @Tags         entrega
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id         path  string           true  "ID de la ruta"
// @Param        facturaId  path  string           true  "ID de la factura"
// @Param        body       body  dto.PagoRequest  true  "metodoPago, montoRecibido, referenciaPago"
// @Success      200  {object}  dto.PagoResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/rutas/{id}/facturas/{facturaId}/pago [post]
func (h *EntregaHandler) ConfirmarPago(c *fiber.Ctx) error {
	actor := h.actor(c)
	if actor.CompanyID == "" || actor.UserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.PagoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	factura, cambio, err := h.uc.ConfirmarPago(c.Context(), actor, c.Params("id"), c.Params("facturaId"), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(dto.PagoResponse{Estado: string(factura.Pago.Estado), Cambio: cambio.StringFixed(2)})
}

// MarcarEntregada godoc
// @Summary      Cerrar la factura como entregada
// @Description  Rechaza con el detalle de lo que falta (items, evidencia,
//
//	pago) si la factura no está lista.
//
// @Tags         entrega
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id         path  string              true  "ID de la ruta"
// @Param        facturaId  path  string              true  "ID de la factura"
// @Param        body       body  dto.EntregaRequest  true  "nombreReceptor, notas"
// @Success      200  {object}  entity.Factura
// @Failure      400  {object}  dto.EntregaIncompletaResponse
// @Router       /api/rutas/{id}/facturas/{facturaId}/entregar [post]
func (h *EntregaHandler) MarcarEntregada(c *fiber.Ctx) error {
	actor := h.actor(c)
	if actor.CompanyID == "" || actor.UserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.EntregaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	factura, err := h.uc.MarcarEntregada(c.Context(), actor, c.Params("id"), c.Params("facturaId"), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(factura)
}

// ReportarNoEntrega godoc
// @Summary      Cerrar la factura como no entregada
// @Description  Con reintentar=true la factura vuelve al pool de despacho.
// @Tags         entrega
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id         path  string                true  "ID de la ruta"
// @Param        facturaId  path  string                true  "ID de la factura"
// @Param        body       body  dto.NoEntregaRequest  true  "motivo, descripcion, fotos, reintentar"
// @Success      200  {object}  entity.Factura
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/rutas/{id}/facturas/{facturaId}/no-entrega [post]
func (h *EntregaHandler) ReportarNoEntrega(c *fiber.Ctx) error {
	actor := h.actor(c)
	if actor.CompanyID == "" || actor.UserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.NoEntregaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	factura, err := h.uc.ReportarNoEntrega(c.Context(), actor, c.Params("id"), c.Params("facturaId"), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(factura)
}

// FinalizarRuta godoc
// @Summary      Cerrar la ruta
// @Description  Fuerza a no_entregada las facturas sin resolver y devuelve
//
//	el resumen de entregas.
//
// @Tags         entrega
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la ruta"
// @Param        body  body  dto.FinalizarRutaRequest  true  "notas"
// @Success      200  {object}  entity.Ruta
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/rutas/{id}/finalizar [post]
func (h *EntregaHandler) FinalizarRuta(c *fiber.Ctx) error {
	actor := h.actor(c)
	if actor.CompanyID == "" || actor.UserID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.FinalizarRutaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ruta, err := h.uc.FinalizarRuta(c.Context(), actor, c.Params("id"), in.Notas)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(ruta)
}
