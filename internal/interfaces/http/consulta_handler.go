package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/entregas-pro/internal/application/consulta"
	"github.com/tu-usuario/entregas-pro/internal/application/dto"
	"github.com/tu-usuario/entregas-pro/internal/domain/entity"
)

// ComprobanteGenerator genera el comprobante PDF de una factura entregada.
type ComprobanteGenerator interface {
	GenerarComprobante(factura *entity.Factura) ([]byte, error)
}

// ConsultaHandler maneja las lecturas de rutas y facturas (protegido).
type ConsultaHandler struct {
	uc          *consulta.UseCase
	comprobante ComprobanteGenerator
}

// NewConsultaHandler construye el handler.
func NewConsultaHandler(uc *consulta.UseCase, comprobante ComprobanteGenerator) *ConsultaHandler {
	return &ConsultaHandler{uc: uc, comprobante: comprobante}
}

// RutasAsignadas godoc
// @Summary      Rutas asignadas al usuario del token
// @Tags         consulta
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "tamaño de página"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {array}  entity.Ruta
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/rutas [get]
func (h *ConsultaHandler) RutasAsignadas(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	rutas, err := h.uc.RutasAsignadas(companyID, userID, page.Limit, page.Offset)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(fiber.Map{
		"total": len(rutas),
		"rutas": rutas,
		"page":  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// DetalleRuta godoc
// @Summary      Detalle de una ruta con sus facturas
// @Tags         consulta
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la ruta"
// @Success      200  {object}  dto.RutaResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/rutas/{id} [get]
func (h *ConsultaHandler) DetalleRuta(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	ruta, facturas, err := h.uc.DetalleRuta(companyID, c.Params("id"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(dto.RutaResponse{Ruta: ruta, Facturas: facturas})
}

// BuscarPorTracking godoc
// @Summary      Buscar una factura por código de tracking
// @Tags         consulta
// @Security     Bearer
// @Produce      json
// @Param        codigo  path  string  true  "Código de tracking"
// @Success      200  {object}  entity.Factura
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/facturas/tracking/{codigo} [get]
func (h *ConsultaHandler) BuscarPorTracking(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	factura, err := h.uc.BuscarPorTracking(companyID, c.Params("codigo"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(factura)
}

// Comprobante godoc
// @Summary      Comprobante PDF de una factura entregada
// @Tags         consulta
// @Security     Bearer
// @Produce      application/pdf
// @Param        codigo  path  string  true  "Código de tracking"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/facturas/tracking/{codigo}/comprobante [get]
func (h *ConsultaHandler) Comprobante(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	factura, err := h.uc.BuscarPorTracking(companyID, c.Params("codigo"))
	if err != nil {
		return responderError(c, err)
	}
	if factura.Estado != entity.FacturaEntregada {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "la factura aún no está entregada"})
	}
	pdfBytes, err := h.comprobante.GenerarComprobante(factura)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "no se pudo generar el comprobante"})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="comprobante-`+factura.CodigoTracking+`.pdf"`)
	return c.Send(pdfBytes)
}
