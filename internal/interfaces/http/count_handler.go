package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/inventory"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

// CountHandler inventario físico (protegido).
type CountHandler struct {
	uc  *inventory.CountUseCase
	log *logger.Logger
}

// NewCountHandler construye el handler.
func NewCountHandler(uc *inventory.CountUseCase, log *logger.Logger) *CountHandler {
	return &CountHandler{uc: uc, log: log}
}

// Start toma la foto de cantidades y devuelve la planilla.
func (h *CountHandler) Start(c *fiber.Ctx) error {
	out, err := h.uc.StartCount(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Sheet descarga la planilla en PDF.
func (h *CountHandler) Sheet(c *fiber.Ctx) error {
	data, err := h.uc.CountSheetPDF(c.UserContext(), GetCompanyID(c), c.Params("session"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="inventario.pdf"`)
	return c.Send(data)
}

// Finish godoc
// @Summary      Cerrar el conteo y registrar ajustes
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        session  path  string                  true  "Sesión de conteo"
// @Param        body     body  dto.FinishCountRequest  true  "Cantidades contadas por pieza"
// @Success      200  {object}  dto.FinishCountResponse
// @Router       /api/inventory/counts/{session}/finish [post]
func (h *CountHandler) Finish(c *fiber.Ctx) error {
	var in dto.FinishCountRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.FinishCount(c.UserContext(), GetCompanyID(c), GetActor(c), c.Params("session"), in.Counts)
	if err != nil {
		return writeError(c, h.log, err)
	}
	status := fiber.StatusOK
	if len(out.Failed) > 0 {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(out)
}
