package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/inventory"
	"github.com/jhoicas/marina-inventario/internal/application/usecase"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

// PartHandler maneja el catálogo de piezas (protegido).
type PartHandler struct {
	uc            *usecase.PartUseCase
	replenishment *inventory.ReplenishmentUseCase
	log           *logger.Logger
}

// NewPartHandler construye el handler.
func NewPartHandler(uc *usecase.PartUseCase, replenishment *inventory.ReplenishmentUseCase, log *logger.Logger) *PartHandler {
	return &PartHandler{uc: uc, replenishment: replenishment, log: log}
}

// Create godoc
// @Summary      Crear pieza
// @Tags         parts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePartRequest  true  "Datos de la pieza"
// @Success      201   {object}  dto.PartResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/parts [post]
func (h *PartHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePartRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.CreatePart(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener pieza por ID
// @Tags         parts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la pieza"
// @Success      200  {object}  dto.PartResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/parts/{id} [get]
func (h *PartHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetPart(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar piezas
// @Tags         parts
// @Security     Bearer
// @Produce      json
// @Param        q              query  string  false  "Texto en nombre, SKU, código de barras o fabricante"
// @Param        group          query  string  false  "Grupo"
// @Param        subgroup       query  string  false  "Subgrupo"
// @Param        compatibility  query  string  false  "Modelo compatible"
// @Success      200  {object}  dto.PartListResponse
// @Router       /api/parts [get]
func (h *PartHandler) List(c *fiber.Ctx) error {
	var q dto.PartListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.uc.ListParts(c.UserContext(), GetCompanyID(c), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Editar pieza (la cantidad solo cambia vía movimientos)
// @Tags         parts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la pieza"
// @Param        body  body  dto.UpdatePartRequest  true  "Campos a modificar; version opcional"
// @Success      200   {object}  dto.PartResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/parts/{id} [put]
func (h *PartHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdatePartRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.UpdatePart(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete da de baja la pieza; su historial del kardex se conserva.
func (h *PartHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeletePart(c.UserContext(), GetCompanyID(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LowStock godoc
// @Summary      Piezas en o por debajo del mínimo con la cantidad sugerida de pedido
// @Tags         parts
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReplenishmentSuggestionDTO
// @Router       /api/parts/low-stock [get]
func (h *PartHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}

// Import godoc
// @Summary      Carga masiva de piezas desde planilla
// @Description  Crea los SKU nuevos y actualiza los existentes. Acepta el cuerpo crudo o multipart con el campo "file".
// @Tags         parts
// @Security     Bearer
// @Accept       application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce      json
// @Success      200  {object}  dto.ImportPartsResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/parts/import.xlsx [post]
func (h *PartHandler) Import(c *fiber.Ctx) error {
	doc, err := uploadedDocument(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: err.Error()})
	}
	out, err := h.uc.ImportPartsWorkbook(c.UserContext(), GetCompanyID(c), doc)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Export descarga el catálogo en Excel.
func (h *PartHandler) Export(c *fiber.Ctx) error {
	data, err := h.uc.ExportParts(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="pecas.xlsx"`)
	return c.Send(data)
}
