package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/pricing"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

// CatalogHandler consulta y sincronización de precios con el portal del fabricante (protegido).
type CatalogHandler struct {
	uc       *pricing.PriceSyncUseCase
	warranty *pricing.WarrantyUseCase
	log      *logger.Logger
}

// NewCatalogHandler construye el handler. warranty puede ser nil.
func NewCatalogHandler(uc *pricing.PriceSyncUseCase, warranty *pricing.WarrantyUseCase, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{uc: uc, warranty: warranty, log: log}
}

// Search godoc
// @Summary      Buscar un código en el portal de precios
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Código del fabricante"
// @Success      200  {object}  dto.CatalogSearchResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/catalog/search/{code} [get]
func (h *CatalogHandler) Search(c *fiber.Ctx) error {
	out, err := h.uc.Search(c.UserContext(), c.Params("code"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Sync aplica un resultado del portal; sin confirm devuelve la vista previa.
func (h *CatalogHandler) Sync(c *fiber.Ctx) error {
	var in dto.SyncPartRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.SyncPart(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// BatchSync godoc
// @Summary      Actualizar precios en lote
// @Description  Sin part_ids toma las piezas del fabricante configurado.
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BatchSyncRequest  false  "part_ids"
// @Success      200  {object}  dto.BatchSyncResponse
// @Router       /api/catalog/batch-sync [post]
func (h *CatalogHandler) BatchSync(c *fiber.Ctx) error {
	var in dto.BatchSyncRequest
	if len(c.Body()) > 0 {
		if ok, err := bind(c, &in); !ok {
			return err
		}
	}
	out, err := h.uc.BatchSync(c.UserContext(), GetCompanyID(c), in.PartIDs)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Warranty godoc
// @Summary      Garantía de un motor por número de serie
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        serial  path  string  true  "Número de serie del motor"
// @Success      200  {object}  entity.EngineWarranty
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/catalog/warranty/{serial} [get]
func (h *CatalogHandler) Warranty(c *fiber.Ctx) error {
	out, err := h.warranty.Lookup(c.UserContext(), c.Params("serial"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
