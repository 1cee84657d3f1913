package http

import (
	"bytes"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/inventory"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

// InvoiceHandler conciliación de NF-e de proveedores (protegido).
type InvoiceHandler struct {
	uc  *inventory.InvoiceImportUseCase
	log *logger.Logger
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *inventory.InvoiceImportUseCase, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, log: log}
}

// Import godoc
// @Summary      Importar NF-e (XML en el cuerpo o campo multipart "file")
// @Tags         invoices
// @Security     Bearer
// @Accept       xml
// @Produce      json
// @Success      201  {object}  dto.ImportSessionResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/inventory/invoices/import [post]
func (h *InvoiceHandler) Import(c *fiber.Ctx) error {
	doc, err := uploadedDocument(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: err.Error()})
	}
	out, err := h.uc.Import(c.UserContext(), GetCompanyID(c), doc)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func uploadedDocument(c *fiber.Ctx) (io.Reader, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
	// el buffer de fasthttp se recicla al terminar el handler.
	return bytes.NewReader(append([]byte(nil), c.Body()...)), nil
}

// Get devuelve la nota en conciliación.
func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetCompanyID(c), c.Params("session"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Link godoc
// @Summary      Vincular ítem a una pieza existente o a "NEW" (borrador)
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        session  path  string               true  "Sesión de importación"
// @Param        index    path  int                  true  "Posición del ítem"
// @Param        body     body  dto.LinkItemRequest  true  "part_id o NEW"
// @Success      200  {object}  dto.ImportSessionResponse
// @Router       /api/inventory/invoices/{session}/items/{index}/link [put]
func (h *InvoiceHandler) Link(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "index inválido", Field: "index"})
	}
	var in dto.LinkItemRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.LinkItem(c.UserContext(), GetCompanyID(c), c.Params("session"), index, in.PartID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Confirm crea la pieza a partir del borrador del ítem y lo vincula.
func (h *InvoiceHandler) Confirm(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "index inválido", Field: "index"})
	}
	var in dto.ConfirmItemRequest
	if len(c.Body()) > 0 {
		if ok, err := bind(c, &in); !ok {
			return err
		}
	}
	out, err := h.uc.ConfirmPendingItem(c.UserContext(), GetCompanyID(c), c.Params("session"), index, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Unlink devuelve el ítem a sin vincular.
func (h *InvoiceHandler) Unlink(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "index inválido", Field: "index"})
	}
	out, err := h.uc.UnlinkItem(c.UserContext(), GetCompanyID(c), c.Params("session"), index)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Submit godoc
// @Summary      Registrar en el kardex los ítems vinculados
// @Description  Un IN_INVOICE por ítem; los fallidos quedan en la sesión para reintentar.
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        session  path  string  true  "Sesión de importación"
// @Success      200  {object}  dto.SubmitInvoiceResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/inventory/invoices/{session}/submit [post]
func (h *InvoiceHandler) Submit(c *fiber.Ctx) error {
	out, err := h.uc.Submit(c.UserContext(), GetCompanyID(c), GetActor(c), c.Params("session"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	status := fiber.StatusOK
	if out.Failed > 0 {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(out)
}

// Reset descarta la sesión.
func (h *InvoiceHandler) Reset(c *fiber.Ctx) error {
	if err := h.uc.Reset(c.UserContext(), GetCompanyID(c), c.Params("session")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
