package inventory

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/ports"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	domaininv "github.com/jhoicas/marina-inventario/internal/domain/inventory"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

// NewPartSentinel valor de part_id que pide crear una pieza a partir del ítem.
const NewPartSentinel = "NEW"

// Valores por defecto del borrador creado desde una nota.
const invoiceDraftMinStock = 5

// InvoiceImportUseCase concilia notas de proveedor contra el catálogo y las envía al kardex.
// La nota vive en el almacén de sesiones hasta que se envía o se descarta.
type InvoiceImportUseCase struct {
	parser        ports.InvoiceParser
	partRepo      repository.PartRepository
	sessions      repository.SessionStore
	movements     *RegisterMovementUseCase
	creator       PartCreator
	catalog       ports.CatalogClient // opcional: enriquecimiento de borradores
	metrics       ports.Metrics
	log           *logger.Logger
	sessionTTL    time.Duration
	enrichTimeout time.Duration
	now           func() time.Time
}

// DefaultEnrichTimeout tope de la consulta al portal al vincular un ítem como pieza nueva.
// La vinculación espera la respuesta, así que se mantiene corto.
const DefaultEnrichTimeout = 2 * time.Second

// InvoiceImportConfig dependencias opcionales y tiempos.
type InvoiceImportConfig struct {
	Catalog       ports.CatalogClient
	Metrics       ports.Metrics
	SessionTTL    time.Duration
	EnrichTimeout time.Duration
}

// NewInvoiceImportUseCase construye el caso de uso.
func NewInvoiceImportUseCase(
	parser ports.InvoiceParser,
	partRepo repository.PartRepository,
	sessions repository.SessionStore,
	movements *RegisterMovementUseCase,
	creator PartCreator,
	cfg InvoiceImportConfig,
	log *logger.Logger,
) *InvoiceImportUseCase {
	if cfg.Metrics == nil {
		cfg.Metrics = ports.NopMetrics{}
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.EnrichTimeout <= 0 {
		cfg.EnrichTimeout = DefaultEnrichTimeout
	}
	return &InvoiceImportUseCase{
		parser:        parser,
		partRepo:      partRepo,
		sessions:      sessions,
		movements:     movements,
		creator:       creator,
		catalog:       cfg.Catalog,
		metrics:       cfg.Metrics,
		log:           log.Component("nfe"),
		sessionTTL:    cfg.SessionTTL,
		enrichTimeout: cfg.EnrichTimeout,
		now:           time.Now,
	}
}

// Import parsea el documento, intenta vincular cada ítem por SKU o código de barras
// y guarda la sesión en estado PARSED. Un documento inválido no crea sesión.
func (uc *InvoiceImportUseCase) Import(ctx context.Context, tenantID string, document io.Reader) (*dto.ImportSessionResponse, error) {
	inv, err := uc.parser.Parse(document)
	if err != nil {
		return nil, err
	}
	if err := uc.autoLink(ctx, tenantID, inv); err != nil {
		return nil, err
	}
	inv.Recalculate()

	sess := &entity.ImportSession{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		State:     entity.ImportParsed,
		Invoice:   inv,
		CreatedAt: uc.now().UTC(),
	}
	if err := uc.save(ctx, sess); err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("session_id", sess.ID).
		Str("nf", inv.Number).
		Int("items", len(inv.Items)).
		Int("linked", inv.LinkedCount()).
		Msg("nota importada")
	return toImportResponse(sess), nil
}

// autoLink vincula cada ítem a la primera pieza del catálogo cuyo SKU o código de barras coincide.
func (uc *InvoiceImportUseCase) autoLink(ctx context.Context, tenantID string, inv *entity.Invoice) error {
	for i := range inv.Items {
		item := &inv.Items[i]
		item.State = entity.LinkUnlinked
		for _, code := range []string{item.Code, item.Barcode} {
			if code == "" {
				continue
			}
			matches, err := uc.partRepo.FindByCode(ctx, tenantID, code)
			if err != nil {
				return fmt.Errorf("vincular ítem %s: %w", item.Code, err)
			}
			if len(matches) > 0 {
				item.Link(matches[0].ID)
				break
			}
		}
	}
	return nil
}

// Get devuelve el estado actual de la sesión.
func (uc *InvoiceImportUseCase) Get(ctx context.Context, tenantID, sessionID string) (*dto.ImportSessionResponse, error) {
	sess, err := uc.load(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return toImportResponse(sess), nil
}

// LinkItem vincula el ítem a una pieza existente o, con "NEW", prepara un borrador de pieza nueva.
func (uc *InvoiceImportUseCase) LinkItem(ctx context.Context, tenantID, sessionID string, index int, partID string) (*dto.ImportSessionResponse, error) {
	sess, item, err := uc.loadItem(ctx, tenantID, sessionID, index)
	if err != nil {
		return nil, err
	}

	partID = strings.TrimSpace(partID)
	switch {
	case partID == "":
		return nil, domain.NewValidationError("part_id", "obligatorio")
	case strings.EqualFold(partID, NewPartSentinel):
		draft := &entity.PartDraft{
			Name:         item.Name,
			SKU:          item.Code,
			Barcode:      item.Barcode,
			Manufacturer: sess.Invoice.Supplier,
			Cost:         item.UnitCost,
			Price:        domaininv.DraftPrice(item.UnitCost),
			Quantity:     0,
			MinStock:     invoiceDraftMinStock,
		}
		uc.enrich(ctx, draft)
		item.Stage(draft)
	default:
		part, err := uc.partRepo.GetByID(ctx, tenantID, partID)
		if err != nil {
			return nil, fmt.Errorf("obtener pieza: %w", err)
		}
		if part == nil {
			return nil, domain.ErrNotFound
		}
		item.Link(part.ID)
	}

	if err := uc.save(ctx, sess); err != nil {
		return nil, err
	}
	return toImportResponse(sess), nil
}

// enrich consulta el portal con un tiempo acotado. Es solo una sugerencia:
// cualquier fallo se registra y el borrador queda con los valores de la nota.
func (uc *InvoiceImportUseCase) enrich(ctx context.Context, draft *entity.PartDraft) {
	if uc.catalog == nil || draft.SKU == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, uc.enrichTimeout)
	defer cancel()

	hits, err := uc.catalog.Search(ctx, draft.SKU)
	if err != nil {
		uc.log.Warn().Err(err).Str("code", draft.SKU).Msg("enriquecimiento del borrador omitido")
		return
	}
	if len(hits) == 0 {
		return
	}
	hit := hits[0]
	if !hit.SalePrice.IsPositive() {
		return
	}
	draft.Price = hit.SalePrice
	if hit.CostPrice.IsPositive() {
		draft.Cost = hit.CostPrice
	}
	draft.Enriched = true
}

// ConfirmPendingItem crea la pieza del borrador (cantidad 0) y vincula el ítem.
// La cantidad real entra al enviar la nota, como movimiento IN_INVOICE.
func (uc *InvoiceImportUseCase) ConfirmPendingItem(ctx context.Context, tenantID, sessionID string, index int, in dto.ConfirmItemRequest) (*dto.ImportSessionResponse, error) {
	sess, item, err := uc.loadItem(ctx, tenantID, sessionID, index)
	if err != nil {
		return nil, err
	}
	if item.State != entity.LinkPendingCreate || item.Draft == nil {
		return nil, fmt.Errorf("%w: el ítem %d no tiene borrador pendiente", domain.ErrConflict, index)
	}

	d := *item.Draft
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.SKU != nil {
		d.SKU = *in.SKU
	}
	if in.Barcode != nil {
		d.Barcode = *in.Barcode
	}
	if in.Location != nil {
		d.Location = *in.Location
	}
	if in.Cost != nil {
		d.Cost = *in.Cost
	}
	if in.Price != nil {
		d.Price = *in.Price
	}
	if in.MinStock != nil {
		d.MinStock = *in.MinStock
	}

	created, err := uc.creator.CreatePart(ctx, tenantID, dto.CreatePartRequest{
		SKU:          d.SKU,
		Barcode:      d.Barcode,
		Name:         d.Name,
		Manufacturer: d.Manufacturer,
		Location:     d.Location,
		Cost:         d.Cost,
		Price:        d.Price,
		Quantity:     0,
		MinStock:     d.MinStock,
	})
	if err != nil {
		return nil, err
	}
	item.Link(created.ID)

	if err := uc.save(ctx, sess); err != nil {
		return nil, err
	}
	return toImportResponse(sess), nil
}

// UnlinkItem devuelve el ítem a UNLINKED (deja de entrar en el envío).
func (uc *InvoiceImportUseCase) UnlinkItem(ctx context.Context, tenantID, sessionID string, index int) (*dto.ImportSessionResponse, error) {
	sess, item, err := uc.loadItem(ctx, tenantID, sessionID, index)
	if err != nil {
		return nil, err
	}
	item.Unlink()
	if err := uc.save(ctx, sess); err != nil {
		return nil, err
	}
	return toImportResponse(sess), nil
}

// Submit registra un IN_INVOICE por cada ítem vinculado, uno tras otro.
// Los ítems sin vínculo se omiten sin error. Si todo entra, la sesión se descarta;
// si algún ítem falla, la sesión queda solo con los ítems no enviados para reintentar.
func (uc *InvoiceImportUseCase) Submit(ctx context.Context, tenantID, actor, sessionID string) (*dto.SubmitInvoiceResponse, error) {
	sess, err := uc.load(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	inv := sess.Invoice
	if strings.TrimSpace(inv.Number) == "" {
		return nil, domain.NewValidationError("number", "obligatorio")
	}
	if strings.TrimSpace(inv.Supplier) == "" {
		return nil, domain.NewValidationError("supplier", "obligatorio")
	}
	if len(inv.Items) == 0 {
		return nil, domain.NewValidationError("items", "la nota no tiene ítems")
	}
	if inv.LinkedCount() == 0 {
		return nil, domain.ErrNoLinkedItems
	}

	description := fmt.Sprintf("Entrada NF %s - %s", inv.Number, inv.Supplier)
	out := &dto.SubmitInvoiceResponse{SessionID: sess.ID, Results: make([]dto.ItemResult, 0, len(inv.Items))}
	remaining := make([]entity.InvoiceItem, 0)

	for i, item := range inv.Items {
		if !item.IsLinked() {
			out.Skipped++
			remaining = append(remaining, item)
			continue
		}
		res := dto.ItemResult{Index: i, PartID: item.PartID, Type: string(entity.MovementInInvoice)}

		qty, err := integralQuantity(item.Quantity)
		if err == nil {
			res.Quantity = qty
			var mov *entity.StockMovement
			mov, err = uc.movements.RegisterMovement(ctx, MovementInput{
				TenantID:    tenantID,
				Actor:       actor,
				PartID:      item.PartID,
				Type:        entity.MovementInInvoice,
				Quantity:    qty,
				Description: description,
			})
			if err == nil {
				res.MovementID = mov.ID
			}
		}
		if err != nil {
			res.Error = err.Error()
			out.Failed++
			remaining = append(remaining, item)
			uc.log.Warn().Err(err).Str("session_id", sess.ID).Int("index", i).Msg("ítem de la nota no registrado")
		} else {
			out.Submitted++
		}
		out.Results = append(out.Results, res)
	}
	uc.metrics.InvoiceSubmitted(out.Submitted, out.Failed)

	// Los movimientos ya están registrados: la sesión se actualiza aunque el request se cancele.
	persistCtx := context.WithoutCancel(ctx)
	if out.Failed == 0 {
		sess.State = entity.ImportSubmitted
		if err := uc.sessions.Delete(persistCtx, sessionKindImport, sess.ID); err != nil {
			uc.log.Warn().Err(err).Str("session_id", sess.ID).Msg("no se pudo descartar la sesión")
		}
	} else {
		inv.Items = remaining
		inv.Recalculate()
		if err := uc.save(persistCtx, sess); err != nil {
			return nil, err
		}
	}
	out.State = string(sess.State)

	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("nf", inv.Number).
		Int("submitted", out.Submitted).
		Int("failed", out.Failed).
		Int("skipped", out.Skipped).
		Msg("nota enviada al kardex")
	return out, nil
}

// Reset descarta la sesión sin tocar el kardex.
func (uc *InvoiceImportUseCase) Reset(ctx context.Context, tenantID, sessionID string) error {
	if _, err := uc.load(ctx, tenantID, sessionID); err != nil {
		return err
	}
	return uc.sessions.Delete(ctx, sessionKindImport, sessionID)
}

func integralQuantity(q decimal.Decimal) (int, error) {
	if !q.Equal(q.Truncate(0)) {
		return 0, domain.NewValidationError("quantity", fmt.Sprintf("cantidad fraccionaria %s", q.String()))
	}
	if !q.IsPositive() {
		return 0, domain.NewValidationError("quantity", "debe ser un entero positivo")
	}
	return int(q.IntPart()), nil
}

func (uc *InvoiceImportUseCase) load(ctx context.Context, tenantID, sessionID string) (*entity.ImportSession, error) {
	var sess entity.ImportSession
	if err := uc.sessions.Load(ctx, sessionKindImport, sessionID, &sess); err != nil {
		return nil, err
	}
	if sess.TenantID != tenantID || sess.Invoice == nil {
		return nil, domain.ErrNotFound
	}
	return &sess, nil
}

func (uc *InvoiceImportUseCase) loadItem(ctx context.Context, tenantID, sessionID string, index int) (*entity.ImportSession, *entity.InvoiceItem, error) {
	sess, err := uc.load(ctx, tenantID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if index < 0 || index >= len(sess.Invoice.Items) {
		return nil, nil, domain.NewValidationError("index", fmt.Sprintf("fuera de rango (0..%d)", len(sess.Invoice.Items)-1))
	}
	return sess, &sess.Invoice.Items[index], nil
}

func (uc *InvoiceImportUseCase) save(ctx context.Context, sess *entity.ImportSession) error {
	if err := uc.sessions.Save(ctx, sessionKindImport, sess.ID, sess, uc.sessionTTL); err != nil {
		return fmt.Errorf("guardar sesión de importación: %w", err)
	}
	return nil
}

func toImportResponse(sess *entity.ImportSession) *dto.ImportSessionResponse {
	inv := sess.Invoice
	out := &dto.ImportSessionResponse{
		SessionID:  sess.ID,
		State:      string(sess.State),
		Number:     inv.Number,
		Supplier:   inv.Supplier,
		Date:       inv.Date,
		AccessKey:  inv.AccessKey,
		TotalValue: inv.TotalValue,
		Linked:     inv.LinkedCount(),
		Items:      make([]dto.InvoiceItemResponse, 0, len(inv.Items)),
	}
	for i, it := range inv.Items {
		out.Items = append(out.Items, dto.InvoiceItemResponse{
			Index:    i,
			Code:     it.Code,
			Barcode:  it.Barcode,
			Name:     it.Name,
			Quantity: it.Quantity,
			UnitCost: it.UnitCost,
			Total:    it.Total,
			State:    string(it.State),
			PartID:   it.PartID,
			Draft:    it.Draft,
		})
	}
	return out
}
