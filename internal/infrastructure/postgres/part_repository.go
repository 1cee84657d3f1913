package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
)

var _ repository.PartRepository = (*PartRepo)(nil)

const partColumns = `id, tenant_id, sku, barcode, name, manufacturer, part_group, subgroup, compatibility, location,
	cost, price, quantity, initial_quantity, min_stock, version, last_price_sync_at, created_at, updated_at, deleted_at`

// PartRepo implementación del puerto PartRepository sobre PostgreSQL (usable con pool o tx).
type PartRepo struct {
	q Querier
}

// NewPartRepository construye el adaptador de persistencia para piezas. Pasar pool o tx (Querier).
func NewPartRepository(q Querier) *PartRepo {
	return &PartRepo{q: q}
}

func scanPart(row pgx.Row) (*entity.Part, error) {
	var p entity.Part
	err := row.Scan(
		&p.ID, &p.TenantID, &p.SKU, &p.Barcode, &p.Name, &p.Manufacturer, &p.Group, &p.Subgroup,
		&p.Compatibility, &p.Location, &p.Cost, &p.Price, &p.Quantity, &p.InitialQuantity,
		&p.MinStock, &p.Version, &p.LastPriceSyncAt, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PartRepo) queryOne(ctx context.Context, op, query string, args ...any) (*entity.Part, error) {
	p, err := scanPart(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (r *PartRepo) queryMany(ctx context.Context, op, query string, args ...any) ([]*entity.Part, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	out := make([]*entity.Part, 0)
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Create persiste una nueva pieza. Violación de SKU/código de barras únicos -> ErrDuplicate.
func (r *PartRepo) Create(ctx context.Context, p *entity.Part) error {
	compat := p.Compatibility
	if compat == nil {
		compat = []string{}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO parts (id, tenant_id, sku, barcode, name, manufacturer, part_group, subgroup, compatibility, location,
			cost, price, quantity, initial_quantity, min_stock, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		p.ID, p.TenantID, p.SKU, p.Barcode, p.Name, p.Manufacturer, p.Group, p.Subgroup, compat, p.Location,
		p.Cost, p.Price, p.Quantity, p.InitialQuantity, p.MinStock, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert part: %w", err)
	}
	return nil
}

// GetByID obtiene una pieza viva.
func (r *PartRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Part, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.queryOne(ctx, "get part",
		`SELECT `+partColumns+` FROM parts WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, tenantID, id)
}

// GetForUpdate bloquea la fila hasta el fin de la transacción.
func (r *PartRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Part, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.queryOne(ctx, "lock part",
		`SELECT `+partColumns+` FROM parts WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL FOR UPDATE`, tenantID, id)
}

// GetBySKU pieza viva por SKU.
func (r *PartRepo) GetBySKU(ctx context.Context, tenantID, sku string) (*entity.Part, error) {
	return r.queryOne(ctx, "get part by sku",
		`SELECT `+partColumns+` FROM parts WHERE tenant_id = $1 AND sku = $2 AND deleted_at IS NULL`, tenantID, sku)
}

// FindByCode piezas vivas con SKU o código de barras igual a code, en orden de catálogo.
func (r *PartRepo) FindByCode(ctx context.Context, tenantID, code string) ([]*entity.Part, error) {
	if code == "" {
		return []*entity.Part{}, nil
	}
	return r.queryMany(ctx, "find part by code", `
		SELECT `+partColumns+` FROM parts
		WHERE tenant_id = $1 AND deleted_at IS NULL AND (sku = $2 OR (barcode <> '' AND barcode = $2))
		ORDER BY created_at, id`, tenantID, code)
}

// ListByTenant lista las piezas vivas con filtros opcionales, en orden de catálogo.
func (r *PartRepo) ListByTenant(ctx context.Context, tenantID string, f repository.PartFilter) ([]*entity.Part, error) {
	query := `SELECT ` + partColumns + ` FROM parts WHERE tenant_id = $1 AND deleted_at IS NULL`
	args := []any{tenantID}
	pos := 2
	if f.Search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR sku ILIKE $%d OR barcode ILIKE $%d)", pos, pos, pos)
		args = append(args, "%"+escapeLike(f.Search)+"%")
		pos++
	}
	if f.Group != "" {
		query += fmt.Sprintf(" AND lower(part_group) = lower($%d)", pos)
		args = append(args, f.Group)
		pos++
	}
	if f.Subgroup != "" {
		query += fmt.Sprintf(" AND lower(subgroup) = lower($%d)", pos)
		args = append(args, f.Subgroup)
		pos++
	}
	if f.Compatibility != "" {
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM unnest(compatibility) AS c WHERE c ILIKE $%d)", pos)
		args = append(args, "%"+escapeLike(f.Compatibility)+"%")
	}
	query += " ORDER BY created_at, id"
	return r.queryMany(ctx, "list parts", query, args...)
}

// ListByIDs incluye piezas eliminadas (kardex histórico).
func (r *PartRepo) ListByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.Part, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []*entity.Part{}, nil
	}
	return r.queryMany(ctx, "list parts by ids",
		`SELECT `+partColumns+` FROM parts WHERE tenant_id = $1 AND id = ANY($2::uuid[])`, tenantID, valid)
}

// Update persiste los campos de catálogo con control optimista de versión. Nunca toca quantity.
func (r *PartRepo) Update(ctx context.Context, p *entity.Part) error {
	compat := p.Compatibility
	if compat == nil {
		compat = []string{}
	}
	var version, quantity int
	err := r.q.QueryRow(ctx, `
		UPDATE parts SET sku = $4, barcode = $5, name = $6, manufacturer = $7, part_group = $8, subgroup = $9,
			compatibility = $10, location = $11, cost = $12, price = $13, min_stock = $14, updated_at = $15,
			version = version + 1
		WHERE tenant_id = $1 AND id = $2 AND version = $3 AND deleted_at IS NULL
		RETURNING version, quantity`,
		p.TenantID, p.ID, p.Version, p.SKU, p.Barcode, p.Name, p.Manufacturer, p.Group, p.Subgroup,
		compat, p.Location, p.Cost, p.Price, p.MinStock, p.UpdatedAt,
	).Scan(&version, &quantity)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if errors.Is(err, pgx.ErrNoRows) {
			// la fila no existe o cambió de versión
			current, gerr := r.GetByID(ctx, p.TenantID, p.ID)
			if gerr != nil {
				return gerr
			}
			if current == nil {
				return domain.ErrNotFound
			}
			return domain.ErrConflict
		}
		return fmt.Errorf("update part: %w", err)
	}
	p.Version = version
	p.Quantity = quantity
	return nil
}

// UpdatePrices actualiza costo y precio desde el portal y marca la sincronización.
func (r *PartRepo) UpdatePrices(ctx context.Context, tenantID, id string, cost, price decimal.Decimal, syncedAt time.Time) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE parts SET cost = $3, price = $4, last_price_sync_at = $5, updated_at = $5
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`,
		tenantID, id, cost, price, syncedAt,
	)
	if err != nil {
		return fmt.Errorf("update part prices: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetQuantity fija la cantidad (solo el motor del kardex, dentro de la tx).
func (r *PartRepo) SetQuantity(ctx context.Context, tenantID, id string, quantity int) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE parts SET quantity = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, quantity,
	)
	if err != nil {
		return fmt.Errorf("update part quantity: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDelete marca deleted_at. Los movimientos no se tocan.
func (r *PartRepo) SoftDelete(ctx context.Context, tenantID, id string, at time.Time) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	cmd, err := r.q.Exec(ctx,
		`UPDATE parts SET deleted_at = $3, updated_at = $3 WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`,
		tenantID, id, at,
	)
	if err != nil {
		return false, fmt.Errorf("delete part: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
