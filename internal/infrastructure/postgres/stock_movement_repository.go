package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo kardex sobre PostgreSQL. La tabla tiene un trigger que rechaza UPDATE y DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_movements (id, tenant_id, part_id, type, quantity, description, user_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.TenantID, m.PartID, string(m.Type), m.Quantity, m.Description, m.User, m.Date,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// List devuelve el kardex del más reciente al más antiguo.
func (r *StockMovementRepo) List(ctx context.Context, tenantID string, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	where, args, ok := movementWhere(tenantID, f)
	if !ok {
		return []*entity.StockMovement{}, nil
	}
	query := `
		SELECT id, tenant_id, part_id, type, quantity, description, user_name, created_at
		FROM stock_movements` + where + " ORDER BY created_at DESC, id DESC"
	pos := len(args) + 1
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", pos)
		args = append(args, f.Limit)
		pos++
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", pos)
		args = append(args, f.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.StockMovement, 0)
	for rows.Next() {
		var m entity.StockMovement
		var typ string
		if err := rows.Scan(&m.ID, &m.TenantID, &m.PartID, &typ, &m.Quantity, &m.Description, &m.User, &m.Date); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.Type = entity.MovementType(typ)
		out = append(out, &m)
	}
	return out, rows.Err()
}

// Count total de movimientos del filtro.
func (r *StockMovementRepo) Count(ctx context.Context, tenantID string, f repository.MovementFilter) (int, error) {
	where, args, ok := movementWhere(tenantID, f)
	if !ok {
		return 0, nil
	}
	var n int
	if err := r.q.QueryRow(ctx, "SELECT COUNT(*) FROM stock_movements"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stock movements: %w", err)
	}
	return n, nil
}

// movementWhere arma el WHERE del filtro. ok=false si el filtro no puede coincidir con nada.
func movementWhere(tenantID string, f repository.MovementFilter) (string, []any, bool) {
	where := " WHERE tenant_id = $1"
	args := []any{tenantID}
	if f.PartID != "" {
		if !isUUID(f.PartID) {
			return "", nil, false
		}
		args = append(args, f.PartID)
		where += fmt.Sprintf(" AND part_id = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	return where, args, true
}
