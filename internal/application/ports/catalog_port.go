package ports

import (
	"context"

	"github.com/jhoicas/marina-inventario/internal/domain/entity"
)

// CatalogClient define el puerto de salida hacia el portal de precios del fabricante.
// Cualquier adaptador (portal HTTP, caché Redis, fake de tests) debe implementar esta interfaz.
// El contexto debe llevar un timeout para evitar bloqueos en llamadas externas.
type CatalogClient interface {
	// Search consulta el portal por código. Cero resultados no es un error.
	// Los fallos de red, autenticación o formato se devuelven envueltos en domain.ErrExternalService.
	Search(ctx context.Context, code string) ([]entity.CatalogHit, error)
}

// WarrantyClient consulta la garantía de un motor por número de serie en el portal del fabricante.
type WarrantyClient interface {
	// Warranty devuelve domain.ErrNotFound si el portal no conoce el motor.
	Warranty(ctx context.Context, serial string) (*entity.EngineWarranty, error)
}
