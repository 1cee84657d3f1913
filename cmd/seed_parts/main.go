// seed_parts carga el catálogo inicial de piezas de un taller desde una planilla Excel.
//
// Uso: go run ./cmd/seed_parts <tenant_id> [ruta/pecas.xlsx]
// Por defecto busca pecas.xlsx en el directorio actual. Usa la misma conexión que la API
// (DB_*) y el mismo formato de columnas que GET /api/parts/export.xlsx.
// Los SKU existentes se actualizan sin tocar su stock.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhoicas/marina-inventario/internal/application/usecase"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/postgres"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/xlsx"
	"github.com/jhoicas/marina-inventario/pkg/config"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: seed_parts <tenant_id> [pecas.xlsx]")
		os.Exit(2)
	}
	tenantID := os.Args[1]
	path := "pecas.xlsx"
	if len(os.Args) > 2 {
		path = os.Args[2]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("abrir planilla")
	}
	defer f.Close()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	uc := usecase.NewPartUseCase(postgres.NewPartRepository(pool), xlsx.NewPartsWorkbook(), log)
	res, err := uc.ImportPartsWorkbook(ctx, tenantID, f)
	if err != nil {
		log.Error().Err(err).Msg("carga de piezas")
		return
	}
	for _, row := range res.Failed {
		log.Warn().Int("fila", row.Row).Str("sku", row.SKU).Msg(row.Error)
	}
	fmt.Printf("Piezas creadas: %d, actualizadas: %d, con error: %d\n", res.Created, res.Updated, len(res.Failed))
}
