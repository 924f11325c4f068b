package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"packtree/internal/config"
	"packtree/internal/repository/postgres"
	"packtree/internal/seed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop the catalog tables before seeding (blocked in prod)")
	schemaOnly := flag.Bool("schema-only", false, "Create the schema without loading demo data")
	renumber := flag.Bool("renumber", false, "Rewrite sort_order in every sibling group to a contiguous 0..n-1 run")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		if cfg.Environment == "prod" {
			log.Fatal("--drop-tables is not allowed in prod")
		}
		logger.Warn("dropping tables", "prefix", cfg.TablePrefix)
		if err := postgres.DropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	logger.Info("schema ready", "nodes", tables.Nodes, "packages", tables.Packages)

	if *renumber {
		if err := renumberAll(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to renumber: %v", err)
		}
		logger.Info("sibling groups renumbered")
	}

	if *schemaOnly {
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	nodeRepo := postgres.NewNodeRepository(repoConfig)
	pkgRepo := postgres.NewPackageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	seeder := seed.NewSeeder(nodeRepo, pkgRepo, txManager, logger)
	if err := seeder.EnsureSeedData(ctx); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}
}

// renumberAll compacts sort_order within every sibling group, breaking ties
// by id. Repairs data written before sort orders were kept contiguous.
func renumberAll(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	renumberNodes := `
		UPDATE ` + tables.Nodes + ` n
		SET sort_order = r.rn - 1
		FROM (
			SELECT id, ROW_NUMBER() OVER (
				PARTITION BY parent_id ORDER BY sort_order, id
			) AS rn
			FROM ` + tables.Nodes + `
		) r
		WHERE n.id = r.id AND n.sort_order <> r.rn - 1
	`
	if _, err := tx.Exec(ctx, renumberNodes); err != nil {
		return err
	}

	renumberPackages := `
		UPDATE ` + tables.Packages + ` p
		SET sort_order = r.rn - 1
		FROM (
			SELECT id, ROW_NUMBER() OVER (
				PARTITION BY node_id ORDER BY sort_order, id
			) AS rn
			FROM ` + tables.Packages + `
		) r
		WHERE p.id = r.id AND p.sort_order <> r.rn - 1
	`
	if _, err := tx.Exec(ctx, renumberPackages); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
