package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"packtree/internal/auth"
	"packtree/internal/config"
	"packtree/internal/handler"
	"packtree/internal/middleware"
	"packtree/internal/repository/postgres"
	"packtree/internal/seed"
	"packtree/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Optional bearer-token verification; unset JWKS URL = open access
	var jwtVerifier auth.JWTVerifier
	if cfg.AuthJWKSURL != "" {
		var err error
		jwtVerifier, err = auth.NewJWTVerifier(cfg.AuthJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
	} else {
		logger.Warn("AUTH_JWKS_URL not set, authentication disabled")
	}

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	nodeRepo := postgres.NewNodeRepository(repoConfig)
	pkgRepo := postgres.NewPackageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Create services
	categoryService := service.NewCategoryService(nodeRepo, txManager, logger)
	packageService := service.NewPackageService(pkgRepo, nodeRepo, txManager, logger)
	fileService, err := service.NewFileService(pkgRepo, txManager, cfg.UploadsDir, cfg.AssignedDir, logger)
	if err != nil {
		log.Fatalf("Failed to create file service: %v", err)
	}

	// Load the demo tree on first start against an empty database
	if cfg.SeedDemoData {
		seeder := seed.NewSeeder(nodeRepo, pkgRepo, txManager, logger)
		if err := seeder.EnsureSeedData(ctx); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	// Create handlers
	categoryHandler := handler.NewCategoryHandler(categoryService, logger)
	packageHandler := handler.NewPackageHandler(packageService, logger)
	filesHandler := handler.NewFilesHandler(fileService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Tree read endpoints
	mux.HandleFunc("GET /categories/{$}", categoryHandler.ListRoots)
	mux.HandleFunc("GET /get_subcategories/{id}/{$}", categoryHandler.ListSubcategories)
	mux.HandleFunc("GET /get_details/{cat_id}/{sub_id}/{$}", packageHandler.ListDetails)

	// Category write endpoints
	mux.HandleFunc("POST /category/{$}", categoryHandler.Create)
	mux.HandleFunc("PATCH /category/{id}/{$}", categoryHandler.Update)
	mux.HandleFunc("DELETE /category/{id}/{$}", categoryHandler.Delete)

	// Package endpoints
	mux.HandleFunc("POST /package/{$}", packageHandler.Create)
	mux.HandleFunc("GET /package/{id}/{$}", packageHandler.Get)
	mux.HandleFunc("PATCH /package/{id}/{$}", packageHandler.Update)
	mux.HandleFunc("DELETE /package/{id}/{$}", packageHandler.Delete)

	// File assignment endpoints
	mux.HandleFunc("GET /uploads/{$}", filesHandler.ListUploads)
	mux.HandleFunc("POST /package/{id}/assign/{$}", filesHandler.Assign)
	mux.HandleFunc("POST /package/{id}/unassign/{$}", filesHandler.Unassign)

	// Build middleware chain, innermost first
	// Order: CORS → Request-ID → Recovery → Auth → Routes
	var h http.Handler = mux
	h = middleware.Auth(jwtVerifier)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestID(h)

	// CORS - must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
