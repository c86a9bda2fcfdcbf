// Package main is the entry point for the Ventra API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ventra/internal/core/tx"
	"ventra/internal/domain"
	"ventra/internal/domain/analytics"
	"ventra/internal/domain/auth"
	"ventra/internal/domain/branch"
	"ventra/internal/domain/catalog"
	"ventra/internal/domain/customers"
	"ventra/internal/domain/inventory"
	"ventra/internal/domain/orders"
	"ventra/internal/domain/servicereq"
	v1 "ventra/internal/infrastructure/http/v1"
	"ventra/internal/infrastructure/storage/memory"
	"ventra/internal/infrastructure/storage/postgres"
	"ventra/pkg/logger"
)

// repos bundles every store-backed dependency the router needs, so the
// postgres and memory drivers can be swapped behind one seam.
type repos struct {
	accounts  auth.Repository
	users     customers.Repository
	orders    orders.Repository
	branches  branch.Repository
	catalog   catalog.Repository
	inventory inventory.Repository
	requests  servicereq.Repository
	auditor   domain.Auditor
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting ventra server")

	var (
		deps             repos
		pool             *postgres.Pool
		idempotencyStore *postgres.IdempotencyStore
		roTx             tx.ReadOnlyManager
	)

	driver := getEnv("STORE_DRIVER", "postgres")
	switch driver {
	case "postgres":
		dsn := mustEnv("DATABASE_URL")
		pool, err = postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		log.Info("database connection established")

		txm := postgres.NewTxManager(pool)
		roTx = txm

		auditor, err := postgres.NewAuditService(txm)
		if err != nil {
			log.Fatalw("failed to initialize audit service", "error", err)
		}

		deps = repos{
			accounts:  postgres.NewAccountRepo(txm),
			users:     postgres.NewUserRepo(txm),
			orders:    postgres.NewOrderRepo(txm),
			branches:  postgres.NewBranchRepo(txm),
			catalog:   postgres.NewCatalogRepo(txm),
			inventory: postgres.NewInventoryRepo(txm),
			requests:  postgres.NewServiceRequestRepo(txm),
			auditor:   auditor,
		}

		if getEnv("IDEMPOTENCY_ENABLED", "false") == "true" {
			idempotencyStore = postgres.NewIdempotencyStore(txm, v1.DefaultIdempotencyTTL)
			go func() {
				ticker := time.NewTicker(v1.DefaultIdempotencyTTL)
				defer ticker.Stop()
				for range ticker.C {
					if n, err := idempotencyStore.CleanupExpired(ctx); err != nil {
						log.Warnw("idempotency cleanup failed", "error", err)
					} else if n > 0 {
						log.Infow("expired idempotency keys removed", "count", n)
					}
				}
			}()
		}

		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				postgres.LogPoolStats(ctx, pool.Unwrap())
			}
		}()

	case "memory":
		store := memory.NewStore()
		deps = repos{
			accounts:  store.Accounts(),
			users:     store.Users(),
			orders:    store.Orders(),
			branches:  store.Branches(),
			catalog:   store.Catalog(),
			inventory: store.Inventory(),
			requests:  store.ServiceRequests(),
			auditor:   memory.NewAuditor(),
		}
		log.Info("using in-memory store")

	default:
		log.Fatalw("unknown store driver", "driver", driver)
	}

	// --- JWT ---
	jwtSecret := mustEnv("JWT_SECRET")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Domain services ---
	authService := auth.NewService(deps.accounts, jwtService)
	orderService := orders.NewService(deps.orders, deps.auditor)
	customerService := customers.NewService(deps.users, deps.orders)
	catalogService := catalog.NewService(deps.catalog)
	analyticsService := analytics.NewService(deps.orders, catalogService, deps.branches, roTx)
	inventoryService := inventory.NewService(deps.inventory, deps.auditor)
	serviceReqService := servicereq.NewService(deps.requests, inventoryService, deps.orders)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:           log,
		JWTValidator:     jwtService,
		Pool:             pool,
		IdempotencyStore: idempotencyStore,
		AuthService:      authService,
		OrderService:     orderService,
		CustomerService:  customerService,
		AnalyticsService: analyticsService,
		CatalogService:   catalogService,
		CatalogRepo:      deps.catalog,
		BranchRepo:       deps.branches,
		InventoryService: inventoryService,
		InventoryRepo:    deps.inventory,
		ServiceReqSvc:    serviceReqService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port, "store", driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
