// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"ventra/internal/core/id"
	"ventra/internal/core/types"
	"ventra/internal/domain/access"
	"ventra/internal/domain/auth"
	"ventra/internal/domain/orders"
	"ventra/internal/infrastructure/storage/postgres"
	"ventra/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txm := postgres.NewTxManager(pool)

	adminID, err := seedSuperAdmin(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed super admin", "error", err)
	}
	_ = adminID

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, txm, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedSuperAdmin(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@ventra.io"
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID id.ID
	err := pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("super admin already exists", "email", adminEmail, "user_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, created_at)
		VALUES ($1, $2, $3, 'System Admin', $4, now())
	`, userID, adminEmail, passwordHash, string(access.RoleSuperAdmin))
	if err != nil {
		return id.Nil(), fmt.Errorf("insert super admin: %w", err)
	}

	log.Infow("super admin created", "email", adminEmail, "user_id", userID)
	return userID, nil
}

// seedDemoData bulk-loads branches, users, products, parts and orders via
// the COPY protocol inside one transaction.
func seedDemoData(ctx context.Context, txm *postgres.TxManager, log *logger.Logger) error {
	inserter := postgres.NewBatchInserter(txm)
	now := time.Now().UTC()
	rng := rand.New(rand.NewSource(now.UnixNano()))

	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		// --- Branches ---
		branchIDs := make([]id.ID, 0, 3)
		branchRows := make([][]any, 0, 3)
		for _, name := range []string{"North Branch", "Central Branch", "South Branch"} {
			branchID := id.New()
			branchIDs = append(branchIDs, branchID)
			branchRows = append(branchRows, []any{
				branchID, name, "contact@ventra.io", nil, nil, now,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, "branches",
			[]string{"id", "name", "contact_email", "latitude", "longitude", "created_at"},
			branchRows); err != nil {
			return fmt.Errorf("seed branches: %w", err)
		}

		// --- Users: branch admins, technicians, customers ---
		passwordHash, err := auth.HashPassword("Demo123!")
		if err != nil {
			return err
		}

		userCols := []string{"id", "email", "password_hash", "name", "role", "branch_id", "created_at"}
		userRows := make([][]any, 0, 32)

		for i, branchID := range branchIDs {
			bID := branchID
			userRows = append(userRows, []any{
				id.New(), fmt.Sprintf("admin%d@ventra.io", i+1), passwordHash,
				fmt.Sprintf("Branch Admin %d", i+1), string(access.RoleAdmin), &bID, now,
			})
		}
		for i := 0; i < 4; i++ {
			userRows = append(userRows, []any{
				id.New(), fmt.Sprintf("tech%d@ventra.io", i+1), passwordHash,
				fmt.Sprintf("Technician %d", i+1), string(access.RoleTechnician), nil, now,
			})
		}
		customerIDs := make([]id.ID, 0, 20)
		for i := 0; i < 20; i++ {
			customerID := id.New()
			customerIDs = append(customerIDs, customerID)
			userRows = append(userRows, []any{
				customerID, fmt.Sprintf("customer%d@example.com", i+1), passwordHash,
				fmt.Sprintf("Customer %d", i+1), string(access.RoleCustomer), nil, now,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, "users", userCols, userRows); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}

		// --- Products and pricing ---
		type demoProduct struct {
			name, model, brand string
			base               string
			discount           string
		}
		demoProducts := []demoProduct{
			{"Split AC 9000 BTU", "AC-9000", "CoolAir", "499.00", "0"},
			{"Split AC 12000 BTU", "AC-12000", "CoolAir", "649.00", "5"},
			{"Inverter AC 18000 BTU", "INV-18000", "FrostTech", "899.00", "10"},
			{"Portable AC 8000 BTU", "PORT-8000", "BreezeGo", "349.00", "0"},
			{"Ceiling Cassette 24000 BTU", "CAS-24000", "FrostTech", "1299.00", "7.5"},
		}

		productIDs := make([]id.ID, 0, len(demoProducts))
		productRows := make([][]any, 0, len(demoProducts))
		pricingRows := make([][]any, 0, len(demoProducts))
		for _, p := range demoProducts {
			productID := id.New()
			productIDs = append(productIDs, productID)
			productRows = append(productRows, []any{productID, p.name, p.model, p.brand, now})

			base := types.MustMoney(p.base)
			discount := types.MustMoney(p.discount)
			final := base.Sub(types.Percent(base, discount))
			pricingRows = append(pricingRows, []any{productID, base, discount, final})
		}
		if _, err := inserter.CopyFromSlice(ctx, "products",
			[]string{"id", "name", "model", "brand", "created_at"}, productRows); err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
		if _, err := inserter.CopyFromSlice(ctx, "product_pricing",
			[]string{"product_id", "base_price", "discount_pct", "final_price"}, pricingRows); err != nil {
			return fmt.Errorf("seed pricing: %w", err)
		}

		// --- Spare parts with initial stock entries ---
		partNames := []string{"Compressor", "Condenser Coil", "Fan Motor", "Thermostat", "Refrigerant Valve", "Air Filter"}
		partRows := make([][]any, 0, len(partNames))
		stockLogRows := make([][]any, 0, len(partNames))
		for _, name := range partNames {
			partID := id.New()
			stock := 5 + rng.Intn(45)
			partRows = append(partRows, []any{
				partID, name, stock, 5, types.MustMoney("25.00"), now, now,
			})
			stockLogRows = append(stockLogRows, []any{
				id.New(), partID, stock, "InitialStock", nil, "seed", now,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, "parts",
			[]string{"id", "name", "stock_count", "reorder_threshold", "unit_price", "created_at", "updated_at"},
			partRows); err != nil {
			return fmt.Errorf("seed parts: %w", err)
		}
		if _, err := inserter.CopyFromSlice(ctx, "stock_log",
			[]string{"id", "part_id", "delta_quantity", "type", "related_service_request_id", "notes", "created_at"},
			stockLogRows); err != nil {
			return fmt.Errorf("seed stock log: %w", err)
		}

		// --- Orders spread over the last 60 days ---
		statuses := []orders.OrderStatus{
			orders.StatusPending, orders.StatusApproved, orders.StatusCompleted,
			orders.StatusCompleted, orders.StatusCompleted, orders.StatusCancelled,
		}
		orderRows := make([][]any, 0, 200)
		for i := 0; i < 200; i++ {
			createdAt := now.AddDate(0, 0, -rng.Intn(60)).Add(-time.Duration(rng.Intn(86400)) * time.Second)
			productID := productIDs[rng.Intn(len(productIDs))]

			var customerID *id.ID
			guestName := ""
			if rng.Intn(10) < 8 {
				cID := customerIDs[rng.Intn(len(customerIDs))]
				customerID = &cID
			} else {
				guestName = fmt.Sprintf("Guest Buyer %d", i+1)
			}

			orderRows = append(orderRows, []any{
				id.New(), customerID, guestName,
				branchIDs[rng.Intn(len(branchIDs))],
				string(statuses[rng.Intn(len(statuses))]),
				orders.PaymentCashOnDelivery,
				[]id.ID{productID},
				types.MustMoney("15.00"), nil, nil,
				createdAt, createdAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, "orders",
			[]string{"id", "customer_id", "guest_name", "branch_id", "status", "payment_mode",
				"product_ids", "delivery_fee", "distance_km", "technician_id", "created_at", "updated_at"},
			orderRows); err != nil {
			return fmt.Errorf("seed orders: %w", err)
		}

		log.Infow("demo data seeded",
			"branches", len(branchRows),
			"users", len(userRows),
			"products", len(productRows),
			"parts", len(partRows),
			"orders", len(orderRows),
		)
		return nil
	})
}
