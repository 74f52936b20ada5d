// Command seeder populates a database with demo data: a small product
// catalog, a container with a few items inside, and two enrolled RFID
// tags. It is intended for local development, not production.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/adapter/postgres"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/audit"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/detection"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/item"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/movement"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/product"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/tag"
	"github.com/rentstack/assettrack-backend/internal/app"
	"github.com/rentstack/assettrack-backend/internal/config"
	"github.com/rentstack/assettrack-backend/internal/domain"
	"github.com/rentstack/assettrack-backend/internal/service/inventory"
	"github.com/rentstack/assettrack-backend/internal/service/rfid"
	"github.com/rentstack/assettrack-backend/migrations"
	"github.com/rentstack/assettrack-backend/pkg/ctxutil"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := postgres.Migrate(ctx, cfg.Database.DSN, migrations.FS); err != nil {
		logger.Error("migrate", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	itemRepo := item.New(pool)
	productRepo := product.New(pool)
	txManager := postgres.NewTxManager(pool)

	inventorySvc := inventory.NewService(
		logger, itemRepo, movement.New(pool), tag.New(pool), audit.New(pool), txManager, cfg.Inventory)
	rfidSvc := rfid.NewService(
		logger, tag.New(pool), detection.New(pool), itemRepo, audit.New(pool), txManager, cfg.RFID)

	// All seeded movements and audit records are attributed to one
	// synthetic operator.
	seedUser := uuid.New()
	ctx = ctxutil.WithUserID(ctx, seedUser)

	products := []domain.Product{
		{ID: uuid.New(), Name: "ThinkPad T14 Gen 5", SKU: "LAP-T14-G5", Category: ptr("laptops")},
		{ID: uuid.New(), Name: "Zebra FX9600 Reader", SKU: "RFID-FX9600", Category: ptr("rfid")},
		{ID: uuid.New(), Name: "Pelican 1620 Case", SKU: "CASE-1620", Category: ptr("cases")},
	}
	for i := range products {
		if err := productRepo.Create(ctx, &products[i]); err != nil {
			logger.Error("seed product", slog.String("sku", products[i].SKU), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	container, err := inventorySvc.CreateItem(ctx, inventory.CreateItemInput{
		AssetTag:  ptr("CASE-0001"),
		Kind:      domain.ItemKindContainer,
		Location:  "Warehouse A",
		ProductID: &products[2].ID,
	})
	if err != nil {
		logger.Error("seed container", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var laptops []*domain.InventoryItem
	for _, serial := range []string{"PF4X2201", "PF4X2202", "PF4X2203"} {
		it, err := inventorySvc.CreateItem(ctx, inventory.CreateItemInput{
			SerialNumber: ptr(serial),
			Kind:         domain.ItemKindUnit,
			Location:     "Warehouse A",
			ContainerID:  &container.ID,
			ProductID:    &products[0].ID,
		})
		if err != nil {
			logger.Error("seed item", slog.String("serial", serial), slog.String("error", err.Error()))
			os.Exit(1)
		}
		laptops = append(laptops, it)
	}

	for i, epc := range []string{"E28011700000020000000001", "E28011700000020000000002"} {
		if _, err := rfidSvc.RegisterTag(ctx, rfid.RegisterTagInput{
			EPC:    epc,
			ItemID: &laptops[i].ID,
		}); err != nil {
			logger.Error("seed tag", slog.String("epc", epc), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("seed completed",
		slog.Int("products", len(products)),
		slog.Int("items", len(laptops)+1),
		slog.Int("tags", 2),
	)
}

func ptr(s string) *string { return &s }
