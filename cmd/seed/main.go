package main

import (
	"context"
	"os"
	"time"

	"github.com/ariefcatur/go-geoprice/internal/catalog"
	"github.com/ariefcatur/go-geoprice/internal/config"
	"github.com/ariefcatur/go-geoprice/internal/logging"
	"github.com/ariefcatur/go-geoprice/internal/postgres"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

var sampleProducts = []catalog.NewProduct{
	{
		Name:        "Wireless Bluetooth Headphones",
		Description: "Premium noise-cancelling wireless headphones with 30-hour battery life and superior sound quality. Perfect for music lovers and professionals.",
		BasePrice:   decimal.RequireFromString("149.99"),
		SKU:         "WBH-001",
		Images: []string{
			"https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=800",
			"https://images.unsplash.com/photo-1484704849700-f032a568e944?w=800",
		},
	},
	{
		Name:        "Smart Fitness Watch",
		Description: "Advanced fitness tracker with heart rate monitoring, GPS, sleep tracking, and 50+ sport modes. Water-resistant up to 50 meters.",
		BasePrice:   decimal.RequireFromString("249.99"),
		SKU:         "SFW-002",
		Images: []string{
			"https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=800",
			"https://images.unsplash.com/photo-1546868871-7041f2a55e12?w=800",
		},
	},
	{
		Name:        "Portable Power Bank 20000mAh",
		Description: "High-capacity portable charger with fast charging technology. Charge multiple devices simultaneously with dual USB ports and USB-C.",
		BasePrice:   decimal.RequireFromString("59.99"),
		SKU:         "PPB-003",
		Images: []string{
			"https://images.unsplash.com/photo-1609091839311-d5365f9ff1c5?w=800",
			"https://images.unsplash.com/photo-1624823183493-ed5832f48f18?w=800",
		},
	},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel).With("service", "geoprice-seed")
	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("db migrate", "err", err)
		os.Exit(1)
	}

	svc := &catalog.Service{Repo: &catalog.Repo{DB: db}, Log: log}
	var inserted, skipped int
	for _, in := range sampleProducts {
		p, created, err := svc.EnsureBySKU(ctx, in)
		if err != nil {
			log.Error("seed product", "sku", in.SKU, "err", err)
			db.Close()
			os.Exit(1)
		}
		if !created {
			log.Info("product already exists, skipping", "sku", p.SKU)
			skipped++
			continue
		}
		log.Info("product inserted", "id", p.ID, "name", p.Name, "sku", p.SKU)
		inserted++
	}
	log.Info("seeding complete", "inserted", inserted, "skipped", skipped)
}
