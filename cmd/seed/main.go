// Seeds a local database with advertisers and package definitions for
// development and manual testing.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"advertiser-billing/internal/config"
	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/domain/ports/repository"
	pg "advertiser-billing/internal/infra/db/postgres"
)

func main() {
	ctx := context.Background()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	advertisers := pg.NewAdvertiserRepo(pool)
	packages := pg.NewPackageRepo(pool)

	seedAdvertisers := []struct{ company, email string }{
		{"Acme Outdoor Media", "billing@acme-outdoor.example"},
		{"Northwind Classifieds", "accounts@northwind.example"},
		{"Globex Promotions", "finance@globex.example"},
	}
	for _, a := range seedAdvertisers {
		adv, err := model.NewAdvertiser(uuid.NewString(), a.company, a.email)
		if err != nil {
			log.Fatalf("advertiser %s: %v", a.company, err)
		}
		if err := advertisers.Save(ctx, repository.NoTX, adv); err != nil {
			log.Fatalf("save advertiser %s: %v", a.company, err)
		}
		log.Printf("advertiser %s id=%s", a.company, adv.ID)
	}

	seedPackages := []struct {
		name   string
		months int
		price  string
	}{
		{"Starter Monthly", 1, "2999.00"},
		{"Business Quarterly", 3, "7999.00"},
		{"Premium Annual", 12, "24999.00"},
	}
	for _, p := range seedPackages {
		price, _ := decimal.NewFromString(p.price)
		pkg, err := model.NewPackageDefinition(uuid.NewString(), p.name, p.months, price)
		if err != nil {
			log.Fatalf("package %s: %v", p.name, err)
		}
		if err := packages.Save(ctx, repository.NoTX, pkg); err != nil {
			log.Fatalf("save package %s: %v", p.name, err)
		}
		log.Printf("package %s id=%s", p.name, pkg.ID)
	}
}
