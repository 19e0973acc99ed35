// Command seed applies the schema and loads a demo catalog.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/prperemyshlev/grocery-store/internal/config"
	"github.com/prperemyshlev/grocery-store/internal/domain"
	"github.com/prperemyshlev/grocery-store/internal/repository"
	"github.com/prperemyshlev/grocery-store/internal/utils"
	"github.com/prperemyshlev/grocery-store/migrations"
	"github.com/prperemyshlev/grocery-store/pkg/database"
	"github.com/prperemyshlev/grocery-store/pkg/observability"
	"github.com/sethvargo/go-envconfig"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const sampleStock = 100

type seedConfig struct {
	Postgres   config.PostgresConfig `env:",prefix=POSTGRES_"`
	BCryptCost int                   `env:"BCRYPT_COST,default=10"`
	Env        string                `env:"ENV,default=development"`
}

func main() {
	force := flag.Bool("force", false, "insert the catalog even when products already exist")
	admin := flag.String("admin", "", "create or promote an admin, given as email:password")
	flag.Parse()

	ctx := context.Background()

	var cfg seedConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := observability.InitLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, *force, *admin, logger); err != nil {
		logger.Error("Seeding failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg seedConfig, force bool, admin string, logger *zap.Logger) error {
	if err := database.Migrate(cfg.Postgres.DSN(), migrations.FS); err != nil {
		return err
	}

	pg, err := database.NewPostgres(cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pg.Close()

	repos := repository.NewRepositories(pg)

	if err := seedCatalog(ctx, repos, force, logger); err != nil {
		return err
	}

	if admin != "" {
		if err := seedAdmin(ctx, repos, admin, cfg.BCryptCost, logger); err != nil {
			return err
		}
	}

	return nil
}

func seedCatalog(ctx context.Context, repos *repository.Repositories, force bool, logger *zap.Logger) error {
	count, err := repos.Product.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 && !force {
		logger.Info("Catalog already has products, skipping (use -force to insert anyway)", zap.Int("count", count))
		return nil
	}

	inserted := 0
	err = repos.WithinTx(ctx, func(tx *repository.Repositories) error {
		for _, group := range sampleCatalog {
			for _, sample := range group.products {
				product := &domain.Product{
					Title:       sample.title,
					Description: sample.description,
					Image:       imageBase + slug(sample.title) + ".jpg",
					Category:    group.category,
					Price:       decimal.RequireFromString(sample.price),
					Stock:       sampleStock,
				}
				if err := tx.Product.Create(ctx, product); err != nil {
					return err
				}
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Catalog seeded", zap.Int("products", inserted), zap.Int("categories", len(sampleCatalog)))
	return nil
}

func seedAdmin(ctx context.Context, repos *repository.Repositories, credentials string, bcryptCost int, logger *zap.Logger) error {
	email, password, ok := strings.Cut(credentials, ":")
	email = strings.ToLower(strings.TrimSpace(email))
	if !ok || email == "" || password == "" {
		return errors.New("-admin must look like email:password")
	}

	existing, err := repos.User.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := repos.User.UpdateRole(ctx, existing.ID, domain.RoleAdmin); err != nil {
			return err
		}
		logger.Info("Existing user promoted to admin", zap.String("email", email))
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return err
	}

	user := &domain.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := repos.User.Create(ctx, user); err != nil {
		return err
	}

	logger.Info("Admin created", zap.String("email", email))
	return nil
}

// slug lowercases title and joins its words with dashes, dropping accents.
func slug(title string) string {
	replacer := strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n")
	return strings.Join(strings.Fields(replacer.Replace(strings.ToLower(title))), "-")
}
