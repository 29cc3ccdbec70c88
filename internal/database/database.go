package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"doner/internal/models"
	"doner/internal/repositories"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlitePragmas make sqlite usable by concurrent writers: WAL lets readers see
// committed state while a write transaction is open, and BEGIN IMMEDIATE
// serializes writers up front instead of failing on lock upgrade.
var sqlitePragmas = []string{
	"_journal_mode=WAL",
	"_busy_timeout=5000",
	"_txlock=immediate",
	"_foreign_keys=1",
}

// Open connects to the configured store.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(SQLiteDSN(dsn))
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" && strings.HasSuffix(dsn, ".db") {
		log.Printf("Using SQLite (%s) - consider PostgreSQL for heavy concurrent load.", dsn)
	}
	return db, nil
}

// SQLiteDSN appends the pragmas the ledger relies on to a sqlite path or URI.
func SQLiteDSN(dsn string) string {
	var missing []string
	for _, p := range sqlitePragmas {
		key := p[:strings.Index(p, "=")+1]
		if !strings.Contains(dsn, key) {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(missing, "&")
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.CatalogItem{},
		&models.StagedCart{},
		&models.Order{},
		&models.ConsumedToken{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// DefaultMenu is the catalog an empty store is seeded with.
func DefaultMenu() []models.CatalogItem {
	return []models.CatalogItem{
		{Name: "Classic Kebab", Price: decimal.RequireFromString("120.00"), Description: "Chicken, cucumber, tomatoes, house sauce", Category: "Classic", Emoji: "🌯"},
		{Name: "Cheese Bomb", Price: decimal.RequireFromString("140.00"), Description: "Three types of cheese, garlic sauce, chicken", Category: "Cheese", Emoji: "🧀"},
		{Name: "Spicy Dragon", Price: decimal.RequireFromString("135.00"), Description: "Jalapeno, hot chili sauce, beef", Category: "Spicy", Emoji: "🌶️"},
		{Name: "Vegan Style", Price: decimal.RequireFromString("110.00"), Description: "Falafel, hummus, fresh vegetables", Category: "Vegan", Emoji: "🥗"},
		{Name: "Cola Zero", Price: decimal.RequireFromString("50.00"), Description: "0.5L, cold", Category: "Drinks", Emoji: "🥤"},
		{Name: "Ayran", Price: decimal.RequireFromString("40.00"), Description: "Homemade, salted", Category: "Drinks", Emoji: "🥛"},
	}
}

// Seed populates an empty catalog with DefaultMenu. It is a no-op otherwise.
func Seed(ctx context.Context, repo repositories.CatalogRepository) error {
	existing, err := repo.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	items := DefaultMenu()
	for i := range items {
		if err := repo.Create(ctx, &items[i]); err != nil {
			return fmt.Errorf("failed to seed %s: %w", items[i].Name, err)
		}
		log.Printf("Seeded catalog item: %s (ID: %d)", items[i].Name, items[i].ID)
	}
	return nil
}

func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.Contains(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}
