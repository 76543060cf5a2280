package sqlite

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/config"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/category"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/order"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/product"
)

// Open connects to the client-private SQLite mirror and migrates its
// schema. Each call returns an independent handle; there is no process-wide
// instance, so tests and sessions get isolated databases.
func Open(cfg *config.SQLiteConfig) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", cfg.Path, err)
	}

	if err := db.AutoMigrate(
		&category.Category{},
		&product.Product{},
		&order.Order{},
		&order.OrderItem{},
	); err != nil {
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return db, nil
}
