package db

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/BookClub/BookClub-Backend/src/config"
	"github.com/BookClub/BookClub-Backend/src/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database configured in cfg
func Connect(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.DBDSN))
	default:
		dialector = postgres.Open(cfg.DBDSN)
	}

	db, err := Open(dialector, logger.Warn)
	if err != nil {
		log.Error("error connecting to database", "driver", cfg.DBDriver, "error", err)
		return nil, err
	}

	log.Info("BookClub DB connected successfully", "driver", cfg.DBDriver)
	return db, nil
}

// Open wraps gorm.Open with the settings every connection shares
func Open(dialector gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer, serialise access through one connection
	if dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// SQLiteDSN turns on foreign keys and a busy timeout unless the DSN already sets options
func SQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", path)
}

// partialIndexes back the borrowing invariants at the storage level.
// Both Postgres and SQLite accept partial unique indexes with this syntax.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_one_approved_per_book
		ON transaction_models (book_id) WHERE status = 'Approved'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_active_request
		ON transaction_models (borrower_id, book_id) WHERE status IN ('Requested', 'Approved')`,
}

// Migrate creates or updates every table and index the server needs
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.ClubModel{},
		&models.UserModel{},
		&models.BookModel{},
		&models.BookCodeSequenceModel{},
		&models.TransactionModel{},
		&models.ReviewModel{},
		&models.NotificationModel{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
