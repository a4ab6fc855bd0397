// Package database provides the single-file embedded store for the faucet:
// block records, the share ledger, balances and the payout queue. All
// multi-row mutations run inside transactions.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jpillora/backoff"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps the underlying gorm connection to the sqlite file.
type DB struct {
	db *gorm.DB
}

// New opens (creating if needed) the sqlite database at the provided path
// and migrates the schema. Opening is retried with backoff since the file
// can be briefly locked by a previous process during restarts.
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	b := &backoff.Backoff{
		Factor: 1.5,
		Min:    250 * time.Millisecond,
		Max:    4 * time.Second,
	}

	var db *gorm.DB
	var err error

	for {
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		if err == nil {
			break
		}

		d := b.Duration()
		if d == b.Max {
			return nil, fmt.Errorf("opening database %q: %w", dbPath, err)
		}
		time.Sleep(d)
	}

	// Write-ahead journaling keeps readers from blocking the block
	// finalization writer; the busy timeout covers short lock contention.
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if err := db.Exec("PRAGMA busy_timeout=5000").Error; err != nil {
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if err := db.Exec("PRAGMA foreign_keys=ON").Error; err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := db.AutoMigrate(&Meta{}, &Block{}, &Share{}, &Balance{}, &Payout{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close releases the underlying database handle.
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Tx runs the callback inside a single transaction.
func (d *DB) Tx(callback func(tx *gorm.DB) error) error {
	return d.db.Transaction(callback)
}
