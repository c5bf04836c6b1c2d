// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite3/*.sql
var migrationsFS embed.FS

// NewMigrator は既存の接続を使うmigrateインスタンスを生成する。
// マイグレーションはドライバごとのディレクトリ（migrations/<driver>）から読み込む。
// 返されたインスタンスのCloseはdbも閉じるため、dbを使い続ける場合は呼ばないこと。
func NewMigrator(db *sql.DB, driver Driver) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations/"+string(driver))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	var instance migratedb.Driver
	switch driver {
	case DriverPostgres:
		instance, err = migratepg.WithInstance(db, &migratepg.Config{})
	case DriverSQLite:
		instance, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported driver: %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(driver), instance)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// Migrate は既存の接続に対してすべてのマイグレーションを適用する。
// すでに最新の場合はエラーなしで返る。
func Migrate(db *sql.DB, driver Driver) error {
	m, err := NewMigrator(db, driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// RunMigrations はDATABASE_URLで指定されたデータベースにすべてのマイグレーションを適用する。
func RunMigrations(databaseURL string) error {
	driver, _, err := ParseURL(databaseURL)
	if err != nil {
		return err
	}

	db, err := Open(databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	return Migrate(db, driver)
}
