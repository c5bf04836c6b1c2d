// Package testutil はテスト用のデータベースヘルパーを提供する。
package testutil

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/hitoshi/todoman/internal/database"
)

var nameReplacer = strings.NewReplacer("/", "_", " ", "_", "?", "_", "&", "_")

// OpenInMemoryDB はマイグレーション適用済みのインメモリSQLiteデータベースを開く。
// テスト名ごとに独立したデータベースになる。Closeはt.Cleanupで行う。
func OpenInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	name := nameReplacer.Replace(t.Name())
	db, err := database.Open("sqlite3://file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
