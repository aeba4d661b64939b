// Package testutil builds migrated in-memory stores and fixtures for
// package tests.
package testutil

import (
	"testing"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/config"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/migration"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory database with the full schema. The pool
// holds a single connection, so concurrent callers serialize on it the same
// way writers serialize on a SQLite file.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open(config.DatabaseConfig{DSN: "file::memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migration.RunMigrations(sqlDB); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return conn
}

func NewNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}
