// Package repotest opens migrated in-memory repositories for tests.
package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"entgo.io/ent/dialect"
	_ "modernc.org/sqlite"

	"github.com/Alijeyrad/formora_backend/internal/repo"
)

// New returns a client on a private in-memory sqlite database.
func New(t testing.TB) *repo.Client {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)

	c := repo.NewClient(db, dialect.SQLite)
	if err := c.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}
