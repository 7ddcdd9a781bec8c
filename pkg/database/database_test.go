package database

import (
	"context"
	"path/filepath"
	"testing"

	"entgo.io/ent/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/formora_backend/config"
)

func TestConfig_DSN(t *testing.T) {
	pg := DefaultConfig()
	pg.User, pg.Password, pg.DBName = "u", "p", "formora"
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=formora sslmode=disable", pg.DSN())
	assert.Equal(t, dialect.Postgres, pg.Dialect())
	assert.Equal(t, "postgres", pg.DriverName())

	lite := Config{Driver: DriverSQLite, Path: "/tmp/f.db"}
	assert.Contains(t, lite.DSN(), "file:/tmp/f.db?")
	assert.Contains(t, lite.DSN(), "foreign_keys(1)")
	assert.Equal(t, dialect.SQLite, lite.Dialect())
}

func TestNewRepoClient_SQLite(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "formora.db")}
	client, err := NewRepoClientFromConfig(cfg)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, Migrate(context.Background(), client))
	n, err := client.CountResponsesByForm(context.Background(), "none")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDatabaseNames(t *testing.T) {
	cfg := &config.Config{
		Database:       config.DatabaseConfig{Host: "db", Port: 5432, DBName: "formora"},
		CasbinDatabase: config.DatabaseConfig{Host: "db", Port: 5432, DBName: "formora_casbin"},
	}
	assert.Equal(t, []string{"formora", "formora_casbin"}, databaseNames(cfg))

	cfg.CasbinDatabase.DBName = "formora"
	assert.Equal(t, []string{"formora"}, databaseNames(cfg))

	cfg.CasbinDatabase = config.DatabaseConfig{Host: "policy-db", Port: 5432, DBName: "casbin"}
	assert.Equal(t, []string{"formora"}, databaseNames(cfg), "other servers are left alone")

	created, err := InitializeDatabases(context.Background(), &config.Config{Database: config.DatabaseConfig{Driver: DriverSQLite}})
	require.NoError(t, err)
	assert.Nil(t, created)
}
