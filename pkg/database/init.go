package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/lib/pq"
	"github.com/samber/lo"

	"github.com/Alijeyrad/formora_backend/config"
)

// InitializeDatabases creates the application and policy databases on the
// Postgres server through its maintenance database and returns the names it
// created. SQLite files are created on open, so sqlite setups get nil.
func InitializeDatabases(ctx context.Context, cfg *config.Config) ([]string, error) {
	if cfg.Database.Driver == DriverSQLite {
		return nil, nil
	}
	names := databaseNames(cfg)
	if len(names) == 0 {
		return nil, fmt.Errorf("no database names configured")
	}

	maint := FromCentralConfig(cfg.Database)
	maint.DBName = "postgres"
	conn, err := openSQLDB(maint)
	if err != nil {
		return nil, fmt.Errorf("connect to maintenance database: %w", err)
	}
	defer conn.Close()

	var created []string
	for _, name := range names {
		ok, err := createIfMissing(ctx, conn, name)
		if err != nil {
			return created, fmt.Errorf("create database %q: %w", name, err)
		}
		if ok {
			created = append(created, name)
		}
	}
	return created, nil
}

// databaseNames lists the Postgres databases the config points at. The
// policy database only counts when it lives on the same server.
func databaseNames(cfg *config.Config) []string {
	names := []string{cfg.Database.DBName}
	cb := cfg.CasbinDatabase
	if cb.Driver != DriverSQLite && cb.Host == cfg.Database.Host && cb.Port == cfg.Database.Port {
		names = append(names, cb.DBName)
	}
	names = lo.Uniq(lo.Compact(names))
	slices.Sort(names)
	return names
}

func createIfMissing(ctx context.Context, conn *sql.DB, name string) (bool, error) {
	var exists bool
	err := conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return false, err
	}
	return true, nil
}
