package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func postgresDSN(c Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// sqliteDSN turns on foreign keys for every pooled connection since ent's
// migrations create them. An empty path is a shared in-memory database.
func sqliteDSN(path string) string {
	pragmas := "_pragma=foreign_keys(1)"
	if path == "" {
		return "file:formora?mode=memory&cache=shared&" + pragmas
	}
	return "file:" + path + "?" + pragmas + "&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// openSQLDB opens and pings a pool sized from cfg.
func openSQLDB(cfg Config) (*sql.DB, error) {
	conn, err := sql.Open(cfg.DriverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DriverName(), err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.DriverName(), err)
	}
	return conn, nil
}
