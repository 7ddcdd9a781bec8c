// Package repo persists users, forms and responses through the ent SQL
// builder. It runs on Postgres in production and on SQLite in tests.
package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
)

type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Client is safe for concurrent use. A Client handed to a WithTx callback is
// bound to that transaction.
type Client struct {
	db      *sql.DB
	dialect string
	conn    conn
	inTx    bool
	now     func() time.Time
}

// NewClient wraps an open database. dialectName is dialect.Postgres or
// dialect.SQLite.
func NewClient(db *sql.DB, dialectName string) *Client {
	return &Client{db: db, dialect: dialectName, conn: db, now: time.Now}
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Dialect() string {
	return c.dialect
}

// Migrate creates or updates every table.
func (c *Client) Migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(entsql.OpenDB(c.dialect, c.db))
	if err != nil {
		return fmt.Errorf("repo: migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("repo: migrate: %w", err)
	}
	return nil
}

// WithTx runs fn inside one transaction. It commits when fn returns nil and
// rolls back otherwise. Nested calls join the outer transaction.
func (c *Client) WithTx(ctx context.Context, fn func(tx *Client) error) error {
	if c.inTx {
		return fn(c)
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repo: begin tx: %w", err)
	}
	txc := &Client{db: c.db, dialect: c.dialect, conn: tx, inTx: true, now: c.now}
	if err := fn(txc); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("repo: commit: %w", err)
	}
	return nil
}

func (c *Client) builder() *entsql.DialectBuilder {
	return entsql.Dialect(c.dialect)
}

func (c *Client) exec(ctx context.Context, q entsql.Querier) (sql.Result, error) {
	query, args := q.Query()
	res, err := c.conn.ExecContext(ctx, query, args...)
	return res, translate(err)
}

func (c *Client) query(ctx context.Context, q entsql.Querier) (*sql.Rows, error) {
	query, args := q.Query()
	rows, err := c.conn.QueryContext(ctx, query, args...)
	return rows, translate(err)
}

// affected turns a zero row count into ErrNotFound.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func orderBy(s *entsql.Selector, column string, desc bool) {
	var opts []entsql.OrderTermOption
	if desc {
		opts = append(opts, entsql.OrderDesc())
	}
	entsql.OrderByField(column, opts...).ToFunc()(s)
}
