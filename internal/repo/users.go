package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// User is an account that owns forms.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

var userColumns = []string{"id", "email", "name", "password_hash", "created_at", "last_login_at"}

// CreateUser stores u with a new id. Emails are compared case-insensitively;
// a taken email yields ErrConflict.
func (c *Client) CreateUser(ctx context.Context, u User) (User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	u.ID = id.String()
	u.Email = normalizeEmail(u.Email)
	u.CreatedAt = c.now().UTC()
	u.LastLoginAt = nil

	q := c.builder().Insert(UsersTable.Name).
		Columns(userColumns...).
		Values(u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, nil)
	if _, err := c.exec(ctx, q); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (User, error) {
	return c.getUserBy(ctx, "id", id)
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return c.getUserBy(ctx, "email", normalizeEmail(email))
}

// TouchLogin records a successful sign in.
func (c *Client) TouchLogin(ctx context.Context, id string) error {
	q := c.builder().Update(UsersTable.Name).
		Set("last_login_at", c.now().UTC()).
		Where(entsql.EQ("id", id))
	res, err := c.exec(ctx, q)
	if err == nil {
		err = affected(res)
	}
	if err != nil {
		return fmt.Errorf("touch login %s: %w", id, err)
	}
	return nil
}

func (c *Client) getUserBy(ctx context.Context, column, value string) (User, error) {
	b := c.builder()
	t := b.Table(UsersTable.Name)
	q := b.Select(t.Columns(userColumns...)...).From(t).Where(entsql.EQ(t.C(column), value))

	rows, err := c.query(ctx, q)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return User{}, fmt.Errorf("get user: %w", err)
		}
		return User{}, fmt.Errorf("get user: %w", ErrNotFound)
	}
	var (
		u     User
		login sql.NullTime
	)
	if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &login); err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	if login.Valid {
		t := login.Time.UTC()
		u.LastLoginAt = &t
	}
	return u, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
