package repo

import (
	"context"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/formora_backend/internal/form"
)

var formColumns = []string{"id", "owner_id", "title", "description", "fields", "is_active", "created_at", "updated_at"}

// CreateForm stores f. An empty id is replaced with a new UUIDv7.
func (c *Client) CreateForm(ctx context.Context, f form.Form) (form.Form, error) {
	if f.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return form.Form{}, fmt.Errorf("create form: %w", err)
		}
		f.ID = id.String()
	}
	fields, err := encodeFields(f.Fields)
	if err != nil {
		return form.Form{}, fmt.Errorf("create form: %w", err)
	}
	now := c.now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now

	q := c.builder().Insert(FormsTable.Name).
		Columns(formColumns...).
		Values(f.ID, f.OwnerID, f.Title, f.Description, fields, f.IsActive, now, now)
	if _, err := c.exec(ctx, q); err != nil {
		return form.Form{}, fmt.Errorf("create form: %w", err)
	}
	return f.Clone(), nil
}

func (c *Client) GetForm(ctx context.Context, id string) (form.Form, error) {
	b := c.builder()
	t := b.Table(FormsTable.Name)
	q := b.Select(t.Columns(formColumns...)...).From(t).Where(entsql.EQ(t.C("id"), id))

	forms, err := c.scanForms(ctx, q)
	if err != nil {
		return form.Form{}, fmt.Errorf("get form: %w", err)
	}
	if len(forms) == 0 {
		return form.Form{}, fmt.Errorf("get form %s: %w", id, ErrNotFound)
	}
	return forms[0], nil
}

// ListFormsByOwner returns the owner's forms, newest first.
func (c *Client) ListFormsByOwner(ctx context.Context, ownerID string) ([]form.Form, error) {
	b := c.builder()
	t := b.Table(FormsTable.Name)
	q := b.Select(t.Columns(formColumns...)...).From(t).Where(entsql.EQ(t.C("owner_id"), ownerID))
	orderBy(q, "created_at", true)
	orderBy(q, "id", true)

	forms, err := c.scanForms(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return forms, nil
}

// SaveForm overwrites the mutable columns of an existing form. Concurrent
// saves are last write wins.
func (c *Client) SaveForm(ctx context.Context, f form.Form) (form.Form, error) {
	fields, err := encodeFields(f.Fields)
	if err != nil {
		return form.Form{}, fmt.Errorf("save form: %w", err)
	}
	f.UpdatedAt = c.now().UTC()

	q := c.builder().Update(FormsTable.Name).
		Set("title", f.Title).
		Set("description", f.Description).
		Set("fields", fields).
		Set("is_active", f.IsActive).
		Set("updated_at", f.UpdatedAt).
		Where(entsql.EQ("id", f.ID))
	res, err := c.exec(ctx, q)
	if err == nil {
		err = affected(res)
	}
	if err != nil {
		return form.Form{}, fmt.Errorf("save form %s: %w", f.ID, err)
	}
	return f.Clone(), nil
}

// UpdateForm merges p into the stored form inside one transaction.
func (c *Client) UpdateForm(ctx context.Context, id string, p form.FormPatch) (form.Form, error) {
	var out form.Form
	err := c.WithTx(ctx, func(tx *Client) error {
		cur, err := tx.GetForm(ctx, id)
		if err != nil {
			return err
		}
		out, err = tx.SaveForm(ctx, form.ApplyPatch(cur, p))
		return err
	})
	return out, err
}

// DeleteForm removes the form and all of its responses.
func (c *Client) DeleteForm(ctx context.Context, id string) error {
	return c.WithTx(ctx, func(tx *Client) error {
		if _, err := tx.exec(ctx, tx.builder().Delete(ResponsesTable.Name).Where(entsql.EQ("form_id", id))); err != nil {
			return fmt.Errorf("delete responses of %s: %w", id, err)
		}
		res, err := tx.exec(ctx, tx.builder().Delete(FormsTable.Name).Where(entsql.EQ("id", id)))
		if err == nil {
			err = affected(res)
		}
		if err != nil {
			return fmt.Errorf("delete form %s: %w", id, err)
		}
		return nil
	})
}

func (c *Client) scanForms(ctx context.Context, q *entsql.Selector) ([]form.Form, error) {
	rows, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []form.Form
	for rows.Next() {
		var (
			f      form.Form
			fields []byte
		)
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Title, &f.Description, &fields, &f.IsActive, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(fields, &f.Fields); err != nil {
			return nil, fmt.Errorf("decode fields of %s: %w", f.ID, err)
		}
		f.CreatedAt = f.CreatedAt.UTC()
		f.UpdatedAt = f.UpdatedAt.UTC()
		out = append(out, f)
	}
	return out, rows.Err()
}

// encodeFields returns the JSON text for the fields column. lib/pq sends
// []byte as bytea, so jsonb columns get a string.
func encodeFields(fields []form.Field) (string, error) {
	if fields == nil {
		fields = []form.Field{}
	}
	b, err := json.Marshal(fields)
	return string(b), err
}
