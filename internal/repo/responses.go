package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/formora_backend/internal/form"
)

var responseColumns = []string{"id", "form_id", "answers", "source_address", "submitted_at"}

// ListOptions pages through responses. A zero Limit returns every row.
type ListOptions struct {
	Limit  int
	Offset int
}

// CreateResponse stores r. The id and submission time are assigned here.
func (c *Client) CreateResponse(ctx context.Context, r form.Response) (form.Response, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return form.Response{}, fmt.Errorf("create response: %w", err)
	}
	r.ID = id.String()
	r.SubmittedAt = c.now().UTC()

	values := r.Values
	if values == nil {
		values = form.Values{}
	}
	answers, err := json.Marshal(values)
	if err != nil {
		return form.Response{}, fmt.Errorf("create response: %w", err)
	}
	var source any
	if r.SourceAddress != "" {
		source = r.SourceAddress
	}

	q := c.builder().Insert(ResponsesTable.Name).
		Columns(responseColumns...).
		Values(r.ID, r.FormID, string(answers), source, r.SubmittedAt)
	if _, err := c.exec(ctx, q); err != nil {
		return form.Response{}, fmt.Errorf("create response: %w", err)
	}
	r.Values = values.Clone()
	return r, nil
}

func (c *Client) GetResponse(ctx context.Context, id string) (form.Response, error) {
	b := c.builder()
	t := b.Table(ResponsesTable.Name)
	q := b.Select(t.Columns(responseColumns...)...).From(t).Where(entsql.EQ(t.C("id"), id))

	rs, err := c.scanResponses(ctx, q)
	if err != nil {
		return form.Response{}, fmt.Errorf("get response: %w", err)
	}
	if len(rs) == 0 {
		return form.Response{}, fmt.Errorf("get response %s: %w", id, ErrNotFound)
	}
	return rs[0], nil
}

// ListResponsesByForm returns a form's responses, most recent first.
func (c *Client) ListResponsesByForm(ctx context.Context, formID string, opts ListOptions) ([]form.Response, error) {
	b := c.builder()
	t := b.Table(ResponsesTable.Name)
	q := b.Select(t.Columns(responseColumns...)...).From(t).Where(entsql.EQ(t.C("form_id"), formID))
	orderBy(q, "submitted_at", true)
	orderBy(q, "id", true)
	if opts.Limit > 0 {
		q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q.Offset(opts.Offset)
	}

	rs, err := c.scanResponses(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return rs, nil
}

func (c *Client) CountResponsesByForm(ctx context.Context, formID string) (int, error) {
	b := c.builder()
	t := b.Table(ResponsesTable.Name)
	q := b.Select(entsql.Count("*")).From(t).Where(entsql.EQ(t.C("form_id"), formID))

	rows, err := c.query(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("count responses: %w", err)
		}
	}
	return n, rows.Err()
}

// DeleteResponse removes one response of formID.
func (c *Client) DeleteResponse(ctx context.Context, formID, id string) error {
	q := c.builder().Delete(ResponsesTable.Name).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("form_id", formID)))
	res, err := c.exec(ctx, q)
	if err == nil {
		err = affected(res)
	}
	if err != nil {
		return fmt.Errorf("delete response %s: %w", id, err)
	}
	return nil
}

func (c *Client) scanResponses(ctx context.Context, q *entsql.Selector) ([]form.Response, error) {
	rows, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []form.Response
	for rows.Next() {
		var (
			r       form.Response
			answers []byte
			source  sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.FormID, &answers, &source, &r.SubmittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &r.Values); err != nil {
			return nil, fmt.Errorf("decode answers of %s: %w", r.ID, err)
		}
		r.SourceAddress = source.String
		r.SubmittedAt = r.SubmittedAt.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
