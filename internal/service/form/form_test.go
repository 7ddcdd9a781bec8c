package form

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/formora_backend/internal/form"
	"github.com/Alijeyrad/formora_backend/internal/repo"
	"github.com/Alijeyrad/formora_backend/internal/repo/repotest"
	"github.com/Alijeyrad/formora_backend/internal/service/analytics"
	"github.com/Alijeyrad/formora_backend/pkg/authorize"
	rediscache "github.com/Alijeyrad/formora_backend/pkg/redis"
)

type published struct {
	subject string
	data    string
}

type fakePublisher struct {
	mu  sync.Mutex
	got []published
}

func (p *fakePublisher) Publish(subj string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, published{subj, string(data)})
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	dropped []string
}

func (c *fakeCache) Invalidate(_ context.Context, formID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropped = append(c.dropped, formID)
	return nil
}

type fakeAssistant struct{ draft form.Form }

func (a fakeAssistant) GenerateForm(context.Context, string) (form.Form, error) { return a.draft, nil }

func (a fakeAssistant) Analyze(context.Context, form.Form, []form.Response, string) (string, error) {
	return "", nil
}

type fixture struct {
	svc   Service
	db    *repo.Client
	authz *authorize.Authorization
	pub   *fakePublisher
	cache *fakeCache
	owner uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := repotest.New(t)

	e, err := authorize.NewFileEnforcer(authorize.Config{}, filepath.Join(t.TempDir(), "policy.csv"))
	require.NoError(t, err)
	authz, err := authorize.NewAuthorization(e)
	require.NoError(t, err)
	require.NoError(t, authorize.SeedDefaultPolicies(ctx, authz))

	u, err := db.CreateUser(ctx, repo.User{Email: "owner@example.com", Name: "Owner"})
	require.NoError(t, err)

	pub, cache := &fakePublisher{}, &fakeCache{}
	draft := form.Form{Title: "Draft", Fields: []form.Field{{ID: "field_1", Type: form.TypeText, Label: "Name"}}}
	svc := New(db, db, authz, fakeAssistant{draft: draft}, cache, pub)
	return fixture{svc: svc, db: db, authz: authz, pub: pub, cache: cache, owner: uuid.MustParse(u.ID)}
}

func (f fixture) create(t *testing.T, req CreateRequest) form.Form {
	t.Helper()
	out, err := f.svc.Create(context.Background(), f.owner, req)
	require.NoError(t, err)
	return out
}

func choiceForm() CreateRequest {
	return CreateRequest{
		Title: " Survey ",
		Fields: []form.Field{
			{ID: "field_1", Type: form.TypeText, Label: "Name"},
			{ID: "field_2", Type: form.TypeRadio, Label: "Pick", Options: []string{"A", "B"}},
		},
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created := f.create(t, choiceForm())
	assert.Equal(t, "Survey", created.Title)
	assert.Equal(t, f.owner.String(), created.OwnerID)

	ok, err := f.authz.Enforce(ctx, authorize.GroupSubject(f.owner.String()), authorize.FormDomain(created.ID), authorize.ResourceForm, authorize.ActionDelete)
	require.NoError(t, err)
	assert.True(t, ok, "creator owns the form")

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Fields, got.Fields)

	list, err := f.svc.ListByOwner(ctx, f.owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"duplicate ids", CreateRequest{Fields: []form.Field{
			{ID: "a", Type: form.TypeText, Label: "A"},
			{ID: "a", Type: form.TypeEmail, Label: "B"},
		}}},
		{"options on text", CreateRequest{Fields: []form.Field{
			{ID: "a", Type: form.TypeText, Label: "A", Options: []string{"x"}},
		}}},
		{"active choice without options", CreateRequest{IsActive: true, Fields: []form.Field{
			{ID: "a", Type: form.TypeSelect, Label: "A"},
		}}},
	}
	f := newFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.owner, tt.req)
			assert.ErrorIs(t, err, ErrInvalidForm)
			assert.ErrorIs(t, err, form.ErrIntegrity)
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created := f.create(t, choiceForm())

	title, active := "Renamed", true
	got, err := f.svc.Update(ctx, f.owner, created.ID, form.FormPatch{Title: &title, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.True(t, got.IsActive)

	stranger := uuid.New()
	_, err = f.svc.Update(ctx, stranger, created.ID, form.FormPatch{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	bad := []form.Field{{ID: "x", Type: form.TypeCheckbox, Label: "X"}}
	_, err = f.svc.Update(ctx, f.owner, created.ID, form.FormPatch{Fields: &bad})
	assert.ErrorIs(t, err, ErrInvalidForm, "active forms need options on choice fields")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created := f.create(t, choiceForm())

	assert.ErrorIs(t, f.svc.Delete(ctx, uuid.New(), created.ID), ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, f.owner, created.ID))

	_, err := f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrFormNotFound)

	roles, err := f.authz.GetRolesForUserInDomain(ctx, authorize.GroupSubject(f.owner.String()), authorize.FormDomain(created.ID))
	require.NoError(t, err)
	assert.Empty(t, roles)

	require.Len(t, f.pub.got, 1)
	assert.Equal(t, "formora.form.deleted."+created.ID, f.pub.got[0].subject)
	assert.Equal(t, f.owner.String(), f.pub.got[0].data)
}

func TestBuilderOps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created := f.create(t, choiceForm())
	id := created.ID

	got, added, err := f.svc.AddField(ctx, f.owner, id, form.TypeCheckbox)
	require.NoError(t, err)
	assert.Equal(t, "field_3", added.ID)
	assert.Equal(t, []string{"Option 1", "Option 2"}, added.Options)
	assert.Len(t, got.Fields, 3)

	label := "Full name"
	got, err = f.svc.UpdateField(ctx, f.owner, id, "field_1", form.FieldPatch{Label: &label})
	require.NoError(t, err)
	assert.Equal(t, "Full name", got.Fields[0].Label)

	got, err = f.svc.ReorderFields(ctx, f.owner, id, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"field_3", "field_1", "field_2"}, fieldIDs(got))

	got, err = f.svc.AddOption(ctx, f.owner, id, "field_2")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "Option 3"}, got.Fields[2].Options)

	got, err = f.svc.UpdateOption(ctx, f.owner, id, "field_2", 2, "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, got.Fields[2].Options)

	got, err = f.svc.RemoveOption(ctx, f.owner, id, "field_2", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, got.Fields[2].Options)

	got, err = f.svc.RemoveField(ctx, f.owner, id, "field_3")
	require.NoError(t, err)
	assert.Equal(t, []string{"field_1", "field_2"}, fieldIDs(got))

	stored, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, got.Fields, stored.Fields)
}

func TestBuilderOps_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, choiceForm()).ID

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"update missing field", func() error {
			_, err := f.svc.UpdateField(ctx, f.owner, id, "nope", form.FieldPatch{})
			return err
		}, ErrFieldNotFound},
		{"remove missing field", func() error {
			_, err := f.svc.RemoveField(ctx, f.owner, id, "nope")
			return err
		}, ErrFieldNotFound},
		{"option on text field", func() error {
			_, err := f.svc.AddOption(ctx, f.owner, id, "field_1")
			return err
		}, ErrNoOptions},
		{"option index past end", func() error {
			_, err := f.svc.UpdateOption(ctx, f.owner, id, "field_2", 5, "x")
			return err
		}, ErrIndexOutOfRange},
		{"negative option index", func() error {
			_, err := f.svc.RemoveOption(ctx, f.owner, id, "field_2", -1)
			return err
		}, ErrIndexOutOfRange},
		{"reorder out of range", func() error {
			_, err := f.svc.ReorderFields(ctx, f.owner, id, 0, 9)
			return err
		}, ErrIndexOutOfRange},
		{"unknown type", func() error {
			_, _, err := f.svc.AddField(ctx, f.owner, id, form.FieldType("slider"))
			return err
		}, form.ErrUnknownFieldType},
		{"stranger", func() error {
			_, err := f.svc.RemoveField(ctx, uuid.New(), id, "field_1")
			return err
		}, ErrForbidden},
		{"missing form", func() error {
			_, err := f.svc.AddOption(ctx, f.owner, uuid.NewString(), "field_2")
			return err
		}, ErrFormNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.want)
		})
	}
}

func TestShareForm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, choiceForm()).ID

	viewer, err := f.db.CreateUser(ctx, repo.User{Email: "viewer@example.com", Name: "Viewer"})
	require.NoError(t, err)

	got, err := f.svc.ShareForm(ctx, f.owner, id, " Viewer@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, viewer.ID, got.ID)

	sub := authorize.GroupSubject(viewer.ID)
	canRead, err := f.authz.Enforce(ctx, sub, authorize.FormDomain(id), authorize.ResourceResponse, authorize.ActionList)
	require.NoError(t, err)
	assert.True(t, canRead)
	canDelete, err := f.authz.Enforce(ctx, sub, authorize.FormDomain(id), authorize.ResourceForm, authorize.ActionDelete)
	require.NoError(t, err)
	assert.False(t, canDelete)

	_, err = f.svc.ShareForm(ctx, f.owner, id, "ghost@example.com")
	assert.ErrorIs(t, err, ErrCollaboratorNotFound)

	_, err = f.svc.ShareForm(ctx, uuid.MustParse(viewer.ID), id, "owner@example.com")
	assert.ErrorIs(t, err, ErrForbidden, "viewers cannot share")
}

func TestGenerate(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.Generate(context.Background(), "contact form")
	require.NoError(t, err)
	assert.Equal(t, "Draft", got.Title)

	list, err := f.svc.ListByOwner(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Empty(t, list, "drafts are not persisted")
}

func fieldIDs(f form.Form) []string {
	ids := make([]string, len(f.Fields))
	for i, fd := range f.Fields {
		ids[i] = fd.ID
	}
	return ids
}

func TestEdits_InvalidateAnalytics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created := f.create(t, choiceForm())
	id := created.ID
	title := "Renamed"
	label := "Choice"

	edits := []struct {
		name string
		run  func() error
	}{
		{"update", func() error {
			_, err := f.svc.Update(ctx, f.owner, id, form.FormPatch{Title: &title})
			return err
		}},
		{"update field", func() error {
			_, err := f.svc.UpdateField(ctx, f.owner, id, "field_2", form.FieldPatch{Label: &label})
			return err
		}},
		{"add option", func() error {
			_, err := f.svc.AddOption(ctx, f.owner, id, "field_2")
			return err
		}},
		{"remove option", func() error {
			_, err := f.svc.RemoveOption(ctx, f.owner, id, "field_2", 0)
			return err
		}},
		{"reorder", func() error {
			_, err := f.svc.ReorderFields(ctx, f.owner, id, 0, 1)
			return err
		}},
		{"remove field", func() error {
			_, err := f.svc.RemoveField(ctx, f.owner, id, "field_2")
			return err
		}},
	}
	for i, e := range edits {
		require.NoError(t, e.run(), e.name)
		assert.Len(t, f.cache.dropped, i+1, e.name)
	}

	_, err := f.svc.RemoveField(ctx, f.owner, id, "missing")
	require.ErrorIs(t, err, ErrFieldNotFound)
	assert.Len(t, f.cache.dropped, len(edits), "failed edits keep the cache")
}

func TestRemoveField_ReportDropsField(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rdb := goredis.NewClient(&goredis.Options{Addr: miniredis.RunT(t).Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	stats := analytics.New(f.db, rediscache.NewCache(rdb, "analytics:", 5*time.Minute), fakeAssistant{}, nil)
	svc := New(f.db, f.db, f.authz, fakeAssistant{}, stats, nil)

	req := choiceForm()
	req.IsActive = true
	created, err := svc.Create(ctx, f.owner, req)
	require.NoError(t, err)
	for _, pick := range []string{"B", "A", "B"} {
		_, err := f.db.CreateResponse(ctx, form.Response{FormID: created.ID, Values: form.Values{"field_2": form.TextValue(pick)}})
		require.NoError(t, err)
	}

	before, err := stats.Report(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, before.Fields, 1)
	assert.Equal(t, "field_2", before.Fields[0].FieldID)

	_, err = svc.RemoveField(ctx, f.owner, created.ID, "field_2")
	require.NoError(t, err)

	after, err := stats.Report(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Fields)
	assert.Equal(t, 3, after.TotalResponses)
}
