package analytics

import (
	"context"
	"errors"
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
	rediscache "github.com/Alijeyrad/formora_backend/pkg/redis"
)

type fakeAnalyst struct {
	text string
	err  error
}

func (fakeAnalyst) GenerateForm(context.Context, string) (form.Form, error) {
	return form.Form{}, errors.New("unused")
}

func (a fakeAnalyst) Analyze(context.Context, form.Form, []form.Response, string) (string, error) {
	return a.text, a.err
}

type fixture struct {
	db   *repo.Client
	mr   *miniredis.Miniredis
	form form.Form
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := repotest.New(t)
	owner, err := db.CreateUser(ctx, repo.User{Email: "o@example.com"})
	require.NoError(t, err)
	f, err := db.CreateForm(ctx, form.Form{
		OwnerID:  owner.ID,
		Title:    "Poll",
		IsActive: true,
		Fields: []form.Field{
			{ID: "color", Type: form.TypeSelect, Label: "Color", Options: []string{"Red", "Blue"}},
			{ID: "note", Type: form.TypeText, Label: "Note"},
		},
	})
	require.NoError(t, err)
	for _, c := range []string{"Blue", "Red", "Blue"} {
		_, err := db.CreateResponse(ctx, form.Response{FormID: f.ID, Values: form.Values{"color": form.TextValue(c)}})
		require.NoError(t, err)
	}
	return fixture{db: db, mr: miniredis.RunT(t), form: f}
}

func (f fixture) service(t *testing.T, ai fakeAnalyst) Service {
	t.Helper()
	rdb := goredis.NewClient(&goredis.Options{Addr: f.mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(f.db, rediscache.NewCache(rdb, "analytics:", 5*time.Minute), ai, nil)
}

func TestReport_Cached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(t, fakeAnalyst{})

	rep, err := svc.Report(ctx, f.form.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.TotalResponses)
	require.Len(t, rep.Fields, 1, "text fields are not tallied")
	assert.Equal(t, []form.Bucket{{Label: "Blue", Count: 2}, {Label: "Red", Count: 1}}, rep.Fields[0].Buckets)

	key := "analytics:" + f.form.ID
	require.True(t, f.mr.Exists(key))
	assert.Equal(t, 5*time.Minute, f.mr.TTL(key))

	_, err = f.db.CreateResponse(ctx, form.Response{FormID: f.form.ID, Values: form.Values{"color": form.TextValue("Red")}})
	require.NoError(t, err)

	stale, err := svc.Report(ctx, f.form.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stale.TotalResponses, "served from cache")

	require.NoError(t, svc.Invalidate(ctx, f.form.ID))
	assert.False(t, f.mr.Exists(key))
	fresh, err := svc.Report(ctx, f.form.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, fresh.TotalResponses)
}

func TestReport_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.service(t, fakeAnalyst{}).Report(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestField(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(t, fakeAnalyst{})

	got, err := svc.Field(ctx, f.form.ID, "color")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Answered)
	assert.Equal(t, "Color", got.Label)

	note, err := svc.Field(ctx, f.form.ID, "note")
	require.NoError(t, err)
	assert.Equal(t, []form.Bucket{}, note.Buckets)
	assert.Zero(t, note.Answered)

	_, err = svc.Field(ctx, f.form.ID, "ghost")
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name         string
		ai           fakeAnalyst
		question     string
		wantFallback bool
		wantText     string
	}{
		{"ai answer", fakeAnalyst{text: "Blue wins."}, "", false, "Blue wins."},
		{"summary fallback", fakeAnalyst{err: errors.New("down")}, "", true, `Summary of "Poll"`},
		{"analysis fallback", fakeAnalyst{err: errors.New("down")}, "Why blue?", true, "Question: Why blue?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.service(t, tt.ai).Summarize(ctx, f.form.ID, tt.question)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFallback, got.Fallback)
			assert.Contains(t, got.Text, tt.wantText)
			assert.Equal(t, f.form.ID, got.FormID)
		})
	}
}
