package authorize

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	casbin "github.com/casbin/casbin/v2"
	"github.com/google/uuid"

	"github.com/Alijeyrad/formora_backend/pkg/reqctx"
)

// createTestEnforcer builds a file-backed enforcer on the embedded model.
func createTestEnforcer(t *testing.T) (*casbin.DistributedEnforcer, string) {
	t.Helper()
	policyPath := filepath.Join(t.TempDir(), "policy.csv")
	e, err := NewFileEnforcer(Config{}, policyPath)
	if err != nil {
		t.Fatalf("failed to create enforcer: %v", err)
	}
	return e, policyPath
}

func seeded(t *testing.T) *Authorization {
	t.Helper()
	e, _ := createTestEnforcer(t)
	auth, err := NewAuthorization(e)
	if err != nil {
		t.Fatalf("NewAuthorization() error = %v", err)
	}
	if err := SeedDefaultPolicies(context.Background(), auth); err != nil {
		t.Fatalf("SeedDefaultPolicies() error = %v", err)
	}
	return auth
}

func TestNewAuthorization(t *testing.T) {
	if _, err := NewAuthorization(nil); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("expected ErrInvalidArgs for nil enforcer, got %v", err)
	}
}

func TestEnforce(t *testing.T) {
	ctx := context.Background()
	auth := seeded(t)

	owner, viewer, stranger := uuid.NewString(), uuid.NewString(), uuid.NewString()
	formID := uuid.NewString()
	otherForm := uuid.NewString()

	if err := GrantFormOwner(ctx, auth, owner, formID); err != nil {
		t.Fatal(err)
	}
	if err := GrantFormViewer(ctx, auth, viewer, formID); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		subject string
		form    string
		obj     Resource
		act     Action
		want    bool
	}{
		{"owner updates form", owner, formID, ResourceForm, ActionUpdate, true},
		{"owner deletes response", owner, formID, ResourceResponse, ActionDelete, true},
		{"owner shares", owner, formID, ResourceForm, ActionShare, true},
		{"owner has nothing on another form", owner, otherForm, ResourceForm, ActionRead, false},
		{"viewer reads form", viewer, formID, ResourceForm, ActionRead, true},
		{"viewer lists responses", viewer, formID, ResourceResponse, ActionList, true},
		{"viewer exports responses", viewer, formID, ResourceResponse, ActionExport, true},
		{"viewer cannot update form", viewer, formID, ResourceForm, ActionUpdate, false},
		{"viewer cannot delete response", viewer, formID, ResourceResponse, ActionDelete, false},
		{"stranger reads nothing", stranger, formID, ResourceForm, ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, GroupSubject(tt.subject), FormDomain(tt.form), tt.obj, tt.act)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforce_InvalidArgs(t *testing.T) {
	ctx := context.Background()
	auth := seeded(t)
	dom := FormDomain(uuid.NewString())

	tests := []struct {
		name    string
		subject GroupSubject
		domain  Domain
		obj     Resource
		act     Action
	}{
		{"empty subject", "", dom, ResourceForm, ActionRead},
		{"wildcard domain", "u", WildcardDomain, ResourceForm, ActionRead},
		{"bad domain", "u", "form:nope", ResourceForm, ActionRead},
		{"unknown resource", "u", dom, "clinic", ActionRead},
		{"unknown action", "u", dom, ResourceForm, "fly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Enforce(ctx, tt.subject, tt.domain, tt.obj, tt.act)
			if !errors.Is(err, ErrInvalidArgs) {
				t.Errorf("Enforce() error = %v, want ErrInvalidArgs", err)
			}
		})
	}
}

func TestMustEnforce(t *testing.T) {
	ctx := context.Background()
	auth := seeded(t)
	err := auth.MustEnforce(ctx, GroupSubject(uuid.NewString()), FormDomain(uuid.NewString()), ResourceForm, ActionRead)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("MustEnforce() error = %v, want ErrForbidden", err)
	}
}

func TestRevokeForm(t *testing.T) {
	ctx := context.Background()
	auth := seeded(t)
	owner, viewer, formID, keep := uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString()

	_ = GrantFormOwner(ctx, auth, owner, formID)
	_ = GrantFormViewer(ctx, auth, viewer, formID)
	_ = GrantFormOwner(ctx, auth, owner, keep)

	if err := RevokeForm(ctx, auth, formID); err != nil {
		t.Fatalf("RevokeForm() error = %v", err)
	}

	roles, _ := auth.GetRolesForUserInDomain(ctx, GroupSubject(owner), FormDomain(formID))
	if len(roles) != 0 {
		t.Errorf("owner still has roles %v", roles)
	}
	roles, _ = auth.GetRolesForUserInDomain(ctx, GroupSubject(owner), FormDomain(keep))
	if len(roles) != 1 || roles[0] != RoleFormOwner {
		t.Errorf("other form lost its owner: %v", roles)
	}
}

func TestRoleManagement(t *testing.T) {
	ctx := context.Background()
	auth := seeded(t)
	user, dom := GroupSubject(uuid.NewString()), FormDomain(uuid.NewString())

	if _, err := auth.AddRoleForUserInDomain(ctx, user, "admin", dom); !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("unknown role should be rejected, got %v", err)
	}
	added, err := auth.AddRoleForUserInDomain(ctx, user, RoleFormViewer, dom)
	if err != nil || !added {
		t.Fatalf("AddRoleForUserInDomain() = %v, %v", added, err)
	}
	removed, err := auth.RemoveRoleForUserInDomain(ctx, user, RoleFormViewer, dom)
	if err != nil || !removed {
		t.Fatalf("RemoveRoleForUserInDomain() = %v, %v", removed, err)
	}
}

func TestSaveOnChange(t *testing.T) {
	ctx := context.Background()
	e, path := createTestEnforcer(t)
	auth, err := NewAuthorization(e, WithSaveOnChange())
	if err != nil {
		t.Fatal(err)
	}
	user, formID := uuid.NewString(), uuid.NewString()
	if err := GrantFormOwner(ctx, auth, user, formID); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), user) {
		t.Errorf("policy file does not contain the grant:\n%s", b)
	}
}

func TestAudited(t *testing.T) {
	ctx := context.Background()
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	auth := NewAuditedAuthorization(seeded(t), logger)

	user, formID := uuid.NewString(), uuid.NewString()
	if err := GrantFormOwner(ctx, auth, user, formID); err != nil {
		t.Fatal(err)
	}
	if err := auth.MustEnforce(ctx, GroupSubject(user), FormDomain(formID), ResourceForm, ActionDelete); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"operation=add_role", "authz_decision", "allowed=true"} {
		if !strings.Contains(out, want) {
			t.Errorf("audit log missing %q:\n%s", want, out)
		}
	}
}

func TestIsValidDomain(t *testing.T) {
	tests := []struct {
		d    Domain
		want bool
	}{
		{FormDomain(uuid.NewString()), true},
		{WildcardDomain, true},
		{"form:", false},
		{"form:123", false},
		{"clinic:" + Domain(uuid.NewString()), false},
	}
	for _, tt := range tests {
		if got := IsValidDomain(tt.d); got != tt.want {
			t.Errorf("IsValidDomain(%q) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

type testClaims struct{ id uuid.UUID }

func (c testClaims) GetUserID() uuid.UUID     { return c.id }
func (c testClaims) GetSessionID() *uuid.UUID { return nil }

func TestSubjectFromContext(t *testing.T) {
	if _, err := SubjectFromContext(context.Background()); !errors.Is(err, ErrNoSubjectInContext) {
		t.Errorf("expected ErrNoSubjectInContext, got %v", err)
	}
	id := uuid.New()
	got, err := SubjectFromContext(reqctx.WithClaims(context.Background(), testClaims{id}))
	if err != nil || got != GroupSubject(id.String()) {
		t.Errorf("SubjectFromContext() = %q, %v", got, err)
	}
}
