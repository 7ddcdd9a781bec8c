package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies apply in every form domain. Roles are granted per form.
var DefaultPolicies = []PermissionPolicy{
	{RoleFormOwner, WildcardDomain, ResourceForm, WildcardAction, EffectAllow},
	{RoleFormOwner, WildcardDomain, ResourceResponse, WildcardAction, EffectAllow},

	{RoleFormViewer, WildcardDomain, ResourceForm, ActionRead, EffectAllow},
	{RoleFormViewer, WildcardDomain, ResourceResponse, ActionRead, EffectAllow},
	{RoleFormViewer, WildcardDomain, ResourceResponse, ActionList, EffectAllow},
	{RoleFormViewer, WildcardDomain, ResourceResponse, ActionExport, EffectAllow},
}

func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	for _, p := range DefaultPolicies {
		added, err := auth.AddPermission(ctx, p.Subject, p.Domain, p.Object, p.Action, p.Effect)
		if err != nil {
			slog.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			slog.Debug("added policy", "role", p.Subject, "resource", p.Object, "action", p.Action)
		}
	}
	slog.Info("seeded default RBAC policies", "count", len(DefaultPolicies))
	return nil
}

// GrantFormOwner is called when a form is created.
func GrantFormOwner(ctx context.Context, auth IAuthorization, userID, formID string) error {
	_, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), RoleFormOwner, FormDomain(formID))
	return err
}

func GrantFormViewer(ctx context.Context, auth IAuthorization, userID, formID string) error {
	_, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), RoleFormViewer, FormDomain(formID))
	return err
}

// RevokeForm drops every grant on a deleted form.
func RevokeForm(ctx context.Context, auth IAuthorization, formID string) error {
	return auth.RemoveDomain(ctx, FormDomain(formID))
}
