package authorize

import (
	"strings"

	"github.com/google/uuid"
)

type Action string
type Resource string
type Role string
type Domain string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
	ActionExport Action = "export"
	ActionShare  Action = "share"

	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {},
	ActionList: {}, ActionExport: {}, ActionShare: {},
}

const (
	ResourceForm     Resource = "form"
	ResourceResponse Resource = "response"

	WildcardResource Resource = "*"
)

var KnownResources = map[Resource]struct{}{
	ResourceForm: {}, ResourceResponse: {},
}

// Roles are granted per form domain through grouping policies.
const (
	RoleFormOwner  Role = "form_owner"
	RoleFormViewer Role = "form_viewer"
)

var KnownRoles = map[Role]struct{}{
	RoleFormOwner:  {},
	RoleFormViewer: {},
}

const (
	DomainPrefixForm Domain = "form:"
	WildcardDomain   Domain = "*"
)

func FormDomain(formID string) Domain {
	return DomainPrefixForm + Domain(formID)
}

// IsValidDomain accepts the wildcard and form:<uuid>.
func IsValidDomain(d Domain) bool {
	if d == WildcardDomain {
		return true
	}
	id, ok := strings.CutPrefix(string(d), string(DomainPrefixForm))
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// GroupSubject is the g.sub in casbin: a user id.
type GroupSubject string

// PermissionPolicy is a p row: role, domain, resource, action, eft.
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
