package auth

import (
	"context"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"aper/internal/domain/evaluation"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// Authorizer answers route permission checks from a casbin policy built
// out of RolePermissions.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	for role, perms := range RolePermissions {
		for _, perm := range perms {
			obj, act := splitPermission(perm)
			if _, err := enforcer.AddPolicy(SubjectFromRole(role), obj, act); err != nil {
				return nil, err
			}
		}
	}
	return &Authorizer{enforcer: enforcer}, nil
}

func SubjectFromRole(role evaluation.Role) string {
	slug := strings.TrimSpace(strings.ToLower(string(role)))
	if slug == "" {
		slug = "anonymous"
	}
	return "role:" + slug
}

func (a *Authorizer) HasPermission(_ context.Context, role, permission string) (bool, error) {
	obj, act := splitPermission(permission)
	return a.enforcer.Enforce(SubjectFromRole(evaluation.Role(role)), obj, act)
}

func splitPermission(perm string) (string, string) {
	idx := strings.LastIndex(perm, ".")
	if idx < 0 {
		return perm, ""
	}
	return perm[:idx], perm[idx+1:]
}
