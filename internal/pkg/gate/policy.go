// Package gate holds the access policy for role protected page areas.
package gate

import (
	"errors"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/samber/lo"
)

const (
	// ObjectAdminArea is the policy object guarding the admin pages.
	ObjectAdminArea = "admin_area"
	// ActionAccess is the only action checked by the page gate.
	ActionAccess = "access"
)

// ErrNoRoles is returned when no role is allowed into the admin area.
var ErrNoRoles = errors.New("gate: at least one admin role is required")

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// NewPolicy builds an in-memory enforcer granting each role access to the
// admin area. Blank roles are ignored.
func NewPolicy(adminRoles []string) (*casbin.Enforcer, error) {
	roles := lo.Uniq(lo.Compact(lo.Map(adminRoles, func(r string, _ int) string {
		return strings.TrimSpace(r)
	})))
	if len(roles) == 0 {
		return nil, ErrNoRoles
	}

	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	rules := lo.Map(roles, func(role string, _ int) []string {
		return []string{role, ObjectAdminArea, ActionAccess}
	})
	if _, err := e.AddPolicies(rules); err != nil {
		return nil, err
	}

	return e, nil
}
