package authz

import "fmt"

// RoleSeed built-in role definition
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds default role matrix seeded on startup
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "readonly_auditor",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
		},
		{
			Role:     "operations",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "*"},
				{Object: "/admin/orders/:id/status", Action: "PUT"},
				{Object: "/admin/orders/:id/tracking", Action: "PUT"},
				{Object: "/admin/orders/:id/danfe", Action: "GET"},
				{Object: "/admin/orders/cleanup-duplicates", Action: "POST"},
				{Object: "/admin/carts", Action: "GET"},
				{Object: "/admin/carts/:id", Action: "*"},
				{Object: "/admin/carts/:id/recover", Action: "POST"},
				{Object: "/admin/users", Action: "*"},
				{Object: "/admin/users/:id", Action: "*"},
			},
		},
		{
			Role:     "finance",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/billing-companies", Action: "*"},
				{Object: "/admin/billing-companies/:id", Action: "*"},
				{Object: "/admin/gateways", Action: "*"},
				{Object: "/admin/gateways/:id", Action: "*"},
				{Object: "/admin/integrations", Action: "*"},
				{Object: "/admin/integrations/:type", Action: "*"},
				{Object: "/admin/integrations/:type/test", Action: "POST"},
				{Object: "/admin/sweeps/tokens", Action: "POST"},
				{Object: "/admin/sweeps/orders", Action: "POST"},
			},
		},
		{
			Role:     "support",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
				{Object: "/admin/users", Action: "GET"},
				{Object: "/admin/users/:id", Action: "GET"},
				{Object: "/admin/carts", Action: "GET"},
				{Object: "/admin/carts/:id", Action: "GET"},
			},
		},
	}
}

// BootstrapBuiltinRoles seeds the built-in roles and their default policies
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
