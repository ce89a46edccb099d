package authz

import (
	"fmt"

	"github.com/petcare-next/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds 系统预置角色矩阵，角色名与令牌中的 role 一致
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleCustomer,
			Policies: []Policy{
				{Object: "/customer/*", Action: "*"},
			},
			Immutable: true,
		},
		{
			Role: constants.RoleVeterinarian,
			Policies: []Policy{
				{Object: "/staff/catalog/*", Action: "GET"},
				{Object: "/staff/promotions/resolve", Action: "GET"},
				{Object: "/staff/service-instances", Action: "GET"},
				{Object: "/staff/service-instances", Action: "POST"},
				{Object: "/staff/service-instances/:id", Action: "GET"},
				{Object: "/staff/service-instances/:id/costs", Action: "PATCH"},
				{Object: "/staff/service-instances/:id/quote", Action: "GET"},
				{Object: "/staff/service-instances/:id/rating", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     constants.RoleReceptionist,
			Inherits: []string{constants.RoleVeterinarian},
			Policies: []Policy{
				{Object: "/staff/invoices", Action: "*"},
				{Object: "/staff/invoices/:id", Action: "GET"},
				{Object: "/staff/invoices/:id/items", Action: "POST"},
				{Object: "/staff/invoices/:id/pay", Action: "POST"},
				{Object: "/staff/invoices/:id/cancel", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role: constants.RoleSales,
			Policies: []Policy{
				{Object: "/staff/catalog/*", Action: "GET"},
				{Object: "/staff/promotions/resolve", Action: "GET"},
				{Object: "/staff/service-instances", Action: "GET"},
				{Object: "/staff/service-instances/:id/quote", Action: "GET"},
				{Object: "/staff/invoices", Action: "*"},
				{Object: "/staff/invoices/:id", Action: "GET"},
				{Object: "/staff/invoices/:id/items", Action: "POST"},
				{Object: "/staff/invoices/:id/pay", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role: constants.RoleAdmin,
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
				{Object: "/staff/*", Action: "*"},
			},
			Immutable: true,
		},
	}
}

// IsBuiltinRole 判断角色主体是否为不可删除的预置角色
func IsBuiltinRole(subject string) bool {
	for _, seed := range BuiltinRoleSeeds() {
		if !seed.Immutable {
			continue
		}
		if builtin, err := NormalizeRole(seed.Role); err == nil && builtin == subject {
			return true
		}
	}
	return false
}

// BootstrapBuiltinRoles 幂等写入预置角色、继承关系与默认策略，已存在的规则不重复写入
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return fmt.Errorf("create builtin role %s failed: %w", seed.Role, err)
		}
		for _, parent := range seed.Inherits {
			parentRole, err := s.EnsureRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			obj, act, err := normalizePolicyTarget(policy.Object, policy.Action)
			if err != nil {
				return fmt.Errorf("builtin policy %s %s invalid: %w", policy.Action, policy.Object, err)
			}
			if _, err := s.enforcer.AddPolicy(role, obj, act); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
