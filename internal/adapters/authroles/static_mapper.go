package authroles

import (
	"fmt"
	"strings"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
)

// StaticRoleMapper maps identity-provider groups to application roles by exact membership.
// The first group with a mapping wins; otherwise Default applies.
type StaticRoleMapper struct {
	groups  map[string]domainauth.UserRole
	Default domainauth.UserRole
}

// ParseRoleMap builds a mapper from "group=role" entries.
func ParseRoleMap(entries []string, def string) (StaticRoleMapper, error) {
	m := StaticRoleMapper{groups: make(map[string]domainauth.UserRole), Default: domainauth.RoleCitizen}
	if strings.TrimSpace(def) != "" {
		r, err := domainauth.ParseUserRole(def)
		if err != nil {
			return StaticRoleMapper{}, fmt.Errorf("default role: %w", err)
		}
		m.Default = r
	}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		group, role, ok := strings.Cut(e, "=")
		if !ok || strings.TrimSpace(group) == "" {
			return StaticRoleMapper{}, fmt.Errorf("role map entry %q: want group=role", e)
		}
		r, err := domainauth.ParseUserRole(role)
		if err != nil {
			return StaticRoleMapper{}, fmt.Errorf("role map entry %q: %w", e, err)
		}
		m.groups[strings.TrimSpace(group)] = r
	}
	return m, nil
}

func (m StaticRoleMapper) Map(groups []string) domainauth.UserRole {
	for _, g := range groups {
		if r, ok := m.groups[g]; ok {
			return r
		}
	}
	if m.Default == "" {
		return domainauth.RoleCitizen
	}
	return m.Default
}
