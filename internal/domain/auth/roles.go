package auth

import "slices"

// Permission names used by capability checks.
const (
	PermBudgetControl       = "budget_control"
	PermBudgetAllocation    = "budget_allocation"
	PermClaimSubmission     = "claim_submission"
	PermCorruptionReporting = "corruption_reporting"
	PermRegionalOversight   = "regional_oversight"
	PermBasicAccess         = "basic_access"
)

// RoleProfile is the catalogue entry used for demo identities and display.
type RoleProfile struct {
	Role        UserRole
	DisplayName string
	DemoName    string
	DemoTitle   string
	Permissions []string
}

var roleCatalogue = map[UserRole]RoleProfile{
	RoleMainGovernment: {
		Role:        RoleMainGovernment,
		DisplayName: "Main Government",
		DemoName:    "Rajesh Kumar (Admin)",
		DemoTitle:   "Secretary, Ministry of Finance",
		Permissions: []string{PermBudgetControl, "role_management", "fraud_oversight", "system_administration"},
	},
	RoleStateHead: {
		Role:        RoleStateHead,
		DisplayName: "State Head",
		DemoName:    "Dr. Priya Sharma",
		DemoTitle:   "Chief Secretary, Uttar Pradesh",
		Permissions: []string{PermBudgetAllocation, "deputy_management", PermRegionalOversight},
	},
	RoleDeputy: {
		Role:        RoleDeputy,
		DisplayName: "Deputy",
		DemoName:    "Amit Singh",
		DemoTitle:   "District Collector, Lucknow",
		Permissions: []string{"vendor_selection", "project_management", "claim_review"},
	},
	RoleVendor: {
		Role:        RoleVendor,
		DisplayName: "Vendor",
		DemoName:    "BuildCorp Industries",
		DemoTitle:   "Project Manager",
		Permissions: []string{PermClaimSubmission, "payment_tracking", "supplier_management"},
	},
	RoleSubSupplier: {
		Role:        RoleSubSupplier,
		DisplayName: "Sub Supplier",
		DemoName:    "Materials Plus Ltd",
		DemoTitle:   "Supply Chain Head",
		Permissions: []string{"delivery_submission", "quality_assurance", "vendor_coordination"},
	},
	RoleCitizen: {
		Role:        RoleCitizen,
		DisplayName: "Citizen",
		DemoName:    "Rahul Verma",
		DemoTitle:   "Software Engineer",
		Permissions: []string{"transparency_access", PermCorruptionReporting, "community_verification"},
	},
}

// Profile returns the catalogue entry for role. Unknown roles get a generic profile.
func Profile(role UserRole) RoleProfile {
	if p, ok := roleCatalogue[role]; ok {
		p.Permissions = slices.Clone(p.Permissions)
		return p
	}
	return RoleProfile{
		Role:        role,
		DisplayName: "User",
		DemoName:    "Demo User",
		DemoTitle:   "Demo Role",
		Permissions: []string{PermBasicAccess},
	}
}

// DisplayName returns the human-readable role label.
func DisplayName(role UserRole) string {
	return Profile(role).DisplayName
}

// DemoUsers lists one demo identity per catalogue role.
func DemoUsers() []DemoUser {
	roles := Roles()
	out := make([]DemoUser, 0, len(roles))
	for _, r := range roles {
		p := Profile(r)
		out = append(out, DemoUser{
			PrincipalID: "demo_" + string(r),
			Role:        r,
			Name:        p.DemoName,
			Title:       p.DemoTitle,
			Permissions: p.Permissions,
			Available:   true,
		})
	}
	return out
}

// principalRoles is the assignment order used when deriving a role from a principal.
var principalRoles = []UserRole{RoleMainGovernment, RoleVendor, RoleCitizen, RoleStateHead, RoleDeputy}

// DemoRoleFromPrincipal deterministically assigns a demo role to a principal ID.
func DemoRoleFromPrincipal(principal string) RoleProfile {
	sum := 0
	for _, r := range principal {
		sum += int(r)
	}
	return Profile(principalRoles[sum%len(principalRoles)])
}

// governmentRoles may review claims and oversee budgets.
var governmentRoles = []UserRole{RoleAuditor, RoleMainGovernment, RoleStateHead, RoleDeputy}

// IsGovernmentOfficial reports whether role belongs to a government tier.
func IsGovernmentOfficial(role UserRole) bool {
	return slices.Contains(governmentRoles, role)
}

// HasRole reports whether u holds role.
func (u User) HasRole(role UserRole) bool { return u.Role == role }

// HasAnyRole reports whether u holds one of roles.
func (u User) HasAnyRole(roles ...UserRole) bool { return slices.Contains(roles, u.Role) }

func (u User) CanManageBudgets() bool    { return u.HasPermission(PermBudgetControl) }
func (u User) CanAllocateBudgets() bool  { return u.HasPermission(PermBudgetAllocation) }
func (u User) CanSubmitClaims() bool     { return u.HasPermission(PermClaimSubmission) }
func (u User) CanReportCorruption() bool { return u.HasPermission(PermCorruptionReporting) }
func (u User) CanOverseeRegion() bool    { return u.HasPermission(PermRegionalOversight) }
