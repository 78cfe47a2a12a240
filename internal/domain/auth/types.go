package auth

// Package auth contains domain-level types for client sessions and identities.
// It is pure and free of framework/adapter concerns.

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// UserRole is the application role attached to a user.
// Keep string form; it is persisted verbatim inside session records.
type UserRole string

const (
	RoleMainGovernment UserRole = "main_government"
	RoleStateHead      UserRole = "state_head"
	RoleDeputy         UserRole = "deputy"
	RoleVendor         UserRole = "vendor"
	RoleSubSupplier    UserRole = "sub_supplier"
	RoleCitizen        UserRole = "citizen"
	// RoleAuditor is only issued by the backend; there is no demo profile for it.
	RoleAuditor UserRole = "auditor"
)

// Roles lists the roles that have demo profiles, in catalogue order.
func Roles() []UserRole {
	return []UserRole{
		RoleMainGovernment,
		RoleStateHead,
		RoleDeputy,
		RoleVendor,
		RoleSubSupplier,
		RoleCitizen,
	}
}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAuditor || slices.Contains(Roles(), r)
}

// ParseUserRole validates and normalizes a role string.
func ParseUserRole(s string) (UserRole, error) {
	r := UserRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}

// UnmarshalText implements encoding.TextUnmarshaler for env/flag parsing.
func (r *UserRole) UnmarshalText(text []byte) error {
	parsed, err := ParseUserRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User is the application-facing identity held by a session.
type User struct {
	Principal   string         `json:"principal"`
	Role        UserRole       `json:"role"`
	Name        string         `json:"name"`
	Permissions []string       `json:"permissions"`
	UserInfo    map[string]any `json:"user_info,omitempty"`
}

// HasPermission reports whether the user carries the named permission.
func (u User) HasPermission(permission string) bool {
	return slices.Contains(u.Permissions, permission)
}

// Session is the record persisted under the session slot while authenticated.
// Field names match the stored JSON layout exactly.
type Session struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	User      User   `json:"user"`
	DemoMode  bool   `json:"demoMode"`
}

// Valid reports whether the session has the minimum fields required to authenticate requests.
func (s Session) Valid() bool {
	return s.Token != "" && s.User.Principal != ""
}

// AuthState is the snapshot delivered to listeners on every transition.
type AuthState struct {
	IsAuthenticated bool
	User            *User
	Principal       string
}

// DemoUser describes a selectable demo identity.
type DemoUser struct {
	PrincipalID string   `json:"principal_id"`
	Role        UserRole `json:"role"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Permissions []string `json:"permissions"`
	Available   bool     `json:"available"`
}

// UserInfo is the profile block returned alongside a token grant.
type UserInfo struct {
	Name            string   `json:"name,omitempty"`
	Title           string   `json:"title,omitempty"`
	Permissions     []string `json:"permissions,omitempty"`
	AuthenticatedAt string   `json:"authenticated_at,omitempty"`
	DemoMode        bool     `json:"demo_mode,omitempty"`
}

// TokenGrant is the backend response to a login call.
type TokenGrant struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	PrincipalID string   `json:"principal_id,omitempty"`
	Role        string   `json:"role"`
	UserInfo    UserInfo `json:"user_info"`
	ExpiresIn   int      `json:"expires_in,omitempty"`
	DemoMode    bool     `json:"demo_mode,omitempty"`
	SessionID   string   `json:"session_id,omitempty"`
}

// WalletAccount is the result of a successful wallet connect.
type WalletAccount struct {
	AccountID string
	Network   string
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	Subject   string
	Name      string
	Email     string
	Groups    []string
	ExpiresAt time.Time
}
