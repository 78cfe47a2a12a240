package authroles

import (
	"testing"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoleMap(t *testing.T) {
	m, err := ParseRoleMap([]string{"auditors=auditor", " vendors = Vendor ", ""}, "")
	require.NoError(t, err)

	assert.Equal(t, domainauth.RoleAuditor, m.Map([]string{"auditors"}))
	assert.Equal(t, domainauth.RoleVendor, m.Map([]string{"other", "vendors"}))
	assert.Equal(t, domainauth.RoleCitizen, m.Map([]string{"other"}))
}

func TestParseRoleMap_Default(t *testing.T) {
	m, err := ParseRoleMap(nil, "deputy")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleDeputy, m.Map(nil))
}

func TestParseRoleMap_Errors(t *testing.T) {
	_, err := ParseRoleMap([]string{"no-separator"}, "")
	assert.ErrorContains(t, err, "want group=role")

	_, err = ParseRoleMap([]string{"g=admin"}, "")
	assert.ErrorContains(t, err, "invalid role")

	_, err = ParseRoleMap(nil, "root")
	assert.ErrorContains(t, err, "default role")
}

func TestStaticRoleMapper_ZeroValue(t *testing.T) {
	var m StaticRoleMapper
	assert.Equal(t, domainauth.RoleCitizen, m.Map([]string{"x"}))
}
