package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessibleRegions(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  []string
	}{
		{"none", []string{"Members_CRUD"}, []string{}},
		{"specific", []string{"Regio_Utrecht", "Regio_Oost", "Regio_Utrecht"}, []string{"utrecht", "oost"}},
		{"legacy", []string{"hdcnRegio_3_Secretaris"}, []string{"groningen_drenthe"}},
		{"all dominates", []string{"Regio_Utrecht", "Regio_All", "Regio_Limburg"}, []string{"all"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AccessibleRegions(tt.roles))
		})
	}
}

func TestHasRegionalAccess(t *testing.T) {
	utrecht := []string{"Members_CRUD", "Regio_Utrecht"}

	assert.True(t, HasRegionalAccess(utrecht, "utrecht"))
	assert.True(t, HasRegionalAccess(utrecht, "Utrecht"))
	assert.False(t, HasRegionalAccess(utrecht, "limburg"))
	assert.False(t, HasRegionalAccess(utrecht, "atlantis"))

	assert.True(t, HasRegionalAccess([]string{"Regio_All"}, "friesland"))
	assert.True(t, HasRegionalAccess([]string{"Regio_All"}, "anything at all"))
	assert.True(t, HasRegionalAccess([]string{"hdcnRegio_4_Lid"}, "Zuid-Holland"))

	// no target: any regional role is enough
	assert.True(t, HasRegionalAccess(utrecht, ""))
	assert.False(t, HasRegionalAccess([]string{"Members_CRUD"}, ""))
	assert.False(t, HasRegionalAccess(nil, ""))
}

func TestRegionRoleMapping(t *testing.T) {
	for _, r := range Regions() {
		role, ok := RoleForRegion(r.ID)
		assert.True(t, ok)
		region, ok := RegionForRole(role)
		assert.True(t, ok)
		assert.Equal(t, r.ID, region)
	}

	role, ok := RoleForRegion("Brabant/Zeeland")
	assert.True(t, ok)
	assert.Equal(t, "Regio_Brabant_Zeeland", role)

	role, ok = RoleForRegion("all")
	assert.True(t, ok)
	assert.Equal(t, "Regio_All", role)

	_, ok = RegionForRole("Members_CRUD")
	assert.False(t, ok)
}
