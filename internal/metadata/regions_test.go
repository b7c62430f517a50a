package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegions_Bidirectional(t *testing.T) {
	assert.Len(t, Regions, 9)
	for _, r := range Regions {
		byRole, ok := RegionByRole(r.Role)
		assert.True(t, ok, r.Role)
		assert.Equal(t, r.ID, byRole.ID)

		byID, ok := RegionByID(r.ID)
		assert.True(t, ok, r.ID)
		assert.Equal(t, r.Role, byID.Role)
	}
}

func TestRegionByRole_Legacy(t *testing.T) {
	r, ok := RegionByRole("hdcnRegio_3_Secretaris")
	assert.True(t, ok)
	assert.Equal(t, "groningen_drenthe", r.ID)

	_, ok = RegionByRole("hdcnRegio_42_Secretaris")
	assert.False(t, ok)
	_, ok = RegionByRole(RoleRegionAll)
	assert.False(t, ok, "Regio_All is a sentinel, not a region")
}

func TestRegionByID_Normalizes(t *testing.T) {
	for in, want := range map[string]string{
		"Groningen/Drenthe": "groningen_drenthe",
		"Zuid-Holland":      "zuid_holland",
		" noord holland ":   "noord_holland",
		"UTRECHT":           "utrecht",
	} {
		r, ok := RegionByID(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, r.ID)
	}
	_, ok := RegionByID("atlantis")
	assert.False(t, ok)
}

func TestIsRegionalRole(t *testing.T) {
	assert.True(t, IsRegionalRole("Regio_All"))
	assert.True(t, IsRegionalRole("Regio_Oost"))
	assert.True(t, IsRegionalRole("hdcnRegio_6_Lid"))
	assert.False(t, IsRegionalRole("Members_CRUD"))
	assert.False(t, IsRegionalRole("Regio_Nowhere"))
}
