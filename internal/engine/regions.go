package engine

import (
	"github.com/samber/lo"

	"hdcn-access/internal/metadata"
)

// AccessibleRegions returns the canonical regions covered by roles. Holding
// Regio_All yields exactly ["all"].
func AccessibleRegions(roles []string) []string {
	if lo.Contains(roles, metadata.RoleRegionAll) {
		return []string{metadata.RegionAll}
	}
	out := []string{}
	for _, role := range roles {
		if r, ok := metadata.RegionByRole(role); ok {
			out = append(out, r.ID)
		}
	}
	return lo.Uniq(out)
}

// HasRegionalAccess reports whether roles cover target. An empty target is
// satisfied by any regional role.
func HasRegionalAccess(roles []string, target string) bool {
	if lo.Contains(roles, metadata.RoleRegionAll) {
		return true
	}
	if target == "" {
		return lo.SomeBy(roles, metadata.IsRegionalRole)
	}
	want, ok := metadata.RegionByID(target)
	if !ok {
		return false
	}
	return lo.SomeBy(roles, func(role string) bool {
		r, ok := metadata.RegionByRole(role)
		return ok && r.ID == want.ID
	})
}

// RegionForRole returns the canonical region of a regional role.
func RegionForRole(role string) (string, bool) {
	if role == metadata.RoleRegionAll {
		return metadata.RegionAll, true
	}
	r, ok := metadata.RegionByRole(role)
	return r.ID, ok
}

// RoleForRegion returns the Regio_ role granting region.
func RoleForRegion(region string) (string, bool) {
	if metadata.NormalizeRegion(region) == metadata.RegionAll {
		return metadata.RoleRegionAll, true
	}
	r, ok := metadata.RegionByID(region)
	return r.Role, ok
}

// Regions returns the region map in legacy-id order.
func Regions() []metadata.Region {
	return append([]metadata.Region(nil), metadata.Regions...)
}
