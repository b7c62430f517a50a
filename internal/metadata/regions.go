package metadata

import "strings"

// RegionAll is the sentinel returned for Regio_All holders.
const RegionAll = "all"

// Region is one entry of the region map.
type Region struct {
	ID       string // canonical identifier, e.g. groningen_drenthe
	Role     string // regional role, e.g. Regio_Groningen_Drenthe
	LegacyID int    // numeric id used in hdcnRegio_<id>_<Role>
	Name     string // display name
}

// Regions lists the regional chapters in legacy-id order.
var Regions = []Region{
	{ID: "utrecht", Role: "Regio_Utrecht", LegacyID: 1, Name: "Utrecht"},
	{ID: "limburg", Role: "Regio_Limburg", LegacyID: 2, Name: "Limburg"},
	{ID: "groningen_drenthe", Role: "Regio_Groningen_Drenthe", LegacyID: 3, Name: "Groningen/Drenthe"},
	{ID: "zuid_holland", Role: "Regio_Zuid_Holland", LegacyID: 4, Name: "Zuid-Holland"},
	{ID: "noord_holland", Role: "Regio_Noord_Holland", LegacyID: 5, Name: "Noord-Holland"},
	{ID: "oost", Role: "Regio_Oost", LegacyID: 6, Name: "Oost"},
	{ID: "brabant_zeeland", Role: "Regio_Brabant_Zeeland", LegacyID: 7, Name: "Brabant/Zeeland"},
	{ID: "friesland", Role: "Regio_Friesland", LegacyID: 8, Name: "Friesland"},
	{ID: "duitsland", Role: "Regio_Duitsland", LegacyID: 9, Name: "Duitsland"},
}

var (
	regionByRole     = make(map[string]Region, len(Regions))
	regionByID       = make(map[string]Region, len(Regions))
	regionByLegacyID = make(map[int]Region, len(Regions))
)

func init() {
	for _, r := range Regions {
		regionByRole[r.Role] = r
		regionByID[r.ID] = r
		regionByLegacyID[r.LegacyID] = r
	}
}

// RegionByRole resolves Regio_<Name> and hdcnRegio_<id>_<Function> roles.
// Regio_All is not a region and is not resolved here.
func RegionByRole(role string) (Region, bool) {
	if r, ok := regionByRole[role]; ok {
		return r, true
	}
	if id, _, ok := SplitLegacyRegionRole(role); ok {
		r, ok := regionByLegacyID[id]
		return r, ok
	}
	return Region{}, false
}

// RegionByID resolves a region identifier after normalization, so display
// names such as "Groningen/Drenthe" and "Zuid-Holland" are accepted.
func RegionByID(id string) (Region, bool) {
	r, ok := regionByID[NormalizeRegion(id)]
	return r, ok
}

// NormalizeRegion lower-cases s and folds spaces, slashes and hyphens into
// underscores.
func NormalizeRegion(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return regionReplacer.Replace(s)
}

var regionReplacer = strings.NewReplacer(" ", "_", "/", "_", "-", "_")

// IsRegionalRole reports whether role grants a region (Regio_All included).
func IsRegionalRole(role string) bool {
	if role == RoleRegionAll {
		return true
	}
	_, ok := RegionByRole(role)
	return ok
}
