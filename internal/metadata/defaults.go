package metadata

// Access scope tokens used in RolePermissionTable grants.
const (
	ScopeAll          = "all"
	ScopeOwn          = "own"
	ScopeOwnPersonal  = "own_personal"
	ScopeStatus       = "status"
	ScopeFinancial    = "financial"
	ScopeRegionPrefix = "region_"
)

// Feature names.
const (
	FeatureMembers       = "members"
	FeatureMemberships   = "memberships"
	FeatureEvents        = "events"
	FeatureProducts      = "products"
	FeatureWebshop       = "webshop"
	FeatureCommunication = "communication"
	FeatureParameters    = "parameters"
	FeatureSystem        = "system"
	FeatureFinancial     = "financial"
)

// AdminMarkers are legacy roles that pass every decision.
var AdminMarkers = []string{RoleAdmin, RoleWebmaster}

// BaseMemberRoles are the roles that may use self-service fields.
var BaseMemberRoles = []string{RoleMember, RoleApplicant}

var allFeatures = []string{
	FeatureMembers, FeatureMemberships, FeatureEvents, FeatureProducts, FeatureWebshop,
	FeatureCommunication, FeatureParameters, FeatureSystem, FeatureFinancial,
}

var readWriteAll = Grant{Read: []string{ScopeAll}, Write: []string{ScopeAll}}
var readAll = Grant{Read: []string{ScopeAll}}

// DefaultRolePermissions is the canonical role table. Legacy names are not
// listed here; LegacyAliases maps them onto these entries.
func DefaultRolePermissions() RolePermissionTable {
	admin := FeaturePermissions{}
	for _, f := range allFeatures {
		admin[f] = readWriteAll
	}

	return RolePermissionTable{
		RoleAdmin:     admin,
		RoleWebmaster: admin.Clone(),

		"Members_CRUD": {
			FeatureMembers:     readWriteAll,
			FeatureMemberships: readWriteAll,
		},
		"Members_Read": {
			FeatureMembers:     readAll,
			FeatureMemberships: readAll,
		},
		"Members_Export": {
			FeatureMembers: readAll,
		},
		"Members_Status_Approve": {
			FeatureMembers: {Read: []string{ScopeAll}, Write: []string{ScopeStatus}},
		},
		"Financial_CRUD": {
			FeatureMembers:     {Read: []string{ScopeFinancial}, Write: []string{ScopeFinancial}},
			FeatureMemberships: readAll,
			FeatureFinancial:   readWriteAll,
		},
		"Financial_Read": {
			FeatureMembers:   {Read: []string{ScopeFinancial}},
			FeatureFinancial: readAll,
		},
		"Events_CRUD": {
			FeatureEvents: readWriteAll,
		},
		"Events_Read": {
			FeatureEvents: readAll,
		},
		"Products_CRUD": {
			FeatureProducts: readWriteAll,
			FeatureWebshop:  readAll,
		},
		"Products_Read": {
			FeatureProducts: readAll,
		},
		"Webshop_Management": {
			FeatureWebshop:  readWriteAll,
			FeatureProducts: readAll,
		},
		"Communication_CRUD": {
			FeatureCommunication: readWriteAll,
		},
		"Communication_Read": {
			FeatureCommunication: readAll,
		},
		"Communication_Export": {
			FeatureCommunication: readAll,
		},
		"System_User_Management": {
			FeatureSystem:     readWriteAll,
			FeatureMembers:    readAll,
			FeatureParameters: readAll,
		},
		RoleMember: {
			FeatureMembers:     {Read: []string{ScopeOwn}, Write: []string{ScopeOwnPersonal}},
			FeatureMemberships: {Read: []string{ScopeOwn}},
			FeatureEvents:      readAll,
			FeatureProducts:    readAll,
			FeatureWebshop:     {Read: []string{ScopeAll}, Write: []string{ScopeOwn}},
		},
		RoleApplicant: {
			FeatureMembers:     {Read: []string{ScopeOwn}, Write: []string{ScopeOwnPersonal}},
			FeatureMemberships: {Read: []string{ScopeOwn}, Write: []string{ScopeOwn}},
		},
	}
}

// LegacyAliases maps retired role names onto canonical roles. The legacy name
// stays in the role set; its targets are added next to it.
var LegacyAliases = map[string][]string{
	"Members_CRUD_All":           {"Members_CRUD", RoleRegionAll},
	"Members_Read_All":           {"Members_Read", RoleRegionAll},
	"Members_Export_All":         {"Members_Export", RoleRegionAll},
	"Members_Status_Approve_All": {"Members_Status_Approve", RoleRegionAll},
	"Events_CRUD_All":            {"Events_CRUD", RoleRegionAll},
	"Events_Read_All":            {"Events_Read", RoleRegionAll},
	"Products_CRUD_All":          {"Products_CRUD", RoleRegionAll},
	"Products_Read_All":          {"Products_Read", RoleRegionAll},
	"Communication_CRUD_All":     {"Communication_CRUD", RoleRegionAll},
	"Communication_Read_All":     {"Communication_Read", RoleRegionAll},
	"Communication_Export_All":   {"Communication_Export", RoleRegionAll},
	"hdcnLedenadministratie":     {"Members_CRUD", RoleRegionAll},
	"hdcnEvenementenBeheer":      {"Events_CRUD", RoleRegionAll},
	"hdcnWebshopBeheer":          {"Webshop_Management", "Products_CRUD", RoleRegionAll},
	"National_Chairman":          {"Members_Read", "Events_Read", "Products_Read", "Communication_Read", RoleRegionAll},
	"National_Secretary":         {"Members_CRUD", "Events_Read", "Communication_CRUD", RoleRegionAll},
}

// ExpandAliases returns roles plus the canonical targets of every legacy
// alias, without duplicates, in first-occurrence order.
func ExpandAliases(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	add := func(r string) {
		if _, ok := seen[r]; ok {
			return
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	for _, r := range roles {
		add(r)
		for _, target := range LegacyAliases[r] {
			add(target)
		}
	}
	return out
}

// DefaultFunctionPermissions is the hardcoded function-permission table used
// when no override is available. Overrides are merged into it additively.
func DefaultFunctionPermissions() FunctionPermissions {
	return FunctionPermissions{
		FeatureMembers: {
			Read:  []string{"Members_Read", "Members_CRUD", "Members_Export", "Members_Status_Approve", "System_User_Management"},
			Write: []string{"Members_CRUD"},
		},
		FeatureMemberships: {
			Read:  []string{"Members_*", "Financial_*"},
			Write: []string{"Members_CRUD"},
		},
		FeatureEvents: {
			Read:  []string{"Events_*", RoleMember},
			Write: []string{"Events_CRUD"},
		},
		FeatureProducts: {
			Read:  []string{"Products_*", "Webshop_Management", RoleMember},
			Write: []string{"Products_CRUD"},
		},
		FeatureWebshop: {
			Read:  []string{RoleMember, "Webshop_Management", "Products_*"},
			Write: []string{RoleMember, "Webshop_Management"},
		},
		FeatureCommunication: {
			Read:  []string{"Communication_*"},
			Write: []string{"Communication_CRUD"},
		},
		FeatureParameters: {
			Read: []string{"System_User_Management"},
		},
		FeatureSystem: {
			Read:  []string{"System_*"},
			Write: []string{"System_User_Management"},
		},
		"regional_reports": {
			Read: []string{LegacyRegionPrefix + "*_*", "Members_Read", "Members_CRUD"},
		},
	}
}
