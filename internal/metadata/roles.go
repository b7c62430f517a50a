package metadata

import (
	"strconv"
	"strings"
)

// Well-known role names.
const (
	RoleAdmin          = "hdcnAdmins"
	RoleWebmaster      = "Webmaster"
	RoleMember         = "hdcnLeden"
	RoleApplicant      = "verzoek_lid"
	RoleRegionAll      = "Regio_All"
	RegionRolePrefix   = "Regio_"
	LegacyRegionPrefix = "hdcnRegio_"
)

// PermissionType is the suffix of a structured role such as Members_CRUD.
type PermissionType string

const (
	PermissionRead   PermissionType = "Read"
	PermissionCRUD   PermissionType = "CRUD"
	PermissionExport PermissionType = "Export"
)

// Action is the UI-level action a decision is asked for.
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// PermissionType maps read to Read and write to CRUD.
func (a Action) PermissionType() PermissionType {
	if a == ActionWrite {
		return PermissionCRUD
	}
	return PermissionRead
}

// Valid reports whether a is read or write.
func (a Action) Valid() bool {
	return a == ActionRead || a == ActionWrite
}

// PermissionRole is a role pattern parsed once from its string form. The set
// of implementations is closed: ExactRole, StructuredRole, WildcardRole and
// LegacyRole.
type PermissionRole interface {
	Matches(role string) bool
	MatchesHeld(h HeldRole) bool
	String() string
	permissionRole()
}

// HeldRole is a role the user holds, classified once so that patterns match
// it without splitting the name again.
type HeldRole struct {
	Name string

	structured   StructuredRole
	isStructured bool
	legacyID     int
	legacyFunc   string
	isLegacy     bool
}

// ParseHeldRole classifies a held role name.
func ParseHeldRole(name string) HeldRole {
	h := HeldRole{Name: name}
	h.structured, h.isStructured = ParseStructuredRole(name)
	h.legacyID, h.legacyFunc, h.isLegacy = SplitLegacyRegionRole(name)
	return h
}

// ParseHeldRoles classifies every entry of names.
func ParseHeldRoles(names []string) []HeldRole {
	out := make([]HeldRole, len(names))
	for i, n := range names {
		out[i] = ParseHeldRole(n)
	}
	return out
}

// Structured returns the structured form of h, if it has one.
func (h HeldRole) Structured() (StructuredRole, bool) {
	return h.structured, h.isStructured
}

// Implies reports whether holding h satisfies a requirement for want.
func (h HeldRole) Implies(want StructuredRole) bool {
	return h.isStructured && h.structured.Implies(want)
}

// ExactRole matches one role name.
type ExactRole struct {
	Name string
}

func (r ExactRole) Matches(role string) bool { return role == r.Name }
func (r ExactRole) MatchesHeld(h HeldRole) bool { return h.Name == r.Name }
func (r ExactRole) String() string { return r.Name }
func (ExactRole) permissionRole() {}

// StructuredRole is <Feature>_<Type>, e.g. Members_CRUD. A CRUD role also
// satisfies a Read requirement through Implies, never through Matches.
type StructuredRole struct {
	Feature string
	Type    PermissionType
}

func (r StructuredRole) Matches(role string) bool { return role == r.String() }
func (r StructuredRole) MatchesHeld(h HeldRole) bool {
	return h.isStructured && h.structured == r
}
func (r StructuredRole) String() string { return r.Feature + "_" + string(r.Type) }
func (StructuredRole) permissionRole() {}

// Implies reports whether holding r satisfies a requirement for want.
func (r StructuredRole) Implies(want StructuredRole) bool {
	if r.Feature != want.Feature {
		return false
	}
	return r.Type == want.Type || (r.Type == PermissionCRUD && want.Type == PermissionRead)
}

// WildcardRole matches every role starting with Prefix.
type WildcardRole struct {
	Prefix string
}

func (r WildcardRole) Matches(role string) bool { return strings.HasPrefix(role, r.Prefix) }
func (r WildcardRole) MatchesHeld(h HeldRole) bool { return strings.HasPrefix(h.Name, r.Prefix) }
func (r WildcardRole) String() string { return r.Prefix + "*" }
func (WildcardRole) permissionRole() {}

// LegacyRole is hdcnRegio_<id>_<Function>. RegionID 0 matches any region and
// an empty Function matches any function.
type LegacyRole struct {
	RegionID int
	Function string
}

func (r LegacyRole) Matches(role string) bool { return r.MatchesHeld(ParseHeldRole(role)) }

func (r LegacyRole) MatchesHeld(h HeldRole) bool {
	if !h.isLegacy {
		return false
	}
	return (r.RegionID == 0 || r.RegionID == h.legacyID) && (r.Function == "" || r.Function == h.legacyFunc)
}

func (r LegacyRole) String() string {
	id, fn := "*", "*"
	if r.RegionID != 0 {
		id = strconv.Itoa(r.RegionID)
	}
	if r.Function != "" {
		fn = r.Function
	}
	return LegacyRegionPrefix + id + "_" + fn
}

func (LegacyRole) permissionRole() {}

// ParseRole turns a role string or role pattern into its PermissionRole.
//
//	Members_CRUD          StructuredRole
//	Members_*             WildcardRole
//	hdcnRegio_3_Secretaris, hdcnRegio_*_*   LegacyRole
//	anything else         ExactRole
func ParseRole(s string) PermissionRole {
	if strings.HasPrefix(s, LegacyRegionPrefix) {
		if r, ok := parseLegacyPattern(s); ok {
			return r
		}
	}
	if strings.HasSuffix(s, "*") {
		return WildcardRole{Prefix: strings.TrimSuffix(s, "*")}
	}
	if sr, ok := ParseStructuredRole(s); ok {
		return sr
	}
	return ExactRole{Name: s}
}

// ParseRoles parses every entry of ss.
func ParseRoles(ss []string) []PermissionRole {
	out := make([]PermissionRole, 0, len(ss))
	for _, s := range ss {
		out = append(out, ParseRole(s))
	}
	return out
}

// ParseStructuredRole recognises <Feature>_Read, <Feature>_CRUD and
// <Feature>_Export where Feature starts with an upper-case letter.
func ParseStructuredRole(s string) (StructuredRole, bool) {
	idx := strings.LastIndexByte(s, '_')
	if idx <= 0 || idx == len(s)-1 {
		return StructuredRole{}, false
	}
	feature, suffix := s[:idx], PermissionType(s[idx+1:])
	if feature[0] < 'A' || feature[0] > 'Z' {
		return StructuredRole{}, false
	}
	switch suffix {
	case PermissionRead, PermissionCRUD, PermissionExport:
		return StructuredRole{Feature: feature, Type: suffix}, true
	}
	return StructuredRole{}, false
}

// FeatureRole builds the structured role name for a lower-case feature name:
// ("members", CRUD) -> Members_CRUD.
func FeatureRole(feature string, t PermissionType) StructuredRole {
	return StructuredRole{Feature: Capitalize(feature), Type: t}
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// SplitLegacyRegionRole splits hdcnRegio_<id>_<Function> into its parts.
func SplitLegacyRegionRole(role string) (int, string, bool) {
	rest, ok := strings.CutPrefix(role, LegacyRegionPrefix)
	if !ok {
		return 0, "", false
	}
	idStr, fn, ok := strings.Cut(rest, "_")
	if !ok || fn == "" {
		return 0, "", false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, fn, true
}

func parseLegacyPattern(s string) (LegacyRole, bool) {
	rest := strings.TrimPrefix(s, LegacyRegionPrefix)
	idStr, fn, ok := strings.Cut(rest, "_")
	if !ok || fn == "" {
		return LegacyRole{}, false
	}
	var r LegacyRole
	if idStr != "*" {
		id, err := strconv.Atoi(idStr)
		if err != nil || id <= 0 {
			return LegacyRole{}, false
		}
		r.RegionID = id
	}
	if fn != "*" {
		r.Function = fn
	}
	return r, true
}
