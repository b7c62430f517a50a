package metadata

import "github.com/samber/lo"

// Grant lists the tokens that satisfy read and write for one feature. In the
// role table the tokens are access scopes ("all", "own", "region_utrecht", ...).
// In the function-permission table they are role patterns.
type Grant struct {
	Read  []string `json:"read,omitempty" yaml:"read,omitempty"`
	Write []string `json:"write,omitempty" yaml:"write,omitempty"`
}

// Tokens returns the list for action.
func (g Grant) Tokens(action Action) []string {
	if action == ActionWrite {
		return g.Write
	}
	return g.Read
}

// IsEmpty reports whether neither list has entries.
func (g Grant) IsEmpty() bool {
	return len(g.Read) == 0 && len(g.Write) == 0
}

// Union returns g ∪ other with duplicates removed and first-occurrence order kept.
func (g Grant) Union(other Grant) Grant {
	return Grant{
		Read:  unionStrings(g.Read, other.Read),
		Write: unionStrings(g.Write, other.Write),
	}
}

// FeaturePermissions maps a feature name to its grant.
type FeaturePermissions map[string]Grant

// Clone returns a deep copy.
func (fp FeaturePermissions) Clone() FeaturePermissions {
	out := make(FeaturePermissions, len(fp))
	for feature, g := range fp {
		out[feature] = Grant{Read: lo.Uniq(g.Read), Write: lo.Uniq(g.Write)}
	}
	return out
}

// RolePermissionTable maps a role name to the features it grants.
type RolePermissionTable map[string]FeaturePermissions

// FunctionPermissions maps a feature to the role patterns allowed to read or
// write it. The dynamic override stored as a parameter has this shape.
type FunctionPermissions map[string]Grant

// Merge returns the additive union of fp and override. Neither input is modified.
func (fp FunctionPermissions) Merge(override FunctionPermissions) FunctionPermissions {
	out := make(FunctionPermissions, len(fp)+len(override))
	for feature, g := range fp {
		out[feature] = Grant{}.Union(g)
	}
	for feature, g := range override {
		out[feature] = out[feature].Union(g)
	}
	return out
}

// Grant returns the grant for feature and whether one is defined at all.
func (fp FunctionPermissions) Grant(feature string) (Grant, bool) {
	g, ok := fp[feature]
	if !ok || g.IsEmpty() {
		return Grant{}, false
	}
	return g, true
}

// GrantPatterns is a function-permission grant with its role patterns
// parsed.
type GrantPatterns struct {
	Read  []PermissionRole
	Write []PermissionRole
}

// Patterns returns the list for action.
func (g GrantPatterns) Patterns(action Action) []PermissionRole {
	if action == ActionWrite {
		return g.Write
	}
	return g.Read
}

// Compile parses the patterns of every non-empty grant once.
func (fp FunctionPermissions) Compile() map[string]GrantPatterns {
	out := make(map[string]GrantPatterns, len(fp))
	for feature, g := range fp {
		if g.IsEmpty() {
			continue
		}
		out[feature] = GrantPatterns{Read: ParseRoles(g.Read), Write: ParseRoles(g.Write)}
	}
	return out
}

func unionStrings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return lo.Uniq(out)
}
