package engine

import (
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"hdcn-access/internal/auth"
	"hdcn-access/internal/logging"
	"hdcn-access/internal/metadata"
	"hdcn-access/internal/metrics"
)

// Decision is the explained result of a permission check.
type Decision struct {
	Allowed      bool     `json:"allowed"`
	Reason       string   `json:"reason"`
	MatchedRoles []string `json:"matched_roles,omitempty"`
	Regions      []string `json:"regions,omitempty"`
}

// Decider answers UI permission questions for a user. Every method is total:
// a nil user or unknown input yields a denial, never a panic or error.
type Decider struct {
	reg     *metadata.Registry
	metrics *metrics.Metrics
	logger  *zap.Logger
}

type DeciderOption func(*Decider)

func WithMetrics(m *metrics.Metrics) DeciderOption {
	return func(d *Decider) { d.metrics = m }
}

func WithLogger(l *zap.Logger) DeciderOption {
	return func(d *Decider) { d.logger = l }
}

func NewDecider(reg *metadata.Registry, opts ...DeciderOption) *Decider {
	d := &Decider{reg: reg, logger: logging.L().Named("decision")}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Roles returns the user's role set with legacy aliases expanded.
func (d *Decider) Roles(user *auth.User) []string {
	return metadata.ExpandAliases(auth.GetUserRoles(user))
}

// CheckUIPermission requires both a permission-type role for feature and
// regional access to targetRegion. write needs <Feature>_CRUD; read is
// satisfied by <Feature>_Read or <Feature>_CRUD. Admin markers pass.
func (d *Decider) CheckUIPermission(user *auth.User, feature string, action metadata.Action, targetRegion string) bool {
	roles := d.Roles(user)
	allowed := d.checkUI(roles, feature, action, targetRegion)
	d.record("check_ui_permission", allowed, user, zap.String("feature", feature), zap.String("action", string(action)), zap.String("region", targetRegion))
	return allowed
}

func (d *Decider) checkUI(roles []string, feature string, action metadata.Action, targetRegion string) bool {
	if isAdmin(roles) {
		return true
	}
	if !action.Valid() {
		return false
	}
	want := metadata.FeatureRole(feature, action.PermissionType())
	if len(impliedBy(metadata.ParseHeldRoles(roles), want)) == 0 {
		return false
	}
	return HasRegionalAccess(roles, targetRegion)
}

// UserHasPermissionWithRegion reports whether the user holds permissionRole
// (or a role implying it) and has access to region.
func (d *Decider) UserHasPermissionWithRegion(user *auth.User, permissionRole, region string) bool {
	return d.ValidatePermissionWithRegion(user, permissionRole, region).Allowed
}

// ValidatePermissionWithRegion is UserHasPermissionWithRegion with the reason
// and the roles that satisfied each step.
func (d *Decider) ValidatePermissionWithRegion(user *auth.User, permissionRole, region string) Decision {
	roles := d.Roles(user)
	dec := d.validate(roles, permissionRole, region)
	d.record("validate_permission_with_region", dec.Allowed, user, zap.String("role", permissionRole), zap.String("region", region), zap.String("reason", dec.Reason))
	return dec
}

func (d *Decider) validate(roles []string, permissionRole, region string) Decision {
	regions := AccessibleRegions(roles)
	if admins := lo.Intersect(roles, metadata.AdminMarkers); len(admins) > 0 {
		return Decision{Allowed: true, Reason: "admin role", MatchedRoles: admins, Regions: regions}
	}

	held := metadata.ParseHeldRoles(roles)
	var matched []string
	if want, ok := metadata.ParseStructuredRole(permissionRole); ok {
		matched = impliedBy(held, want)
	} else {
		matched = matchingRoles(held, metadata.ParseRole(permissionRole))
	}
	if len(matched) == 0 {
		return Decision{Reason: fmt.Sprintf("missing permission role %s", permissionRole), Regions: regions}
	}

	if !HasRegionalAccess(roles, region) {
		reason := "no regional role"
		if region != "" {
			reason = fmt.Sprintf("no access to region %s", region)
		}
		return Decision{Reason: reason, MatchedRoles: matched, Regions: regions}
	}

	regional := lo.Filter(roles, func(r string, _ int) bool { return metadata.IsRegionalRole(r) })
	return Decision{Allowed: true, Reason: "granted", MatchedRoles: append(matched, regional...), Regions: regions}
}

// HasAccess checks the function-permission table. A feature with an
// explicit grant list needs a held role matching one of its patterns for
// action. A feature without one is open to admins, and the webshop to
// plain members.
func (d *Decider) HasAccess(user *auth.User, feature string, action metadata.Action) bool {
	roles := d.Roles(user)
	allowed := d.hasAccess(metadata.ParseHeldRoles(roles), feature, action)
	d.record("has_access", allowed, user, zap.String("feature", feature), zap.String("action", string(action)))
	return allowed
}

func (d *Decider) hasAccess(held []metadata.HeldRole, feature string, action metadata.Action) bool {
	if heldAdmin(held) {
		return true
	}
	grant, ok := d.reg.FunctionPatterns(feature)
	if !ok {
		return feature == metadata.FeatureWebshop && lo.ContainsBy(held, func(h metadata.HeldRole) bool {
			return h.Name == metadata.RoleMember
		})
	}
	for _, pattern := range grant.Patterns(action) {
		if holdsPattern(held, pattern) {
			return true
		}
	}
	return false
}

// HasFieldAccess evaluates the access tokens the user's roles grant on
// feature for action. ctx is trusted caller input.
func (d *Decider) HasFieldAccess(user *auth.User, feature string, action metadata.Action, ctx FieldAccessContext) bool {
	roles := d.Roles(user)
	allowed := d.hasFieldAccess(roles, feature, action, ctx)
	d.record("has_field_access", allowed, user, zap.String("feature", feature), zap.String("action", string(action)))
	return allowed
}

func (d *Decider) hasFieldAccess(roles []string, feature string, action metadata.Action, ctx FieldAccessContext) bool {
	if isAdmin(roles) {
		return true
	}
	grant := NewCalculator(d.reg.RolePermissions()).Calculate(roles)[feature]
	for _, token := range grant.Tokens(action) {
		if TokenAllows(token, roles, ctx) {
			return true
		}
	}
	return false
}

// CheckLegacyGroupAccess reports whether any held role matches one of the
// group patterns (exact, Prefix_* or hdcnRegio_<id>_<Function>).
func (d *Decider) CheckLegacyGroupAccess(user *auth.User, patterns ...string) bool {
	held := metadata.ParseHeldRoles(auth.GetUserRoles(user))
	for _, p := range metadata.ParseRoles(patterns) {
		if len(matchingRoles(held, p)) > 0 {
			return true
		}
	}
	return false
}

// UserHasRole reports whether the user holds role exactly.
func UserHasRole(user *auth.User, role string) bool {
	return lo.Contains(auth.GetUserRoles(user), role)
}

// UserHasAnyRole reports whether the user holds at least one of roles.
func UserHasAnyRole(user *auth.User, roles []string) bool {
	held := auth.GetUserRoles(user)
	return lo.SomeBy(roles, func(r string) bool { return lo.Contains(held, r) })
}

// FeatureAccess is the per-feature summary returned by Summarize.
type FeatureAccess struct {
	Read  bool `json:"read"`
	Write bool `json:"write"`
}

// Summary is everything the UI needs to gate its navigation for one user.
type Summary struct {
	Username    string                      `json:"username,omitempty"`
	Roles       []string                    `json:"roles"`
	Regions     []string                    `json:"regions"`
	Permissions metadata.FeaturePermissions `json:"permissions"`
	Features    map[string]FeatureAccess    `json:"features"`
}

// Summarize computes the role set, regions, granted tokens and function
// access of user in one pass.
func (d *Decider) Summarize(user *auth.User) Summary {
	roles := d.Roles(user)
	s := Summary{
		Roles:       roles,
		Regions:     AccessibleRegions(roles),
		Permissions: NewCalculator(d.reg.RolePermissions()).Calculate(roles),
		Features:    map[string]FeatureAccess{},
	}
	if user != nil {
		s.Username = user.Username
	}
	held := metadata.ParseHeldRoles(roles)
	for feature := range d.reg.FunctionPermissions() {
		s.Features[feature] = FeatureAccess{
			Read:  d.hasAccess(held, feature, metadata.ActionRead),
			Write: d.hasAccess(held, feature, metadata.ActionWrite),
		}
	}
	return s
}

func (d *Decider) record(op string, allowed bool, user *auth.User, fields ...zap.Field) {
	d.metrics.Decision(op, allowed)
	if ce := d.logger.Check(zap.DebugLevel, "permission decision"); ce != nil {
		username := ""
		if user != nil {
			username = user.Username
		}
		ce.Write(append(fields, zap.String("op", op), zap.String("user", username), zap.Bool("allowed", allowed))...)
	}
}

func isAdmin(roles []string) bool {
	return len(lo.Intersect(roles, metadata.AdminMarkers)) > 0
}

func heldAdmin(held []metadata.HeldRole) bool {
	return lo.ContainsBy(held, func(h metadata.HeldRole) bool {
		return lo.Contains(metadata.AdminMarkers, h.Name)
	})
}

// impliedBy returns the held structured roles that satisfy want.
func impliedBy(held []metadata.HeldRole, want metadata.StructuredRole) []string {
	return names(lo.Filter(held, func(h metadata.HeldRole, _ int) bool { return h.Implies(want) }))
}

func matchingRoles(held []metadata.HeldRole, pattern metadata.PermissionRole) []string {
	return names(lo.Filter(held, func(h metadata.HeldRole, _ int) bool { return pattern.MatchesHeld(h) }))
}

func names(held []metadata.HeldRole) []string {
	return lo.Map(held, func(h metadata.HeldRole, _ int) string { return h.Name })
}

// holdsPattern matches a function-permission pattern. Structured patterns
// also accept implying roles, so Members_CRUD satisfies Members_Read.
func holdsPattern(held []metadata.HeldRole, pattern metadata.PermissionRole) bool {
	if want, ok := pattern.(metadata.StructuredRole); ok {
		return len(impliedBy(held, want)) > 0
	}
	return len(matchingRoles(held, pattern)) > 0
}
