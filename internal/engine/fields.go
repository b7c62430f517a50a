package engine

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"hdcn-access/internal/metadata"
	"hdcn-access/internal/metrics"
)

// FieldAccess is the caller-supplied context of a field check. IsOwnRecord
// enables self-service fields for member roles; UserRegion is compared with
// the record region for regionally restricted fields. Neither is verified.
type FieldAccess struct {
	IsOwnRecord bool   `json:"is_own_record"`
	UserRegion  string `json:"user_region,omitempty"`
}

// FieldResolver filters catalog fields by role and record.
type FieldResolver struct {
	catalog *metadata.Catalog
	rules   *RuleEvaluator
	metrics *metrics.Metrics
}

type FieldResolverOption func(*fieldResolverOptions)

type fieldResolverOptions struct {
	now     func() time.Time
	exprs   ExpressionEvaluator
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// WithClock sets the clock used by age_less_than.
func WithClock(now func() time.Time) FieldResolverOption {
	return func(o *fieldResolverOptions) { o.now = now }
}

func WithExpressionEvaluator(e ExpressionEvaluator) FieldResolverOption {
	return func(o *fieldResolverOptions) { o.exprs = e }
}

func WithFieldMetrics(m *metrics.Metrics) FieldResolverOption {
	return func(o *fieldResolverOptions) { o.metrics = m }
}

func WithFieldLogger(l *zap.Logger) FieldResolverOption {
	return func(o *fieldResolverOptions) { o.logger = l }
}

// NewFieldResolver returns a resolver over a prepared catalog.
func NewFieldResolver(catalog *metadata.Catalog, opts ...FieldResolverOption) *FieldResolver {
	var o fieldResolverOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &FieldResolver{
		catalog: catalog,
		rules:   NewRuleEvaluator(o.exprs, o.now, o.logger),
		metrics: o.metrics,
	}
}

// Catalog returns the catalog the resolver reads.
func (r *FieldResolver) Catalog() *metadata.Catalog {
	return r.catalog
}

// ResolveFieldsForContext returns the fields of contextName that role may
// view for record, in context order. record may be nil, in which case the
// record-dependent rules are skipped. An unknown context is an error.
func (r *FieldResolver) ResolveFieldsForContext(contextName, role string, record map[string]any, access FieldAccess) ([]metadata.FieldDefinition, error) {
	return r.resolve(contextName, func(f *metadata.FieldDefinition) bool {
		return r.CanViewField(f, role, record, access)
	})
}

// EditableFieldsForContext is ResolveFieldsForContext for edit rights.
func (r *FieldResolver) EditableFieldsForContext(contextName, role string, record map[string]any, access FieldAccess) ([]metadata.FieldDefinition, error) {
	return r.resolve(contextName, func(f *metadata.FieldDefinition) bool {
		return r.CanEditField(f, role, record, access)
	})
}

func (r *FieldResolver) resolve(contextName string, keep func(*metadata.FieldDefinition) bool) ([]metadata.FieldDefinition, error) {
	ctx := r.catalog.Context(contextName)
	if ctx == nil {
		return nil, UnknownContextError(contextName)
	}
	r.metrics.FieldResolution(contextName)

	out := []metadata.FieldDefinition{}
	for _, key := range ctx.FieldKeys() {
		f := r.catalog.Field(key)
		if f == nil {
			continue
		}
		if keep(f) {
			out = append(out, *f)
		}
	}
	return out, nil
}

// CanViewField reports whether role may see f on record.
func (r *FieldResolver) CanViewField(f *metadata.FieldDefinition, role string, record map[string]any, access FieldAccess) bool {
	if f == nil || !r.visible(f, record) {
		return false
	}
	if !listAllows(f.Permissions.ViewRoles(), role) && !selfService(f, role, access) {
		return false
	}
	return r.regionAllows(f, role, record, access)
}

// CanEditField reports whether role may change f on record. A matching
// conditional-edit rule replaces the edit list instead of extending it.
func (r *FieldResolver) CanEditField(f *metadata.FieldDefinition, role string, record map[string]any, access FieldAccess) bool {
	if f == nil || !r.visible(f, record) {
		return false
	}
	editors := f.Permissions.EditRoles()
	if ce := f.ConditionalEdit; ce != nil && record != nil && r.rules.Matches(ce.Condition, record) {
		editors = ce.Roles()
	}
	if !listAllows(editors, role) && !selfService(f, role, access) {
		return false
	}
	return r.regionAllows(f, role, record, access)
}

// visible applies the membership-type allow-list and the show/hide rules.
// A matching hide rule wins over a matching show rule.
func (r *FieldResolver) visible(f *metadata.FieldDefinition, record map[string]any) bool {
	if record == nil {
		return true
	}
	if types := f.Permissions.MembershipTypes; len(types) > 0 {
		mt := fmt.Sprintf("%v", record[r.catalog.MembershipTypeField])
		if !lo.Contains(types, mt) {
			return false
		}
	}
	if len(f.ShowWhen) > 0 && !r.rules.AnyMatches(f.ShowWhen, record) {
		return false
	}
	if len(f.HideWhen) > 0 && r.rules.AnyMatches(f.HideWhen, record) {
		return false
	}
	return true
}

// regionAllows gates regionally restricted fields for the broad read role:
// the record must be in the caller's own region.
func (r *FieldResolver) regionAllows(f *metadata.FieldDefinition, role string, record map[string]any, access FieldAccess) bool {
	if !f.Permissions.RegionalRestricted || role != r.catalog.RegionalReadRole || record == nil {
		return true
	}
	if access.UserRegion == "" {
		return false
	}
	recordRegion, _ := record[r.catalog.RegionField].(string)
	return metadata.NormalizeRegion(recordRegion) == metadata.NormalizeRegion(access.UserRegion)
}

func selfService(f *metadata.FieldDefinition, role string, access FieldAccess) bool {
	return f.Permissions.SelfService && access.IsOwnRecord && lo.Contains(metadata.BaseMemberRoles, role)
}

func listAllows(patterns []metadata.PermissionRole, role string) bool {
	if len(patterns) == 0 {
		return false
	}
	held := metadata.ParseHeldRole(role)
	return lo.SomeBy(patterns, func(p metadata.PermissionRole) bool { return p.MatchesHeld(held) })
}
