package engine

import (
	"strings"

	"github.com/samber/lo"

	"hdcn-access/internal/metadata"
)

// FieldAccessContext describes the record a field-level check is about. The
// caller computes it and is trusted: ownership and region are not re-derived.
type FieldAccessContext struct {
	IsOwnRecord bool   `json:"is_own_record"`
	FieldType   string `json:"field_type,omitempty"`
	UserRegion  string `json:"user_region,omitempty"`
}

// tokenPredicate decides one access token for a role set and context.
type tokenPredicate func(token string, roles []string, ctx FieldAccessContext) bool

var tokenPredicates = map[string]tokenPredicate{
	metadata.ScopeAll:         func(string, []string, FieldAccessContext) bool { return true },
	metadata.ScopeOwn:         ownRecord,
	metadata.ScopeOwnPersonal: ownRecord,
	metadata.ScopeStatus:      fieldType,
	metadata.ScopeFinancial:   fieldType,
}

// predicateFor returns the predicate for token: a fixed entry, the region or
// wildcard family, or plain role membership.
func predicateFor(token string) tokenPredicate {
	if p, ok := tokenPredicates[token]; ok {
		return p
	}
	switch {
	case strings.HasPrefix(token, metadata.ScopeRegionPrefix):
		return regionScope
	case strings.HasSuffix(token, "*"):
		return wildcardRole
	}
	return heldRole
}

// TokenAllows reports whether a single access token passes.
func TokenAllows(token string, roles []string, ctx FieldAccessContext) bool {
	return predicateFor(token)(token, roles, ctx)
}

func ownRecord(_ string, _ []string, ctx FieldAccessContext) bool {
	return ctx.IsOwnRecord
}

func fieldType(token string, _ []string, ctx FieldAccessContext) bool {
	return ctx.FieldType == token
}

func regionScope(token string, roles []string, ctx FieldAccessContext) bool {
	region := metadata.NormalizeRegion(strings.TrimPrefix(token, metadata.ScopeRegionPrefix))
	if ctx.UserRegion != "" && metadata.NormalizeRegion(ctx.UserRegion) == region {
		return true
	}
	return HasRegionalAccess(roles, region)
}

func wildcardRole(token string, roles []string, _ FieldAccessContext) bool {
	prefix := strings.TrimSuffix(token, "*")
	return lo.SomeBy(roles, func(r string) bool { return strings.HasPrefix(r, prefix) })
}

func heldRole(token string, roles []string, _ FieldAccessContext) bool {
	return lo.Contains(roles, token)
}
