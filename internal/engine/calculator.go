package engine

import "hdcn-access/internal/metadata"

// Calculator folds role sets through a role permission table.
type Calculator struct {
	table metadata.RolePermissionTable
}

// NewCalculator returns a calculator over table.
func NewCalculator(table metadata.RolePermissionTable) *Calculator {
	return &Calculator{table: table}
}

// Calculate unions the grants of every role per feature. Legacy aliases are
// expanded first and roles missing from the table contribute nothing. The
// result is never nil.
func (c *Calculator) Calculate(roles []string) metadata.FeaturePermissions {
	out := metadata.FeaturePermissions{}
	for _, role := range metadata.ExpandAliases(roles) {
		features, ok := c.table[role]
		if !ok {
			continue
		}
		for feature, grant := range features {
			out[feature] = out[feature].Union(grant)
		}
	}
	return out
}
