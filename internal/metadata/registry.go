package metadata

import "sync"

// Registry holds the tables the decision engine reads. Every table is
// replaced as a whole; readers never observe a partial update.
type Registry struct {
	mu        sync.RWMutex
	roles     RolePermissionTable
	functions FunctionPermissions
	patterns  map[string]GrantPatterns
	catalog   *Catalog
}

// NewRegistry returns a registry loaded with the built-in role table and
// function permissions and no catalog.
func NewRegistry() *Registry {
	functions := DefaultFunctionPermissions()
	return &Registry{
		roles:     DefaultRolePermissions(),
		functions: functions,
		patterns:  functions.Compile(),
	}
}

// RolePermissions returns the role table.
func (r *Registry) RolePermissions() RolePermissionTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roles
}

// FunctionPermissions returns the function-permission table.
func (r *Registry) FunctionPermissions() FunctionPermissions {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.functions
}

// FunctionPatterns returns the parsed grant for feature and whether a
// non-empty one exists.
func (r *Registry) FunctionPatterns(feature string) (GrantPatterns, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.patterns[feature]
	return g, ok
}

// Catalog returns the field catalog, or nil before LoadCatalog.
func (r *Registry) Catalog() *Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog
}

// LoadRolePermissions replaces the role table.
func (r *Registry) LoadRolePermissions(table RolePermissionTable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles = table
}

// LoadFunctionPermissions replaces the function-permission table. Callers
// holding an override merge it with DefaultFunctionPermissions first. The
// role patterns are parsed here, once per table.
func (r *Registry) LoadFunctionPermissions(table FunctionPermissions) {
	patterns := table.Compile()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions = table
	r.patterns = patterns
}

// LoadCatalog replaces the field catalog. c must have been prepared.
func (r *Registry) LoadCatalog(c *Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog = c
}
