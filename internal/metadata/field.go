package metadata

// Rule operators.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpExists      = "exists"
	OpNotExists   = "not_exists"
	OpAgeLessThan = "age_less_than"
)

// ConditionalRule is evaluated against a record. When Expression is set it
// is an expr-lang boolean expression over `record` and replaces Operator.
type ConditionalRule struct {
	Field      string `json:"field,omitempty" yaml:"field,omitempty"`
	Operator   string `json:"operator,omitempty" yaml:"operator,omitempty" validate:"omitempty,oneof=equals not_equals contains not_contains exists not_exists age_less_than"`
	Value      any    `json:"value,omitempty" yaml:"value,omitempty"`
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// FieldPermissions lists the roles that may view or edit a field.
type FieldPermissions struct {
	View               []string `json:"view" yaml:"view"`
	Edit               []string `json:"edit" yaml:"edit"`
	SelfService        bool     `json:"self_service,omitempty" yaml:"self_service,omitempty"`
	RegionalRestricted bool     `json:"regional_restricted,omitempty" yaml:"regional_restricted,omitempty"`
	MembershipTypes    []string `json:"membership_types,omitempty" yaml:"membership_types,omitempty"`

	viewRoles []PermissionRole
	editRoles []PermissionRole
}

// ViewRoles returns View parsed. Definitions that did not go through
// Catalog.Prepare are parsed on each call.
func (p *FieldPermissions) ViewRoles() []PermissionRole {
	if p.viewRoles == nil {
		return ParseRoles(p.View)
	}
	return p.viewRoles
}

// EditRoles returns Edit parsed, like ViewRoles.
func (p *FieldPermissions) EditRoles() []PermissionRole {
	if p.editRoles == nil {
		return ParseRoles(p.Edit)
	}
	return p.editRoles
}

// ConditionalEdit replaces the edit list of a field while Condition holds.
type ConditionalEdit struct {
	Condition   ConditionalRule `json:"condition" yaml:"condition"`
	Permissions []string        `json:"permissions" yaml:"permissions"`

	roles []PermissionRole
}

// Roles returns Permissions parsed, like FieldPermissions.ViewRoles.
func (ce *ConditionalEdit) Roles() []PermissionRole {
	if ce.roles == nil {
		return ParseRoles(ce.Permissions)
	}
	return ce.roles
}

// FieldDefinition describes one field of the member record.
type FieldDefinition struct {
	Key             string            `json:"key" yaml:"key" validate:"required"`
	Label           string            `json:"label" yaml:"label"`
	DataType        string            `json:"type" yaml:"type" validate:"omitempty,oneof=string text number boolean date email phone enum iban"`
	Group           string            `json:"group,omitempty" yaml:"group,omitempty"`
	Enum            []string          `json:"enum,omitempty" yaml:"enum,omitempty"`
	Permissions     FieldPermissions  `json:"permissions" yaml:"permissions"`
	ShowWhen        []ConditionalRule `json:"show_when,omitempty" yaml:"show_when,omitempty" validate:"dive"`
	HideWhen        []ConditionalRule `json:"hide_when,omitempty" yaml:"hide_when,omitempty" validate:"dive"`
	ConditionalEdit *ConditionalEdit  `json:"conditional_edit,omitempty" yaml:"conditional_edit,omitempty"`
}

// Context kinds.
const (
	ContextTable = "table"
	ContextModal = "modal"
)

// Section groups the fields of a modal context.
type Section struct {
	Name   string   `json:"name" yaml:"name" validate:"required"`
	Title  string   `json:"title,omitempty" yaml:"title,omitempty"`
	Fields []string `json:"fields" yaml:"fields"`
}

// Context is a named table (ordered columns) or modal (sections of fields).
type Context struct {
	Name     string    `json:"name" yaml:"name" validate:"required"`
	Kind     string    `json:"kind" yaml:"kind" validate:"required,oneof=table modal"`
	Columns  []string  `json:"columns,omitempty" yaml:"columns,omitempty"`
	Sections []Section `json:"sections,omitempty" yaml:"sections,omitempty" validate:"dive"`
}

// FieldKeys returns the field keys of the context in display order.
func (c *Context) FieldKeys() []string {
	if c.Kind == ContextTable {
		return c.Columns
	}
	var keys []string
	for _, s := range c.Sections {
		keys = append(keys, s.Fields...)
	}
	return keys
}

// Catalog is the static field and context configuration.
type Catalog struct {
	RegionField         string            `json:"region_field" yaml:"region_field"`
	MembershipTypeField string            `json:"membership_type_field" yaml:"membership_type_field"`
	RegionalReadRole    string            `json:"regional_read_role" yaml:"regional_read_role"`
	Fields              []FieldDefinition `json:"fields" yaml:"fields" validate:"dive"`
	Contexts            []Context         `json:"contexts" yaml:"contexts" validate:"dive"`

	fieldIndex   map[string]int
	contextIndex map[string]int
}

// Field returns the definition for key, or nil.
func (c *Catalog) Field(key string) *FieldDefinition {
	if i, ok := c.fieldIndex[key]; ok {
		return &c.Fields[i]
	}
	return nil
}

// Context returns the context named name, or nil.
func (c *Catalog) Context(name string) *Context {
	if i, ok := c.contextIndex[name]; ok {
		return &c.Contexts[i]
	}
	return nil
}

// ContextNames returns the context names in catalog order.
func (c *Catalog) ContextNames() []string {
	names := make([]string, len(c.Contexts))
	for i, ctx := range c.Contexts {
		names[i] = ctx.Name
	}
	return names
}

func (c *Catalog) applyDefaults() {
	if c.RegionField == "" {
		c.RegionField = "regio"
	}
	if c.MembershipTypeField == "" {
		c.MembershipTypeField = "lidmaatschap"
	}
	if c.RegionalReadRole == "" {
		c.RegionalReadRole = "Members_Read"
	}
}

func (c *Catalog) buildIndex() {
	c.fieldIndex = make(map[string]int, len(c.Fields))
	for i := range c.Fields {
		f := &c.Fields[i]
		c.fieldIndex[f.Key] = i
		f.Permissions.viewRoles = ParseRoles(f.Permissions.View)
		f.Permissions.editRoles = ParseRoles(f.Permissions.Edit)
		if f.ConditionalEdit != nil {
			f.ConditionalEdit.roles = ParseRoles(f.ConditionalEdit.Permissions)
		}
	}
	c.contextIndex = make(map[string]int, len(c.Contexts))
	for i, ctx := range c.Contexts {
		c.contextIndex[ctx.Name] = i
	}
}
