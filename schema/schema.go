package schema

// ValueType describes how a cell is coerced during validation.
type ValueType string

const (
	TypeText   ValueType = "text"
	TypeNumber ValueType = "number"
	TypeDate   ValueType = "date"
)

// RoleKind describes the part a column plays in the generated report.
type RoleKind string

const (
	// KindCategory drives grouping: one group slide per distinct value.
	KindCategory RoleKind = "category"
	// KindMetric is a numeric column that is summed into the summary slide.
	KindMetric RoleKind = "metric"
	// KindAttribute is carried through to table cells without aggregation.
	KindAttribute RoleKind = "attribute"
)

// RoleDefinition binds one expected column header to its semantic role.
type RoleDefinition struct {
	Column   string    // expected header text, matched after trimming
	Role     string    // semantic role name, used in errors and slide columns
	Kind     RoleKind
	Type     ValueType
	Required bool
}

// Definition is an ordered, immutable set of role definitions. It is safe
// for unsynchronized concurrent reads once constructed.
type Definition struct {
	Version  string
	roles    []RoleDefinition
	byColumn map[string]RoleDefinition
}

// NewDefinition builds a Definition from an ordered role list.
func NewDefinition(version string, roles []RoleDefinition) *Definition {
	d := &Definition{
		Version:  version,
		roles:    make([]RoleDefinition, len(roles)),
		byColumn: make(map[string]RoleDefinition, len(roles)),
	}
	copy(d.roles, roles)
	for _, r := range roles {
		d.byColumn[r.Column] = r
	}
	return d
}

// Lookup maps a header cell to its role definition. An absent column is not
// an error at this level; the caller decides whether the role was required.
func (d *Definition) Lookup(column string) (RoleDefinition, bool) {
	r, ok := d.byColumn[column]
	return r, ok
}

// Roles returns the role definitions in declaration order.
func (d *Definition) Roles() []RoleDefinition {
	out := make([]RoleDefinition, len(d.roles))
	copy(out, d.roles)
	return out
}

// Required returns the required roles in declaration order.
func (d *Definition) Required() []RoleDefinition {
	var out []RoleDefinition
	for _, r := range d.roles {
		if r.Required {
			out = append(out, r)
		}
	}
	return out
}

// CategoryRole returns the grouping role, if the schema declares one.
func (d *Definition) CategoryRole() (RoleDefinition, bool) {
	for _, r := range d.roles {
		if r.Kind == KindCategory {
			return r, true
		}
	}
	return RoleDefinition{}, false
}

// MetricRoles returns the numeric roles that feed the summary aggregates,
// in declaration order.
func (d *Definition) MetricRoles() []RoleDefinition {
	var out []RoleDefinition
	for _, r := range d.roles {
		if r.Kind == KindMetric {
			out = append(out, r)
		}
	}
	return out
}

// Default returns the built-in business review schema. The column headers
// are what the standard export produces; the role name is what reports and
// validation errors use.
func Default() *Definition {
	return NewDefinition("v1", []RoleDefinition{
		{Column: "Region", Role: "Region", Kind: KindCategory, Type: TypeText, Required: true},
		{Column: "Revenue", Role: "Revenue", Kind: KindMetric, Type: TypeNumber, Required: true},
		{Column: "Units", Role: "Units", Kind: KindMetric, Type: TypeNumber, Required: false},
		{Column: "Period", Role: "Period", Kind: KindAttribute, Type: TypeDate, Required: false},
		{Column: "Owner", Role: "Owner", Kind: KindAttribute, Type: TypeText, Required: false},
		{Column: "Notes", Role: "Notes", Kind: KindAttribute, Type: TypeText, Required: false},
	})
}
