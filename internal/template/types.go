package template

// Kind is the closed set of parameter types a report schema may
// declare. Compilation dispatches on the variant, not on free-form
// type strings.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
	KindArray   Kind = "array"
	// KindPattern is a string destined for a pattern-matching clause;
	// values without wildcard markers are wrapped with % on both sides.
	KindPattern Kind = "pattern"
)

func (k Kind) Valid() bool {
	switch k {
	case KindString, KindNumber, KindBoolean, KindDate, KindArray, KindPattern:
		return true
	}
	return false
}

// Parameter declares one named parameter of a report template.
type Parameter struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Required bool   `json:"required"`
}

// Schema is the declared parameter set for one template.
type Schema []Parameter

func (s Schema) Find(name string) (Parameter, bool) {
	for _, p := range s {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Result is the outcome of a successful compilation. Warnings carry
// schema/template mismatches that do not block dispatch.
type Result struct {
	SQL      string
	Warnings []string
}
