package toolspec

import (
	"fmt"

	"github.com/robustcall/sdk/callexpr"
)

// ParamType identifies the declared type of a tool parameter.
type ParamType string

const (
	// TypeString accepts string values.
	TypeString ParamType = "string"

	// TypeNumber accepts integer or floating-point values.
	TypeNumber ParamType = "number"

	// TypeBoolean accepts boolean values.
	TypeBoolean ParamType = "boolean"

	// TypeEnum accepts a string drawn from a fixed set of values.
	TypeEnum ParamType = "enum"

	// TypeList accepts an ordered sequence; Items describes the elements.
	TypeList ParamType = "list"

	// TypeObject accepts a string-keyed mapping; Properties describes the fields.
	TypeObject ParamType = "object"
)

// Parameter describes one parameter of a tool, including its optional
// constraints. A zero constraint set means any value of the declared type
// is acceptable.
type Parameter struct {
	// Type is the declared parameter type.
	Type ParamType `json:"type" yaml:"type"`

	// Description is free text shown to the model. Perturbations may
	// rewrite it; scoring never reads it.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Required marks the parameter as mandatory for a well-formed call.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`

	// Pattern is a regexp the (string) value must match in full.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Enum lists the accepted values for TypeEnum parameters.
	Enum []string `json:"enum,omitempty" yaml:"enum,omitempty"`

	// Expr is an optional CEL expression evaluated with the supplied value
	// bound as `value`; it must evaluate to true for the value to pass.
	Expr string `json:"expr,omitempty" yaml:"expr,omitempty"`

	// Items describes list elements for TypeList parameters.
	Items *Parameter `json:"items,omitempty" yaml:"items,omitempty"`

	// Properties describes nested fields for TypeObject parameters.
	Properties map[string]Parameter `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Clone returns a deep copy of the parameter.
func (p Parameter) Clone() Parameter {
	out := p
	if p.Enum != nil {
		out.Enum = append([]string(nil), p.Enum...)
	}
	if p.Items != nil {
		items := p.Items.Clone()
		out.Items = &items
	}
	if p.Properties != nil {
		out.Properties = make(map[string]Parameter, len(p.Properties))
		for k, v := range p.Properties {
			out.Properties[k] = v.Clone()
		}
	}
	return out
}

// ToolSpec describes one callable tool in a sample's catalogue.
type ToolSpec struct {
	// Name is the tool's unique name within the catalogue. Decoy
	// perturbations deliberately violate uniqueness.
	Name string `json:"name" yaml:"name"`

	// Description is free text shown to the model.
	Description string `json:"description" yaml:"description"`

	// Parameters maps parameter name to its schema.
	Parameters map[string]Parameter `json:"parameters" yaml:"parameters"`
}

// Clone returns a deep copy of the tool spec.
func (t ToolSpec) Clone() ToolSpec {
	out := t
	if t.Parameters != nil {
		out.Parameters = make(map[string]Parameter, len(t.Parameters))
		for k, v := range t.Parameters {
			out.Parameters[k] = v.Clone()
		}
	}
	return out
}

// Catalogue is the ordered list of tools available to a sample.
type Catalogue []ToolSpec

// Find returns the first tool with the given name.
func (c Catalogue) Find(name string) (ToolSpec, bool) {
	for _, t := range c {
		if t.Name == name {
			return t, true
		}
	}
	return ToolSpec{}, false
}

// Names returns the tool names in catalogue order, including duplicates.
func (c Catalogue) Names() []string {
	names := make([]string, len(c))
	for i, t := range c {
		names[i] = t.Name
	}
	return names
}

// Clone returns a deep copy of the catalogue.
func (c Catalogue) Clone() Catalogue {
	out := make(Catalogue, len(c))
	for i, t := range c {
		out[i] = t.Clone()
	}
	return out
}

// matchesType reports whether a value's semantic kind satisfies the
// declared parameter type.
func matchesType(t ParamType, v callexpr.Value) bool {
	switch t {
	case TypeString, TypeEnum:
		return v.Kind() == callexpr.KindString
	case TypeNumber:
		return v.Kind() == callexpr.KindNumber
	case TypeBoolean:
		return v.Kind() == callexpr.KindBool
	case TypeList:
		return v.Kind() == callexpr.KindList
	case TypeObject:
		return v.Kind() == callexpr.KindMap
	default:
		return false
	}
}

// typeError builds a consistent type-mismatch error.
func typeError(name string, t ParamType, v callexpr.Value) error {
	return fmt.Errorf("parameter %q: expected %s, got %s", name, t, v.Kind())
}
