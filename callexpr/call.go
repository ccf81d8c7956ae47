package callexpr

import "strings"

// Arg is a single keyword argument of a call expression.
type Arg struct {
	// Name is the argument keyword.
	Name string `json:"name"`

	// Value is the typed argument value.
	Value Value `json:"value"`
}

// Call is a structured tool invocation: a function name plus keyword
// arguments. Argument order is preserved from the source text for
// serialization, but equality treats arguments as an unordered set.
type Call struct {
	// Name is the invoked function's name.
	Name string `json:"name"`

	// Args are the keyword arguments in emission order. Names are unique;
	// the parser rejects duplicate keys.
	Args []Arg `json:"args"`
}

// Arg returns the value of the named argument, if present.
func (c Call) Arg(name string) (Value, bool) {
	for _, a := range c.Args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// ArgNames returns the argument names in emission order.
func (c Call) ArgNames() []string {
	names := make([]string, len(c.Args))
	for i, a := range c.Args {
		names[i] = a.Name
	}
	return names
}

// Equal reports whether two calls are value-equal: identical function
// names, identical argument-name sets, and for every shared name values of
// the same semantic type that compare equal. Argument order is ignored.
func (c Call) Equal(other Call) bool {
	if c.Name != other.Name || len(c.Args) != len(other.Args) {
		return false
	}
	for _, a := range c.Args {
		ov, ok := other.Arg(a.Name)
		if !ok || !a.Value.Equal(ov) {
			return false
		}
	}
	return true
}

// Format renders the call in the surface grammar:
//
//	Name(key='value', key2=123)
func (c Call) Format() string {
	var b strings.Builder
	c.appendTo(&b)
	return b.String()
}

func (c Call) appendTo(b *strings.Builder) {
	b.WriteString(c.Name)
	b.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Name)
		b.WriteByte('=')
		a.Value.append(b)
	}
	b.WriteByte(')')
}

// Format renders a call sequence in the canonical bracketed surface form:
//
//	[First(a=1), Second(b='x')]
//
// Parse accepts this form (brackets optional), so Parse(Format(calls))
// round-trips for any well-formed sequence.
func Format(calls []Call) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range calls {
		if i > 0 {
			b.WriteString(", ")
		}
		c.appendTo(&b)
	}
	b.WriteByte(']')
	return b.String()
}
