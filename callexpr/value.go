package callexpr

import (
	"strconv"
	"strings"
)

// Kind identifies the semantic type of a Value. Two values can only be equal
// when their kinds match; integer and floating-point literals share
// KindNumber and compare numerically.
type Kind int

const (
	// KindNull is the null/None literal.
	KindNull Kind = iota

	// KindBool is a boolean literal.
	KindBool

	// KindNumber covers both integer and floating-point literals.
	KindNumber

	// KindString is a quoted string literal.
	KindString

	// KindList is an ordered sequence of values.
	KindList

	// KindMap is a string-keyed mapping of values.
	KindMap
)

// String returns the lowercase name of the kind, matching the vocabulary
// used in match-error diagnostics.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a typed argument value in a call expression.
//
// Implementations are Null, Bool, Int, Float, String, List, and Map.
// Values are compared with Equal, which requires matching kinds and
// recursively equal contents (element-wise for lists, key-wise for maps).
type Value interface {
	// Kind returns the semantic type of the value.
	Kind() Kind

	// Equal reports whether other has the same semantic type and an equal
	// value. Lists compare element-wise, maps key-wise, both recursively.
	Equal(other Value) bool

	// append writes the surface-grammar form of the value to b.
	append(b *strings.Builder)
}

// Null is the null/None literal.
type Null struct{}

// Kind returns KindNull.
func (Null) Kind() Kind { return KindNull }

// Equal reports whether other is also null.
func (Null) Equal(other Value) bool {
	return other != nil && other.Kind() == KindNull
}

func (Null) append(b *strings.Builder) { b.WriteString("null") }

// Bool is a boolean literal.
type Bool bool

// Kind returns KindBool.
func (Bool) Kind() Kind { return KindBool }

// Equal reports whether other is a boolean with the same truth value.
func (v Bool) Equal(other Value) bool {
	o, ok := other.(Bool)
	return ok && o == v
}

func (v Bool) append(b *strings.Builder) {
	if v {
		b.WriteString("true")
	} else {
		b.WriteString("false")
	}
}

// Int is an integer literal. It shares KindNumber with Float and compares
// numerically against it, so Int(1) equals Float(1.0).
type Int int64

// Kind returns KindNumber.
func (Int) Kind() Kind { return KindNumber }

// Equal reports whether other is a number with the same numeric value.
func (v Int) Equal(other Value) bool {
	switch o := other.(type) {
	case Int:
		return o == v
	case Float:
		return float64(o) == float64(v)
	default:
		return false
	}
}

func (v Int) append(b *strings.Builder) {
	b.WriteString(strconv.FormatInt(int64(v), 10))
}

// Float is a floating-point literal.
type Float float64

// Kind returns KindNumber.
func (Float) Kind() Kind { return KindNumber }

// Equal reports whether other is a number with the same numeric value.
func (v Float) Equal(other Value) bool {
	switch o := other.(type) {
	case Int:
		return float64(v) == float64(o)
	case Float:
		return o == v
	default:
		return false
	}
}

func (v Float) append(b *strings.Builder) {
	s := strconv.FormatFloat(float64(v), 'g', -1, 64)
	b.WriteString(s)
	// Keep the literal recognizably floating-point so it round-trips.
	if !strings.ContainsAny(s, ".eE") {
		b.WriteString(".0")
	}
}

// String is a string literal.
type String string

// Kind returns KindString.
func (String) Kind() Kind { return KindString }

// Equal reports whether other is a string with identical (case-sensitive)
// contents.
func (v String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && o == v
}

func (v String) append(b *strings.Builder) {
	b.WriteByte('\'')
	for _, r := range string(v) {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
}

// List is an ordered sequence of values.
type List []Value

// Kind returns KindList.
func (List) Kind() Kind { return KindList }

// Equal reports whether other is a list of the same length whose elements
// are pairwise equal in order.
func (v List) Equal(other Value) bool {
	o, ok := other.(List)
	if !ok || len(o) != len(v) {
		return false
	}
	for i := range v {
		if !v[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (v List) append(b *strings.Builder) {
	b.WriteByte('[')
	for i, item := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		item.append(b)
	}
	b.WriteByte(']')
}

// MapEntry is a single key/value pair in a Map. Entries keep their source
// order so serialization round-trips, but Map equality ignores order.
type MapEntry struct {
	Key   string
	Value Value
}

// Map is a string-keyed mapping of values with remembered insertion order.
type Map []MapEntry

// Kind returns KindMap.
func (Map) Kind() Kind { return KindMap }

// Get returns the value stored under key, if any.
func (v Map) Get(key string) (Value, bool) {
	for _, e := range v {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Equal reports whether other is a map with an identical key set and
// recursively equal values. Entry order is irrelevant.
func (v Map) Equal(other Value) bool {
	o, ok := other.(Map)
	if !ok || len(o) != len(v) {
		return false
	}
	for _, e := range v {
		ov, found := o.Get(e.Key)
		if !found || !e.Value.Equal(ov) {
			return false
		}
	}
	return true
}

func (v Map) append(b *strings.Builder) {
	b.WriteByte('{')
	for i, e := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		String(e.Key).append(b)
		b.WriteString(": ")
		e.Value.append(b)
	}
	b.WriteByte('}')
}

// FormatValue renders a single value in the surface grammar.
func FormatValue(v Value) string {
	var b strings.Builder
	v.append(&b)
	return b.String()
}
