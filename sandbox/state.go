package sandbox

import (
	"fmt"
	"sort"
)

// Attributes holds one simulated class's attribute values. Values are plain
// Go data: bool, int64, float64, string, []any, or map[string]any.
type Attributes map[string]any

// Clone returns a deep copy of the attributes.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	return out
}

// State is the sandbox's mutable world: a mapping from class identifier to
// that class's attributes.
type State map[string]Attributes

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := make(State, len(s))
	for class, attrs := range s {
		out[class] = attrs.Clone()
	}
	return out
}

// Get returns the value of class.attr, if present.
func (s State) Get(class, attr string) (any, bool) {
	attrs, ok := s[class]
	if !ok {
		return nil, false
	}
	v, ok := attrs[attr]
	return v, ok
}

// Set stores class.attr = value, creating the class entry if needed.
func (s State) Set(class, attr string, value any) {
	attrs, ok := s[class]
	if !ok {
		attrs = make(Attributes)
		s[class] = attrs
	}
	attrs[attr] = value
}

// MatchesTarget checks the state attribute-by-attribute against a target.
// Every class present in the target must exist with every listed attribute
// equal; classes absent from the target are ignored. It returns nil on a
// match and a descriptive error naming the first divergence otherwise.
func (s State) MatchesTarget(target State) error {
	classes := make([]string, 0, len(target))
	for class := range target {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		actual, ok := s[class]
		if !ok {
			return fmt.Errorf("class %s expected by the target is absent from the final state", class)
		}
		attrs := make([]string, 0, len(target[class]))
		for attr := range target[class] {
			attrs = append(attrs, attr)
		}
		sort.Strings(attrs)

		for _, attr := range attrs {
			want := target[class][attr]
			got, ok := actual[attr]
			if !ok {
				return fmt.Errorf("%s.%s expected by the target is absent from the final state", class, attr)
			}
			if !valueEqual(got, want) {
				return fmt.Errorf("%s.%s = %v, target expects %v", class, attr, got, want)
			}
		}
	}
	return nil
}

// valueEqual compares attribute values, treating all numeric types as one
// numeric domain so values decoded from JSON (float64) compare equal to
// values set by behaviors (often int).
func valueEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}

	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !valueEqual(v, bvv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
