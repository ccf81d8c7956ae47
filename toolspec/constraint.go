package toolspec

import (
	"fmt"
	"regexp"

	"github.com/google/cel-go/cel"

	"github.com/robustcall/sdk"
	"github.com/robustcall/sdk/callexpr"
)

// Validator checks argument values against parameter schemas. Pattern and
// CEL programs are compiled on first use and cached, so a Validator should
// be reused across samples. A Validator is safe for concurrent use only
// after all constraints it will see have been warmed; the evaluation runner
// gives each worker its own instance instead.
type Validator struct {
	env      *cel.Env
	patterns map[string]*regexp.Regexp
	programs map[string]cel.Program
}

// NewValidator creates a Validator with a CEL environment exposing the
// checked value as `value`.
func NewValidator() (*Validator, error) {
	env, err := cel.NewEnv(cel.Variable("value", cel.DynType))
	if err != nil {
		return nil, sdk.NewConfigurationError("toolspec.NewValidator", err)
	}
	return &Validator{
		env:      env,
		patterns: make(map[string]*regexp.Regexp),
		programs: make(map[string]cel.Program),
	}, nil
}

// Check validates a value against a parameter schema: declared type first,
// then pattern, enum membership, CEL expression, and nested schemas.
// It returns nil when the value satisfies every constraint.
func (v *Validator) Check(name string, p Parameter, value callexpr.Value) error {
	if !matchesType(p.Type, value) {
		return typeError(name, p.Type, value)
	}

	if p.Pattern != "" {
		re, err := v.compilePattern(p.Pattern)
		if err != nil {
			return err
		}
		s := string(value.(callexpr.String))
		if !re.MatchString(s) {
			return fmt.Errorf("parameter %q: value %q does not match pattern %q", name, s, p.Pattern)
		}
	}

	if len(p.Enum) > 0 {
		s := string(value.(callexpr.String))
		if !contains(p.Enum, s) {
			return fmt.Errorf("parameter %q: value %q is not one of %v", name, s, p.Enum)
		}
	}

	if p.Expr != "" {
		ok, err := v.evalExpr(p.Expr, value)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("parameter %q: value violates constraint %q", name, p.Expr)
		}
	}

	switch p.Type {
	case TypeList:
		if p.Items != nil {
			for i, item := range value.(callexpr.List) {
				if err := v.Check(fmt.Sprintf("%s[%d]", name, i), *p.Items, item); err != nil {
					return err
				}
			}
		}
	case TypeObject:
		if len(p.Properties) > 0 {
			m := value.(callexpr.Map)
			for field, schema := range p.Properties {
				fv, ok := m.Get(field)
				if !ok {
					if schema.Required {
						return fmt.Errorf("parameter %q: missing required field %q", name, field)
					}
					continue
				}
				if err := v.Check(name+"."+field, schema, fv); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// FirstViolation checks every argument of a call against the tool's schema
// and returns the name of the first parameter whose value violates a
// constraint, in the call's argument order. It returns "" when all supplied
// arguments validate. Arguments the schema does not know are skipped; the
// matcher handles those separately.
func (v *Validator) FirstViolation(spec ToolSpec, call callexpr.Call) (string, error) {
	for _, arg := range call.Args {
		schema, ok := spec.Parameters[arg.Name]
		if !ok {
			continue
		}
		if err := v.Check(arg.Name, schema, arg.Value); err != nil {
			return arg.Name, nil
		}
	}
	return "", nil
}

func (v *Validator) compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := v.patterns[pattern]; ok {
		return re, nil
	}
	// Anchor so the whole value must match.
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, sdk.NewConfigurationError("Validator.Check",
			fmt.Errorf("invalid pattern %q: %w", pattern, err))
	}
	v.patterns[pattern] = re
	return re, nil
}

func (v *Validator) evalExpr(expr string, value callexpr.Value) (bool, error) {
	prg, ok := v.programs[expr]
	if !ok {
		ast, iss := v.env.Compile(expr)
		if iss != nil && iss.Err() != nil {
			return false, sdk.NewConfigurationError("Validator.Check",
				fmt.Errorf("invalid constraint expression %q: %w", expr, iss.Err()))
		}
		var err error
		prg, err = v.env.Program(ast)
		if err != nil {
			return false, sdk.NewConfigurationError("Validator.Check",
				fmt.Errorf("constraint expression %q: %w", expr, err))
		}
		v.programs[expr] = prg
	}

	out, _, err := prg.Eval(map[string]any{"value": ToNative(value)})
	if err != nil {
		return false, sdk.NewValidationError("Validator.Check",
			fmt.Errorf("constraint expression %q: %w", expr, err))
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, sdk.NewConfigurationError("Validator.Check",
			fmt.Errorf("constraint expression %q did not evaluate to a boolean", expr))
	}
	return result, nil
}

// ToNative converts a callexpr.Value into plain Go data for CEL evaluation
// and diagnostics: bool, int64, float64, string, []any, or map[string]any.
func ToNative(v callexpr.Value) any {
	switch val := v.(type) {
	case callexpr.Null:
		return nil
	case callexpr.Bool:
		return bool(val)
	case callexpr.Int:
		return int64(val)
	case callexpr.Float:
		return float64(val)
	case callexpr.String:
		return string(val)
	case callexpr.List:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ToNative(item)
		}
		return out
	case callexpr.Map:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = ToNative(e.Value)
		}
		return out
	default:
		return nil
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
