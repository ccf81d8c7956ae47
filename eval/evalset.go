package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/robustcall/sdk"
	"github.com/robustcall/sdk/callexpr"
	"github.com/robustcall/sdk/toolspec"
)

// LoadEvalSet reads an evaluation set from a JSON or YAML file, detected by
// extension, and validates it.
func LoadEvalSet(path string) (*EvalSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sdk.NewConfigurationError("eval.LoadEvalSet", err)
	}

	var set EvalSet
	switch ext := filepath.Ext(path); ext {
	case ".json":
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, sdk.NewConfigurationError("eval.LoadEvalSet",
				fmt.Errorf("parse JSON eval set: %w", err))
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &set); err != nil {
			return nil, sdk.NewConfigurationError("eval.LoadEvalSet",
				fmt.Errorf("parse YAML eval set: %w", err))
		}
	default:
		return nil, sdk.NewConfigurationError("eval.LoadEvalSet",
			fmt.Errorf("unsupported eval set format %q (supported: .json, .yaml, .yml)", ext))
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Validate checks sample IDs for presence and uniqueness and each sample's
// ground truth for consistency with its category.
func (e *EvalSet) Validate() error {
	validator, err := toolspec.NewValidator()
	if err != nil {
		return sdk.NewValidationError("EvalSet.Validate", err)
	}

	seen := make(map[string]bool, len(e.Samples))
	for i, sample := range e.Samples {
		if sample.ID == "" {
			return sdk.NewValidationError("EvalSet.Validate",
				fmt.Errorf("sample at index %d is missing an id", i))
		}
		if seen[sample.ID] {
			return sdk.NewValidationError("EvalSet.Validate",
				fmt.Errorf("duplicate sample id %s", sample.ID))
		}
		seen[sample.ID] = true

		if err := sample.validateGroundTruth(validator); err != nil {
			return sdk.NewValidationError("EvalSet.Validate",
				fmt.Errorf("sample %s: %w", sample.ID, err))
		}
	}
	return nil
}

func (s Sample) validateGroundTruth(validator *toolspec.Validator) error {
	switch s.Category {
	case CategoryNormal:
		if len(s.GroundTruth.Alternatives) == 0 {
			return fmt.Errorf("normal sample needs at least one accepted call set")
		}
	case CategorySpecial:
		record := s.GroundTruth.Detection
		if record == nil {
			return fmt.Errorf("special sample needs a detection record")
		}
		switch record.Kind {
		case DetectionIncomplete:
			if len(record.MissingParams) == 0 {
				return fmt.Errorf("incomplete detection needs missing parameter names")
			}
		case DetectionErrorParam:
			if record.Param == "" {
				return fmt.Errorf("error_param detection needs the offending parameter name")
			}
			if err := s.checkOffendingValue(validator, record); err != nil {
				return err
			}
		case DetectionIrrelevant:
		default:
			return fmt.Errorf("unknown detection kind %q", record.Kind)
		}
	case CategoryAgent:
		if s.GroundTruth.Trajectory == nil {
			return fmt.Errorf("agent sample needs a trajectory")
		}
	default:
		return fmt.Errorf("unknown category %q", s.Category)
	}
	return nil
}

// checkOffendingValue confirms that an error_param ground truth names a
// value the parameter's schema actually rejects; a record blaming a
// schema-valid value can never be detected correctly. Without the tool or
// parameter schema in the catalogue the check degrades to presence only,
// matching the scorer.
func (s Sample) checkOffendingValue(validator *toolspec.Validator, record *DetectionRecord) error {
	if record.Value == "" {
		return nil
	}
	tool, found := s.Tools.Find(record.Tool)
	if !found {
		return nil
	}
	schema, ok := tool.Parameters[record.Param]
	if !ok {
		return nil
	}

	if err := validator.Check(record.Param, schema, coerceRecordValue(schema.Type, record.Value)); err == nil {
		return fmt.Errorf("error_param value %q satisfies every constraint of parameter %q",
			record.Value, record.Param)
	}
	return nil
}

// coerceRecordValue lifts a detection record's textual value into the
// parameter's declared type. A value that cannot be lifted stays a string,
// which the type check then rejects; that mismatch is itself a violation.
func coerceRecordValue(t toolspec.ParamType, raw string) callexpr.Value {
	switch t {
	case toolspec.TypeNumber:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return callexpr.Int(n)
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return callexpr.Float(f)
		}
	case toolspec.TypeBoolean:
		if b, err := strconv.ParseBool(raw); err == nil {
			return callexpr.Bool(b)
		}
	}
	return callexpr.String(raw)
}
