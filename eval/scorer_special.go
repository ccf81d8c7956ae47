package eval

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robustcall/sdk"
	"github.com/robustcall/sdk/callexpr"
)

// DetectionPolicy lists the recognized phrasings per detection kind. It is
// an external, replaceable vocabulary: scoring logic never hard-codes
// phrases, so paraphrased detections can be admitted by editing the policy
// rather than the code.
type DetectionPolicy struct {
	// MissingParams phrases signal a missing-parameter report.
	MissingParams []string `json:"missing_params" yaml:"missing_params"`

	// InvalidValue phrases signal an invalid-value report.
	InvalidValue []string `json:"invalid_value" yaml:"invalid_value"`

	// Refusal phrases signal a capability refusal.
	Refusal []string `json:"refusal" yaml:"refusal"`
}

// DefaultDetectionPolicy returns the built-in phrase vocabulary.
func DefaultDetectionPolicy() DetectionPolicy {
	return DetectionPolicy{
		MissingParams: []string{
			"Missing necessary parameters",
			"missing required parameter",
			"required parameter is missing",
		},
		InvalidValue: []string{
			"There is incorrect value",
			"invalid value",
			"incorrect value",
		},
		Refusal: []string{
			"the limitations of the function",
			"none of the available functions",
			"cannot be addressed by the available functions",
			"beyond the scope of the provided functions",
		},
	}
}

// LoadDetectionPolicy reads a phrase vocabulary from a YAML file.
func LoadDetectionPolicy(path string) (DetectionPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DetectionPolicy{}, sdk.NewConfigurationError("eval.LoadDetectionPolicy", err)
	}
	var policy DetectionPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return DetectionPolicy{}, sdk.NewConfigurationError("eval.LoadDetectionPolicy", err)
	}
	if len(policy.MissingParams) == 0 || len(policy.InvalidValue) == 0 || len(policy.Refusal) == 0 {
		return DetectionPolicy{}, sdk.NewConfigurationError("eval.LoadDetectionPolicy",
			fmt.Errorf("policy must list phrases for all three detection kinds"))
	}
	return policy, nil
}

func (p DetectionPolicy) phrasesFor(kind DetectionKind) []string {
	switch kind {
	case DetectionIncomplete:
		return p.MissingParams
	case DetectionErrorParam:
		return p.InvalidValue
	case DetectionIrrelevant:
		return p.Refusal
	default:
		return nil
	}
}

// SpecialScorer judges problem-detection samples: the model's free-text
// response must report the planted problem the ground truth describes.
type SpecialScorer struct {
	Policy DetectionPolicy
}

// NewSpecialScorer builds a scorer with the default phrase vocabulary.
func NewSpecialScorer() *SpecialScorer {
	return &SpecialScorer{Policy: DefaultDetectionPolicy()}
}

// Name implements Scorer.
func (*SpecialScorer) Name() string { return "special_detect" }

// Score implements Scorer.
func (s *SpecialScorer) Score(_ context.Context, sample Sample, output Output) (ResultRecord, error) {
	if sample.Category != CategorySpecial {
		return ResultRecord{}, misroutedSample("SpecialScorer.Score", sample, CategorySpecial)
	}
	record := sample.GroundTruth.Detection
	if record == nil {
		return ResultRecord{}, sdk.NewValidationError("SpecialScorer.Score",
			fmt.Errorf("sample %s has no detection record", sample.ID))
	}

	phrases := s.Policy.phrasesFor(record.Kind)
	if phrases == nil {
		return ResultRecord{}, sdk.NewValidationError("SpecialScorer.Score",
			fmt.Errorf("sample %s has unknown detection kind %q", sample.ID, record.Kind))
	}
	if !containsAnyPhrase(output.Text, phrases) {
		return failRecord(sample, ErrTypeDetection,
			fmt.Sprintf("response does not report a %s problem", record.Kind)), nil
	}

	switch record.Kind {
	case DetectionIncomplete:
		return s.scoreIncomplete(sample, record, output.Text), nil
	case DetectionErrorParam:
		return s.scoreErrorParam(sample, record, output.Text), nil
	default:
		return s.scoreIrrelevant(sample, output.Text), nil
	}
}

// scoreIncomplete requires the response to name exactly the missing
// parameters: every listed name present, and no other parameter of the
// tool's schema named as missing.
func (s *SpecialScorer) scoreIncomplete(sample Sample, record *DetectionRecord, text string) ResultRecord {
	for _, name := range record.MissingParams {
		if !mentionsWord(text, name) {
			return failRecord(sample, ErrTypeDetection,
				fmt.Sprintf("missing parameter %s not named in the response", name))
		}
	}

	if extra := s.extraMentions(sample, record, record.MissingParams, text); extra != "" {
		return failRecord(sample, ErrTypeDetection,
			fmt.Sprintf("parameter %s named as missing but it is not", extra))
	}
	return newRecord(sample, 1)
}

// scoreErrorParam requires the response to identify exactly the offending
// parameter and its value. Naming a different parameter fails even when the
// model noticed something was wrong.
func (s *SpecialScorer) scoreErrorParam(sample Sample, record *DetectionRecord, text string) ResultRecord {
	if !mentionsWord(text, record.Param) {
		return failRecord(sample, ErrTypeDetection,
			fmt.Sprintf("offending parameter %s not identified", record.Param))
	}
	if record.Value != "" && !strings.Contains(text, record.Value) {
		return failRecord(sample, ErrTypeDetection,
			fmt.Sprintf("offending value %q not identified", record.Value))
	}
	if extra := s.extraMentions(sample, record, []string{record.Param}, text); extra != "" {
		return failRecord(sample, ErrTypeDetection,
			fmt.Sprintf("wrong parameter %s identified", extra))
	}
	return newRecord(sample, 1)
}

// scoreIrrelevant requires a refusal; any response that instead parses as a
// tool call fails regardless of the call's shape.
func (s *SpecialScorer) scoreIrrelevant(sample Sample, text string) ResultRecord {
	if calls, err := callexpr.Parse(text); err == nil && len(calls) > 0 {
		return failRecord(sample, ErrTypeDetection,
			"response attempts a tool call instead of refusing")
	}
	return newRecord(sample, 1)
}

// extraMentions returns a parameter of the tool's schema that the response
// names beyond the allowed set, or "" when there is none. Without a schema
// for the named tool the check degrades to the allowed names only.
func (s *SpecialScorer) extraMentions(sample Sample, record *DetectionRecord, allowed []string, text string) string {
	tool, found := sample.Tools.Find(record.Tool)
	if !found {
		return ""
	}
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = struct{}{}
	}

	names := make([]string, 0, len(tool.Parameters))
	for name := range tool.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := allowedSet[name]; ok {
			continue
		}
		if mentionsWord(text, name) {
			return name
		}
	}
	return ""
}

func containsAnyPhrase(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range phrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// mentionsWord reports whether name appears in text on identifier
// boundaries, so "name" does not count as mentioned inside "username".
func mentionsWord(text, name string) bool {
	if name == "" {
		return false
	}
	re, err := regexp.Compile(`(^|[^A-Za-z0-9_])` + regexp.QuoteMeta(name) + `($|[^A-Za-z0-9_])`)
	if err != nil {
		return strings.Contains(text, name)
	}
	return re.MatchString(text)
}
