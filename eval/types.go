package eval

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robustcall/sdk/callexpr"
	"github.com/robustcall/sdk/perturb"
	"github.com/robustcall/sdk/sandbox"
	"github.com/robustcall/sdk/toolspec"
)

// Category selects which scorer judges a sample.
type Category string

const (
	// CategoryNormal samples expect exact call matching.
	CategoryNormal Category = "normal"

	// CategorySpecial samples expect the model to report a planted problem
	// instead of calling a tool.
	CategorySpecial Category = "special"

	// CategoryAgent samples expect a multi-step trajectory replayed against
	// a sandbox.
	CategoryAgent Category = "agent"
)

// Error type tags attached to failed ResultRecords, in classification
// priority order for Normal samples.
const (
	ErrTypeFunctionName = "function_name"
	ErrTypeParamNum     = "param_num"
	ErrTypeParamType    = "param_type"
	ErrTypeParamValue   = "param_value"
	ErrTypeOutputFormat = "output_format"
	ErrTypeDetection    = "detection"
	ErrTypeSandbox      = "sandbox"
	ErrTypeModel        = "model_error"
	ErrTypeInternal     = "internal"
)

// Sample is one evaluation case.
type Sample struct {
	// ID is unique within an eval set.
	ID string `json:"id" yaml:"id"`

	// Category routes the sample to its scorer.
	Category Category `json:"category" yaml:"category"`

	// Tools is the catalogue shown to the model.
	Tools toolspec.Catalogue `json:"function,omitempty" yaml:"function,omitempty"`

	// Question is the dialogue text shown to the model. Opaque to scoring
	// except as input to Observation perturbations.
	Question string `json:"question,omitempty" yaml:"question,omitempty"`

	// GroundTruth is what counts as correct. Exactly one variant is set,
	// matching Category.
	GroundTruth GroundTruth `json:"ground_truth" yaml:"ground_truth"`

	// Profile carries opaque sample context (user preferences, world time).
	// Passed through to the model, never interpreted here.
	Profile map[string]any `json:"profile,omitempty" yaml:"profile,omitempty"`

	// Perturbation optionally transforms what the model sees. Scoring
	// always works from the untouched GroundTruth.
	Perturbation *perturb.Spec `json:"perturbation,omitempty" yaml:"perturbation,omitempty"`
}

// GroundTruth is the tagged union of per-category expected answers.
type GroundTruth struct {
	// Alternatives holds the accepted call sets for Normal samples; the
	// emitted calls passing against any one alternative is a pass.
	Alternatives []CallSet `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`

	// Detection is the expected problem report for Special samples.
	Detection *DetectionRecord `json:"detection,omitempty" yaml:"detection,omitempty"`

	// Trajectory is the expected path and states for Agent samples.
	Trajectory *Trajectory `json:"trajectory,omitempty" yaml:"trajectory,omitempty"`
}

// CallSet is a collection of call expressions. For Normal matching it is
// unordered; for trajectory paths the order is significant. On the wire it
// is a list of call-expression strings.
type CallSet []callexpr.Call

// MarshalJSON writes the calls in surface syntax.
func (c CallSet) MarshalJSON() ([]byte, error) {
	texts := make([]string, len(c))
	for i, call := range c {
		texts[i] = call.Format()
	}
	return json.Marshal(texts)
}

// UnmarshalJSON parses a list of call-expression strings.
func (c *CallSet) UnmarshalJSON(data []byte) error {
	var texts []string
	if err := json.Unmarshal(data, &texts); err != nil {
		return err
	}
	return c.fromTexts(texts)
}

// MarshalYAML writes the calls in surface syntax.
func (c CallSet) MarshalYAML() (any, error) {
	texts := make([]string, len(c))
	for i, call := range c {
		texts[i] = call.Format()
	}
	return texts, nil
}

// UnmarshalYAML parses a list of call-expression strings.
func (c *CallSet) UnmarshalYAML(node *yaml.Node) error {
	var texts []string
	if err := node.Decode(&texts); err != nil {
		return err
	}
	return c.fromTexts(texts)
}

func (c *CallSet) fromTexts(texts []string) error {
	calls := make([]callexpr.Call, len(texts))
	for i, text := range texts {
		call, err := callexpr.ParseOne(text)
		if err != nil {
			return fmt.Errorf("call %d: %w", i, err)
		}
		calls[i] = call
	}
	*c = calls
	return nil
}

// DetectionKind tags the planted problem a Special sample expects the model
// to report.
type DetectionKind string

const (
	// DetectionIncomplete: the question omits required parameters.
	DetectionIncomplete DetectionKind = "incomplete"

	// DetectionErrorParam: the question supplies a value violating a
	// parameter's constraint.
	DetectionErrorParam DetectionKind = "error_param"

	// DetectionIrrelevant: no available tool can address the request.
	DetectionIrrelevant DetectionKind = "irrelevant"
)

// DetectionRecord is the expected problem report for a Special sample.
type DetectionRecord struct {
	Kind DetectionKind `json:"kind" yaml:"kind"`

	// Tool names the tool the problem concerns. Its parameter schema bounds
	// which names count as "mentioned" when checking set equality.
	Tool string `json:"tool,omitempty" yaml:"tool,omitempty"`

	// MissingParams lists the parameter names an incomplete question omits.
	MissingParams []string `json:"missing_params,omitempty" yaml:"missing_params,omitempty"`

	// Param and Value identify the offending parameter for error_param.
	Param string `json:"param,omitempty" yaml:"param,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Trajectory is the ground truth for an Agent sample.
type Trajectory struct {
	// Initial seeds the sandbox episode.
	Initial sandbox.State `json:"initial" yaml:"initial"`

	// Path is the expected ordered call sequence.
	Path CallSet `json:"path" yaml:"path"`

	// Target is the state the episode must end in.
	Target sandbox.State `json:"target" yaml:"target"`
}

// Output is the model's response to a sample: raw text, which the scorers
// parse or pattern-match as their category requires.
type Output struct {
	Text string `json:"text" yaml:"text"`
}

// ResultRecord is the immutable per-sample outcome. Recomputation produces
// a new record; records are never mutated after creation.
type ResultRecord struct {
	SampleID string   `json:"sample_id"`
	Category Category `json:"category"`

	// Accuracy is in [0,1]. For Agent samples it is end-to-end accuracy.
	Accuracy float64 `json:"accuracy"`

	// ErrorType tags the first violated check when the sample failed.
	ErrorType string `json:"error_type,omitempty"`

	// SecondaryMetric carries process accuracy for Agent samples.
	SecondaryMetric *float64 `json:"secondary_metric,omitempty"`

	// Detail is a human-readable account of the failure, empty on a pass.
	Detail string `json:"detail,omitempty"`

	// Timestamp is when the record was created.
	Timestamp time.Time `json:"timestamp"`
}

// CategorySummary aggregates the records of one category.
type CategorySummary struct {
	Count        int     `json:"count"`
	CorrectCount int     `json:"correct_count"`
	MeanAccuracy float64 `json:"mean_accuracy"`
}

// RunSummary is the aggregate outcome of a run.
type RunSummary struct {
	OverallAccuracy float64                      `json:"overall_accuracy"`
	PerCategory     map[Category]CategorySummary `json:"per_category"`
}

// EvalSet is a named collection of samples loadable from JSON or YAML.
type EvalSet struct {
	Name     string         `json:"name" yaml:"name"`
	Version  string         `json:"version" yaml:"version"`
	Samples  []Sample       `json:"samples" yaml:"samples"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
