package eval

import (
	"context"
	"fmt"
	"time"

	"github.com/robustcall/sdk"
)

// Scorer judges one sample category. Scorers are stateless and safe for
// concurrent use; all per-episode state lives in the sandbox objects a
// score call creates.
type Scorer interface {
	// Score judges the model output against the sample's ground truth.
	// A returned error means the scorer could not judge at all (malformed
	// ground truth, misrouted category); ordinary wrong answers are
	// expressed as a low-accuracy ResultRecord, not an error.
	Score(ctx context.Context, sample Sample, output Output) (ResultRecord, error)

	// Name identifies the scorer in logs.
	Name() string
}

// newRecord stamps the fields every record shares.
func newRecord(sample Sample, accuracy float64) ResultRecord {
	return ResultRecord{
		SampleID:  sample.ID,
		Category:  sample.Category,
		Accuracy:  accuracy,
		Timestamp: time.Now(),
	}
}

func failRecord(sample Sample, errType, detail string) ResultRecord {
	rec := newRecord(sample, 0)
	rec.ErrorType = errType
	rec.Detail = detail
	return rec
}

func misroutedSample(op string, sample Sample, want Category) error {
	return sdk.NewValidationError(op,
		fmt.Errorf("sample %s has category %s, scorer handles %s", sample.ID, sample.Category, want))
}
