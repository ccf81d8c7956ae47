package eval

import (
	"context"
	"fmt"

	"github.com/robustcall/sdk"
	"github.com/robustcall/sdk/callexpr"
	"github.com/robustcall/sdk/perturb"
	"github.com/robustcall/sdk/sandbox"
)

// AgentScorer replays an emitted call sequence through a sandbox episode
// and computes the two trajectory metrics: end-to-end accuracy (binary
// final-state equality, reported as Accuracy) and process accuracy (longest
// matching path prefix, reported as SecondaryMetric).
type AgentScorer struct {
	// Behaviors supplies the per-tool state transitions. Samples span many
	// unrelated simulated domains, so this is caller-provided.
	Behaviors sandbox.BehaviorSet

	// Episode bounds each replay (call budget).
	Episode sandbox.Options
}

// Name implements Scorer.
func (*AgentScorer) Name() string { return "agent_trajectory" }

// Score implements Scorer. A fatal execution error (unknown tool, broken
// argument shapes, decoy bait, budget exhaustion) stops the replay; both
// metrics are then computed from the prefix that was applied. The sample's
// Transition perturbation, when present, wraps the episode's execution
// channel so first invocations fault.
func (s *AgentScorer) Score(ctx context.Context, sample Sample, output Output) (ResultRecord, error) {
	if sample.Category != CategoryAgent {
		return ResultRecord{}, misroutedSample("AgentScorer.Score", sample, CategoryAgent)
	}
	trajectory := sample.GroundTruth.Trajectory
	if trajectory == nil {
		return ResultRecord{}, sdk.NewValidationError("AgentScorer.Score",
			fmt.Errorf("sample %s has no trajectory", sample.ID))
	}

	emitted, parseErr := callexpr.Parse(output.Text)
	if parseErr != nil {
		// An unparseable trajectory applies nothing: score it as an empty
		// emitted sequence against the ground truth.
		emitted = nil
	}

	episode := sandbox.NewEpisode(trajectory.Initial, s.Behaviors, s.Episode)
	channel := sandbox.Channel(episode)
	if sample.Perturbation != nil && sample.Perturbation.Category == perturb.CategoryTransition {
		wrapped, err := perturb.WrapChannel(*sample.Perturbation, episode)
		if err != nil {
			return ResultRecord{}, err
		}
		channel = wrapped
	}

	executed := 0
	var fatal error
	for _, call := range emitted {
		if _, err := channel.Execute(ctx, call); err != nil {
			fatal = err
			break
		}
		executed++
	}

	process := processAccuracy(emitted[:executed], trajectory.Path)
	rec := newRecord(sample, 0)
	rec.SecondaryMetric = &process

	if episode.Baited() {
		rec.ErrorType = ErrTypeSandbox
		rec.Detail = fatal.Error()
		return rec, nil
	}
	if err := episode.Snapshot().MatchesTarget(trajectory.Target); err != nil {
		rec.Detail = err.Error()
		switch {
		case fatal != nil:
			rec.ErrorType = ErrTypeSandbox
			rec.Detail = fatal.Error()
		case parseErr != nil:
			rec.ErrorType = ErrTypeOutputFormat
			rec.Detail = parseErr.Error()
		}
		return rec, nil
	}

	rec.Accuracy = 1
	return rec, nil
}

// processAccuracy is n/m: m the ground-truth path length, n the longest
// prefix of emitted calls value-matching the path in order, stopping at the
// first divergence. An empty path is matched only by an empty emission.
func processAccuracy(emitted []callexpr.Call, path CallSet) float64 {
	if len(path) == 0 {
		if len(emitted) == 0 {
			return 1
		}
		return 0
	}

	n := 0
	for i, want := range path {
		if i >= len(emitted) || !want.Equal(emitted[i]) {
			break
		}
		n++
	}
	return float64(n) / float64(len(path))
}
