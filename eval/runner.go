package eval

import (
	"context"
	"sync"

	"github.com/robustcall/sdk/perturb"
	"github.com/robustcall/sdk/sandbox"
)

// ModelFunc produces the model-under-test's output for one sample. The
// sample it receives is the perturbed view when the sample carries a
// perturbation; the runner scores against the original ground truth either
// way.
type ModelFunc func(ctx context.Context, sample Sample) (Output, error)

// Runner evaluates samples concurrently. Samples are independent units of
// work; within a sample evaluation is strictly sequential. No sample-level
// failure ever aborts the run: model errors, scorer errors, and perturbation
// configuration errors all degrade to a zero-accuracy record with an error
// tag.
type Runner struct {
	// Normal, Special, and Agent are the per-category scorers.
	Normal  Scorer
	Special Scorer
	Agent   Scorer

	// Concurrency bounds the worker pool. Zero or negative means 1.
	Concurrency int

	// Logger, when set, receives every record as it is produced.
	Logger Logger

	// Observer, when set, records spans and metrics per sample.
	Observer *Observer
}

// NewRunner builds a runner with the default scorers. The behavior set
// backs agent-sample sandboxes.
func NewRunner(behaviors sandbox.BehaviorSet) *Runner {
	return &Runner{
		Normal:      NormalScorer{},
		Special:     NewSpecialScorer(),
		Agent:       &AgentScorer{Behaviors: behaviors},
		Concurrency: 1,
	}
}

// Run evaluates every sample and returns one record per evaluated sample,
// in input order. On context cancellation it returns the records completed
// so far together with the context's error.
func (r *Runner) Run(ctx context.Context, samples []Sample, model ModelFunc) ([]ResultRecord, error) {
	workers := r.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(samples) {
		workers = len(samples)
	}

	type indexed struct {
		idx    int
		sample Sample
	}
	work := make(chan indexed)
	results := make([]*ResultRecord, len(samples))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				rec := r.evaluate(ctx, item.sample, model)
				results[item.idx] = &rec
			}
		}()
	}

dispatch:
	for i, sample := range samples {
		select {
		case work <- indexed{idx: i, sample: sample}:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(work)
	wg.Wait()

	out := make([]ResultRecord, 0, len(samples))
	for _, rec := range results {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out, ctx.Err()
}

// evaluate runs the full per-sample pipeline: perturb the observable view,
// query the model, route to the category's scorer, then log and observe.
func (r *Runner) evaluate(ctx context.Context, sample Sample, model ModelFunc) ResultRecord {
	view, scoring, err := r.prepare(sample)
	if err != nil {
		return r.emit(ctx, failRecord(sample, ErrTypeInternal, err.Error()))
	}

	output, err := model(ctx, view)
	if err != nil {
		return r.emit(ctx, failRecord(sample, ErrTypeModel, err.Error()))
	}

	scorer := r.scorerFor(sample.Category)
	if scorer == nil {
		return r.emit(ctx, failRecord(sample, ErrTypeInternal,
			"no scorer for category "+string(sample.Category)))
	}

	rec, err := scorer.Score(ctx, scoring, output)
	if err != nil {
		return r.emit(ctx, failRecord(sample, ErrTypeInternal, err.Error()))
	}
	return r.emit(ctx, rec)
}

// prepare builds the model-facing view of a sample and the sample scoring
// runs against. Static perturbations rewrite the view; the abbreviated
// Reward variants additionally rename the real tool, and that rename is
// applied to a copy of the ground-truth calls since the renamed tool IS the
// correct one under that variant.
func (r *Runner) prepare(sample Sample) (view Sample, scoring Sample, err error) {
	view, scoring = sample, sample
	spec := sample.Perturbation
	if spec == nil || spec.Category == perturb.CategoryTransition {
		// Transition wrapping happens inside the agent scorer.
		return view, scoring, nil
	}

	out, err := perturb.Apply(*spec, perturb.Input{
		Question:    sample.Question,
		Tools:       sample.Tools,
		TargetTools: sample.targetToolNames(),
	})
	if err != nil {
		return Sample{}, Sample{}, err
	}

	view.Question = out.Question
	view.Tools = out.Tools
	if len(out.Renamed) > 0 {
		scoring.GroundTruth = sample.GroundTruth.renameCalls(out.Renamed)
	}
	return view, scoring, nil
}

func (r *Runner) scorerFor(category Category) Scorer {
	switch category {
	case CategoryNormal:
		return r.Normal
	case CategorySpecial:
		return r.Special
	case CategoryAgent:
		return r.Agent
	default:
		return nil
	}
}

func (r *Runner) emit(ctx context.Context, rec ResultRecord) ResultRecord {
	if r.Logger != nil {
		// Logging failures never fail the sample.
		_ = r.Logger.Log(rec)
	}
	if r.Observer != nil {
		r.Observer.Record(ctx, rec)
	}
	return rec
}

// targetToolNames collects the tool names the ground truth invokes, for
// decoy construction.
func (s Sample) targetToolNames() []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(calls CallSet) {
		for _, call := range calls {
			if _, ok := seen[call.Name]; !ok {
				seen[call.Name] = struct{}{}
				names = append(names, call.Name)
			}
		}
	}
	for _, alt := range s.GroundTruth.Alternatives {
		add(alt)
	}
	if s.GroundTruth.Trajectory != nil {
		add(s.GroundTruth.Trajectory.Path)
	}
	return names
}

// renameCalls returns a deep copy of the ground truth with call names
// remapped.
func (g GroundTruth) renameCalls(renamed map[string]string) GroundTruth {
	renameSet := func(calls CallSet) CallSet {
		out := make(CallSet, len(calls))
		for i, call := range calls {
			out[i] = call
			if newName, ok := renamed[call.Name]; ok {
				out[i].Name = newName
			}
		}
		return out
	}

	out := g
	if len(g.Alternatives) > 0 {
		out.Alternatives = make([]CallSet, len(g.Alternatives))
		for i, alt := range g.Alternatives {
			out.Alternatives[i] = renameSet(alt)
		}
	}
	if g.Trajectory != nil {
		trajectory := *g.Trajectory
		trajectory.Path = renameSet(g.Trajectory.Path)
		out.Trajectory = &trajectory
	}
	return out
}
